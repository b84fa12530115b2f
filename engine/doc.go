// Package engine opens SQLite databases with the modernc.org/sqlite driver
// and registers the vector scalar functions used to inspect memory snapshots
// from SQL: vec_cosine, vec_l2, vec_dot and vec_normalize.
package engine
