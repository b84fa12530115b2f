// Package vector holds the numeric primitives the memory calls into:
//   - dot products, magnitudes and unit normalization (magnitudes come from
//     github.com/viant/vec/search)
//   - deterministic top-k selection
//   - injectable randomness for initialisation and eviction noise
//   - the float32 BLOB encoding shared by the SQLite helpers
package vector
