// Package memtab exposes a live memory.Memory as a read-only SQLite virtual
// table.
//
// Usage:
//
//	_ = memtab.CreateTable(ctx, db, "slots", mem)
//	SELECT slot, value, age FROM slots WHERE age > 10;
//	SELECT slot, value, score FROM slots WHERE key MATCH '[0.1, 0.9]';
//	SELECT slot, value FROM slots WHERE key MATCH ? AND score >= 0.8;
//
// A MATCH argument is a float32 BLOB or any text accepted by
// vector.ParseEmbedding. It returns the memory's top-k neighbours, best first,
// using Memory.Predict, so queries never change the memory. The memory is not
// locked: do not run SQL against it while another goroutine calls Query.
//
// Each Register call mints a fresh module name (prefix_N). The driver keeps
// modules for the life of the process and installs one only on the first
// connection opened after registration.
package memtab
