// Package snapshot checkpoints a memory.Memory into SQLite and restores it.
//
// A snapshot is one row per slot in the slots table plus one row in the
// companion "<table>_meta" table holding the snapshot id, creation time and
// the msgpack encoded memory.Config. Several snapshots can share a table;
// Load returns the most recent one.
//
// Typical usage:
//
//	db, _ := engine.OpenSingle("./memory.sqlite")
//	_ = snapshot.EnsureSchema(ctx, db, "kv_slots")
//	id, _ := snapshot.Save(ctx, db, "kv_slots", mem)
//	restored, _ := snapshot.Load(ctx, db, "kv_slots")
package snapshot
