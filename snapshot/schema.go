package snapshot

import (
	"context"
	"database/sql"
	"fmt"
)

// MetaTable returns the name of the metadata table paired with table.
func MetaTable(table string) string { return table + "_meta" }

// SlotsTableDDL returns the DDL for the per-slot rows of a snapshot.
func SlotsTableDDL(table string) string {
	return `CREATE TABLE IF NOT EXISTS ` + table + ` (
    snapshot_id TEXT NOT NULL,
    slot        INTEGER NOT NULL,
    value       INTEGER NOT NULL,
    age         INTEGER NOT NULL,
    key         BLOB NOT NULL,
    PRIMARY KEY(snapshot_id, slot)
);`
}

// MetaTableDDL returns the DDL for the snapshot metadata table.
func MetaTableDDL(table string) string {
	return `CREATE TABLE IF NOT EXISTS ` + MetaTable(table) + ` (
    id         TEXT PRIMARY KEY,
    capacity   INTEGER NOT NULL,
    key_dim    INTEGER NOT NULL,
    config     BLOB NOT NULL,
    created_at INTEGER NOT NULL
);`
}

// EnsureSchema creates the slots and metadata tables if they do not exist.
func EnsureSchema(ctx context.Context, db *sql.DB, table string) error {
	if db == nil {
		return fmt.Errorf("snapshot: db is nil")
	}
	if err := validateIdentifier(table); err != nil {
		return err
	}
	for _, ddl := range []string{SlotsTableDDL(table), MetaTableDDL(table)} {
		if _, err := db.ExecContext(ctx, ddl); err != nil {
			return fmt.Errorf("snapshot: ensure schema %s: %w", table, err)
		}
	}
	return nil
}

// validateIdentifier accepts plain or schema-qualified SQL identifiers made
// of letters, digits and underscores.
func validateIdentifier(name string) error {
	if name == "" {
		return fmt.Errorf("snapshot: table name is empty")
	}
	for i, r := range name {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9' && i > 0:
		case r == '.' && i > 0 && i < len(name)-1:
		default:
			return fmt.Errorf("snapshot: invalid table name %q", name)
		}
	}
	return nil
}
