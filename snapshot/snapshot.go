package snapshot

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/viant/kvmem/memory"
	"github.com/viant/kvmem/vector"
	"github.com/vmihailenco/msgpack/v5"
)

// ErrNotFound is returned when the requested snapshot does not exist.
var ErrNotFound = errors.New("snapshot: not found")

// Info describes a stored snapshot.
type Info struct {
	ID        string
	Capacity  int
	KeyDim    int
	CreatedAt time.Time
}

// Save writes every slot of mem plus a metadata row in one transaction and
// returns the new snapshot id. The schema is created when missing.
func Save(ctx context.Context, db *sql.DB, table string, mem *memory.Memory) (string, error) {
	if mem == nil {
		return "", fmt.Errorf("snapshot: memory is nil")
	}
	if err := EnsureSchema(ctx, db, table); err != nil {
		return "", err
	}
	cfg := mem.Config()
	blob, err := msgpack.Marshal(&cfg)
	if err != nil {
		return "", fmt.Errorf("snapshot: encode config: %w", err)
	}
	store := mem.Store()
	slots := make([]int, store.Len())
	for i := range slots {
		slots[i] = i
	}
	keys, values, ages := store.Read(slots)

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("snapshot: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	id := uuid.NewString()
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO `+MetaTable(table)+`(id, capacity, key_dim, config, created_at) VALUES(?, ?, ?, ?, ?)`,
		id, cfg.Capacity, cfg.KeyDim, blob, time.Now().UnixNano()); err != nil {
		return "", fmt.Errorf("snapshot: insert meta: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO `+table+`(snapshot_id, slot, value, age, key) VALUES(?, ?, ?, ?, ?)`)
	if err != nil {
		return "", fmt.Errorf("snapshot: prepare: %w", err)
	}
	defer stmt.Close()
	for i := range slots {
		key, err := vector.EncodeEmbedding(keys[i])
		if err != nil {
			return "", err
		}
		if _, err := stmt.ExecContext(ctx, id, i, values[i], ages[i], key); err != nil {
			return "", fmt.Errorf("snapshot: insert slot %d: %w", i, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("snapshot: commit: %w", err)
	}
	return id, nil
}

// Load restores the most recent snapshot in table. opts are passed to
// memory.New; a restored memory with a non-zero Config.Seed replays its
// random sequence from the start.
func Load(ctx context.Context, db *sql.DB, table string, opts ...memory.Option) (*memory.Memory, error) {
	if err := validateIdentifier(table); err != nil {
		return nil, err
	}
	var id string
	err := db.QueryRowContext(ctx, `SELECT id FROM `+MetaTable(table)+` ORDER BY rowid DESC LIMIT 1`).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: table %s is empty", ErrNotFound, table)
	}
	if err != nil {
		return nil, fmt.Errorf("snapshot: latest in %s: %w", table, err)
	}
	return LoadID(ctx, db, table, id, opts...)
}

// LoadID restores the snapshot with the given id.
func LoadID(ctx context.Context, db *sql.DB, table, id string, opts ...memory.Option) (*memory.Memory, error) {
	if err := validateIdentifier(table); err != nil {
		return nil, err
	}
	var blob []byte
	err := db.QueryRowContext(ctx, `SELECT config FROM `+MetaTable(table)+` WHERE id = ?`, id).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("snapshot: meta %s: %w", id, err)
	}
	var cfg memory.Config
	if err := msgpack.Unmarshal(blob, &cfg); err != nil {
		return nil, fmt.Errorf("snapshot: decode config %s: %w", id, err)
	}
	mem, err := memory.New(cfg, opts...)
	if err != nil {
		return nil, fmt.Errorf("snapshot: restore %s: %w", id, err)
	}

	rows, err := db.QueryContext(ctx, `SELECT slot, value, age, key FROM `+table+` WHERE snapshot_id = ? ORDER BY slot`, id)
	if err != nil {
		return nil, fmt.Errorf("snapshot: slots %s: %w", id, err)
	}
	defer rows.Close()
	update := memory.SlotUpdate{
		Keys:   make([][]float32, 0, cfg.Capacity),
		Values: make([]int64, 0, cfg.Capacity),
		Ages:   make([]int64, 0, cfg.Capacity),
	}
	var slots []int
	for rows.Next() {
		var slot int
		var value, age int64
		var key []byte
		if err := rows.Scan(&slot, &value, &age, &key); err != nil {
			return nil, fmt.Errorf("snapshot: scan slot: %w", err)
		}
		if slot < 0 || slot >= cfg.Capacity {
			return nil, fmt.Errorf("snapshot: slot %d outside capacity %d", slot, cfg.Capacity)
		}
		vec, err := vector.DecodeEmbedding(key)
		if err != nil {
			return nil, fmt.Errorf("snapshot: slot %d: %w", slot, err)
		}
		if len(vec) != cfg.KeyDim {
			return nil, fmt.Errorf("snapshot: slot %d key has %d values, want %d", slot, len(vec), cfg.KeyDim)
		}
		slots = append(slots, slot)
		update.Keys = append(update.Keys, vec)
		update.Values = append(update.Values, value)
		update.Ages = append(update.Ages, age)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("snapshot: slots %s: %w", id, err)
	}
	if len(slots) != cfg.Capacity {
		return nil, fmt.Errorf("snapshot: %s has %d slots, want %d", id, len(slots), cfg.Capacity)
	}
	mem.Store().Write(slots, update)
	return mem, nil
}

// List returns the snapshots stored in table, newest first.
func List(ctx context.Context, db *sql.DB, table string) ([]Info, error) {
	if err := validateIdentifier(table); err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(ctx, `SELECT id, capacity, key_dim, created_at FROM `+MetaTable(table)+` ORDER BY rowid DESC`)
	if err != nil {
		return nil, fmt.Errorf("snapshot: list %s: %w", table, err)
	}
	defer rows.Close()
	var out []Info
	for rows.Next() {
		var info Info
		var created int64
		if err := rows.Scan(&info.ID, &info.Capacity, &info.KeyDim, &created); err != nil {
			return nil, fmt.Errorf("snapshot: scan: %w", err)
		}
		info.CreatedAt = time.Unix(0, created)
		out = append(out, info)
	}
	return out, rows.Err()
}

// Delete removes a snapshot and its slots.
func Delete(ctx context.Context, db *sql.DB, table, id string) error {
	if err := validateIdentifier(table); err != nil {
		return err
	}
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("snapshot: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()
	res, err := tx.ExecContext(ctx, `DELETE FROM `+MetaTable(table)+` WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("snapshot: delete %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM `+table+` WHERE snapshot_id = ?`, id); err != nil {
		return fmt.Errorf("snapshot: delete slots %s: %w", id, err)
	}
	return tx.Commit()
}
