package memtab

import (
	"context"
	"database/sql"
	"fmt"
	"sync/atomic"

	"github.com/viant/kvmem/memory"
	"github.com/viant/kvmem/vector"
	"modernc.org/sqlite/vtab"
)

const schema = "CREATE TABLE %s(slot INTEGER, value INTEGER, age INTEGER, key BLOB, score REAL HIDDEN)"

const (
	colSlot = iota
	colValue
	colAge
	colKey
	colScore
)

const (
	idxScan = iota
	idxMatch
	idxMatchScore
)

// modules numbers registrations. The driver installs a module only on the
// first connection opened after it is registered, so every registration gets
// its own name.
var modules atomic.Uint64

// Module implements vtab.Module for one registered memory.
type Module struct {
	name string
	mem  *memory.Memory
}

// Table is one virtual table instance over the module's memory.
type Table struct {
	mem *memory.Memory
}

type row struct {
	slot  int
	score float64
	match bool
}

// Cursor iterates slots of a scan or neighbours of a MATCH.
type Cursor struct {
	table *Table
	rows  []row
	pos   int
}

// Register makes mem available as a new module whose name starts with prefix
// and returns that name for CREATE VIRTUAL TABLE ... USING. The module is
// installed on the next connection the driver opens, so call Register right
// before the first statement on a fresh db.
func Register(db *sql.DB, prefix string, mem *memory.Memory) (string, error) {
	if mem == nil {
		return "", fmt.Errorf("memtab: memory is nil")
	}
	if prefix == "" {
		return "", fmt.Errorf("memtab: module name is empty")
	}
	name := fmt.Sprintf("%s_%d", prefix, modules.Add(1))
	if err := vtab.RegisterModule(db, name, &Module{name: name, mem: mem}); err != nil {
		return "", fmt.Errorf("memtab: register %s: %w", name, err)
	}
	return name, nil
}

// CreateTable registers mem and creates table over it on db.
func CreateTable(ctx context.Context, db *sql.DB, table string, mem *memory.Memory) error {
	name, err := Register(db, "kvmem", mem)
	if err != nil {
		return err
	}
	if _, err := db.ExecContext(ctx, fmt.Sprintf("CREATE VIRTUAL TABLE %s USING %s", table, name)); err != nil {
		return fmt.Errorf("memtab: create %s: %w", table, err)
	}
	return nil
}

// Create declares the table schema.
func (m *Module) Create(ctx vtab.Context, args []string) (vtab.Table, error) {
	return m.connect(ctx, args)
}

// Connect attaches to an existing table.
func (m *Module) Connect(ctx vtab.Context, args []string) (vtab.Table, error) {
	return m.connect(ctx, args)
}

func (m *Module) connect(ctx vtab.Context, args []string) (vtab.Table, error) {
	if len(args) < 3 {
		return nil, fmt.Errorf("memtab: %s expects at least 3 args, got %d", m.name, len(args))
	}
	if err := ctx.EnableConstraintSupport(); err != nil {
		return nil, fmt.Errorf("memtab: EnableConstraintSupport failed: %w", err)
	}
	if err := ctx.Declare(fmt.Sprintf(schema, args[2])); err != nil {
		return nil, err
	}
	return &Table{mem: m.mem}, nil
}

// BestIndex plans a full scan, or a neighbour lookup when key MATCH is
// present, optionally bounded below by score.
func (t *Table) BestIndex(info *vtab.IndexInfo) error {
	var matchConstraint, scoreConstraint *vtab.Constraint
	for i := range info.Constraints {
		c := &info.Constraints[i]
		if !c.Usable {
			continue
		}
		switch {
		case c.Column == colKey && c.Op == vtab.OpMATCH:
			matchConstraint = c
		case c.Column == colScore && (c.Op == vtab.OpGE || c.Op == vtab.OpGT):
			scoreConstraint = c
		}
	}
	switch {
	case matchConstraint == nil:
		info.IdxNum = idxScan
		info.EstimatedCost = 1e6
		return nil
	case scoreConstraint == nil:
		matchConstraint.ArgIndex = 0
		matchConstraint.Omit = true
		info.IdxNum = idxMatch
	default:
		matchConstraint.ArgIndex = 0
		matchConstraint.Omit = true
		scoreConstraint.ArgIndex = 1
		// Filter applies >=; SQLite rechecks a strict bound.
		scoreConstraint.Omit = scoreConstraint.Op == vtab.OpGE
		info.IdxNum = idxMatchScore
	}
	info.EstimatedCost = 10
	return nil
}

// Open allocates a new cursor.
func (t *Table) Open() (vtab.Cursor, error) { return &Cursor{table: t}, nil }

// Disconnect releases nothing; the memory belongs to the caller.
func (t *Table) Disconnect() error { return nil }

// Destroy releases nothing; the memory belongs to the caller.
func (t *Table) Destroy() error { return nil }

// Filter materialises the rows for the chosen plan.
func (c *Cursor) Filter(idxNum int, idxStr string, vals []vtab.Value) error {
	_ = idxStr
	c.rows = nil
	c.pos = 0
	mem := c.table.mem
	if idxNum == idxScan {
		c.rows = make([]row, mem.Store().Len())
		for i := range c.rows {
			c.rows[i] = row{slot: i}
		}
		return nil
	}
	if len(vals) == 0 || vals[0] == nil {
		return fmt.Errorf("memtab: MATCH argument is required")
	}
	query, err := asEmbedding(vals[0])
	if err != nil {
		return err
	}
	minScore := -1.0
	if idxNum == idxMatchScore && len(vals) > 1 {
		if minScore, err = asFloat(vals[1]); err != nil {
			return err
		}
	}
	prediction, err := mem.Predict([][]float32{query})
	if err != nil {
		return fmt.Errorf("memtab: MATCH: %w", err)
	}
	for j, slot := range prediction.Neighbors[0] {
		score := float64(prediction.Scores[0][j])
		if score < minScore {
			break
		}
		c.rows = append(c.rows, row{slot: slot, score: score, match: true})
	}
	return nil
}

// Next advances the cursor.
func (c *Cursor) Next() error {
	if c.pos < len(c.rows) {
		c.pos++
	}
	return nil
}

// Eof reports end-of-rows.
func (c *Cursor) Eof() bool { return c.pos >= len(c.rows) }

// Column returns the value of a column in the current row.
func (c *Cursor) Column(col int) (vtab.Value, error) {
	if c.pos < 0 || c.pos >= len(c.rows) {
		return nil, fmt.Errorf("memtab: Column out of range (pos=%d,len=%d)", c.pos, len(c.rows))
	}
	r := c.rows[c.pos]
	store := c.table.mem.Store()
	switch col {
	case colSlot:
		return int64(r.slot), nil
	case colValue:
		return store.Value(r.slot), nil
	case colAge:
		return store.Age(r.slot), nil
	case colKey:
		keys, _, _ := store.Read([]int{r.slot})
		return vector.EncodeEmbedding(keys[0])
	case colScore:
		if !r.match {
			return nil, nil
		}
		return r.score, nil
	}
	return nil, fmt.Errorf("memtab: unsupported column %d", col)
}

// Rowid returns the slot of the current row.
func (c *Cursor) Rowid() (int64, error) {
	if c.pos < 0 || c.pos >= len(c.rows) {
		return 0, fmt.Errorf("memtab: Rowid out of range (pos=%d,len=%d)", c.pos, len(c.rows))
	}
	return int64(c.rows[c.pos].slot), nil
}

// Close releases resources.
func (c *Cursor) Close() error { c.rows = nil; c.pos = 0; return nil }

func asEmbedding(v vtab.Value) ([]float32, error) {
	switch val := v.(type) {
	case []byte:
		return vector.DecodeEmbedding(val)
	case string:
		return vector.ParseEmbedding(val)
	default:
		return nil, fmt.Errorf("memtab: unsupported MATCH argument type %T", v)
	}
}

func asFloat(v vtab.Value) (float64, error) {
	switch val := v.(type) {
	case float64:
		return val, nil
	case int64:
		return float64(val), nil
	default:
		return 0, fmt.Errorf("memtab: unsupported score bound type %T", v)
	}
}
