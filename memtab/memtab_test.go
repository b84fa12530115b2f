package memtab

import (
	"context"
	"database/sql"
	"math"
	"math/rand/v2"
	"strings"
	"testing"

	"github.com/viant/kvmem/engine"
	"github.com/viant/kvmem/memory"
	"github.com/viant/kvmem/vector"
)

func setup(t *testing.T) (*sql.DB, *memory.Memory) {
	t.Helper()
	cfg := memory.DefaultConfig(8, 3)
	cfg.TopK = 3
	mem, err := memory.New(cfg, memory.WithSource(rand.New(rand.NewPCG(1, 2))))
	if err != nil {
		t.Fatalf("memory.New failed: %v", err)
	}
	if _, err := mem.Query([][]float32{{0, 0, 2}}, []int64{9}, false); err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	db, err := engine.OpenSingle(":memory:")
	if err != nil {
		t.Fatalf("OpenSingle failed: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := CreateTable(context.Background(), db, "slots", mem); err != nil {
		t.Fatalf("CreateTable failed: %v", err)
	}
	return db, mem
}

func TestScan(t *testing.T) {
	db, mem := setup(t)
	rows, err := db.Query(`SELECT slot, value, age, key FROM slots ORDER BY slot`)
	if err != nil {
		t.Fatalf("SELECT failed: %v", err)
	}
	defer rows.Close()
	var n int
	for rows.Next() {
		var slot int
		var value, age int64
		var key []byte
		if err := rows.Scan(&slot, &value, &age, &key); err != nil {
			t.Fatalf("scan: %v", err)
		}
		if slot != n {
			t.Fatalf("slot = %d, want %d", slot, n)
		}
		if value != mem.Store().Value(slot) || age != mem.Store().Age(slot) {
			t.Fatalf("slot %d value/age = %d/%d, want %d/%d", slot, value, age, mem.Store().Value(slot), mem.Store().Age(slot))
		}
		vec, err := vector.DecodeEmbedding(key)
		if err != nil || len(vec) != 3 {
			t.Fatalf("slot %d key decode = %v, %v", slot, vec, err)
		}
		n++
	}
	if err := rows.Err(); err != nil {
		t.Fatalf("rows: %v", err)
	}
	if n != 8 {
		t.Fatalf("scanned %d slots, want 8", n)
	}

	var labelled int
	if err := db.QueryRow(`SELECT count(*) FROM slots WHERE value = 9 AND age = 0`).Scan(&labelled); err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if labelled != 1 {
		t.Fatalf("labelled slots = %d, want 1", labelled)
	}
}

func TestMatch(t *testing.T) {
	db, mem := setup(t)
	version := mem.Store().Version()
	for _, arg := range []any{"[0, 0, 1]", "0,0,5", mustEncode(t, []float32{0, 0, 1})} {
		rows, err := db.Query(`SELECT slot, value, score FROM slots WHERE key MATCH ?`, arg)
		if err != nil {
			t.Fatalf("MATCH %v failed: %v", arg, err)
		}
		var values []int64
		var scores []float64
		for rows.Next() {
			var slot int
			var value int64
			var score float64
			if err := rows.Scan(&slot, &value, &score); err != nil {
				t.Fatalf("scan: %v", err)
			}
			values = append(values, value)
			scores = append(scores, score)
		}
		rows.Close()
		if len(values) != 3 {
			t.Fatalf("MATCH %v returned %d rows, want top_k=3", arg, len(values))
		}
		if values[0] != 9 || math.Abs(scores[0]-1) > 1e-5 {
			t.Fatalf("MATCH %v best = %d (%v), want 9 (1)", arg, values[0], scores[0])
		}
		for i := 1; i < len(scores); i++ {
			if scores[i] > scores[i-1] {
				t.Fatalf("scores not descending: %v", scores)
			}
		}
	}
	if mem.Store().Version() != version {
		t.Fatalf("MATCH changed the memory")
	}

	var n int
	if err := db.QueryRow(`SELECT count(*) FROM slots WHERE key MATCH '[0,0,1]' AND score >= 0.9999`).Scan(&n); err != nil {
		t.Fatalf("MATCH with score failed: %v", err)
	}
	if n != 1 {
		t.Fatalf("rows above 0.9999 = %d, want 1", n)
	}

	var slot int
	if err := db.QueryRow(`SELECT slot FROM slots WHERE key MATCH '[1, 0]'`).Scan(&slot); err == nil {
		t.Fatalf("expected dimension error")
	}
}

func mustEncode(t *testing.T, v []float32) []byte {
	t.Helper()
	b, err := vector.EncodeEmbedding(v)
	if err != nil {
		t.Fatalf("EncodeEmbedding failed: %v", err)
	}
	return b
}

func TestCreateTable_FreshConnections(t *testing.T) {
	count := func(capacity int) int {
		t.Helper()
		mem, err := memory.NewDefault(capacity, 2, memory.WithSource(rand.New(rand.NewPCG(7, 7))))
		if err != nil {
			t.Fatalf("NewDefault failed: %v", err)
		}
		db, err := engine.OpenSingle(":memory:")
		if err != nil {
			t.Fatalf("OpenSingle failed: %v", err)
		}
		defer db.Close()
		if err := CreateTable(context.Background(), db, "slots", mem); err != nil {
			t.Fatalf("CreateTable failed: %v", err)
		}
		var n int
		if err := db.QueryRow(`SELECT count(*) FROM slots`).Scan(&n); err != nil {
			t.Fatalf("count failed: %v", err)
		}
		return n
	}
	for _, capacity := range []int{5, 11, 3} {
		if got := count(capacity); got != capacity {
			t.Fatalf("count = %d, want %d", got, capacity)
		}
	}
}

func TestRegister_DistinctNames(t *testing.T) {
	small, err := memory.NewDefault(2, 2, memory.WithSource(rand.New(rand.NewPCG(3, 3))))
	if err != nil {
		t.Fatalf("NewDefault failed: %v", err)
	}
	large, err := memory.NewDefault(6, 2, memory.WithSource(rand.New(rand.NewPCG(4, 4))))
	if err != nil {
		t.Fatalf("NewDefault failed: %v", err)
	}
	db, err := engine.OpenSingle(":memory:")
	if err != nil {
		t.Fatalf("OpenSingle failed: %v", err)
	}
	defer db.Close()
	first, err := Register(db, "kvmem_pair", small)
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	second, err := Register(db, "kvmem_pair", large)
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if first == second || !strings.HasPrefix(first, "kvmem_pair_") {
		t.Fatalf("module names = %q, %q", first, second)
	}
	for table, module := range map[string]string{"a": first, "b": second} {
		if _, err := db.Exec("CREATE VIRTUAL TABLE " + table + " USING " + module); err != nil {
			t.Fatalf("CREATE VIRTUAL TABLE %s failed: %v", table, err)
		}
	}
	var a, b int
	if err := db.QueryRow(`SELECT (SELECT count(*) FROM a), (SELECT count(*) FROM b)`).Scan(&a, &b); err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if a != 2 || b != 6 {
		t.Fatalf("counts = %d, %d, want 2, 6", a, b)
	}
	if _, err := Register(db, "kvmem_pair", nil); err == nil {
		t.Fatalf("Register(nil memory) succeeded")
	}
	if _, err := Register(db, "", small); err == nil {
		t.Fatalf("Register(empty prefix) succeeded")
	}
}
