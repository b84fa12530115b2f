package bruteforce

import "testing"

func TestIndex_Query(t *testing.T) {
	idx := New()
	keys := [][]float32{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}, {0.6, 0.8, 0}}
	if err := idx.Build(keys); err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	slots, scores, err := idx.Query([]float32{1, 0, 0}, 2)
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(slots) != 2 || slots[0] != 0 || slots[1] != 3 {
		t.Fatalf("slots = %v, want [0 3]", slots)
	}
	if scores[0] != 1 {
		t.Fatalf("top score = %v, want 1", scores[0])
	}
}

func TestIndex_SeesInPlaceWrites(t *testing.T) {
	idx := New()
	keys := [][]float32{{1, 0}, {0, 1}}
	_ = idx.Build(keys)
	copy(keys[1], []float32{1, 0})
	keys[0][0], keys[0][1] = 0, 1
	slots, _, err := idx.Query([]float32{1, 0}, 1)
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if slots[0] != 1 {
		t.Fatalf("top slot = %d, want 1", slots[0])
	}
}

func TestIndex_Errors(t *testing.T) {
	idx := New()
	if slots, _, err := idx.Query([]float32{1}, 1); err != nil || slots != nil {
		t.Fatalf("empty index Query = %v, %v; want nil, nil", slots, err)
	}
	if err := idx.Build([][]float32{{1, 0}, {1}}); err == nil {
		t.Fatalf("expected error for ragged keys")
	}
	_ = idx.Build([][]float32{{1, 0}})
	if _, _, err := idx.Query([]float32{1, 0, 0}, 1); err == nil {
		t.Fatalf("expected dim mismatch error")
	}
}
