package vector

import "testing"

func TestTopK(t *testing.T) {
	scores := []float32{0.1, 0.9, 0.5, 0.9, -0.2}

	got := TopK(scores, 3)
	want := []Ranked[float32]{{Index: 1, Score: 0.9}, {Index: 3, Score: 0.9}, {Index: 2, Score: 0.5}}
	if len(got) != len(want) {
		t.Fatalf("TopK len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("TopK[%d] = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestTopK_Clamp(t *testing.T) {
	scores := []float32{0.3, 0.1, 0.2}
	for _, k := range []int{0, -1, 10} {
		got := TopK(scores, k)
		if len(got) != 3 {
			t.Fatalf("TopK(k=%d) len = %d, want 3", k, len(got))
		}
		if got[0].Index != 0 || got[1].Index != 2 || got[2].Index != 1 {
			t.Fatalf("TopK(k=%d) order = %+v", k, got)
		}
	}
	if got := TopK[float32](nil, 3); got != nil {
		t.Fatalf("TopK(nil) = %v, want nil", got)
	}
}

func TestTopK_TiesPreferLowerIndex(t *testing.T) {
	scores := make([]float32, 10)
	got := TopK(scores, 4)
	for i, r := range got {
		if r.Index != i {
			t.Fatalf("TopK tie[%d] index = %d, want %d", i, r.Index, i)
		}
	}
}

func TestTopK_Float64(t *testing.T) {
	got := TopK([]float64{2, 7.5, 7.5, 1}, 2)
	if got[0].Index != 1 || got[1].Index != 2 {
		t.Fatalf("TopK float64 = %+v, want indices [1 2]", got)
	}
}
