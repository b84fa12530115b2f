package vector

import (
	"container/heap"
	"sort"
)

// Number is the element type top-k selection works over.
type Number interface {
	~float32 | ~float64
}

// Ranked is a single top-k entry.
type Ranked[T Number] struct {
	Index int
	Score T
}

// better orders by descending score, then ascending index, so selection is
// deterministic under ties.
func better[T Number](a, b Ranked[T]) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	return a.Index < b.Index
}

// worstFirst is a heap whose root is the weakest retained candidate.
type worstFirst[T Number] []Ranked[T]

func (h worstFirst[T]) Len() int            { return len(h) }
func (h worstFirst[T]) Less(i, j int) bool  { return better(h[j], h[i]) }
func (h worstFirst[T]) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *worstFirst[T]) Push(x interface{}) { *h = append(*h, x.(Ranked[T])) }
func (h *worstFirst[T]) Pop() interface{} {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

// TopK returns the k highest scores with their positions, sorted descending.
// Equal scores are ordered by lower position first, so the k positions are
// always distinct. k is clamped to len(scores); k <= 0 returns every element
// sorted.
func TopK[T Number](scores []T, k int) []Ranked[T] {
	if k <= 0 || k > len(scores) {
		k = len(scores)
	}
	if k == 0 {
		return nil
	}
	h := make(worstFirst[T], 0, k)
	for i, s := range scores {
		c := Ranked[T]{Index: i, Score: s}
		if h.Len() < k {
			heap.Push(&h, c)
			continue
		}
		if better(c, h[0]) {
			h[0] = c
			heap.Fix(&h, 0)
		}
	}
	out := []Ranked[T](h)
	SortRanked(out)
	return out
}

// SortRanked sorts entries descending by score with index tie-breaking.
func SortRanked[T Number](entries []Ranked[T]) {
	sort.Slice(entries, func(a, b int) bool { return better(entries[a], entries[b]) })
}
