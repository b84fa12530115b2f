package cover

import (
	"fmt"

	"github.com/viant/kvmem/internal/cover/tree"
	"github.com/viant/kvmem/vector"
)

// Index answers top-k queries with a cover tree over the key rows. On unit
// vectors Euclidean distance orders neighbours exactly as cosine similarity
// does, and being a metric it keeps the tree search exact.
type Index struct {
	keys [][]float32
	dim  int
	base float32
	tree *tree.Tree[int]
}

// Option configures an Index.
type Option func(*Index)

// WithBase sets the cover tree expansion base (> 1).
func WithBase(base float32) Option {
	return func(i *Index) {
		if base > 1 {
			i.base = base
		}
	}
}

// New creates an empty cover index.
func New(opts ...Option) *Index {
	i := &Index{base: 1.3}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Build inserts every key row into a fresh tree.
func (i *Index) Build(keys [][]float32) error {
	if len(keys) == 0 {
		i.keys, i.dim, i.tree = nil, 0, nil
		return nil
	}
	dim := len(keys[0])
	t := tree.NewTree[int](i.base, tree.DistanceFunctionEuclidean)
	for slot, key := range keys {
		if len(key) != dim {
			return fmt.Errorf("cover: inconsistent key dims %d vs %d", len(key), dim)
		}
		t.Insert(slot, tree.NewPoint(key...))
	}
	i.keys, i.dim, i.tree = keys, dim, t
	return nil
}

// Query returns up to k slots ordered by decreasing dot-product similarity.
func (i *Index) Query(query []float32, k int) ([]int, []float32, error) {
	if i.tree == nil {
		return nil, nil, nil
	}
	if len(query) != i.dim {
		return nil, nil, fmt.Errorf("cover: query dim %d != index dim %d", len(query), i.dim)
	}
	if k <= 0 || k > len(i.keys) {
		k = len(i.keys)
	}
	neighbors := i.tree.KNearestNeighbors(tree.NewPoint(query...), k)
	ranked := make([]vector.Ranked[float32], len(neighbors))
	for n, nb := range neighbors {
		slot := i.tree.Value(nb.Point)
		ranked[n] = vector.Ranked[float32]{Index: slot, Score: vector.Dot(query, i.keys[slot])}
	}
	vector.SortRanked(ranked)
	slots := make([]int, len(ranked))
	scores := make([]float32, len(ranked))
	for n, r := range ranked {
		slots[n] = r.Index
		scores[n] = r.Score
	}
	return slots, scores, nil
}
