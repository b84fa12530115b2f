package bruteforce

import (
	"fmt"

	"github.com/viant/kvmem/vector"
)

// Index is a brute-force index scoring every key by dot product.
type Index struct {
	keys [][]float32
	dim  int
}

// New returns an empty brute-force index.
func New() *Index { return &Index{} }

// Build retains the key rows. Rows are not copied.
func (i *Index) Build(keys [][]float32) error {
	if len(keys) == 0 {
		i.keys, i.dim = nil, 0
		return nil
	}
	dim := len(keys[0])
	for j := range keys {
		if len(keys[j]) != dim {
			return fmt.Errorf("bruteforce: inconsistent key dims %d vs %d", len(keys[j]), dim)
		}
	}
	i.keys = keys
	i.dim = dim
	return nil
}

// Query returns the top-k slots by dot product with query.
func (i *Index) Query(query []float32, k int) ([]int, []float32, error) {
	if len(i.keys) == 0 {
		return nil, nil, nil
	}
	if len(query) != i.dim {
		return nil, nil, fmt.Errorf("bruteforce: query dim %d != index dim %d", len(query), i.dim)
	}
	scores := vector.Similarities([][]float32{query}, i.keys)[0]
	ranked := vector.TopK(scores, k)
	slots := make([]int, len(ranked))
	out := make([]float32, len(ranked))
	for n, r := range ranked {
		slots[n] = r.Index
		out[n] = r.Score
	}
	return slots, out, nil
}
