package memory

import (
	"fmt"

	"github.com/viant/kvmem/index"
)

// NeighborSearch finds the top-k slots for each query row, rebuilding its
// index whenever the store's keys have changed since the last build.
type NeighborSearch struct {
	store *KeyStore
	index index.Index
	topK  int
	built uint64
	ready bool
}

func newNeighborSearch(store *KeyStore, idx index.Index, topK int) *NeighborSearch {
	return &NeighborSearch{store: store, index: idx, topK: topK}
}

// Search returns, per query row, the top-k similarities and their slots in
// descending order. Rows must already be unit length.
func (n *NeighborSearch) Search(queries [][]float32) ([][]float32, [][]int, error) {
	if !n.ready || n.built != n.store.Version() {
		if err := n.index.Build(n.store.rows()); err != nil {
			return nil, nil, fmt.Errorf("memory: failed to build index: %w", err)
		}
		n.built = n.store.Version()
		n.ready = true
	}
	scores := make([][]float32, len(queries))
	slots := make([][]int, len(queries))
	for i, q := range queries {
		s, sc, err := n.index.Query(q, n.topK)
		if err != nil {
			return nil, nil, fmt.Errorf("memory: query row %d: %w", i, err)
		}
		slots[i], scores[i] = s, sc
	}
	return scores, slots, nil
}
