package index

// Index answers top-k similarity queries over the memory's key rows.
//
// Build is called with the live key rows whenever they change; rows are unit
// vectors and their position is the slot number. Implementations may retain
// the row slices without copying, as the memory rewrites them in place only
// between queries and always calls Build again afterwards.
type Index interface {
	// Build (re)indexes the given key rows.
	Build(keys [][]float32) error

	// Query returns up to k slots ordered by decreasing similarity to the
	// unit query vector, with ties broken by lower slot first.
	Query(query []float32, k int) (slots []int, scores []float32, err error)
}

const (
	// KindBrute selects the exhaustive scan.
	KindBrute = "brute"
	// KindCover selects the cover tree. Every key change rebuilds the whole
	// tree, so it only pays off for read-mostly memories served by Predict.
	KindCover = "cover"
	// KindAuto resolves to brute. Query rewrites keys on every call, and a
	// full scan beats a tree rebuild per query at any store size.
	KindAuto = "auto"
)

// ResolveKind maps a configured kind to a concrete one.
func ResolveKind(kind string) string {
	if kind == KindCover {
		return KindCover
	}
	return KindBrute
}
