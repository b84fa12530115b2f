package tree

import "github.com/viant/vec/search"

// DistanceFunction enumerates supported distance metrics for the cover tree.
type DistanceFunction string

// DistanceFunctionEuclidean is the only metric; pruning relies on the
// triangle inequality.
const DistanceFunctionEuclidean DistanceFunction = "euclidean"

// DistanceFunc computes the distance between two points.
type DistanceFunc func(p1, p2 *Point) float32

// Function resolves the callable distance implementation.
func (d DistanceFunction) Function() DistanceFunc {
	if d == DistanceFunctionEuclidean {
		return EuclideanDistance
	}
	return nil
}

// EuclideanDistance returns the Euclidean distance between two points. On
// unit vectors it is monotone in cosine similarity: d^2 = 2 - 2cos.
func EuclideanDistance(p1, p2 *Point) float32 {
	return search.Float32s(p1.Vector).EuclideanDistance(p2.Vector)
}
