package tree

// Adapted from github.com/viant/gds/tree/cover.

import (
	"container/heap"
	"math"
)

// slack absorbs float32 rounding in the triangle-inequality bound.
const slack = 1e-5

// Tree is a cover tree answering exact kNN queries under a metric distance.
// Pruning relies on per-node subtree radii computed from actual distances, so
// results are exact whenever the distance obeys the triangle inequality.
//
// A Tree is not safe for concurrent mutation.
type Tree[T any] struct {
	root             *Node
	base             float32
	distanceFuncName DistanceFunction
	distanceFunc     DistanceFunc
	values           []T
	size             int
	version          uint64
}

// NewTree constructs a cover tree with the provided base and distance metric.
func NewTree[T any](base float32, distanceFn DistanceFunction) *Tree[T] {
	if base <= 1 {
		base = 1.3
	}
	fn := distanceFn.Function()
	if fn == nil {
		fn = DistanceFunctionEuclidean.Function()
		distanceFn = DistanceFunctionEuclidean
	}
	return &Tree[T]{
		base:             base,
		distanceFuncName: distanceFn,
		distanceFunc:     fn,
	}
}

// Len returns the number of inserted points.
func (t *Tree[T]) Len() int { return t.size }

// Distance reports the configured metric.
func (t *Tree[T]) Distance() DistanceFunction { return t.distanceFuncName }

// Insert adds a new value/vector pair to the tree and returns its index.
func (t *Tree[T]) Insert(value T, point *Point) int32 {
	point.index = int32(len(t.values))
	t.values = append(t.values, value)
	t.size++
	t.version++
	if t.root == nil {
		t.root = NewNode(point, 0, t.base)
		return point.index
	}
	d := t.distanceFunc(point, t.root.point)
	if d >= t.root.baseLevel {
		level := t.root.level
		for float64(d) >= math.Pow(float64(t.base), float64(level)) {
			level++
		}
		newRoot := NewNode(point, level, t.base)
		newRoot.children = append(newRoot.children, t.root)
		t.root = newRoot
		return point.index
	}
	t.insert(t.root, point)
	return point.index
}

func (t *Tree[T]) insert(node *Node, point *Point) {
	for {
		var next *Node
		for _, child := range node.children {
			if t.distanceFunc(point, child.point) < node.baseLevel {
				next = child
				break
			}
		}
		if next == nil {
			node.children = append(node.children, NewNode(point, node.level-1, t.base))
			return
		}
		node = next
	}
}

// Value returns the stored value for the given point.
func (t *Tree[T]) Value(point *Point) T {
	var zero T
	if !point.HasValue() || int(point.index) >= len(t.values) {
		return zero
	}
	return t.values[point.index]
}

// KNearestNeighbors performs a best-first search with a node priority queue
// and returns up to k neighbours ordered by increasing distance.
func (t *Tree[T]) KNearestNeighbors(point *Point, k int) []*Neighbor {
	if t.root == nil || k <= 0 {
		return nil
	}
	nh := &Neighbors{}
	heap.Init(nh)
	pq := &nodeQueue{}
	heap.Init(pq)
	rootDist := t.distanceFunc(point, t.root.point)
	heap.Push(pq, nodeItem{node: t.root, lb: rootDist - t.ensureRadius(t.root) - slack, centerDist: rootDist})

	for pq.Len() > 0 {
		top := heap.Pop(pq).(nodeItem)
		if nh.Len() == k && top.lb > (*nh)[0].Distance {
			break
		}
		dc := top.centerDist
		if nh.Len() < k {
			heap.Push(nh, Neighbor{Point: top.node.point, Distance: dc})
		} else if dc < (*nh)[0].Distance {
			heap.Pop(nh)
			heap.Push(nh, Neighbor{Point: top.node.point, Distance: dc})
		}
		for _, child := range top.node.children {
			cd := t.distanceFunc(point, child.point)
			lb := cd - t.ensureRadius(child) - slack
			if nh.Len() == k && lb > (*nh)[0].Distance {
				continue
			}
			heap.Push(pq, nodeItem{node: child, lb: lb, centerDist: cd})
		}
	}
	result := make([]*Neighbor, nh.Len())
	for i := len(result) - 1; i >= 0; i-- {
		n := heap.Pop(nh).(Neighbor)
		result[i] = &n
	}
	return result
}

// ensureRadius returns the largest distance from n to any point in its
// subtree, cached per tree version.
func (t *Tree[T]) ensureRadius(n *Node) float32 {
	if n == nil {
		return 0
	}
	if n.radiusComputed == t.version {
		return n.radius
	}
	maxR := float32(0)
	for _, child := range n.children {
		d := t.distanceFunc(n.point, child.point) + t.ensureRadius(child)
		if d > maxR {
			maxR = d
		}
	}
	n.radius = maxR
	n.radiusComputed = t.version
	return maxR
}
