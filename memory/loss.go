package memory

import "fmt"

// NoMatchScore stands in for the best positive or negative similarity when a
// query's top-k candidates contain no slot of that kind. It is the lowest
// cosine similarity, so a label never stored costs neg + 1 + margin.
const NoMatchScore float32 = -1

// LossEngine computes the margin hinge loss between the best same-label and
// best different-label neighbour.
type LossEngine struct {
	Margin float64
}

// Split returns, per row, the best similarity among candidates whose label
// equals the row's label (positive) and among the rest (negative).
func (l LossEngine) Split(scores [][]float32, labels [][]int64, truth []int64) (positive, negative []float32) {
	positive = make([]float32, len(scores))
	negative = make([]float32, len(scores))
	for i, row := range scores {
		pos, neg := NoMatchScore, NoMatchScore
		hasPos, hasNeg := false, false
		for j, s := range row {
			if labels[i][j] == truth[i] {
				if !hasPos || s > pos {
					pos, hasPos = s, true
				}
				continue
			}
			if !hasNeg || s > neg {
				neg, hasNeg = s, true
			}
		}
		positive[i], negative[i] = pos, neg
	}
	return positive, negative
}

// Loss is the batch mean of max(0, negative - positive + margin). The two
// slices must have the same length; a mismatch is a caller bug and panics.
func (l LossEngine) Loss(positive, negative []float32) float64 {
	if len(positive) != len(negative) {
		panic(fmt.Sprintf("memory: positive/negative shape mismatch: %d vs %d", len(positive), len(negative)))
	}
	if len(positive) == 0 {
		return 0
	}
	var sum float64
	for i := range positive {
		sum += max(0, float64(negative[i])-float64(positive[i])+l.Margin)
	}
	return sum / float64(len(positive))
}
