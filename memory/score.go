package memory

import "math"

// ConfidenceScorer turns top-k similarities into a probability distribution.
type ConfidenceScorer struct {
	Temperature float64
}

// Score applies softmax(Temperature * s) to every row.
func (c ConfidenceScorer) Score(similarities [][]float32) [][]float32 {
	out := make([][]float32, len(similarities))
	for i, row := range similarities {
		out[i] = c.softmax(row)
	}
	return out
}

func (c ConfidenceScorer) softmax(row []float32) []float32 {
	probs := make([]float32, len(row))
	if len(row) == 0 {
		return probs
	}
	maxVal := math.Inf(-1)
	for _, s := range row {
		maxVal = math.Max(maxVal, c.Temperature*float64(s))
	}
	exps := make([]float64, len(row))
	var total float64
	for j, s := range row {
		exps[j] = math.Exp(c.Temperature*float64(s) - maxVal)
		total += exps[j]
	}
	for j := range exps {
		probs[j] = float32(exps[j] / total)
	}
	return probs
}
