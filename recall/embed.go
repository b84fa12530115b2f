package recall

import (
	"context"
	"hash/fnv"
	"strings"
	"unicode"
)

// EmbedFunc converts free-form text into an embedding.
//
// Implementations can call any embedding provider as long as they return a
// vector of the memory's key dimension.
type EmbedFunc func(ctx context.Context, text string) ([]float32, error)

// HashEmbedder returns an EmbedFunc that hashes lower-cased word tokens and
// their character trigrams into dim buckets with a sign bit. Equal texts map
// to equal vectors and texts sharing words land close together, which is
// enough for demos and tests without a model.
func HashEmbedder(dim int) EmbedFunc {
	return func(ctx context.Context, text string) ([]float32, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out := make([]float32, dim)
		words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		})
		for _, w := range words {
			addFeature(out, w, 2)
			padded := "^" + w + "$"
			for i := 0; i+3 <= len(padded); i++ {
				addFeature(out, padded[i:i+3], 1)
			}
		}
		// keep the empty text off the origin
		addFeature(out, "\x00bias", 0.01)
		return out, nil
	}
}

func addFeature(out []float32, feature string, weight float32) {
	h := fnv.New64a()
	_, _ = h.Write([]byte(feature))
	sum := h.Sum64()
	bucket := int(sum % uint64(len(out)))
	if sum>>63 == 1 {
		weight = -weight
	}
	out[bucket] += weight
}
