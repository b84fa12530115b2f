package vector

// Source supplies randomness for key initialisation and eviction noise.
// *rand.Rand from math/rand/v2 satisfies it.
type Source interface {
	Float64() float64
	NormFloat64() float64
}

// Uniform fills out with samples drawn uniformly from [low, high).
func Uniform(src Source, low, high float64, out []float64) {
	for i := range out {
		out[i] = low + (high-low)*src.Float64()
	}
}

// RandomUnit draws a standard normal vector of dimension dim and normalizes
// it, giving a direction uniformly distributed on the unit sphere.
func RandomUnit(src Source, dim int) []float32 {
	v := make([]float32, dim)
	for i := range v {
		v[i] = float32(src.NormFloat64())
	}
	NormalizeInPlace(v)
	return v
}
