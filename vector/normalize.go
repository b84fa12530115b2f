package vector

// Normalize returns a unit-length copy of v. A zero vector yields NaN
// components; callers are expected never to pass one.
func Normalize(v []float32) []float32 {
	out := make([]float32, len(v))
	copy(out, v)
	NormalizeInPlace(out)
	return out
}

// NormalizeInPlace scales v to unit length.
func NormalizeInPlace(v []float32) {
	m := Magnitude(v)
	for i := range v {
		v[i] /= m
	}
}

// NormalizeRows returns unit-length copies of every row.
func NormalizeRows(rows [][]float32) [][]float32 {
	out := make([][]float32, len(rows))
	for i, r := range rows {
		out[i] = Normalize(r)
	}
	return out
}

// Add returns a + b element-wise.
func Add(a, b []float32) []float32 {
	out := make([]float32, len(a))
	for i := range a {
		out[i] = a[i] + b[i]
	}
	return out
}
