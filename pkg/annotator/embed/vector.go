package embed

import "math"

// Vector is a dense embedding.
type Vector []float32

// Dot returns the dot product of a and b. Vectors of different length score 0.
func Dot(a, b Vector) float64 {
	if len(a) != len(b) {
		return 0
	}
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

// Norm returns the L2 norm of v.
func Norm(v Vector) float64 {
	return math.Sqrt(Dot(v, v))
}

// Normalize returns v scaled to unit length. A zero vector is returned as is.
func Normalize(v Vector) Vector {
	n := Norm(v)
	out := make(Vector, len(v))
	if n == 0 {
		copy(out, v)
		return out
	}
	for i, x := range v {
		out[i] = float32(float64(x) / n)
	}
	return out
}

// Cosine returns the cosine similarity of a and b.
func Cosine(a, b Vector) float64 {
	na, nb := Norm(a), Norm(b)
	if na == 0 || nb == 0 {
		return 0
	}
	return Dot(a, b) / (na * nb)
}

// Mean returns the element-wise mean of vs, or nil when vs is empty.
func Mean(vs []Vector) Vector {
	if len(vs) == 0 {
		return nil
	}
	sum := make([]float64, len(vs[0]))
	for _, v := range vs {
		for i := 0; i < len(sum) && i < len(v); i++ {
			sum[i] += float64(v[i])
		}
	}
	out := make(Vector, len(sum))
	for i, s := range sum {
		out[i] = float32(s / float64(len(vs)))
	}
	return out
}
