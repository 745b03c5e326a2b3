package utils

import "math"

// NormalizeL2 normalizes the slice in place to unit L2 norm.
// If the norm is zero, the slice is unchanged.
func NormalizeL2(x []float32) {
	var sum float32
	for _, v := range x {
		sum += v * v
	}
	if sum == 0 {
		return
	}
	norm := float32(1.0 / math.Sqrt(float64(sum)))
	for i := range x {
		x[i] *= norm
	}
}

// MeanVectors returns the element-wise arithmetic mean of vectors, which must
// all share the same length. The result is not re-normalized. Returns nil for
// an empty input.
func MeanVectors(vectors [][]float32) []float32 {
	if len(vectors) == 0 {
		return nil
	}
	if len(vectors) == 1 {
		out := make([]float32, len(vectors[0]))
		copy(out, vectors[0])
		return out
	}
	sums := make([]float64, len(vectors[0]))
	for _, vec := range vectors {
		for i, v := range vec {
			sums[i] += float64(v)
		}
	}
	out := make([]float32, len(sums))
	n := float64(len(vectors))
	for i, s := range sums {
		out[i] = float32(s / n)
	}
	return out
}

// RoundVector rounds each element in place to the given number of decimal
// digits. Bounds storage size and makes cache comparisons deterministic.
func RoundVector(x []float32, digits int) {
	if digits < 0 {
		return
	}
	scale := math.Pow(10, float64(digits))
	for i, v := range x {
		x[i] = float32(math.Round(float64(v)*scale) / scale)
	}
}
