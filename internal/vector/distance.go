package vector

import (
	"math"

	"github.com/viterin/vek/vek32"
)

// squaredL2 computes the squared Euclidean distance between a and b. The
// dot-product terms are computed with vek32.Dot's SIMD kernel:
// ||a-b||² = a·a + b·b - 2·a·b. Falls back to a pure-Go loop when the
// dimension is too small for vek32 to pay off or when lengths mismatch
// (the caller is expected to have already rejected mismatched dimensions
// at the schema level).
func squaredL2(a, b []float32) float64 {
	if len(a) != len(b) {
		return math.Inf(1)
	}
	if len(a) == 0 {
		return 0
	}
	if len(a) >= simdMinDim {
		aa := vek32.Dot(a, a)
		bb := vek32.Dot(b, b)
		ab := vek32.Dot(a, b)
		d := float64(aa) + float64(bb) - 2*float64(ab)
		if d < 0 {
			// float rounding can push a near-zero difference slightly negative
			d = 0
		}
		return d
	}
	var sum float64
	for i := range a {
		diff := float64(a[i]) - float64(b[i])
		sum += diff * diff
	}
	return sum
}

// simdMinDim is the dimension below which the pure-Go loop is used instead
// of vek32, avoiding SIMD setup overhead on tiny vectors.
const simdMinDim = 8

// l2Distance is the public distance function used throughout the index:
// the square root of squaredL2, matching Euclidean metric.
func l2Distance(a, b []float32) float64 {
	return math.Sqrt(squaredL2(a, b))
}

// reduceDim applies deterministic chunked-mean pooling: contiguous blocks
// of the input are averaged down to targetDim components. Both insertion
// and search must call this with the same targetDim, enforced by Config.
func reduceDim(v []float32, targetDim int) []float32 {
	if targetDim <= 0 || targetDim >= len(v) {
		return v
	}
	out := make([]float32, targetDim)
	chunk := float64(len(v)) / float64(targetDim)
	for i := 0; i < targetDim; i++ {
		start := int(math.Floor(float64(i) * chunk))
		end := int(math.Floor(float64(i+1) * chunk))
		if end <= start {
			end = start + 1
		}
		if end > len(v) {
			end = len(v)
		}
		var sum float32
		n := 0
		for j := start; j < end; j++ {
			sum += v[j]
			n++
		}
		if n > 0 {
			out[i] = sum / float32(n)
		}
	}
	return out
}
