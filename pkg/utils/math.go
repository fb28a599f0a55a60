package utils

import "math"

// NormalizeL2 scales x in place so its L2 norm is 1. A zero vector is left
// as-is since it has no direction to preserve.
func NormalizeL2(x []float32) {
	var sumSquares float64
	for _, v := range x {
		sumSquares += float64(v) * float64(v)
	}
	if sumSquares == 0 {
		return
	}
	inv := float32(1 / math.Sqrt(sumSquares))
	for i := range x {
		x[i] *= inv
	}
}
