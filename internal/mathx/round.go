// Package mathx holds small numeric helpers shared by the commands and
// exporters.
package mathx

import "math"

// Round returns x rounded half away from zero to prec decimals. Zero is
// never returned with the sign bit set, and values that would overflow
// when scaled are returned unchanged.
func Round(x float64, prec int) float64 {
	if x == 0 {
		return 0
	}
	// Integers need no work for non-negative precision.
	if prec >= 0 && x == math.Trunc(x) {
		return x
	}
	pow := math.Pow10(prec)
	intermed := x * pow
	if math.IsInf(intermed, 0) {
		return x
	}
	if x < 0 {
		x = math.Ceil(intermed - 0.5)
	} else {
		x = math.Floor(intermed + 0.5)
	}
	if x == 0 {
		return 0
	}
	return x / pow
}
