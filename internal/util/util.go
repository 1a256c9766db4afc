// Package util holds small helpers shared by the atomspace packages.
package util

import "math"

// Clamp bounds x to [lo, hi]. NaN is mapped to lo.
func Clamp(x, lo, hi float64) float64 {
	if math.IsNaN(x) || x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

// Clamp01 bounds x to the unit interval.
func Clamp01(x float64) float64 {
	return Clamp(x, 0, 1)
}

// Ptr returns a pointer to a copy of v, for optional config values set from flags.
func Ptr[T any](v T) *T {
	return &v
}
