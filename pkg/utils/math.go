package utils

// Clamp bounds x to [lo, hi].
func Clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

// Saturate maps a non-negative score onto [0,1) as x/(x+1).
// Negative scores map to 0.
func Saturate(x float64) float64 {
	if x <= 0 {
		return 0
	}
	return x / (x + 1)
}
