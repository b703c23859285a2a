package util

// AbsFloat64 returns the absolute value of x.
func AbsFloat64(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}

// NearlyEqual reports whether a and b differ by at most tol.
func NearlyEqual(a, b, tol float64) bool {
	return AbsFloat64(a-b) <= tol
}
