// Package interp provides the two-point linear interpolation used to walk
// piecewise-linear water column profiles.
package interp

// Linear returns the value at x on the straight line through (x1, y1) and
// (x2, y2). The endpoints are reproduced exactly. x1 must differ from x2.
func Linear(x1, y1, x2, y2, x float64) float64 {
	if x == x2 {
		return y2
	}
	return y1 + (x-x1)/(x2-x1)*(y2-y1)
}
