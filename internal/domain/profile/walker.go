package profile

import "github.com/okian/hydrophys/internal/domain/interp"

type knot struct {
	x, t, s float64
}

// Walker is a forward-only cursor over a profile whose samples have been
// mapped onto an integration coordinate (depth or pressure).
//
// The walker holds the index of the upper knot of the current segment. A
// query coordinate past the last knot keeps the last segment, so lookups
// beyond the profile extrapolate it linearly.
type Walker struct {
	knots []knot
	hi    int
}

// NewWalker maps every sample of p onto a coordinate with coord and positions
// the cursor on the first segment. p must hold at least two samples.
func NewWalker(p Profile, coord func(Sample) float64) *Walker {
	knots := make([]knot, len(p))
	for i, smp := range p {
		knots[i] = knot{x: coord(smp), t: smp.T, s: smp.S}
	}
	return &Walker{knots: knots, hi: 1}
}

// ByDepth is the coordinate mapping for walking a profile by depth.
func ByDepth(s Sample) float64 { return s.Z }

// Advance moves the cursor forward until x lies within the current segment
// or the last segment is reached. It never moves backward.
func (w *Walker) Advance(x float64) {
	last := len(w.knots) - 1
	for w.hi < last && x > w.knots[w.hi].x {
		w.hi++
	}
}

// At interpolates temperature and salinity at x on the current segment.
func (w *Walker) At(x float64) Point {
	lo, hi := w.knots[w.hi-1], w.knots[w.hi]
	return Point{
		T: interp.Linear(lo.x, lo.t, hi.x, hi.t, x),
		S: interp.Linear(lo.x, lo.s, hi.x, hi.s, x),
	}
}

// Step advances the cursor to x and returns the state there.
func (w *Walker) Step(x float64) Point {
	w.Advance(x)
	return w.At(x)
}

// Segment returns the index of the upper knot of the current segment.
func (w *Walker) Segment() int { return w.hi }

// First returns the coordinate of the first knot.
func (w *Walker) First() float64 { return w.knots[0].x }

// Last returns the coordinate of the last knot.
func (w *Walker) Last() float64 { return w.knots[len(w.knots)-1].x }
