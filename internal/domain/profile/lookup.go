package profile

import (
	"fmt"

	"gonum.org/v1/gonum/interp"
	"gonum.org/v1/gonum/stat"
)

// Lookup answers random-access queries against a profile. Unlike Walker it
// clamps outside the sampled range instead of extrapolating, which is what a
// caller inspecting a stored profile expects.
type Lookup struct {
	temp interp.PiecewiseLinear
	sal  interp.PiecewiseLinear
}

// NewLookup fits temperature and salinity against depth.
func NewLookup(p Profile) (*Lookup, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	zs := make([]float64, len(p))
	ts := make([]float64, len(p))
	ss := make([]float64, len(p))
	for i, smp := range p {
		zs[i], ts[i], ss[i] = smp.Z, smp.T, smp.S
	}
	l := &Lookup{}
	if err := l.temp.Fit(zs, ts); err != nil {
		return nil, fmt.Errorf("fit temperature: %w", err)
	}
	if err := l.sal.Fit(zs, ss); err != nil {
		return nil, fmt.Errorf("fit salinity: %w", err)
	}
	return l, nil
}

// At returns the state at depth z.
func (l *Lookup) At(z float64) Point {
	return Point{T: l.temp.Predict(z), S: l.sal.Predict(z)}
}

// Summary describes a profile as a whole.
type Summary struct {
	Samples   int     `json:"samples"`
	MinDepth  float64 `json:"min_depth"`
	MaxDepth  float64 `json:"max_depth"`
	MeanTemp  float64 `json:"mean_t"`
	MeanSal   float64 `json:"mean_s"`
	SurfaceT  float64 `json:"surface_t"`
	SurfaceS  float64 `json:"surface_s"`
	BottomT   float64 `json:"bottom_t"`
	BottomS   float64 `json:"bottom_s"`
	Thickness float64 `json:"thickness"`
}

// Summarize computes depth-weighted mean temperature and salinity. Each
// sample is weighted by half the thickness of its adjacent segments, which
// makes the means exact integrals of the piecewise-linear profile.
func Summarize(p Profile) (Summary, error) {
	if err := p.Validate(); err != nil {
		return Summary{}, err
	}
	n := len(p)
	ts := make([]float64, n)
	ss := make([]float64, n)
	ws := make([]float64, n)
	for i, smp := range p {
		ts[i], ss[i] = smp.T, smp.S
		if i > 0 {
			ws[i] += (smp.Z - p[i-1].Z) / 2
		}
		if i < n-1 {
			ws[i] += (p[i+1].Z - smp.Z) / 2
		}
	}
	return Summary{
		Samples:   n,
		MinDepth:  p[0].Z,
		MaxDepth:  p[n-1].Z,
		MeanTemp:  stat.Mean(ts, ws),
		MeanSal:   stat.Mean(ss, ws),
		SurfaceT:  p[0].T,
		SurfaceS:  p[0].S,
		BottomT:   p[n-1].T,
		BottomS:   p[n-1].S,
		Thickness: p[n-1].Z - p[0].Z,
	}, nil
}
