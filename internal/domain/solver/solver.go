// Package solver integrates seawater properties over a TS profile to answer
// two inverse questions: at what depth a pressure is observed, and how far a
// vertical acoustic pulse travels in a given time.
//
// Both solvers use a fixed-step rectangle rule. The error shrinks linearly
// with the step, so doubling n roughly halves it.
package solver

import (
	"fmt"
	"math"

	"github.com/okian/hydrophys/internal/domain/profile"
	"github.com/okian/hydrophys/internal/domain/seawater"
)

// DefaultIntervals is a step count that keeps the discretization error of
// either solver well under a centimeter for ocean-scale profiles.
const DefaultIntervals = 1000

// Depth returns the depth, m, at which pressure target (mbar) is observed,
// given the pressure at the surface, gravity acceleration and n integration
// steps over profile p.
//
// Profile depths are mapped onto pressure with a constant density taken at
// the first sample; the integral itself uses the in-situ density at each
// step.
func Depth(target, surface, gravity float64, n int, p profile.Profile) (float64, error) {
	if n <= 0 {
		return 0, fmt.Errorf("%w: n=%d", ErrInvalidIntervals, n)
	}
	if len(p) < 2 {
		return 0, fmt.Errorf("%w: got %d", ErrProfileTooShort, len(p))
	}
	if !finite(target, surface, gravity) {
		return 0, ErrNonFinite
	}
	if surface < 0 {
		return 0, fmt.Errorf("%w: %g mbar", ErrNegativeSurfacePressure, surface)
	}
	if gravity <= 0 {
		return 0, fmt.Errorf("%w: %g", ErrInvalidGravity, gravity)
	}
	if target < surface {
		return 0, fmt.Errorf("%w: %g < %g mbar", ErrTargetAboveSurface, target, surface)
	}

	top := p.Surface()
	rho0 := seawater.Density(top.T, surface, top.S)
	w := profile.NewWalker(p, func(s profile.Sample) float64 {
		return seawater.PressureFromDepth(s.Z, surface, rho0, gravity)
	})
	if target < w.First() || target > w.Last() {
		return 0, fmt.Errorf("%w: %g mbar not in [%g, %g]", ErrPressureOutOfProfile, target, w.First(), w.Last())
	}

	dp := (target - surface) / float64(n)
	var sum float64
	for i := 1; i <= n; i++ {
		pr := surface + float64(i)*dp
		st := w.Step(pr)
		sum += 1.0 / seawater.Density(st.T, pr, st.S)
	}
	return sum * 100.0 * dp / gravity, nil
}

// Path returns the distance, m, a sound pulse travels straight down through
// profile p during tof seconds, integrated in n time steps.
//
// The traveled distance doubles as the depth coordinate, so the pulse is
// assumed to start at the surface and propagate vertically. Pressure along
// the way uses a constant density taken at the first sample and standard
// atmospheric surface pressure.
func Path(tof, gravity float64, n int, p profile.Profile) (float64, error) {
	if n <= 0 {
		return 0, fmt.Errorf("%w: n=%d", ErrInvalidIntervals, n)
	}
	if len(p) < 2 {
		return 0, fmt.Errorf("%w: got %d", ErrProfileTooShort, len(p))
	}
	if !finite(tof, gravity) {
		return 0, ErrNonFinite
	}
	if tof < 0 {
		return 0, fmt.Errorf("%w: %g s", ErrNegativeTimeOfFlight, tof)
	}
	if gravity <= 0 {
		return 0, fmt.Errorf("%w: %g", ErrInvalidGravity, gravity)
	}

	top := p.Surface()
	rho0 := seawater.Density(top.T, seawater.AtmosphericPressure, top.S)
	p1 := seawater.PressureFromDepth(top.Z, seawater.AtmosphericPressure, rho0, gravity)
	v := seawater.SpeedOfSound(top.T, p1, top.S)
	if v*tof > p.MaxDepth() {
		return 0, fmt.Errorf("%w: %g m at %g m/s exceeds %g m", ErrTimeOfFlightOutOfProfile, v*tof, v, p.MaxDepth())
	}

	dt := tof / float64(n)
	w := profile.NewWalker(p, profile.ByDepth)
	var h float64
	for i := 0; i < n; i++ {
		h += dt * v
		st := w.Step(h)
		pr := seawater.PressureFromDepth(h, seawater.AtmosphericPressure, rho0, gravity)
		v = seawater.SpeedOfSound(st.T, pr, st.S)
	}
	return h, nil
}

func finite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
