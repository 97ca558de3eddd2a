// Package profile models a vertical temperature/salinity (TS) profile of the
// water column and the cursor used to walk it during integration.
package profile

import (
	"fmt"
	"math"
	"slices"
)

// Sample is a single measurement of the water column.
type Sample struct {
	Z float64 `json:"z"` // depth, m, 0 at the surface and increasing downward
	T float64 `json:"t"` // temperature, °C
	S float64 `json:"s"` // salinity, PSU
}

// Profile is an ordered sequence of samples, strictly increasing in Z.
//
// The integration code trusts this ordering and never re-checks it; anything
// that accepts profiles from outside the process calls Validate first.
type Profile []Sample

// Point is the interpolated state of the water column at a coordinate.
type Point struct {
	T float64 `json:"t"`
	S float64 `json:"s"`
}

// Validate checks that the profile can be integrated.
func (p Profile) Validate() error {
	if len(p) < 2 {
		return fmt.Errorf("%w: got %d samples", ErrTooShort, len(p))
	}
	for i, smp := range p {
		if !finite(smp.Z) || !finite(smp.T) || !finite(smp.S) {
			return fmt.Errorf("%w: sample %d", ErrNonFinite, i)
		}
		if smp.Z < 0 {
			return fmt.Errorf("%w: sample %d at z=%g", ErrNegativeDepth, i, smp.Z)
		}
		if i > 0 && smp.Z <= p[i-1].Z {
			return fmt.Errorf("%w: sample %d at z=%g after z=%g", ErrNotIncreasing, i, smp.Z, p[i-1].Z)
		}
	}
	return nil
}

// Surface returns the shallowest sample. The profile must not be empty.
func (p Profile) Surface() Sample { return p[0] }

// Bottom returns the deepest sample. The profile must not be empty.
func (p Profile) Bottom() Sample { return p[len(p)-1] }

// MaxDepth returns the depth of the deepest sample, or 0 for an empty profile.
func (p Profile) MaxDepth() float64 {
	if len(p) == 0 {
		return 0
	}
	return p[len(p)-1].Z
}

// Clone returns a copy that shares no memory with p.
func (p Profile) Clone() Profile {
	return slices.Clone(p)
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
