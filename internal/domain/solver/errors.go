package solver

import "errors"

// Failure reasons. Every error returned by this package wraps exactly one of
// these.
var (
	ErrInvalidIntervals         = errors.New("number of intervals must be positive")
	ErrProfileTooShort          = errors.New("profile must contain at least two samples")
	ErrNegativeSurfacePressure  = errors.New("surface pressure must not be negative")
	ErrTargetAboveSurface       = errors.New("target pressure is lower than surface pressure")
	ErrPressureOutOfProfile     = errors.New("target pressure is outside the profile")
	ErrTimeOfFlightOutOfProfile = errors.New("time of flight reaches beyond the profile")
	ErrNegativeTimeOfFlight     = errors.New("time of flight must not be negative")
	ErrInvalidGravity           = errors.New("gravity acceleration must be positive")
	ErrNonFinite                = errors.New("inputs must be finite")
)

var reasons = map[error]string{
	ErrInvalidIntervals:         "invalid_intervals",
	ErrProfileTooShort:          "profile_too_short",
	ErrNegativeSurfacePressure:  "negative_surface_pressure",
	ErrTargetAboveSurface:       "target_above_surface",
	ErrPressureOutOfProfile:     "pressure_out_of_profile",
	ErrTimeOfFlightOutOfProfile: "tof_out_of_profile",
	ErrNegativeTimeOfFlight:     "negative_tof",
	ErrInvalidGravity:           "invalid_gravity",
	ErrNonFinite:                "non_finite_input",
}

// Reason returns a stable machine-readable code for a solver failure, or
// "unknown" if err does not wrap one of this package's errors.
func Reason(err error) string {
	for sentinel, code := range reasons {
		if errors.Is(err, sentinel) {
			return code
		}
	}
	return "unknown"
}
