package profile

import "errors"

// Validation errors.
var (
	ErrTooShort      = errors.New("profile must contain at least two samples")
	ErrNotIncreasing = errors.New("profile depths must be strictly increasing")
	ErrNegativeDepth = errors.New("profile depth must not be negative")
	ErrNonFinite     = errors.New("profile values must be finite")
	ErrEmptyName     = errors.New("profile name must not be empty")
	ErrLatitude      = errors.New("latitude must be within [-90, 90]")
)
