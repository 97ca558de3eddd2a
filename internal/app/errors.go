package service

import "errors"

// Sentinel kinds returned by the service. Solver failures are returned
// wrapped as they come from the solver package.
var (
	ErrInvalidRequest = errors.New("invalid request")
	ErrNotFound       = errors.New("not found")
	ErrBackpressure   = errors.New("job queue is full")
	ErrNotStarted     = errors.New("service not started")
)
