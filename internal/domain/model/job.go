// Package model contains domain models passed between layers.
package model

import (
	"errors"
	"fmt"
	"time"

	"github.com/okian/hydrophys/internal/domain/profile"
)

// Kind selects which solver a job runs.
type Kind string

// Job kinds.
const (
	KindDepth Kind = "depth"
	KindPath  Kind = "path"
)

// ErrUnknownKind is returned for jobs whose kind has no solver.
var ErrUnknownKind = errors.New("unknown job kind")

// Job is a fully resolved solve request queued for a worker. Gravity and the
// profile have already been looked up, so a worker needs nothing else.
type Job struct {
	ID        string
	BatchID   string
	Kind      Kind
	Pressure  float64 // depth jobs: target absolute pressure, mbar
	Surface   float64 // depth jobs: surface pressure, mbar
	TOF       float64 // path jobs: time of flight, s
	Gravity   float64 // m/s²
	Intervals int
	ProfileID string // informational; empty for inline profiles
	Profile   profile.Profile
	Submitted time.Time
}

// Validate checks that the job can be handed to a solver.
func (j *Job) Validate() error {
	switch j.Kind {
	case KindDepth, KindPath:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownKind, j.Kind)
	}
}

// Status is the lifecycle state of a job.
type Status string

// Job states.
const (
	StatusQueued Status = "queued"
	StatusDone   Status = "done"
	StatusFailed Status = "failed"
)

// Result records the outcome of a job.
type Result struct {
	JobID     string
	BatchID   string
	Kind      Kind
	Status    Status
	Value     float64 // meters when Status is StatusDone
	Reason    string  // machine-readable failure code when Status is StatusFailed
	Message   string
	Submitted time.Time
	Completed time.Time
}

// Queued returns the placeholder result stored when a job is accepted.
func Queued(j *Job) Result {
	return Result{
		JobID:     j.ID,
		BatchID:   j.BatchID,
		Kind:      j.Kind,
		Status:    StatusQueued,
		Submitted: j.Submitted,
	}
}

// Duration returns how long the job took from submission to completion.
func (r *Result) Duration() time.Duration {
	if r.Completed.IsZero() {
		return 0
	}
	return r.Completed.Sub(r.Submitted)
}
