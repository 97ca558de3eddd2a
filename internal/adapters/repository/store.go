// Package repository persists TS profiles and asynchronous job results.
package repository

import (
	"context"
	"fmt"

	"github.com/okian/hydrophys/internal/domain/model"
	"github.com/okian/hydrophys/internal/domain/profile"
)

// ProfileStore provides read/write access to named profiles.
type ProfileStore interface {
	// Put stores p, assigning a new ID when p.ID is empty, and returns the
	// stored profile. An existing ID is replaced.
	Put(ctx context.Context, p profile.Named) (profile.Named, error)

	// Get returns the profile with the given ID, or ErrNotFound.
	Get(ctx context.Context, id string) (profile.Named, error)

	// List returns every stored profile ordered by ID.
	List(ctx context.Context) ([]profile.Named, error)

	// Delete removes a profile. Returns ErrNotFound if it does not exist.
	Delete(ctx context.Context, id string) error

	// Count returns the number of stored profiles.
	Count(ctx context.Context) int

	Close() error
}

// ResultStore tracks the state of asynchronous jobs.
type ResultStore interface {
	// Put inserts or replaces the result for r.JobID.
	Put(ctx context.Context, r model.Result) error

	// Get returns the result for a job, or ErrNotFound.
	Get(ctx context.Context, jobID string) (model.Result, error)

	// Batch returns every result of a batch in submission order.
	Batch(ctx context.Context, batchID string) ([]model.Result, error)

	// Count returns the number of tracked jobs.
	Count(ctx context.Context) int

	Close() error
}

const maxIDLen = 64

// CheckID accepts identifiers made of letters, digits, '.', '_' and '-'.
func CheckID(id string) error {
	if id == "" || len(id) > maxIDLen {
		return fmt.Errorf("%w: length %d", ErrInvalidID, len(id))
	}
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '_', r == '-':
		default:
			return fmt.Errorf("%w: %q", ErrInvalidID, id)
		}
	}
	return nil
}
