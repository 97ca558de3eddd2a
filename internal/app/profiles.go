package service

import (
	"context"
	"fmt"
	"math"

	"github.com/okian/hydrophys/internal/domain/profile"
	"github.com/okian/hydrophys/internal/domain/types"
)

// PutProfile validates and stores a profile. An empty ID is assigned by the
// store; an existing ID is replaced.
func (s *Service) PutProfile(ctx context.Context, p profile.Named) (profile.Named, error) {
	if err := s.running(); err != nil {
		return profile.Named{}, err
	}
	if err := p.Validate(); err != nil {
		return profile.Named{}, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	stored, err := s.profiles.Put(ctx, p)
	if err != nil {
		return profile.Named{}, storeErr(err)
	}
	return stored, nil
}

// Profile returns a stored profile with its samples.
func (s *Service) Profile(ctx context.Context, id string) (profile.Named, error) {
	if err := s.running(); err != nil {
		return profile.Named{}, err
	}
	p, err := s.profiles.Get(ctx, id)
	if err != nil {
		return profile.Named{}, storeErr(err)
	}
	return p, nil
}

// Profiles lists stored profiles with their summaries.
func (s *Service) Profiles(ctx context.Context) ([]types.ProfileInfo, error) {
	if err := s.running(); err != nil {
		return nil, err
	}
	all, err := s.profiles.List(ctx)
	if err != nil {
		return nil, storeErr(err)
	}
	out := make([]types.ProfileInfo, 0, len(all))
	for _, p := range all {
		sum, err := profile.Summarize(p.Samples)
		if err != nil {
			return nil, fmt.Errorf("summarize %s: %w", p.ID, err)
		}
		out = append(out, types.ProfileInfo{ID: p.ID, Name: p.Name, Latitude: p.Latitude, Summary: sum})
	}
	return out, nil
}

// DeleteProfile removes a stored profile.
func (s *Service) DeleteProfile(ctx context.Context, id string) error {
	if err := s.running(); err != nil {
		return err
	}
	if err := s.profiles.Delete(ctx, id); err != nil {
		return storeErr(err)
	}
	return nil
}

// ProfileAt returns temperature and salinity of a stored profile at depth
// z. Depths outside the sampled range take the nearest sample's values.
func (s *Service) ProfileAt(ctx context.Context, id string, z float64) (profile.Point, error) {
	if math.IsNaN(z) || math.IsInf(z, 0) || z < 0 {
		return profile.Point{}, fmt.Errorf("%w: depth must be a finite non-negative number", ErrInvalidRequest)
	}
	p, err := s.Profile(ctx, id)
	if err != nil {
		return profile.Point{}, err
	}
	l, err := profile.NewLookup(p.Samples)
	if err != nil {
		return profile.Point{}, fmt.Errorf("lookup %s: %w", id, err)
	}
	return l.At(z), nil
}
