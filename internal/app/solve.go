package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/okian/hydrophys/internal/adapters/repository"
	"github.com/okian/hydrophys/internal/domain/model"
	"github.com/okian/hydrophys/internal/domain/seawater"
	"github.com/okian/hydrophys/internal/domain/solver"
	"github.com/okian/hydrophys/internal/domain/types"
	"github.com/okian/hydrophys/pkg/metrics"
)

// jobSolver runs a resolved job through the matching solver.
type jobSolver struct{}

func (jobSolver) Solve(_ context.Context, j *model.Job) (float64, error) {
	if j.Intervals > 0 {
		metrics.RecordIntegrationSteps(string(j.Kind), j.Intervals)
	}
	switch j.Kind {
	case model.KindDepth:
		return solver.Depth(j.Pressure, j.Surface, j.Gravity, j.Intervals, j.Profile)
	case model.KindPath:
		return solver.Path(j.TOF, j.Gravity, j.Intervals, j.Profile)
	default:
		return 0, fmt.Errorf("%w: %q", model.ErrUnknownKind, j.Kind)
	}
}

// Properties evaluates seawater properties at a single point.
func (s *Service) Properties(_ context.Context, req types.PropertiesRequest) (types.Properties, error) {
	if !finite(req.T, req.P, req.S) {
		return types.Properties{}, fmt.Errorf("%w: t, p and s must be finite", ErrInvalidRequest)
	}
	metrics.RecordPropertyEvaluation()

	st := seawater.Properties(req.T, req.P, req.S)
	return types.Properties{
		T:                   st.Temperature,
		P:                   st.Pressure,
		S:                   st.Salinity,
		Density:             st.Density,
		SoundSpeed:          st.SoundSpeed,
		SoundSpeedPlausible: seawater.SoundSpeedPlausible(st.SoundSpeed),
		FreezingPoint:       st.FreezingPoint,
		Frozen:              st.Frozen,
	}, nil
}

// Gravity evaluates the WGS84 gravity formula. With degrees unset phi is
// used as is, in radians.
func (s *Service) Gravity(_ context.Context, phi float64, degrees bool) (types.Gravity, error) {
	if !finite(phi) {
		return types.Gravity{}, fmt.Errorf("%w: phi must be finite", ErrInvalidRequest)
	}
	if !degrees {
		return types.Gravity{Phi: phi, Gravity: seawater.Gravity(phi)}, nil
	}
	if phi < -90 || phi > 90 {
		return types.Gravity{}, fmt.Errorf("%w: latitude %g out of [-90, 90]", ErrInvalidRequest, phi)
	}
	return types.Gravity{Phi: phi, Degrees: true, Gravity: seawater.GravityAtLatitude(phi)}, nil
}

// SolveDepth answers a depth request synchronously.
func (s *Service) SolveDepth(ctx context.Context, req types.SolveRequest) (types.SolveResult, error) {
	return s.solve(ctx, model.KindDepth, req)
}

// SolvePath answers a path request synchronously.
func (s *Service) SolvePath(ctx context.Context, req types.SolveRequest) (types.SolveResult, error) {
	return s.solve(ctx, model.KindPath, req)
}

func (s *Service) solve(ctx context.Context, kind model.Kind, req types.SolveRequest) (types.SolveResult, error) {
	job, err := s.resolve(ctx, kind, req)
	if err != nil {
		return types.SolveResult{}, err
	}

	start := time.Now()
	value, err := jobSolver{}.Solve(ctx, &job)
	metrics.RecordSolveLatency(string(kind), float64(time.Since(start).Microseconds())/1000)
	if err != nil {
		metrics.RecordSolve(string(kind), solver.Reason(err))
		return types.SolveResult{}, err
	}
	metrics.RecordSolve(string(kind), "ok")

	return types.SolveResult{
		Kind:      string(kind),
		Value:     value,
		Unit:      "m",
		Gravity:   job.Gravity,
		Intervals: job.Intervals,
		ProfileID: job.ProfileID,
	}, nil
}

// resolve turns a request into a self-contained job: it picks the profile,
// gravity, step count and surface pressure the request leaves implicit.
//
// Gravity precedence: explicit gravity, then latitude, then the latitude of
// a stored profile, then standard gravity.
func (s *Service) resolve(ctx context.Context, kind model.Kind, req types.SolveRequest) (model.Job, error) {
	job := model.Job{
		ID:        req.ID,
		Kind:      kind,
		Intervals: s.defaultIntervals,
		Submitted: s.now(),
	}

	// Non-positive counts go through; the solver reports invalid_intervals.
	if req.Intervals != nil {
		job.Intervals = *req.Intervals
	}
	if job.Intervals > s.maxIntervals {
		return model.Job{}, fmt.Errorf("%w: intervals must be at most %d, got %d", ErrInvalidRequest, s.maxIntervals, job.Intervals)
	}

	latitude := req.Latitude
	switch {
	case len(req.Profile) > 0:
		if err := req.Profile.Validate(); err != nil {
			return model.Job{}, fmt.Errorf("%w: profile: %w", ErrInvalidRequest, err)
		}
		job.Profile = req.Profile.Clone()
	case req.ProfileID != "":
		if err := s.running(); err != nil {
			return model.Job{}, err
		}
		named, err := s.profiles.Get(ctx, req.ProfileID)
		if err != nil {
			return model.Job{}, storeErr(err)
		}
		job.ProfileID = named.ID
		job.Profile = named.Samples
		if latitude == nil {
			lat := named.Latitude
			latitude = &lat
		}
	default:
		return model.Job{}, fmt.Errorf("%w: profile or profile_id is required", ErrInvalidRequest)
	}

	switch {
	case req.Gravity != nil:
		job.Gravity = *req.Gravity
	case latitude != nil:
		if !finite(*latitude) || *latitude < -90 || *latitude > 90 {
			return model.Job{}, fmt.Errorf("%w: latitude %g out of [-90, 90]", ErrInvalidRequest, *latitude)
		}
		job.Gravity = seawater.GravityAtLatitude(*latitude)
	default:
		job.Gravity = seawater.StandardGravity
	}

	switch kind {
	case model.KindDepth:
		job.Pressure = req.Pressure
		job.Surface = s.surfacePressure
		if req.SurfacePressure != nil {
			job.Surface = *req.SurfacePressure
		}
	case model.KindPath:
		job.TOF = req.TimeOfFlight
	default:
		return model.Job{}, fmt.Errorf("%w: %w", ErrInvalidRequest, job.Validate())
	}

	return job, nil
}

// parseKind maps a batch entry kind onto a job kind.
func parseKind(kind string) (model.Kind, error) {
	switch k := model.Kind(strings.ToLower(strings.TrimSpace(kind))); k {
	case model.KindDepth, model.KindPath:
		return k, nil
	default:
		return "", fmt.Errorf("%w: kind must be depth or path, got %q", ErrInvalidRequest, kind)
	}
}

// storeErr maps repository failures onto service kinds.
func storeErr(err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	case errors.Is(err, repository.ErrInvalidID):
		return fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	default:
		return err
	}
}

func finite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
