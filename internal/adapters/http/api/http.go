// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"net/http"

	"github.com/okian/hydrophys/internal/domain/profile"
	"github.com/okian/hydrophys/internal/domain/types"
)

// CalculatorDependencies evaluate seawater properties and gravity.
type CalculatorDependencies interface {
	Properties(ctx context.Context, req types.PropertiesRequest) (types.Properties, error)
	Gravity(ctx context.Context, phi float64, degrees bool) (types.Gravity, error)
}

// SolverDependencies answer depth and path requests synchronously.
type SolverDependencies interface {
	SolveDepth(ctx context.Context, req types.SolveRequest) (types.SolveResult, error)
	SolvePath(ctx context.Context, req types.SolveRequest) (types.SolveResult, error)
}

// ProfileDependencies manage stored TS profiles.
type ProfileDependencies interface {
	PutProfile(ctx context.Context, p profile.Named) (profile.Named, error)
	Profile(ctx context.Context, id string) (profile.Named, error)
	Profiles(ctx context.Context) ([]types.ProfileInfo, error)
	DeleteProfile(ctx context.Context, id string) error
	ProfileAt(ctx context.Context, id string, z float64) (profile.Point, error)
}

// BatchDependencies accept asynchronous batches and report job status.
type BatchDependencies interface {
	SubmitBatch(ctx context.Context, req types.BatchRequest) (types.BatchAccepted, error)
	Job(ctx context.Context, id string) (types.JobStatus, error)
	Batch(ctx context.Context, batchID string) ([]types.JobStatus, error)
}

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	CalculatorDependencies
	SolverDependencies
	ProfileDependencies
	BatchDependencies
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler     *HealthHandler
	statsHandler      *StatsHandler
	calculatorHandler *CalculatorHandler
	solveHandler      *SolveHandler
	profilesHandler   *ProfilesHandler
	batchesHandler    *BatchesHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		healthHandler:     NewHealthHandler(),
		statsHandler:      NewStatsHandler(statsProvider),
		calculatorHandler: NewCalculatorHandler(deps),
		solveHandler:      NewSolveHandler(deps),
		profilesHandler:   NewProfilesHandler(deps),
		batchesHandler:    NewBatchesHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))

	mux.HandleFunc("POST /properties", MetricsMiddleware(s.calculatorHandler.HandleProperties, "properties"))
	mux.HandleFunc("GET /gravity", MetricsMiddleware(s.calculatorHandler.HandleGravity, "gravity"))

	mux.HandleFunc("POST /depth", MetricsMiddleware(s.solveHandler.HandleDepth, "depth"))
	mux.HandleFunc("POST /path", MetricsMiddleware(s.solveHandler.HandlePath, "path"))

	mux.HandleFunc("GET /profiles", MetricsMiddleware(s.profilesHandler.HandleList, "profiles"))
	mux.HandleFunc("POST /profiles", MetricsMiddleware(s.profilesHandler.HandleCreate, "profiles"))
	mux.HandleFunc("GET /profiles/{id}", MetricsMiddleware(s.profilesHandler.HandleGet, "profile"))
	mux.HandleFunc("PUT /profiles/{id}", MetricsMiddleware(s.profilesHandler.HandleReplace, "profile"))
	mux.HandleFunc("DELETE /profiles/{id}", MetricsMiddleware(s.profilesHandler.HandleDelete, "profile"))
	mux.HandleFunc("GET /profiles/{id}/at", MetricsMiddleware(s.profilesHandler.HandleAt, "profile_at"))

	mux.HandleFunc("POST /batches", MetricsMiddleware(s.batchesHandler.HandleSubmit, "batches"))
	mux.HandleFunc("GET /batches/{id}", MetricsMiddleware(s.batchesHandler.HandleBatch, "batch"))
	mux.HandleFunc("GET /jobs/{id}", MetricsMiddleware(s.batchesHandler.HandleJob, "job"))
}
