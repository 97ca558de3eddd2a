// Package service wires the solvers, stores and worker pool together and
// implements the operations served by the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	jobqueue "github.com/okian/hydrophys/internal/adapters/mq/queue"
	workerpool "github.com/okian/hydrophys/internal/adapters/mq/worker"
	"github.com/okian/hydrophys/internal/adapters/repository"
	"github.com/okian/hydrophys/internal/domain/dedupe"
	"github.com/okian/hydrophys/internal/domain/profile"
	"github.com/okian/hydrophys/internal/domain/seawater"
	"github.com/okian/hydrophys/internal/domain/solver"
	"github.com/okian/hydrophys/pkg/logger"
	"github.com/okian/hydrophys/pkg/metrics"
)

const (
	defaultMaxIntervals = 1_000_000
	defaultMaxBatch     = 1000
	stopTimeout         = 10 * time.Second
)

// Service implements the API dependencies.
type Service struct {
	mu sync.RWMutex

	profiles    repository.ProfileStore
	results     repository.ResultStore
	resultStore repository.ResultStore
	deduper  dedupe.Deduper
	jobs     jobqueue.Queue
	pool     *workerpool.Pool

	workerCount      int
	queueSize        int
	dedupeSize       int
	defaultIntervals int
	maxIntervals     int
	maxBatch         int
	surfacePressure  float64
	sqlitePath       string
	retention        time.Duration
	preload          bool

	started bool
	cancel  context.CancelFunc
	now     func() time.Time

	logger logger.Logger
}

// New constructs a Service. Nothing runs until Start.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount:      runtime.NumCPU(),
		queueSize:        10_000,
		dedupeSize:       100_000,
		defaultIntervals: solver.DefaultIntervals,
		maxIntervals:     defaultMaxIntervals,
		maxBatch:         defaultMaxBatch,
		surfacePressure:  seawater.AtmosphericPressure,
		retention:        time.Hour,
		preload:          true,
		now:              time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start opens the stores and starts the worker pool.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}

	s.logger.Info(ctx, "starting hydrophys service...")

	// Background loops outlive the Start call; they stop on Stop.
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))

	profiles, err := s.openProfileStore(runCtx)
	if err != nil {
		cancel()
		return err
	}

	s.profiles = profiles
	s.results = s.resultStore
	if s.results == nil {
		s.results = repository.NewMemoryResultStore(runCtx, repository.WithRetention(s.retention))
	}
	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	s.jobs = jobqueue.NewInMemoryQueue(jobqueue.WithCapacity(s.queueSize))
	s.pool = workerpool.NewPool(s.workerCount, s.jobs, jobSolver{}, s.results)
	s.pool.Start(runCtx)
	s.cancel = cancel

	if s.preload {
		if err := s.preloadPresets(runCtx); err != nil {
			s.logger.Warn(ctx, "preloading presets failed", logger.Error(err))
		}
	}

	s.started = true
	s.logger.Info(ctx, "hydrophys service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Int("defaultIntervals", s.defaultIntervals),
		logger.Int("profiles", s.profiles.Count(ctx)),
	)
	return nil
}

func (s *Service) openProfileStore(ctx context.Context) (repository.ProfileStore, error) {
	if s.sqlitePath == "" {
		s.logger.Info(ctx, "using in-memory profile store")
		return repository.NewMemoryProfileStore(), nil
	}
	store, err := repository.NewSQLiteProfileStore(ctx, s.sqlitePath)
	if err != nil {
		return nil, fmt.Errorf("open profile store: %w", err)
	}
	s.logger.Info(ctx, "using sqlite profile store", logger.String("path", s.sqlitePath))
	return store, nil
}

// preloadPresets stores built-in profiles that are not stored yet, so a
// persistent store keeps user edits across restarts.
func (s *Service) preloadPresets(ctx context.Context) error {
	for _, p := range profile.Presets() {
		_, err := s.profiles.Get(ctx, p.ID)
		if err == nil {
			continue
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return err
		}
		if _, err := s.profiles.Put(ctx, p); err != nil {
			return fmt.Errorf("preset %s: %w", p.ID, err)
		}
	}
	return nil
}

// Stop drains queued jobs and closes the stores.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), stopTimeout)
	defer cancel()

	s.logger.Info(ctx, "stopping hydrophys service...")

	if err := s.pool.Shutdown(ctx); err != nil {
		s.logger.Warn(ctx, "worker pool did not drain", logger.Error(err))
	}
	s.cancel()
	if err := s.results.Close(); err != nil {
		s.logger.Error(ctx, "closing result store", logger.Error(err))
	}
	if err := s.profiles.Close(); err != nil {
		s.logger.Error(ctx, "closing profile store", logger.Error(err))
	}

	s.started = false
	s.logger.Info(ctx, "hydrophys service stopped")
}

// running returns an error unless Start has completed.
func (s *Service) running() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return ErrNotStarted
	}
	return nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":          s.started,
		"workerCount":      s.workerCount,
		"queueSize":        s.queueSize,
		"defaultIntervals": s.defaultIntervals,
		"maxIntervals":     s.maxIntervals,
		"surfacePressure":  s.surfacePressure,
		"store":            "memory",
	}
	if s.sqlitePath != "" {
		stats["store"] = "sqlite"
	}

	if s.started {
		queueLen := s.jobs.Len(ctx)
		stats["queueLength"] = queueLen
		stats["profiles"] = s.profiles.Count(ctx)
		stats["jobsTracked"] = s.results.Count(ctx)
		stats["jobsProcessed"] = s.pool.Processed()
		stats["dedupeSize"] = s.deduper.Size()

		metrics.UpdateQueueSize(queueLen)
	}

	return stats
}
