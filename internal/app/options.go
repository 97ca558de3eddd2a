package service

import (
	"time"

	"github.com/okian/hydrophys/internal/adapters/repository"
	"github.com/okian/hydrophys/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of batch workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the maximum number of pending batch jobs.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets how many job IDs are remembered for deduplication.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithIntervals sets the default and maximum integration step counts.
func WithIntervals(def, max int) Option {
	return func(s *Service) {
		if def > 0 && max >= def {
			s.defaultIntervals = def
			s.maxIntervals = max
		}
	}
}

// WithSurfacePressure sets the surface pressure assumed when a depth
// request omits it, mbar.
func WithSurfacePressure(p float64) Option {
	return func(s *Service) {
		if p >= 0 {
			s.surfacePressure = p
		}
	}
}

// WithSQLiteStore keeps profiles in a SQLite database at path instead of
// memory.
func WithSQLiteStore(path string) Option {
	return func(s *Service) {
		if path != "" {
			s.sqlitePath = path
		}
	}
}

// WithResultRetention sets how long finished job results are kept.
func WithResultRetention(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.retention = d
		}
	}
}

// WithResultStore replaces the in-memory job result store. The service
// closes it on Stop.
func WithResultStore(rs repository.ResultStore) Option {
	return func(s *Service) {
		if rs != nil {
			s.resultStore = rs
		}
	}
}

// WithPresets controls whether built-in profiles are stored on Start.
func WithPresets(enabled bool) Option {
	return func(s *Service) {
		s.preload = enabled
	}
}

// WithMaxBatchSize caps the number of jobs in one batch.
func WithMaxBatchSize(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxBatch = n
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}
