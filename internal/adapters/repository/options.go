package repository

import "time"

// ResultOption applies a configuration option to the MemoryResultStore.
type ResultOption func(*MemoryResultStore)

// WithRetention sets how long completed results are kept.
func WithRetention(d time.Duration) ResultOption {
	return func(s *MemoryResultStore) {
		if d > 0 {
			s.retention = d
		}
	}
}

// WithPruneInterval sets how often expired results are removed.
func WithPruneInterval(d time.Duration) ResultOption {
	return func(s *MemoryResultStore) {
		if d > 0 {
			s.pruneInterval = d
		}
	}
}

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) ResultOption {
	return func(s *MemoryResultStore) {
		if now != nil {
			s.now = now
		}
	}
}

// SQLiteOption applies a configuration option to the SQLiteProfileStore.
type SQLiteOption func(*SQLiteProfileStore)

// WithBusyTimeout sets how long SQLite waits on a locked database.
func WithBusyTimeout(d time.Duration) SQLiteOption {
	return func(s *SQLiteProfileStore) {
		if d > 0 {
			s.busyTimeout = d
		}
	}
}
