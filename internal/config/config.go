// Package config defines service configuration and how it is loaded.
package config

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/okian/hydrophys/internal/domain/seawater"
	"github.com/okian/hydrophys/internal/domain/solver"
)

// Store drivers.
const (
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// QueueSize bounds the in-memory job queue.
	QueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of batch solver workers.
	WorkerCount int `koanf:"worker_count"`

	// DedupeSize bounds the job ID deduplication window.
	DedupeSize int `koanf:"dedupe_size"`

	// DefaultIntervals is used when a request omits the step count.
	DefaultIntervals int `koanf:"default_intervals"`

	// MaxIntervals caps the step count a request may ask for.
	MaxIntervals int `koanf:"max_intervals"`

	// SurfacePressure is used when a depth request omits it, mbar.
	SurfacePressure float64 `koanf:"surface_pressure_mbar"`

	// StoreDriver selects the profile store: memory or sqlite.
	StoreDriver string `koanf:"store_driver"`

	// SQLitePath is the database file for the sqlite driver.
	SQLitePath string `koanf:"sqlite_path"`

	// ResultRetention is how long finished job results are kept.
	ResultRetention time.Duration `koanf:"result_retention"`

	// PreloadPresets stores the built-in example profiles on startup.
	PreloadPresets bool `koanf:"preload_presets"`
}

// New returns a Config holding the defaults.
func New() *Config {
	return &Config{
		LogLevel:         "info",
		Addr:             ":9080",
		QueueSize:        10_000,
		WorkerCount:      runtime.NumCPU(),
		DedupeSize:       100_000,
		DefaultIntervals: solver.DefaultIntervals,
		MaxIntervals:     1_000_000,
		SurfacePressure:  seawater.AtmosphericPressure,
		StoreDriver:      DriverMemory,
		SQLitePath:       "hydrophys.db",
		ResultRetention:  time.Hour,
		PreloadPresets:   true,
	}
}

// Validate reports the first inconsistent setting.
func (c *Config) Validate(_ context.Context) error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.QueueSize <= 0:
		return fmt.Errorf("%w: queue_size must be positive, got %d", ErrInvalidConfig, c.QueueSize)
	case c.WorkerCount <= 0:
		return fmt.Errorf("%w: worker_count must be positive, got %d", ErrInvalidConfig, c.WorkerCount)
	case c.DefaultIntervals <= 0:
		return fmt.Errorf("%w: default_intervals must be positive, got %d", ErrInvalidConfig, c.DefaultIntervals)
	case c.MaxIntervals < c.DefaultIntervals:
		return fmt.Errorf("%w: max_intervals %d is below default_intervals %d", ErrInvalidConfig, c.MaxIntervals, c.DefaultIntervals)
	case c.SurfacePressure < 0:
		return fmt.Errorf("%w: surface_pressure_mbar must not be negative", ErrInvalidConfig)
	case c.ResultRetention <= 0:
		return fmt.Errorf("%w: result_retention must be positive", ErrInvalidConfig)
	}

	switch c.StoreDriver {
	case DriverMemory:
	case DriverSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("%w: sqlite_path is required for the sqlite driver", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown store_driver %q", ErrInvalidConfig, c.StoreDriver)
	}
	return nil
}
