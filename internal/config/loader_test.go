package config_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/okian/hydrophys/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.QueueSize, convey.ShouldEqual, 10_000)
			convey.So(cfg.WorkerCount, convey.ShouldEqual, runtime.NumCPU())
			convey.So(cfg.DefaultIntervals, convey.ShouldEqual, 1000)
			convey.So(cfg.SurfacePressure, convey.ShouldEqual, 1013.25)
			convey.So(cfg.StoreDriver, convey.ShouldEqual, config.DriverMemory)
			convey.So(cfg.ResultRetention, convey.ShouldEqual, time.Hour)
			convey.So(cfg.PreloadPresets, convey.ShouldBeTrue)
			convey.So(cfg.Validate(context.Background()), convey.ShouldBeNil)
		})
	})
}

func TestConfig_Validate(t *testing.T) {
	convey.Convey("Given a default config", t, func() {
		ctx := context.Background()
		cfg := config.New()

		cases := []struct {
			name   string
			mutate func()
		}{
			{"empty addr", func() { cfg.Addr = "" }},
			{"zero queue", func() { cfg.QueueSize = 0 }},
			{"zero workers", func() { cfg.WorkerCount = 0 }},
			{"zero intervals", func() { cfg.DefaultIntervals = 0 }},
			{"max below default", func() { cfg.MaxIntervals = cfg.DefaultIntervals - 1 }},
			{"negative surface", func() { cfg.SurfacePressure = -1 }},
			{"zero retention", func() { cfg.ResultRetention = 0 }},
			{"unknown driver", func() { cfg.StoreDriver = "postgres" }},
			{"sqlite without path", func() { cfg.StoreDriver = config.DriverSQLite; cfg.SQLitePath = "" }},
		}
		for _, tc := range cases {
			convey.Convey("When "+tc.name, func() {
				tc.mutate()

				convey.So(errors.Is(cfg.Validate(ctx), config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		}

		convey.Convey("When sqlite has a path", func() {
			cfg.StoreDriver = config.DriverSQLite
			convey.So(cfg.Validate(ctx), convey.ShouldBeNil)
		})
	})
}

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()
		clearConfigEnvVars()
		defer clearConfigEnvVars()

		convey.Convey("When loading config with defaults only", func() {
			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldResemble, config.New())
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("HYDROPHYS_ADDR", ":8080")
			_ = os.Setenv("HYDROPHYS_QUEUE_SIZE", "500")
			_ = os.Setenv("HYDROPHYS_WORKER_COUNT", "3")
			_ = os.Setenv("HYDROPHYS_SURFACE_PRESSURE_MBAR", "1000.5")
			_ = os.Setenv("HYDROPHYS_RESULT_RETENTION", "15m")
			_ = os.Setenv("HYDROPHYS_PRELOAD_PRESETS", "false")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.QueueSize, convey.ShouldEqual, 500)
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 3)
				convey.So(cfg.SurfacePressure, convey.ShouldEqual, 1000.5)
				convey.So(cfg.ResultRetention, convey.ShouldEqual, 15*time.Minute)
				convey.So(cfg.PreloadPresets, convey.ShouldBeFalse)
			})
		})

		convey.Convey("When loading config with a YAML file", func() {
			path := writeConfigFile(t, `
addr: ":9090"
worker_count: 8
default_intervals: 5000
store_driver: sqlite
sqlite_path: /tmp/profiles.db
`)
			_ = os.Setenv("HYDROPHYS_CONFIG", path)

			cfg, err := config.Load(ctx)

			convey.Convey("Then file values are merged over defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 8)
				convey.So(cfg.DefaultIntervals, convey.ShouldEqual, 5000)
				convey.So(cfg.StoreDriver, convey.ShouldEqual, config.DriverSQLite)
				convey.So(cfg.SQLitePath, convey.ShouldEqual, "/tmp/profiles.db")
				convey.So(cfg.QueueSize, convey.ShouldEqual, 10_000)
			})

			convey.Convey("And env vars are set as well", func() {
				_ = os.Setenv("HYDROPHYS_ADDR", ":7070")

				cfg, err := config.Load(ctx)

				convey.Convey("Then env overrides the file", func() {
					convey.So(err, convey.ShouldBeNil)
					convey.So(cfg.Addr, convey.ShouldEqual, ":7070")
					convey.So(cfg.WorkerCount, convey.ShouldEqual, 8)
				})
			})
		})

		convey.Convey("When the YAML file is malformed", func() {
			_ = os.Setenv("HYDROPHYS_CONFIG", writeConfigFile(t, `invalid: yaml: content: [`))

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When the file does not exist", func() {
			_ = os.Setenv("HYDROPHYS_CONFIG", "/non/existent/file.yaml")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When a numeric variable does not parse", func() {
			_ = os.Setenv("HYDROPHYS_QUEUE_SIZE", "invalid")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When the loaded values fail validation", func() {
			_ = os.Setenv("HYDROPHYS_STORE_DRIVER", "mongo")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "mongo")
				convey.So(cfg, convey.ShouldBeNil)
			})
		})
	})
}

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func clearConfigEnvVars() {
	for _, key := range []string{
		"HYDROPHYS_CONFIG",
		"HYDROPHYS_LOG_LEVEL",
		"HYDROPHYS_ADDR",
		"HYDROPHYS_QUEUE_SIZE",
		"HYDROPHYS_WORKER_COUNT",
		"HYDROPHYS_DEDUPE_SIZE",
		"HYDROPHYS_DEFAULT_INTERVALS",
		"HYDROPHYS_MAX_INTERVALS",
		"HYDROPHYS_SURFACE_PRESSURE_MBAR",
		"HYDROPHYS_STORE_DRIVER",
		"HYDROPHYS_SQLITE_PATH",
		"HYDROPHYS_RESULT_RETENTION",
		"HYDROPHYS_PRELOAD_PRESETS",
	} {
		_ = os.Unsetenv(key)
	}
}
