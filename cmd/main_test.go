package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/smartystreets/goconvey/convey"

	service "github.com/okian/hydrophys/internal/app"
	"github.com/okian/hydrophys/internal/config"
	"github.com/okian/hydrophys/internal/domain/types"
	"github.com/okian/hydrophys/pkg/logger"
)

func TestServiceOptions(t *testing.T) {
	convey.Convey("Given configuration from the environment", t, func() {
		t.Setenv("HYDROPHYS_ADDR", ":8080")
		t.Setenv("HYDROPHYS_QUEUE_SIZE", "1000")
		t.Setenv("HYDROPHYS_WORKER_COUNT", "4")

		cfg, err := config.Load(context.Background())
		convey.So(err, convey.ShouldBeNil)
		convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
		convey.So(cfg.QueueSize, convey.ShouldEqual, 1000)
		convey.So(cfg.WorkerCount, convey.ShouldEqual, 4)

		convey.Convey("Then the service reflects it", func() {
			svc := service.New(serviceOptions(cfg, logger.Get())...)
			stats := svc.GetStats()
			convey.So(stats["workerCount"], convey.ShouldEqual, 4)
			convey.So(stats["queueSize"], convey.ShouldEqual, 1000)
			convey.So(stats["store"], convey.ShouldEqual, "memory")
		})

		convey.Convey("Then the sqlite driver selects the sqlite store", func() {
			cfg.StoreDriver = config.DriverSQLite
			cfg.SQLitePath = filepath.Join(t.TempDir(), "profiles.db")
			svc := service.New(serviceOptions(cfg, logger.Get())...)
			convey.So(svc.GetStats()["store"], convey.ShouldEqual, "sqlite")
		})
	})
}

func TestMux(t *testing.T) {
	convey.Convey("Given a started service behind the mux", t, func() {
		ctx := context.Background()
		svc := service.New(service.WithWorkerCount(2), service.WithQueueSize(16))
		convey.So(svc.Start(ctx), convey.ShouldBeNil)
		defer svc.Stop()

		srv := httptest.NewServer(newMux(ctx, svc))
		defer srv.Close()

		get := func(path string) *http.Response {
			resp, err := http.Get(srv.URL + path)
			convey.So(err, convey.ShouldBeNil)
			return resp
		}

		convey.Convey("Then the landing page and docs are served", func() {
			for _, path := range []string{"/", "/api-docs", "/openapi.yaml"} {
				resp := get(path)
				_ = resp.Body.Close()
				convey.So(resp.StatusCode, convey.ShouldEqual, http.StatusOK)
			}
		})

		convey.Convey("Then a depth solve against a preset succeeds", func() {
			body := `{"pressure":101325,"profile_id":"north-pacific"}`
			resp, err := http.Post(srv.URL+"/depth", "application/json", strings.NewReader(body))
			convey.So(err, convey.ShouldBeNil)
			defer resp.Body.Close()
			convey.So(resp.StatusCode, convey.ShouldEqual, http.StatusOK)

			var res types.SolveResult
			convey.So(json.NewDecoder(resp.Body).Decode(&res), convey.ShouldBeNil)
			convey.So(res.Value, convey.ShouldBeBetween, 900, 1100)
		})

		convey.Convey("Then a depth solve with zero intervals answers 422", func() {
			body := `{"pressure":6038.2131,"intervals":0,"profile":[{"z":0,"t":20,"s":35},{"z":100,"t":10,"s":35}]}`
			resp, err := http.Post(srv.URL+"/depth", "application/json", strings.NewReader(body))
			convey.So(err, convey.ShouldBeNil)
			defer resp.Body.Close()
			convey.So(resp.StatusCode, convey.ShouldEqual, http.StatusUnprocessableEntity)

			var e struct {
				Code string `json:"code"`
			}
			convey.So(json.NewDecoder(resp.Body).Decode(&e), convey.ShouldBeNil)
			convey.So(e.Code, convey.ShouldEqual, "invalid_intervals")
		})

		convey.Convey("Then metrics are exposed", func() {
			resp := get("/healthz")
			defer resp.Body.Close()
			convey.So(resp.StatusCode, convey.ShouldEqual, http.StatusOK)
		})

		convey.Convey("Then unknown paths answer 404", func() {
			resp := get("/nope")
			_ = resp.Body.Close()
			convey.So(resp.StatusCode, convey.ShouldEqual, http.StatusNotFound)
		})
	})
}

func TestRun(t *testing.T) {
	convey.Convey("Given a valid configuration", t, func() {
		t.Setenv("HYDROPHYS_ADDR", "127.0.0.1:0")
		t.Setenv("HYDROPHYS_WORKER_COUNT", "1")

		convey.Convey("When the context is cancelled, run returns cleanly", func() {
			ctx, cancel := context.WithCancel(context.Background())
			done := make(chan error, 1)
			go func() { done <- run(ctx) }()

			time.Sleep(100 * time.Millisecond)
			cancel()

			select {
			case err := <-done:
				convey.So(err, convey.ShouldBeNil)
			case <-time.After(10 * time.Second):
				t.Fatal("run did not return after cancel")
			}
		})
	})

	convey.Convey("Given an invalid configuration", t, func() {
		t.Setenv("HYDROPHYS_STORE_DRIVER", "postgres")

		convey.Convey("Then run fails before serving", func() {
			err := run(context.Background())
			convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
		})
	})
}

func TestSystemMetricsUpdater(t *testing.T) {
	convey.Convey("Given a short-lived context", t, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()

		convey.So(func() { startSystemMetricsUpdater(ctx) }, convey.ShouldNotPanic)
	})
}
