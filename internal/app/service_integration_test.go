package service_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap/zapcore"

	"github.com/okian/hydrophys/internal/adapters/repository"
	service "github.com/okian/hydrophys/internal/app"
	"github.com/okian/hydrophys/internal/domain/model"
	"github.com/okian/hydrophys/internal/domain/profile"
	"github.com/okian/hydrophys/internal/domain/seawater"
	"github.com/okian/hydrophys/internal/domain/types"
	"github.com/okian/hydrophys/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

// gatedResults holds worker results until release is closed and refuses
// to record queue_full rejections.
type gatedResults struct {
	repository.ResultStore
	busy    chan struct{}
	release chan struct{}
	once    sync.Once
}

func newGatedResults() *gatedResults {
	return &gatedResults{
		ResultStore: repository.NewMemoryResultStore(context.Background()),
		busy:        make(chan struct{}),
		release:     make(chan struct{}),
	}
}

func (g *gatedResults) Put(ctx context.Context, r model.Result) error {
	switch {
	case r.Reason == "queue_full":
		return errors.New("result store unavailable")
	case r.Status != model.StatusQueued:
		g.once.Do(func() { close(g.busy) })
		<-g.release
	}
	return g.ResultStore.Put(ctx, r)
}

// waitForJobs polls until every job has left the queued state.
func waitForJobs(svc *service.Service, ids []string) map[string]types.JobStatus {
	out := make(map[string]types.JobStatus, len(ids))
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		pending := 0
		for _, id := range ids {
			st, err := svc.Job(context.Background(), id)
			if err != nil || st.Status == "queued" {
				pending++
				continue
			}
			out[id] = st
		}
		if pending == 0 {
			return out
		}
		time.Sleep(5 * time.Millisecond)
	}
	return out
}

func TestServiceIntegration_Batches(t *testing.T) {
	Convey("Given a started service", t, func() {
		svc, stop := startService()
		defer stop()
		ctx := context.Background()

		Convey("When a mixed batch is submitted", func() {
			acc, err := svc.SubmitBatch(ctx, types.BatchRequest{Jobs: []types.SolveRequest{
				{ID: "np-depth", Kind: "depth", Pressure: seawater.AtmosphericPressure + 1e5, ProfileID: profile.PresetNorthPacific},
				{ID: "np-path", Kind: "PATH", TimeOfFlight: 1, ProfileID: profile.PresetNorthPacific},
				{ID: "np-far", Kind: "path", TimeOfFlight: 4.1, ProfileID: profile.PresetNorthPacific},
				{Kind: "depth", Pressure: seawater.AtmosphericPressure, Profile: thermocline},
			}})

			Convey("Then every job is accepted under one batch", func() {
				So(err, ShouldBeNil)
				So(acc.BatchID, ShouldNotBeEmpty)
				So(len(acc.JobIDs), ShouldEqual, 4)
				So(acc.JobIDs[:3], ShouldResemble, []string{"np-depth", "np-path", "np-far"})
				So(acc.Duplicates, ShouldBeEmpty)
			})

			Convey("Then workers finish every job with a value or a reason", func() {
				done := waitForJobs(svc, acc.JobIDs)
				So(len(done), ShouldEqual, 4)

				So(done["np-depth"].Status, ShouldEqual, "done")
				So(*done["np-depth"].Value, ShouldAlmostEqual, 991.658, 1e-2)
				So(done["np-path"].Status, ShouldEqual, "done")
				So(*done["np-path"].Value, ShouldAlmostEqual, 1484.78, 1e-2)
				So(done["np-far"].Status, ShouldEqual, "failed")
				So(done["np-far"].Reason, ShouldEqual, "tof_out_of_profile")
				So(done["np-far"].Value, ShouldBeNil)
				So(*done[acc.JobIDs[3]].Value, ShouldEqual, 0)
				So(done["np-depth"].Completed, ShouldNotBeNil)
				So(done["np-depth"].BatchID, ShouldEqual, acc.BatchID)
			})

			Convey("Then the batch lists its jobs in submission order", func() {
				waitForJobs(svc, acc.JobIDs)
				all, err := svc.Batch(ctx, acc.BatchID)
				So(err, ShouldBeNil)
				So(len(all), ShouldEqual, 4)
				for i, st := range all {
					So(st.JobID, ShouldEqual, acc.JobIDs[i])
				}
			})

			Convey("And the same IDs are submitted again", func() {
				again, err := svc.SubmitBatch(ctx, types.BatchRequest{Jobs: []types.SolveRequest{
					{ID: "np-depth", Kind: "depth", Pressure: 5000, Profile: thermocline},
					{ID: "fresh", Kind: "depth", Pressure: 5000, Profile: thermocline},
				}})

				Convey("Then the repeated ID is reported as a duplicate", func() {
					So(err, ShouldBeNil)
					So(again.Duplicates, ShouldResemble, []string{"np-depth"})
					So(again.JobIDs, ShouldResemble, []string{"fresh"})
				})
			})
		})

		Convey("When a batch job asks for zero intervals", func() {
			acc, err := svc.SubmitBatch(ctx, types.BatchRequest{Jobs: []types.SolveRequest{
				{ID: "zero-steps", Kind: "depth", Pressure: 5000, Profile: thermocline, Intervals: intp(0)},
			}})
			So(err, ShouldBeNil)

			Convey("Then the job fails with invalid_intervals", func() {
				done := waitForJobs(svc, acc.JobIDs)
				So(done["zero-steps"].Status, ShouldEqual, "failed")
				So(done["zero-steps"].Reason, ShouldEqual, "invalid_intervals")
			})
		})

		Convey("When a batch contains an invalid job", func() {
			_, err := svc.SubmitBatch(ctx, types.BatchRequest{Jobs: []types.SolveRequest{
				{ID: "ok", Kind: "depth", Pressure: 5000, Profile: thermocline},
				{ID: "bad", Kind: "sideways", Pressure: 5000, Profile: thermocline},
			}})

			Convey("Then the whole batch is rejected and nothing is queued", func() {
				So(errors.Is(err, service.ErrInvalidRequest), ShouldBeTrue)
				So(err.Error(), ShouldContainSubstring, "job 1")
				_, err := svc.Job(ctx, "ok")
				So(errors.Is(err, service.ErrNotFound), ShouldBeTrue)
			})
		})

		Convey("When a batch repeats an ID or carries a bad one", func() {
			_, err := svc.SubmitBatch(ctx, types.BatchRequest{Jobs: []types.SolveRequest{
				{ID: "twin", Kind: "depth", Pressure: 5000, Profile: thermocline},
				{ID: "twin", Kind: "depth", Pressure: 5000, Profile: thermocline},
			}})
			So(errors.Is(err, service.ErrInvalidRequest), ShouldBeTrue)

			_, err = svc.SubmitBatch(ctx, types.BatchRequest{Jobs: []types.SolveRequest{
				{ID: "has space", Kind: "depth", Pressure: 5000, Profile: thermocline},
			}})
			So(errors.Is(err, service.ErrInvalidRequest), ShouldBeTrue)
		})

		Convey("When a batch is empty", func() {
			_, err := svc.SubmitBatch(ctx, types.BatchRequest{})
			So(errors.Is(err, service.ErrInvalidRequest), ShouldBeTrue)
		})

		Convey("When looking up unknown jobs and batches", func() {
			_, err := svc.Job(ctx, "nope")
			So(errors.Is(err, service.ErrNotFound), ShouldBeTrue)
			_, err = svc.Batch(ctx, "nope")
			So(errors.Is(err, service.ErrNotFound), ShouldBeTrue)
		})
	})
}

func TestServiceIntegration_RejectedRecordFails(t *testing.T) {
	Convey("Given a one-slot queue whose only worker is stuck recording", t, func() {
		var logs bytes.Buffer
		results := newGatedResults()
		svc := service.New(
			service.WithWorkerCount(1),
			service.WithQueueSize(1),
			service.WithResultStore(results),
			service.WithLogger(logger.New(&logs, zapcore.WarnLevel)),
		)
		ctx := context.Background()
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()
		defer close(results.release)

		submit := func(ids ...string) types.BatchAccepted {
			jobs := make([]types.SolveRequest, len(ids))
			for i, id := range ids {
				jobs[i] = types.SolveRequest{ID: id, Kind: "path", TimeOfFlight: 0.01, Profile: thermocline}
			}
			acc, err := svc.SubmitBatch(ctx, types.BatchRequest{Jobs: jobs})
			So(err, ShouldBeNil)
			return acc
		}

		submit("held")
		<-results.busy
		submit("waiting")
		deadline := time.Now().Add(5 * time.Second)
		for svc.GetStats()["queueLength"] != 0 && time.Now().Before(deadline) {
			time.Sleep(time.Millisecond)
		}

		Convey("When a batch overflows and the rejection cannot be stored", func() {
			acc := submit("fits", "overflow")

			Convey("Then the overflow is reported and the store failure is logged", func() {
				So(acc.JobIDs, ShouldResemble, []string{"fits"})
				So(acc.Rejected, ShouldResemble, []string{"overflow"})
				So(logs.String(), ShouldContainSubstring, "recording rejected job")
				So(logs.String(), ShouldContainSubstring, "overflow")
			})
		})
	})
}

func TestServiceIntegration_BatchLimit(t *testing.T) {
	Convey("Given a service limited to three jobs per batch", t, func() {
		svc, stop := startService(service.WithMaxBatchSize(3))
		defer stop()

		Convey("When four jobs are submitted", func() {
			jobs := make([]types.SolveRequest, 4)
			for i := range jobs {
				jobs[i] = types.SolveRequest{ID: fmt.Sprintf("j%d", i), Kind: "path", TimeOfFlight: 0.01, Profile: thermocline}
			}
			_, err := svc.SubmitBatch(context.Background(), types.BatchRequest{Jobs: jobs})

			So(errors.Is(err, service.ErrInvalidRequest), ShouldBeTrue)
		})
	})
}

func TestServiceIntegration_StopDrains(t *testing.T) {
	Convey("Given a service with queued work", t, func() {
		svc := service.New(service.WithWorkerCount(1), service.WithQueueSize(500))
		So(svc.Start(context.Background()), ShouldBeNil)

		jobs := make([]types.SolveRequest, 200)
		for i := range jobs {
			jobs[i] = types.SolveRequest{Kind: "path", TimeOfFlight: 0.05, Intervals: intp(2000), Profile: thermocline}
		}
		acc, err := svc.SubmitBatch(context.Background(), types.BatchRequest{Jobs: jobs})
		So(err, ShouldBeNil)
		So(len(acc.JobIDs), ShouldEqual, 200)

		Convey("When the service stops", func() {
			svc.Stop()

			Convey("Then the stopped service reports as such", func() {
				So(svc.GetStats()["started"], ShouldEqual, false)
				_, err := svc.Job(context.Background(), acc.JobIDs[0])
				So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
			})
		})
	})
}
