package cli

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/okian/hydrophys/internal/domain/model"
	"github.com/okian/hydrophys/internal/domain/profile"
	"github.com/okian/hydrophys/internal/domain/seawater"
	"github.com/okian/hydrophys/internal/domain/solver"
	"github.com/okian/hydrophys/internal/domain/types"
	"github.com/okian/hydrophys/pkg/logger"
)

// Load generation constants.
const (
	defaultLoadJobs      = 10_000
	defaultLoadBatch     = 100
	defaultLoadIntervals = 200

	// Targets stay within this fraction of a profile's depth so every job
	// is solvable.
	reachFraction = 0.9

	// Relative tolerance when comparing server and local results.
	verifyTolerance  = 1e-9
	workerMultiplier = 2
)

type loadConfig struct {
	Jobs      int
	BatchSize int
	Workers   int
	Intervals int
	Seed      uint64
	Poll      time.Duration
}

// loadStats summarizes a load run.
type loadStats struct {
	Generated  int           `json:"generated"`
	Batches    int           `json:"batches"`
	Accepted   int           `json:"accepted"`
	Duplicates int           `json:"duplicates"`
	Rejected   int           `json:"rejected"`
	Done       int           `json:"done"`
	Failed     int           `json:"failed"`
	Mismatched int           `json:"mismatched"`
	SubmitErrs int           `json:"submit_errors"`
	Duration   time.Duration `json:"duration_ns"`
	JobsPerSec float64       `json:"jobs_per_second"`
}

// plannedJob is a generated request plus its locally computed answer.
type plannedJob struct {
	req      types.SolveRequest
	expected float64
}

func newLoadCmd(out *output) *cobra.Command {
	var (
		remote remoteFlags
		cfg    loadConfig
	)
	cmd := &cobra.Command{
		Use:   "load",
		Short: "Generate random jobs, run them on a server and verify the results",
		Long: `Generates depth and path jobs against the built-in profiles, submits
them in concurrent batches, waits for completion and checks every server
result against the same solve run locally.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c := newClient(remote.url, remote.timeout)
			stats, err := runLoad(cmd.Context(), c, cfg)
			if err != nil {
				return err
			}
			if err := out.print(cmd, stats,
				"%d jobs in %d batches: %d done, %d failed, %d duplicate, %d rejected, %d mismatched (%.0f jobs/s)",
				stats.Generated, stats.Batches, stats.Done, stats.Failed, stats.Duplicates,
				stats.Rejected, stats.Mismatched, stats.JobsPerSec); err != nil {
				return err
			}
			if stats.Mismatched > 0 {
				return fmt.Errorf("%d results differ from local solves", stats.Mismatched)
			}
			return nil
		},
	}
	remote.bind(cmd)
	cmd.Flags().IntVar(&cfg.Jobs, "jobs", defaultLoadJobs, "number of jobs to generate")
	cmd.Flags().IntVar(&cfg.BatchSize, "batch-size", defaultLoadBatch, "jobs per batch")
	cmd.Flags().IntVar(&cfg.Workers, "workers", runtime.NumCPU()*workerMultiplier, "concurrent submitters")
	cmd.Flags().IntVarP(&cfg.Intervals, "intervals", "n", defaultLoadIntervals, "integration steps per job")
	cmd.Flags().Uint64Var(&cfg.Seed, "seed", 1, "random seed")
	cmd.Flags().DurationVar(&cfg.Poll, "poll", defaultPoll, "batch status poll interval")
	return cmd
}

func (cfg loadConfig) validate() error {
	switch {
	case cfg.Jobs <= 0:
		return errors.New("--jobs must be positive")
	case cfg.BatchSize <= 0:
		return errors.New("--batch-size must be positive")
	case cfg.Workers <= 0:
		return errors.New("--workers must be positive")
	case cfg.Intervals <= 0:
		return errors.New("--intervals must be positive")
	case cfg.Poll <= 0:
		return errors.New("--poll must be positive")
	}
	return nil
}

// runLoad checks the server, submits generated jobs and verifies results.
func runLoad(ctx context.Context, c *client, cfg loadConfig) (loadStats, error) {
	if err := cfg.validate(); err != nil {
		return loadStats{}, err
	}
	log := logger.Get().Named("load")
	start := time.Now()

	if err := c.health(ctx); err != nil {
		return loadStats{}, fmt.Errorf("service health check failed: %w", err)
	}

	planned, err := generateJobs(cfg)
	if err != nil {
		return loadStats{}, fmt.Errorf("job generation failed: %w", err)
	}
	log.Info(ctx, "generated jobs", logger.Int("jobs", len(planned)), logger.Int("workers", cfg.Workers))

	expected := make(map[string]float64, len(planned))
	batches := make([][]plannedJob, 0, len(planned)/cfg.BatchSize+1)
	for i := 0; i < len(planned); i += cfg.BatchSize {
		end := min(i+cfg.BatchSize, len(planned))
		batches = append(batches, planned[i:end])
		for _, pj := range planned[i:end] {
			expected[pj.req.ID] = pj.expected
		}
	}

	var (
		accepted, duplicates, rejected, submitErrs atomic.Int64
		done, failed, mismatched                   atomic.Int64
	)

	work := make(chan []plannedJob, cfg.Workers*workerMultiplier)
	var wg sync.WaitGroup
	for i := 0; i < cfg.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for batch := range work {
				req := types.BatchRequest{Jobs: make([]types.SolveRequest, len(batch))}
				for j := range batch {
					req.Jobs[j] = batch[j].req
				}

				ack, err := c.submitBatch(ctx, req)
				if err != nil {
					submitErrs.Add(1)
					log.Warn(ctx, "batch submission failed", logger.Error(err))
					continue
				}
				accepted.Add(int64(len(ack.JobIDs)))
				duplicates.Add(int64(len(ack.Duplicates)))
				rejected.Add(int64(len(ack.Rejected)))
				if len(ack.JobIDs) == 0 {
					continue
				}

				jobs, err := c.waitBatch(ctx, ack.BatchID, cfg.Poll)
				if err != nil {
					submitErrs.Add(1)
					log.Warn(ctx, "waiting for batch failed", logger.String("batchID", ack.BatchID), logger.Error(err))
					continue
				}
				for _, j := range jobs {
					switch {
					case j.Status == string(model.StatusDone) && j.Value != nil:
						done.Add(1)
						if !withinTolerance(*j.Value, expected[j.JobID]) {
							mismatched.Add(1)
							log.Warn(ctx, "result mismatch",
								logger.String("jobID", j.JobID),
								logger.Float64("server", *j.Value),
								logger.Float64("local", expected[j.JobID]))
						}
					case j.Status == string(model.StatusFailed) && j.Reason != reasonQueueFull:
						failed.Add(1)
					}
				}
			}
		}()
	}

	go func() {
		defer close(work)
		for _, b := range batches {
			select {
			case <-ctx.Done():
				return
			case work <- b:
			}
		}
	}()
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return loadStats{}, err
	}

	stats := loadStats{
		Generated:  len(planned),
		Batches:    len(batches),
		Accepted:   int(accepted.Load()),
		Duplicates: int(duplicates.Load()),
		Rejected:   int(rejected.Load()),
		Done:       int(done.Load()),
		Failed:     int(failed.Load()),
		Mismatched: int(mismatched.Load()),
		SubmitErrs: int(submitErrs.Load()),
		Duration:   time.Since(start),
	}
	if secs := stats.Duration.Seconds(); secs > 0 {
		stats.JobsPerSec = float64(stats.Done) / secs
	}

	log.Info(ctx, "load run finished",
		logger.Int("done", stats.Done),
		logger.Int("failed", stats.Failed),
		logger.Int("rejected", stats.Rejected),
		logger.Int("mismatched", stats.Mismatched),
		logger.String("duration", stats.Duration.String()),
		logger.Float64("jobsPerSecond", stats.JobsPerSec))
	return stats, nil
}

// reasonQueueFull is the failure reason the server records for jobs that did
// not fit in its queue.
const reasonQueueFull = "queue_full"

func withinTolerance(got, want float64) bool {
	return math.Abs(got-want) <= verifyTolerance*math.Max(1, math.Abs(want))
}

// generateJobs builds reproducible random depth and path jobs on the
// built-in profiles, each paired with its locally solved answer. Every
// request pins gravity, surface pressure and step count so the server
// resolves it exactly as the local solve did.
func generateJobs(cfg loadConfig) ([]plannedJob, error) {
	rng := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15))
	presets := profile.Presets()
	surface := seawater.AtmosphericPressure

	jobs := make([]plannedJob, cfg.Jobs)
	for i := range jobs {
		p := presets[rng.IntN(len(presets))]
		g := seawater.GravityAtLatitude(p.Latitude)
		reach := reachFraction * p.Samples.MaxDepth() * rng.Float64()

		req := types.SolveRequest{
			ID:        uuid.NewString(),
			ProfileID: p.ID,
			Gravity:   &g,
			Intervals: &cfg.Intervals,
		}

		var (
			want float64
			err  error
		)
		if rng.IntN(2) == 0 {
			req.Kind = string(model.KindDepth)
			req.Pressure = seawater.PressureFromDepth(reach, surface, seawater.SeaWaterDensity, g)
			req.SurfacePressure = &surface
			want, err = solver.Depth(req.Pressure, surface, g, cfg.Intervals, p.Samples)
		} else {
			req.Kind = string(model.KindPath)
			req.TimeOfFlight = reach / seawater.SoundSpeedMax
			want, err = solver.Path(req.TimeOfFlight, g, cfg.Intervals, p.Samples)
		}
		if err != nil {
			return nil, fmt.Errorf("job %d on %s: %w", i, p.ID, err)
		}
		jobs[i] = plannedJob{req: req, expected: want}
	}
	return jobs, nil
}
