package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	jobqueue "github.com/okian/hydrophys/internal/adapters/mq/queue"
	"github.com/okian/hydrophys/internal/adapters/repository"
	"github.com/okian/hydrophys/internal/domain/model"
	"github.com/okian/hydrophys/internal/domain/types"
	"github.com/okian/hydrophys/pkg/logger"
	"github.com/okian/hydrophys/pkg/metrics"
)

// Reason recorded for jobs the queue had no room for.
const reasonQueueFull = "queue_full"

// SubmitBatch resolves every job of a batch and queues them for the worker
// pool. The whole batch is rejected if any job fails to resolve. Jobs whose
// ID was already submitted are skipped and reported as duplicates.
//
// If the queue fills up part way, the remaining jobs are recorded as failed
// with reason queue_full and their IDs are released for resubmission. If no
// job fits, ErrBackpressure is returned.
func (s *Service) SubmitBatch(ctx context.Context, req types.BatchRequest) (types.BatchAccepted, error) {
	if err := s.running(); err != nil {
		return types.BatchAccepted{}, err
	}
	if len(req.Jobs) == 0 {
		return types.BatchAccepted{}, fmt.Errorf("%w: batch has no jobs", ErrInvalidRequest)
	}
	if len(req.Jobs) > s.maxBatch {
		return types.BatchAccepted{}, fmt.Errorf("%w: batch has %d jobs, limit is %d", ErrInvalidRequest, len(req.Jobs), s.maxBatch)
	}

	batchID := uuid.NewString()
	jobs := make([]model.Job, 0, len(req.Jobs))
	seen := make(map[string]bool, len(req.Jobs))
	for i, jr := range req.Jobs {
		kind, err := parseKind(jr.Kind)
		if err != nil {
			return types.BatchAccepted{}, fmt.Errorf("job %d: %w", i, err)
		}
		job, err := s.resolve(ctx, kind, jr)
		if err != nil {
			return types.BatchAccepted{}, fmt.Errorf("job %d: %w", i, err)
		}
		if job.ID == "" {
			job.ID = uuid.NewString()
		} else if err := repository.CheckID(job.ID); err != nil {
			return types.BatchAccepted{}, fmt.Errorf("%w: job %d: %w", ErrInvalidRequest, i, err)
		}
		if seen[job.ID] {
			return types.BatchAccepted{}, fmt.Errorf("%w: job %d: id %q repeats within the batch", ErrInvalidRequest, i, job.ID)
		}
		seen[job.ID] = true
		job.BatchID = batchID
		jobs = append(jobs, job)
	}

	accepted := types.BatchAccepted{BatchID: batchID, JobIDs: []string{}}
	for i := range jobs {
		job := &jobs[i]
		if s.deduper.SeenAndRecord(ctx, job.ID) {
			metrics.RecordJobDuplicate()
			accepted.Duplicates = append(accepted.Duplicates, job.ID)
			continue
		}

		// The placeholder goes in first so a fast worker cannot be overwritten.
		if err := s.results.Put(ctx, model.Queued(job)); err != nil {
			s.deduper.Unrecord(ctx, job.ID)
			return accepted, storeErr(err)
		}

		if err := s.jobs.Enqueue(ctx, *job); err != nil {
			s.deduper.Unrecord(ctx, job.ID)
			if !errors.Is(err, jobqueue.ErrFull) {
				return accepted, err
			}
			failed := model.Queued(job)
			failed.Status = model.StatusFailed
			failed.Reason = reasonQueueFull
			failed.Message = err.Error()
			failed.Completed = s.now()
			if err := s.results.Put(ctx, failed); err != nil {
				metrics.RecordErrorByComponent("service", "record_rejected_failed")
				s.logger.Error(ctx, "recording rejected job",
					logger.String("jobID", job.ID),
					logger.String("batchID", batchID),
					logger.Error(err),
				)
			}
			accepted.Rejected = append(accepted.Rejected, job.ID)
			continue
		}
		accepted.JobIDs = append(accepted.JobIDs, job.ID)
	}

	if len(accepted.JobIDs) == 0 && len(accepted.Rejected) > 0 {
		return accepted, ErrBackpressure
	}

	metrics.RecordBatchAccepted()
	s.logger.Debug(ctx, "batch accepted",
		logger.String("batchID", batchID),
		logger.Int("jobs", len(accepted.JobIDs)),
		logger.Int("duplicates", len(accepted.Duplicates)),
		logger.Int("rejected", len(accepted.Rejected)),
	)
	return accepted, nil
}

// Job returns the state of an asynchronous job.
func (s *Service) Job(ctx context.Context, id string) (types.JobStatus, error) {
	if err := s.running(); err != nil {
		return types.JobStatus{}, err
	}
	r, err := s.results.Get(ctx, id)
	if err != nil {
		return types.JobStatus{}, storeErr(err)
	}
	return jobStatus(&r), nil
}

// Batch returns the state of every job of a batch in submission order.
func (s *Service) Batch(ctx context.Context, batchID string) ([]types.JobStatus, error) {
	if err := s.running(); err != nil {
		return nil, err
	}
	rs, err := s.results.Batch(ctx, batchID)
	if err != nil {
		return nil, storeErr(err)
	}
	out := make([]types.JobStatus, len(rs))
	for i := range rs {
		out[i] = jobStatus(&rs[i])
	}
	return out, nil
}

func jobStatus(r *model.Result) types.JobStatus {
	st := types.JobStatus{
		JobID:     r.JobID,
		BatchID:   r.BatchID,
		Kind:      string(r.Kind),
		Status:    string(r.Status),
		Reason:    r.Reason,
		Message:   r.Message,
		Submitted: r.Submitted,
	}
	if r.Status == model.StatusDone {
		v := r.Value
		st.Value = &v
	}
	if !r.Completed.IsZero() {
		c := r.Completed
		st.Completed = &c
		st.DurationMs = float64(r.Duration().Microseconds()) / 1000
	}
	return st
}
