package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/okian/hydrophys/internal/domain/model"
	"github.com/okian/hydrophys/pkg/metrics"
)

// MemoryResultStore keeps job results in memory and forgets completed
// results once they are older than the retention period.
type MemoryResultStore struct {
	mu      sync.RWMutex
	byJob   map[string]model.Result
	byBatch map[string][]string // batch -> job IDs in submission order

	retention     time.Duration
	pruneInterval time.Duration
	now           func() time.Time

	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewMemoryResultStore creates a store and starts its pruning goroutine,
// which stops when ctx is canceled or Close is called.
func NewMemoryResultStore(ctx context.Context, opts ...ResultOption) *MemoryResultStore {
	s := &MemoryResultStore{
		byJob:         make(map[string]model.Result),
		byBatch:       make(map[string][]string),
		retention:     time.Hour,
		pruneInterval: time.Minute,
		now:           time.Now,
		stopCh:        make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.wg.Add(1)
	go s.pruneLoop(ctx)
	return s
}

func (s *MemoryResultStore) pruneLoop(ctx context.Context) {
	defer s.wg.Done()
	ticker := time.NewTicker(s.pruneInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopCh:
			return
		case <-ticker.C:
			s.Prune()
		}
	}
}

// Prune removes finished results completed before the retention window and
// returns how many were removed. Queued results are never pruned.
func (s *MemoryResultStore) Prune() int {
	cutoff := s.now().Add(-s.retention)

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, r := range s.byJob {
		if r.Status == model.StatusQueued || r.Completed.After(cutoff) {
			continue
		}
		delete(s.byJob, id)
		removed++
	}
	if removed == 0 {
		return 0
	}
	for batch, ids := range s.byBatch {
		kept := ids[:0]
		for _, id := range ids {
			if _, ok := s.byJob[id]; ok {
				kept = append(kept, id)
			}
		}
		if len(kept) == 0 {
			delete(s.byBatch, batch)
			continue
		}
		s.byBatch[batch] = kept
	}
	metrics.UpdateJobsTracked(len(s.byJob))
	return removed
}

// Put inserts or replaces a result.
func (s *MemoryResultStore) Put(ctx context.Context, r model.Result) error {
	if err := CheckID(r.JobID); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byJob[r.JobID]; !exists && r.BatchID != "" {
		s.byBatch[r.BatchID] = append(s.byBatch[r.BatchID], r.JobID)
	}
	s.byJob[r.JobID] = r
	metrics.UpdateJobsTracked(len(s.byJob))
	return nil
}

// Get returns the result of a job.
func (s *MemoryResultStore) Get(ctx context.Context, jobID string) (model.Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.byJob[jobID]
	if !ok {
		return model.Result{}, fmt.Errorf("job %q: %w", jobID, ErrNotFound)
	}
	return r, nil
}

// Batch returns the results of a batch in submission order.
func (s *MemoryResultStore) Batch(ctx context.Context, batchID string) ([]model.Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids, ok := s.byBatch[batchID]
	if !ok {
		return nil, fmt.Errorf("batch %q: %w", batchID, ErrNotFound)
	}
	out := make([]model.Result, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.byJob[id])
	}
	return out, nil
}

// Count returns the number of tracked jobs.
func (s *MemoryResultStore) Count(ctx context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byJob)
}

// Close stops the pruning goroutine.
func (s *MemoryResultStore) Close() error {
	s.stopOnce.Do(func() { close(s.stopCh) })
	s.wg.Wait()
	return nil
}
