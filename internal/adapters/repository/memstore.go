package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/okian/hydrophys/internal/domain/profile"
	"github.com/okian/hydrophys/pkg/metrics"
)

// snapshot is an immutable view of the stored profiles. Readers load it
// without locking; writers build a new one under mu and publish it.
type snapshot struct {
	byID map[string]profile.Named
	ids  []string // sorted
}

// MemoryProfileStore is an in-process ProfileStore.
type MemoryProfileStore struct {
	mu   sync.Mutex
	snap atomic.Pointer[snapshot]
}

// NewMemoryProfileStore creates an empty store.
func NewMemoryProfileStore() *MemoryProfileStore {
	s := &MemoryProfileStore{}
	s.snap.Store(&snapshot{byID: map[string]profile.Named{}})
	return s
}

// Put stores a copy of p.
func (s *MemoryProfileStore) Put(ctx context.Context, p profile.Named) (profile.Named, error) {
	start := time.Now()
	defer func() {
		metrics.RecordRepositoryUpdateLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if err := CheckID(p.ID); err != nil {
		return profile.Named{}, err
	}
	p = p.Clone()

	s.mu.Lock()
	defer s.mu.Unlock()

	cur := s.snap.Load()
	next := &snapshot{byID: make(map[string]profile.Named, len(cur.byID)+1)}
	for id, v := range cur.byID {
		next.byID[id] = v
	}
	next.byID[p.ID] = p
	next.ids = sortedIDs(next.byID)
	s.snap.Store(next)
	metrics.UpdateProfilesStored(len(next.ids))

	return p.Clone(), nil
}

// Get returns a copy of the stored profile.
func (s *MemoryProfileStore) Get(ctx context.Context, id string) (profile.Named, error) {
	start := time.Now()
	defer func() {
		metrics.RecordRepositoryQueryLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	p, ok := s.snap.Load().byID[id]
	if !ok {
		return profile.Named{}, fmt.Errorf("profile %q: %w", id, ErrNotFound)
	}
	return p.Clone(), nil
}

// List returns copies of all stored profiles ordered by ID.
func (s *MemoryProfileStore) List(ctx context.Context) ([]profile.Named, error) {
	snap := s.snap.Load()
	out := make([]profile.Named, 0, len(snap.ids))
	for _, id := range snap.ids {
		out = append(out, snap.byID[id].Clone())
	}
	return out, nil
}

// Delete removes a profile.
func (s *MemoryProfileStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur := s.snap.Load()
	if _, ok := cur.byID[id]; !ok {
		return fmt.Errorf("profile %q: %w", id, ErrNotFound)
	}
	next := &snapshot{byID: make(map[string]profile.Named, len(cur.byID))}
	for k, v := range cur.byID {
		if k != id {
			next.byID[k] = v
		}
	}
	next.ids = sortedIDs(next.byID)
	s.snap.Store(next)
	metrics.UpdateProfilesStored(len(next.ids))
	return nil
}

// Count returns the number of stored profiles.
func (s *MemoryProfileStore) Count(ctx context.Context) int {
	return len(s.snap.Load().ids)
}

// Close is a no-op.
func (s *MemoryProfileStore) Close() error { return nil }

func sortedIDs(m map[string]profile.Named) []string {
	ids := make([]string, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
