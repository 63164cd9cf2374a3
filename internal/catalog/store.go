// Package catalog groups captured exchanges into endpoints and extracts the
// per-endpoint signals (auth, rate limits, query keys) an API model needs.
package catalog

import (
	"sort"
	"sync"
	"time"

	"github.com/usestring/powhttp-sdkgen/pkg/apimodel"
)

// Run is a finished analysis kept for follow-up requests.
type Run struct {
	ID        string
	Model     *apimodel.Model
	Warnings  []string
	CreatedAt time.Time
}

// RunStore holds finished analyses for reference by later tool calls.
// The oldest runs are evicted past the capacity.
type RunStore struct {
	mu       sync.RWMutex
	runs     map[string]*Run
	capacity int
}

// NewRunStore creates a RunStore. A non-positive capacity means 32.
func NewRunStore(capacity int) *RunStore {
	if capacity <= 0 {
		capacity = 32
	}
	return &RunStore{
		runs:     make(map[string]*Run),
		capacity: capacity,
	}
}

// Put stores a run, replacing one with the same ID.
func (s *RunStore) Put(run *Run) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now()
	}
	s.runs[run.ID] = run

	for len(s.runs) > s.capacity {
		var oldest *Run
		for _, r := range s.runs {
			if oldest == nil || r.CreatedAt.Before(oldest.CreatedAt) {
				oldest = r
			}
		}
		delete(s.runs, oldest.ID)
	}
}

// Get retrieves a run by ID.
func (s *RunStore) Get(id string) (*Run, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	run, ok := s.runs[id]
	return run, ok
}

// List returns all runs, newest first.
func (s *RunStore) List() []*Run {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Run, 0, len(s.runs))
	for _, r := range s.runs {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}
