package store

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// InMemoryRunStore implements RunStore for testing and dry runs.
type InMemoryRunStore struct {
	mu   sync.RWMutex
	runs []Run
}

// NewInMemoryRunStore creates a new in-memory store.
func NewInMemoryRunStore() *InMemoryRunStore {
	return &InMemoryRunStore{}
}

// Record stores run.
func (s *InMemoryRunStore) Record(ctx context.Context, run Run) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if run.Path == "" {
		return 0, fmt.Errorf("run path is required")
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now()
	}
	run.ID = int64(len(s.runs) + 1)
	s.runs = append(s.runs, run)
	return run.ID, nil
}

// List returns up to limit runs, newest first.
func (s *InMemoryRunStore) List(ctx context.Context, limit int) ([]Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := len(s.runs)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]Run, 0, n)
	for i := len(s.runs) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, s.runs[i])
	}
	return out, nil
}

// Close is a no-op.
func (s *InMemoryRunStore) Close() error { return nil }
