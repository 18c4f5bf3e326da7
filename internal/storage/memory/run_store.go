package memory

import (
	"context"
	"sync"

	"segment-lab/internal/domain"
	"segment-lab/internal/storage"
)

// RunStore is an in-memory implementation of storage.RunStore.
type RunStore struct {
	mu     sync.RWMutex
	data   map[string]*domain.AnalysisRun // keyed by run_id
	latest string
}

// NewRunStore creates a new in-memory run store.
func NewRunStore() *RunStore {
	return &RunStore{
		data: make(map[string]*domain.AnalysisRun),
	}
}

// Insert records a run. Returns ErrDuplicateKey if run_id exists.
func (s *RunStore) Insert(_ context.Context, run *domain.AnalysisRun) error {
	if run == nil || run.RunID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[run.RunID]; exists {
		return storage.ErrDuplicateKey
	}

	runCopy := *run
	s.data[run.RunID] = &runCopy

	if prev, ok := s.data[s.latest]; !ok || !run.StartedAt.Before(prev.StartedAt) {
		s.latest = run.RunID
	}
	return nil
}

// GetByID retrieves a run. Returns ErrNotFound if not exists.
func (s *RunStore) GetByID(_ context.Context, runID string) (*domain.AnalysisRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	run, exists := s.data[runID]
	if !exists {
		return nil, storage.ErrNotFound
	}
	runCopy := *run
	return &runCopy, nil
}

// GetLatest returns the most recently started run.
func (s *RunStore) GetLatest(_ context.Context) (*domain.AnalysisRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	run, exists := s.data[s.latest]
	if !exists {
		return nil, storage.ErrNotFound
	}
	runCopy := *run
	return &runCopy, nil
}

// Compile-time interface check
var _ storage.RunStore = (*RunStore)(nil)
