package memory

import (
	"context"
	"sort"
	"sync"

	"segment-lab/internal/domain"
	"segment-lab/internal/storage"
)

// SegmentAssignmentStore is an in-memory implementation of storage.SegmentAssignmentStore.
type SegmentAssignmentStore struct {
	mu   sync.RWMutex
	data map[string]map[string]*domain.SegmentAssignment // run_id -> customer_id -> assignment
}

// NewSegmentAssignmentStore creates a new in-memory segment assignment store.
func NewSegmentAssignmentStore() *SegmentAssignmentStore {
	return &SegmentAssignmentStore{
		data: make(map[string]map[string]*domain.SegmentAssignment),
	}
}

// InsertBulk adds the assignments of one run atomically.
// Returns ErrDuplicateKey if any (run_id, customer_id) exists.
func (s *SegmentAssignmentStore) InsertBulk(_ context.Context, runID string, assignments []*domain.SegmentAssignment) error {
	if runID == "" {
		return storage.ErrInvalidInput
	}
	if len(assignments) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	run := s.data[runID]
	batchKeys := make(map[string]struct{}, len(assignments))
	for _, a := range assignments {
		if a == nil || a.CustomerID == "" {
			return storage.ErrInvalidInput
		}
		if _, exists := run[a.CustomerID]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[a.CustomerID]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[a.CustomerID] = struct{}{}
	}

	if run == nil {
		run = make(map[string]*domain.SegmentAssignment, len(assignments))
		s.data[runID] = run
	}
	for _, a := range assignments {
		assignmentCopy := *a
		run[a.CustomerID] = &assignmentCopy
	}
	return nil
}

// GetByRun retrieves all assignments of a run ordered by customer_id ASC.
func (s *SegmentAssignmentStore) GetByRun(_ context.Context, runID string) ([]*domain.SegmentAssignment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	run := s.data[runID]
	result := make([]*domain.SegmentAssignment, 0, len(run))
	for _, a := range run {
		assignmentCopy := *a
		result = append(result, &assignmentCopy)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].CustomerID < result[j].CustomerID
	})
	return result, nil
}

// Compile-time interface check
var _ storage.SegmentAssignmentStore = (*SegmentAssignmentStore)(nil)
