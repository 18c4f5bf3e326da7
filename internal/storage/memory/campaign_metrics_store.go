package memory

import (
	"context"
	"sort"
	"sync"

	"segment-lab/internal/domain"
	"segment-lab/internal/storage"
)

// CampaignMetricsStore is an in-memory implementation of storage.CampaignMetricsStore.
type CampaignMetricsStore struct {
	mu   sync.RWMutex
	data map[string]map[string]*domain.CampaignMetrics // run_id -> campaign_id -> metrics
}

// NewCampaignMetricsStore creates a new in-memory campaign metrics store.
func NewCampaignMetricsStore() *CampaignMetricsStore {
	return &CampaignMetricsStore{
		data: make(map[string]map[string]*domain.CampaignMetrics),
	}
}

// InsertBulk adds the metrics of one run atomically.
// Returns ErrDuplicateKey if any (run_id, campaign_id) exists.
func (s *CampaignMetricsStore) InsertBulk(_ context.Context, runID string, metrics []*domain.CampaignMetrics) error {
	if runID == "" {
		return storage.ErrInvalidInput
	}
	if len(metrics) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	run := s.data[runID]
	batchKeys := make(map[string]struct{}, len(metrics))
	for _, m := range metrics {
		if m == nil || m.CampaignID == "" {
			return storage.ErrInvalidInput
		}
		if _, exists := run[m.CampaignID]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[m.CampaignID]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[m.CampaignID] = struct{}{}
	}

	if run == nil {
		run = make(map[string]*domain.CampaignMetrics, len(metrics))
		s.data[runID] = run
	}
	for _, m := range metrics {
		metricsCopy := *m
		run[m.CampaignID] = &metricsCopy
	}
	return nil
}

// GetByRun retrieves all metrics of a run ordered by campaign_id ASC.
func (s *CampaignMetricsStore) GetByRun(_ context.Context, runID string) ([]*domain.CampaignMetrics, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	run := s.data[runID]
	result := make([]*domain.CampaignMetrics, 0, len(run))
	for _, m := range run {
		metricsCopy := *m
		result = append(result, &metricsCopy)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].CampaignID < result[j].CampaignID
	})
	return result, nil
}

// Compile-time interface check
var _ storage.CampaignMetricsStore = (*CampaignMetricsStore)(nil)
