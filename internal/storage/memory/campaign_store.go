package memory

import (
	"context"
	"sort"
	"sync"

	"segment-lab/internal/domain"
	"segment-lab/internal/storage"
)

// CampaignStore is an in-memory implementation of storage.CampaignStore.
type CampaignStore struct {
	mu   sync.RWMutex
	data map[string]*domain.Campaign // keyed by campaign_id
}

// NewCampaignStore creates a new in-memory campaign store.
func NewCampaignStore() *CampaignStore {
	return &CampaignStore{
		data: make(map[string]*domain.Campaign),
	}
}

// Insert adds a new campaign. Returns ErrDuplicateKey if campaign_id exists.
func (s *CampaignStore) Insert(_ context.Context, c *domain.Campaign) error {
	if c == nil || c.CampaignID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[c.CampaignID]; exists {
		return storage.ErrDuplicateKey
	}

	// Store a copy to prevent external mutation
	campaignCopy := *c
	s.data[c.CampaignID] = &campaignCopy
	return nil
}

// GetByID retrieves a campaign by its ID. Returns ErrNotFound if not exists.
func (s *CampaignStore) GetByID(_ context.Context, campaignID string) (*domain.Campaign, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, exists := s.data[campaignID]
	if !exists {
		return nil, storage.ErrNotFound
	}

	campaignCopy := *c
	return &campaignCopy, nil
}

// GetAll retrieves the roster ordered by campaign_id ASC.
func (s *CampaignStore) GetAll(_ context.Context) ([]*domain.Campaign, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.Campaign, 0, len(s.data))
	for _, c := range s.data {
		campaignCopy := *c
		result = append(result, &campaignCopy)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].CampaignID < result[j].CampaignID
	})
	return result, nil
}

// Compile-time interface check
var _ storage.CampaignStore = (*CampaignStore)(nil)
