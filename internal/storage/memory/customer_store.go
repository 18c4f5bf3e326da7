package memory

import (
	"context"
	"sort"
	"sync"

	"segment-lab/internal/domain"
	"segment-lab/internal/storage"
)

// CustomerStore is an in-memory implementation of storage.CustomerStore.
type CustomerStore struct {
	mu   sync.RWMutex
	data map[string]*domain.Customer // keyed by customer_id
}

// NewCustomerStore creates a new in-memory customer store.
func NewCustomerStore() *CustomerStore {
	return &CustomerStore{
		data: make(map[string]*domain.Customer),
	}
}

// InsertBulk adds multiple customers atomically. Fails entire batch on any duplicate.
func (s *CustomerStore) InsertBulk(_ context.Context, customers []*domain.Customer) error {
	if len(customers) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	batchKeys := make(map[string]struct{}, len(customers))
	for _, c := range customers {
		if c == nil || c.CustomerID == "" {
			return storage.ErrInvalidInput
		}
		if _, exists := s.data[c.CustomerID]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[c.CustomerID]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[c.CustomerID] = struct{}{}
	}

	for _, c := range customers {
		customerCopy := *c
		s.data[c.CustomerID] = &customerCopy
	}
	return nil
}

// GetAll retrieves all customers ordered by customer_id ASC.
func (s *CustomerStore) GetAll(_ context.Context) ([]*domain.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.Customer, 0, len(s.data))
	for _, c := range s.data {
		customerCopy := *c
		result = append(result, &customerCopy)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].CustomerID < result[j].CustomerID
	})
	return result, nil
}

// Compile-time interface check
var _ storage.CustomerStore = (*CustomerStore)(nil)
