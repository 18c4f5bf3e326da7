package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"segment-lab/internal/domain"
	"segment-lab/internal/storage"
)

// TransactionStore is an in-memory implementation of storage.TransactionStore.
type TransactionStore struct {
	mu   sync.RWMutex
	data map[string]*domain.Transaction // keyed by transaction_id
}

// NewTransactionStore creates a new in-memory transaction store.
func NewTransactionStore() *TransactionStore {
	return &TransactionStore{
		data: make(map[string]*domain.Transaction),
	}
}

// InsertBulk adds multiple transactions atomically. Fails entire batch on any duplicate.
func (s *TransactionStore) InsertBulk(_ context.Context, txs []*domain.Transaction) error {
	if len(txs) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Track keys in this batch to detect intra-batch duplicates
	batchKeys := make(map[string]struct{}, len(txs))

	// First pass: check for duplicates (existing + intra-batch)
	for _, tx := range txs {
		if tx == nil || tx.TransactionID == "" || tx.CustomerID == "" {
			return storage.ErrInvalidInput
		}
		if _, exists := s.data[tx.TransactionID]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[tx.TransactionID]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[tx.TransactionID] = struct{}{}
	}

	// Second pass: insert all
	for _, tx := range txs {
		txCopy := *tx
		txCopy.PurchaseDate = tx.PurchaseDate.UTC()
		s.data[tx.TransactionID] = &txCopy
	}

	return nil
}

// GetByWindow retrieves transactions dated within [start, end] (inclusive, by day).
// A zero start leaves the window open on the left.
func (s *TransactionStore) GetByWindow(_ context.Context, start, end time.Time) ([]*domain.Transaction, error) {
	from := domain.TruncateDay(start)
	to := domain.TruncateDay(end)

	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Transaction
	for _, tx := range s.data {
		d := tx.Day()
		if !start.IsZero() && d.Before(from) {
			continue
		}
		if d.After(to) {
			continue
		}
		txCopy := *tx
		result = append(result, &txCopy)
	}

	sortTransactions(result)
	return result, nil
}

// GetAll retrieves every stored transaction.
func (s *TransactionStore) GetAll(_ context.Context) ([]*domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.Transaction, 0, len(s.data))
	for _, tx := range s.data {
		txCopy := *tx
		result = append(result, &txCopy)
	}

	sortTransactions(result)
	return result, nil
}

// sortTransactions orders by purchase_date ASC, transaction_id ASC.
func sortTransactions(txs []*domain.Transaction) {
	sort.Slice(txs, func(i, j int) bool {
		if !txs[i].PurchaseDate.Equal(txs[j].PurchaseDate) {
			return txs[i].PurchaseDate.Before(txs[j].PurchaseDate)
		}
		return txs[i].TransactionID < txs[j].TransactionID
	})
}

// Compile-time interface check
var _ storage.TransactionStore = (*TransactionStore)(nil)
