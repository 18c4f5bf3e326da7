package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"segment-lab/internal/domain"
	"segment-lab/internal/storage"
)

// TransactionStore implements storage.TransactionStore using PostgreSQL.
type TransactionStore struct {
	pool *Pool
}

// NewTransactionStore creates a new TransactionStore.
func NewTransactionStore(pool *Pool) *TransactionStore {
	return &TransactionStore{pool: pool}
}

// Compile-time interface check.
var _ storage.TransactionStore = (*TransactionStore)(nil)

var transactionColumns = []string{
	"transaction_id", "customer_id", "campaign_id", "amount", "purchase_date", "converted",
}

// InsertBulk adds multiple transactions atomically. Fails entire batch on any duplicate.
func (s *TransactionStore) InsertBulk(ctx context.Context, txs []*domain.Transaction) error {
	if len(txs) == 0 {
		return nil
	}

	rows := make([][]interface{}, 0, len(txs))
	for _, tx := range txs {
		if tx == nil || tx.TransactionID == "" || tx.CustomerID == "" || tx.CampaignID == "" {
			return storage.ErrInvalidInput
		}
		rows = append(rows, []interface{}{
			tx.TransactionID,
			tx.CustomerID,
			tx.CampaignID,
			tx.Amount,
			dateArg(tx.PurchaseDate),
			tx.Converted,
		})
	}

	if err := copyRows(ctx, s.pool, "transactions", transactionColumns, rows); err != nil {
		return mapWriteError(err, storage.ErrDuplicateKey, storage.ErrInvalidInput, "insert transactions in bulk")
	}
	return nil
}

// GetByWindow retrieves transactions dated within [start, end] (inclusive).
// A zero start leaves the window open on the left.
func (s *TransactionStore) GetByWindow(ctx context.Context, start, end time.Time) ([]*domain.Transaction, error) {
	query := `
		SELECT transaction_id, customer_id, campaign_id, amount, purchase_date, converted
		FROM transactions
		WHERE ($1::date IS NULL OR purchase_date >= $1::date)
		  AND purchase_date <= $2::date
		ORDER BY purchase_date ASC, transaction_id ASC
	`

	rows, err := s.pool.Query(ctx, query, dateArg(start), dateArg(end))
	if err != nil {
		return nil, fmt.Errorf("get transactions by window: %w", err)
	}
	defer rows.Close()

	return scanTransactions(rows)
}

// GetAll retrieves every transaction ordered by purchase_date ASC, transaction_id ASC.
func (s *TransactionStore) GetAll(ctx context.Context) ([]*domain.Transaction, error) {
	query := `
		SELECT transaction_id, customer_id, campaign_id, amount, purchase_date, converted
		FROM transactions
		ORDER BY purchase_date ASC, transaction_id ASC
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("get all transactions: %w", err)
	}
	defer rows.Close()

	return scanTransactions(rows)
}

// scanTransactions scans multiple rows into Transaction slice.
func scanTransactions(rows pgx.Rows) ([]*domain.Transaction, error) {
	var result []*domain.Transaction

	for rows.Next() {
		var tx domain.Transaction
		err := rows.Scan(
			&tx.TransactionID,
			&tx.CustomerID,
			&tx.CampaignID,
			&tx.Amount,
			&tx.PurchaseDate,
			&tx.Converted,
		)
		if err != nil {
			return nil, fmt.Errorf("scan transaction row: %w", err)
		}
		tx.PurchaseDate = tx.PurchaseDate.UTC()
		result = append(result, &tx)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transaction rows: %w", err)
	}

	return result, nil
}
