package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"time"

	"segment-lab/internal/domain"
	"segment-lab/internal/storage"
)

// DefaultTable is the legacy table holding purchases.
const DefaultTable = "transactions"

var tableNamePattern = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// TransactionSource implements storage.TransactionReader over a legacy table
// with columns transaction_id, customer_id, campaign_id, amount,
// purchase_date and converted. It never writes.
type TransactionSource struct {
	db    *sql.DB
	table string
}

// NewTransactionSource creates a source reading from table.
// An empty table selects DefaultTable.
func NewTransactionSource(db *sql.DB, table string) (*TransactionSource, error) {
	if table == "" {
		table = DefaultTable
	}
	if !tableNamePattern.MatchString(table) {
		return nil, fmt.Errorf("%w: table name %q", storage.ErrInvalidInput, table)
	}
	return &TransactionSource{db: db, table: table}, nil
}

// Compile-time interface check.
var _ storage.TransactionReader = (*TransactionSource)(nil)

// GetByWindow retrieves transactions dated within [start, end] (inclusive, by day).
// A zero start leaves the window open on the left.
func (s *TransactionSource) GetByWindow(ctx context.Context, start, end time.Time) ([]*domain.Transaction, error) {
	// Dates are compared as DATE strings so DATETIME columns match whole days.
	const layout = "2006-01-02"
	query := fmt.Sprintf(`
		SELECT transaction_id, customer_id, campaign_id, amount, purchase_date, converted
		FROM %s
		WHERE DATE(purchase_date) <= ?`, s.table)
	args := []interface{}{end.UTC().Format(layout)}
	if !start.IsZero() {
		query += " AND DATE(purchase_date) >= ?"
		args = append(args, start.UTC().Format(layout))
	}
	query += " ORDER BY purchase_date ASC, transaction_id ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query transactions by window: %w", err)
	}
	defer rows.Close()

	return scanTransactions(rows)
}

// GetAll retrieves every transaction ordered by purchase_date ASC, transaction_id ASC.
func (s *TransactionSource) GetAll(ctx context.Context) ([]*domain.Transaction, error) {
	query := fmt.Sprintf(`
		SELECT transaction_id, customer_id, campaign_id, amount, purchase_date, converted
		FROM %s
		ORDER BY purchase_date ASC, transaction_id ASC`, s.table)

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query all transactions: %w", err)
	}
	defer rows.Close()

	return scanTransactions(rows)
}

func scanTransactions(rows *sql.Rows) ([]*domain.Transaction, error) {
	var result []*domain.Transaction

	for rows.Next() {
		var (
			tx        domain.Transaction
			converted sql.NullBool
		)
		if err := rows.Scan(&tx.TransactionID, &tx.CustomerID, &tx.CampaignID, &tx.Amount, &tx.PurchaseDate, &converted); err != nil {
			return nil, fmt.Errorf("scan transaction row: %w", err)
		}
		tx.PurchaseDate = domain.TruncateDay(tx.PurchaseDate)
		// Legacy rows without a flag are recorded purchases
		tx.Converted = !converted.Valid || converted.Bool
		result = append(result, &tx)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transaction rows: %w", err)
	}
	return result, nil
}
