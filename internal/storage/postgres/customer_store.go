package postgres

import (
	"context"
	"fmt"
	"time"

	"segment-lab/internal/domain"
	"segment-lab/internal/storage"
)

// CustomerStore implements storage.CustomerStore using PostgreSQL.
type CustomerStore struct {
	pool *Pool
}

// NewCustomerStore creates a new CustomerStore.
func NewCustomerStore(pool *Pool) *CustomerStore {
	return &CustomerStore{pool: pool}
}

// Compile-time interface check.
var _ storage.CustomerStore = (*CustomerStore)(nil)

// InsertBulk adds multiple customers atomically. Fails entire batch on any duplicate.
func (s *CustomerStore) InsertBulk(ctx context.Context, customers []*domain.Customer) error {
	if len(customers) == 0 {
		return nil
	}

	rows := make([][]interface{}, 0, len(customers))
	for _, c := range customers {
		if c == nil || c.CustomerID == "" {
			return storage.ErrInvalidInput
		}
		rows = append(rows, []interface{}{c.CustomerID, c.AgeGroup, c.Region, dateArg(c.SignupDate)})
	}

	err := copyRows(ctx, s.pool, "customers", []string{"customer_id", "age_group", "region", "signup_date"}, rows)
	if err != nil {
		return mapWriteError(err, storage.ErrDuplicateKey, storage.ErrInvalidInput, "insert customers in bulk")
	}
	return nil
}

// GetAll retrieves all customers ordered by customer_id ASC.
func (s *CustomerStore) GetAll(ctx context.Context) ([]*domain.Customer, error) {
	query := `
		SELECT customer_id, age_group, region, signup_date
		FROM customers
		ORDER BY customer_id ASC
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("get all customers: %w", err)
	}
	defer rows.Close()

	var result []*domain.Customer
	for rows.Next() {
		var (
			c      domain.Customer
			signup *time.Time
		)
		if err := rows.Scan(&c.CustomerID, &c.AgeGroup, &c.Region, &signup); err != nil {
			return nil, fmt.Errorf("scan customer row: %w", err)
		}
		if signup != nil {
			c.SignupDate = signup.UTC()
		}
		result = append(result, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate customer rows: %w", err)
	}
	return result, nil
}
