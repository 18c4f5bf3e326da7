package storage

import (
	"context"
	"time"

	"segment-lab/internal/domain"
)

// TransactionReader is the read side of transaction storage. Analysis runs
// only need this, so read-only sources can serve them.
type TransactionReader interface {
	// GetByWindow retrieves transactions dated within [start, end] (inclusive, by day),
	// ordered by purchase_date ASC, transaction_id ASC.
	GetByWindow(ctx context.Context, start, end time.Time) ([]*domain.Transaction, error)

	// GetAll retrieves every transaction in the same order as GetByWindow.
	GetAll(ctx context.Context) ([]*domain.Transaction, error)
}

// TransactionStore provides access to transactions storage.
type TransactionStore interface {
	TransactionReader

	// InsertBulk adds multiple transactions atomically. Fails entire batch on any duplicate transaction_id.
	InsertBulk(ctx context.Context, txs []*domain.Transaction) error
}

// CampaignStore provides access to campaigns storage.
type CampaignStore interface {
	// Insert adds a new campaign. Returns ErrDuplicateKey if campaign_id exists.
	Insert(ctx context.Context, c *domain.Campaign) error

	// GetByID retrieves a campaign by its ID. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, campaignID string) (*domain.Campaign, error)

	// GetAll retrieves the full campaign roster ordered by campaign_id ASC.
	GetAll(ctx context.Context) ([]*domain.Campaign, error)
}

// CustomerStore provides access to the customer roster.
type CustomerStore interface {
	// InsertBulk adds multiple customers atomically. Fails entire batch on any duplicate customer_id.
	InsertBulk(ctx context.Context, customers []*domain.Customer) error

	// GetAll retrieves all customers ordered by customer_id ASC.
	GetAll(ctx context.Context) ([]*domain.Customer, error)
}

// SegmentAssignmentStore provides access to per-run segment assignments.
type SegmentAssignmentStore interface {
	// InsertBulk adds the assignments of one run. Returns ErrDuplicateKey if
	// (run_id, customer_id) exists. Append-only.
	InsertBulk(ctx context.Context, runID string, assignments []*domain.SegmentAssignment) error

	// GetByRun retrieves all assignments of a run ordered by customer_id ASC.
	GetByRun(ctx context.Context, runID string) ([]*domain.SegmentAssignment, error)
}

// CampaignMetricsStore provides access to per-run campaign metrics.
type CampaignMetricsStore interface {
	// InsertBulk adds the metrics of one run. Returns ErrDuplicateKey if
	// (run_id, campaign_id) exists. Append-only.
	InsertBulk(ctx context.Context, runID string, metrics []*domain.CampaignMetrics) error

	// GetByRun retrieves all metrics of a run ordered by campaign_id ASC.
	GetByRun(ctx context.Context, runID string) ([]*domain.CampaignMetrics, error)
}
