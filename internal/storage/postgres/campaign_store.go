package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"segment-lab/internal/domain"
	"segment-lab/internal/storage"
)

// CampaignStore implements storage.CampaignStore using PostgreSQL.
type CampaignStore struct {
	pool *Pool
}

// NewCampaignStore creates a new CampaignStore.
func NewCampaignStore(pool *Pool) *CampaignStore {
	return &CampaignStore{pool: pool}
}

// Compile-time interface check.
var _ storage.CampaignStore = (*CampaignStore)(nil)

// Insert adds a new campaign. Returns ErrDuplicateKey if campaign_id exists.
// A non-positive cost violates the table's CHECK and returns ErrInvalidInput.
func (s *CampaignStore) Insert(ctx context.Context, c *domain.Campaign) error {
	if c == nil || c.CampaignID == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO campaigns (campaign_id, name, channel, cost)
		VALUES ($1, $2, $3, $4)
	`

	_, err := s.pool.Exec(ctx, query, c.CampaignID, c.Name, c.Channel.String(), c.Cost)
	if err != nil {
		return mapWriteError(err, storage.ErrDuplicateKey, storage.ErrInvalidInput, "insert campaign")
	}
	return nil
}

// GetByID retrieves a campaign by ID. Returns ErrNotFound if not exists.
func (s *CampaignStore) GetByID(ctx context.Context, campaignID string) (*domain.Campaign, error) {
	query := `
		SELECT campaign_id, name, channel, cost
		FROM campaigns
		WHERE campaign_id = $1
	`

	c, err := scanCampaign(s.pool.QueryRow(ctx, query, campaignID))
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get campaign by id: %w", err)
	}
	return c, nil
}

// GetAll retrieves the campaign roster ordered by campaign_id ASC.
func (s *CampaignStore) GetAll(ctx context.Context) ([]*domain.Campaign, error) {
	query := `
		SELECT campaign_id, name, channel, cost
		FROM campaigns
		ORDER BY campaign_id ASC
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("get all campaigns: %w", err)
	}
	defer rows.Close()

	var result []*domain.Campaign
	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			return nil, fmt.Errorf("scan campaign row: %w", err)
		}
		result = append(result, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate campaign rows: %w", err)
	}
	return result, nil
}

// scanCampaign scans a single row into Campaign.
func scanCampaign(row pgx.Row) (*domain.Campaign, error) {
	var (
		c       domain.Campaign
		channel string
	)
	if err := row.Scan(&c.CampaignID, &c.Name, &channel, &c.Cost); err != nil {
		return nil, err
	}
	c.Channel = domain.Channel(channel)
	return &c, nil
}
