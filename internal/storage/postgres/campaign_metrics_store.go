package postgres

import (
	"context"
	"fmt"

	"segment-lab/internal/domain"
	"segment-lab/internal/storage"
)

// CampaignMetricsStore implements storage.CampaignMetricsStore using PostgreSQL.
type CampaignMetricsStore struct {
	pool *Pool
}

// NewCampaignMetricsStore creates a new CampaignMetricsStore.
func NewCampaignMetricsStore(pool *Pool) *CampaignMetricsStore {
	return &CampaignMetricsStore{pool: pool}
}

// Compile-time interface check.
var _ storage.CampaignMetricsStore = (*CampaignMetricsStore)(nil)

var campaignMetricsColumns = []string{
	"run_id", "campaign_id", "name", "channel", "cost",
	"reach", "conversions", "revenue", "conversion_rate", "roi", "cpa",
}

// InsertBulk adds the metrics of one run atomically.
// Returns ErrDuplicateKey if any (run_id, campaign_id) exists.
func (s *CampaignMetricsStore) InsertBulk(ctx context.Context, runID string, metrics []*domain.CampaignMetrics) error {
	if runID == "" {
		return storage.ErrInvalidInput
	}
	if len(metrics) == 0 {
		return nil
	}

	rows := make([][]interface{}, 0, len(metrics))
	for _, m := range metrics {
		if m == nil || m.CampaignID == "" {
			return storage.ErrInvalidInput
		}
		var cpa interface{}
		if m.CPADefined {
			cpa = m.CPA
		}
		rows = append(rows, []interface{}{
			runID,
			m.CampaignID,
			m.Name,
			m.Channel.String(),
			m.Cost,
			int32(m.Reach),
			int32(m.Conversions),
			m.Revenue,
			m.ConversionRate,
			m.ROI,
			cpa,
		})
	}

	if err := copyRows(ctx, s.pool, "campaign_metrics", campaignMetricsColumns, rows); err != nil {
		return mapWriteError(err, storage.ErrDuplicateKey, storage.ErrInvalidInput, "insert campaign metrics")
	}
	return nil
}

// GetByRun retrieves all metrics of a run ordered by campaign_id ASC.
func (s *CampaignMetricsStore) GetByRun(ctx context.Context, runID string) ([]*domain.CampaignMetrics, error) {
	query := `
		SELECT campaign_id, name, channel, cost,
		       reach, conversions, revenue, conversion_rate, roi, cpa
		FROM campaign_metrics
		WHERE run_id = $1
		ORDER BY campaign_id ASC
	`

	rows, err := s.pool.Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("get campaign metrics by run: %w", err)
	}
	defer rows.Close()

	var result []*domain.CampaignMetrics
	for rows.Next() {
		var (
			m                  domain.CampaignMetrics
			channel            string
			reach, conversions int32
			cpa                *float64
		)
		err := rows.Scan(
			&m.CampaignID, &m.Name, &channel, &m.Cost,
			&reach, &conversions, &m.Revenue, &m.ConversionRate, &m.ROI, &cpa,
		)
		if err != nil {
			return nil, fmt.Errorf("scan campaign metrics row: %w", err)
		}
		m.Channel = domain.Channel(channel)
		m.Reach = int(reach)
		m.Conversions = int(conversions)
		if cpa != nil {
			m.CPA = *cpa
			m.CPADefined = true
		}
		result = append(result, &m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate campaign metrics rows: %w", err)
	}
	return result, nil
}
