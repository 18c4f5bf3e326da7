package clickhouse

import (
	"context"
	"fmt"

	"segment-lab/internal/domain"
	"segment-lab/internal/storage"
)

// CampaignMetricsStore implements storage.CampaignMetricsStore using ClickHouse.
type CampaignMetricsStore struct {
	conn *Conn
}

// NewCampaignMetricsStore creates a new CampaignMetricsStore.
func NewCampaignMetricsStore(conn *Conn) *CampaignMetricsStore {
	return &CampaignMetricsStore{conn: conn}
}

// Compile-time interface check.
var _ storage.CampaignMetricsStore = (*CampaignMetricsStore)(nil)

// InsertBulk adds the metrics of one run in a single batch.
// A run is written once: returns ErrDuplicateKey if the run already has rows
// or the batch repeats a campaign.
func (s *CampaignMetricsStore) InsertBulk(ctx context.Context, runID string, metrics []*domain.CampaignMetrics) error {
	if runID == "" {
		return storage.ErrInvalidInput
	}
	if len(metrics) == 0 {
		return nil
	}

	// Check for intra-batch duplicates
	seen := make(map[string]struct{}, len(metrics))
	for _, m := range metrics {
		if m == nil || m.CampaignID == "" {
			return storage.ErrInvalidInput
		}
		if _, exists := seen[m.CampaignID]; exists {
			return storage.ErrDuplicateKey
		}
		seen[m.CampaignID] = struct{}{}
	}

	exists, err := runExists(ctx, s.conn, "campaign_metrics", runID)
	if err != nil {
		return fmt.Errorf("check exists: %w", err)
	}
	if exists {
		return storage.ErrDuplicateKey
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO campaign_metrics (
			run_id, campaign_id, name, channel, cost,
			reach, conversions, revenue, conversion_rate, roi, cpa
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, m := range metrics {
		var cpa *float64
		if m.CPADefined {
			v := m.CPA
			cpa = &v
		}
		err = batch.Append(
			runID, m.CampaignID, m.Name, m.Channel.String(), m.Cost,
			uint32(m.Reach), uint32(m.Conversions), m.Revenue, m.ConversionRate, m.ROI, cpa,
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}
	return nil
}

// GetByRun retrieves all metrics of a run ordered by campaign_id ASC.
func (s *CampaignMetricsStore) GetByRun(ctx context.Context, runID string) ([]*domain.CampaignMetrics, error) {
	query := `
		SELECT
			campaign_id, name, channel, cost,
			reach, conversions, revenue, conversion_rate, roi, cpa
		FROM campaign_metrics FINAL
		WHERE run_id = ?
		ORDER BY campaign_id ASC
	`

	rows, err := s.conn.Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("query campaign metrics by run: %w", err)
	}
	defer rows.Close()

	return scanCampaignMetrics(rows)
}

// scanCampaignMetrics scans multiple rows into a slice.
func scanCampaignMetrics(rows chRows) ([]*domain.CampaignMetrics, error) {
	var result []*domain.CampaignMetrics

	for rows.Next() {
		var (
			m                  domain.CampaignMetrics
			channel            string
			reach, conversions uint32
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
