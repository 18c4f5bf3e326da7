package clickhouse

import (
	"context"
	"fmt"

	"segment-lab/internal/domain"
	"segment-lab/internal/storage"
)

// SegmentAssignmentStore implements storage.SegmentAssignmentStore using ClickHouse.
type SegmentAssignmentStore struct {
	conn *Conn
}

// NewSegmentAssignmentStore creates a new SegmentAssignmentStore.
func NewSegmentAssignmentStore(conn *Conn) *SegmentAssignmentStore {
	return &SegmentAssignmentStore{conn: conn}
}

// Compile-time interface check.
var _ storage.SegmentAssignmentStore = (*SegmentAssignmentStore)(nil)

// InsertBulk adds the assignments of one run in a single batch.
// Returns ErrDuplicateKey if the run already has rows or the batch repeats a customer.
func (s *SegmentAssignmentStore) InsertBulk(ctx context.Context, runID string, assignments []*domain.SegmentAssignment) error {
	if runID == "" {
		return storage.ErrInvalidInput
	}
	if len(assignments) == 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(assignments))
	for _, a := range assignments {
		if a == nil || a.CustomerID == "" {
			return storage.ErrInvalidInput
		}
		if _, exists := seen[a.CustomerID]; exists {
			return storage.ErrDuplicateKey
		}
		seen[a.CustomerID] = struct{}{}
	}

	exists, err := runExists(ctx, s.conn, "segment_assignments", runID)
	if err != nil {
		return fmt.Errorf("check exists: %w", err)
	}
	if exists {
		return storage.ErrDuplicateKey
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO segment_assignments (
			run_id, customer_id, r_score, f_score, m_score, score_key, segment,
			recency, frequency, monetary
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, a := range assignments {
		err = batch.Append(
			runID, a.CustomerID, uint8(a.RScore), uint8(a.FScore), uint8(a.MScore),
			string(a.Key), a.Segment.String(),
			int32(a.Recency), uint32(a.Frequency), a.Monetary,
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

// GetByRun retrieves all assignments of a run ordered by customer_id ASC.
func (s *SegmentAssignmentStore) GetByRun(ctx context.Context, runID string) ([]*domain.SegmentAssignment, error) {
	query := `
		SELECT
			customer_id, r_score, f_score, m_score, score_key, segment,
			recency, frequency, monetary
		FROM segment_assignments FINAL
		WHERE run_id = ?
		ORDER BY customer_id ASC
	`

	rows, err := s.conn.Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("query segment assignments by run: %w", err)
	}
	defer rows.Close()

	return scanSegmentAssignments(rows)
}

// scanSegmentAssignments scans multiple rows into a slice.
func scanSegmentAssignments(rows chRows) ([]*domain.SegmentAssignment, error) {
	var result []*domain.SegmentAssignment

	for rows.Next() {
		var (
			a          domain.SegmentAssignment
			r, f, m    uint8
			key, label string
			recency    int32
			frequency  uint32
		)
		err := rows.Scan(&a.CustomerID, &r, &f, &m, &key, &label, &recency, &frequency, &a.Monetary)
		if err != nil {
			return nil, fmt.Errorf("scan segment assignment row: %w", err)
		}
		seg, err := domain.ParseSegment(label)
		if err != nil {
			return nil, fmt.Errorf("segment assignment %s: %w", a.CustomerID, err)
		}
		a.RScore, a.FScore, a.MScore = domain.Score(r), domain.Score(f), domain.Score(m)
		a.Key = domain.ScoreKey(key)
		a.Segment = seg
		a.Recency = int(recency)
		a.Frequency = int(frequency)
		result = append(result, &a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate segment assignment rows: %w", err)
	}
	return result, nil
}
