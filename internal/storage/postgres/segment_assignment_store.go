package postgres

import (
	"context"
	"fmt"

	"segment-lab/internal/domain"
	"segment-lab/internal/storage"
)

// SegmentAssignmentStore implements storage.SegmentAssignmentStore using PostgreSQL.
type SegmentAssignmentStore struct {
	pool *Pool
}

// NewSegmentAssignmentStore creates a new SegmentAssignmentStore.
func NewSegmentAssignmentStore(pool *Pool) *SegmentAssignmentStore {
	return &SegmentAssignmentStore{pool: pool}
}

// Compile-time interface check.
var _ storage.SegmentAssignmentStore = (*SegmentAssignmentStore)(nil)

var assignmentColumns = []string{
	"run_id", "customer_id", "r_score", "f_score", "m_score", "score_key", "segment",
	"recency", "frequency", "monetary",
}

// InsertBulk adds the assignments of one run atomically.
// Returns ErrDuplicateKey if any (run_id, customer_id) exists.
func (s *SegmentAssignmentStore) InsertBulk(ctx context.Context, runID string, assignments []*domain.SegmentAssignment) error {
	if runID == "" {
		return storage.ErrInvalidInput
	}
	if len(assignments) == 0 {
		return nil
	}

	rows := make([][]interface{}, 0, len(assignments))
	for _, a := range assignments {
		if a == nil || a.CustomerID == "" {
			return storage.ErrInvalidInput
		}
		rows = append(rows, []interface{}{
			runID,
			a.CustomerID,
			int16(a.RScore),
			int16(a.FScore),
			int16(a.MScore),
			string(a.Key),
			a.Segment.String(),
			int32(a.Recency),
			int32(a.Frequency),
			a.Monetary,
		})
	}

	if err := copyRows(ctx, s.pool, "segment_assignments", assignmentColumns, rows); err != nil {
		return mapWriteError(err, storage.ErrDuplicateKey, storage.ErrInvalidInput, "insert segment assignments")
	}
	return nil
}

// GetByRun retrieves all assignments of a run ordered by customer_id ASC.
func (s *SegmentAssignmentStore) GetByRun(ctx context.Context, runID string) ([]*domain.SegmentAssignment, error) {
	query := `
		SELECT customer_id, r_score, f_score, m_score, score_key, segment, recency, frequency, monetary
		FROM segment_assignments
		WHERE run_id = $1
		ORDER BY customer_id ASC
	`

	rows, err := s.pool.Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("get segment assignments by run: %w", err)
	}
	defer rows.Close()

	var result []*domain.SegmentAssignment
	for rows.Next() {
		var (
			a             domain.SegmentAssignment
			r, f, m       int16
			key, label    string
			recency, freq int32
		)
		if err := rows.Scan(&a.CustomerID, &r, &f, &m, &key, &label, &recency, &freq, &a.Monetary); err != nil {
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
		a.Frequency = int(freq)
		result = append(result, &a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate segment assignment rows: %w", err)
	}
	return result, nil
}
