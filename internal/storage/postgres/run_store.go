package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"segment-lab/internal/domain"
	"segment-lab/internal/storage"
)

// RunStore implements storage.RunStore using PostgreSQL.
type RunStore struct {
	pool *Pool
}

// NewRunStore creates a new RunStore.
func NewRunStore(pool *Pool) *RunStore {
	return &RunStore{pool: pool}
}

// Compile-time interface check.
var _ storage.RunStore = (*RunStore)(nil)

// Insert records a run. Returns ErrDuplicateKey if run_id exists.
func (s *RunStore) Insert(ctx context.Context, run *domain.AnalysisRun) error {
	if run == nil || run.RunID == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO analysis_runs (
			run_id, window_start, window_end, started_at, anonymized, noise_applied,
			transactions, customers, campaigns
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := s.pool.Exec(ctx, query,
		run.RunID,
		dateArg(run.WindowStart),
		dateArg(run.WindowEnd),
		run.StartedAt.UTC(),
		run.Anonymized,
		run.NoiseApplied,
		run.Transactions,
		run.Customers,
		run.Campaigns,
	)
	if err != nil {
		return mapWriteError(err, storage.ErrDuplicateKey, storage.ErrInvalidInput, "insert analysis run")
	}
	return nil
}

// GetByID retrieves a run. Returns ErrNotFound if not exists.
func (s *RunStore) GetByID(ctx context.Context, runID string) (*domain.AnalysisRun, error) {
	query := `
		SELECT run_id, window_start, window_end, started_at, anonymized, noise_applied,
		       transactions, customers, campaigns
		FROM analysis_runs
		WHERE run_id = $1
	`

	run, err := scanRun(s.pool.QueryRow(ctx, query, runID))
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get analysis run by id: %w", err)
	}
	return run, nil
}

// GetLatest returns the most recently started run.
func (s *RunStore) GetLatest(ctx context.Context) (*domain.AnalysisRun, error) {
	query := `
		SELECT run_id, window_start, window_end, started_at, anonymized, noise_applied,
		       transactions, customers, campaigns
		FROM analysis_runs
		ORDER BY started_at DESC, run_id DESC
		LIMIT 1
	`

	run, err := scanRun(s.pool.QueryRow(ctx, query))
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get latest analysis run: %w", err)
	}
	return run, nil
}

// scanRun scans a single row into AnalysisRun.
func scanRun(row pgx.Row) (*domain.AnalysisRun, error) {
	var (
		run         domain.AnalysisRun
		windowStart *time.Time
	)
	err := row.Scan(
		&run.RunID,
		&windowStart,
		&run.WindowEnd,
		&run.StartedAt,
		&run.Anonymized,
		&run.NoiseApplied,
		&run.Transactions,
		&run.Customers,
		&run.Campaigns,
	)
	if err != nil {
		return nil, err
	}
	if windowStart != nil {
		run.WindowStart = windowStart.UTC()
	}
	run.WindowEnd = run.WindowEnd.UTC()
	run.StartedAt = run.StartedAt.UTC()
	return &run, nil
}
