package storage

import (
	"context"

	"segment-lab/internal/domain"
)

// RunStore records analysis runs so stored results can be traced back to the
// window and options that produced them. Runs never read each other's results.
type RunStore interface {
	// Insert records a run. Returns ErrDuplicateKey if run_id exists.
	Insert(ctx context.Context, run *domain.AnalysisRun) error

	// GetByID retrieves a run. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, runID string) (*domain.AnalysisRun, error)

	// GetLatest returns the most recently started run.
	// Returns ErrNotFound if no run has been recorded yet.
	GetLatest(ctx context.Context) (*domain.AnalysisRun, error)
}
