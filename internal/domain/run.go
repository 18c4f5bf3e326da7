package domain

import "time"

// AnalysisRun describes one segmentation run.
// Corresponds to analysis_runs table in PostgreSQL.
type AnalysisRun struct {
	RunID        string
	WindowStart  time.Time
	WindowEnd    time.Time
	StartedAt    time.Time
	Anonymized   bool
	NoiseApplied bool
	Transactions int // transactions inside the window
	Customers    int // scored customers
	Campaigns    int // campaigns with metrics
}
