package pipeline

import (
	"context"
	"fmt"
	"time"

	"segment-lab/internal/reporting"
)

// BuildReport turns a run result into a report with its data quality section.
// checker may be nil, in which case only integrity errors are reported.
func BuildReport(ctx context.Context, res *Result, checker *SufficiencyChecker, now time.Time) (*reporting.Report, error) {
	r := reporting.Build(res.RunID, res.Assignments, res.Campaigns, res.Config.Thresholds)
	r.GeneratedAt = now
	r.WindowStart = res.Config.Window.Start
	r.WindowEnd = res.Config.Window.End
	r.Anonymized = res.Anonymized
	r.NoiseApplied = res.NoiseApplied
	r.DataQuality = reporting.DataQualitySection{
		IntegrityErrors: res.IntegrityErrors,
		AllChecksPassed: len(res.IntegrityErrors) == 0,
	}

	if checker == nil {
		return r, nil
	}

	sufficiency, err := checker.Check(ctx, res)
	if err != nil {
		return nil, fmt.Errorf("sufficiency check: %w", err)
	}
	rows := make([]reporting.SufficiencyCheckRow, len(sufficiency.Checks))
	for i, c := range sufficiency.Checks {
		rows[i] = reporting.SufficiencyCheckRow(c)
	}
	r.DataQuality = reporting.DataQualitySection{
		SufficiencyChecks: rows,
		IntegrityErrors:   sufficiency.Errors,
		AllChecksPassed:   sufficiency.AllPass,
	}
	return r, nil
}
