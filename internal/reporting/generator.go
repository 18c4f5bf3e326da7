package reporting

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"segment-lab/internal/config"
	"segment-lab/internal/domain"
	"segment-lab/internal/metrics"
	"segment-lab/internal/segmentation"
	"segment-lab/internal/storage"
)

// Output file names.
const (
	ReportFile          = "SEGMENT_REPORT.md"
	SegmentSummaryFile  = "customer_segments_summary.csv"
	CampaignMetricsFile = "campaign_performance.csv"
)

// Generator produces reports from a run's stored results.
type Generator struct {
	assignmentStore storage.SegmentAssignmentStore
	metricsStore    storage.CampaignMetricsStore
	runStore        storage.RunStore
	thresholds      config.Thresholds
	now             func() time.Time // Injectable clock for deterministic output
}

// NewGenerator creates a new report generator. runStore may be nil.
func NewGenerator(
	assignmentStore storage.SegmentAssignmentStore,
	metricsStore storage.CampaignMetricsStore,
	runStore storage.RunStore,
	thresholds config.Thresholds,
) *Generator {
	return &Generator{
		assignmentStore: assignmentStore,
		metricsStore:    metricsStore,
		runStore:        runStore,
		thresholds:      thresholds,
		now:             func() time.Time { return time.Now().UTC() },
	}
}

// WithClock sets a custom clock function for deterministic output.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// Generate builds the report of runID from stored assignments and metrics.
func (g *Generator) Generate(ctx context.Context, runID string) (*Report, error) {
	stored, err := g.assignmentStore.GetByRun(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("load assignments: %w", err)
	}
	assignments := make([]domain.SegmentAssignment, len(stored))
	for i, a := range stored {
		assignments[i] = *a
	}

	storedMetrics, err := g.metricsStore.GetByRun(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("load campaign metrics: %w", err)
	}
	campaigns := make([]domain.CampaignMetrics, len(storedMetrics))
	for i, m := range storedMetrics {
		campaigns[i] = *m
	}

	r := Build(runID, assignments, campaigns, g.thresholds)
	r.GeneratedAt = g.now()

	if g.runStore != nil {
		run, err := g.runStore.GetByID(ctx, runID)
		switch {
		case err == nil:
			r.WindowStart = run.WindowStart
			r.WindowEnd = run.WindowEnd
			r.Anonymized = run.Anonymized
			r.NoiseApplied = run.NoiseApplied
		case errors.Is(err, storage.ErrNotFound):
		default:
			return nil, fmt.Errorf("load run: %w", err)
		}
	}

	return r, nil
}

// Build assembles a report from one run's assignments and campaign metrics.
// Window, privacy flags and data quality are left for the caller to fill.
func Build(runID string, assignments []domain.SegmentAssignment, campaigns []domain.CampaignMetrics, thresholds config.Thresholds) *Report {
	r := &Report{
		RunID:     runID,
		Segments:  segmentation.Summarize(assignments),
		Campaigns: campaigns,
		Ranked:    metrics.Rank(campaigns),
		Flags:     metrics.Flag(campaigns, thresholds),
		Channels:  metrics.RevenueByChannel(campaigns),
	}
	r.Distribution = distributionRows(assignments)
	r.Summary = executiveSummary(assignments, r.Segments, campaigns)
	return r
}

func distributionRows(assignments []domain.SegmentAssignment) []DistributionRow {
	counts := segmentation.Distribution(assignments)
	rows := make([]DistributionRow, 0, len(domain.AllSegments))
	for _, seg := range domain.AllSegments {
		row := DistributionRow{Segment: seg, Customers: counts[seg]}
		if len(assignments) > 0 {
			row.Share = float64(row.Customers) / float64(len(assignments))
		}
		rows = append(rows, row)
	}
	return rows
}

func executiveSummary(assignments []domain.SegmentAssignment, segments []segmentation.SegmentSummary, campaigns []domain.CampaignMetrics) ExecutiveSummary {
	s := ExecutiveSummary{
		TotalCustomers: len(assignments),
		SegmentCount:   len(segments),
	}
	for _, m := range campaigns {
		s.TotalRevenue += m.Revenue
	}
	if s.TotalCustomers > 0 {
		s.AverageCustomerValue = s.TotalRevenue / float64(s.TotalCustomers)
	}
	if best, worst, ok := metrics.BestAndWorst(campaigns); ok {
		s.BestCampaign, s.BestROI = best.CampaignID, best.ROI
		s.WorstCampaign, s.WorstROI = worst.CampaignID, worst.ROI
	}
	return s
}

// WriteFiles writes the markdown report and both CSV exports into dir.
// CSV exports are aggregates and contain no customer identifiers.
func WriteFiles(dir string, r *Report) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	files := []struct {
		name    string
		content func() (string, error)
	}{
		{ReportFile, func() (string, error) { return RenderMarkdown(r), nil }},
		{SegmentSummaryFile, func() (string, error) { return RenderSegmentSummaryCSV(r.Segments) }},
		{CampaignMetricsFile, func() (string, error) { return RenderCampaignCSV(r.Campaigns) }},
	}

	for _, f := range files {
		content, err := f.content()
		if err != nil {
			return fmt.Errorf("render %s: %w", f.name, err)
		}
		if err := os.WriteFile(filepath.Join(dir, f.name), []byte(content), 0644); err != nil {
			return err
		}
	}
	return nil
}
