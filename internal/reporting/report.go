package reporting

import (
	"time"

	"segment-lab/internal/domain"
	"segment-lab/internal/metrics"
	"segment-lab/internal/segmentation"
)

// Report represents one analysis run's segmentation and campaign report.
type Report struct {
	// Metadata
	GeneratedAt  time.Time
	RunID        string
	WindowStart  time.Time
	WindowEnd    time.Time
	Anonymized   bool
	NoiseApplied bool

	// Executive summary
	Summary ExecutiveSummary

	// Data Quality (sufficiency checks)
	DataQuality DataQualitySection

	// Segments in report order, with per-segment counts including empty segments
	Segments     []segmentation.SegmentSummary
	Distribution []DistributionRow

	// Campaigns sorted by campaign_id, ranked by ROI
	Campaigns []domain.CampaignMetrics
	Ranked    []domain.CampaignMetrics
	Flags     []domain.CampaignFlag
	Channels  []metrics.ChannelRevenue
}

// ExecutiveSummary holds the headline numbers.
type ExecutiveSummary struct {
	TotalRevenue         float64
	TotalCustomers       int
	AverageCustomerValue float64
	SegmentCount         int
	BestCampaign         string
	BestROI              float64
	WorstCampaign        string
	WorstROI             float64
}

// DistributionRow is the share of customers in one segment.
type DistributionRow struct {
	Segment   domain.Segment
	Customers int
	Share     float64 // fraction of scored customers, 0 if none
}

// DataQualitySection contains data sufficiency checks and integrity errors.
type DataQualitySection struct {
	SufficiencyChecks []SufficiencyCheckRow
	IntegrityErrors   []string
	AllChecksPassed   bool
}

// SufficiencyCheckRow represents one sufficiency criterion.
type SufficiencyCheckRow struct {
	Name      string
	Threshold string
	Actual    string
	Pass      bool
}
