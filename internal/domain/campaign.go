package domain

// Campaign is static campaign metadata.
// Corresponds to campaigns table in PostgreSQL.
type Campaign struct {
	CampaignID string
	Name       string
	Channel    Channel
	Cost       float64 // fixed cost, > 0
}

// CampaignMetrics holds attribution metrics for one campaign.
// Corresponds to campaign_metrics table in ClickHouse.
type CampaignMetrics struct {
	CampaignID string
	Name       string
	Channel    Channel
	Cost       float64

	Reach       int     // distinct customers
	Conversions int     // converted transactions
	Revenue     float64 // sum of purchase amounts

	ConversionRate float64 // conversions / reach, may exceed 1
	ROI            float64 // (revenue - cost) / cost
	CPA            float64 // cost / conversions
	CPADefined     bool    // false when conversions == 0
}

// CampaignFlag marks a campaign that breaches a performance threshold.
type CampaignFlag struct {
	CampaignID string
	Reason     string
	Value      float64
	Threshold  float64
}

// Flag reasons.
const (
	FlagLowConversionRate = "LOW_CONVERSION_RATE"
	FlagHighCPA           = "HIGH_CPA"
)
