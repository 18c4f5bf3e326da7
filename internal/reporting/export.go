package reporting

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// ExportJSON writes data as indented JSON to filename, creating parent directories.
func ExportJSON(filename string, data interface{}) error {
	if err := os.MkdirAll(filepath.Dir(filename), 0755); err != nil {
		return fmt.Errorf("failed to create folder: %w", err)
	}

	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(data); err != nil {
		return fmt.Errorf("failed to write JSON: %w", err)
	}
	return nil
}

// TimestampedFilename returns baseDir/name_YYYYMMDD_HHMMSS.json for t.
func TimestampedFilename(baseDir, name string, t time.Time) string {
	return filepath.Join(baseDir, fmt.Sprintf("%s_%s.json", name, t.Format("20060102_150405")))
}

// JSONReport is the machine-readable form of a Report.
type JSONReport struct {
	RunID       string             `json:"run_id"`
	GeneratedAt time.Time          `json:"generated_at"`
	WindowStart string             `json:"window_start,omitempty"`
	WindowEnd   string             `json:"window_end,omitempty"`
	Summary     JSONSummary        `json:"summary"`
	Segments    []JSONSegment      `json:"segments"`
	Campaigns   []JSONCampaign     `json:"campaigns"`
	Flags       []JSONCampaignFlag `json:"flags"`
	DataQuality []string           `json:"integrity_errors,omitempty"`
}

// JSONSummary mirrors ExecutiveSummary.
type JSONSummary struct {
	TotalRevenue         float64 `json:"total_revenue"`
	TotalCustomers       int     `json:"total_customers"`
	AverageCustomerValue float64 `json:"average_customer_value"`
	SegmentCount         int     `json:"segment_count"`
	BestCampaign         string  `json:"best_campaign,omitempty"`
	WorstCampaign        string  `json:"worst_campaign,omitempty"`
}

// JSONSegment is one segment summary row.
type JSONSegment struct {
	Segment       string  `json:"segment"`
	Customers     int     `json:"customers"`
	MonetarySum   float64 `json:"monetary_sum"`
	MonetaryMean  float64 `json:"monetary_mean"`
	RecencyMean   float64 `json:"recency_mean"`
	FrequencyMean float64 `json:"frequency_mean"`
}

// JSONCampaign is one campaign metrics row. CPA is null without conversions.
type JSONCampaign struct {
	CampaignID     string   `json:"campaign_id"`
	Name           string   `json:"name"`
	Channel        string   `json:"channel"`
	Cost           float64  `json:"cost"`
	Reach          int      `json:"reach"`
	Conversions    int      `json:"conversions"`
	Revenue        float64  `json:"revenue"`
	ConversionRate float64  `json:"conversion_rate"`
	ROI            float64  `json:"roi"`
	CPA            *float64 `json:"cpa"`
}

// JSONCampaignFlag is one flagged campaign.
type JSONCampaignFlag struct {
	CampaignID string  `json:"campaign_id"`
	Reason     string  `json:"reason"`
	Value      float64 `json:"value"`
	Threshold  float64 `json:"threshold"`
}

// ToJSON converts a Report into its JSON form.
func ToJSON(r *Report) JSONReport {
	out := JSONReport{
		RunID:       r.RunID,
		GeneratedAt: r.GeneratedAt,
		Summary: JSONSummary{
			TotalRevenue:         r.Summary.TotalRevenue,
			TotalCustomers:       r.Summary.TotalCustomers,
			AverageCustomerValue: r.Summary.AverageCustomerValue,
			SegmentCount:         r.Summary.SegmentCount,
			BestCampaign:         r.Summary.BestCampaign,
			WorstCampaign:        r.Summary.WorstCampaign,
		},
		Segments:    make([]JSONSegment, 0, len(r.Segments)),
		Campaigns:   make([]JSONCampaign, 0, len(r.Campaigns)),
		Flags:       make([]JSONCampaignFlag, 0, len(r.Flags)),
		DataQuality: r.DataQuality.IntegrityErrors,
	}
	if !r.WindowEnd.IsZero() {
		out.WindowStart = formatDate(r.WindowStart)
		out.WindowEnd = formatDate(r.WindowEnd)
	}

	for _, s := range r.Segments {
		out.Segments = append(out.Segments, JSONSegment{
			Segment:       s.Segment.String(),
			Customers:     s.Customers,
			MonetarySum:   s.MonetarySum,
			MonetaryMean:  s.MonetaryMean,
			RecencyMean:   s.RecencyMean,
			FrequencyMean: s.FrequencyMean,
		})
	}
	for _, m := range r.Campaigns {
		row := JSONCampaign{
			CampaignID:     m.CampaignID,
			Name:           m.Name,
			Channel:        m.Channel.String(),
			Cost:           m.Cost,
			Reach:          m.Reach,
			Conversions:    m.Conversions,
			Revenue:        m.Revenue,
			ConversionRate: m.ConversionRate,
			ROI:            m.ROI,
		}
		if m.CPADefined {
			cpa := m.CPA
			row.CPA = &cpa
		}
		out.Campaigns = append(out.Campaigns, row)
	}
	for _, f := range r.Flags {
		out.Flags = append(out.Flags, JSONCampaignFlag(f))
	}
	return out
}
