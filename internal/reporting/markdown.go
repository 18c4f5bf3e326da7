package reporting

import (
	"fmt"
	"strings"
	"time"
)

// RenderMarkdown renders report as Markdown string.
func RenderMarkdown(r *Report) string {
	var sb strings.Builder

	// Header
	sb.WriteString("# Customer Segmentation Report\n\n")
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339)))
	sb.WriteString(fmt.Sprintf("Run: %s\n\n", r.RunID))
	if !r.WindowEnd.IsZero() {
		sb.WriteString(fmt.Sprintf("Analysis window: %s to %s\n\n",
			formatDate(r.WindowStart), formatDate(r.WindowEnd)))
	}
	sb.WriteString(fmt.Sprintf("Pseudonymized IDs: %s | Amount noise: %s\n\n", yesNo(r.Anonymized), yesNo(r.NoiseApplied)))

	// Executive Summary
	s := r.Summary
	sb.WriteString("## Executive Summary\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Total Revenue | %.2f |\n", s.TotalRevenue))
	sb.WriteString(fmt.Sprintf("| Total Customers | %d |\n", s.TotalCustomers))
	sb.WriteString(fmt.Sprintf("| Average Customer Value | %.2f |\n", s.AverageCustomerValue))
	sb.WriteString(fmt.Sprintf("| Segments | %d |\n", s.SegmentCount))
	if s.BestCampaign != "" {
		sb.WriteString(fmt.Sprintf("| Best Campaign (ROI) | %s (%.2f) |\n", s.BestCampaign, s.BestROI))
		sb.WriteString(fmt.Sprintf("| Worst Campaign (ROI) | %s (%.2f) |\n", s.WorstCampaign, s.WorstROI))
	}
	sb.WriteString("\n")

	// Data Quality
	sb.WriteString("## Data Quality\n\n")
	if len(r.DataQuality.SufficiencyChecks) > 0 {
		sb.WriteString("| Check | Threshold | Actual | Status |\n")
		sb.WriteString("|-------|-----------|--------|--------|\n")
		for _, check := range r.DataQuality.SufficiencyChecks {
			status := "FAIL"
			if check.Pass {
				status = "PASS"
			}
			sb.WriteString(fmt.Sprintf("| %s | %s | %s | %s |\n",
				check.Name, check.Threshold, check.Actual, status))
		}
		sb.WriteString("\n")

		if r.DataQuality.AllChecksPassed {
			sb.WriteString("**All checks passed.**\n\n")
		} else {
			sb.WriteString("**Some checks failed.** Treat segment sizes and campaign ranking as indicative only.\n\n")
		}
	} else if len(r.DataQuality.IntegrityErrors) == 0 {
		sb.WriteString("No data quality checks performed.\n\n")
	}

	// Integrity errors (always shown if present, even without sufficiency checks)
	if len(r.DataQuality.IntegrityErrors) > 0 {
		sb.WriteString("### Integrity Errors\n\n")
		for _, err := range r.DataQuality.IntegrityErrors {
			sb.WriteString(fmt.Sprintf("- %s\n", err))
		}
		sb.WriteString("\n")
	}

	// Segment Distribution
	sb.WriteString("## Segment Distribution\n\n")
	if s.TotalCustomers > 0 {
		sb.WriteString("| Segment | Customers | Share |\n")
		sb.WriteString("|---------|-----------|-------|\n")
		for _, d := range r.Distribution {
			sb.WriteString(fmt.Sprintf("| %s | %d | %.1f%% |\n", d.Segment, d.Customers, d.Share*100))
		}
	} else {
		sb.WriteString("No customers scored.\n")
	}
	sb.WriteString("\n")

	// Segment Summary
	sb.WriteString("## Segment Summary\n\n")
	if len(r.Segments) > 0 {
		sb.WriteString("| Segment | Customers | Monetary Sum | Monetary Mean | Recency Mean | Frequency Mean |\n")
		sb.WriteString("|---------|-----------|--------------|---------------|--------------|----------------|\n")
		for _, seg := range r.Segments {
			sb.WriteString(fmt.Sprintf("| %s | %d | %.2f | %.2f | %.1f | %.2f |\n",
				seg.Segment, seg.Customers, seg.MonetarySum, seg.MonetaryMean, seg.RecencyMean, seg.FrequencyMean))
		}
	} else {
		sb.WriteString("No segment data available.\n")
	}
	sb.WriteString("\n")

	// Campaign Performance (ranked)
	sb.WriteString("## Campaign Performance\n\n")
	if len(r.Ranked) > 0 {
		sb.WriteString("| Rank | Campaign | Name | Channel | Cost | Reach | Conversions | Revenue | Conv. Rate | ROI | CPA |\n")
		sb.WriteString("|------|----------|------|---------|------|-------|-------------|---------|------------|-----|-----|\n")
		for i, m := range r.Ranked {
			cpa := "n/a"
			if m.CPADefined {
				cpa = fmt.Sprintf("%.2f", m.CPA)
			}
			sb.WriteString(fmt.Sprintf("| %d | %s | %s | %s | %.2f | %d | %d | %.2f | %.4f | %.4f | %s |\n",
				i+1, m.CampaignID, m.Name, m.Channel, m.Cost, m.Reach, m.Conversions, m.Revenue,
				m.ConversionRate, m.ROI, cpa))
		}
	} else {
		sb.WriteString("No campaign metrics available.\n")
	}
	sb.WriteString("\n")

	// Flagged campaigns
	sb.WriteString("## Flagged Campaigns\n\n")
	if len(r.Flags) > 0 {
		sb.WriteString("| Campaign | Reason | Value | Threshold |\n")
		sb.WriteString("|----------|--------|-------|-----------|\n")
		for _, f := range r.Flags {
			sb.WriteString(fmt.Sprintf("| %s | %s | %.4f | %.4f |\n", f.CampaignID, f.Reason, f.Value, f.Threshold))
		}
	} else {
		sb.WriteString("No campaigns flagged.\n")
	}
	sb.WriteString("\n")

	// Channel revenue
	sb.WriteString("## Revenue by Channel\n\n")
	if len(r.Channels) > 0 {
		sb.WriteString("| Channel | Campaigns | Revenue |\n")
		sb.WriteString("|---------|-----------|---------|\n")
		for _, c := range r.Channels {
			sb.WriteString(fmt.Sprintf("| %s | %d | %.2f |\n", c.Channel, c.Campaigns, c.Revenue))
		}
	} else {
		sb.WriteString("No channel data available.\n")
	}
	sb.WriteString("\n")

	return sb.String()
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format(time.DateOnly)
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
