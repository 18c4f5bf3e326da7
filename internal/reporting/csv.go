package reporting

import (
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"

	"segment-lab/internal/domain"
	"segment-lab/internal/segmentation"
)

func formatFloat(v float64, prec int) string {
	return strconv.FormatFloat(v, 'f', prec, 64)
}

// RenderSegmentSummaryCSV renders per-segment aggregates as CSV string.
func RenderSegmentSummaryCSV(segments []segmentation.SegmentSummary) (string, error) {
	var sb strings.Builder
	w := csv.NewWriter(&sb)

	if err := w.Write([]string{
		"segment", "customer_count", "monetary_sum", "monetary_mean", "recency_mean", "frequency_mean",
	}); err != nil {
		return "", err
	}

	for _, s := range segments {
		if err := w.Write([]string{
			s.Segment.String(),
			strconv.Itoa(s.Customers),
			formatFloat(s.MonetarySum, 2),
			formatFloat(s.MonetaryMean, 2),
			formatFloat(s.RecencyMean, 2),
			formatFloat(s.FrequencyMean, 2),
		}); err != nil {
			return "", err
		}
	}

	w.Flush()
	return sb.String(), w.Error()
}

// RenderCampaignCSV renders campaign metrics as CSV string.
// cpa is left empty for a campaign without conversions.
func RenderCampaignCSV(campaigns []domain.CampaignMetrics) (string, error) {
	var sb strings.Builder
	w := csv.NewWriter(&sb)

	if err := w.Write([]string{
		"campaign_id", "name", "channel", "cost", "reach", "conversions", "revenue",
		"conversion_rate", "roi", "cpa",
	}); err != nil {
		return "", err
	}

	for _, m := range campaigns {
		cpa := ""
		if m.CPADefined {
			cpa = formatFloat(m.CPA, 2)
		}
		if err := w.Write([]string{
			m.CampaignID,
			m.Name,
			m.Channel.String(),
			formatFloat(m.Cost, 2),
			strconv.Itoa(m.Reach),
			strconv.Itoa(m.Conversions),
			formatFloat(m.Revenue, 2),
			formatFloat(m.ConversionRate, 6),
			formatFloat(m.ROI, 6),
			cpa,
		}); err != nil {
			return "", fmt.Errorf("campaign %s: %w", m.CampaignID, err)
		}
	}

	w.Flush()
	return sb.String(), w.Error()
}
