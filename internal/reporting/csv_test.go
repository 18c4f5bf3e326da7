package reporting

import (
	"encoding/csv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"segment-lab/internal/domain"
	"segment-lab/internal/segmentation"
)

func TestRenderSegmentSummaryCSV(t *testing.T) {
	out, err := RenderSegmentSummaryCSV([]segmentation.SegmentSummary{
		{Segment: domain.SegmentLoyalCustomers, Customers: 3, MonetarySum: 1500, MonetaryMean: 500, RecencyMean: 60, FrequencyMean: 4.333333},
	})
	require.NoError(t, err)

	records, err := csv.NewReader(strings.NewReader(out)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, []string{"segment", "customer_count", "monetary_sum", "monetary_mean", "recency_mean", "frequency_mean"}, records[0])
	assert.Equal(t, []string{"Loyal Customers", "3", "1500.00", "500.00", "60.00", "4.33"}, records[1])
}

func TestRenderCampaignCSV(t *testing.T) {
	out, err := RenderCampaignCSV([]domain.CampaignMetrics{
		{CampaignID: "CAMP_001", Name: "Summer, Sale", Channel: domain.ChannelEmail, Cost: 1000,
			Reach: 3, Conversions: 4, Revenue: 4000, ConversionRate: 4.0 / 3.0, ROI: 3, CPA: 250, CPADefined: true},
		{CampaignID: "CAMP_009", Name: "Dormant", Channel: domain.ChannelReferral, Cost: 500},
	})
	require.NoError(t, err)

	records, err := csv.NewReader(strings.NewReader(out)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Len(t, records[0], 10)

	// Names with commas are quoted, not split
	assert.Equal(t, "Summer, Sale", records[1][1])
	assert.Equal(t, "1.333333", records[1][7])
	assert.Equal(t, "250.00", records[1][9])

	// Undefined CPA is an empty cell
	assert.Equal(t, "", records[2][9])
}
