package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"segment-lab/internal/domain"
	"segment-lab/internal/storage"
)

func TestCampaignMetricsStore_RoundTrip(t *testing.T) {
	pool := newTestPool(t)

	store := NewCampaignMetricsStore(pool)
	ctx := context.Background()

	in := []*domain.CampaignMetrics{
		{
			CampaignID: "CAMP_002", Name: "Black Friday", Channel: domain.ChannelSocialMedia, Cost: 5000,
			Reach: 35, Conversions: 40, Revenue: 8000,
			ConversionRate: 40.0 / 35.0, ROI: 0.6, CPA: 125, CPADefined: true,
		},
		{
			CampaignID: "CAMP_001", Name: "Summer Sale", Channel: domain.ChannelEmail, Cost: 1000,
			Reach: 3, Conversions: 0, Revenue: 300, ROI: -0.7,
		},
	}
	require.NoError(t, store.InsertBulk(ctx, "run-1", in))

	got, err := store.GetByRun(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, *in[1], *got[0])
	assert.Equal(t, *in[0], *got[1])
	assert.False(t, got[0].CPADefined, "NULL cpa reads back as undefined")

	// (run_id, campaign_id) is unique
	assert.ErrorIs(t, store.InsertBulk(ctx, "run-1", in[:1]), storage.ErrDuplicateKey)

	// the whole batch fails on a repeated campaign
	assert.ErrorIs(t, store.InsertBulk(ctx, "run-2", []*domain.CampaignMetrics{in[0], in[0]}), storage.ErrDuplicateKey)
	empty, err := store.GetByRun(ctx, "run-2")
	require.NoError(t, err)
	assert.Empty(t, empty)

	bad := *in[0]
	bad.Cost = 0
	assert.ErrorIs(t, store.InsertBulk(ctx, "run-3", []*domain.CampaignMetrics{&bad}), storage.ErrInvalidInput)
}

func TestSegmentAssignmentStore_RoundTrip(t *testing.T) {
	pool := newTestPool(t)

	store := NewSegmentAssignmentStore(pool)
	ctx := context.Background()

	in := []*domain.SegmentAssignment{
		{CustomerID: "CUST_b", RScore: 1, FScore: 1, MScore: 2, Key: "112", Segment: domain.SegmentLostCustomers, Recency: 300, Frequency: 1, Monetary: 150},
		{CustomerID: "CUST_a", RScore: 3, FScore: 3, MScore: 3, Key: "333", Segment: domain.SegmentChampions, Recency: 5, Frequency: 12, Monetary: 4200.5},
	}
	require.NoError(t, store.InsertBulk(ctx, "run-1", in))
	require.NoError(t, store.InsertBulk(ctx, "run-2", in[:1]))

	got, err := store.GetByRun(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, *in[1], *got[0])
	assert.Equal(t, *in[0], *got[1])

	// (run_id, customer_id) is unique
	assert.ErrorIs(t, store.InsertBulk(ctx, "run-2", in), storage.ErrDuplicateKey)

	other, err := store.GetByRun(ctx, "run-2")
	require.NoError(t, err)
	assert.Len(t, other, 1)

	empty, err := store.GetByRun(ctx, "run-404")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestRunStore(t *testing.T) {
	pool := newTestPool(t)

	store := NewRunStore(pool)
	ctx := context.Background()

	_, err := store.GetLatest(ctx)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	first := &domain.AnalysisRun{
		RunID:        "run-1",
		WindowStart:  day(2023, 1, 1),
		WindowEnd:    day(2024, 1, 1),
		StartedAt:    time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC),
		Anonymized:   true,
		NoiseApplied: true,
		Transactions: 3000,
		Customers:    950,
		Campaigns:    8,
	}
	second := &domain.AnalysisRun{
		RunID:     "run-2",
		WindowEnd: day(2023, 12, 31),
		StartedAt: time.Date(2024, 1, 2, 11, 0, 0, 0, time.UTC),
	}
	require.NoError(t, store.Insert(ctx, first))
	require.NoError(t, store.Insert(ctx, second))
	assert.ErrorIs(t, store.Insert(ctx, first), storage.ErrDuplicateKey)

	got, err := store.GetByID(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, *first, *got)

	latest, err := store.GetLatest(ctx)
	require.NoError(t, err)
	assert.Equal(t, "run-2", latest.RunID)
	assert.True(t, latest.WindowStart.IsZero())

	_, err = store.GetByID(ctx, "run-404")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}
