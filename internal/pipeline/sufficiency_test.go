package pipeline

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"segment-lab/internal/config"
	"segment-lab/internal/domain"
	"segment-lab/internal/storage/memory"
)

func TestSufficiencyChecker_FixtureRunPasses(t *testing.T) {
	env := setupEnv(t, 300)
	logger, _ := quietLogger()
	ctx := context.Background()

	res, err := NewAnalysis(env.stores, logger).Run(ctx, config.Default())
	require.NoError(t, err)

	result, err := NewSufficiencyChecker(env.stores.Campaigns, env.customers).Check(ctx, res)
	require.NoError(t, err)

	require.Len(t, result.Checks, 5)
	for _, c := range result.Checks {
		assert.True(t, c.Pass, "check %q failed: %s", c.Name, c.Actual)
	}
	assert.True(t, result.AllPass)
	assert.Empty(t, result.Errors)
}

func TestSufficiencyChecker_Failures(t *testing.T) {
	ctx := context.Background()
	campaigns := memory.NewCampaignStore()
	for _, c := range DefaultCampaigns() {
		require.NoError(t, campaigns.Insert(ctx, &c))
	}

	res := &Result{
		Assignments:     make([]domain.SegmentAssignment, 3),
		Distribution:    map[domain.Segment]int{domain.SegmentNeedAttention: 3},
		Campaigns:       []domain.CampaignMetrics{{CampaignID: "CAMP_001"}},
		IntegrityErrors: []string{"missing campaign X referenced by 1 transaction(s)"},
	}

	result, err := NewSufficiencyChecker(campaigns, nil).Check(ctx, res)
	require.NoError(t, err)

	assert.False(t, result.AllPass)
	require.Len(t, result.Checks, 4)

	byName := make(map[string]SufficiencyCheck)
	for _, c := range result.Checks {
		byName[c.Name] = c
	}
	assert.False(t, byName["Scored customers"].Pass)
	assert.False(t, byName["Populated segments"].Pass)
	assert.Equal(t, "1", byName["Campaigns with transactions"].Actual)
	assert.False(t, byName["Integrity errors"].Pass)
	assert.Equal(t, res.IntegrityErrors, result.Errors)
}
