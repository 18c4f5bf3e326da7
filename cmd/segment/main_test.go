package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	log "github.com/sirupsen/logrus"

	"segment-lab/internal/config"
	"segment-lab/internal/metrics"
	"segment-lab/internal/pipeline"
	"segment-lab/internal/reporting"
	"segment-lab/internal/rfm"
	"segment-lab/internal/storage"
	"segment-lab/internal/storage/memory"
)

func TestRun_Fixtures(t *testing.T) {
	dir := t.TempDir()
	opts := options{
		useFixtures:      true,
		fixtureCustomers: 200,
		workers:          2,
		outputDir:        dir,
		outputJSON:       true,
		metricsFile:      filepath.Join(dir, "segment.prom"),
	}

	require.NoError(t, run(context.Background(), opts))

	for _, name := range []string{reporting.ReportFile, reporting.SegmentSummaryFile, reporting.CampaignMetricsFile} {
		_, err := os.Stat(filepath.Join(dir, name))
		assert.NoError(t, err, name)
	}

	jsonFiles, err := filepath.Glob(filepath.Join(dir, "segment_report_*.json"))
	require.NoError(t, err)
	assert.Len(t, jsonFiles, 1)

	prom, err := os.ReadFile(opts.metricsFile)
	require.NoError(t, err)
	assert.Contains(t, string(prom), "segment_lab_runs_total")

	md, err := os.ReadFile(filepath.Join(dir, reporting.ReportFile))
	require.NoError(t, err)
	assert.Contains(t, string(md), "## Segment Distribution")
	assert.False(t, strings.Contains(string(md), "CUST_0001"), "report leaks raw customer IDs")
}

func TestRun_RequiresPostgresWithoutFixtures(t *testing.T) {
	t.Setenv("POSTGRES_DSN", "")
	err := run(context.Background(), options{outputDir: t.TempDir()})
	assert.ErrorIs(t, err, config.ErrInvalidConfig)
	assert.Equal(t, exitConfig, exitCode(err))
}

func TestRun_InvalidWindowFlag(t *testing.T) {
	err := run(context.Background(), options{useFixtures: true, start: "2023-13-01", outputDir: t.TempDir()})
	assert.ErrorIs(t, err, config.ErrInvalidConfig)
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("wrap: %w", config.ErrInvalidConfig), exitConfig},
		{fmt.Errorf("wrap: %w", metrics.ErrInvalidCampaignCost), exitConfig},
		{fmt.Errorf("campaign metrics: %w", metrics.ErrUnknownCampaign), exitIntegrity},
		{fmt.Errorf("compute rfm: %w", rfm.ErrTransactionAfterWindow), exitIntegrity},
		{os.ErrPermission, exitError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, exitCode(tt.err), tt.err.Error())
	}
}

func TestApplyFlags(t *testing.T) {
	file := &config.File{}
	file.Storage.PostgresDSN = "postgres://from-env"

	applyFlags(file, options{start: "2023-06-01", end: "2023-12-31", redisAddr: "localhost:6379"})

	assert.Equal(t, "2023-06-01", file.Analysis.StartDate)
	assert.Equal(t, "2023-12-31", file.Analysis.EndDate)
	assert.Equal(t, "postgres://from-env", file.Storage.PostgresDSN)
	assert.Equal(t, "localhost:6379", file.Storage.RedisAddr)
}

func TestRegenerate_LatestRun(t *testing.T) {
	ctx := context.Background()
	txs := memory.NewTransactionStore()
	campaigns := memory.NewCampaignStore()
	ds := pipeline.GenerateFixtures(pipeline.DefaultFixtureSeed, 150)
	require.NoError(t, pipeline.LoadFixtures(ctx, ds, txs, campaigns, memory.NewCustomerStore()))

	stores := pipeline.Stores{
		Transactions: txs,
		Campaigns:    campaigns,
		Assignments:  memory.NewSegmentAssignmentStore(),
		Metrics:      memory.NewCampaignMetricsStore(),
		Runs:         memory.NewRunStore(),
	}
	logger := log.New()
	logger.SetOutput(io.Discard)

	res, err := pipeline.NewAnalysis(stores, logger).Run(ctx, config.Default())
	require.NoError(t, err)

	dir := t.TempDir()
	require.NoError(t, regenerate(ctx, stores, config.Default().Thresholds, options{reportRun: "latest", outputDir: dir}))

	md, err := os.ReadFile(filepath.Join(dir, reporting.ReportFile))
	require.NoError(t, err)
	assert.Contains(t, string(md), res.RunID)
}

func TestRegenerate_NoRuns(t *testing.T) {
	stores := pipeline.Stores{
		Assignments: memory.NewSegmentAssignmentStore(),
		Metrics:     memory.NewCampaignMetricsStore(),
		Runs:        memory.NewRunStore(),
	}
	err := regenerate(context.Background(), stores, config.Thresholds{}, options{reportRun: "latest", outputDir: t.TempDir()})
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestRegenerate_RejectsRunWithLostMetrics(t *testing.T) {
	ctx := context.Background()
	txs := memory.NewTransactionStore()
	campaigns := memory.NewCampaignStore()
	ds := pipeline.GenerateFixtures(pipeline.DefaultFixtureSeed, 150)
	require.NoError(t, pipeline.LoadFixtures(ctx, ds, txs, campaigns, memory.NewCustomerStore()))

	stores := pipeline.Stores{
		Transactions: txs,
		Campaigns:    campaigns,
		Assignments:  memory.NewSegmentAssignmentStore(),
		Metrics:      memory.NewCampaignMetricsStore(),
		Runs:         memory.NewRunStore(),
	}
	logger := log.New()
	logger.SetOutput(io.Discard)

	res, err := pipeline.NewAnalysis(stores, logger).Run(ctx, config.Default())
	require.NoError(t, err)
	require.NotEmpty(t, res.Campaigns)

	// a later process that sees the runs but not the metrics they wrote
	stores.Metrics = memory.NewCampaignMetricsStore()

	err = regenerate(ctx, stores, config.Default().Thresholds, options{reportRun: res.RunID, outputDir: t.TempDir()})
	assert.ErrorIs(t, err, errIncompleteRun)
}

func TestRegenerate_UnknownRun(t *testing.T) {
	stores := pipeline.Stores{
		Assignments: memory.NewSegmentAssignmentStore(),
		Metrics:     memory.NewCampaignMetricsStore(),
		Runs:        memory.NewRunStore(),
	}
	err := regenerate(context.Background(), stores, config.Thresholds{}, options{reportRun: "run-404", outputDir: t.TempDir()})
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestRun_ReportRunRejectsFixtures(t *testing.T) {
	err := run(context.Background(), options{useFixtures: true, reportRun: "latest", outputDir: t.TempDir()})
	assert.ErrorIs(t, err, config.ErrInvalidConfig)
}
