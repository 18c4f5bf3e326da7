package pipeline

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"segment-lab/internal/config"
	"segment-lab/internal/domain"
	"segment-lab/internal/metrics"
	"segment-lab/internal/observability"
	"segment-lab/internal/storage/memory"
)

type testEnv struct {
	stores    Stores
	txs       *memory.TransactionStore
	customers *memory.CustomerStore
	dataset   Dataset
}

func setupEnv(t *testing.T, customers int) *testEnv {
	t.Helper()
	txs := memory.NewTransactionStore()
	env := &testEnv{
		stores: Stores{
			Transactions: txs,
			Campaigns:    memory.NewCampaignStore(),
			Assignments:  memory.NewSegmentAssignmentStore(),
			Metrics:      memory.NewCampaignMetricsStore(),
			Runs:         memory.NewRunStore(),
		},
		txs:       txs,
		customers: memory.NewCustomerStore(),
		dataset:   GenerateFixtures(DefaultFixtureSeed, customers),
	}
	require.NoError(t, LoadFixtures(context.Background(), env.dataset,
		env.txs, env.stores.Campaigns, env.customers))
	return env
}

func quietLogger() (*log.Logger, *logtest.Hook) {
	logger, hook := logtest.NewNullLogger()
	logger.SetLevel(log.DebugLevel)
	return logger, hook
}

func fixedClock() time.Time {
	return time.Date(2024, 1, 2, 12, 0, 0, 0, time.UTC)
}

func TestAnalysis_RunOnFixtures(t *testing.T) {
	env := setupEnv(t, 200)
	logger, _ := quietLogger()
	ctx := context.Background()

	res, err := NewAnalysis(env.stores, logger).WithClock(fixedClock).Run(ctx, config.Default())
	require.NoError(t, err)

	// One assignment per distinct customer in the window
	distinct := make(map[string]struct{})
	for _, tx := range env.dataset.Transactions {
		distinct[tx.CustomerID] = struct{}{}
	}
	assert.Len(t, res.Assignments, len(distinct))
	assert.Equal(t, len(env.dataset.Transactions), res.Transactions)
	assert.True(t, res.Anonymized)
	assert.True(t, res.NoiseApplied)

	for _, a := range res.Assignments {
		assert.True(t, strings.HasPrefix(a.CustomerID, "CUST_"))
		assert.Len(t, a.CustomerID, 21)
		assert.Equal(t, a.Segment, segmentFor(a.Key))
	}

	// Campaign metrics come from raw data, so revenue matches the fixture exactly
	rawRevenue := 0.0
	for _, tx := range env.dataset.Transactions {
		rawRevenue += tx.Amount
	}
	assert.InDelta(t, rawRevenue, res.Totals.TotalRevenue, 1e-6)
	assert.Len(t, res.Campaigns, 8)
	assert.Equal(t, res.Ranked[0].CampaignID, res.Totals.BestCampaign)
	assert.Equal(t, res.Ranked[len(res.Ranked)-1].CampaignID, res.Totals.WorstCampaign)
	assert.InDelta(t, res.Totals.TotalRevenue/float64(len(res.Assignments)), res.Totals.AverageCustomerValue, 1e-9)

	// Persisted under the run ID
	stored, err := env.stores.Assignments.GetByRun(ctx, res.RunID)
	require.NoError(t, err)
	assert.Len(t, stored, len(res.Assignments))

	storedMetrics, err := env.stores.Metrics.GetByRun(ctx, res.RunID)
	require.NoError(t, err)
	assert.Len(t, storedMetrics, 8)

	run, err := env.stores.Runs.GetLatest(ctx)
	require.NoError(t, err)
	assert.Equal(t, res.RunID, run.RunID)
	assert.Equal(t, len(res.Assignments), run.Customers)
}

// segmentFor mirrors the lookup table independently of the classifier.
func segmentFor(key domain.ScoreKey) domain.Segment {
	table := map[domain.ScoreKey]domain.Segment{
		"333": domain.SegmentChampions, "323": domain.SegmentChampions, "313": domain.SegmentChampions,
		"233": domain.SegmentLoyalCustomers, "223": domain.SegmentLoyalCustomers,
		"133": domain.SegmentAtRisk, "123": domain.SegmentAtRisk,
		"111": domain.SegmentLostCustomers, "112": domain.SegmentLostCustomers,
	}
	if s, ok := table[key]; ok {
		return s
	}
	return domain.SegmentNeedAttention
}

func TestAnalysis_Deterministic(t *testing.T) {
	logger, _ := quietLogger()
	ctx := context.Background()

	var first []domain.SegmentAssignment
	for i := 0; i < 3; i++ {
		env := setupEnv(t, 150)
		res, err := NewAnalysis(env.stores, logger).Run(ctx, config.Default())
		require.NoError(t, err)
		if first == nil {
			first = res.Assignments
			continue
		}
		assert.Equal(t, first, res.Assignments, "run %d differs", i)
	}
}

func TestAnalysis_RawIdentifiersWithoutPrivacy(t *testing.T) {
	env := setupEnv(t, 50)
	logger, _ := quietLogger()

	cfg, err := config.Default().WithPrivacy(config.Privacy{})
	require.NoError(t, err)

	res, err := NewAnalysis(env.stores, logger).Run(context.Background(), cfg)
	require.NoError(t, err)
	assert.False(t, res.Anonymized)
	assert.False(t, res.NoiseApplied)
	assert.Equal(t, "CUST_0001", res.Assignments[0].CustomerID)
}

func TestAnalysis_NeverLogsCustomerIDs(t *testing.T) {
	env := setupEnv(t, 50)
	logger, hook := quietLogger()

	_, err := NewAnalysis(env.stores, logger).Run(context.Background(), config.Default())
	require.NoError(t, err)

	require.NotEmpty(t, hook.AllEntries())
	for _, entry := range hook.AllEntries() {
		line, err := entry.String()
		require.NoError(t, err)
		assert.NotContains(t, line, "CUST_0001")
	}
}

func TestAnalysis_UnknownCampaignIsIntegrityError(t *testing.T) {
	env := setupEnv(t, 20)
	logger, _ := quietLogger()
	ctx := context.Background()

	orphan := &domain.Transaction{
		TransactionID: "orphan",
		CustomerID:    "CUST_9999",
		CampaignID:    "CAMP_404",
		Amount:        25,
		PurchaseDate:  time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC),
		Converted:     true,
	}
	require.NoError(t, env.txs.InsertBulk(ctx, []*domain.Transaction{orphan}))

	res, err := NewAnalysis(env.stores, logger).Run(ctx, config.Default())
	require.Error(t, err)
	assert.ErrorIs(t, err, metrics.ErrUnknownCampaign)
	require.NotNil(t, res)
	assert.Equal(t, []string{"missing campaign CAMP_404 referenced by 1 transaction(s)"}, res.IntegrityErrors)
}

func TestAnalysis_TransactionAfterWindowEnd(t *testing.T) {
	env := setupEnv(t, 20)
	logger, _ := quietLogger()

	// End before some fixture purchases: the store window excludes them,
	// so the run succeeds on the truncated batch.
	cfg, err := config.Default().WithWindow(
		time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2023, 6, 30, 0, 0, 0, 0, time.UTC),
	)
	require.NoError(t, err)

	res, err := NewAnalysis(env.stores, logger).Run(context.Background(), cfg)
	require.NoError(t, err)
	for _, a := range res.Assignments {
		assert.GreaterOrEqual(t, a.Recency, 0)
	}
}

// growingReader appends one transaction to the backing store after every
// window read, so a second read would see a different batch.
type growingReader struct {
	*memory.TransactionStore
	reads int
}

func (r *growingReader) GetByWindow(ctx context.Context, start, end time.Time) ([]*domain.Transaction, error) {
	out, err := r.TransactionStore.GetByWindow(ctx, start, end)
	if err != nil {
		return nil, err
	}
	r.reads++
	late := &domain.Transaction{
		TransactionID: fmt.Sprintf("late-%d", r.reads),
		CustomerID:    fmt.Sprintf("CUST_LATE_%d", r.reads),
		CampaignID:    "CAMP_001",
		Amount:        1000,
		PurchaseDate:  time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC),
		Converted:     true,
	}
	return out, r.TransactionStore.InsertBulk(ctx, []*domain.Transaction{late})
}

func TestAnalysis_TablesShareOneSnapshot(t *testing.T) {
	env := setupEnv(t, 80)
	logger, _ := quietLogger()
	reader := &growingReader{TransactionStore: env.txs}
	env.stores.Transactions = reader

	cfg, err := config.Default().WithPrivacy(config.Privacy{})
	require.NoError(t, err)

	res, err := NewAnalysis(env.stores, logger).Run(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, 1, reader.reads)

	campaignRevenue, campaignConversions := 0.0, 0
	for _, c := range res.Campaigns {
		campaignRevenue += c.Revenue
		campaignConversions += c.Conversions
	}
	segmentRevenue, segmentFrequency := 0.0, 0
	for _, a := range res.Assignments {
		segmentRevenue += a.Monetary
		segmentFrequency += a.Frequency
	}
	assert.InDelta(t, campaignRevenue, segmentRevenue, 1e-6)
	assert.Equal(t, res.Transactions, segmentFrequency)
	assert.Equal(t, res.Transactions, campaignConversions)
}

func TestAnalysis_InvalidConfig(t *testing.T) {
	env := setupEnv(t, 5)
	logger, _ := quietLogger()

	cfg := config.Default()
	cfg.Boundaries.Recency = []float64{90, 30}

	_, err := NewAnalysis(env.stores, logger).Run(context.Background(), cfg)
	assert.ErrorIs(t, err, config.ErrInvalidConfig)
}

func TestAnalysis_MissingStores(t *testing.T) {
	_, err := NewAnalysis(Stores{}, nil).Run(context.Background(), config.Default())
	assert.ErrorIs(t, err, ErrMissingStore)
}

func TestAnalysis_ConcurrentRunsAreIsolated(t *testing.T) {
	env := setupEnv(t, 120)
	logger, _ := quietLogger()
	ctx := context.Background()

	analysis := NewAnalysis(env.stores, logger).WithWorkers(4)

	dynamic, err := config.Default().WithWindow(
		time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC),
	)
	require.NoError(t, err)
	dynamic, err = dynamic.WithBoundaries(
		[]float64{45, 120, 240},
		[]float64{2, 5, 15},
		[]float64{150, 750, 3000},
	)
	require.NoError(t, err)

	configs := []config.Config{config.Default(), dynamic, config.Default(), dynamic}
	results := make([]*Result, len(configs))

	var wg sync.WaitGroup
	for i, cfg := range configs {
		wg.Add(1)
		go func(i int, cfg config.Config) {
			defer wg.Done()
			res, err := analysis.Run(ctx, cfg)
			assert.NoError(t, err)
			results[i] = res
		}(i, cfg)
	}
	wg.Wait()

	ids := make(map[string]struct{})
	for _, r := range results {
		require.NotNil(t, r)
		ids[r.RunID] = struct{}{}
	}
	assert.Len(t, ids, len(configs), "every run gets its own ID")

	// Same config, same output, independent of interleaving
	assert.Equal(t, results[0].Assignments, results[2].Assignments)
	assert.Equal(t, results[1].Assignments, results[3].Assignments)
}

func TestAnalysis_WithRedisPseudonyms(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	env := setupEnv(t, 40)
	logger, _ := quietLogger()
	m := observability.NewMetrics("test")
	runID := uuid.MustParse("00000000-0000-0000-0000-000000000001")

	analysis := NewAnalysis(env.stores, logger).
		WithRedis(client, time.Minute).
		WithMetrics(m).
		WithRunIDs(func() uuid.UUID { return runID })

	res, err := analysis.Run(context.Background(), config.Default())
	require.NoError(t, err)

	// Same pseudonyms as the in-process cache
	local, err := NewAnalysis(setupEnv(t, 40).stores, logger).Run(context.Background(), config.Default())
	require.NoError(t, err)
	assert.Equal(t, local.Assignments, res.Assignments)

	// Mapping dropped at run end
	assert.False(t, mr.Exists("segment:pseudonyms:"+runID.String()))
	assert.Equal(t, float64(len(res.Assignments)), testutil.ToFloat64(m.PseudonymsIssued))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RunsTotal.WithLabelValues(observability.StatusSuccess)))
}
