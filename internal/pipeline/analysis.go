package pipeline

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"segment-lab/internal/config"
	"segment-lab/internal/domain"
	"segment-lab/internal/metrics"
	"segment-lab/internal/observability"
	"segment-lab/internal/privacy"
	"segment-lab/internal/rfm"
	"segment-lab/internal/segmentation"
	"segment-lab/internal/storage"
)

// ErrMissingStore is returned when a required store is not configured.
var ErrMissingStore = errors.New("required store not configured")

// Stores groups the stores an analysis run reads and writes.
// Transactions and Campaigns are required, the rest are optional.
type Stores struct {
	Transactions storage.TransactionReader
	Campaigns    storage.CampaignStore
	Assignments  storage.SegmentAssignmentStore
	Metrics      storage.CampaignMetricsStore
	Runs         storage.RunStore
}

// Totals are the headline numbers of a run.
type Totals struct {
	TotalRevenue         float64
	TotalCustomers       int
	AverageCustomerValue float64
	SegmentCount         int
	BestCampaign         string
	BestROI              float64
	WorstCampaign        string
	WorstROI             float64
}

// Result is the output of one analysis run.
type Result struct {
	RunID        string
	Config       config.Config
	StartedAt    time.Time
	Transactions int
	Anonymized   bool
	NoiseApplied bool

	Assignments  []domain.SegmentAssignment
	Summary      []segmentation.SegmentSummary
	Distribution map[domain.Segment]int

	Campaigns      []domain.CampaignMetrics
	Ranked         []domain.CampaignMetrics
	Flags          []domain.CampaignFlag
	ChannelRevenue []metrics.ChannelRevenue

	Totals          Totals
	IntegrityErrors []string
}

// Analysis runs the segmentation and campaign attribution engine over stored data.
// One Analysis may serve concurrent runs; every run gets its own run ID and
// pseudonym cache.
type Analysis struct {
	stores  Stores
	logger  log.FieldLogger
	metrics *observability.Metrics
	clock   func() time.Time
	newID   func() uuid.UUID
	workers int

	redis    redis.Cmdable
	redisTTL time.Duration
}

// NewAnalysis creates an analysis over the given stores.
func NewAnalysis(stores Stores, logger log.FieldLogger) *Analysis {
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &Analysis{
		stores:  stores,
		logger:  logger,
		clock:   func() time.Time { return time.Now().UTC() },
		newID:   uuid.New,
		workers: 1,
	}
}

// WithClock sets a custom clock function for deterministic output.
func (a *Analysis) WithClock(clock func() time.Time) *Analysis {
	a.clock = clock
	return a
}

// WithRunIDs sets the run ID generator.
func (a *Analysis) WithRunIDs(newID func() uuid.UUID) *Analysis {
	a.newID = newID
	return a
}

// WithWorkers sets the number of RFM partitions computed in parallel.
func (a *Analysis) WithWorkers(n int) *Analysis {
	if n < 1 {
		n = 1
	}
	a.workers = n
	return a
}

// WithMetrics enables Prometheus instrumentation.
func (a *Analysis) WithMetrics(m *observability.Metrics) *Analysis {
	a.metrics = m
	return a
}

// WithRedis shares each run's pseudonym mapping through Redis.
// Mappings are dropped when the run finishes and expire after ttl otherwise.
func (a *Analysis) WithRedis(client redis.Cmdable, ttl time.Duration) *Analysis {
	a.redis = client
	a.redisTTL = ttl
	return a
}

// Run executes one analysis:
//  1. campaign metrics on the raw window batch
//  2. privacy transform (pseudonyms, amount noise)
//  3. RFM, segmentation, summary
//  4. persistence of assignments, metrics and the run record
func (a *Analysis) Run(ctx context.Context, cfg config.Config) (*Result, error) {
	if a.stores.Transactions == nil || a.stores.Campaigns == nil {
		return nil, ErrMissingStore
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	started := a.clock()
	runID := a.newID()
	logCtx := a.logger.WithField("run_id", runID.String())

	res, err := a.run(ctx, logCtx, runID, cfg, started)
	if a.metrics != nil {
		status := observability.StatusSuccess
		if err != nil {
			status = observability.StatusError
		}
		a.metrics.RecordRun(status, a.clock().Unix())
	}
	if err != nil {
		logCtx.WithError(err).Error("analysis run failed")
		return res, err
	}

	logCtx.WithFields(log.Fields{
		"customers": res.Totals.TotalCustomers,
		"campaigns": len(res.Campaigns),
		"segments":  res.Totals.SegmentCount,
		"elapsed":   a.clock().Sub(started).String(),
	}).Info("analysis run complete")
	return res, nil
}

func (a *Analysis) run(ctx context.Context, logCtx log.FieldLogger, runID uuid.UUID, cfg config.Config, started time.Time) (*Result, error) {
	res := &Result{
		RunID:     runID.String(),
		Config:    cfg,
		StartedAt: started,
	}

	logCtx.WithFields(log.Fields{
		"window_start": cfg.Window.Start.Format(time.DateOnly),
		"window_end":   cfg.Window.End.Format(time.DateOnly),
		"anonymize":    cfg.Privacy.AnonymizeIDs,
		"noise":        cfg.Privacy.AddNoise,
	}).Info("starting analysis run")

	// 1. Load the window once; both tables are computed from this snapshot
	txs, err := a.loadWindow(ctx, cfg)
	if err != nil {
		return res, err
	}
	res.Transactions = len(txs)
	logCtx.WithField("transactions", len(txs)).Debug("loaded transaction window")

	// 2. Campaign metrics run on raw data: the roster join needs raw campaign IDs
	//    and noise must not distort attributed revenue.
	campaigns, err := a.campaignMetrics(ctx, res, txs)
	if err != nil {
		return res, err
	}
	res.Campaigns = campaigns
	res.Ranked = metrics.Rank(campaigns)
	res.Flags = metrics.Flag(campaigns, cfg.Thresholds)
	res.ChannelRevenue = metrics.RevenueByChannel(campaigns)
	for _, f := range res.Flags {
		logCtx.WithFields(log.Fields{
			"campaign_id": f.CampaignID,
			"reason":      f.Reason,
			"value":       f.Value,
		}).Warn("campaign below threshold")
	}

	// 3. Privacy transform
	txs, err = a.applyPrivacy(ctx, logCtx, res, runID, cfg, txs)
	if err != nil {
		return res, err
	}

	// 4. RFM + segmentation
	stageStart := time.Now()
	records, err := rfm.ComputeParallel(ctx, txs, cfg, a.workers)
	if err != nil {
		return res, fmt.Errorf("compute rfm: %w", err)
	}
	res.Assignments, err = segmentation.Classify(records, cfg)
	if err != nil {
		return res, fmt.Errorf("classify segments: %w", err)
	}
	res.Summary = segmentation.Summarize(res.Assignments)
	res.Distribution = segmentation.Distribution(res.Assignments)
	a.observeStage("segmentation", stageStart)

	res.Totals = computeTotals(res)

	// 5. Persist
	if err := a.persist(ctx, res); err != nil {
		return res, err
	}

	if a.metrics != nil {
		a.metrics.TransactionsProcessed.Add(float64(len(txs)))
		a.metrics.CustomersScored.Add(float64(len(res.Assignments)))
		a.metrics.CampaignsEvaluated.Add(float64(len(res.Campaigns)))
		for _, f := range res.Flags {
			a.metrics.CampaignsFlagged.WithLabelValues(f.Reason).Inc()
		}
		sizes := make(map[string]int, len(res.Distribution))
		for seg, n := range res.Distribution {
			sizes[seg.String()] = n
		}
		a.metrics.SetSegmentSizes(sizes)
	}

	return res, nil
}

func (a *Analysis) campaignMetrics(ctx context.Context, res *Result, txs []domain.Transaction) ([]domain.CampaignMetrics, error) {
	stageStart := time.Now()
	defer a.observeStage("campaign_metrics", stageStart)

	metricsStore := a.stores.Metrics
	agg := metrics.NewAggregator(nil, a.stores.Campaigns, metricsStore)

	var (
		campaigns []domain.CampaignMetrics
		err       error
	)
	if metricsStore != nil {
		campaigns, err = agg.ComputeBatchAndStore(ctx, res.RunID, txs)
	} else {
		campaigns, err = agg.ComputeBatch(ctx, txs)
	}
	res.IntegrityErrors = append(res.IntegrityErrors, agg.GetMissingCampaignErrors()...)

	switch {
	case errors.Is(err, metrics.ErrNoTransactions):
		// An empty window still produces an (empty) segment table.
		return nil, nil
	case err != nil:
		return nil, fmt.Errorf("campaign metrics: %w", err)
	}
	return campaigns, nil
}

func (a *Analysis) loadWindow(ctx context.Context, cfg config.Config) ([]domain.Transaction, error) {
	start := time.Now()
	stored, err := a.stores.Transactions.GetByWindow(ctx, cfg.Window.Start, cfg.Window.End)
	if a.metrics != nil {
		a.metrics.RecordStoreOp("transactions", "get_by_window", time.Since(start).Seconds(), err)
	}
	if err != nil {
		return nil, fmt.Errorf("load transactions: %w", err)
	}

	txs := make([]domain.Transaction, len(stored))
	for i, tx := range stored {
		txs[i] = *tx
	}
	return rfm.FilterWindow(txs, cfg), nil
}

func (a *Analysis) applyPrivacy(ctx context.Context, logCtx log.FieldLogger, res *Result, runID uuid.UUID, cfg config.Config, txs []domain.Transaction) ([]domain.Transaction, error) {
	p := cfg.Privacy
	stageStart := time.Now()
	defer a.observeStage("privacy", stageStart)

	if p.AnonymizeIDs {
		anonymizer, issued, release := a.newAnonymizer(ctx, logCtx, runID, p)
		defer release()

		out, err := privacy.AnonymizeTransactions(ctx, txs, anonymizer)
		if err != nil {
			return nil, fmt.Errorf("anonymize: %w", err)
		}
		txs = out
		res.Anonymized = true

		n := issued()
		if a.metrics != nil {
			a.metrics.PseudonymsIssued.Add(float64(n))
		}
		logCtx.WithField("pseudonyms", n).Debug("customer identifiers pseudonymized")
	}

	if p.AddNoise && p.NoiseLevel > 0 {
		rng := rand.New(rand.NewSource(p.Seed))
		out, err := privacy.PerturbAmounts(txs, p.NoiseLevel, rng)
		if err != nil {
			return nil, fmt.Errorf("perturb amounts: %w", err)
		}
		txs = out
		res.NoiseApplied = true
	}
	return txs, nil
}

// newAnonymizer returns the run's anonymizer, a counter of issued pseudonyms
// and a release func dropping any shared state.
func (a *Analysis) newAnonymizer(ctx context.Context, logCtx log.FieldLogger, runID uuid.UUID, p config.Privacy) (privacy.Anonymizer, func() int, func()) {
	if a.redis == nil {
		cache := privacy.NewPseudonymCache(p.PseudonymPrefix, p.HashLength)
		return cache, cache.Len, func() {}
	}

	cache := privacy.NewRedisCache(a.redis, runID, p.PseudonymPrefix, p.HashLength, a.redisTTL)
	issued := func() int {
		n, err := cache.Len(ctx)
		if err != nil {
			logCtx.WithError(err).Warn("failed to count pseudonyms")
			return 0
		}
		return int(n)
	}
	release := func() {
		if err := cache.Drop(context.WithoutCancel(ctx)); err != nil {
			logCtx.WithError(err).Warn("failed to drop pseudonym mapping")
		}
	}
	return cache, issued, release
}

func (a *Analysis) persist(ctx context.Context, res *Result) error {
	if a.stores.Assignments != nil && len(res.Assignments) > 0 {
		rows := make([]*domain.SegmentAssignment, len(res.Assignments))
		for i := range res.Assignments {
			rows[i] = &res.Assignments[i]
		}
		start := time.Now()
		err := a.stores.Assignments.InsertBulk(ctx, res.RunID, rows)
		if a.metrics != nil {
			a.metrics.RecordStoreOp("segment_assignments", "insert_bulk", time.Since(start).Seconds(), err)
		}
		if err != nil {
			return fmt.Errorf("store segment assignments: %w", err)
		}
	}

	if a.stores.Runs != nil {
		run := &domain.AnalysisRun{
			RunID:        res.RunID,
			WindowStart:  res.Config.Window.Start,
			WindowEnd:    res.Config.Window.End,
			StartedAt:    res.StartedAt,
			Anonymized:   res.Anonymized,
			NoiseApplied: res.NoiseApplied,
			Transactions: res.Transactions,
			Customers:    len(res.Assignments),
			Campaigns:    len(res.Campaigns),
		}
		if err := a.stores.Runs.Insert(ctx, run); err != nil {
			return fmt.Errorf("store run: %w", err)
		}
	}
	return nil
}

func (a *Analysis) observeStage(stage string, start time.Time) {
	if a.metrics != nil {
		a.metrics.RecordStage(stage, time.Since(start).Seconds())
	}
}

// computeTotals derives headline numbers. Revenue comes from campaign metrics,
// which are computed before noise.
func computeTotals(res *Result) Totals {
	t := Totals{
		TotalCustomers: len(res.Assignments),
		SegmentCount:   len(res.Summary),
	}
	for _, m := range res.Campaigns {
		t.TotalRevenue += m.Revenue
	}
	if t.TotalCustomers > 0 {
		t.AverageCustomerValue = t.TotalRevenue / float64(t.TotalCustomers)
	}
	if best, worst, ok := metrics.BestAndWorst(res.Campaigns); ok {
		t.BestCampaign, t.BestROI = best.CampaignID, best.ROI
		t.WorstCampaign, t.WorstROI = worst.CampaignID, worst.ROI
	}
	return t
}
