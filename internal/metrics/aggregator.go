package metrics

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"segment-lab/internal/config"
	"segment-lab/internal/domain"
	"segment-lab/internal/rfm"
	"segment-lab/internal/storage"
)

// ErrNoTransactions is returned when the window holds no transactions.
var ErrNoTransactions = errors.New("no transactions available for aggregation")

// Aggregator computes campaign metrics from stored transactions and campaigns.
type Aggregator struct {
	transactionStore storage.TransactionReader
	campaignStore    storage.CampaignStore
	metricsStore     storage.CampaignMetricsStore

	// MissingCampaigns tracks campaign IDs referenced by transactions but absent
	// from the roster (for data quality reporting).
	// Key: campaign_id, Value: count of transactions referencing it.
	MissingCampaigns map[string]int
}

// NewAggregator creates a new campaign metrics aggregator.
func NewAggregator(txStore storage.TransactionReader, campaignStore storage.CampaignStore, metricsStore storage.CampaignMetricsStore) *Aggregator {
	return &Aggregator{
		transactionStore: txStore,
		campaignStore:    campaignStore,
		metricsStore:     metricsStore,
		MissingCampaigns: make(map[string]int),
	}
}

// Compute loads the transactions of cfg's window (minimum purchase applied)
// and computes their metrics with ComputeBatch.
func (a *Aggregator) Compute(ctx context.Context, cfg config.Config) ([]domain.CampaignMetrics, error) {
	stored, err := a.transactionStore.GetByWindow(ctx, cfg.Window.Start, cfg.Window.End)
	if err != nil {
		return nil, fmt.Errorf("load transactions: %w", err)
	}
	txs := make([]domain.Transaction, len(stored))
	for i, tx := range stored {
		txs[i] = *tx
	}
	return a.ComputeBatch(ctx, rfm.FilterWindow(txs, cfg))
}

// ComputeBatch computes metrics for an already loaded batch against the
// campaign roster. Every missing campaign is recorded in MissingCampaigns
// before ErrUnknownCampaign is returned, so one run reports all of them.
func (a *Aggregator) ComputeBatch(ctx context.Context, txs []domain.Transaction) ([]domain.CampaignMetrics, error) {
	if len(txs) == 0 {
		return nil, ErrNoTransactions
	}

	campaigns, err := a.campaignStore.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load campaigns: %w", err)
	}

	known := make(map[string]struct{}, len(campaigns))
	roster := make([]domain.Campaign, len(campaigns))
	for i, c := range campaigns {
		known[c.CampaignID] = struct{}{}
		roster[i] = *c
	}

	for _, tx := range txs {
		if _, ok := known[tx.CampaignID]; !ok {
			// Record missing campaign (don't silently skip)
			a.MissingCampaigns[tx.CampaignID]++
		}
	}
	if len(a.MissingCampaigns) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCampaign, strings.Join(a.GetMissingCampaignErrors(), "; "))
	}

	return ComputeCampaignMetrics(txs, roster)
}

// GetMissingCampaignErrors returns data quality errors for missing campaigns.
// Returns slice of error messages sorted by campaign_id for deterministic output.
func (a *Aggregator) GetMissingCampaignErrors() []string {
	if len(a.MissingCampaigns) == 0 {
		return nil
	}

	keys := make([]string, 0, len(a.MissingCampaigns))
	for k := range a.MissingCampaigns {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	errs := make([]string, len(keys))
	for i, campaignID := range keys {
		errs[i] = fmt.Sprintf("missing campaign %s referenced by %d transaction(s)", campaignID, a.MissingCampaigns[campaignID])
	}
	return errs
}

// ComputeAndStore computes metrics for cfg's window and persists them under runID.
// Returns storage.ErrDuplicateKey if the run already has metrics (append-only).
func (a *Aggregator) ComputeAndStore(ctx context.Context, runID string, cfg config.Config) ([]domain.CampaignMetrics, error) {
	metrics, err := a.Compute(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := a.store(ctx, runID, metrics); err != nil {
		return nil, err
	}
	return metrics, nil
}

// ComputeBatchAndStore is ComputeAndStore for an already loaded batch.
func (a *Aggregator) ComputeBatchAndStore(ctx context.Context, runID string, txs []domain.Transaction) ([]domain.CampaignMetrics, error) {
	metrics, err := a.ComputeBatch(ctx, txs)
	if err != nil {
		return nil, err
	}
	if err := a.store(ctx, runID, metrics); err != nil {
		return nil, err
	}
	return metrics, nil
}

func (a *Aggregator) store(ctx context.Context, runID string, metrics []domain.CampaignMetrics) error {
	rows := make([]*domain.CampaignMetrics, len(metrics))
	for i := range metrics {
		rows[i] = &metrics[i]
	}
	return a.metricsStore.InsertBulk(ctx, runID, rows)
}
