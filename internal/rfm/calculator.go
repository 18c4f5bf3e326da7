// Package rfm reduces a transaction batch to one recency/frequency/monetary
// record per customer.
package rfm

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"segment-lab/internal/config"
	"segment-lab/internal/domain"
)

var (
	// ErrTransactionAfterWindow is returned when a purchase is dated after the
	// analysis end date. Recency would be negative, so the window is wrong.
	ErrTransactionAfterWindow = errors.New("transaction dated after analysis end date")

	// ErrInvalidTransaction is returned for a transaction with an empty
	// customer ID or a negative or non-finite amount.
	ErrInvalidTransaction = errors.New("invalid transaction")
)

const day = 24 * time.Hour

// accumulator is the running per-customer state.
type accumulator struct {
	last      time.Time
	frequency int
	monetary  float64
}

// Compute derives one CustomerRFM per distinct customer in txs.
// Recency is measured from cfg.Window.End in whole days, both dates truncated
// to UTC midnight. Output is sorted by CustomerID. An invalid cfg yields an
// error wrapping config.ErrInvalidConfig.
func Compute(txs []domain.Transaction, cfg config.Config) ([]domain.CustomerRFM, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	end := domain.TruncateDay(cfg.Window.End)

	acc := make(map[string]*accumulator)
	for i := range txs {
		if err := validate(&txs[i], end); err != nil {
			return nil, err
		}
		tx := &txs[i]
		a, ok := acc[tx.CustomerID]
		if !ok {
			a = &accumulator{}
			acc[tx.CustomerID] = a
		}
		if d := tx.Day(); d.After(a.last) {
			a.last = d
		}
		a.frequency++
		a.monetary += tx.Amount
	}

	records := make([]domain.CustomerRFM, 0, len(acc))
	for id, a := range acc {
		records = append(records, domain.CustomerRFM{
			CustomerID:       id,
			LastPurchaseDate: a.last,
			Recency:          int(end.Sub(a.last) / day),
			Frequency:        a.frequency,
			Monetary:         a.monetary,
		})
	}

	sortByCustomer(records)
	return records, nil
}

func validate(tx *domain.Transaction, end time.Time) error {
	if tx.CustomerID == "" {
		return fmt.Errorf("%w: empty customer id (transaction %s)", ErrInvalidTransaction, tx.TransactionID)
	}
	if tx.Amount < 0 || math.IsNaN(tx.Amount) || math.IsInf(tx.Amount, 0) {
		return fmt.Errorf("%w: amount %v (transaction %s)", ErrInvalidTransaction, tx.Amount, tx.TransactionID)
	}
	if tx.Day().After(end) {
		return fmt.Errorf("%w: %s > %s (transaction %s)",
			ErrTransactionAfterWindow,
			tx.Day().Format(time.DateOnly), end.Format(time.DateOnly), tx.TransactionID)
	}
	return nil
}

// FilterWindow keeps transactions dated inside [Start, End] (inclusive, by day)
// with amount >= cfg.MinPurchase. A zero Start leaves the window open on the left.
func FilterWindow(txs []domain.Transaction, cfg config.Config) []domain.Transaction {
	start := domain.TruncateDay(cfg.Window.Start)
	end := domain.TruncateDay(cfg.Window.End)

	out := make([]domain.Transaction, 0, len(txs))
	for _, tx := range txs {
		d := tx.Day()
		if !cfg.Window.Start.IsZero() && d.Before(start) {
			continue
		}
		if d.After(end) {
			continue
		}
		if tx.Amount < cfg.MinPurchase {
			continue
		}
		out = append(out, tx)
	}
	return out
}

func sortByCustomer(records []domain.CustomerRFM) {
	sort.Slice(records, func(i, j int) bool {
		return records[i].CustomerID < records[j].CustomerID
	})
}
