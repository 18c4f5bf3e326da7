package privacy

import (
	"context"
	"fmt"
	"math"
	"math/rand"

	"segment-lab/internal/domain"
)

// AnonymizeTransactions returns a copy of txs with customer IDs replaced by pseudonyms.
func AnonymizeTransactions(ctx context.Context, txs []domain.Transaction, a Anonymizer) ([]domain.Transaction, error) {
	out := make([]domain.Transaction, len(txs))
	for i, tx := range txs {
		p, err := a.Anonymize(ctx, tx.CustomerID)
		if err != nil {
			return nil, fmt.Errorf("anonymize transaction %d: %w", i, err)
		}
		tx.CustomerID = p
		out[i] = tx
	}
	return out, nil
}

// PerturbAmounts returns a copy of txs with purchase amounts passed through AddNoise.
// Perturbed amounts are floored at 0 so customer monetary totals stay non-negative.
func PerturbAmounts(txs []domain.Transaction, level float64, rng *rand.Rand) ([]domain.Transaction, error) {
	amounts := make([]float64, len(txs))
	for i, tx := range txs {
		amounts[i] = tx.Amount
	}

	noisy, err := AddNoise(amounts, level, rng)
	if err != nil {
		return nil, err
	}

	out := make([]domain.Transaction, len(txs))
	for i, tx := range txs {
		tx.Amount = math.Max(noisy[i], 0)
		out[i] = tx
	}
	return out, nil
}
