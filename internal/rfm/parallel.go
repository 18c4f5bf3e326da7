package rfm

import (
	"context"
	"hash/fnv"

	"golang.org/x/sync/errgroup"

	"segment-lab/internal/config"
	"segment-lab/internal/domain"
)

// ComputeParallel computes the same result as Compute, partitioning the batch
// by customer ID across workers. Partitions share no customers, so the merge
// is a concatenation followed by the usual sort.
func ComputeParallel(ctx context.Context, txs []domain.Transaction, cfg config.Config, workers int) ([]domain.CustomerRFM, error) {
	if workers <= 1 || len(txs) < workers {
		return Compute(txs, cfg)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	parts := Partition(txs, workers)
	results := make([][]domain.CustomerRFM, len(parts))

	g, ctx := errgroup.WithContext(ctx)
	for i, part := range parts {
		i, part := i, part
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			records, err := Compute(part, cfg)
			if err != nil {
				return err
			}
			results[i] = records
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	total := 0
	for _, r := range results {
		total += len(r)
	}
	merged := make([]domain.CustomerRFM, 0, total)
	for _, r := range results {
		merged = append(merged, r...)
	}
	sortByCustomer(merged)
	return merged, nil
}

// Partition splits txs into n groups by FNV-1a hash of the customer ID.
// All transactions of one customer land in the same group.
func Partition(txs []domain.Transaction, n int) [][]domain.Transaction {
	if n < 1 {
		n = 1
	}
	parts := make([][]domain.Transaction, n)
	for _, tx := range txs {
		h := fnv.New64a()
		h.Write([]byte(tx.CustomerID))
		idx := h.Sum64() % uint64(n)
		parts[idx] = append(parts[idx], tx)
	}
	return parts
}
