// Package segmentation turns RFM records into ordinal scores and named segments.
package segmentation

import (
	"segment-lab/internal/config"
	"segment-lab/internal/domain"
)

// ScoreRecency scores a recency value where lower is better.
//
//	v <  b[0]         -> 3
//	b[0] <= v < b[1]  -> 2
//	v >= b[1]         -> 1
//
// Only the first two boundaries are used. Callers pass validated boundaries;
// Classify checks them.
func ScoreRecency(v float64, b []float64) domain.Score {
	switch {
	case v < b[0]:
		return domain.ScoreHigh
	case v < b[1]:
		return domain.ScoreMedium
	default:
		return domain.ScoreLow
	}
}

// ScoreAscending scores a frequency or monetary value where higher is better.
//
//	v <  b[0]         -> 1
//	b[0] <= v < b[1]  -> 2
//	v >= b[1]         -> 3
func ScoreAscending(v float64, b []float64) domain.Score {
	switch {
	case v < b[0]:
		return domain.ScoreLow
	case v < b[1]:
		return domain.ScoreMedium
	default:
		return domain.ScoreHigh
	}
}

// Key concatenates scores in r, f, m order.
func Key(r, f, m domain.Score) domain.ScoreKey {
	return domain.NewScoreKey(r, f, m)
}

// SegmentFor maps a score key to its segment. Keys outside the named table
// fall back to Need Attention.
func SegmentFor(key domain.ScoreKey) domain.Segment {
	switch key {
	case "333", "323", "313":
		return domain.SegmentChampions
	case "233", "223":
		return domain.SegmentLoyalCustomers
	case "133", "123":
		return domain.SegmentAtRisk
	case "111", "112":
		return domain.SegmentLostCustomers
	default:
		return domain.SegmentNeedAttention
	}
}

// Assign classifies a single RFM record.
func Assign(rec domain.CustomerRFM, b config.Boundaries) domain.SegmentAssignment {
	r := ScoreRecency(float64(rec.Recency), b.Recency)
	f := ScoreAscending(float64(rec.Frequency), b.Frequency)
	m := ScoreAscending(rec.Monetary, b.Monetary)
	key := Key(r, f, m)

	return domain.SegmentAssignment{
		CustomerID: rec.CustomerID,
		RScore:     r,
		FScore:     f,
		MScore:     m,
		Key:        key,
		Segment:    SegmentFor(key),
		Recency:    rec.Recency,
		Frequency:  rec.Frequency,
		Monetary:   rec.Monetary,
	}
}

// Classify returns one assignment per record, in input order.
// An invalid cfg yields an error wrapping config.ErrInvalidConfig.
func Classify(records []domain.CustomerRFM, cfg config.Config) ([]domain.SegmentAssignment, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	out := make([]domain.SegmentAssignment, len(records))
	for i, rec := range records {
		out[i] = Assign(rec, cfg.Boundaries)
	}
	return out, nil
}
