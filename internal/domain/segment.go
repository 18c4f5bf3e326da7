package domain

import "fmt"

// Score is an ordinal RFM score in {1, 2, 3}.
type Score uint8

// Score values.
const (
	ScoreLow    Score = 1
	ScoreMedium Score = 2
	ScoreHigh   Score = 3
)

// IsValid checks if the score is within {1, 2, 3}.
func (s Score) IsValid() bool {
	return s >= ScoreLow && s <= ScoreHigh
}

// ScoreKey is the concatenation of r, f and m scores, e.g. "331".
type ScoreKey string

// NewScoreKey builds the composite key in fixed r, f, m order.
func NewScoreKey(r, f, m Score) ScoreKey {
	return ScoreKey(fmt.Sprintf("%d%d%d", r, f, m))
}

// Segment is the closed set of behavioral segments.
type Segment uint8

const (
	SegmentNeedAttention Segment = iota
	SegmentChampions
	SegmentLoyalCustomers
	SegmentAtRisk
	SegmentLostCustomers
)

// AllSegments lists segments in report order.
var AllSegments = []Segment{
	SegmentChampions,
	SegmentLoyalCustomers,
	SegmentAtRisk,
	SegmentLostCustomers,
	SegmentNeedAttention,
}

// String returns the display label of the segment.
func (s Segment) String() string {
	switch s {
	case SegmentChampions:
		return "Champions"
	case SegmentLoyalCustomers:
		return "Loyal Customers"
	case SegmentAtRisk:
		return "At Risk"
	case SegmentLostCustomers:
		return "Lost Customers"
	default:
		return "Need Attention"
	}
}

// ParseSegment maps a display label back to a Segment.
func ParseSegment(label string) (Segment, error) {
	for _, s := range AllSegments {
		if s.String() == label {
			return s, nil
		}
	}
	return SegmentNeedAttention, fmt.Errorf("unknown segment label %q", label)
}

// SegmentAssignment is the classification result for one customer.
type SegmentAssignment struct {
	CustomerID string
	RScore     Score
	FScore     Score
	MScore     Score
	Key        ScoreKey
	Segment    Segment

	// Source values the scores were derived from.
	Recency   int
	Frequency int
	Monetary  float64
}
