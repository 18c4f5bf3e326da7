package segmentation

import "segment-lab/internal/domain"

// SegmentSummary aggregates assignments of one segment.
type SegmentSummary struct {
	Segment       domain.Segment
	Customers     int
	MonetarySum   float64
	MonetaryMean  float64
	RecencyMean   float64
	FrequencyMean float64
}

// Summarize groups assignments by segment. Segments with no customers are
// omitted; the rest follow domain.AllSegments order.
func Summarize(assignments []domain.SegmentAssignment) []SegmentSummary {
	bySegment := make(map[domain.Segment]*SegmentSummary)
	recencySum := make(map[domain.Segment]int)
	frequencySum := make(map[domain.Segment]int)

	for _, a := range assignments {
		s, ok := bySegment[a.Segment]
		if !ok {
			s = &SegmentSummary{Segment: a.Segment}
			bySegment[a.Segment] = s
		}
		s.Customers++
		s.MonetarySum += a.Monetary
		recencySum[a.Segment] += a.Recency
		frequencySum[a.Segment] += a.Frequency
	}

	out := make([]SegmentSummary, 0, len(bySegment))
	for _, seg := range domain.AllSegments {
		s, ok := bySegment[seg]
		if !ok {
			continue
		}
		n := float64(s.Customers)
		s.MonetaryMean = s.MonetarySum / n
		s.RecencyMean = float64(recencySum[seg]) / n
		s.FrequencyMean = float64(frequencySum[seg]) / n
		out = append(out, *s)
	}
	return out
}

// Distribution counts customers per segment. Every segment is present.
func Distribution(assignments []domain.SegmentAssignment) map[domain.Segment]int {
	out := make(map[domain.Segment]int, len(domain.AllSegments))
	for _, seg := range domain.AllSegments {
		out[seg] = 0
	}
	for _, a := range assignments {
		out[a.Segment]++
	}
	return out
}
