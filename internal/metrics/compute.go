// Package metrics computes campaign attribution metrics from a transaction batch.
package metrics

import (
	"errors"
	"fmt"
	"sort"

	"segment-lab/internal/config"
	"segment-lab/internal/domain"
)

var (
	// ErrUnknownCampaign is returned when a transaction references a campaign
	// missing from the roster.
	ErrUnknownCampaign = errors.New("transaction references unknown campaign")

	// ErrInvalidCampaignCost is returned for a campaign with cost <= 0.
	ErrInvalidCampaignCost = errors.New("campaign cost must be positive")

	// ErrDuplicateCampaign is returned when the roster lists a campaign ID twice.
	ErrDuplicateCampaign = errors.New("duplicate campaign in roster")
)

// group is the running state for one campaign.
type group struct {
	customers   map[string]struct{}
	conversions int
	revenue     float64
}

// indexRoster validates the roster and indexes it by campaign ID.
func indexRoster(campaigns []domain.Campaign) (map[string]domain.Campaign, error) {
	roster := make(map[string]domain.Campaign, len(campaigns))
	for _, c := range campaigns {
		if c.Cost <= 0 {
			return nil, fmt.Errorf("%w: %s cost %v", ErrInvalidCampaignCost, c.CampaignID, c.Cost)
		}
		if _, exists := roster[c.CampaignID]; exists {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateCampaign, c.CampaignID)
		}
		roster[c.CampaignID] = c
	}
	return roster, nil
}

// ComputeCampaignMetrics groups txs by campaign and joins each group with the
// roster. Campaigns without transactions produce no row.
// Output is ordered by CampaignID ASC.
func ComputeCampaignMetrics(txs []domain.Transaction, campaigns []domain.Campaign) ([]domain.CampaignMetrics, error) {
	roster, err := indexRoster(campaigns)
	if err != nil {
		return nil, err
	}

	groups := make(map[string]*group)
	for _, tx := range txs {
		if _, ok := roster[tx.CampaignID]; !ok {
			return nil, fmt.Errorf("%w: %q (transaction %s)", ErrUnknownCampaign, tx.CampaignID, tx.TransactionID)
		}
		g, ok := groups[tx.CampaignID]
		if !ok {
			g = &group{customers: make(map[string]struct{})}
			groups[tx.CampaignID] = g
		}
		g.customers[tx.CustomerID] = struct{}{}
		g.revenue += tx.Amount
		if tx.Converted {
			g.conversions++
		}
	}

	out := make([]domain.CampaignMetrics, 0, len(groups))
	for id, g := range groups {
		out = append(out, computeFromGroup(roster[id], g))
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].CampaignID < out[j].CampaignID
	})
	return out, nil
}

// computeFromGroup derives rate, ROI and CPA. Cost is positive (validated),
// reach is >= 1 because the group exists.
func computeFromGroup(c domain.Campaign, g *group) domain.CampaignMetrics {
	reach := len(g.customers)
	m := domain.CampaignMetrics{
		CampaignID:     c.CampaignID,
		Name:           c.Name,
		Channel:        c.Channel,
		Cost:           c.Cost,
		Reach:          reach,
		Conversions:    g.conversions,
		Revenue:        g.revenue,
		ConversionRate: float64(g.conversions) / float64(reach),
		ROI:            (g.revenue - c.Cost) / c.Cost,
	}
	if g.conversions > 0 {
		m.CPA = c.Cost / float64(g.conversions)
		m.CPADefined = true
	}
	return m
}

// Rank returns a copy of metrics ordered by ROI DESC, Reach DESC, CampaignID ASC.
func Rank(metrics []domain.CampaignMetrics) []domain.CampaignMetrics {
	ranked := make([]domain.CampaignMetrics, len(metrics))
	copy(ranked, metrics)
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].ROI != ranked[j].ROI {
			return ranked[i].ROI > ranked[j].ROI
		}
		if ranked[i].Reach != ranked[j].Reach {
			return ranked[i].Reach > ranked[j].Reach
		}
		return ranked[i].CampaignID < ranked[j].CampaignID
	})
	return ranked
}

// BestAndWorst returns the first and last campaign of Rank.
// ok is false for an empty input.
func BestAndWorst(metrics []domain.CampaignMetrics) (best, worst domain.CampaignMetrics, ok bool) {
	if len(metrics) == 0 {
		return domain.CampaignMetrics{}, domain.CampaignMetrics{}, false
	}
	ranked := Rank(metrics)
	return ranked[0], ranked[len(ranked)-1], true
}

// Flag lists campaigns whose conversion rate is below the minimum or whose CPA
// exceeds the maximum. Results are ordered by CampaignID, then reason.
func Flag(metrics []domain.CampaignMetrics, t config.Thresholds) []domain.CampaignFlag {
	var flags []domain.CampaignFlag
	for _, m := range metrics {
		if m.ConversionRate < t.MinConversionRate {
			flags = append(flags, domain.CampaignFlag{
				CampaignID: m.CampaignID,
				Reason:     domain.FlagLowConversionRate,
				Value:      m.ConversionRate,
				Threshold:  t.MinConversionRate,
			})
		}
		if m.CPADefined && t.MaxCPA > 0 && m.CPA > t.MaxCPA {
			flags = append(flags, domain.CampaignFlag{
				CampaignID: m.CampaignID,
				Reason:     domain.FlagHighCPA,
				Value:      m.CPA,
				Threshold:  t.MaxCPA,
			})
		}
	}

	sort.SliceStable(flags, func(i, j int) bool {
		if flags[i].CampaignID != flags[j].CampaignID {
			return flags[i].CampaignID < flags[j].CampaignID
		}
		return flags[i].Reason < flags[j].Reason
	})
	return flags
}

// ChannelRevenue is the revenue attributed to one acquisition channel.
type ChannelRevenue struct {
	Channel   domain.Channel
	Revenue   float64
	Campaigns int
}

// RevenueByChannel sums revenue per channel, ordered by revenue DESC, channel ASC.
func RevenueByChannel(metrics []domain.CampaignMetrics) []ChannelRevenue {
	byChannel := make(map[domain.Channel]*ChannelRevenue)
	for _, m := range metrics {
		cr, ok := byChannel[m.Channel]
		if !ok {
			cr = &ChannelRevenue{Channel: m.Channel}
			byChannel[m.Channel] = cr
		}
		cr.Revenue += m.Revenue
		cr.Campaigns++
	}

	out := make([]ChannelRevenue, 0, len(byChannel))
	for _, cr := range byChannel {
		out = append(out, *cr)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Revenue != out[j].Revenue {
			return out[i].Revenue > out[j].Revenue
		}
		return out[i].Channel < out[j].Channel
	})
	return out
}
