package pipeline

import (
	"context"
	"fmt"

	"segment-lab/internal/storage"
)

// Sufficiency thresholds.
const (
	MinScoredCustomers  = 100
	MinPopulatedSegment = 2
)

// SufficiencyCheck represents one data sufficiency criterion.
type SufficiencyCheck struct {
	Name      string
	Threshold string
	Actual    string
	Pass      bool
}

// SufficiencyResult contains all checks of a run.
type SufficiencyResult struct {
	Checks  []SufficiencyCheck
	AllPass bool
	Errors  []string // data integrity errors
}

// SufficiencyChecker judges whether a run had enough data for its segments
// and campaign ranking to be meaningful.
type SufficiencyChecker struct {
	campaignStore storage.CampaignStore
	customerStore storage.CustomerStore
}

// NewSufficiencyChecker creates a new sufficiency checker. customerStore may be nil,
// in which case roster coverage is skipped.
func NewSufficiencyChecker(campaignStore storage.CampaignStore, customerStore storage.CustomerStore) *SufficiencyChecker {
	return &SufficiencyChecker{
		campaignStore: campaignStore,
		customerStore: customerStore,
	}
}

// Check evaluates res against the sufficiency criteria.
func (c *SufficiencyChecker) Check(ctx context.Context, res *Result) (*SufficiencyResult, error) {
	result := &SufficiencyResult{
		AllPass: true,
		Errors:  []string{},
	}
	add := func(check SufficiencyCheck) {
		result.Checks = append(result.Checks, check)
		if !check.Pass {
			result.AllPass = false
		}
	}

	// Check 1: enough scored customers
	scored := len(res.Assignments)
	add(SufficiencyCheck{
		Name:      "Scored customers",
		Threshold: fmt.Sprintf(">= %d", MinScoredCustomers),
		Actual:    fmt.Sprintf("%d", scored),
		Pass:      scored >= MinScoredCustomers,
	})

	// Check 2: segment table is not degenerate
	populated := 0
	for _, n := range res.Distribution {
		if n > 0 {
			populated++
		}
	}
	add(SufficiencyCheck{
		Name:      "Populated segments",
		Threshold: fmt.Sprintf(">= %d", MinPopulatedSegment),
		Actual:    fmt.Sprintf("%d", populated),
		Pass:      populated >= MinPopulatedSegment,
	})

	// Check 3: every rostered campaign has attributed transactions
	check3, err := c.checkCampaignCoverage(ctx, res)
	if err != nil {
		return nil, fmt.Errorf("failed to check campaign coverage: %w", err)
	}
	add(check3)

	// Check 4: roster coverage (informational, always passes)
	if c.customerStore != nil {
		customers, err := c.customerStore.GetAll(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to load customers: %w", err)
		}
		add(SufficiencyCheck{
			Name:      "Roster customers scored",
			Threshold: "informational",
			Actual:    fmt.Sprintf("%d / %d", scored, len(customers)),
			Pass:      true,
		})
	}

	// Check 5: no integrity errors
	add(SufficiencyCheck{
		Name:      "Integrity errors",
		Threshold: "== 0",
		Actual:    fmt.Sprintf("%d", len(res.IntegrityErrors)),
		Pass:      len(res.IntegrityErrors) == 0,
	})
	result.Errors = append(result.Errors, res.IntegrityErrors...)

	return result, nil
}

func (c *SufficiencyChecker) checkCampaignCoverage(ctx context.Context, res *Result) (SufficiencyCheck, error) {
	roster, err := c.campaignStore.GetAll(ctx)
	if err != nil {
		return SufficiencyCheck{}, err
	}

	withMetrics := make(map[string]struct{}, len(res.Campaigns))
	for _, m := range res.Campaigns {
		withMetrics[m.CampaignID] = struct{}{}
	}

	covered := 0
	for _, campaign := range roster {
		if _, ok := withMetrics[campaign.CampaignID]; ok {
			covered++
		}
	}

	return SufficiencyCheck{
		Name:      "Campaigns with transactions",
		Threshold: fmt.Sprintf("== %d", len(roster)),
		Actual:    fmt.Sprintf("%d", covered),
		Pass:      covered == len(roster),
	}, nil
}
