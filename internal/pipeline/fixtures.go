package pipeline

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"

	"segment-lab/internal/domain"
	"segment-lab/internal/idhash"
	"segment-lab/internal/storage"
)

// Fixture generation parameters.
const (
	DefaultFixtureCustomers = 1000
	DefaultFixtureSeed      = 42

	meanPurchases   = 3.0  // Poisson mean per customer
	amountShape     = 2    // Gamma shape (integer, sampled as a sum of exponentials)
	amountScale     = 50.0 // Gamma scale
	minAmount       = 10.0
	purchaseDaySpan = 365
)

var (
	fixtureStart  = time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	signupStart   = time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)
	fixtureAges   = []string{"18-25", "26-35", "36-45", "46-55", "55+"}
	fixtureRegion = []string{"North", "South", "East", "West"}
)

// Dataset is a generated customer roster, campaign roster and transaction batch.
type Dataset struct {
	Customers    []domain.Customer
	Campaigns    []domain.Campaign
	Transactions []domain.Transaction
}

// DefaultCampaigns returns the eight demonstration campaigns.
func DefaultCampaigns() []domain.Campaign {
	return []domain.Campaign{
		{CampaignID: "CAMP_001", Name: "Summer Sale", Channel: domain.ChannelEmail, Cost: 5000},
		{CampaignID: "CAMP_002", Name: "Black Friday", Channel: domain.ChannelSocialMedia, Cost: 8000},
		{CampaignID: "CAMP_003", Name: "Winter Clearance", Channel: domain.ChannelPaidSearch, Cost: 6000},
		{CampaignID: "CAMP_004", Name: "New Product Launch", Channel: domain.ChannelInfluencer, Cost: 10000},
		{CampaignID: "CAMP_005", Name: "Loyalty Program", Channel: domain.ChannelEmail, Cost: 3000},
		{CampaignID: "CAMP_006", Name: "Holiday Special", Channel: domain.ChannelSocialMedia, Cost: 7000},
		{CampaignID: "CAMP_007", Name: "Spring Collection", Channel: domain.ChannelPaidSearch, Cost: 5500},
		{CampaignID: "CAMP_008", Name: "Referral Program", Channel: domain.ChannelOrganic, Cost: 2000},
	}
}

// GenerateFixtures builds a deterministic synthetic dataset.
// Each customer makes max(1, Poisson(3)) purchases on a random day of 2023,
// attributed to a random campaign, with amount max(10, Gamma(2, 50)).
func GenerateFixtures(seed int64, customers int) Dataset {
	rng := rand.New(rand.NewSource(seed))
	campaigns := DefaultCampaigns()

	ds := Dataset{
		Customers: make([]domain.Customer, 0, customers),
		Campaigns: campaigns,
	}

	for i := 1; i <= customers; i++ {
		customerID := fmt.Sprintf("CUST_%04d", i)
		ds.Customers = append(ds.Customers, domain.Customer{
			CustomerID: customerID,
			AgeGroup:   fixtureAges[rng.Intn(len(fixtureAges))],
			Region:     fixtureRegion[rng.Intn(len(fixtureRegion))],
			SignupDate: signupStart.AddDate(0, 0, i-1),
		})

		n := poisson(rng, meanPurchases)
		if n < 1 {
			n = 1
		}
		for seq := 0; seq < n; seq++ {
			campaign := campaigns[rng.Intn(len(campaigns))]
			date := fixtureStart.AddDate(0, 0, rng.Intn(purchaseDaySpan))
			amount := math.Max(minAmount, gamma(rng, amountShape, amountScale))
			amount = math.Round(amount*100) / 100

			ds.Transactions = append(ds.Transactions, domain.Transaction{
				TransactionID: idhash.ComputeTransactionID(customerID, campaign.CampaignID, date, amount, seq),
				CustomerID:    customerID,
				CampaignID:    campaign.CampaignID,
				Amount:        amount,
				PurchaseDate:  date,
				Converted:     true,
			})
		}
	}
	return ds
}

// poisson samples Poisson(lambda) with Knuth's multiplication method.
func poisson(rng *rand.Rand, lambda float64) int {
	limit := math.Exp(-lambda)
	k := 0
	p := rng.Float64()
	for p > limit {
		k++
		p *= rng.Float64()
	}
	return k
}

// gamma samples Gamma(shape, scale) for integer shape as a sum of exponentials.
func gamma(rng *rand.Rand, shape int, scale float64) float64 {
	sum := 0.0
	for i := 0; i < shape; i++ {
		sum += rng.ExpFloat64()
	}
	return sum * scale
}

// LoadFixtures populates stores with a dataset. customerStore may be nil.
func LoadFixtures(
	ctx context.Context,
	ds Dataset,
	txStore storage.TransactionStore,
	campaignStore storage.CampaignStore,
	customerStore storage.CustomerStore,
) error {
	for i := range ds.Campaigns {
		if err := campaignStore.Insert(ctx, &ds.Campaigns[i]); err != nil {
			return fmt.Errorf("insert campaign %s: %w", ds.Campaigns[i].CampaignID, err)
		}
	}

	if customerStore != nil {
		customers := make([]*domain.Customer, len(ds.Customers))
		for i := range ds.Customers {
			customers[i] = &ds.Customers[i]
		}
		if err := customerStore.InsertBulk(ctx, customers); err != nil {
			return fmt.Errorf("insert customers: %w", err)
		}
	}

	txs := make([]*domain.Transaction, len(ds.Transactions))
	for i := range ds.Transactions {
		txs[i] = &ds.Transactions[i]
	}
	if err := txStore.InsertBulk(ctx, txs); err != nil {
		return fmt.Errorf("insert transactions: %w", err)
	}
	return nil
}
