package domain

import "time"

// Transaction is a single completed purchase attributed to a campaign.
// Corresponds to the transactions table in PostgreSQL.
type Transaction struct {
	TransactionID string    // deterministic hash, storage key
	CustomerID    string    // customer identifier (raw or pseudonymized)
	CampaignID    string    // campaign the purchase is attributed to
	Amount        float64   // purchase amount, > 0
	PurchaseDate  time.Time // purchase day (UTC)
	Converted     bool      // always true for recorded purchases
}

// Day returns the purchase date truncated to UTC midnight.
func (t Transaction) Day() time.Time {
	return TruncateDay(t.PurchaseDate)
}

// TruncateDay truncates a timestamp to midnight UTC.
func TruncateDay(ts time.Time) time.Time {
	u := ts.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}
