package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// ComputeTransactionID computes a deterministic transaction_id using SHA256.
// Formula: SHA256(customer_id|campaign_id|purchase_date|amount|seq)
// purchase_date is formatted as YYYY-MM-DD (UTC), amount with 6 decimals.
// seq disambiguates identical purchases on the same day.
// Returns hex-encoded hash (64 characters).
func ComputeTransactionID(
	customerID string,
	campaignID string,
	purchaseDate time.Time,
	amount float64,
	seq int,
) string {
	data := fmt.Sprintf("%s|%s|%s|%.6f|%d",
		customerID,
		campaignID,
		purchaseDate.UTC().Format("2006-01-02"),
		amount,
		seq,
	)

	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}
