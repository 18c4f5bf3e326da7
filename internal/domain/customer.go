package domain

import "time"

// Customer is a roster entry. Only customers that transacted inside the
// analysis window are scored.
type Customer struct {
	CustomerID string
	AgeGroup   string // "18-25" | "26-35" | "36-45" | "46-55" | "55+"
	Region     string
	SignupDate time.Time
}

// CustomerRFM holds recency, frequency and monetary values for one customer.
// Recomputed on every analysis run, never updated in place.
type CustomerRFM struct {
	CustomerID       string
	LastPurchaseDate time.Time
	Recency          int     // whole days between window end and last purchase, >= 0
	Frequency        int     // transaction count, >= 1
	Monetary         float64 // sum of purchase amounts
}
