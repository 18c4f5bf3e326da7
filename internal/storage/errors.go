package storage

import "errors"

var (
	// ErrNotFound is returned when a campaign, customer or run does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateKey is returned when a record's key is already stored.
	// Results of a run are written once and never overwritten.
	ErrDuplicateKey = errors.New("duplicate key: record already stored")

	// ErrInvalidInput is returned for records that break a domain constraint,
	// such as a non-positive campaign cost or a negative amount.
	ErrInvalidInput = errors.New("invalid input")
)
