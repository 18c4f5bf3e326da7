package idhash

import (
	"crypto/sha256"
	"encoding/hex"
)

// ComputeIdentifierHash returns the hex-encoded SHA256 of a raw identifier.
// Used as the one-way base of customer pseudonyms.
func ComputeIdentifierHash(id string) string {
	hash := sha256.Sum256([]byte(id))
	return hex.EncodeToString(hash[:])
}
