// Package privacy pseudonymizes customer identifiers and perturbs monetary values
// before any result leaves an analysis run.
package privacy

import (
	"context"
	"sync"

	"segment-lab/internal/idhash"
)

// Anonymizer maps a raw customer identifier to a stable pseudonym.
type Anonymizer interface {
	Anonymize(ctx context.Context, customerID string) (string, error)
}

// PseudonymCache is a run-scoped, caller-owned pseudonym mapping.
// The same identifier always resolves to the same pseudonym for the lifetime
// of the cache. Safe for concurrent use.
type PseudonymCache struct {
	prefix  string
	hashLen int

	mu      sync.RWMutex
	mapping map[string]string
}

// NewPseudonymCache creates an empty cache. hashLen is clamped to [1, 64].
func NewPseudonymCache(prefix string, hashLen int) *PseudonymCache {
	if hashLen < 1 {
		hashLen = 1
	}
	if hashLen > 64 {
		hashLen = 64
	}
	return &PseudonymCache{
		prefix:  prefix,
		hashLen: hashLen,
		mapping: make(map[string]string),
	}
}

// Anonymize returns prefix + first hashLen hex chars of SHA256(customerID).
func (c *PseudonymCache) Anonymize(_ context.Context, customerID string) (string, error) {
	return c.Pseudonym(customerID), nil
}

// Pseudonym is the error-free form of Anonymize.
func (c *PseudonymCache) Pseudonym(customerID string) string {
	c.mu.RLock()
	p, ok := c.mapping[customerID]
	c.mu.RUnlock()
	if ok {
		return p
	}

	p = derivePseudonym(c.prefix, c.hashLen, customerID)

	c.mu.Lock()
	if existing, ok := c.mapping[customerID]; ok {
		p = existing
	} else {
		c.mapping[customerID] = p
	}
	c.mu.Unlock()
	return p
}

// Lookup returns the cached pseudonym without computing a new one.
func (c *PseudonymCache) Lookup(customerID string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.mapping[customerID]
	return p, ok
}

// Len returns the number of cached identifiers.
func (c *PseudonymCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.mapping)
}

func derivePseudonym(prefix string, hashLen int, customerID string) string {
	return prefix + idhash.ComputeIdentifierHash(customerID)[:hashLen]
}

var _ Anonymizer = (*PseudonymCache)(nil)
