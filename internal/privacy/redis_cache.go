package privacy

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RedisCache shares one run's pseudonym mapping between workers through Redis.
// Keys are namespaced by run ID and expire after ttl, so two runs never read
// each other's mapping and nothing outlives the run.
type RedisCache struct {
	client  redis.Cmdable
	runID   uuid.UUID
	prefix  string
	hashLen int
	ttl     time.Duration
	local   *PseudonymCache
}

// NewRedisCache creates a run-scoped cache backed by Redis.
func NewRedisCache(client redis.Cmdable, runID uuid.UUID, prefix string, hashLen int, ttl time.Duration) *RedisCache {
	local := NewPseudonymCache(prefix, hashLen)
	return &RedisCache{
		client:  client,
		runID:   runID,
		prefix:  local.prefix,
		hashLen: local.hashLen,
		ttl:     ttl,
		local:   local,
	}
}

// RunID returns the run the cache is scoped to.
func (c *RedisCache) RunID() uuid.UUID {
	return c.runID
}

func (c *RedisCache) key() string {
	return fmt.Sprintf("segment:pseudonyms:%s", c.runID)
}

// Anonymize resolves a pseudonym, consulting the local cache, then Redis.
// A pseudonym written by another worker of the same run wins over a local derivation.
func (c *RedisCache) Anonymize(ctx context.Context, customerID string) (string, error) {
	if p, ok := c.local.Lookup(customerID); ok {
		return p, nil
	}

	p, err := c.client.HGet(ctx, c.key(), customerID).Result()
	switch {
	case err == nil:
	case errors.Is(err, redis.Nil):
		p = derivePseudonym(c.prefix, c.hashLen, customerID)
		set, err := c.client.HSetNX(ctx, c.key(), customerID, p).Result()
		if err != nil {
			return "", fmt.Errorf("store pseudonym: %w", err)
		}
		if !set {
			// Another worker stored it first.
			if p, err = c.client.HGet(ctx, c.key(), customerID).Result(); err != nil {
				return "", fmt.Errorf("reload pseudonym: %w", err)
			}
		}
		if c.ttl > 0 {
			if err := c.client.Expire(ctx, c.key(), c.ttl).Err(); err != nil {
				return "", fmt.Errorf("set pseudonym ttl: %w", err)
			}
		}
	default:
		return "", fmt.Errorf("load pseudonym: %w", err)
	}

	c.local.mu.Lock()
	c.local.mapping[customerID] = p
	c.local.mu.Unlock()
	return p, nil
}

// Len returns the number of pseudonyms stored for this run.
func (c *RedisCache) Len(ctx context.Context) (int64, error) {
	return c.client.HLen(ctx, c.key()).Result()
}

// Drop deletes the run's mapping.
func (c *RedisCache) Drop(ctx context.Context) error {
	return c.client.Del(ctx, c.key()).Err()
}

var _ Anonymizer = (*RedisCache)(nil)
