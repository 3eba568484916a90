// Package idempotency provides a first-seen marker for webhook delivery
// IDs so redelivered events can be acknowledged without reprocessing.
//
// The marker is an optimization only: the reconciliation layer is already
// idempotent, so a lost marker (Redis restart, TTL expiry) costs a
// harmless re-apply, never a correctness failure.
package idempotency

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultTTL bounds marker retention. Providers retry deliveries for a
// few days at most, so markers older than that are dead weight.
const DefaultTTL = 72 * time.Hour

// Deduper records delivery IDs and reports first-time observations.
type Deduper interface {
	// FirstSeen atomically marks the ID as seen and returns true if this
	// call was the first to do so.
	FirstSeen(ctx context.Context, id string) (bool, error)
}

type redisDeduper struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisDeduper returns a Deduper backed by Redis SET NX with a TTL.
// The atomicity of SET NX is what makes concurrent duplicate deliveries
// resolve to exactly one first observation.
func NewRedisDeduper(client *redis.Client, prefix string, ttl time.Duration) Deduper {
	if client == nil {
		panic("idempotency: redis client is required")
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &redisDeduper{client: client, prefix: prefix, ttl: ttl}
}

func (d *redisDeduper) FirstSeen(ctx context.Context, id string) (bool, error) {
	key := fmt.Sprintf("%s:%s", d.prefix, id)
	ok, err := d.client.SetNX(ctx, key, 1, d.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to mark delivery id: %w", err)
	}
	return ok, nil
}
