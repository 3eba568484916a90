package idempotency

import (
	"context"
	"sync"
	"time"
)

type memoryDeduper struct {
	mu   sync.Mutex
	seen map[string]time.Time
	ttl  time.Duration
}

// NewMemoryDeduper returns an in-process Deduper for tests and
// single-instance development setups.
func NewMemoryDeduper(ttl time.Duration) Deduper {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &memoryDeduper{seen: make(map[string]time.Time), ttl: ttl}
}

func (d *memoryDeduper) FirstSeen(ctx context.Context, id string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := time.Now()
	if at, ok := d.seen[id]; ok && now.Sub(at) < d.ttl {
		return false, nil
	}
	d.seen[id] = now
	return true, nil
}
