// Package dedup tracks token addresses that were already processed within a
// rolling window. Membership is an at-most-once-per-window guarantee, not
// exactly-once: entries expire after the TTL and the token becomes eligible
// again.
package dedup

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Default bounds, matching the feed's observed churn.
const (
	DefaultMaxEntries = 500_000
	DefaultTTL        = time.Hour
)

// Cache is the processed-address set consulted by the inspection loop.
type Cache interface {
	// Contains reports whether key was inserted within the TTL window.
	Contains(ctx context.Context, key string) bool

	// Insert marks key as processed as of now.
	Insert(ctx context.Context, key string)
}

// SeenCache is an in-process Cache bounded by entry count and TTL.
// The LRU evicts oldest entries when full; entries past the TTL are treated
// as absent on read even before the LRU physically drops them.
type SeenCache struct {
	entries *expirable.LRU[string, time.Time]
	ttl     time.Duration
	now     func() time.Time // test hook
}

// NewSeenCache creates a cache holding at most maxEntries keys for ttl each.
// Non-positive arguments fall back to the defaults.
func NewSeenCache(maxEntries int, ttl time.Duration) *SeenCache {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &SeenCache{
		entries: expirable.NewLRU[string, time.Time](maxEntries, nil, ttl),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Contains reports whether key was inserted less than TTL ago.
func (c *SeenCache) Contains(_ context.Context, key string) bool {
	insertedAt, ok := c.entries.Get(key)
	if !ok {
		return false
	}
	return c.now().Sub(insertedAt) < c.ttl
}

// Insert records key with the current timestamp.
func (c *SeenCache) Insert(_ context.Context, key string) {
	c.entries.Add(key, c.now())
}

// Len returns the number of physically retained entries.
func (c *SeenCache) Len() int {
	return c.entries.Len()
}

var _ Cache = (*SeenCache)(nil)
