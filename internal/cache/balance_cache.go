// Package cache provides the single read-through balance cache owned by the
// ledger's query side. Every write path invalidates explicitly; there are no
// per-caller caches.
package cache

import (
	"context"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
)

type BalanceCache struct {
	client *redis.Client
	ttl    time.Duration
}

// New returns a cache backed by the given client. A nil client disables the
// cache entirely; every lookup misses and invalidation is a no-op.
func New(client *redis.Client, ttl time.Duration) *BalanceCache {
	return &BalanceCache{client: client, ttl: ttl}
}

// Start verifies connectivity. A cache that cannot reach redis is reported so
// the caller can decide to run without it.
func (c *BalanceCache) Start(ctx context.Context) error {
	if c.client == nil {
		return nil
	}
	return c.client.Ping(ctx).Err()
}

func (c *BalanceCache) Stop() error {
	if c.client == nil {
		return nil
	}
	return c.client.Close()
}

func balanceKey(accountID string) string {
	return "balance:" + accountID
}

func (c *BalanceCache) GetBalance(ctx context.Context, accountID string) (int64, bool) {
	if c.client == nil {
		return 0, false
	}
	raw, err := c.client.Get(ctx, balanceKey(accountID)).Result()
	if err != nil {
		return 0, false
	}
	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false
	}
	return value, true
}

func (c *BalanceCache) SetBalance(ctx context.Context, accountID string, balancePaise int64) {
	if c.client == nil {
		return
	}
	c.client.Set(ctx, balanceKey(accountID), strconv.FormatInt(balancePaise, 10), c.ttl)
}

// Invalidate drops cached balances after a committed write. Errors are
// ignored; a stale entry expires with the TTL anyway.
func (c *BalanceCache) Invalidate(ctx context.Context, accountIDs ...string) {
	if c.client == nil || len(accountIDs) == 0 {
		return
	}
	keys := make([]string, 0, len(accountIDs))
	for _, id := range accountIDs {
		keys = append(keys, balanceKey(id))
	}
	c.client.Del(ctx, keys...)
}
