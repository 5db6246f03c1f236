// Package tiered layers the in-process report cache over the shared NATS KV
// bucket so replicas reuse each other's rendered reports.
package tiered

import (
	"context"
	"errors"
	"time"

	"github.com/Strob0t/AgilePulse/internal/port/cache"
)

// Cache reads local-first and writes through to the shared level.
//
// Local entries live at most localMax. A replica that misses an invalidation
// message therefore serves a stale report for no longer than that.
type Cache struct {
	local    cache.Cache
	shared   cache.Cache
	localMax time.Duration
}

// New returns a Cache over local and shared. localMax caps the lifetime of
// every local entry, including ones copied down from the shared level.
func New(local, shared cache.Cache, localMax time.Duration) *Cache {
	return &Cache{local: local, shared: shared, localMax: localMax}
}

func (c *Cache) localTTL(ttl time.Duration) time.Duration {
	if c.localMax <= 0 || (ttl > 0 && ttl < c.localMax) {
		return ttl
	}
	return c.localMax
}

// Get returns the local copy if present. Otherwise it asks the shared level
// and copies a hit down. Shared-level errors are returned so the caller's
// breaker can count them.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if v, ok, err := c.local.Get(ctx, key); err != nil || ok {
		return v, ok, err
	}
	v, ok, err := c.shared.Get(ctx, key)
	if err != nil || !ok {
		return nil, false, err
	}
	_ = c.local.Set(ctx, key, v, c.localTTL(0))
	return v, true, nil
}

// Set stores value on both levels. A local failure does not stop the shared
// write; both errors are joined.
func (c *Cache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return errors.Join(
		c.local.Set(ctx, key, value, c.localTTL(ttl)),
		c.shared.Set(ctx, key, value, ttl),
	)
}

// Delete removes key from both levels.
func (c *Cache) Delete(ctx context.Context, key string) error {
	return errors.Join(c.local.Delete(ctx, key), c.shared.Delete(ctx, key))
}

// DeletePrefix drops every report under prefix on each level that can do so
// and reports the larger count. A level that cannot invalidate by prefix is
// skipped.
func (c *Cache) DeletePrefix(ctx context.Context, prefix string) (int, error) {
	var (
		removed int
		errs    []error
	)
	for _, level := range []cache.Cache{c.local, c.shared} {
		p, ok := level.(cache.PrefixInvalidator)
		if !ok {
			continue
		}
		n, err := p.DeletePrefix(ctx, prefix)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		removed = max(removed, n)
	}
	return removed, errors.Join(errs...)
}
