// Package ristretto implements the cache port using dgraph-io/ristretto as L1 in-process cache.
package ristretto

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/dgraph-io/ristretto/v2"
	"github.com/dgraph-io/ristretto/v2/z"
)

// Cache wraps a ristretto cache as an in-process L1 cache. Ristretto cannot
// enumerate its keys, so written keys are tracked for prefix deletion.
type Cache struct {
	c *ristretto.Cache[string, []byte]

	mu   sync.Mutex
	keys map[string]struct{}
}

// New creates a ristretto-backed cache. maxCostBytes is the maximum total
// size of cached values in bytes.
func New(maxCostBytes int64) (*Cache, error) {
	c := &Cache{keys: make(map[string]struct{})}
	rc, err := ristretto.NewCache(&ristretto.Config[string, []byte]{
		NumCounters: maxCostBytes / 100 * 10, // ~10x expected items
		MaxCost:     maxCostBytes,
		BufferItems: 64,
		OnEvict:     func(item *ristretto.Item[[]byte]) { c.forgetHash(item.Key) },
	})
	if err != nil {
		return nil, err
	}
	c.c = rc
	return c, nil
}

// Get retrieves a value from the cache.
func (c *Cache) Get(_ context.Context, key string) (data []byte, ok bool, err error) {
	val, found := c.c.Get(key)
	if !found {
		return nil, false, nil
	}
	return val, true, nil
}

// Set stores a value in the cache with the given TTL. The write is visible
// to Get once Set returns.
func (c *Cache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if c.c.SetWithTTL(key, value, int64(len(value)), ttl) {
		c.mu.Lock()
		c.keys[key] = struct{}{}
		c.mu.Unlock()
	}
	c.c.Wait()
	return nil
}

// Delete removes a value from the cache.
func (c *Cache) Delete(_ context.Context, key string) error {
	c.c.Del(key)
	c.mu.Lock()
	delete(c.keys, key)
	c.mu.Unlock()
	return nil
}

// DeletePrefix removes every tracked key starting with prefix.
func (c *Cache) DeletePrefix(_ context.Context, prefix string) (int, error) {
	c.mu.Lock()
	var matched []string
	for k := range c.keys {
		if strings.HasPrefix(k, prefix) {
			matched = append(matched, k)
			delete(c.keys, k)
		}
	}
	c.mu.Unlock()

	removed := 0
	for _, k := range matched {
		if _, found := c.c.Get(k); found {
			removed++
		}
		c.c.Del(k)
	}
	return removed, nil
}

// forgetHash drops evicted entries from the key set. Eviction callbacks carry
// only the key hash, so the set is scanned.
func (c *Cache) forgetHash(hash uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k := range c.keys {
		if h, _ := z.KeyToHash(k); h == hash {
			delete(c.keys, k)
			return
		}
	}
}

// Close shuts down the cache and releases resources.
func (c *Cache) Close() {
	c.c.Close()
}
