// Package natskv stores rendered reports in a NATS JetStream key-value
// bucket shared by every replica.
package natskv

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go/jetstream"
)

// Cache is the shared report level. Entry lifetime is the bucket TTL; the
// per-call TTL is not used.
type Cache struct {
	kv jetstream.KeyValue
}

// New wraps kv.
func New(kv jetstream.KeyValue) *Cache {
	return &Cache{kv: kv}
}

// validKey reports whether key fits the KV key alphabet. Report keys are
// dotted ids and hex digests, so anything else is a caller bug.
func validKey(key string) bool {
	if key == "" || key[0] == '.' || key[len(key)-1] == '.' {
		return false
	}
	for i := 0; i < len(key); i++ {
		c := key[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		case c == '-', c == '_', c == '.', c == '=', c == '/':
		default:
			return false
		}
	}
	return true
}

func checkKey(key string) error {
	if !validKey(key) {
		return fmt.Errorf("natskv: invalid key %q", key)
	}
	return nil
}

func (c *Cache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if err := checkKey(key); err != nil {
		return nil, false, err
	}
	entry, err := c.kv.Get(ctx, key)
	switch {
	case errors.Is(err, jetstream.ErrKeyNotFound):
		return nil, false, nil
	case err != nil:
		return nil, false, fmt.Errorf("natskv get %s: %w", key, err)
	}
	return entry.Value(), true, nil
}

func (c *Cache) Set(ctx context.Context, key string, value []byte, _ time.Duration) error {
	if err := checkKey(key); err != nil {
		return err
	}
	if _, err := c.kv.Put(ctx, key, value); err != nil {
		return fmt.Errorf("natskv put %s: %w", key, err)
	}
	return nil
}

func (c *Cache) Delete(ctx context.Context, key string) error {
	if err := checkKey(key); err != nil {
		return err
	}
	if err := c.kv.Delete(ctx, key); err != nil && !errors.Is(err, jetstream.ErrKeyNotFound) {
		return fmt.Errorf("natskv delete %s: %w", key, err)
	}
	return nil
}

// DeletePrefix purges every key under prefix. The prefix must end with a
// dot, for example "report." or "report.epics-by-pi.".
func (c *Cache) DeletePrefix(ctx context.Context, prefix string) (int, error) {
	if prefix == "" || prefix[len(prefix)-1] != '.' {
		return 0, fmt.Errorf("natskv: prefix %q must end with a dot", prefix)
	}
	lister, err := c.kv.ListKeysFiltered(ctx, prefix+">")
	switch {
	case errors.Is(err, jetstream.ErrNoKeysFound):
		return 0, nil
	case err != nil:
		return 0, fmt.Errorf("natskv list %s: %w", prefix, err)
	}

	// Collect first; purging while the lister is open would race with it.
	var keys []string
	for k := range lister.Keys() {
		keys = append(keys, k)
	}
	_ = lister.Stop()

	for i, k := range keys {
		if err := c.kv.Purge(ctx, k); err != nil && !errors.Is(err, jetstream.ErrKeyNotFound) {
			return i, fmt.Errorf("natskv purge %s: %w", k, err)
		}
	}
	return len(keys), nil
}
