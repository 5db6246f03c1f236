// Package cache defines the byte-level cache port behind the report cache.
// Values are rendered report bodies; keys are built by report.CacheKey.
package cache

import (
	"context"
	"time"
)

// Cache stores rendered reports. A miss is (nil, false, nil); an error means
// the backend could not answer and the caller should compute instead.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores value for ttl. Backends with a bucket-wide TTL ignore ttl.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// PrefixInvalidator is implemented by caches that can drop every key under a
// prefix. It returns the number of keys removed.
type PrefixInvalidator interface {
	DeletePrefix(ctx context.Context, prefix string) (int, error)
}
