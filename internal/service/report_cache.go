// Package service implements the reporting use cases on top of ports.
package service

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	apotel "github.com/Strob0t/AgilePulse/internal/adapter/otel"
	"github.com/Strob0t/AgilePulse/internal/domain/report"
	"github.com/Strob0t/AgilePulse/internal/port/cache"
	"github.com/Strob0t/AgilePulse/internal/resilience"
)

// ReportCache is the best-effort response cache in front of the reports.
// Cache failures are logged and never fail a request. A nil *ReportCache
// computes every report directly.
type ReportCache struct {
	cache   cache.Cache
	breaker *resilience.Breaker
	ttls    report.TTLs
	metrics *apotel.Metrics
	group   singleflight.Group
}

// NewReportCache wraps c. breaker may be nil.
func NewReportCache(c cache.Cache, breaker *resilience.Breaker, ttls report.TTLs, metrics *apotel.Metrics) *ReportCache {
	return &ReportCache{cache: c, breaker: breaker, ttls: ttls, metrics: metrics}
}

// Fetch returns the cached rendering for (id, filters) or computes, stores
// and returns it. Concurrent misses for the same key share one computation.
func (rc *ReportCache) Fetch(ctx context.Context, id report.ID, filters map[string]string, compute func(context.Context) ([]byte, error)) (json.RawMessage, error) {
	if rc == nil {
		return compute(ctx)
	}

	key := report.CacheKey(id, filters)
	if data, ok := rc.get(ctx, key); ok {
		rc.metrics.RecordCache(ctx, string(id), true)
		return data, nil
	}
	rc.metrics.RecordCache(ctx, string(id), false)

	v, err := shared(ctx, &rc.group, key, func(sctx context.Context) (any, error) {
		data, err := compute(sctx)
		if err != nil {
			return nil, err
		}
		rc.set(sctx, key, data, rc.ttls.For(id.Class()))
		return data, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

// sharedTimeout bounds a computation shared by concurrent callers. It no
// longer follows the first caller's deadline, so it needs its own.
const sharedTimeout = time.Minute

// shared runs fn once per key for all concurrent callers. fn keeps the first
// caller's values but not its cancellation; every caller still returns as
// soon as its own ctx is done.
func shared(ctx context.Context, g *singleflight.Group, key string, fn func(context.Context) (any, error)) (any, error) {
	ch := g.DoChan(key, func() (any, error) {
		sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sharedTimeout)
		defer cancel()
		return fn(sctx)
	})
	select {
	case res := <-ch:
		return res.Val, res.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// InvalidateReports drops every cached report and returns how many entries
// were removed. A cache without prefix support reports zero.
func (rc *ReportCache) InvalidateReports(ctx context.Context) (int, error) {
	if rc == nil {
		return 0, nil
	}
	pi, ok := rc.cache.(cache.PrefixInvalidator)
	if !ok {
		slog.Warn("cache does not support prefix invalidation")
		return 0, nil
	}
	var n int
	err := rc.guard(func() error {
		var err error
		n, err = pi.DeletePrefix(ctx, report.KeyPrefix)
		return err
	})
	return n, err
}

// get returns a valid cached value. Entries that are not a JSON object are
// deleted.
func (rc *ReportCache) get(ctx context.Context, key string) ([]byte, bool) {
	var (
		data  []byte
		found bool
	)
	err := rc.guard(func() error {
		var err error
		data, found, err = rc.cache.Get(ctx, key)
		return err
	})
	if err != nil {
		slog.WarnContext(ctx, "cache get failed", "key", key, "error", err)
		return nil, false
	}
	if !found {
		return nil, false
	}
	if !isObject(data) {
		slog.WarnContext(ctx, "dropping corrupt cache entry", "key", key)
		rc.delete(ctx, key)
		return nil, false
	}
	return data, true
}

func (rc *ReportCache) set(ctx context.Context, key string, data []byte, ttl time.Duration) {
	if err := rc.guard(func() error { return rc.cache.Set(ctx, key, data, ttl) }); err != nil {
		slog.WarnContext(ctx, "cache set failed", "key", key, "error", err)
	}
}

func (rc *ReportCache) delete(ctx context.Context, key string) {
	if err := rc.guard(func() error { return rc.cache.Delete(ctx, key) }); err != nil {
		slog.WarnContext(ctx, "cache delete failed", "key", key, "error", err)
	}
}

func (rc *ReportCache) guard(fn func() error) error {
	if rc.breaker == nil {
		return fn()
	}
	return rc.breaker.Execute(fn)
}

func isObject(data []byte) bool {
	var m map[string]json.RawMessage
	return json.Unmarshal(data, &m) == nil && m != nil
}
