package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Strob0t/AgilePulse/internal/domain/report"
	"github.com/Strob0t/AgilePulse/internal/resilience"
)

func TestReportCacheFetchHitAndMiss(t *testing.T) {
	c := newMemCache()
	rc := NewReportCache(c, nil, testTTLs, nil)
	ctx := context.Background()

	var computed int
	compute := func(context.Context) ([]byte, error) {
		computed++
		return []byte(`{"count":1}`), nil
	}
	filters := map[string]string{"pi": "2025-Q1"}

	for range 2 {
		got, err := rc.Fetch(ctx, report.EpicsByPI, filters, compute)
		if err != nil {
			t.Fatal(err)
		}
		if string(got) != `{"count":1}` {
			t.Fatalf("unexpected body %s", got)
		}
	}
	if computed != 1 {
		t.Fatalf("expected 1 computation, got %d", computed)
	}

	key := report.CacheKey(report.EpicsByPI, filters)
	if ttl := c.ttls[key]; ttl != testTTLs.Aggregate {
		t.Fatalf("ttl = %v, want %v", ttl, testTTLs.Aggregate)
	}
}

func TestReportCacheTTLClasses(t *testing.T) {
	c := newMemCache()
	rc := NewReportCache(c, nil, testTTLs, nil)
	ctx := context.Background()
	body := func(context.Context) ([]byte, error) { return []byte(`{}`), nil }

	tests := []struct {
		id   report.ID
		want time.Duration
	}{
		{report.CurrentSprintProgress, testTTLs.Realtime},
		{report.EpicsByPI, testTTLs.Aggregate},
		{report.PIList, testTTLs.Historical},
	}
	for _, tt := range tests {
		if _, err := rc.Fetch(ctx, tt.id, nil, body); err != nil {
			t.Fatal(err)
		}
		if got := c.ttls[report.CacheKey(tt.id, nil)]; got != tt.want {
			t.Errorf("%s ttl = %v, want %v", tt.id, got, tt.want)
		}
	}
}

func TestReportCacheCorruptEntryRecomputed(t *testing.T) {
	tests := []struct {
		name  string
		value string
	}{
		{"not json", `{broken`},
		{"json array", `[1,2,3]`},
		{"json null", `null`},
		{"json string", `"cached"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newMemCache()
			rc := NewReportCache(c, nil, testTTLs, nil)
			key := report.CacheKey(report.EpicsByPI, nil)
			c.data[key] = []byte(tt.value)

			got, err := rc.Fetch(context.Background(), report.EpicsByPI, nil, func(context.Context) ([]byte, error) {
				return []byte(`{"fresh":true}`), nil
			})
			if err != nil {
				t.Fatal(err)
			}
			if string(got) != `{"fresh":true}` {
				t.Fatalf("expected recomputed body, got %s", got)
			}
			if c.deletes == 0 {
				t.Fatal("expected corrupt entry to be deleted")
			}
			if string(c.data[key]) != `{"fresh":true}` {
				t.Fatalf("expected fresh entry stored, got %s", c.data[key])
			}
		})
	}
}

func TestReportCacheFailuresNeverFailRequest(t *testing.T) {
	c := newMemCache()
	c.getErr = errors.New("cache down")
	c.setErr = errors.New("cache down")
	rc := NewReportCache(c, nil, testTTLs, nil)

	got, err := rc.Fetch(context.Background(), report.EpicsByPI, nil, func(context.Context) ([]byte, error) {
		return []byte(`{"ok":true}`), nil
	})
	if err != nil {
		t.Fatalf("cache failure leaked: %v", err)
	}
	if string(got) != `{"ok":true}` {
		t.Fatalf("unexpected body %s", got)
	}
}

func TestReportCacheComputeErrorNotCached(t *testing.T) {
	c := newMemCache()
	rc := NewReportCache(c, nil, testTTLs, nil)
	boom := errors.New("boom")

	_, err := rc.Fetch(context.Background(), report.EpicsByPI, nil, func(context.Context) ([]byte, error) {
		return nil, boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected compute error, got %v", err)
	}
	if len(c.data) != 0 {
		t.Fatalf("expected nothing cached, got %d entries", len(c.data))
	}
}

func TestReportCacheBreakerShortCircuits(t *testing.T) {
	c := newMemCache()
	c.getErr = errors.New("cache down")
	c.setErr = errors.New("cache down")
	rc := NewReportCache(c, resilience.NewBreaker(2, time.Hour), testTTLs, nil)
	ctx := context.Background()
	compute := func(context.Context) ([]byte, error) { return []byte(`{}`), nil }

	for range 5 {
		if _, err := rc.Fetch(ctx, report.EpicsByPI, nil, compute); err != nil {
			t.Fatal(err)
		}
	}
	// One get and one set trip the breaker; later calls never reach the cache.
	if c.gets != 1 || c.sets != 1 {
		t.Fatalf("expected breaker to stop cache calls, got %d gets, %d sets", c.gets, c.sets)
	}
}

func TestReportCacheSingleflight(t *testing.T) {
	c := newMemCache()
	rc := NewReportCache(c, nil, testTTLs, nil)

	var computed atomic.Int32
	release := make(chan struct{})
	compute := func(context.Context) ([]byte, error) {
		computed.Add(1)
		<-release
		return []byte(`{"shared":true}`), nil
	}

	const callers = 8
	var wg sync.WaitGroup
	var started sync.WaitGroup
	started.Add(callers)
	errs := make(chan error, callers)
	for range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			started.Done()
			_, err := rc.Fetch(context.Background(), report.EpicsByPI, nil, compute)
			errs <- err
		}()
	}
	started.Wait()
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Fatal(err)
		}
	}
	if n := computed.Load(); n != 1 {
		t.Fatalf("expected 1 shared computation, got %d", n)
	}
}

func TestReportCacheNilComputesDirectly(t *testing.T) {
	var rc *ReportCache
	got, err := rc.Fetch(context.Background(), report.EpicsByPI, nil, func(context.Context) ([]byte, error) {
		return []byte(`{"direct":true}`), nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != `{"direct":true}` {
		t.Fatalf("unexpected body %s", got)
	}
	if n, err := rc.InvalidateReports(context.Background()); n != 0 || err != nil {
		t.Fatalf("nil cache invalidate = %d, %v", n, err)
	}
}

func TestReportCacheInvalidateReports(t *testing.T) {
	c := newMemCache()
	rc := NewReportCache(c, nil, testTTLs, nil)
	ctx := context.Background()

	c.data["report.epics-by-pi.aa"] = []byte(`{}`)
	c.data["report.pi-list.bb"] = []byte(`{}`)
	c.data[hierarchyKey] = []byte(`{}`)

	n, err := rc.InvalidateReports(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Fatalf("expected 2 removed, got %d", n)
	}
	if _, ok := c.data[hierarchyKey]; !ok {
		t.Fatal("hierarchy snapshot must survive report invalidation")
	}
}

func TestReportCacheCancelledFirstCallerDoesNotFailOthers(t *testing.T) {
	c := newMemCache()
	rc := NewReportCache(c, nil, testTTLs, nil)

	started := make(chan struct{})
	release := make(chan struct{})
	compute := func(ctx context.Context) ([]byte, error) {
		close(started)
		select {
		case <-release:
			return []byte(`{"count":3}`), nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	firstCtx, cancelFirst := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := rc.Fetch(firstCtx, report.EpicsByPI, nil, compute)
		firstErr <- err
	}()
	<-started

	type result struct {
		body []byte
		err  error
	}
	second := make(chan result, 1)
	go func() {
		body, err := rc.Fetch(context.Background(), report.EpicsByPI, nil, compute)
		second <- result{body, err}
	}()
	time.Sleep(50 * time.Millisecond)

	cancelFirst()
	if err := <-firstErr; !errors.Is(err, context.Canceled) {
		t.Fatalf("first caller error = %v, want context.Canceled", err)
	}
	close(release)

	res := <-second
	if res.err != nil {
		t.Fatalf("second caller failed with the first caller's cancellation: %v", res.err)
	}
	if string(res.body) != `{"count":3}` {
		t.Fatalf("unexpected body %s", res.body)
	}
	if _, ok := c.data[report.CacheKey(report.EpicsByPI, nil)]; !ok {
		t.Fatal("shared result should still be cached")
	}
}

func TestReportCacheCallerHonorsOwnDeadline(t *testing.T) {
	rc := NewReportCache(newMemCache(), nil, testTTLs, nil)
	release := make(chan struct{})
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	start := time.Now()
	_, err := rc.Fetch(ctx, report.EpicsByPI, nil, func(context.Context) ([]byte, error) {
		<-release
		return []byte(`{}`), nil
	})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v, want deadline exceeded", err)
	}
	if time.Since(start) > time.Second {
		t.Fatal("caller waited past its own deadline")
	}
}
