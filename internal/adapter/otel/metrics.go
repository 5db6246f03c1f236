package otel

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "agilepulse"

// Metrics holds all reporting metric instruments. A nil *Metrics records
// nothing.
type Metrics struct {
	ReportRequests  metric.Int64Counter
	ReportFailures  metric.Int64Counter
	CacheHits       metric.Int64Counter
	CacheMisses     metric.Int64Counter
	QueryDuration   metric.Float64Histogram
	SprintConflicts metric.Int64Counter
}

// NewMetrics creates all metric instruments on the global meter provider.
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter(meterName)
	m := &Metrics{}
	var err error

	m.ReportRequests, err = meter.Int64Counter("agilepulse.reports.requests",
		metric.WithDescription("Number of report requests"))
	if err != nil {
		return nil, err
	}

	m.ReportFailures, err = meter.Int64Counter("agilepulse.reports.failures",
		metric.WithDescription("Number of failed report requests"))
	if err != nil {
		return nil, err
	}

	m.CacheHits, err = meter.Int64Counter("agilepulse.cache.hits",
		metric.WithDescription("Number of report cache hits"))
	if err != nil {
		return nil, err
	}

	m.CacheMisses, err = meter.Int64Counter("agilepulse.cache.misses",
		metric.WithDescription("Number of report cache misses"))
	if err != nil {
		return nil, err
	}

	m.QueryDuration, err = meter.Float64Histogram("agilepulse.store.query.duration_seconds",
		metric.WithDescription("Read store query duration in seconds"),
		metric.WithUnit("s"))
	if err != nil {
		return nil, err
	}

	m.SprintConflicts, err = meter.Int64Counter("agilepulse.sprint.conflicts",
		metric.WithDescription("Number of requests rejected for spanning several sprints"))
	if err != nil {
		return nil, err
	}

	return m, nil
}

// RecordRequest counts one report request.
func (m *Metrics) RecordRequest(ctx context.Context, report string) {
	if m == nil {
		return
	}
	m.ReportRequests.Add(ctx, 1, metric.WithAttributes(attribute.String("report", report)))
}

// RecordFailure counts one failed report request by error kind.
func (m *Metrics) RecordFailure(ctx context.Context, report, kind string) {
	if m == nil {
		return
	}
	m.ReportFailures.Add(ctx, 1, metric.WithAttributes(
		attribute.String("report", report),
		attribute.String("kind", kind),
	))
}

// RecordCache counts a cache lookup outcome.
func (m *Metrics) RecordCache(ctx context.Context, report string, hit bool) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("report", report))
	if hit {
		m.CacheHits.Add(ctx, 1, attrs)
		return
	}
	m.CacheMisses.Add(ctx, 1, attrs)
}

// RecordQuery records the duration of one store query.
func (m *Metrics) RecordQuery(ctx context.Context, op string, d time.Duration) {
	if m == nil {
		return
	}
	m.QueryDuration.Record(ctx, d.Seconds(), metric.WithAttributes(attribute.String("op", op)))
}

// RecordSprintConflict counts one rejected multi-sprint request.
func (m *Metrics) RecordSprintConflict(ctx context.Context, report string) {
	if m == nil {
		return
	}
	m.SprintConflicts.Add(ctx, 1, metric.WithAttributes(attribute.String("report", report)))
}
