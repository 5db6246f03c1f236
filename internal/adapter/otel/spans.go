package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "agilepulse"

// StartReportSpan starts a span for one report computation.
func StartReportSpan(ctx context.Context, report, scope string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "report",
		trace.WithAttributes(
			attribute.String("report.id", report),
			attribute.String("filter.scope", scope),
		),
	)
}

// StartQuerySpan starts a span for one batched store query.
func StartQuerySpan(ctx context.Context, op string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "store.query",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("db.operation", op)),
	)
}

// EndSpan records err on span, if any, and ends it.
func EndSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
