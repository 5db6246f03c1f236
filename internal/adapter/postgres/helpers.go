package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	apotel "github.com/Strob0t/AgilePulse/internal/adapter/otel"
	"github.com/Strob0t/AgilePulse/internal/domain"
)

// collect runs one named-argument query and maps every row onto T by column
// name. The result is never nil. Failures come back as *domain.QueryError
// tagged with op.
func collect[T any](ctx context.Context, s *Store, op, sql string, args pgx.NamedArgs) ([]T, error) {
	ctx, span := apotel.StartQuerySpan(ctx, op)
	start := time.Now()

	var out []T
	rows, err := s.pool.Query(ctx, sql, args)
	if err == nil {
		out, err = pgx.CollectRows(rows, pgx.RowToStructByName[T])
	}

	s.metrics.RecordQuery(ctx, op, time.Since(start))
	apotel.EndSpan(span, err)
	if err != nil {
		return nil, domain.NewQueryError(op, err)
	}
	return orEmpty(out), nil
}

// collectScalar is collect for single-column results.
func collectScalar[T any](ctx context.Context, s *Store, op, sql string, args pgx.NamedArgs) ([]T, error) {
	ctx, span := apotel.StartQuerySpan(ctx, op)
	start := time.Now()

	var out []T
	rows, err := s.pool.Query(ctx, sql, args)
	if err == nil {
		out, err = pgx.CollectRows(rows, pgx.RowTo[T])
	}

	s.metrics.RecordQuery(ctx, op, time.Since(start))
	apotel.EndSpan(span, err)
	if err != nil {
		return nil, domain.NewQueryError(op, err)
	}
	return orEmpty(out), nil
}

// orEmpty returns items unchanged if non-nil, or an empty slice if nil.
// Useful to ensure JSON serialization produces [] instead of null.
func orEmpty[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}

// teamArg binds an optional team restriction. A nil list becomes SQL NULL,
// which every filtered query treats as "all teams".
func teamArg(teams []string) any {
	if teams == nil {
		return nil
	}
	return teams
}
