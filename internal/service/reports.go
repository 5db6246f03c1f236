package service

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"

	apotel "github.com/Strob0t/AgilePulse/internal/adapter/otel"
	"github.com/Strob0t/AgilePulse/internal/domain"
	"github.com/Strob0t/AgilePulse/internal/domain/org"
	"github.com/Strob0t/AgilePulse/internal/domain/report"
)

// Filter is the team filter of a report request as the caller sent it.
type Filter struct {
	TeamName string
	IsGroup  bool
}

func (f Filter) scope() string {
	switch {
	case f.TeamName == "":
		return org.ScopeAll.String()
	case f.IsGroup:
		return org.ScopeGroup.String()
	default:
		return org.ScopeTeam.String()
	}
}

// runner resolves the filter, consults the cache and records telemetry for
// one report request.
type runner struct {
	org     *OrgService
	cache   *ReportCache
	metrics *apotel.Metrics
}

type buildFunc func(ctx context.Context, f org.TeamFilter) (any, error)

// run produces the scoped JSON rendering of report id. params are the
// request parameters besides the team filter; together with the filter they
// form the cache key.
func (r *runner) run(ctx context.Context, id report.ID, f Filter, params map[string]string, build buildFunc) (json.RawMessage, error) {
	ctx, span := apotel.StartReportSpan(ctx, string(id), f.scope())
	r.metrics.RecordRequest(ctx, string(id))

	data, err := r.exec(ctx, id, f, params, build)
	if err != nil {
		r.metrics.RecordFailure(ctx, string(id), failureKind(err))
		if errors.Is(err, domain.ErrSprintConflict) {
			r.metrics.RecordSprintConflict(ctx, string(id))
		}
	}
	apotel.EndSpan(span, err)
	return data, err
}

func (r *runner) exec(ctx context.Context, id report.ID, f Filter, params map[string]string, build buildFunc) (json.RawMessage, error) {
	tf, err := r.org.ResolveFilter(ctx, f.TeamName, f.IsGroup)
	if err != nil {
		return nil, err
	}

	key := map[string]string{
		"team_name": f.TeamName,
		"is_group":  strconv.FormatBool(f.IsGroup),
	}
	for k, v := range params {
		key[k] = v
	}

	return r.cache.Fetch(ctx, id, key, func(ctx context.Context) ([]byte, error) {
		body, err := build(ctx, tf)
		if err != nil {
			return nil, err
		}
		return report.MarshalScoped(body, tf)
	})
}

func failureKind(err error) string {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrSprintConflict):
		return "sprint_conflict"
	case errors.Is(err, domain.ErrValidation):
		return "validation"
	case errors.Is(err, domain.ErrQuery):
		return "query"
	default:
		return "internal"
	}
}
