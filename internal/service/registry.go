package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/Strob0t/AgilePulse/internal/domain"
	"github.com/Strob0t/AgilePulse/internal/domain/report"
	"github.com/Strob0t/AgilePulse/internal/port/database"
)

// Source produces the data of a registry report from its merged filters.
type Source func(ctx context.Context, filters map[string]string) (json.RawMessage, error)

// ReportSources are the services a registry dispatches to. A nil service
// leaves its data sources unregistered.
type ReportSources struct {
	Epics        *EpicService
	Dependencies *DependencyService
	Sprints      *SprintService
	PIs          *PIService
	Teams        *TeamMetricsService
	Issues       *IssueService
}

// ReportRegistry serves the stored report definitions and resolves a
// definition through the report service named by its data source.
type ReportRegistry struct {
	store   database.ReportStore
	sources map[string]Source
}

// NewReportRegistry creates a registry over the given services.
func NewReportRegistry(store database.ReportStore, src ReportSources) *ReportRegistry {
	r := &ReportRegistry{store: store, sources: map[string]Source{}}
	if s := src.Epics; s != nil {
		r.Register(report.SourceEpicsByPI, func(ctx context.Context, p map[string]string) (json.RawMessage, error) {
			return withFilter(p, func(f Filter) (json.RawMessage, error) { return s.EpicsByPI(ctx, p["pi"], f) })
		})
	}
	if s := src.Dependencies; s != nil {
		r.Register(report.SourceEpicInboundDependency, func(ctx context.Context, p map[string]string) (json.RawMessage, error) {
			return withFilter(p, func(f Filter) (json.RawMessage, error) { return s.InboundLoad(ctx, p["pi"], f) })
		})
		r.Register(report.SourceEpicOutboundDependency, func(ctx context.Context, p map[string]string) (json.RawMessage, error) {
			return withFilter(p, func(f Filter) (json.RawMessage, error) { return s.OutboundMetrics(ctx, p["pi"], f) })
		})
	}
	if s := src.Sprints; s != nil {
		r.Register(report.SourceCurrentSprintProgress, func(ctx context.Context, p map[string]string) (json.RawMessage, error) {
			return withFilter(p, func(f Filter) (json.RawMessage, error) { return s.CurrentProgress(ctx, f) })
		})
		r.Register(report.SourceSprintBurndown, func(ctx context.Context, p map[string]string) (json.RawMessage, error) {
			return withFilter(p, func(f Filter) (json.RawMessage, error) {
				return s.Burndown(ctx, f, p["sprint_name"], p["issue_type"])
			})
		})
		r.Register(report.SourceSprintList, func(ctx context.Context, p map[string]string) (json.RawMessage, error) {
			return withFilter(p, func(f Filter) (json.RawMessage, error) { return s.ListSprints(ctx, f, p["state"]) })
		})
		r.Register(report.SourceActiveSprintSummaryByTeam, func(ctx context.Context, p map[string]string) (json.RawMessage, error) {
			return withFilter(p, func(f Filter) (json.RawMessage, error) { return s.ActiveSummaryByTeam(ctx, f) })
		})
	}
	if s := src.PIs; s != nil {
		r.Register(report.SourcePIWorkInProgressSummary, func(ctx context.Context, p map[string]string) (json.RawMessage, error) {
			return withFilter(p, func(f Filter) (json.RawMessage, error) { return s.WIPSummary(ctx, p["pi"], f) })
		})
		r.Register(report.SourcePIList, func(ctx context.Context, _ map[string]string) (json.RawMessage, error) {
			return s.List(ctx)
		})
	}
	if s := src.Teams; s != nil {
		r.Register(report.SourceTeamCountInProgress, func(ctx context.Context, p map[string]string) (json.RawMessage, error) {
			return withFilter(p, func(f Filter) (json.RawMessage, error) { return s.CountInProgress(ctx, f) })
		})
		r.Register(report.SourceTeamSprintCompletion, func(ctx context.Context, p map[string]string) (json.RawMessage, error) {
			return withFilter(p, func(f Filter) (json.RawMessage, error) { return s.CurrentSprintCompletion(ctx, f) })
		})
	}
	if s := src.Issues; s != nil {
		r.Register(report.SourceIssuesGroupedByTeam, func(ctx context.Context, p map[string]string) (json.RawMessage, error) {
			return withFilter(p, func(f Filter) (json.RawMessage, error) {
				return s.GroupedByTeam(ctx, f, p["issue_type"], p["status_category"])
			})
		})
	}
	return r
}

// Register binds a data source name. It must not be called once the
// registry serves requests.
func (r *ReportRegistry) Register(name string, fn Source) {
	r.sources[name] = fn
}

// Definitions returns every stored definition ordered by name.
func (r *ReportRegistry) Definitions(ctx context.Context) ([]report.Definition, error) {
	defs, err := r.store.ListReportDefinitions(ctx)
	if err != nil {
		return nil, err
	}
	for i := range defs {
		normalizeDefinition(&defs[i])
	}
	return defs, nil
}

// Resolve merges params over the defaults of definition id, checks its
// required filters and runs its data source.
func (r *ReportRegistry) Resolve(ctx context.Context, id string, params map[string]string) (report.Resolved, error) {
	id = strings.TrimSpace(id)
	def, err := r.store.ReportDefinition(ctx, id)
	if err != nil {
		return report.Resolved{}, err
	}
	if def == nil {
		return report.Resolved{}, &domain.NotFoundError{Kind: domain.KindReport, Name: id}
	}
	normalizeDefinition(def)

	filters := def.MergeFilters(params)
	if missing := def.MissingFilters(filters); len(missing) > 0 {
		return report.Resolved{}, domain.Validationf("missing required filters: %s", strings.Join(missing, ", "))
	}

	source, ok := r.sources[def.DataSource]
	if !ok {
		return report.Resolved{}, fmt.Errorf("report %q has unsupported data source %q", id, def.DataSource)
	}
	slog.DebugContext(ctx, "resolving report", "report_id", id, "data_source", def.DataSource)
	data, err := source(ctx, filters)
	if err != nil {
		return report.Resolved{}, err
	}
	return report.Resolved{Definition: *def, Filters: filters, Result: data}, nil
}

// withFilter reads team_name and isGroup from merged filters.
func withFilter(p map[string]string, fn func(Filter) (json.RawMessage, error)) (json.RawMessage, error) {
	f := Filter{TeamName: p["team_name"]}
	if raw := p["isGroup"]; raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, domain.Validationf("isGroup must be true or false")
		}
		f.IsGroup = v
	}
	return fn(f)
}

func normalizeDefinition(d *report.Definition) {
	if d.DefaultFilters == nil {
		d.DefaultFilters = map[string]any{}
	}
	if d.MetaSchema == nil {
		d.MetaSchema = map[string]any{}
	}
}
