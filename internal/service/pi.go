package service

import (
	"context"
	"encoding/json"
	"strings"

	apotel "github.com/Strob0t/AgilePulse/internal/adapter/otel"
	"github.com/Strob0t/AgilePulse/internal/domain"
	"github.com/Strob0t/AgilePulse/internal/domain/org"
	"github.com/Strob0t/AgilePulse/internal/domain/pi"
	"github.com/Strob0t/AgilePulse/internal/domain/report"
	"github.com/Strob0t/AgilePulse/internal/port/database"
)

// PIService serves program increments and their WIP summary.
type PIService struct {
	runner
	store database.PIStore
}

// NewPIService creates a PIService.
func NewPIService(store database.PIStore, orgs *OrgService, cache *ReportCache, metrics *apotel.Metrics) *PIService {
	return &PIService{runner: runner{org: orgs, cache: cache, metrics: metrics}, store: store}
}

// List returns every PI ordered by start date.
func (s *PIService) List(ctx context.Context) (json.RawMessage, error) {
	return s.run(ctx, report.PIList, Filter{}, nil,
		func(ctx context.Context, _ org.TeamFilter) (any, error) {
			pis, err := s.store.ListPIs(ctx)
			if err != nil {
				return nil, err
			}
			if pis == nil {
				pis = []pi.PI{}
			}
			return pi.List{PIs: pis, Count: len(pis)}, nil
		})
}

// Names returns the PI names in list order, uncached.
func (s *PIService) Names(ctx context.Context) ([]string, error) {
	pis, err := s.store.ListPIs(ctx)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(pis))
	for _, p := range pis {
		names = append(names, p.Name)
	}
	return names, nil
}

// WIPSummary returns per-team epic work in progress for the PI.
func (s *PIService) WIPSummary(ctx context.Context, piName string, f Filter) (json.RawMessage, error) {
	piName = strings.TrimSpace(piName)
	if piName == "" {
		return nil, domain.Validationf("pi is required")
	}
	return s.run(ctx, report.PIWorkInProgressSummary, f, map[string]string{"pi": piName},
		func(ctx context.Context, tf org.TeamFilter) (any, error) {
			rows, err := s.store.PIWorkInProgress(ctx, piName, tf.TeamNames())
			if err != nil {
				return nil, err
			}
			return pi.Summarize(piName, rows), nil
		})
}
