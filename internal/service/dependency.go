package service

import (
	"context"
	"encoding/json"
	"strings"

	apotel "github.com/Strob0t/AgilePulse/internal/adapter/otel"
	"github.com/Strob0t/AgilePulse/internal/domain/dependency"
	"github.com/Strob0t/AgilePulse/internal/domain/org"
	"github.com/Strob0t/AgilePulse/internal/domain/report"
	"github.com/Strob0t/AgilePulse/internal/port/database"
)

// DependencyService serves the precomputed cross-team dependency views.
type DependencyService struct {
	runner
	store database.DependencyStore
}

// NewDependencyService creates a DependencyService.
func NewDependencyService(store database.DependencyStore, orgs *OrgService, cache *ReportCache, metrics *apotel.Metrics) *DependencyService {
	return &DependencyService{runner: runner{org: orgs, cache: cache, metrics: metrics}, store: store}
}

// InboundLoad returns the inbound dependency load per epic. An empty piName
// covers every quarter.
func (s *DependencyService) InboundLoad(ctx context.Context, piName string, f Filter) (json.RawMessage, error) {
	piName = strings.TrimSpace(piName)
	return s.run(ctx, report.EpicInboundDependency, f, map[string]string{"pi": piName},
		func(ctx context.Context, tf org.TeamFilter) (any, error) {
			rows, err := s.store.InboundDependencyLoad(ctx, piName, tf.TeamNames())
			if err != nil {
				return nil, err
			}
			return dependency.NewInboundReport(rows), nil
		})
}

// OutboundMetrics returns the outbound dependency metrics per epic. An empty
// piName covers every quarter.
func (s *DependencyService) OutboundMetrics(ctx context.Context, piName string, f Filter) (json.RawMessage, error) {
	piName = strings.TrimSpace(piName)
	return s.run(ctx, report.EpicOutboundDependency, f, map[string]string{"pi": piName},
		func(ctx context.Context, tf org.TeamFilter) (any, error) {
			rows, err := s.store.OutboundDependencyMetrics(ctx, piName, tf.TeamNames())
			if err != nil {
				return nil, err
			}
			return dependency.NewOutboundReport(rows), nil
		})
}
