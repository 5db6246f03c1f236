package service

import (
	"context"
	"encoding/json"
	"strings"

	apotel "github.com/Strob0t/AgilePulse/internal/adapter/otel"
	"github.com/Strob0t/AgilePulse/internal/domain"
	"github.com/Strob0t/AgilePulse/internal/domain/org"
	"github.com/Strob0t/AgilePulse/internal/domain/report"
	"github.com/Strob0t/AgilePulse/internal/domain/teammetrics"
	"github.com/Strob0t/AgilePulse/internal/port/database"
)

// TeamMetricsService builds the single-number team indicators.
type TeamMetricsService struct {
	runner
	store database.TeamMetricsStore
}

// NewTeamMetricsService creates a TeamMetricsService.
func NewTeamMetricsService(store database.TeamMetricsStore, orgs *OrgService, cache *ReportCache, metrics *apotel.Metrics) *TeamMetricsService {
	return &TeamMetricsService{runner: runner{org: orgs, cache: cache, metrics: metrics}, store: store}
}

// CountInProgress returns the issues in progress of the filtered teams by
// issue type.
func (s *TeamMetricsService) CountInProgress(ctx context.Context, f Filter) (json.RawMessage, error) {
	if err := requireTeam(f); err != nil {
		return nil, err
	}
	return s.run(ctx, report.TeamCountInProgress, f, nil,
		func(ctx context.Context, tf org.TeamFilter) (any, error) {
			rows, err := s.store.InProgressByType(ctx, tf.TeamNames())
			if err != nil {
				return nil, err
			}
			return teammetrics.CountInProgress(rows), nil
		})
}

// CurrentSprintCompletion returns the share of done issues across the active
// sprints of the filtered teams.
func (s *TeamMetricsService) CurrentSprintCompletion(ctx context.Context, f Filter) (json.RawMessage, error) {
	if err := requireTeam(f); err != nil {
		return nil, err
	}
	return s.run(ctx, report.TeamSprintCompletion, f, nil,
		func(ctx context.Context, tf org.TeamFilter) (any, error) {
			rows, err := s.store.ActiveSprintProgress(ctx, tf.TeamNames())
			if err != nil {
				return nil, err
			}
			return teammetrics.SprintCompletion(rows), nil
		})
}

func requireTeam(f Filter) error {
	if strings.TrimSpace(f.TeamName) == "" {
		return domain.Validationf("team_name is required")
	}
	return nil
}
