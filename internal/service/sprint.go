package service

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"time"

	apotel "github.com/Strob0t/AgilePulse/internal/adapter/otel"
	"github.com/Strob0t/AgilePulse/internal/domain"
	"github.com/Strob0t/AgilePulse/internal/domain/org"
	"github.com/Strob0t/AgilePulse/internal/domain/report"
	"github.com/Strob0t/AgilePulse/internal/domain/sprint"
	"github.com/Strob0t/AgilePulse/internal/port/database"
)

// Multi-sprint policies of the sprint endpoints.
const (
	CurrentSprintPolicy = sprint.Aggregate
	BurndownPolicy      = sprint.Reject
)

// Policies maps sprint reports to their multi-sprint policy.
type Policies map[report.ID]sprint.Policy

// DefaultPolicies returns the built-in endpoint policies.
func DefaultPolicies() Policies {
	return Policies{
		report.CurrentSprintProgress: CurrentSprintPolicy,
		report.SprintBurndown:        BurndownPolicy,
	}
}

// PoliciesFromConfig applies start-up overrides keyed by report id on top of
// the defaults. A burndown covers exactly one sprint, so it only accepts
// Reject.
func PoliciesFromConfig(overrides map[string]string) (Policies, error) {
	p := DefaultPolicies()
	for id, name := range overrides {
		rid := report.ID(id)
		if _, ok := p[rid]; !ok {
			return nil, fmt.Errorf("sprint policy for unknown report %q", id)
		}
		policy, err := sprint.ParsePolicy(name)
		if err != nil {
			return nil, err
		}
		if rid == report.SprintBurndown && policy != sprint.Reject {
			return nil, fmt.Errorf("sprint policy for %s must be reject", id)
		}
		p[rid] = policy
	}
	return p, nil
}

// For returns the policy of id, Aggregate when unset.
func (p Policies) For(id report.ID) sprint.Policy {
	return p[id]
}

// SprintService builds the sprint list, current sprint progress, per-team
// summary and burndown reports.
type SprintService struct {
	runner
	store    database.SprintStore
	policies Policies
	now      func() time.Time
}

// NewSprintService creates a SprintService. A nil policies uses the defaults.
func NewSprintService(store database.SprintStore, orgs *OrgService, cache *ReportCache, metrics *apotel.Metrics, policies Policies) *SprintService {
	if policies == nil {
		policies = DefaultPolicies()
	}
	return &SprintService{
		runner:   runner{org: orgs, cache: cache, metrics: metrics},
		store:    store,
		policies: policies,
		now:      time.Now,
	}
}

func (s *SprintService) today() domain.Date {
	return domain.NewDate(s.now())
}

// CurrentProgress returns the active sprint progress of the filtered teams.
func (s *SprintService) CurrentProgress(ctx context.Context, f Filter) (json.RawMessage, error) {
	today := s.today()
	return s.run(ctx, report.CurrentSprintProgress, f, map[string]string{"today": today.String()},
		func(ctx context.Context, tf org.TeamFilter) (any, error) {
			rows, err := s.store.ActiveSprintProgress(ctx, tf.TeamNames())
			if err != nil {
				return nil, err
			}
			return sprint.Reconcile(rows, s.policies.For(report.CurrentSprintProgress), filterLabel(tf), today)
		})
}

// Burndown returns the daily burndown of one sprint of the filtered teams.
// The sprint is the named one, or the single active sprint of the teams.
func (s *SprintService) Burndown(ctx context.Context, f Filter, sprintName, issueType string) (json.RawMessage, error) {
	sprintName = strings.TrimSpace(sprintName)
	issueType = strings.TrimSpace(issueType)
	if issueType == "" {
		issueType = sprint.IssueTypeAll
	}
	params := map[string]string{"sprint_name": sprintName, "issue_type": issueType}
	return s.run(ctx, report.SprintBurndown, f, params,
		func(ctx context.Context, tf org.TeamFilter) (any, error) {
			return s.burndown(ctx, tf, sprintName, issueType)
		})
}

func (s *SprintService) burndown(ctx context.Context, tf org.TeamFilter, sprintName, issueType string) (sprint.Burndown, error) {
	if tf.Scope == org.ScopeAll {
		return sprint.EmptyBurndown(issueType), nil
	}
	teams := tf.TeamNames()
	label := filterLabel(tf)

	var (
		chosen *sprint.Sprint
		auto   bool
	)
	if sprintName != "" {
		candidates, err := s.store.SprintsForTeams(ctx, teams, sprintName)
		if err != nil {
			return sprint.Burndown{}, err
		}
		chosen, err = sprint.Single(candidates, label)
		if err != nil {
			return sprint.Burndown{}, err
		}
		if chosen == nil {
			return sprint.Burndown{}, &domain.NotFoundError{Kind: domain.KindSprint, Name: sprintName}
		}
	} else {
		rows, err := s.store.ActiveSprintProgress(ctx, teams)
		if err != nil {
			return sprint.Burndown{}, err
		}
		p, err := sprint.Reconcile(rows, s.policies.For(report.SprintBurndown), label, s.today())
		if err != nil {
			return sprint.Burndown{}, err
		}
		if p.SprintID == nil {
			if p.SprintCount > 1 {
				return sprint.Burndown{}, &domain.SprintConflictError{Filter: label, Sprints: activeSprintNames(rows)}
			}
			return sprint.EmptyBurndown(issueType), nil
		}
		chosen = &sprint.Sprint{ID: *p.SprintID, Name: *p.Name, StartDate: p.StartDate, EndDate: p.EndDate}
		auto = true
	}

	points, err := s.store.SprintBurndown(ctx, chosen.ID, teams, issueType)
	if err != nil {
		return sprint.Burndown{}, err
	}
	if points == nil {
		points = []sprint.Point{}
	}
	total := 0
	for _, pt := range points {
		total = max(total, pt.TotalIssues)
	}

	id, name := chosen.ID, chosen.Name
	return sprint.Burndown{
		SprintID:            &id,
		SprintName:          &name,
		StartDate:           chosen.StartDate,
		EndDate:             chosen.EndDate,
		IssueType:           issueType,
		AutoSelected:        auto,
		TotalIssuesInSprint: total,
		Count:               len(points),
		Points:              points,
	}, nil
}

// ListSprints returns the sprints the filtered teams have work in, newest first.
// Without a filter every sprint is listed. state narrows to one sprint state.
func (s *SprintService) ListSprints(ctx context.Context, f Filter, state string) (json.RawMessage, error) {
	state = strings.ToLower(strings.TrimSpace(state))
	return s.run(ctx, report.SprintList, f, map[string]string{"state": state},
		func(ctx context.Context, tf org.TeamFilter) (any, error) {
			entries, err := s.store.ListSprints(ctx, tf.TeamNames(), state)
			if err != nil {
				return nil, err
			}
			return sprint.NewList(entries), nil
		})
}

// ActiveSummaryByTeam returns the active sprint progress of each filtered
// team. A team or group is required.
func (s *SprintService) ActiveSummaryByTeam(ctx context.Context, f Filter) (json.RawMessage, error) {
	if err := requireTeam(f); err != nil {
		return nil, err
	}
	today := s.today()
	return s.run(ctx, report.ActiveSprintSummaryByTeam, f, map[string]string{"today": today.String()},
		func(ctx context.Context, tf org.TeamFilter) (any, error) {
			rows, err := s.store.TeamActiveSprints(ctx, tf.TeamNames())
			if err != nil {
				return nil, err
			}
			return sprint.SummarizeTeams(rows, today), nil
		})
}

func activeSprintNames(rows []sprint.ProgressRow) []string {
	names := make([]string, 0, len(rows))
	for _, r := range rows {
		names = append(names, r.SprintName)
	}
	slices.Sort(names)
	return slices.Compact(names)
}

// filterLabel names a filter in conflict messages.
func filterLabel(tf org.TeamFilter) string {
	if tf.Scope == org.ScopeAll {
		return "all teams"
	}
	return tf.Name
}
