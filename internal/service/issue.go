package service

import (
	"context"
	"encoding/json"
	"strings"

	apotel "github.com/Strob0t/AgilePulse/internal/adapter/otel"
	"github.com/Strob0t/AgilePulse/internal/domain/issue"
	"github.com/Strob0t/AgilePulse/internal/domain/org"
	"github.com/Strob0t/AgilePulse/internal/domain/report"
	"github.com/Strob0t/AgilePulse/internal/port/database"
)

// IssueService builds issue breakdown reports.
type IssueService struct {
	runner
	store database.IssueStore
}

// NewIssueService creates an IssueService.
func NewIssueService(store database.IssueStore, orgs *OrgService, cache *ReportCache, metrics *apotel.Metrics) *IssueService {
	return &IssueService{runner: runner{org: orgs, cache: cache, metrics: metrics}, store: store}
}

// GroupedByTeam returns issue counts per team and priority. Without a status
// category only open issues count.
func (s *IssueService) GroupedByTeam(ctx context.Context, f Filter, issueType, statusCategory string) (json.RawMessage, error) {
	issueType = strings.TrimSpace(issueType)
	statusCategory = strings.TrimSpace(statusCategory)
	params := map[string]string{"issue_type": issueType, "status_category": statusCategory}
	return s.run(ctx, report.IssuesGroupedByTeam, f, params,
		func(ctx context.Context, tf org.TeamFilter) (any, error) {
			rows, err := s.store.PriorityCountsByTeam(ctx, tf.TeamNames(), issueType, statusCategory)
			if err != nil {
				return nil, err
			}
			teams := issue.GroupByTeam(rows)
			return issue.GroupedByTeam{
				IssueType:      issueType,
				StatusCategory: statusCategory,
				IssuesByTeam:   teams,
				Count:          len(teams),
			}, nil
		})
}
