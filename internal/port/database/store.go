// Package database defines the read store port (interface).
package database

import (
	"context"

	"github.com/Strob0t/AgilePulse/internal/domain/dependency"
	"github.com/Strob0t/AgilePulse/internal/domain/epic"
	"github.com/Strob0t/AgilePulse/internal/domain/issue"
	"github.com/Strob0t/AgilePulse/internal/domain/org"
	"github.com/Strob0t/AgilePulse/internal/domain/pi"
	"github.com/Strob0t/AgilePulse/internal/domain/report"
	"github.com/Strob0t/AgilePulse/internal/domain/sprint"
	"github.com/Strob0t/AgilePulse/internal/domain/teammetrics"
)

// A nil team list means no team restriction in every method below. Key and
// team lists are bound as arrays, so each method issues one query however
// many keys it is given. Missing rows are not errors; failures are
// *domain.QueryError.

// OrgStore reads teams, groups and memberships.
type OrgStore interface {
	ListGroups(ctx context.Context) ([]org.Group, error)
	ListTeams(ctx context.Context) ([]org.Team, error)
	ListMemberships(ctx context.Context) ([]org.Membership, error)
	ListTeamNames(ctx context.Context) ([]string, error)
	GroupTeams(ctx context.Context, groupID int64) ([]org.Team, error)
}

// EpicStore reads epics and their batched aggregates.
type EpicStore interface {
	ListEpics(ctx context.Context, piName string, teams []string) ([]epic.Epic, error)
	ChildTotals(ctx context.Context, keys []string) ([]epic.Totals, error)
	ChildTeamBreakdown(ctx context.Context, keys []string) ([]epic.TeamCount, error)
	DependencyAggregates(ctx context.Context, keys []string) ([]epic.Dependencies, error)
	// BaselineDates returns the first snapshot date each epic was recorded with status.
	BaselineDates(ctx context.Context, keys []string, status string) ([]epic.BaselineDate, error)
	// BaselineCounts counts distinct children recorded under each epic on its date.
	BaselineCounts(ctx context.Context, dates []epic.BaselineDate) ([]epic.BaselineCount, error)
}

// SprintStore reads sprint progress and burndown history.
type SprintStore interface {
	// ActiveSprintProgress returns one row per distinct active sprint of the teams.
	ActiveSprintProgress(ctx context.Context, teams []string) ([]sprint.ProgressRow, error)
	SprintsForTeams(ctx context.Context, teams []string, name string) ([]sprint.Sprint, error)
	SprintBurndown(ctx context.Context, sprintID int64, teams []string, issueType string) ([]sprint.Point, error)
	// ListSprints returns the sprints the teams have work in, newest first.
	// An empty state matches every state.
	ListSprints(ctx context.Context, teams []string, state string) ([]sprint.Entry, error)
	// TeamActiveSprints returns one row per team and active sprint.
	TeamActiveSprints(ctx context.Context, teams []string) ([]sprint.TeamProgressRow, error)
}

// TeamMetricsStore reads the team indicators. ActiveSprintProgress backs
// the completion rate.
type TeamMetricsStore interface {
	ActiveSprintProgress(ctx context.Context, teams []string) ([]sprint.ProgressRow, error)
	// InProgressByType counts issues in progress per issue type.
	InProgressByType(ctx context.Context, teams []string) ([]teammetrics.TypeCount, error)
}

// IssueStore reads issue breakdowns.
type IssueStore interface {
	// PriorityCountsByTeam counts issues per team and priority. An empty
	// issueType matches every type; an empty statusCategory matches every
	// status except Done.
	PriorityCountsByTeam(ctx context.Context, teams []string, issueType, statusCategory string) ([]issue.PriorityCount, error)
}

// ReportStore reads the report registry.
type ReportStore interface {
	ListReportDefinitions(ctx context.Context) ([]report.Definition, error)
	// ReportDefinition returns nil when no definition has the id.
	ReportDefinition(ctx context.Context, id string) (*report.Definition, error)
}

// DependencyStore reads the precomputed dependency views.
type DependencyStore interface {
	InboundDependencyLoad(ctx context.Context, piName string, teams []string) ([]dependency.Inbound, error)
	OutboundDependencyMetrics(ctx context.Context, piName string, teams []string) ([]dependency.Outbound, error)
}

// PIStore reads program increments.
type PIStore interface {
	ListPIs(ctx context.Context) ([]pi.PI, error)
	PIWorkInProgress(ctx context.Context, piName string, teams []string) ([]pi.TeamWIP, error)
}

// Store is the port interface for the reporting read store.
type Store interface {
	OrgStore
	EpicStore
	SprintStore
	DependencyStore
	PIStore
	TeamMetricsStore
	IssueStore
	ReportStore
	Ping(ctx context.Context) error
}
