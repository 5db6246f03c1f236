package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/Strob0t/AgilePulse/internal/domain/epic"
)

// --- Epics ---

func (s *Store) ListEpics(ctx context.Context, piName string, teams []string) ([]epic.Epic, error) {
	return collect[epic.Epic](ctx, s, "list epics",
		`SELECT issue_key AS epic_key, summary AS epic_name,
		        COALESCE(team_name, '') AS owning_team, COALESCE(quarter_pi, '') AS quarter_pi,
		        status_category
		 FROM jira_issues
		 WHERE issue_type = 'Epic'
		   AND quarter_pi = @pi
		   AND (@teams::text[] IS NULL OR team_name = ANY(@teams))
		 ORDER BY issue_key`,
		pgx.NamedArgs{"pi": piName, "teams": teamArg(teams)})
}

func (s *Store) ChildTotals(ctx context.Context, keys []string) ([]epic.Totals, error) {
	if len(keys) == 0 {
		return []epic.Totals{}, nil
	}
	return collect[epic.Totals](ctx, s, "epic child totals",
		`SELECT parent_key AS epic_key,
		        COUNT(*) AS total,
		        COUNT(*) FILTER (WHERE status_category = @done) AS done,
		        COALESCE(ARRAY_AGG(DISTINCT team_name ORDER BY team_name)
		                 FILTER (WHERE team_name IS NOT NULL), '{}'::text[]) AS team_names
		 FROM jira_issues
		 WHERE parent_key = ANY(@keys)
		 GROUP BY parent_key`,
		pgx.NamedArgs{"keys": keys, "done": epic.StatusDone})
}

func (s *Store) ChildTeamBreakdown(ctx context.Context, keys []string) ([]epic.TeamCount, error) {
	if len(keys) == 0 {
		return []epic.TeamCount{}, nil
	}
	return collect[epic.TeamCount](ctx, s, "epic team breakdown",
		`SELECT parent_key AS epic_key, team_name,
		        COUNT(*) AS total,
		        COUNT(*) FILTER (WHERE status_category = @done) AS done
		 FROM jira_issues
		 WHERE parent_key = ANY(@keys) AND team_name IS NOT NULL
		 GROUP BY parent_key, team_name`,
		pgx.NamedArgs{"keys": keys, "done": epic.StatusDone})
}

// DependencyAggregates joins the inbound load view with the dependency-flagged
// child counts. Every requested key gets a row.
func (s *Store) DependencyAggregates(ctx context.Context, keys []string) ([]epic.Dependencies, error) {
	if len(keys) == 0 {
		return []epic.Dependencies{}, nil
	}
	return collect[epic.Dependencies](ctx, s, "epic dependency aggregates",
		`SELECT k.epic_key,
		        COALESCE(v.number_of_relying_teams, 0) AS number_of_relying_teams,
		        COALESCE(d.total, 0) AS dependent_issues_total,
		        COALESCE(d.done, 0) AS dependent_issues_done,
		        COALESCE(d.unresolved, 0) AS unresolved_dependencies
		 FROM UNNEST(@keys::text[]) AS k(epic_key)
		 LEFT JOIN epic_inbound_dependency_load_by_quarter v ON v.epic_key = k.epic_key
		 LEFT JOIN (
		     SELECT parent_key,
		            COUNT(*) AS total,
		            COUNT(*) FILTER (WHERE status_category = @done) AS done,
		            COUNT(*) FILTER (WHERE status_category <> @done) AS unresolved
		     FROM jira_issues
		     WHERE dependency AND parent_key = ANY(@keys)
		     GROUP BY parent_key
		 ) d ON d.parent_key = k.epic_key`,
		pgx.NamedArgs{"keys": keys, "done": epic.StatusDone})
}

func (s *Store) BaselineDates(ctx context.Context, keys []string, status string) ([]epic.BaselineDate, error) {
	if len(keys) == 0 {
		return []epic.BaselineDate{}, nil
	}
	return collect[epic.BaselineDate](ctx, s, "epic baseline dates",
		`SELECT issue_key AS epic_key, MIN(snapshot_date) AS baseline_date
		 FROM jira_issue_history
		 WHERE issue_key = ANY(@keys) AND status_category = @status
		 GROUP BY issue_key`,
		pgx.NamedArgs{"keys": keys, "status": status})
}

// BaselineCounts binds the (epic, date) pairs as two parallel arrays.
func (s *Store) BaselineCounts(ctx context.Context, dates []epic.BaselineDate) ([]epic.BaselineCount, error) {
	if len(dates) == 0 {
		return []epic.BaselineCount{}, nil
	}
	keys := make([]string, len(dates))
	days := make([]time.Time, len(dates))
	for i, d := range dates {
		keys[i] = d.EpicKey
		days[i] = d.Date.Time
	}
	return collect[epic.BaselineCount](ctx, s, "epic baseline counts",
		`SELECT b.epic_key, COUNT(DISTINCT h.issue_key) AS child_count
		 FROM UNNEST(@keys::text[], @days::date[]) AS b(epic_key, baseline_date)
		 JOIN jira_issue_history h
		   ON h.parent_key = b.epic_key AND h.snapshot_date = b.baseline_date
		 GROUP BY b.epic_key`,
		pgx.NamedArgs{"keys": keys, "days": days})
}
