package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/Strob0t/AgilePulse/internal/domain/epic"
	"github.com/Strob0t/AgilePulse/internal/domain/issue"
	"github.com/Strob0t/AgilePulse/internal/domain/teammetrics"
)

// --- Team metrics ---

func (s *Store) InProgressByType(ctx context.Context, teams []string) ([]teammetrics.TypeCount, error) {
	return collect[teammetrics.TypeCount](ctx, s, "in progress by type",
		`SELECT issue_type, COUNT(*) AS type_count
		 FROM jira_issues
		 WHERE status_category = @in_progress
		   AND (@teams::text[] IS NULL OR team_name = ANY(@teams))
		 GROUP BY issue_type
		 ORDER BY type_count DESC, issue_type`,
		pgx.NamedArgs{"teams": teamArg(teams), "in_progress": epic.StatusInProgress})
}

// --- Issues ---

func (s *Store) PriorityCountsByTeam(ctx context.Context, teams []string, issueType, statusCategory string) ([]issue.PriorityCount, error) {
	return collect[issue.PriorityCount](ctx, s, "priority counts by team",
		`SELECT team_name, priority, COUNT(*) AS issue_count
		 FROM jira_issues
		 WHERE (@issue_type::text = '' OR issue_type = @issue_type)
		   AND (CASE WHEN @status::text = '' THEN status_category <> @done ELSE status_category = @status END)
		   AND (@teams::text[] IS NULL OR team_name = ANY(@teams))
		 GROUP BY team_name, priority
		 ORDER BY team_name NULLS LAST, priority NULLS LAST`,
		pgx.NamedArgs{
			"teams":      teamArg(teams),
			"issue_type": issueType,
			"status":     statusCategory,
			"done":       epic.StatusDone,
		})
}
