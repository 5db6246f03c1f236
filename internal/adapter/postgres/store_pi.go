package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/Strob0t/AgilePulse/internal/domain/epic"
	"github.com/Strob0t/AgilePulse/internal/domain/pi"
)

// --- Program increments ---

func (s *Store) ListPIs(ctx context.Context) ([]pi.PI, error) {
	return collect[pi.PI](ctx, s, "list pis",
		`SELECT pi_name, start_date, end_date FROM pis ORDER BY start_date NULLS LAST, pi_name`, nil)
}

func (s *Store) PIWorkInProgress(ctx context.Context, piName string, teams []string) ([]pi.TeamWIP, error) {
	return collect[pi.TeamWIP](ctx, s, "pi work in progress",
		`SELECT team_name,
		        COUNT(*) AS total_epics,
		        COUNT(*) FILTER (WHERE status_category = @in_progress) AS in_progress_epics
		 FROM jira_issues
		 WHERE issue_type = 'Epic'
		   AND quarter_pi = @pi
		   AND team_name IS NOT NULL
		   AND (@teams::text[] IS NULL OR team_name = ANY(@teams))
		 GROUP BY team_name
		 ORDER BY team_name`,
		pgx.NamedArgs{"pi": piName, "teams": teamArg(teams), "in_progress": epic.StatusInProgress})
}
