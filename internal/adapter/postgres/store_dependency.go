package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/Strob0t/AgilePulse/internal/domain/dependency"
)

// --- Dependency views ---

// An empty piName reads every quarter.

func (s *Store) InboundDependencyLoad(ctx context.Context, piName string, teams []string) ([]dependency.Inbound, error) {
	return collect[dependency.Inbound](ctx, s, "inbound dependency load",
		`SELECT epic_key, epic_name, team_name_of_epic, quarter_pi_of_epic,
		        number_of_relying_teams, dependent_issues_total, dependent_issues_done, dependent_issues_open
		 FROM epic_inbound_dependency_load_by_quarter
		 WHERE (@pi::text = '' OR quarter_pi_of_epic = @pi)
		   AND (@teams::text[] IS NULL OR team_name_of_epic = ANY(@teams))
		 ORDER BY epic_key`,
		pgx.NamedArgs{"pi": piName, "teams": teamArg(teams)})
}

func (s *Store) OutboundDependencyMetrics(ctx context.Context, piName string, teams []string) ([]dependency.Outbound, error) {
	return collect[dependency.Outbound](ctx, s, "outbound dependency metrics",
		`SELECT epic_key, epic_name, team_name_of_epic, quarter_pi_of_epic,
		        number_of_teams_depended_on, required_issues_total, required_issues_done, completion_percentage
		 FROM epic_outbound_dependency_metrics_by_quarter
		 WHERE (@pi::text = '' OR quarter_pi_of_epic = @pi)
		   AND (@teams::text[] IS NULL OR team_name_of_epic = ANY(@teams))
		 ORDER BY epic_key`,
		pgx.NamedArgs{"pi": piName, "teams": teamArg(teams)})
}
