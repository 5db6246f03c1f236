package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/Strob0t/AgilePulse/internal/domain/epic"
	"github.com/Strob0t/AgilePulse/internal/domain/sprint"
)

const sprintStateActive = "active"

// --- Sprints ---

func (s *Store) ActiveSprintProgress(ctx context.Context, teams []string) ([]sprint.ProgressRow, error) {
	return collect[sprint.ProgressRow](ctx, s, "active sprint progress",
		`SELECT sp.sprint_id, sp.sprint_name, sp.start_date, sp.end_date,
		        COUNT(i.issue_key) AS total_issues,
		        COUNT(i.issue_key) FILTER (WHERE i.status_category = @done) AS completed_issues,
		        COUNT(i.issue_key) FILTER (WHERE i.status_category = @in_progress) AS in_progress_issues,
		        COUNT(i.issue_key) FILTER (WHERE i.status_category NOT IN (@done, @in_progress)) AS todo_issues
		 FROM jira_sprints sp
		 JOIN jira_issues i ON i.current_sprint_id = sp.sprint_id
		 WHERE sp.state = @state
		   AND (@teams::text[] IS NULL OR i.team_name = ANY(@teams))
		 GROUP BY sp.sprint_id, sp.sprint_name, sp.start_date, sp.end_date
		 ORDER BY sp.sprint_id`,
		pgx.NamedArgs{
			"teams":       teamArg(teams),
			"state":       sprintStateActive,
			"done":        epic.StatusDone,
			"in_progress": epic.StatusInProgress,
		})
}

// SprintsForTeams lists the distinct sprints the teams have work in. With a
// name only sprints of that name qualify; without one only active sprints.
func (s *Store) SprintsForTeams(ctx context.Context, teams []string, name string) ([]sprint.Sprint, error) {
	return collect[sprint.Sprint](ctx, s, "sprints for teams",
		`SELECT sp.sprint_id, sp.sprint_name, sp.start_date, sp.end_date, sp.state
		 FROM jira_sprints sp
		 WHERE (CASE WHEN @name::text = '' THEN sp.state = @state ELSE sp.sprint_name = @name END)
		   AND (
		     EXISTS (SELECT 1 FROM jira_issues i
		             WHERE i.current_sprint_id = sp.sprint_id
		               AND (@teams::text[] IS NULL OR i.team_name = ANY(@teams)))
		     OR EXISTS (SELECT 1 FROM jira_issue_history h
		                WHERE sp.sprint_id = ANY(h.sprint_ids)
		                  AND (@teams::text[] IS NULL OR h.team_name = ANY(@teams)))
		   )
		 ORDER BY sp.sprint_id`,
		pgx.NamedArgs{"teams": teamArg(teams), "name": name, "state": sprintStateActive})
}

// SprintBurndown returns one point per snapshot date inside the sprint window.
func (s *Store) SprintBurndown(ctx context.Context, sprintID int64, teams []string, issueType string) ([]sprint.Point, error) {
	return collect[sprint.Point](ctx, s, "sprint burndown",
		`SELECT h.snapshot_date,
		        COUNT(*) FILTER (WHERE h.status_category <> @done) AS remaining_issues,
		        COUNT(*) FILTER (WHERE h.status_category = @done) AS completed_issues,
		        COUNT(*) AS total_issues
		 FROM jira_issue_history h
		 JOIN jira_sprints sp ON sp.sprint_id = @sprint_id
		 WHERE @sprint_id::bigint = ANY(h.sprint_ids)
		   AND (sp.start_date IS NULL OR h.snapshot_date >= sp.start_date)
		   AND (sp.end_date IS NULL OR h.snapshot_date <= sp.end_date)
		   AND (@teams::text[] IS NULL OR h.team_name = ANY(@teams))
		   AND (@issue_type::text = @all::text OR h.issue_type = @issue_type)
		 GROUP BY h.snapshot_date
		 ORDER BY h.snapshot_date`,
		pgx.NamedArgs{
			"sprint_id":  sprintID,
			"teams":      teamArg(teams),
			"issue_type": issueType,
			"all":        sprint.IssueTypeAll,
			"done":       epic.StatusDone,
		})
}

// ListSprints orders by sprint id descending. Without teams every sprint is
// listed, including sprints no issue has touched.
func (s *Store) ListSprints(ctx context.Context, teams []string, state string) ([]sprint.Entry, error) {
	return collect[sprint.Entry](ctx, s, "list sprints",
		`SELECT sp.sprint_id, sp.sprint_name, sp.state, sp.start_date, sp.end_date, sp.goal
		 FROM jira_sprints sp
		 WHERE (@state::text = '' OR sp.state = @state)
		   AND (
		     @teams::text[] IS NULL
		     OR EXISTS (SELECT 1 FROM jira_issues i
		                WHERE i.current_sprint_id = sp.sprint_id AND i.team_name = ANY(@teams))
		     OR EXISTS (SELECT 1 FROM jira_issue_history h
		                WHERE sp.sprint_id = ANY(h.sprint_ids) AND h.team_name = ANY(@teams))
		   )
		 ORDER BY sp.sprint_id DESC`,
		pgx.NamedArgs{"teams": teamArg(teams), "state": state})
}

func (s *Store) TeamActiveSprints(ctx context.Context, teams []string) ([]sprint.TeamProgressRow, error) {
	return collect[sprint.TeamProgressRow](ctx, s, "team active sprints",
		`SELECT i.team_name, sp.sprint_id, sp.sprint_name, sp.start_date, sp.end_date,
		        COUNT(i.issue_key) AS total_issues,
		        COUNT(i.issue_key) FILTER (WHERE i.status_category = @done) AS completed_issues,
		        COUNT(i.issue_key) FILTER (WHERE i.status_category = @in_progress) AS in_progress_issues,
		        COUNT(i.issue_key) FILTER (WHERE i.status_category NOT IN (@done, @in_progress)) AS todo_issues
		 FROM jira_sprints sp
		 JOIN jira_issues i ON i.current_sprint_id = sp.sprint_id
		 WHERE sp.state = @state
		   AND i.team_name IS NOT NULL
		   AND (@teams::text[] IS NULL OR i.team_name = ANY(@teams))
		 GROUP BY i.team_name, sp.sprint_id, sp.sprint_name, sp.start_date, sp.end_date
		 ORDER BY i.team_name, sp.sprint_id`,
		pgx.NamedArgs{
			"teams":       teamArg(teams),
			"state":       sprintStateActive,
			"done":        epic.StatusDone,
			"in_progress": epic.StatusInProgress,
		})
}
