package postgres

import (
	"context"
	"strconv"

	"github.com/jackc/pgx/v5"

	"github.com/Strob0t/AgilePulse/internal/domain"
	"github.com/Strob0t/AgilePulse/internal/domain/org"
)

// --- Teams and groups ---

func (s *Store) ListGroups(ctx context.Context) ([]org.Group, error) {
	return collect[org.Group](ctx, s, "list groups",
		`SELECT group_key, group_name, parent_group_key FROM groups ORDER BY group_key`, nil)
}

func (s *Store) ListTeams(ctx context.Context) ([]org.Team, error) {
	return collect[org.Team](ctx, s, "list teams",
		`SELECT team_key, team_name, number_of_team_members FROM teams ORDER BY team_name`, nil)
}

func (s *Store) ListMemberships(ctx context.Context) ([]org.Membership, error) {
	return collect[org.Membership](ctx, s, "list memberships",
		`SELECT team_id, group_id FROM team_groups ORDER BY group_id, team_id`, nil)
}

func (s *Store) ListTeamNames(ctx context.Context) ([]string, error) {
	return collectScalar[string](ctx, s, "list team names",
		`SELECT team_name FROM teams ORDER BY team_name`, nil)
}

// GroupTeams returns the teams directly in the group, sorted by name.
func (s *Store) GroupTeams(ctx context.Context, groupID int64) ([]org.Team, error) {
	found, err := collectScalar[int64](ctx, s, "group exists",
		`SELECT group_key FROM groups WHERE group_key = @id`, pgx.NamedArgs{"id": groupID})
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return nil, &domain.NotFoundError{Kind: domain.KindGroup, Name: strconv.FormatInt(groupID, 10)}
	}

	return collect[org.Team](ctx, s, "group teams",
		`SELECT t.team_key, t.team_name, t.number_of_team_members
		 FROM teams t JOIN team_groups tg ON tg.team_id = t.team_key
		 WHERE tg.group_id = @id
		 ORDER BY t.team_name`, pgx.NamedArgs{"id": groupID})
}
