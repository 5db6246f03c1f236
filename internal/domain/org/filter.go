package org

import (
	"slices"
	"strings"

	"github.com/Strob0t/AgilePulse/internal/domain"
)

// Scope is the kind of team filter a request resolved to.
type Scope int

const (
	ScopeAll Scope = iota
	ScopeTeam
	ScopeGroup
)

func (s Scope) String() string {
	switch s {
	case ScopeTeam:
		return "team"
	case ScopeGroup:
		return "group"
	default:
		return "all"
	}
}

// MembershipSource answers the two questions the filter resolver needs.
// *Hierarchy implements it.
type MembershipSource interface {
	IsKnownTeam(name string) bool
	EffectiveTeams(groupName string) ([]string, error)
}

// TeamFilter is a resolved team-or-group request parameter.
type TeamFilter struct {
	Scope Scope
	// Name is the requested team or group name; empty for ScopeAll.
	Name string
	// Teams is the concrete, sorted team list; nil for ScopeAll.
	Teams []string
}

// All is the unrestricted filter.
func All() TeamFilter { return TeamFilter{Scope: ScopeAll} }

// TeamNames returns the team restriction, or nil when every team is included.
func (f TeamFilter) TeamNames() []string {
	if f.Scope == ScopeAll {
		return nil
	}
	return f.Teams
}

// Resolve expands an optional team or group name into a TeamFilter.
// A blank name is the unrestricted filter. The returned list is never empty
// and only contains known team names.
func Resolve(src MembershipSource, name string, isGroup bool) (TeamFilter, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return All(), nil
	}

	if !isGroup {
		if !src.IsKnownTeam(name) {
			return TeamFilter{}, &domain.NotFoundError{Kind: domain.KindTeam, Name: name}
		}
		return TeamFilter{Scope: ScopeTeam, Name: name, Teams: []string{name}}, nil
	}

	teams, err := src.EffectiveTeams(name)
	if err != nil {
		return TeamFilter{}, err
	}
	if len(teams) == 0 {
		return TeamFilter{}, &domain.NotFoundError{Kind: domain.KindGroupEmpty, Name: name}
	}
	teams = slices.Clone(teams)
	slices.Sort(teams)
	return TeamFilter{Scope: ScopeGroup, Name: name, Teams: slices.Compact(teams)}, nil
}

// Echo is the request-echo metadata attached to every report. Exactly one
// shape is populated, selected by the filter scope:
//
//	ScopeTeam:  team_name
//	ScopeGroup: group_name, teams_in_group
//	ScopeAll:   team_name = null
type Echo struct {
	Scope        Scope
	TeamName     string
	GroupName    string
	TeamsInGroup []string
}

// Echo returns the metadata for f.
func (f TeamFilter) Echo() Echo {
	switch f.Scope {
	case ScopeTeam:
		return Echo{Scope: ScopeTeam, TeamName: f.Name}
	case ScopeGroup:
		return Echo{Scope: ScopeGroup, GroupName: f.Name, TeamsInGroup: slices.Clone(f.Teams)}
	default:
		return Echo{Scope: ScopeAll}
	}
}
