package org

import (
	"cmp"
	"slices"
	"strconv"

	"github.com/Strob0t/AgilePulse/internal/domain"
)

// Hierarchy is an immutable, indexed view of a Snapshot.
type Hierarchy struct {
	groupsByID   map[int64]Group
	groupsByName map[string]Group
	children     map[int64][]int64
	directTeams  map[int64][]Team
	teamsByName  map[string]Team
}

// NewHierarchy indexes a snapshot. Groups with duplicate names resolve to the
// lowest id. Memberships that reference unknown teams or groups are ignored.
func NewHierarchy(s Snapshot) *Hierarchy {
	h := &Hierarchy{
		groupsByID:   make(map[int64]Group, len(s.Groups)),
		groupsByName: make(map[string]Group, len(s.Groups)),
		children:     make(map[int64][]int64),
		directTeams:  make(map[int64][]Team),
		teamsByName:  make(map[string]Team, len(s.Teams)),
	}

	groups := slices.Clone(s.Groups)
	slices.SortFunc(groups, func(a, b Group) int { return cmp.Compare(a.ID, b.ID) })

	for _, g := range groups {
		h.groupsByID[g.ID] = g
		if _, dup := h.groupsByName[g.Name]; !dup {
			h.groupsByName[g.Name] = g
		}
	}
	for _, g := range groups {
		if g.ParentID == nil || *g.ParentID == g.ID {
			continue
		}
		if _, ok := h.groupsByID[*g.ParentID]; !ok {
			continue
		}
		h.children[*g.ParentID] = append(h.children[*g.ParentID], g.ID)
	}

	teamsByID := make(map[int64]Team, len(s.Teams))
	for _, t := range s.Teams {
		teamsByID[t.ID] = t
		h.teamsByName[t.Name] = t
	}
	for _, m := range s.Memberships {
		t, ok := teamsByID[m.TeamID]
		if !ok {
			continue
		}
		if _, ok := h.groupsByID[m.GroupID]; !ok {
			continue
		}
		h.directTeams[m.GroupID] = append(h.directTeams[m.GroupID], t)
	}
	return h
}

// IsKnownTeam reports whether name is a team in the snapshot.
func (h *Hierarchy) IsKnownTeam(name string) bool {
	_, ok := h.teamsByName[name]
	return ok
}

// Group returns the group with the given id.
func (h *Hierarchy) Group(id int64) (Group, bool) {
	g, ok := h.groupsByID[id]
	return g, ok
}

// Groups returns all groups ordered by name, then id.
func (h *Hierarchy) Groups() []Group {
	out := make([]Group, 0, len(h.groupsByID))
	for _, g := range h.groupsByID {
		out = append(out, g)
	}
	slices.SortFunc(out, func(a, b Group) int {
		if c := cmp.Compare(a.Name, b.Name); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return out
}

// DirectTeams returns the teams directly associated with a group, sorted by
// name. Teams of descendant groups are not included.
func (h *Hierarchy) DirectTeams(id int64) ([]Team, error) {
	if _, ok := h.groupsByID[id]; !ok {
		return nil, &domain.NotFoundError{Kind: domain.KindGroup, Name: strconv.FormatInt(id, 10)}
	}
	out := append([]Team{}, h.directTeams[id]...)
	slices.SortFunc(out, func(a, b Team) int { return cmp.Compare(a.Name, b.Name) })
	return out, nil
}

// TeamNames returns all team names sorted.
func (h *Hierarchy) TeamNames() []string {
	out := make([]string, 0, len(h.teamsByName))
	for name := range h.teamsByName {
		out = append(out, name)
	}
	slices.Sort(out)
	return out
}

// EffectiveTeams returns the sorted union of teams directly associated with
// the named group and every group below it. Each group is visited at most
// once, so parent cycles terminate.
func (h *Hierarchy) EffectiveTeams(groupName string) ([]string, error) {
	g, ok := h.groupsByName[groupName]
	if !ok {
		return nil, &domain.NotFoundError{Kind: domain.KindGroup, Name: groupName}
	}
	return h.effectiveTeamsByID(g.ID), nil
}

// EffectiveTeamsByID is EffectiveTeams keyed by group id.
func (h *Hierarchy) EffectiveTeamsByID(id int64) ([]string, error) {
	if _, ok := h.groupsByID[id]; !ok {
		return nil, &domain.NotFoundError{Kind: domain.KindGroup, Name: strconv.FormatInt(id, 10)}
	}
	return h.effectiveTeamsByID(id), nil
}

func (h *Hierarchy) effectiveTeamsByID(root int64) []string {
	visited := map[int64]bool{}
	seen := map[string]bool{}
	teams := []string{}

	stack := []int64{root}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if visited[id] {
			continue
		}
		visited[id] = true

		for _, t := range h.directTeams[id] {
			if !seen[t.Name] {
				seen[t.Name] = true
				teams = append(teams, t.Name)
			}
		}
		for _, child := range h.children[id] {
			if !visited[child] {
				stack = append(stack, child)
			}
		}
	}

	slices.Sort(teams)
	return teams
}
