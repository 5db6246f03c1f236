// Package org defines teams, groups and the group hierarchy used to resolve
// team filters.
package org

// Team is a delivery team. Name is unique.
type Team struct {
	ID          int64  `db:"team_key" json:"id"`
	Name        string `db:"team_name" json:"name"`
	MemberCount *int   `db:"number_of_team_members" json:"number_of_team_members"`
}

// Group is a named collection of teams. ParentID links it to its parent group;
// a missing or dangling ParentID makes the group a root.
type Group struct {
	ID       int64  `db:"group_key" json:"id"`
	Name     string `db:"group_name" json:"name"`
	ParentID *int64 `db:"parent_group_key" json:"parent_id"`
}

// Membership associates a team with a group it directly belongs to.
type Membership struct {
	TeamID  int64 `db:"team_id" json:"team_id"`
	GroupID int64 `db:"group_id" json:"group_id"`
}

// Snapshot is the full group forest and team membership at one point in
// time. It is the unit stored in the hierarchy cache.
type Snapshot struct {
	Groups      []Group      `json:"groups"`
	Teams       []Team       `json:"teams"`
	Memberships []Membership `json:"memberships"`
}
