package org

import (
	"errors"
	"slices"
	"testing"

	"github.com/Strob0t/AgilePulse/internal/domain"
)

func ptr(v int64) *int64 { return &v }

// testSnapshot builds:
//
//	Engineering(1)
//	├── Platform(2)  teams: Alpha, Beta
//	│   └── Data(4)  teams: Beta, Gamma
//	└── Product(3)   teams: Delta
//	Orphan(5) parent 99 (missing)  teams: Epsilon
//	Empty(6)
func testSnapshot() Snapshot {
	return Snapshot{
		Groups: []Group{
			{ID: 1, Name: "Engineering"},
			{ID: 2, Name: "Platform", ParentID: ptr(1)},
			{ID: 3, Name: "Product", ParentID: ptr(1)},
			{ID: 4, Name: "Data", ParentID: ptr(2)},
			{ID: 5, Name: "Orphan", ParentID: ptr(99)},
			{ID: 6, Name: "Empty"},
		},
		Teams: []Team{
			{ID: 10, Name: "Alpha"},
			{ID: 11, Name: "Beta"},
			{ID: 12, Name: "Gamma"},
			{ID: 13, Name: "Delta"},
			{ID: 14, Name: "Epsilon"},
		},
		Memberships: []Membership{
			{TeamID: 10, GroupID: 2},
			{TeamID: 11, GroupID: 2},
			{TeamID: 11, GroupID: 4},
			{TeamID: 12, GroupID: 4},
			{TeamID: 13, GroupID: 3},
			{TeamID: 14, GroupID: 5},
			{TeamID: 999, GroupID: 1}, // unknown team
		},
	}
}

func TestEffectiveTeams(t *testing.T) {
	h := NewHierarchy(testSnapshot())

	tests := []struct {
		group string
		want  []string
	}{
		{"Engineering", []string{"Alpha", "Beta", "Delta", "Gamma"}},
		{"Platform", []string{"Alpha", "Beta", "Gamma"}},
		{"Data", []string{"Beta", "Gamma"}},
		{"Product", []string{"Delta"}},
		{"Orphan", []string{"Epsilon"}},
		{"Empty", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.group, func(t *testing.T) {
			got, err := h.EffectiveTeams(tt.group)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !slices.Equal(got, tt.want) {
				t.Errorf("EffectiveTeams(%q) = %v, want %v", tt.group, got, tt.want)
			}
		})
	}
}

func TestEffectiveTeamsClosure(t *testing.T) {
	s := testSnapshot()
	h := NewHierarchy(s)

	for _, g := range s.Groups {
		parent, err := h.EffectiveTeams(g.Name)
		if err != nil {
			t.Fatal(err)
		}
		for _, c := range s.Groups {
			if c.ParentID == nil || *c.ParentID != g.ID {
				continue
			}
			child, err := h.EffectiveTeams(c.Name)
			if err != nil {
				t.Fatal(err)
			}
			for _, name := range child {
				if !slices.Contains(parent, name) {
					t.Errorf("%s is missing %s from child %s", g.Name, name, c.Name)
				}
			}
		}
	}
}

func TestEffectiveTeamsNoDuplicates(t *testing.T) {
	h := NewHierarchy(testSnapshot())

	// Beta is reachable through Platform directly and through Data.
	got, err := h.EffectiveTeams("Engineering")
	if err != nil {
		t.Fatal(err)
	}
	count := 0
	for _, name := range got {
		if name == "Beta" {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("expected Beta exactly once, got %d in %v", count, got)
	}
}

func TestEffectiveTeamsCycle(t *testing.T) {
	h := NewHierarchy(Snapshot{
		Groups: []Group{
			{ID: 1, Name: "A", ParentID: ptr(2)},
			{ID: 2, Name: "B", ParentID: ptr(1)},
			{ID: 3, Name: "Self", ParentID: ptr(3)},
		},
		Teams: []Team{{ID: 10, Name: "T1"}, {ID: 11, Name: "T2"}, {ID: 12, Name: "T3"}},
		Memberships: []Membership{
			{TeamID: 10, GroupID: 1},
			{TeamID: 11, GroupID: 2},
			{TeamID: 12, GroupID: 3},
		},
	})

	for _, name := range []string{"A", "B"} {
		got, err := h.EffectiveTeams(name)
		if err != nil {
			t.Fatalf("EffectiveTeams(%s): %v", name, err)
		}
		if !slices.Equal(got, []string{"T1", "T2"}) {
			t.Errorf("EffectiveTeams(%s) = %v, want [T1 T2]", name, got)
		}
	}

	got, err := h.EffectiveTeams("Self")
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(got, []string{"T3"}) {
		t.Errorf("self-parented group = %v, want [T3]", got)
	}

	// Deterministic across runs.
	first, _ := h.EffectiveTeams("A")
	for range 10 {
		again, _ := h.EffectiveTeams("A")
		if !slices.Equal(first, again) {
			t.Fatalf("non-deterministic result: %v vs %v", first, again)
		}
	}
}

func TestEffectiveTeamsUnknownGroup(t *testing.T) {
	h := NewHierarchy(testSnapshot())

	_, err := h.EffectiveTeams("Nope")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	var nf *domain.NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("expected *NotFoundError, got %T", err)
	}
	if nf.Kind != domain.KindGroup || nf.Name != "Nope" {
		t.Errorf("unexpected not-found detail: %+v", nf)
	}
}

func TestDirectTeams(t *testing.T) {
	h := NewHierarchy(testSnapshot())

	teams, err := h.DirectTeams(2)
	if err != nil {
		t.Fatal(err)
	}
	if len(teams) != 2 || teams[0].Name != "Alpha" || teams[1].Name != "Beta" {
		t.Fatalf("unexpected direct teams: %+v", teams)
	}

	teams, err = h.DirectTeams(6)
	if err != nil {
		t.Fatal(err)
	}
	if teams == nil || len(teams) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", teams)
	}

	if _, err := h.DirectTeams(42); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDuplicateGroupNamesResolveToLowestID(t *testing.T) {
	h := NewHierarchy(Snapshot{
		Groups:      []Group{{ID: 7, Name: "Dup"}, {ID: 3, Name: "Dup"}},
		Teams:       []Team{{ID: 1, Name: "Low"}, {ID: 2, Name: "High"}},
		Memberships: []Membership{{TeamID: 1, GroupID: 3}, {TeamID: 2, GroupID: 7}},
	})

	got, err := h.EffectiveTeams("Dup")
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(got, []string{"Low"}) {
		t.Fatalf("got %v, want [Low]", got)
	}
}

func TestGroupsAndTeamNamesSorted(t *testing.T) {
	h := NewHierarchy(testSnapshot())

	groups := h.Groups()
	for i := 1; i < len(groups); i++ {
		if groups[i-1].Name > groups[i].Name {
			t.Fatalf("groups not sorted by name: %v", groups)
		}
	}
	if names := h.TeamNames(); !slices.IsSorted(names) {
		t.Fatalf("team names not sorted: %v", names)
	}
}
