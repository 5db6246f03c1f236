package issue

import "testing"

func ptr(s string) *string { return &s }

func TestGroupByTeam(t *testing.T) {
	rows := []PriorityCount{
		{TeamName: ptr("Alpha"), Priority: ptr(""), Count: 1},
		{TeamName: ptr("Alpha"), Priority: ptr("High"), Count: 2},
		{TeamName: ptr("Alpha"), Priority: nil, Count: 3},
		{TeamName: ptr("Beta"), Priority: ptr("Low"), Count: 5},
		{TeamName: nil, Priority: ptr("Low"), Count: 1},
	}
	got := GroupByTeam(rows)
	if len(got) != 3 {
		t.Fatalf("teams = %+v", got)
	}

	alpha := got[0]
	if alpha.TeamName != "Alpha" || alpha.TotalIssues != 6 {
		t.Errorf("alpha = %+v", alpha)
	}
	if len(alpha.Priorities) != 2 || alpha.Priorities[0] != (Priority{Unspecified, 4}) || alpha.Priorities[1] != (Priority{"High", 2}) {
		t.Errorf("blank and null priorities should merge: %+v", alpha.Priorities)
	}
	if got[2].TeamName != Unspecified || got[2].TotalIssues != 1 {
		t.Errorf("null team = %+v", got[2])
	}

	if empty := GroupByTeam(nil); empty == nil || len(empty) != 0 {
		t.Errorf("expected empty non-nil slice, got %v", empty)
	}
}
