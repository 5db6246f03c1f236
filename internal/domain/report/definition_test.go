package report

import (
	"slices"
	"testing"
)

func TestDefinitionMergeFilters(t *testing.T) {
	d := Definition{
		DefaultFilters: map[string]any{
			"issue_type": "all",
			"isGroup":    false,
			"months":     float64(3),
			"quarters":   []any{"Q1", " ", "Q2"},
			"blank":      "  ",
			"none":       nil,
		},
	}
	got := d.MergeFilters(map[string]string{"issue_type": " Bug ", "team_name": "Alpha", "months": ""})
	want := map[string]string{
		"issue_type": "Bug",
		"isGroup":    "false",
		"months":     "3",
		"quarters":   "Q1,Q2",
		"team_name":  "Alpha",
	}
	if len(got) != len(want) {
		t.Fatalf("merged = %v, want %v", got, want)
	}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("%s = %q, want %q", k, got[k], v)
		}
	}
}

func TestDefinitionMissingFilters(t *testing.T) {
	d := Definition{MetaSchema: map[string]any{"required_filters": []any{"team_name", "pi", 7}}}
	if got := d.MissingFilters(map[string]string{"pi": "Q1"}); !slices.Equal(got, []string{"team_name"}) {
		t.Errorf("missing = %v", got)
	}
	if got := d.MissingFilters(map[string]string{}); !slices.Equal(got, []string{"pi", "team_name"}) {
		t.Errorf("missing = %v", got)
	}
	if got := (Definition{}).RequiredFilters(); len(got) != 0 {
		t.Errorf("no schema should require nothing, got %v", got)
	}
}
