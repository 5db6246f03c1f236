// Package issue groups open issue counts by team and priority.
package issue

// Unspecified replaces a missing team or priority.
const Unspecified = "Unspecified"

// PriorityCount is the number of issues of one team at one priority.
type PriorityCount struct {
	TeamName *string `db:"team_name"`
	Priority *string `db:"priority"`
	Count    int     `db:"issue_count"`
}

// Priority is one priority bucket of a team.
type Priority struct {
	Priority   string `json:"priority"`
	IssueCount int    `json:"issue_count"`
}

// TeamPriorities is the priority breakdown of one team.
type TeamPriorities struct {
	TeamName    string     `json:"team_name"`
	Priorities  []Priority `json:"priorities"`
	TotalIssues int        `json:"total_issues"`
}

// GroupedByTeam is the issues grouped by team report body.
type GroupedByTeam struct {
	IssueType      string           `json:"issue_type"`
	StatusCategory string           `json:"status_category"`
	IssuesByTeam   []TeamPriorities `json:"issues_by_team"`
	Count          int              `json:"count"`
}

// GroupByTeam nests rows by team, keeping the first-seen order of teams and
// of priorities within a team. Null teams and priorities fall under
// Unspecified, and rows that collapse onto the same bucket add up.
func GroupByTeam(rows []PriorityCount) []TeamPriorities {
	type bucket struct{ team, prio string }
	out := []TeamPriorities{}
	teams := map[string]int{}
	prios := map[bucket]int{}
	for _, r := range rows {
		team := orUnspecified(r.TeamName)
		i, ok := teams[team]
		if !ok {
			i = len(out)
			teams[team] = i
			out = append(out, TeamPriorities{TeamName: team, Priorities: []Priority{}})
		}
		t := &out[i]
		t.TotalIssues += r.Count

		b := bucket{team, orUnspecified(r.Priority)}
		if j, ok := prios[b]; ok {
			t.Priorities[j].IssueCount += r.Count
			continue
		}
		prios[b] = len(t.Priorities)
		t.Priorities = append(t.Priorities, Priority{Priority: b.prio, IssueCount: r.Count})
	}
	return out
}

func orUnspecified(s *string) string {
	if s == nil || *s == "" {
		return Unspecified
	}
	return *s
}
