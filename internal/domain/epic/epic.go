// Package epic assembles per-epic progress from current totals, team
// breakdowns, historical baselines and dependency aggregates.
package epic

import "github.com/Strob0t/AgilePulse/internal/domain"

// StatusInProgress is the status whose first appearance in history marks the
// epic's baseline.
const StatusInProgress = "In Progress"

// StatusDone is the done status category.
const StatusDone = "Done"

// Epic is an epic row as stored in the issue table.
type Epic struct {
	Key            string `db:"epic_key"`
	Name           string `db:"epic_name"`
	OwningTeam     string `db:"owning_team"`
	QuarterPI      string `db:"quarter_pi"`
	StatusCategory string `db:"status_category"`
}

// Totals is the current child count of one epic.
type Totals struct {
	EpicKey   string   `db:"epic_key"`
	Total     int      `db:"total"`
	Done      int      `db:"done"`
	TeamNames []string `db:"team_names"`
}

// TeamCount is the child count of one epic restricted to one team.
type TeamCount struct {
	EpicKey  string `db:"epic_key"`
	TeamName string `db:"team_name"`
	Total    int    `db:"total"`
	Done     int    `db:"done"`
}

// Dependencies holds the dependency aggregates of one epic.
type Dependencies struct {
	EpicKey         string `db:"epic_key"`
	RelyingTeams    int    `db:"number_of_relying_teams"`
	DependentTotal  int    `db:"dependent_issues_total"`
	DependentDone   int    `db:"dependent_issues_done"`
	UnresolvedCount int    `db:"unresolved_dependencies"`
}

// BaselineDate is the first day an epic was recorded in the baseline status.
type BaselineDate struct {
	EpicKey string      `db:"epic_key"`
	Date    domain.Date `db:"baseline_date"`
}

// BaselineCount is the number of distinct children recorded under an epic on
// its baseline date.
type BaselineCount struct {
	EpicKey string `db:"epic_key"`
	Count   int    `db:"child_count"`
}

// TeamProgress is one entry of an epic's per-team breakdown.
type TeamProgress struct {
	TeamName string `json:"team_name"`
	Done     int    `json:"done"`
	Total    int    `json:"total"`
}

// Progress is the assembled report object for one epic. Every field is
// always emitted; InProgressDate is the only nullable one.
type Progress struct {
	EpicKey              string         `json:"epic_key"`
	EpicName             string         `json:"epic_name"`
	OwningTeam           string         `json:"owning_team"`
	PlannedForQuarter    string         `json:"planned_for_quarter"`
	EpicStatusCategory   string         `json:"epic_status_category"`
	InProgressDate       *domain.Date   `json:"in_progress_date"`
	BaselineSource       BaselineSource `json:"baseline_source"`
	StoriesAtInProgress  int            `json:"stories_at_in_progress"`
	CurrentStoryCount    int            `json:"current_story_count"`
	StoriesCompleted     int            `json:"stories_completed"`
	StoriesRemaining     int            `json:"stories_remaining"`
	StoriesAdded         int            `json:"stories_added"`
	StoriesRemoved       int            `json:"stories_removed"`
	TeamsInvolved        []string       `json:"teams_involved"`
	TeamProgress         []TeamProgress `json:"team_progress_breakdown"`
	RelyingTeams         int            `json:"number_of_relying_teams"`
	DependentIssuesTotal int            `json:"dependent_issues_total"`
	DependentIssuesDone  int            `json:"dependent_issues_done"`
	UnresolvedDeps       int            `json:"unresolved_dependencies"`
}

// Report is the payload of the epics-by-PI report.
type Report struct {
	PI    string     `json:"pi"`
	Epics []Progress `json:"epics"`
	Count int        `json:"count"`
}

// Keys returns the epic keys in input order.
func Keys(epics []Epic) []string {
	keys := make([]string, 0, len(epics))
	for _, e := range epics {
		keys = append(keys, e.Key)
	}
	return keys
}
