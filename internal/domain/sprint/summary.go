package sprint

import (
	"cmp"
	"slices"

	"github.com/Strob0t/AgilePulse/internal/domain"
)

// Entry is a sprint as listed by the sprints endpoint.
type Entry struct {
	ID        int64        `db:"sprint_id" json:"sprint_id"`
	Name      string       `db:"sprint_name" json:"name"`
	State     string       `db:"state" json:"state"`
	StartDate *domain.Date `db:"start_date" json:"start_date"`
	EndDate   *domain.Date `db:"end_date" json:"end_date"`
	Goal      *string      `db:"goal" json:"goal"`
}

// List is the sprints report body, newest sprint first.
type List struct {
	Sprints []Entry `json:"sprints"`
	Count   int     `json:"count"`
}

// NewList wraps entries, never nil.
func NewList(entries []Entry) List {
	if entries == nil {
		entries = []Entry{}
	}
	return List{Sprints: entries, Count: len(entries)}
}

// TeamProgressRow is the issue count of one team in one active sprint.
type TeamProgressRow struct {
	TeamName string `db:"team_name"`
	ProgressRow
}

// TeamSummary is the active sprint progress of one team.
type TeamSummary struct {
	TeamName               string       `json:"team_name"`
	SprintID               int64        `json:"sprint_id"`
	SprintName             string       `json:"sprint_name"`
	StartDate              *domain.Date `json:"start_date"`
	EndDate                *domain.Date `json:"end_date"`
	TotalIssues            int          `json:"total_issues"`
	CompletedIssues        int          `json:"completed_issues"`
	InProgressIssues       int          `json:"in_progress_issues"`
	TodoIssues             int          `json:"todo_issues"`
	PercentCompleted       float64      `json:"percent_completed"`
	DaysLeft               *int         `json:"days_left"`
	DaysInSprint           *int         `json:"days_in_sprint"`
	PercentCompletedStatus Status       `json:"percent_completed_status"`
	InProgressIssuesStatus Status       `json:"in_progress_issues_status"`
}

// TeamSummaries is the active sprint summary by team report body.
type TeamSummaries struct {
	Summaries []TeamSummary `json:"summaries"`
	Count     int           `json:"count"`
}

// SummarizeTeams derives one summary per team and sprint, ordered by team
// name then sprint id. A team on two active sprints gets two summaries.
func SummarizeTeams(rows []TeamProgressRow, today domain.Date) TeamSummaries {
	out := make([]TeamSummary, 0, len(rows))
	for _, r := range rows {
		pct := Percent(r.CompletedIssues, r.TotalIssues)
		out = append(out, TeamSummary{
			TeamName:               r.TeamName,
			SprintID:               r.SprintID,
			SprintName:             r.SprintName,
			StartDate:              r.StartDate,
			EndDate:                r.EndDate,
			TotalIssues:            r.TotalIssues,
			CompletedIssues:        r.CompletedIssues,
			InProgressIssues:       r.InProgressIssues,
			TodoIssues:             r.TodoIssues,
			PercentCompleted:       pct,
			DaysLeft:               DaysLeft(r.EndDate, today),
			DaysInSprint:           DaysInSprint(r.StartDate, r.EndDate),
			PercentCompletedStatus: CompletionStatus(pct, r.StartDate, r.EndDate, today),
			InProgressIssuesStatus: WorkInProgressStatus(r.InProgressIssues, r.TotalIssues),
		})
	}
	slices.SortFunc(out, func(a, b TeamSummary) int {
		return cmp.Or(cmp.Compare(a.TeamName, b.TeamName), cmp.Compare(a.SprintID, b.SprintID))
	})
	return TeamSummaries{Summaries: out, Count: len(out)}
}
