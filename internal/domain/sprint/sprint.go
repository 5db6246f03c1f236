// Package sprint reconciles per-sprint progress rows for a team set and
// derives schedule status buckets.
package sprint

import (
	"github.com/Strob0t/AgilePulse/internal/domain"
)

// Sprint is a row of the sprint table.
type Sprint struct {
	ID        int64        `db:"sprint_id" json:"sprint_id"`
	Name      string       `db:"sprint_name" json:"name"`
	StartDate *domain.Date `db:"start_date" json:"start_date"`
	EndDate   *domain.Date `db:"end_date" json:"end_date"`
	State     string       `db:"state" json:"state"`
}

// ProgressRow is the issue count of one active sprint across a team set.
type ProgressRow struct {
	SprintID         int64        `db:"sprint_id"`
	SprintName       string       `db:"sprint_name"`
	StartDate        *domain.Date `db:"start_date"`
	EndDate          *domain.Date `db:"end_date"`
	TotalIssues      int          `db:"total_issues"`
	CompletedIssues  int          `db:"completed_issues"`
	InProgressIssues int          `db:"in_progress_issues"`
	TodoIssues       int          `db:"todo_issues"`
}

// Progress is the current sprint progress report body. Sprint identity and
// date-derived fields are null when no single sprint applies. Count is the
// number of sprints reconciled.
type Progress struct {
	SprintID               *int64       `json:"sprint_id"`
	Name                   *string      `json:"name"`
	StartDate              *domain.Date `json:"start_date"`
	EndDate                *domain.Date `json:"end_date"`
	SprintCount            int          `json:"sprint_count"`
	Count                  int          `json:"count"`
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

// Point is one day of a sprint burndown.
type Point struct {
	Date            domain.Date `db:"snapshot_date" json:"date"`
	RemainingIssues int         `db:"remaining_issues" json:"remaining_issues"`
	CompletedIssues int         `db:"completed_issues" json:"completed_issues"`
	TotalIssues     int         `db:"total_issues" json:"total_issues"`
}

// IssueTypeAll disables the burndown issue type filter.
const IssueTypeAll = "all"

// Burndown is the sprint burndown report body. Count is the number of
// daily points.
type Burndown struct {
	SprintID            *int64       `json:"sprint_id"`
	SprintName          *string      `json:"sprint_name"`
	StartDate           *domain.Date `json:"start_date"`
	EndDate             *domain.Date `json:"end_date"`
	IssueType           string       `json:"issue_type"`
	AutoSelected        bool         `json:"auto_selected"`
	TotalIssuesInSprint int          `json:"total_issues_in_sprint"`
	Count               int          `json:"count"`
	Points              []Point      `json:"data"`
}

// EmptyBurndown is the burndown returned when no sprint could be selected.
func EmptyBurndown(issueType string) Burndown {
	return Burndown{IssueType: issueType, Points: []Point{}}
}
