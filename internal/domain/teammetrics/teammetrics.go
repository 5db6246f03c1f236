// Package teammetrics holds the single-number team indicators: work in
// progress by issue type and the completion rate of the active sprint.
package teammetrics

import (
	"math"

	"github.com/Strob0t/AgilePulse/internal/domain/sprint"
)

// TypeCount is the number of issues of one type.
type TypeCount struct {
	IssueType string `db:"issue_type"`
	Count     int    `db:"type_count"`
}

// InProgress is the count in progress report body. Count is the total.
type InProgress struct {
	Count       int            `json:"count"`
	CountByType map[string]int `json:"count_by_type"`
}

// CountInProgress sums rows into an InProgress. Repeated types add up.
func CountInProgress(rows []TypeCount) InProgress {
	out := InProgress{CountByType: make(map[string]int, len(rows))}
	for _, r := range rows {
		out.CountByType[r.IssueType] += r.Count
		out.Count += r.Count
	}
	return out
}

// Completion is the current sprint completion report body. CompletionRate
// is a whole percentage.
type Completion struct {
	CompletionRate  float64 `json:"completion_rate"`
	TotalIssues     int     `json:"total_issues"`
	CompletedIssues int     `json:"completed_issues"`
	SprintCount     int     `json:"sprint_count"`
}

// SprintCompletion folds the active sprint rows of a team set. Every active
// sprint counts, so a group spanning two sprints reports their combined rate.
func SprintCompletion(rows []sprint.ProgressRow) Completion {
	out := Completion{SprintCount: len(rows)}
	for _, r := range rows {
		out.TotalIssues += r.TotalIssues
		out.CompletedIssues += r.CompletedIssues
	}
	if out.TotalIssues > 0 {
		out.CompletionRate = math.Round(100 * float64(out.CompletedIssues) / float64(out.TotalIssues))
	}
	return out
}
