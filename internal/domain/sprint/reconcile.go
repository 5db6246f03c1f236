package sprint

import (
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/Strob0t/AgilePulse/internal/domain"
)

// Policy decides what happens when a team set spans several active sprints.
type Policy int

const (
	// Aggregate sums counts across sprints and nulls the sprint identity.
	Aggregate Policy = iota
	// Reject fails with a SprintConflictError.
	Reject
)

func (p Policy) String() string {
	if p == Reject {
		return "reject"
	}
	return "aggregate"
}

// ParsePolicy parses "aggregate" or "reject".
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "aggregate":
		return Aggregate, nil
	case "reject":
		return Reject, nil
	default:
		return Aggregate, fmt.Errorf("unknown sprint policy %q", s)
	}
}

// Reconcile folds per-sprint rows into one Progress. filter names the team
// or group for conflict messages. Derived schedule fields are computed
// against today.
func Reconcile(rows []ProgressRow, policy Policy, filter string, today domain.Date) (Progress, error) {
	switch len(rows) {
	case 0:
		return derive(Progress{}, today), nil
	case 1:
		r := rows[0]
		id, name := r.SprintID, r.SprintName
		return derive(Progress{
			SprintID:         &id,
			Name:             &name,
			StartDate:        r.StartDate,
			EndDate:          r.EndDate,
			SprintCount:      1,
			TotalIssues:      r.TotalIssues,
			CompletedIssues:  r.CompletedIssues,
			InProgressIssues: r.InProgressIssues,
			TodoIssues:       r.TodoIssues,
		}, today), nil
	}

	if policy == Reject {
		return Progress{}, &domain.SprintConflictError{Filter: filter, Sprints: sprintNames(rows)}
	}

	p := Progress{SprintCount: len(rows)}
	for _, r := range rows {
		p.TotalIssues += r.TotalIssues
		p.CompletedIssues += r.CompletedIssues
		p.InProgressIssues += r.InProgressIssues
		p.TodoIssues += r.TodoIssues
	}
	return derive(p, today), nil
}

func sprintNames(rows []ProgressRow) []string {
	names := make([]string, 0, len(rows))
	for _, r := range rows {
		names = append(names, r.SprintName)
	}
	slices.Sort(names)
	return slices.Compact(names)
}

func derive(p Progress, today domain.Date) Progress {
	p.Count = p.SprintCount
	p.PercentCompleted = Percent(p.CompletedIssues, p.TotalIssues)
	p.DaysLeft = DaysLeft(p.EndDate, today)
	p.DaysInSprint = DaysInSprint(p.StartDate, p.EndDate)
	p.PercentCompletedStatus = CompletionStatus(p.PercentCompleted, p.StartDate, p.EndDate, today)
	p.InProgressIssuesStatus = WorkInProgressStatus(p.InProgressIssues, p.TotalIssues)
	return p
}

// Percent returns 100*part/total rounded to two decimals, or 0 when total is 0.
func Percent(part, total int) float64 {
	if total <= 0 {
		return 0
	}
	return Round2(100 * float64(part) / float64(total))
}

// Round2 rounds to two decimals.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Single returns the only sprint among candidates, nil when there is none,
// or a SprintConflictError when several distinct sprints match.
func Single(candidates []Sprint, filter string) (*Sprint, error) {
	if len(candidates) == 0 {
		return nil, nil
	}
	first := candidates[0]
	names := []string{first.Name}
	for _, c := range candidates[1:] {
		if c.ID != first.ID {
			names = append(names, c.Name)
		}
	}
	if len(names) > 1 {
		slices.Sort(names)
		return nil, &domain.SprintConflictError{Filter: filter, Sprints: slices.Compact(names)}
	}
	return &first, nil
}
