package sprint

import "github.com/Strob0t/AgilePulse/internal/domain"

// Status is a traffic-light bucket.
type Status string

const (
	Green  Status = "green"
	Yellow Status = "yellow"
	Red    Status = "red"
	Gray   Status = "gray"
)

const (
	completionSlack      = 15.0
	completionYellowBand = 25.0
	completionLateYellow = 75.0
)

// DaysLeft counts the days remaining including today, or 0 once the sprint
// has ended. Nil when the end date is unknown.
func DaysLeft(end *domain.Date, today domain.Date) *int {
	if end == nil {
		return nil
	}
	n := 0
	if !end.Before(today.Time) {
		n = today.DaysUntil(*end) + 1
	}
	return &n
}

// DaysInSprint counts calendar days from start to end inclusive.
func DaysInSprint(start, end *domain.Date) *int {
	if start == nil || end == nil {
		return nil
	}
	n := start.DaysUntil(*end) + 1
	return &n
}

// CompletionStatus compares percent completed against linear progress
// through the sprint. Unknown dates and sprints not yet started are green.
func CompletionStatus(percent float64, start, end *domain.Date, today domain.Date) Status {
	if start == nil || end == nil {
		return Green
	}
	if today.Before(start.Time) {
		return Green
	}
	if !today.Before(end.Time) {
		switch {
		case percent >= 100-completionSlack:
			return Green
		case percent >= completionLateYellow:
			return Yellow
		default:
			return Red
		}
	}

	totalDays := start.DaysUntil(*end)
	if totalDays <= 0 {
		return Green
	}
	expected := float64(start.DaysUntil(today)) / float64(totalDays) * 100
	switch {
	case percent >= expected-completionSlack:
		return Green
	case percent >= expected-completionYellowBand:
		return Yellow
	default:
		return Red
	}
}

// WorkInProgressStatus buckets the share of issues in progress.
func WorkInProgressStatus(inProgress, total int) Status {
	if total == 0 {
		return Green
	}
	pct := float64(inProgress) / float64(total) * 100
	switch {
	case pct > 60:
		return Red
	case pct >= 40:
		return Yellow
	default:
		return Green
	}
}
