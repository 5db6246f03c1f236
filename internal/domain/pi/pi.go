// Package pi holds program increment listings and the per-team work in
// progress summary.
package pi

import (
	"cmp"
	"slices"

	"github.com/Strob0t/AgilePulse/internal/domain"
	"github.com/Strob0t/AgilePulse/internal/domain/sprint"
)

// PI is a program increment.
type PI struct {
	Name      string       `db:"pi_name" json:"pi_name"`
	StartDate *domain.Date `db:"start_date" json:"start_date"`
	EndDate   *domain.Date `db:"end_date" json:"end_date"`
}

// List is the PI list report body.
type List struct {
	PIs   []PI `json:"pis"`
	Count int  `json:"count"`
}

// TeamWIP is the epic count of one team in a PI.
type TeamWIP struct {
	TeamName        string `db:"team_name"`
	TotalEpics      int    `db:"total_epics"`
	InProgressEpics int    `db:"in_progress_epics"`
}

// WIPEntry is one row of the WIP summary.
type WIPEntry struct {
	TeamName             string        `json:"team_name"`
	TotalEpics           int           `json:"total_epics"`
	InProgressEpics      int           `json:"in_progress_epics"`
	InProgressPercentage float64       `json:"in_progress_percentage"`
	WIPStatus            sprint.Status `json:"wip_status"`
}

// WIPSummary is the per-team WIP report body with an aggregate row.
type WIPSummary struct {
	PI    string     `json:"pi"`
	Teams []WIPEntry `json:"teams"`
	Total WIPEntry   `json:"total"`
	Count int        `json:"count"`
}

// WIPStatus buckets the in-progress share of a team's epics.
func WIPStatus(total int, percentage float64) sprint.Status {
	switch {
	case total <= 0:
		return sprint.Gray
	case percentage < 30:
		return sprint.Green
	case percentage <= 50:
		return sprint.Yellow
	default:
		return sprint.Red
	}
}

func entry(name string, total, inProgress int) WIPEntry {
	pct := sprint.Percent(inProgress, total)
	return WIPEntry{
		TeamName:             name,
		TotalEpics:           total,
		InProgressEpics:      inProgress,
		InProgressPercentage: pct,
		WIPStatus:            WIPStatus(total, pct),
	}
}

// Summarize builds the WIP summary from per-team rows, sorted by team name.
func Summarize(piName string, rows []TeamWIP) WIPSummary {
	teams := make([]WIPEntry, 0, len(rows))
	var total, inProgress int
	for _, r := range rows {
		teams = append(teams, entry(r.TeamName, r.TotalEpics, r.InProgressEpics))
		total += r.TotalEpics
		inProgress += r.InProgressEpics
	}
	slices.SortFunc(teams, func(a, b WIPEntry) int { return cmp.Compare(a.TeamName, b.TeamName) })
	return WIPSummary{
		PI:    piName,
		Teams: teams,
		Total: entry("total", total, inProgress),
		Count: len(teams),
	}
}
