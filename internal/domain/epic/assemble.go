package epic

import (
	"cmp"
	"slices"

	"github.com/Strob0t/AgilePulse/internal/domain"
)

// Aggregates bundles the batched lookups for a set of epics. Epics missing
// from any slice take that aggregate's zero value.
type Aggregates struct {
	Totals         []Totals
	TeamCounts     []TeamCount
	Dependencies   []Dependencies
	BaselineDates  []BaselineDate
	BaselineCounts []BaselineCount
}

// Assemble merges the aggregates into one Progress per epic, in input order.
func Assemble(pi string, epics []Epic, agg Aggregates) []Progress {
	totals := make(map[string]Totals, len(agg.Totals))
	for _, t := range agg.Totals {
		totals[t.EpicKey] = t
	}
	breakdown := make(map[string][]TeamProgress)
	for _, tc := range agg.TeamCounts {
		breakdown[tc.EpicKey] = append(breakdown[tc.EpicKey], TeamProgress{
			TeamName: tc.TeamName,
			Done:     tc.Done,
			Total:    tc.Total,
		})
	}
	deps := make(map[string]Dependencies, len(agg.Dependencies))
	for _, d := range agg.Dependencies {
		deps[d.EpicKey] = d
	}
	dates := make(map[string]domain.Date, len(agg.BaselineDates))
	for _, d := range agg.BaselineDates {
		dates[d.EpicKey] = d.Date
	}
	counts := make(map[string]int, len(agg.BaselineCounts))
	for _, c := range agg.BaselineCounts {
		counts[c.EpicKey] = c.Count
	}

	out := make([]Progress, 0, len(epics))
	for _, e := range epics {
		t := totals[e.Key]

		var date *domain.Date
		if d, ok := dates[e.Key]; ok {
			date = &d
		}
		var childCount *int
		if c, ok := counts[e.Key]; ok {
			childCount = &c
		}
		base := ResolveBaseline(date, childCount, t.Total)
		added, removed := Drift(base.Count, t.Total)

		teams := slices.Clone(t.TeamNames)
		if teams == nil {
			teams = []string{}
		}
		slices.Sort(teams)
		teams = slices.Compact(teams)

		progress := slices.Clone(breakdown[e.Key])
		if progress == nil {
			progress = []TeamProgress{}
		}
		slices.SortFunc(progress, func(a, b TeamProgress) int { return cmp.Compare(a.TeamName, b.TeamName) })

		d := deps[e.Key]
		planned := "No"
		if e.QuarterPI == pi {
			planned = "Yes"
		}

		out = append(out, Progress{
			EpicKey:              e.Key,
			EpicName:             e.Name,
			OwningTeam:           e.OwningTeam,
			PlannedForQuarter:    planned,
			EpicStatusCategory:   e.StatusCategory,
			InProgressDate:       base.Date,
			BaselineSource:       base.Source,
			StoriesAtInProgress:  base.Count,
			CurrentStoryCount:    t.Total,
			StoriesCompleted:     t.Done,
			StoriesRemaining:     t.Total - t.Done,
			StoriesAdded:         added,
			StoriesRemoved:       removed,
			TeamsInvolved:        teams,
			TeamProgress:         progress,
			RelyingTeams:         d.RelyingTeams,
			DependentIssuesTotal: d.DependentTotal,
			DependentIssuesDone:  d.DependentDone,
			UnresolvedDeps:       d.UnresolvedCount,
		})
	}
	return out
}

// DatedKeys returns the keys of epics that have a baseline date.
func DatedKeys(dates []BaselineDate) []string {
	keys := make([]string, 0, len(dates))
	for _, d := range dates {
		keys = append(keys, d.EpicKey)
	}
	return keys
}
