package epic

import "github.com/Strob0t/AgilePulse/internal/domain"

// BaselineSource records how an epic's baseline count was obtained.
type BaselineSource string

const (
	// SourceHistory: the count was read from child history on the baseline date.
	SourceHistory BaselineSource = "history"
	// SourceNeverStarted: the epic never reached the baseline status.
	SourceNeverStarted BaselineSource = "never_started"
	// SourceNoChildHistory: the epic has a baseline date but no child rows on it.
	SourceNoChildHistory BaselineSource = "no_child_history"
)

// Baseline is the child count of an epic at the moment it first entered the
// baseline status.
type Baseline struct {
	Date   *domain.Date
	Count  int
	Source BaselineSource
}

// ResolveBaseline applies the baseline fallbacks. date is nil when the epic
// never reached the status; childCount is nil when no child history row was
// recorded on that date. current is the epic's current child count.
func ResolveBaseline(date *domain.Date, childCount *int, current int) Baseline {
	switch {
	case date == nil:
		return Baseline{Count: current, Source: SourceNeverStarted}
	case childCount == nil || *childCount == 0:
		return Baseline{Date: date, Count: current, Source: SourceNoChildHistory}
	default:
		return Baseline{Date: date, Count: *childCount, Source: SourceHistory}
	}
}

// Drift returns the one-directional change from baseline to current. At most
// one of added and removed is non-zero.
func Drift(baseline, current int) (added, removed int) {
	if current > baseline {
		return current - baseline, 0
	}
	return 0, baseline - current
}
