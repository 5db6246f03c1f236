// Package report defines report identities, cache keys and the request-echo
// encoding shared by every report payload.
package report

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Strob0t/AgilePulse/internal/domain/org"
)

// ID names a report.
type ID string

const (
	EpicsByPI               ID = "epics-by-pi"
	EpicInboundDependency   ID = "epic-inbound-dependency"
	EpicOutboundDependency  ID = "epic-outbound-dependency"
	CurrentSprintProgress   ID = "current-sprint-progress"
	SprintBurndown          ID = "sprint-burndown"
	PIWorkInProgressSummary ID = "pi-wip-summary"
	PIList                  ID = "pi-list"

	SprintList                ID = "sprint-list"
	ActiveSprintSummaryByTeam ID = "active-sprint-summary-by-team"
	TeamCountInProgress       ID = "team-count-in-progress"
	TeamSprintCompletion      ID = "team-current-sprint-completion"
	IssuesGroupedByTeam       ID = "issues-grouped-by-team"
)

// TTLClass groups reports by how quickly their data goes stale.
type TTLClass int

const (
	Realtime TTLClass = iota
	Aggregate
	Historical
)

// TTLs holds the cache lifetime of each class.
type TTLs struct {
	Realtime   time.Duration
	Aggregate  time.Duration
	Historical time.Duration
}

// For returns the TTL for class c.
func (t TTLs) For(c TTLClass) time.Duration {
	switch c {
	case Realtime:
		return t.Realtime
	case Historical:
		return t.Historical
	default:
		return t.Aggregate
	}
}

// Class returns the TTL class of a report.
func (id ID) Class() TTLClass {
	switch id {
	case CurrentSprintProgress, PIWorkInProgressSummary, ActiveSprintSummaryByTeam,
		TeamCountInProgress, TeamSprintCompletion:
		return Realtime
	case PIList:
		return Historical
	default:
		return Aggregate
	}
}

// KeyPrefix is the cache key prefix of every report entry.
const KeyPrefix = "report."

// CacheKey returns a deterministic key for a report and its filters. The key
// uses only characters valid in NATS KV keys.
func CacheKey(id ID, filters map[string]string) string {
	// json.Marshal sorts map keys, so equal filter sets hash equally.
	canonical, err := json.Marshal(filters)
	if err != nil {
		canonical = []byte(fmt.Sprint(filters))
	}
	sum := sha256.Sum256(append([]byte(string(id)+":"), canonical...))
	return KeyPrefix + string(id) + "." + hex.EncodeToString(sum[:16])
}

// MarshalScoped encodes body as a JSON object and merges the filter's echo
// fields into it. Object keys are emitted in sorted order.
func MarshalScoped(body any, f org.TeamFilter) ([]byte, error) {
	raw, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	fields := map[string]json.RawMessage{}
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("scoped payload must be an object: %w", err)
	}

	// Drop any echo keys the body may carry so only one shape survives.
	delete(fields, "team_name")
	delete(fields, "group_name")
	delete(fields, "teams_in_group")

	e := f.Echo()
	switch e.Scope {
	case org.ScopeTeam:
		fields["team_name"] = mustRaw(e.TeamName)
	case org.ScopeGroup:
		fields["group_name"] = mustRaw(e.GroupName)
		fields["teams_in_group"] = mustRaw(e.TeamsInGroup)
	default:
		fields["team_name"] = json.RawMessage("null")
	}
	return json.Marshal(fields)
}

func mustRaw(v any) json.RawMessage {
	b, err := json.Marshal(v)
	if err != nil {
		return json.RawMessage("null")
	}
	return b
}
