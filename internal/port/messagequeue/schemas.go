package messagequeue

import "time"

// Invalidation scopes.
const (
	ScopeOrg    = "org"
	ScopeIssues = "issues"
)

// InvalidationPayload is the schema for reporting.invalidate.* messages.
type InvalidationPayload struct {
	EventID string    `json:"event_id"`
	Scope   string    `json:"scope"`
	Reason  string    `json:"reason"`
	At      time.Time `json:"at"`
}

// SubjectForScope maps an invalidation scope to its subject.
func SubjectForScope(scope string) (string, bool) {
	switch scope {
	case ScopeOrg:
		return SubjectInvalidateOrg, true
	case ScopeIssues:
		return SubjectInvalidateIssues, true
	default:
		return "", false
	}
}
