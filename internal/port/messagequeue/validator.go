package messagequeue

import (
	"encoding/json"
	"fmt"
	"strings"
)

// validators holds the payload check for each subject with a schema.
var validators = map[string]func(subject string, data []byte) error{
	SubjectInvalidateOrg:    validateInvalidation,
	SubjectInvalidateIssues: validateInvalidation,
}

// Validate rejects data that is not JSON or does not match the schema bound
// to subject. Dead-letter copies and unknown subjects only need valid JSON.
func Validate(subject string, data []byte) error {
	if !json.Valid(data) {
		return fmt.Errorf("invalid JSON on subject %s", subject)
	}
	if strings.HasSuffix(subject, DLQSuffix) {
		return nil
	}
	if v, ok := validators[subject]; ok {
		return v(subject, data)
	}
	return nil
}

// validateInvalidation also requires a non-empty scope to agree with the
// subject it arrived on.
func validateInvalidation(subject string, data []byte) error {
	var p InvalidationPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return fmt.Errorf("schema validation failed for %s: %w", subject, err)
	}
	if p.Scope == "" {
		return nil
	}
	if want, _ := SubjectForScope(p.Scope); want != subject {
		return fmt.Errorf("schema validation failed for %s: scope %q does not match subject", subject, p.Scope)
	}
	return nil
}
