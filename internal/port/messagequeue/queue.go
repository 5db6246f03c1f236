// Package messagequeue defines the queue port that carries cache
// invalidation events between AgilePulse instances.
package messagequeue

import "context"

// Handler processes one delivered message. A returned error triggers
// redelivery; the context carries the publisher's request ID.
type Handler func(ctx context.Context, subject string, data []byte) error

// Queue publishes and consumes invalidation events.
type Queue interface {
	// Publish sends data on subject.
	Publish(ctx context.Context, subject string, data []byte) error

	// Subscribe consumes subject, which may contain wildcards. Payloads are
	// validated before handler runs. The returned function stops the consumer.
	Subscribe(ctx context.Context, subject string, handler Handler) (cancel func(), err error)

	// Drain lets in-flight handlers finish, then closes the connection.
	Drain() error

	// Close drops the connection without waiting for handlers.
	Close() error

	// IsConnected feeds the health endpoint.
	IsConnected() bool
}

// Subject constants for the reporting invalidation stream.
const (
	StreamName = "AGILEPULSE"

	SubjectPrefix           = "reporting"
	SubjectInvalidateOrg    = "reporting.invalidate.org"    // teams, groups or memberships changed
	SubjectInvalidateIssues = "reporting.invalidate.issues" // issues, history or sprints ingested

	// DLQSuffix is appended to a subject for messages that failed validation.
	DLQSuffix = ".dlq"
)
