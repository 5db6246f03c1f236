// Package broadcast defines the port for pushing report events, such as
// cache invalidations and hierarchy refreshes, to connected dashboards.
package broadcast

import "context"

// Broadcaster fans an event out to every connected dashboard client.
// Delivery is best effort: implementations drop clients that cannot keep up
// and never return an error to the publisher.
type Broadcaster interface {
	BroadcastEvent(ctx context.Context, eventType string, payload any)
}
