package ws

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/Strob0t/AgilePulse/internal/port/broadcast"
)

// Event type constants for WebSocket messages.
const (
	EventCacheInvalidated = "cache.invalidated"
	EventOrgRefreshed     = "org.refreshed"
)

// CacheInvalidatedEvent is broadcast after an invalidation was applied.
type CacheInvalidatedEvent struct {
	EventID string `json:"event_id"`
	Scope   string `json:"scope"`
	Reason  string `json:"reason,omitempty"`
	Removed int    `json:"removed"`
}

// OrgRefreshedEvent is broadcast after the scheduled hierarchy refresh.
type OrgRefreshedEvent struct {
	Groups int `json:"groups"`
	Teams  int `json:"teams"`
	Warmed int `json:"warmed"`
}

var _ broadcast.Broadcaster = (*Hub)(nil)

// BroadcastEvent is a convenience method that marshals a typed event and broadcasts it.
func (h *Hub) BroadcastEvent(ctx context.Context, eventType string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		slog.Error("marshal ws event payload", "type", eventType, "error", err)
		return
	}

	h.Broadcast(ctx, Message{
		Type:    eventType,
		Payload: json.RawMessage(data),
	})
}
