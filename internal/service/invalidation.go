package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Strob0t/AgilePulse/internal/adapter/ws"
	"github.com/Strob0t/AgilePulse/internal/domain"
	"github.com/Strob0t/AgilePulse/internal/port/broadcast"
	"github.com/Strob0t/AgilePulse/internal/port/messagequeue"
)

// InvalidationResult describes one applied invalidation.
type InvalidationResult struct {
	EventID string `json:"event_id"`
	Scope   string `json:"scope"`
	Removed int    `json:"removed"`
	Queued  bool   `json:"queued"`
}

// InvalidationService drops cached reports when the ingested data changes.
// With a queue, invalidations are published so every instance applies them;
// without one they are applied in-process.
type InvalidationService struct {
	queue messagequeue.Queue
	orgs  *OrgService
	cache *ReportCache
	hub   broadcast.Broadcaster
	now   func() time.Time
}

// NewInvalidationService creates an InvalidationService. queue and hub may be nil.
func NewInvalidationService(queue messagequeue.Queue, orgs *OrgService, cache *ReportCache, hub broadcast.Broadcaster) *InvalidationService {
	return &InvalidationService{queue: queue, orgs: orgs, cache: cache, hub: hub, now: time.Now}
}

// Publish announces that data of the given scope changed.
func (s *InvalidationService) Publish(ctx context.Context, scope, reason string) (InvalidationResult, error) {
	scope = strings.TrimSpace(scope)
	subject, ok := messagequeue.SubjectForScope(scope)
	if !ok {
		return InvalidationResult{}, domain.Validationf("scope must be %s or %s", messagequeue.ScopeOrg, messagequeue.ScopeIssues)
	}
	p := messagequeue.InvalidationPayload{
		EventID: uuid.NewString(),
		Scope:   scope,
		Reason:  strings.TrimSpace(reason),
		At:      s.now().UTC(),
	}

	if s.queue == nil {
		return s.Apply(ctx, p)
	}

	data, err := json.Marshal(p)
	if err != nil {
		return InvalidationResult{}, fmt.Errorf("encode invalidation: %w", err)
	}
	if err := s.queue.Publish(ctx, subject, data); err != nil {
		return InvalidationResult{}, err
	}
	slog.InfoContext(ctx, "invalidation published", "event_id", p.EventID, "scope", scope)
	return InvalidationResult{EventID: p.EventID, Scope: scope, Queued: true}, nil
}

// Start subscribes to the invalidation subjects. The returned function
// cancels the subscription.
func (s *InvalidationService) Start(ctx context.Context) (func(), error) {
	if s.queue == nil {
		return func() {}, nil
	}
	return s.queue.Subscribe(ctx, messagequeue.SubjectPrefix+".invalidate.*", s.handle)
}

func (s *InvalidationService) handle(ctx context.Context, subject string, data []byte) error {
	var p messagequeue.InvalidationPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return fmt.Errorf("decode invalidation on %s: %w", subject, err)
	}
	if p.Scope == "" {
		p.Scope = strings.TrimPrefix(subject, messagequeue.SubjectPrefix+".invalidate.")
	}
	_, err := s.Apply(ctx, p)
	return err
}

// Apply drops the cache entries affected by p and notifies dashboards.
// An org change also drops the hierarchy snapshot.
func (s *InvalidationService) Apply(ctx context.Context, p messagequeue.InvalidationPayload) (InvalidationResult, error) {
	switch p.Scope {
	case messagequeue.ScopeOrg:
		s.orgs.Invalidate(ctx)
	case messagequeue.ScopeIssues:
	default:
		return InvalidationResult{}, domain.Validationf("unknown invalidation scope %q", p.Scope)
	}

	removed, err := s.cache.InvalidateReports(ctx)
	if err != nil {
		return InvalidationResult{}, fmt.Errorf("invalidate reports: %w", err)
	}

	slog.InfoContext(ctx, "cache invalidated", "event_id", p.EventID, "scope", p.Scope, "reason", p.Reason, "removed", removed)
	if s.hub != nil {
		s.hub.BroadcastEvent(ctx, ws.EventCacheInvalidated, ws.CacheInvalidatedEvent{
			EventID: p.EventID,
			Scope:   p.Scope,
			Reason:  p.Reason,
			Removed: removed,
		})
	}
	return InvalidationResult{EventID: p.EventID, Scope: p.Scope, Removed: removed}, nil
}
