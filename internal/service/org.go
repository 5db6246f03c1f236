package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/Strob0t/AgilePulse/internal/domain/org"
	"github.com/Strob0t/AgilePulse/internal/domain/report"
	"github.com/Strob0t/AgilePulse/internal/port/database"
)

// hierarchyKey is the cache key of the group/team snapshot.
const hierarchyKey = "org.hierarchy"

// OrgService serves teams and groups and resolves team filters against the
// cached hierarchy snapshot.
type OrgService struct {
	store database.OrgStore
	cache *ReportCache
	group singleflight.Group
}

// NewOrgService creates an OrgService. cache may be nil.
func NewOrgService(store database.OrgStore, cache *ReportCache) *OrgService {
	return &OrgService{store: store, cache: cache}
}

// Hierarchy returns the current hierarchy, from the cache when possible.
func (s *OrgService) Hierarchy(ctx context.Context) (*org.Hierarchy, error) {
	if s.cache != nil {
		if data, ok := s.cache.get(ctx, hierarchyKey); ok {
			var snap org.Snapshot
			if err := json.Unmarshal(data, &snap); err == nil {
				return org.NewHierarchy(snap), nil
			}
			slog.WarnContext(ctx, "dropping undecodable hierarchy snapshot")
			s.cache.delete(ctx, hierarchyKey)
		}
	}

	v, err := shared(ctx, &s.group, hierarchyKey, func(sctx context.Context) (any, error) {
		return s.Refresh(sctx)
	})
	if err != nil {
		return nil, err
	}
	return v.(*org.Hierarchy), nil
}

// Refresh reloads the snapshot from the store and overwrites the cached copy.
func (s *OrgService) Refresh(ctx context.Context) (*org.Hierarchy, error) {
	snap, err := s.loadSnapshot(ctx)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		data, err := json.Marshal(snap)
		if err != nil {
			return nil, fmt.Errorf("encode hierarchy: %w", err)
		}
		s.cache.set(ctx, hierarchyKey, data, s.cache.ttls.For(report.Historical))
	}
	return org.NewHierarchy(snap), nil
}

// Invalidate drops the cached snapshot.
func (s *OrgService) Invalidate(ctx context.Context) {
	if s.cache != nil {
		s.cache.delete(ctx, hierarchyKey)
	}
}

func (s *OrgService) loadSnapshot(ctx context.Context) (org.Snapshot, error) {
	var snap org.Snapshot
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		snap.Groups, err = s.store.ListGroups(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		snap.Teams, err = s.store.ListTeams(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		snap.Memberships, err = s.store.ListMemberships(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return org.Snapshot{}, fmt.Errorf("load hierarchy: %w", err)
	}
	return snap, nil
}

// ResolveFilter expands an optional team or group name into a TeamFilter.
func (s *OrgService) ResolveFilter(ctx context.Context, name string, isGroup bool) (org.TeamFilter, error) {
	h, err := s.Hierarchy(ctx)
	if err != nil {
		return org.TeamFilter{}, err
	}
	return org.Resolve(h, name, isGroup)
}

// Resolution is the body of a filter resolution: the concrete team list a
// team_name/isGroup pair expands to.
type Resolution struct {
	Scope string   `json:"scope"`
	Teams []string `json:"teams"`
	Count int      `json:"count"`
}

// Resolve resolves f and renders the resolution with the filter echo. The
// unfiltered case lists every known team.
func (s *OrgService) Resolve(ctx context.Context, f Filter) (json.RawMessage, error) {
	h, err := s.Hierarchy(ctx)
	if err != nil {
		return nil, err
	}
	tf, err := org.Resolve(h, f.TeamName, f.IsGroup)
	if err != nil {
		return nil, err
	}
	teams := tf.TeamNames()
	if teams == nil {
		teams = h.TeamNames()
	}
	return report.MarshalScoped(Resolution{Scope: tf.Scope.String(), Teams: teams, Count: len(teams)}, tf)
}

// ListGroups returns every group ordered by name.
func (s *OrgService) ListGroups(ctx context.Context) ([]org.Group, error) {
	h, err := s.Hierarchy(ctx)
	if err != nil {
		return nil, err
	}
	return h.Groups(), nil
}

// GroupTeams returns the teams directly in a group, read from the store.
func (s *OrgService) GroupTeams(ctx context.Context, groupID int64) ([]org.Team, error) {
	return s.store.GroupTeams(ctx, groupID)
}

// TeamNames returns every team name, read from the store.
func (s *OrgService) TeamNames(ctx context.Context) ([]string, error) {
	return s.store.ListTeamNames(ctx)
}
