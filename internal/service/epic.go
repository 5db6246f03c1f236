package service

import (
	"context"
	"encoding/json"
	"strings"

	"golang.org/x/sync/errgroup"

	apotel "github.com/Strob0t/AgilePulse/internal/adapter/otel"
	"github.com/Strob0t/AgilePulse/internal/domain"
	"github.com/Strob0t/AgilePulse/internal/domain/epic"
	"github.com/Strob0t/AgilePulse/internal/domain/org"
	"github.com/Strob0t/AgilePulse/internal/domain/report"
	"github.com/Strob0t/AgilePulse/internal/port/database"
)

// EpicService builds the epics-by-PI progress report.
type EpicService struct {
	runner
	store database.EpicStore
}

// NewEpicService creates an EpicService.
func NewEpicService(store database.EpicStore, orgs *OrgService, cache *ReportCache, metrics *apotel.Metrics) *EpicService {
	return &EpicService{runner: runner{org: orgs, cache: cache, metrics: metrics}, store: store}
}

// EpicsByPI returns per-epic progress for the PI, restricted by the filter.
func (s *EpicService) EpicsByPI(ctx context.Context, piName string, f Filter) (json.RawMessage, error) {
	piName = strings.TrimSpace(piName)
	if piName == "" {
		return nil, domain.Validationf("pi is required")
	}
	return s.run(ctx, report.EpicsByPI, f, map[string]string{"pi": piName},
		func(ctx context.Context, tf org.TeamFilter) (any, error) {
			return s.Progress(ctx, piName, tf.TeamNames())
		})
}

// Progress computes the report body. The number of queries is fixed
// regardless of how many epics match.
func (s *EpicService) Progress(ctx context.Context, piName string, teams []string) (epic.Report, error) {
	epics, err := s.store.ListEpics(ctx, piName, teams)
	if err != nil {
		return epic.Report{}, err
	}
	if len(epics) == 0 {
		return epic.Report{PI: piName, Epics: []epic.Progress{}, Count: 0}, nil
	}

	keys := epic.Keys(epics)
	var agg epic.Aggregates

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		agg.Totals, err = s.store.ChildTotals(gctx, keys)
		return err
	})
	g.Go(func() error {
		var err error
		agg.TeamCounts, err = s.store.ChildTeamBreakdown(gctx, keys)
		return err
	})
	g.Go(func() error {
		var err error
		agg.Dependencies, err = s.store.DependencyAggregates(gctx, keys)
		return err
	})
	g.Go(func() error {
		// The count query needs the dates, so the two run in order.
		dates, err := s.store.BaselineDates(gctx, keys, epic.StatusInProgress)
		if err != nil {
			return err
		}
		agg.BaselineDates = dates
		agg.BaselineCounts, err = s.store.BaselineCounts(gctx, dates)
		return err
	})
	if err := g.Wait(); err != nil {
		return epic.Report{}, err
	}

	progress := epic.Assemble(piName, epics, agg)
	return epic.Report{PI: piName, Epics: progress, Count: len(progress)}, nil
}
