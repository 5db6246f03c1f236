package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"

	"github.com/Strob0t/AgilePulse/internal/adapter/ws"
	"github.com/Strob0t/AgilePulse/internal/port/broadcast"
	"github.com/Strob0t/AgilePulse/internal/workpool"
)

// scheduleParser accepts standard 5-field cron expressions.
var scheduleParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// ParseSchedule validates a refresh schedule.
func ParseSchedule(expr string) (cron.Schedule, error) {
	s, err := scheduleParser.Parse(expr)
	if err != nil {
		return nil, fmt.Errorf("refresh schedule %q: %w", expr, err)
	}
	return s, nil
}

// RefreshStats summarizes one refresh run.
type RefreshStats struct {
	Groups int
	Teams  int
	Warmed int
	Failed int
}

// Refresher periodically reloads the hierarchy snapshot and pre-computes
// the unfiltered epics report of every PI.
type Refresher struct {
	orgs  *OrgService
	pis   *PIService
	epics *EpicService
	pool  *workpool.Pool
	hub   broadcast.Broadcaster

	cron    *cron.Cron
	running atomic.Bool
}

// NewRefresher creates a Refresher warming at most concurrency reports at a
// time. hub may be nil.
func NewRefresher(orgs *OrgService, pis *PIService, epics *EpicService, concurrency int, hub broadcast.Broadcaster) *Refresher {
	return &Refresher{
		orgs:  orgs,
		pis:   pis,
		epics: epics,
		pool:  workpool.New(concurrency),
		hub:   hub,
	}
}

// Start schedules RunOnce. An empty schedule disables the refresher.
func (r *Refresher) Start(ctx context.Context, schedule string) error {
	if schedule == "" {
		slog.Info("scheduled refresh disabled")
		return nil
	}
	sched, err := ParseSchedule(schedule)
	if err != nil {
		return err
	}

	l := cronLogger{}
	r.cron = cron.New(
		cron.WithParser(scheduleParser),
		cron.WithLogger(l),
		cron.WithChain(cron.Recover(l), cron.SkipIfStillRunning(l)),
	)
	r.cron.Schedule(sched, cron.FuncJob(func() {
		if _, err := r.RunOnce(ctx); err != nil {
			slog.Error("scheduled refresh failed", "error", err)
		}
	}))
	r.cron.Start()
	slog.Info("scheduled refresh started", "schedule", schedule)
	return nil
}

// Stop halts the schedule and waits up to timeout for a running job.
func (r *Refresher) Stop(timeout time.Duration) {
	if r.cron == nil {
		return
	}
	done := r.cron.Stop()
	select {
	case <-done.Done():
	case <-time.After(timeout):
		slog.Warn("refresh still running at shutdown")
	}
}

// RunOnce reloads the hierarchy and warms the epics report of every PI.
// A warm-up failure of one PI is logged and does not stop the others.
func (r *Refresher) RunOnce(ctx context.Context) (RefreshStats, error) {
	if !r.running.CompareAndSwap(false, true) {
		return RefreshStats{}, fmt.Errorf("refresh already running")
	}
	defer r.running.Store(false)

	start := time.Now()
	h, err := r.orgs.Refresh(ctx)
	if err != nil {
		return RefreshStats{}, err
	}
	stats := RefreshStats{Groups: len(h.Groups()), Teams: len(h.TeamNames())}

	names, err := r.pis.Names(ctx)
	if err != nil {
		return stats, err
	}

	var warmed, failed atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	for _, name := range names {
		g.Go(func() error {
			return r.pool.Run(gctx, func() error {
				if _, err := r.epics.EpicsByPI(gctx, name, Filter{}); err != nil {
					failed.Add(1)
					slog.WarnContext(gctx, "warm-up failed", "pi", name, "error", err)
					return nil
				}
				warmed.Add(1)
				return nil
			})
		})
	}
	if err := g.Wait(); err != nil {
		return stats, err
	}
	stats.Warmed = int(warmed.Load())
	stats.Failed = int(failed.Load())

	slog.Info("refresh complete",
		"groups", stats.Groups,
		"teams", stats.Teams,
		"warmed", stats.Warmed,
		"failed", stats.Failed,
		"duration", time.Since(start),
	)
	if r.hub != nil {
		r.hub.BroadcastEvent(ctx, ws.EventOrgRefreshed, ws.OrgRefreshedEvent{
			Groups: stats.Groups,
			Teams:  stats.Teams,
			Warmed: stats.Warmed,
		})
	}
	return stats, nil
}

// cronLogger routes cron's own logging to slog.
type cronLogger struct{}

func (cronLogger) Info(msg string, kv ...any) {
	slog.Debug("cron: "+msg, kv...)
}

func (cronLogger) Error(err error, msg string, kv ...any) {
	slog.Error("cron: "+msg, append(kv, "error", err)...)
}
