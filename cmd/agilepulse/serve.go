package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	aphttp "github.com/Strob0t/AgilePulse/internal/adapter/http"
	apmcp "github.com/Strob0t/AgilePulse/internal/adapter/mcp"
	apnats "github.com/Strob0t/AgilePulse/internal/adapter/nats"
	"github.com/Strob0t/AgilePulse/internal/adapter/natskv"
	apotel "github.com/Strob0t/AgilePulse/internal/adapter/otel"
	"github.com/Strob0t/AgilePulse/internal/adapter/postgres"
	"github.com/Strob0t/AgilePulse/internal/adapter/ristretto"
	"github.com/Strob0t/AgilePulse/internal/adapter/tiered"
	"github.com/Strob0t/AgilePulse/internal/adapter/ws"
	"github.com/Strob0t/AgilePulse/internal/config"
	"github.com/Strob0t/AgilePulse/internal/domain/report"
	"github.com/Strob0t/AgilePulse/internal/logger"
	"github.com/Strob0t/AgilePulse/internal/middleware"
	"github.com/Strob0t/AgilePulse/internal/port/cache"
	"github.com/Strob0t/AgilePulse/internal/port/messagequeue"
	"github.com/Strob0t/AgilePulse/internal/resilience"
	"github.com/Strob0t/AgilePulse/internal/service"
)

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the reporting API server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, a)
		},
	}
}

func runServe(cmd *cobra.Command, a *app) error {
	cfg, path, closer, err := a.load()
	if err != nil {
		return err
	}
	defer closer.Close()

	slog.Info("config loaded",
		"path", path,
		"port", cfg.Server.Port,
		"log_level", cfg.Logging.Level,
		"pg_max_conns", cfg.Postgres.MaxConns,
		"cache", cfg.Cache.Enabled,
	)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Telemetry ---

	shutdownOtel, err := apotel.Init(ctx, cfg.Telemetry)
	if err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownOtel(sctx); err != nil {
			slog.Warn("telemetry shutdown failed", "error", err)
		}
	}()
	metrics, err := apotel.NewMetrics()
	if err != nil {
		return fmt.Errorf("metrics: %w", err)
	}

	// --- Infrastructure ---

	pool, err := postgres.NewPool(ctx, cfg.Postgres)
	if err != nil {
		return fmt.Errorf("postgres: %w", err)
	}
	defer pool.Close()
	slog.Info("postgres connected")

	if err := postgres.RunMigrations(ctx, cfg.Postgres.DSN); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	slog.Info("migrations applied")

	// NATS is optional: without it invalidations apply locally and the
	// cache stays in-process.
	var (
		queue messagequeue.Queue
		nq    *apnats.Queue
	)
	if cfg.NATS.URL != "" {
		nq, err = apnats.Connect(ctx, cfg.NATS.URL)
		if err != nil {
			slog.Warn("nats unavailable, continuing without shared cache and invalidation bus", "error", err)
			nq = nil
		} else {
			queue = nq
			defer func() { _ = nq.Drain() }()
		}
	}

	reportCache, closeCache, err := buildReportCache(ctx, cfg, nq, metrics)
	if err != nil {
		return fmt.Errorf("cache: %w", err)
	}
	defer closeCache()

	policies, err := service.PoliciesFromConfig(cfg.Reports.SprintPolicies)
	if err != nil {
		return fmt.Errorf("sprint policies: %w", err)
	}

	// --- Services ---

	hub := ws.NewHub(cfg.Server.CORSOrigin)
	defer hub.Close()

	store := postgres.NewStore(pool, metrics)
	orgSvc := service.NewOrgService(store, reportCache)
	epicSvc := service.NewEpicService(store, orgSvc, reportCache, metrics)
	depSvc := service.NewDependencyService(store, orgSvc, reportCache, metrics)
	sprintSvc := service.NewSprintService(store, orgSvc, reportCache, metrics, policies)
	piSvc := service.NewPIService(store, orgSvc, reportCache, metrics)
	teamSvc := service.NewTeamMetricsService(store, orgSvc, reportCache, metrics)
	issueSvc := service.NewIssueService(store, orgSvc, reportCache, metrics)
	registry := service.NewReportRegistry(store, service.ReportSources{
		Epics:        epicSvc,
		Dependencies: depSvc,
		Sprints:      sprintSvc,
		PIs:          piSvc,
		Teams:        teamSvc,
		Issues:       issueSvc,
	})
	invalidation := service.NewInvalidationService(queue, orgSvc, reportCache, hub)

	cancelInvalidation, err := invalidation.Start(ctx)
	if err != nil {
		return fmt.Errorf("invalidation subscriber: %w", err)
	}
	defer cancelInvalidation()

	refresher := service.NewRefresher(orgSvc, piSvc, epicSvc, cfg.Refresh.WarmConcurrency, hub)
	if err := refresher.Start(ctx, cfg.Refresh.Schedule); err != nil {
		return fmt.Errorf("refresh schedule: %w", err)
	}
	defer refresher.Stop(10 * time.Second)

	// --- HTTP ---

	handlers := &aphttp.Handlers{
		Orgs:         orgSvc,
		Epics:        epicSvc,
		Dependencies: depSvc,
		Sprints:      sprintSvc,
		PIs:          piSvc,
		TeamMetrics:  teamSvc,
		Issues:       issueSvc,
		Reports:      registry,
		Invalidation: invalidation,
		Store:        store,
		Clients:      hub.ConnectionCount,
		Version:      Version,
	}
	if nq != nil {
		handlers.Queue = nq
	}

	limiter := middleware.NewRateLimiterFromConfig(cfg.Rate, "/health", "/ws")
	limiter.StartCleanup(ctx, cfg.Rate.CleanupInterval, cfg.Rate.MaxIdleTime)

	opts := aphttp.RouterOptions{
		Timeout:    cfg.Server.RequestTimeout,
		CORSOrigin: cfg.Server.CORSOrigin,
		Limiter:    limiter,
		WS:         hub.HandleWS,
	}
	if cfg.Telemetry.Enabled {
		opts.TraceService = cfg.Telemetry.ServiceName
	}
	if cfg.MCP.Enabled {
		mcpSrv := apmcp.NewServer(
			apmcp.ServerConfig{Name: cfg.MCP.Name, Version: cfg.MCP.Version},
			apmcp.ServerDeps{Orgs: orgSvc, Epics: epicSvc, Sprints: sprintSvc},
		)
		opts.MCP = mcpSrv.Handler("/mcp")
		opts.MCPKey = cfg.MCP.APIKey
		slog.Info("mcp tools enabled", "path", "/mcp")
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           aphttp.NewRouter(handlers, opts),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      cfg.Server.RequestTimeout + 30*time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go watchReload(ctx, config.NewHolder(cfg, path, a.flags()))

	errCh := make(chan error, 1)
	go func() {
		slog.Info("starting server", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server: %w", err)
		}
	case <-ctx.Done():
	}
	slog.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// buildReportCache assembles the L1 ristretto cache, tiered over the NATS KV
// bucket when the queue is connected. It returns a nil ReportCache when
// caching is disabled.
func buildReportCache(ctx context.Context, cfg *config.Config, nq *apnats.Queue, metrics *apotel.Metrics) (*service.ReportCache, func(), error) {
	if !cfg.Cache.Enabled {
		slog.Info("report cache disabled")
		return nil, func() {}, nil
	}

	l1, err := ristretto.New(cfg.Cache.L1MaxSizeMB << 20)
	if err != nil {
		return nil, nil, fmt.Errorf("l1: %w", err)
	}

	var c cache.Cache = l1
	if nq != nil {
		kv, err := nq.KeyValue(ctx, cfg.Cache.L2Bucket, cfg.Cache.L2TTL)
		if err != nil {
			slog.Warn("nats kv unavailable, using l1 cache only", "bucket", cfg.Cache.L2Bucket, "error", err)
		} else {
			c = tiered.New(l1, natskv.New(kv), cfg.Cache.RealtimeTTL)
		}
	}

	var breaker *resilience.Breaker
	if cfg.Breaker.MaxFailures > 0 {
		breaker = resilience.NewBreaker(cfg.Breaker.MaxFailures, cfg.Breaker.Timeout)
	}
	ttls := report.TTLs{
		Realtime:   cfg.Cache.RealtimeTTL,
		Aggregate:  cfg.Cache.AggregateTTL,
		Historical: cfg.Cache.HistoricalTTL,
	}
	return service.NewReportCache(c, breaker, ttls, metrics), l1.Close, nil
}

// watchReload re-reads the config file on SIGHUP and applies the log level.
func watchReload(ctx context.Context, holder *config.Holder) {
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)
	for {
		select {
		case <-ctx.Done():
			return
		case <-hup:
			if err := holder.Reload(); err != nil {
				slog.Error("config reload failed", "error", err)
				continue
			}
			logger.SetLevel(holder.Get().Logging.Level)
		}
	}
}
