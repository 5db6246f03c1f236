package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	apotel "github.com/Strob0t/AgilePulse/internal/adapter/otel"
	"github.com/Strob0t/AgilePulse/internal/middleware"
)

// RouterOptions configures the middleware stack and the non-API endpoints.
type RouterOptions struct {
	CORSOrigin string
	Timeout    time.Duration
	// Limiter is optional; nil disables rate limiting.
	Limiter *middleware.RateLimiter
	// TraceService enables otelhttp spans under this service name when set.
	TraceService string
	// WS serves /ws when set.
	WS http.HandlerFunc
	// MCP serves /mcp when set, guarded by MCPKey when that is non-empty.
	MCP    http.Handler
	MCPKey string
}

// NewRouter builds the full HTTP handler: middleware, /health, /ws, /mcp
// and the versioned API.
func NewRouter(h *Handlers, opts RouterOptions) chi.Router {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(chimw.RealIP)
	r.Use(Logger)
	r.Use(chimw.Recoverer)
	r.Use(SecurityHeaders)
	if opts.CORSOrigin != "" {
		r.Use(CORS(opts.CORSOrigin))
	}
	if opts.TraceService != "" {
		r.Use(apotel.HTTPMiddleware(opts.TraceService))
	}
	if opts.Limiter != nil {
		r.Use(opts.Limiter.Handler)
	}

	r.Get("/health", h.Health)
	if opts.WS != nil {
		r.Get("/ws", opts.WS)
	}
	if opts.MCP != nil {
		r.With(middleware.BearerKey(opts.MCPKey)).Handle("/mcp", opts.MCP)
	}

	r.Group(func(r chi.Router) {
		r.Use(chimw.Timeout(opts.Timeout))
		MountRoutes(r, h)
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})
	return r
}

// MountRoutes registers all API routes on the given chi router.
func MountRoutes(r chi.Router, h *Handlers) {
	r.Route("/api/v1", func(r chi.Router) {
		// Teams and groups
		r.Get("/groups", h.ListGroups)
		r.Get("/groups/{id}/teams", h.GroupTeams)
		r.Get("/teams/names", h.TeamNames)
		r.Get("/teams/resolve", h.ResolveTeams)

		// PIs
		r.Get("/pis", h.ListPIs)
		r.Get("/pis/wip-summary", h.PIWIPSummary)

		// Issues
		r.Get("/issues/epics-by-pi", h.EpicsByPI)
		r.Get("/issues/epic-inbound-dependency-load-by-quarter", h.InboundDependencyLoad)
		r.Get("/issues/epic-outbound-dependency-metrics-by-quarter", h.OutboundDependencyMetrics)
		r.Get("/issues/issues-grouped-by-team", h.IssuesGroupedByTeam)

		// Sprints
		r.Get("/sprints", h.ListSprints)
		r.Get("/sprints/current-progress", h.CurrentSprintProgress)
		r.Get("/sprints/active-sprint-summary-by-team", h.ActiveSprintSummaryByTeam)
		r.Get("/sprints/burndown", h.SprintBurndown)

		// Team metrics
		r.Get("/team-metrics/count-in-progress", h.CountInProgress)
		r.Get("/team-metrics/current-sprint-completion", h.CurrentSprintCompletion)

		// Report registry
		r.Get("/reports", h.ListReports)
		r.Get("/reports/{report_id}", h.GetReport)

		// Cache
		r.Post("/cache/invalidate", h.InvalidateCache)
	})
}
