package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Strob0t/AgilePulse/internal/domain/org"
	"github.com/Strob0t/AgilePulse/internal/domain/report"
	"github.com/Strob0t/AgilePulse/internal/service"
)

// OrgReader serves the team and group endpoints.
type OrgReader interface {
	ListGroups(ctx context.Context) ([]org.Group, error)
	GroupTeams(ctx context.Context, groupID int64) ([]org.Team, error)
	TeamNames(ctx context.Context) ([]string, error)
	Resolve(ctx context.Context, f service.Filter) (json.RawMessage, error)
}

// EpicReports serves the epic progress report.
type EpicReports interface {
	EpicsByPI(ctx context.Context, pi string, f service.Filter) (json.RawMessage, error)
}

// DependencyReports serves the dependency views.
type DependencyReports interface {
	InboundLoad(ctx context.Context, pi string, f service.Filter) (json.RawMessage, error)
	OutboundMetrics(ctx context.Context, pi string, f service.Filter) (json.RawMessage, error)
}

// SprintReports serves the sprint reports.
type SprintReports interface {
	ListSprints(ctx context.Context, f service.Filter, state string) (json.RawMessage, error)
	CurrentProgress(ctx context.Context, f service.Filter) (json.RawMessage, error)
	ActiveSummaryByTeam(ctx context.Context, f service.Filter) (json.RawMessage, error)
	Burndown(ctx context.Context, f service.Filter, sprintName, issueType string) (json.RawMessage, error)
}

// TeamMetricsReports serves the team indicators.
type TeamMetricsReports interface {
	CountInProgress(ctx context.Context, f service.Filter) (json.RawMessage, error)
	CurrentSprintCompletion(ctx context.Context, f service.Filter) (json.RawMessage, error)
}

// IssueReports serves issue breakdowns.
type IssueReports interface {
	GroupedByTeam(ctx context.Context, f service.Filter, issueType, statusCategory string) (json.RawMessage, error)
}

// ReportRegistry serves report definitions and resolves them.
type ReportRegistry interface {
	Definitions(ctx context.Context) ([]report.Definition, error)
	Resolve(ctx context.Context, id string, params map[string]string) (report.Resolved, error)
}

// PIReports serves the PI endpoints.
type PIReports interface {
	List(ctx context.Context) (json.RawMessage, error)
	WIPSummary(ctx context.Context, pi string, f service.Filter) (json.RawMessage, error)
}

// Invalidator publishes cache invalidations.
type Invalidator interface {
	Publish(ctx context.Context, scope, reason string) (service.InvalidationResult, error)
}

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Connector reports whether the message queue is connected.
type Connector interface {
	IsConnected() bool
}

// Handlers holds the HTTP handlers and their service dependencies.
type Handlers struct {
	Orgs         OrgReader
	Epics        EpicReports
	Dependencies DependencyReports
	Sprints      SprintReports
	PIs          PIReports
	TeamMetrics  TeamMetricsReports
	Issues       IssueReports
	Reports      ReportRegistry
	Invalidation Invalidator

	// Health checks. Queue may be nil when NATS is not configured.
	Store   Pinger
	Queue   Connector
	Clients func() int
	Version string
}

// --- Teams and groups ---

// ListGroups handles GET /api/v1/groups.
func (h *Handlers) ListGroups(w http.ResponseWriter, r *http.Request) {
	groups, err := h.Orgs.ListGroups(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	if groups == nil {
		groups = []org.Group{}
	}
	writeOK(w, map[string]any{"groups": groups, "count": len(groups)}, "Retrieved %d groups", len(groups))
}

// GroupTeams handles GET /api/v1/groups/{id}/teams.
func (h *Handlers) GroupTeams(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(urlParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "group id must be a positive integer")
		return
	}
	teams, err := h.Orgs.GroupTeams(r.Context(), id)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	if teams == nil {
		teams = []org.Team{}
	}
	writeOK(w, map[string]any{"group_id": id, "teams": teams, "count": len(teams)},
		"Retrieved %d teams for group %d", len(teams), id)
}

// TeamNames handles GET /api/v1/teams/names.
func (h *Handlers) TeamNames(w http.ResponseWriter, r *http.Request) {
	names, err := h.Orgs.TeamNames(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	if names == nil {
		names = []string{}
	}
	writeOK(w, map[string]any{"team_names": names, "count": len(names)}, "Retrieved %d team names", len(names))
}

// ResolveTeams handles GET /api/v1/teams/resolve.
func (h *Handlers) ResolveTeams(w http.ResponseWriter, r *http.Request) {
	f, ok := queryFilter(w, r)
	if !ok {
		return
	}
	data, err := h.Orgs.Resolve(r.Context(), f)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeOK(w, data, "Resolved %d teams", countOf(data))
}

// --- PIs ---

// ListPIs handles GET /api/v1/pis.
func (h *Handlers) ListPIs(w http.ResponseWriter, r *http.Request) {
	data, err := h.PIs.List(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeOK(w, data, "Retrieved %d PIs", countOf(data))
}

// PIWIPSummary handles GET /api/v1/pis/wip-summary.
func (h *Handlers) PIWIPSummary(w http.ResponseWriter, r *http.Request) {
	pi, ok := requireQuery(w, r, "pi")
	if !ok {
		return
	}
	f, ok := queryFilter(w, r)
	if !ok {
		return
	}
	data, err := h.PIs.WIPSummary(r.Context(), pi, f)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeOK(w, data, "Retrieved WIP summary for %d teams in PI %s", countOf(data), pi)
}

// --- Issues ---

// EpicsByPI handles GET /api/v1/issues/epics-by-pi.
func (h *Handlers) EpicsByPI(w http.ResponseWriter, r *http.Request) {
	pi, ok := requireQuery(w, r, "pi")
	if !ok {
		return
	}
	f, ok := queryFilter(w, r)
	if !ok {
		return
	}
	data, err := h.Epics.EpicsByPI(r.Context(), pi, f)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	if n := countOf(data); n > 0 {
		writeOK(w, data, "Retrieved %d epics for PI %s", n, pi)
		return
	}
	writeOK(w, data, "No epics found for PI %s", pi)
}

// InboundDependencyLoad handles GET /api/v1/issues/epic-inbound-dependency-load-by-quarter.
func (h *Handlers) InboundDependencyLoad(w http.ResponseWriter, r *http.Request) {
	f, ok := queryFilter(w, r)
	if !ok {
		return
	}
	data, err := h.Dependencies.InboundLoad(r.Context(), r.URL.Query().Get("pi"), f)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeOK(w, data, "Retrieved %d epic inbound dependency load records", countOf(data))
}

// OutboundDependencyMetrics handles GET /api/v1/issues/epic-outbound-dependency-metrics-by-quarter.
func (h *Handlers) OutboundDependencyMetrics(w http.ResponseWriter, r *http.Request) {
	f, ok := queryFilter(w, r)
	if !ok {
		return
	}
	data, err := h.Dependencies.OutboundMetrics(r.Context(), r.URL.Query().Get("pi"), f)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeOK(w, data, "Retrieved %d epic outbound dependency metrics records", countOf(data))
}

// IssuesGroupedByTeam handles GET /api/v1/issues/issues-grouped-by-team.
func (h *Handlers) IssuesGroupedByTeam(w http.ResponseWriter, r *http.Request) {
	f, ok := queryFilter(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	data, err := h.Issues.GroupedByTeam(r.Context(), f, q.Get("issue_type"), q.Get("status_category"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeOK(w, data, "Retrieved %d teams with priority breakdown", countOf(data))
}

// --- Sprints ---

// ListSprints handles GET /api/v1/sprints.
func (h *Handlers) ListSprints(w http.ResponseWriter, r *http.Request) {
	f, ok := queryFilter(w, r)
	if !ok {
		return
	}
	data, err := h.Sprints.ListSprints(r.Context(), f, r.URL.Query().Get("state"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeOK(w, data, "Retrieved %d sprints", countOf(data))
}

// ActiveSprintSummaryByTeam handles GET /api/v1/sprints/active-sprint-summary-by-team.
func (h *Handlers) ActiveSprintSummaryByTeam(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireQuery(w, r, "team_name"); !ok {
		return
	}
	f, ok := queryFilter(w, r)
	if !ok {
		return
	}
	data, err := h.Sprints.ActiveSummaryByTeam(r.Context(), f)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeOK(w, data, "Retrieved active sprint summary for '%s'", f.TeamName)
}

// CurrentSprintProgress handles GET /api/v1/sprints/current-progress.
func (h *Handlers) CurrentSprintProgress(w http.ResponseWriter, r *http.Request) {
	f, ok := queryFilter(w, r)
	if !ok {
		return
	}
	data, err := h.Sprints.CurrentProgress(r.Context(), f)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeOK(w, data, "Retrieved current sprint progress")
}

// SprintBurndown handles GET /api/v1/sprints/burndown.
func (h *Handlers) SprintBurndown(w http.ResponseWriter, r *http.Request) {
	f, ok := queryFilter(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	data, err := h.Sprints.Burndown(r.Context(), f, q.Get("sprint_name"), q.Get("issue_type"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeOK(w, data, "Retrieved sprint burndown")
}

// --- Team metrics ---

// CountInProgress handles GET /api/v1/team-metrics/count-in-progress.
func (h *Handlers) CountInProgress(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireQuery(w, r, "team_name"); !ok {
		return
	}
	f, ok := queryFilter(w, r)
	if !ok {
		return
	}
	data, err := h.TeamMetrics.CountInProgress(r.Context(), f)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeOK(w, data, "Retrieved count in progress for '%s'", f.TeamName)
}

// CurrentSprintCompletion handles GET /api/v1/team-metrics/current-sprint-completion.
func (h *Handlers) CurrentSprintCompletion(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireQuery(w, r, "team_name"); !ok {
		return
	}
	f, ok := queryFilter(w, r)
	if !ok {
		return
	}
	data, err := h.TeamMetrics.CurrentSprintCompletion(r.Context(), f)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeOK(w, data, "Retrieved current sprint completion rate for '%s'", f.TeamName)
}

// --- Report registry ---

// ListReports handles GET /api/v1/reports.
func (h *Handlers) ListReports(w http.ResponseWriter, r *http.Request) {
	defs, err := h.Reports.Definitions(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	if defs == nil {
		defs = []report.Definition{}
	}
	writeOK(w, map[string]any{"reports": defs, "count": len(defs)}, "Retrieved %d report definitions", len(defs))
}

// GetReport handles GET /api/v1/reports/{report_id}. Every query parameter
// is a filter; repeated parameters join with commas.
func (h *Handlers) GetReport(w http.ResponseWriter, r *http.Request) {
	id := urlParam(r, "report_id")
	params := make(map[string]string, len(r.URL.Query()))
	for k, vs := range r.URL.Query() {
		params[k] = strings.Join(vs, ",")
	}
	res, err := h.Reports.Resolve(r.Context(), id, params)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeOK(w, res, "Retrieved report '%s'", id)
}

// --- Cache ---

type invalidateRequest struct {
	Scope  string `json:"scope"`
	Reason string `json:"reason"`
}

// InvalidateCache handles POST /api/v1/cache/invalidate.
func (h *Handlers) InvalidateCache(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[invalidateRequest](w, r, maxBodyBytes)
	if !ok {
		return
	}
	if req.Reason == "" {
		req.Reason = "api"
	}
	res, err := h.Invalidation.Publish(r.Context(), req.Scope, req.Reason)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	if res.Queued {
		writeJSON(w, http.StatusAccepted, successResponse{Success: true, Data: res, Message: "Invalidation queued"})
		return
	}
	writeOK(w, res, "Invalidated %d cached reports", res.Removed)
}

// --- Health ---

type healthStatus struct {
	Status    string `json:"status"`
	Postgres  string `json:"postgres"`
	NATS      string `json:"nats"`
	WSClients int    `json:"ws_clients"`
	Version   string `json:"version,omitempty"`
}

// Health handles GET /health. The service is unhealthy when the store is
// unreachable; a disconnected queue only degrades it.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	st := healthStatus{Status: "ok", Postgres: "ok", NATS: "disabled", Version: h.Version}
	if h.Store != nil {
		if err := h.Store.Ping(ctx); err != nil {
			st.Status, st.Postgres = "unavailable", "unreachable"
		}
	}
	if h.Queue != nil {
		st.NATS = "ok"
		if !h.Queue.IsConnected() {
			st.NATS = "disconnected"
			if st.Status == "ok" {
				st.Status = "degraded"
			}
		}
	}
	if h.Clients != nil {
		st.WSClients = h.Clients()
	}

	if st.Status == "unavailable" {
		writeJSON(w, http.StatusServiceUnavailable, successResponse{Success: false, Data: st, Message: "service unavailable"})
		return
	}
	writeOK(w, st, "service %s", st.Status)
}
