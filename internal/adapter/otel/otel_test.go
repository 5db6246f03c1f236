package otel

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Strob0t/AgilePulse/internal/config"
)

func TestInitDisabled(t *testing.T) {
	shutdown, err := Init(context.Background(), config.Telemetry{Enabled: false})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
}

func TestNewMetrics(t *testing.T) {
	m, err := NewMetrics()
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	m.RecordRequest(ctx, "epics-by-pi")
	m.RecordFailure(ctx, "epics-by-pi", "query")
	m.RecordCache(ctx, "epics-by-pi", true)
	m.RecordCache(ctx, "epics-by-pi", false)
	m.RecordQuery(ctx, "list_epics", 5*time.Millisecond)
	m.RecordSprintConflict(ctx, "sprint-burndown")
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	ctx := context.Background()
	m.RecordRequest(ctx, "x")
	m.RecordFailure(ctx, "x", "y")
	m.RecordCache(ctx, "x", true)
	m.RecordQuery(ctx, "x", time.Second)
	m.RecordSprintConflict(ctx, "x")
}

func TestSpans(t *testing.T) {
	ctx, span := StartReportSpan(context.Background(), "epics-by-pi", "group")
	_, q := StartQuerySpan(ctx, "list_epics")
	EndSpan(q, errors.New("boom"))
	EndSpan(span, nil)
}

func TestSpanName(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/groups/7/teams", http.NoBody)
	if got := spanName("", req); got != "GET /api/v1/groups/7/teams" {
		t.Errorf("unrouted span name = %q", got)
	}

	rc := chi.NewRouteContext()
	rc.RoutePatterns = []string{"/api/v1/groups/{id}/teams"}
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rc))
	if got := spanName("", req); got != "GET /api/v1/groups/{id}/teams" {
		t.Errorf("routed span name = %q", got)
	}
}

func TestHTTPMiddlewarePassesThrough(t *testing.T) {
	h := HTTPMiddleware("test")(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	for _, path := range []string{"/health", "/api/v1/pis"} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, http.NoBody))
		if rec.Code != http.StatusTeapot {
			t.Errorf("%s: status = %d", path, rec.Code)
		}
	}
}
