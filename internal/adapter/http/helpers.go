package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/Strob0t/AgilePulse/internal/domain"
	"github.com/Strob0t/AgilePulse/internal/service"
)

const maxBodyBytes = 64 << 10

// ---------------------------------------------------------------------------
// Request helpers
// ---------------------------------------------------------------------------

// readJSON decodes a JSON request body with a size limit. An empty body
// decodes to the zero value.
func readJSON[T any](w http.ResponseWriter, r *http.Request, bodyLimit int64) (T, bool) {
	var v T
	r.Body = http.MaxBytesReader(w, r.Body, bodyLimit)
	if err := json.NewDecoder(r.Body).Decode(&v); err != nil && !errors.Is(err, io.EOF) {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
		} else {
			writeError(w, http.StatusBadRequest, "invalid request body")
		}
		return v, false
	}
	return v, true
}

// urlParam is a short alias for chi.URLParam.
func urlParam(r *http.Request, name string) string {
	return chi.URLParam(r, name)
}

// queryFilter reads team_name and isGroup. isGroup accepts the strconv
// boolean forms and defaults to false.
func queryFilter(w http.ResponseWriter, r *http.Request) (service.Filter, bool) {
	q := r.URL.Query()
	f := service.Filter{TeamName: strings.TrimSpace(q.Get("team_name"))}
	if raw := strings.TrimSpace(q.Get("isGroup")); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "isGroup must be true or false")
			return service.Filter{}, false
		}
		f.IsGroup = v
	}
	return f, true
}

// requireQuery writes a 400 error and returns false when the parameter is blank.
func requireQuery(w http.ResponseWriter, r *http.Request, name string) (string, bool) {
	v := strings.TrimSpace(r.URL.Query().Get(name))
	if v == "" {
		writeError(w, http.StatusBadRequest, name+" is required")
		return "", false
	}
	return v, true
}

// ---------------------------------------------------------------------------
// Response helpers
// ---------------------------------------------------------------------------

type successResponse struct {
	Success bool   `json:"success"`
	Data    any    `json:"data"`
	Message string `json:"message"`
}

type errorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to write JSON response", "error", err)
	}
}

func writeOK(w http.ResponseWriter, data any, format string, args ...any) {
	writeJSON(w, http.StatusOK, successResponse{Success: true, Data: data, Message: fmt.Sprintf(format, args...)})
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Success: false, Message: message})
}

// writeDomainError maps domain errors to status codes and caller-facing
// messages. Store failures are logged and reported generically.
func writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		nf *domain.NotFoundError
		sc *domain.SprintConflictError
	)
	switch {
	case errors.As(err, &nf):
		writeError(w, http.StatusNotFound, nf.Message())
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.As(err, &sc):
		writeError(w, http.StatusConflict, sc.Message())
	case errors.Is(err, domain.ErrValidation):
		writeError(w, http.StatusBadRequest, strings.TrimPrefix(err.Error(), domain.ErrValidation.Error()+": "))
	case errors.Is(err, context.DeadlineExceeded):
		slog.WarnContext(r.Context(), "request timed out", "path", r.URL.Path, "error", err)
		writeError(w, http.StatusGatewayTimeout, "request timed out")
	case errors.Is(err, domain.ErrQuery):
		slog.ErrorContext(r.Context(), "query failed", "path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, "database query failed")
	default:
		slog.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

// countOf reads the top-level count of a rendered report, 0 when absent.
func countOf(raw json.RawMessage) int {
	var v struct {
		Count int `json:"count"`
	}
	_ = json.Unmarshal(raw, &v)
	return v.Count
}
