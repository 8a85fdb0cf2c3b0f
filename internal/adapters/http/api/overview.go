package api

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/okian/alsip/internal/adapters/excel"
	"github.com/okian/alsip/internal/domain/types"
)

// handleStreak handles GET /v1/users/{userID}/streak[?date=]. It never
// writes.
func (s *Server) handleStreak(w http.ResponseWriter, r *http.Request) {
	const op = "api.streak"
	st, err := s.deps.StreakStatus(r.Context(), chi.URLParam(r, "userID"), dateParam(r))
	if err != nil {
		s.fail(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// handleDashboard handles GET /v1/users/{userID}/dashboard[?date=].
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	const op = "api.dashboard"
	dash, err := s.deps.Dashboard(r.Context(), chi.URLParam(r, "userID"), dateParam(r))
	if err != nil {
		s.fail(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusOK, dash)
}

// handleAnalytics handles GET /v1/users/{userID}/analytics[?date=].
func (s *Server) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	const op = "api.analytics"
	report, err := s.deps.Analytics(r.Context(), chi.URLParam(r, "userID"), dateParam(r))
	if err != nil {
		s.fail(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// handleSuggest handles POST /v1/suggestions.
func (s *Server) handleSuggest(w http.ResponseWriter, r *http.Request) {
	const op = "api.suggest"
	var req types.SuggestionQuery
	if err := decode(w, r, op, &req); err != nil {
		s.fail(w, r, op, err)
		return
	}
	res, err := s.deps.Suggest(r.Context(), req)
	if err != nil {
		s.fail(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// handleExport handles GET /v1/users/{userID}/export[?date=]. The workbook
// is built in memory so that a failure still yields a JSON error.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	const op = "api.export"
	owner := chi.URLParam(r, "userID")
	var buf bytes.Buffer
	if err := s.deps.Export(r.Context(), owner, dateParam(r), &buf); err != nil {
		s.fail(w, r, op, err)
		return
	}
	w.Header().Set("Content-Type", excel.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", owner+"-alsip.xlsx"))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}
