package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/okian/alsip/internal/domain/reflection"
	"github.com/okian/alsip/internal/domain/types"
	"github.com/okian/alsip/pkg/logger"
)

// handleRecordReflection handles POST /v1/reflections.
func (s *Server) handleRecordReflection(w http.ResponseWriter, r *http.Request) {
	const op = "api.record_reflection"
	var req reflection.Input
	if err := decode(w, r, op, &req); err != nil {
		s.fail(w, r, op, err)
		return
	}
	out, err := s.deps.RecordReflection(r.Context(), req)
	if err != nil {
		s.fail(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusCreated, out)
}

// handleListReflections handles
// GET /v1/users/{userID}/reflections[?skill_id=&order=created_at|clarity_gain].
func (s *Server) handleListReflections(w http.ResponseWriter, r *http.Request) {
	const op = "api.list_reflections"
	q := r.URL.Query()
	out, err := s.deps.ListReflections(r.Context(), chi.URLParam(r, "userID"), q.Get("skill_id"), q.Get("order"))
	if err != nil {
		s.fail(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// handleCompleteSession handles POST /v1/sessions. The optional
// Idempotency-Key header makes a retry return the first result.
func (s *Server) handleCompleteSession(w http.ResponseWriter, r *http.Request) {
	const op = "api.complete_session"
	var req types.Session
	if err := decode(w, r, op, &req); err != nil {
		s.fail(w, r, op, err)
		return
	}
	res, err := s.deps.CompleteSessionOnce(r.Context(), r.Header.Get(IdempotencyHeader), req)
	if err != nil {
		s.fail(w, r, op, err)
		return
	}
	s.logger.Debug(r.Context(), "session handled",
		logger.String("owner", req.Owner),
		logger.String("status", string(res.Status)),
		logger.Bool("replayed", res.Replayed),
	)
	writeJSON(w, http.StatusOK, res)
}
