package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/okian/alsip/internal/domain/model"
)

type practiceRequest struct {
	Date model.Date `json:"date"`
}

type confidenceRequest struct {
	Score *int       `json:"score"`
	Date  model.Date `json:"date"`
}

type progressRequest struct {
	Progress *int `json:"progress"`
}

// handleLogPractice handles POST /v1/skills/{skillID}/practice. A repeat on
// the same date is still a 200 with status already_logged_today.
func (s *Server) handleLogPractice(w http.ResponseWriter, r *http.Request) {
	const op = "api.log_practice"
	var req practiceRequest
	if err := decode(w, r, op, &req); err != nil {
		s.fail(w, r, op, err)
		return
	}
	res, err := s.deps.LogPractice(r.Context(), chi.URLParam(r, "skillID"), req.Date)
	if err != nil {
		s.fail(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// handleUpdateConfidence handles PUT /v1/skills/{skillID}/confidence.
func (s *Server) handleUpdateConfidence(w http.ResponseWriter, r *http.Request) {
	const op = "api.update_confidence"
	var req confidenceRequest
	if err := decode(w, r, op, &req); err != nil {
		s.fail(w, r, op, err)
		return
	}
	if req.Score == nil {
		s.fail(w, r, op, model.Invalid("score", "required"))
		return
	}
	sk, err := s.deps.UpdateConfidence(r.Context(), chi.URLParam(r, "skillID"), *req.Score, req.Date)
	if err != nil {
		s.fail(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusOK, sk)
}

// handleSetProgress handles PUT /v1/skills/{skillID}/progress.
func (s *Server) handleSetProgress(w http.ResponseWriter, r *http.Request) {
	const op = "api.set_progress"
	var req progressRequest
	if err := decode(w, r, op, &req); err != nil {
		s.fail(w, r, op, err)
		return
	}
	if req.Progress == nil {
		s.fail(w, r, op, model.Invalid("progress", "required"))
		return
	}
	sk, err := s.deps.SetProgress(r.Context(), chi.URLParam(r, "skillID"), *req.Progress)
	if err != nil {
		s.fail(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusOK, sk)
}

// handleCheckIn handles GET /v1/skills/{skillID}/checkin[?date=].
func (s *Server) handleCheckIn(w http.ResponseWriter, r *http.Request) {
	const op = "api.check_in"
	res, err := s.deps.CheckIn(r.Context(), chi.URLParam(r, "skillID"), dateParam(r))
	if err != nil {
		s.fail(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
