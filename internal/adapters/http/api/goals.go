package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/okian/alsip/internal/domain/model"
	"github.com/okian/alsip/internal/domain/types"
	"github.com/okian/alsip/pkg/logger"
)

type addSkillRequest struct {
	Name string `json:"name"`
}

type updateGoalRequest struct {
	IsActive *bool `json:"is_active"`
}

// handleCreateGoal handles POST /v1/goals.
func (s *Server) handleCreateGoal(w http.ResponseWriter, r *http.Request) {
	const op = "api.create_goal"
	var req types.NewGoal
	if err := decode(w, r, op, &req); err != nil {
		s.fail(w, r, op, err)
		return
	}
	g, err := s.deps.CreateGoal(r.Context(), req)
	if err != nil {
		s.fail(w, r, op, err)
		return
	}
	s.logger.Debug(r.Context(), "goal created", logger.String("goal_id", g.Goal.ID))
	writeJSON(w, http.StatusCreated, g)
}

// handleGetGoal handles GET /v1/goals/{goalID}.
func (s *Server) handleGetGoal(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_goal"
	g, err := s.deps.GetGoal(r.Context(), chi.URLParam(r, "goalID"))
	if err != nil {
		s.fail(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusOK, g)
}

// handleUpdateGoal handles PATCH /v1/goals/{goalID}; only is_active can
// change.
func (s *Server) handleUpdateGoal(w http.ResponseWriter, r *http.Request) {
	const op = "api.update_goal"
	var req updateGoalRequest
	if err := decode(w, r, op, &req); err != nil {
		s.fail(w, r, op, err)
		return
	}
	if req.IsActive == nil {
		s.fail(w, r, op, model.Invalid("is_active", "required"))
		return
	}
	g, err := s.deps.SetGoalActive(r.Context(), chi.URLParam(r, "goalID"), *req.IsActive)
	if err != nil {
		s.fail(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusOK, g)
}

// handleAddSkill handles POST /v1/goals/{goalID}/skills.
func (s *Server) handleAddSkill(w http.ResponseWriter, r *http.Request) {
	const op = "api.add_skill"
	var req addSkillRequest
	if err := decode(w, r, op, &req); err != nil {
		s.fail(w, r, op, err)
		return
	}
	sk, err := s.deps.AddSkill(r.Context(), chi.URLParam(r, "goalID"), req.Name)
	if err != nil {
		s.fail(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusCreated, sk)
}

// handleListGoals handles GET /v1/users/{userID}/goals[?active=true].
func (s *Server) handleListGoals(w http.ResponseWriter, r *http.Request) {
	const op = "api.list_goals"
	activeOnly := false
	if v := r.URL.Query().Get("active"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			s.fail(w, r, op, model.Invalid("active", "must be a boolean"))
			return
		}
		activeOnly = b
	}
	goals, err := s.deps.ListGoals(r.Context(), chi.URLParam(r, "userID"), activeOnly)
	if err != nil {
		s.fail(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusOK, goals)
}
