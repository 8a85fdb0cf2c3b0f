// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/okian/alsip/internal/domain/analytics"
	"github.com/okian/alsip/internal/domain/goal"
	"github.com/okian/alsip/internal/domain/model"
	"github.com/okian/alsip/internal/domain/reflection"
	"github.com/okian/alsip/internal/domain/streak"
	"github.com/okian/alsip/internal/domain/suggest"
	"github.com/okian/alsip/internal/domain/types"
	"github.com/okian/alsip/pkg/logger"
)

const maxBodyBytes = 1 << 20

// IdempotencyHeader carries the client key that makes POST /v1/sessions safe
// to retry.
const IdempotencyHeader = "Idempotency-Key"

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	CreateGoal(ctx context.Context, in types.NewGoal) (goal.Summary, error)
	ListGoals(ctx context.Context, owner string, activeOnly bool) ([]goal.Summary, error)
	GetGoal(ctx context.Context, goalID string) (goal.Summary, error)
	SetGoalActive(ctx context.Context, goalID string, active bool) (goal.Summary, error)
	AddSkill(ctx context.Context, goalID, name string) (model.Skill, error)

	LogPractice(ctx context.Context, skillID string, date model.Date) (types.PracticeResult, error)
	UpdateConfidence(ctx context.Context, skillID string, score int, date model.Date) (model.Skill, error)
	SetProgress(ctx context.Context, skillID string, value int) (model.Skill, error)
	CheckIn(ctx context.Context, skillID string, date model.Date) (types.CheckIn, error)

	RecordReflection(ctx context.Context, in reflection.Input) (model.LearningOutcome, error)
	ListReflections(ctx context.Context, owner, skillID, order string) ([]model.LearningOutcome, error)
	CompleteSessionOnce(ctx context.Context, key string, in types.Session) (types.SessionResult, error)

	StreakStatus(ctx context.Context, owner string, date model.Date) (streak.Status, error)
	Dashboard(ctx context.Context, owner string, date model.Date) (types.Dashboard, error)
	Analytics(ctx context.Context, owner string, date model.Date) (analytics.Report, error)
	Suggest(ctx context.Context, q types.SuggestionQuery) (suggest.Result, error)
	Export(ctx context.Context, owner string, date model.Date, w io.Writer) error

	Ping(ctx context.Context) error
}

// Option applies a configuration option to the Server.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// Server wires HTTP routes for the business API.
type Server struct {
	deps   Dependencies
	health *HealthHandler
	logger logger.Logger
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, opts ...Option) *Server {
	s := &Server{
		deps:   deps,
		health: NewHealthHandler(deps),
		logger: logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.Named("api")
	return s
}

// Handler returns the router with every route attached.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(RequestFields)
	r.Use(middleware.Recoverer)
	r.Use(MetricsMiddleware)

	r.Get("/healthz", s.health.HandleHealth)
	r.Get("/metrics", s.health.HandleMetrics)

	r.Route("/v1", func(r chi.Router) {
		r.Post("/goals", s.handleCreateGoal)
		r.Get("/goals/{goalID}", s.handleGetGoal)
		r.Patch("/goals/{goalID}", s.handleUpdateGoal)
		r.Post("/goals/{goalID}/skills", s.handleAddSkill)

		r.Post("/skills/{skillID}/practice", s.handleLogPractice)
		r.Put("/skills/{skillID}/confidence", s.handleUpdateConfidence)
		r.Put("/skills/{skillID}/progress", s.handleSetProgress)
		r.Get("/skills/{skillID}/checkin", s.handleCheckIn)

		r.Post("/reflections", s.handleRecordReflection)
		r.Post("/sessions", s.handleCompleteSession)
		r.Post("/suggestions", s.handleSuggest)

		r.Route("/users/{userID}", func(r chi.Router) {
			r.Get("/goals", s.handleListGoals)
			r.Get("/reflections", s.handleListReflections)
			r.Get("/streak", s.handleStreak)
			r.Get("/dashboard", s.handleDashboard)
			r.Get("/analytics", s.handleAnalytics)
			r.Get("/export", s.handleExport)
		})
	})
	return r
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// decode reads a JSON body into v. An empty body leaves v untouched.
func decode(w http.ResponseWriter, r *http.Request, op string, v any) error {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return wrapKind(op, ErrBadRequest, err)
	}
	return nil
}

// dateParam reads the optional ?date= query parameter.
func dateParam(r *http.Request) model.Date {
	return model.Date(r.URL.Query().Get("date"))
}
