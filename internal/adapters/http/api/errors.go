package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/okian/alsip/internal/domain/model"
)

// Sentinel kinds for API errors.
var (
	ErrBadRequest = errors.New("bad request")
)

func wrapKind(op string, kind, err error) error {
	return fmt.Errorf("%s: %w: %v", op, kind, err)
}

// statusFor maps an error kind onto an HTTP status and error code.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, ErrBadRequest):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, model.ErrValidation):
		return http.StatusBadRequest, "validation_error"
	case errors.Is(err, model.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, model.ErrPersistence):
		return http.StatusServiceUnavailable, "persistence_failure"
	case errors.Is(err, model.ErrSuggestion):
		return http.StatusBadGateway, "suggestion_service_failure"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

// fail writes err as a JSON error body. Server-side failures are logged and
// answered with the status text only.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	status, code := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error(r.Context(), "request failed",
			logFields(r, op, err)...,
		)
		err = nil
	}
	writeError(w, status, code, err)
}
