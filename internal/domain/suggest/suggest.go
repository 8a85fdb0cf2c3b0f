// Package suggest proposes skills for a goal from an external collaborator,
// with a static fallback set per category.
package suggest

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/okian/alsip/internal/domain/model"
)

const defaultMaxSuggestions = 8

// Request describes the goal to suggest skills for.
type Request struct {
	GoalTitle string
	Category  string
	// Existing holds skill names already attached to the goal.
	Existing []string
}

// Result is what the service returns to callers.
type Result struct {
	Category    string             `json:"category"`
	Suggestions []model.Suggestion `json:"suggestions"`
	Fallback    bool               `json:"fallback"`
}

// Suggester produces raw suggestions. Implementations return ErrMalformed
// for unparseable upstream output and wrap model.ErrSuggestion for
// transport or upstream failures.
type Suggester interface {
	Suggest(ctx context.Context, title, category string) ([]model.Suggestion, error)
}

// Static serves the fallback tables. It is used when no remote service is
// configured.
type Static struct {
	tables Tables
}

// NewStatic creates a static suggester over tables.
func NewStatic(tables Tables) *Static {
	return &Static{tables: tables}
}

// Suggest returns the fallback set of the category.
func (s *Static) Suggest(_ context.Context, _, category string) ([]model.Suggestion, error) {
	return s.tables.Fallback(category), nil
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithMaxSuggestions caps the number of returned suggestions.
func WithMaxSuggestions(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.max = n
		}
	}
}

// WithTables replaces the default keyword and fallback tables.
func WithTables(t Tables) Option {
	return func(s *Service) {
		s.tables = t
	}
}

// Service resolves a category, asks the Suggester, and cleans the answer.
type Service struct {
	suggester Suggester
	tables    Tables
	max       int
}

// NewService creates a suggestion service. A nil suggester falls back to
// the static tables.
func NewService(suggester Suggester, opts ...Option) *Service {
	s := &Service{
		tables: DefaultTables(),
		max:    defaultMaxSuggestions,
	}
	for _, opt := range opts {
		opt(s)
	}
	if suggester == nil {
		suggester = NewStatic(s.tables)
	}
	s.suggester = suggester
	return s
}

// ResolveCategory maps a goal title and optional category onto a known
// category.
func (s *Service) ResolveCategory(title, category string) string {
	return s.tables.Resolve(title, category)
}

// Suggest returns suggestions for req. Malformed upstream output is replaced
// by the category's fallback set and flagged; any other upstream failure is
// returned as model.ErrSuggestion.
func (s *Service) Suggest(ctx context.Context, req Request) (Result, error) {
	title := strings.TrimSpace(req.GoalTitle)
	if title == "" {
		return Result{}, model.Invalid("goal_title", "required")
	}
	category := s.tables.Resolve(title, req.Category)
	res := Result{Category: category}

	raw, err := s.suggester.Suggest(ctx, title, category)
	switch {
	case errors.Is(err, ErrMalformed):
		raw = s.tables.Fallback(category)
		res.Fallback = true
	case err != nil:
		if errors.Is(err, model.ErrSuggestion) {
			return Result{}, err
		}
		return Result{}, fmt.Errorf("%w: %v", model.ErrSuggestion, err)
	}

	res.Suggestions = s.clean(raw, req.Existing)
	return res, nil
}

// clean drops unnamed entries, names already on the goal and repeats,
// comparing names case-insensitively. Near duplicates are kept.
func (s *Service) clean(raw []model.Suggestion, existing []string) []model.Suggestion {
	seen := make(map[string]struct{}, len(existing)+len(raw))
	for _, name := range existing {
		seen[strings.ToLower(strings.TrimSpace(name))] = struct{}{}
	}

	out := make([]model.Suggestion, 0, len(raw))
	for _, sg := range raw {
		sg.Name = strings.TrimSpace(sg.Name)
		key := strings.ToLower(sg.Name)
		if key == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		if imp, ok := model.ParseImportance(string(sg.Importance)); ok {
			sg.Importance = imp
		} else {
			sg.Importance = model.ImportanceImportant
		}
		out = append(out, sg)
		if len(out) == s.max {
			break
		}
	}
	return out
}
