// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New(ctx) to build a Config with defaults.
// - Load layers a YAML file and ALSIP_ environment variables over them.
// - Errors are wrapped with this package's sentinel kinds.
package config

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/okian/alsip/internal/domain/model"
	"github.com/okian/alsip/internal/domain/suggest"
)

// Store drivers accepted in db_driver.
const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Suggestion is one configured fallback suggestion.
type Suggestion struct {
	Name        string `koanf:"name"`
	Importance  string `koanf:"importance"`
	FutureProof bool   `koanf:"future_proof"`
	Reason      string `koanf:"reason"`
}

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`
	// LogFormat is text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// Timezone defines the calendar day used for "today".
	Timezone string `koanf:"timezone"`

	DBDriver string `koanf:"db_driver"`
	DBDSN    string `koanf:"db_dsn"`

	// QueueSize bounds the in-memory sweep queue.
	QueueSize int `koanf:"queue_size"`
	// WorkerCount sets the number of sweep workers.
	WorkerCount int `koanf:"worker_count"`

	SweepEnabled bool   `koanf:"sweep_enabled"`
	SweepCron    string `koanf:"sweep_cron"`

	// IdempotencyCacheSize bounds the remembered Idempotency-Key values.
	IdempotencyCacheSize int `koanf:"idempotency_cache_size"`

	ConfidenceCheckInDays int `koanf:"confidence_checkin_days"`
	RecoveryGapDays       int `koanf:"recovery_gap_days"`
	PlanSize              int `koanf:"plan_size"`
	RecoveryPlanSize      int `koanf:"recovery_plan_size"`
	MaxNoteLength         int `koanf:"max_note_length"`

	// OpenAIAPIKey enables the remote suggester when set.
	OpenAIAPIKey        string `koanf:"openai_api_key"`
	OpenAIBaseURL       string `koanf:"openai_base_url"`
	OpenAIModel         string `koanf:"openai_model"`
	SuggestionTimeoutMS int    `koanf:"suggestion_timeout_ms"`
	MaxSuggestions      int    `koanf:"max_suggestions"`

	// CategoryKeywords and FallbackSuggestions extend or replace the
	// built-in suggestion tables per category.
	CategoryKeywords    map[string][]string     `koanf:"category_keywords"`
	FallbackSuggestions map[string][]Suggestion `koanf:"fallback_suggestions"`
}

// New creates a Config with defaults. Context is accepted first to satisfy
// the project-wide convention and is currently unused.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:              "info",
		LogFormat:             "text",
		Addr:                  ":9080",
		Timezone:              "UTC",
		DBDriver:              DriverSQLite,
		DBDSN:                 "file:alsip.db?cache=shared",
		QueueSize:             1024,
		WorkerCount:           2,
		SweepEnabled:          true,
		SweepCron:             "5 0 * * *",
		IdempotencyCacheSize:  10_000,
		ConfidenceCheckInDays: 7,
		RecoveryGapDays:       2,
		PlanSize:              5,
		RecoveryPlanSize:      2,
		MaxNoteLength:         2000,
		OpenAIBaseURL:         "https://api.openai.com/v1",
		OpenAIModel:           "gpt-4o-mini",
		SuggestionTimeoutMS:   15_000,
		MaxSuggestions:        8,
	}
}

// Location returns the configured timezone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("%w: timezone %q: %v", ErrInvalidConfig, c.Timezone, err)
	}
	return loc, nil
}

// SuggestionTimeout returns the remote suggester timeout.
func (c *Config) SuggestionTimeout() time.Duration {
	return time.Duration(c.SuggestionTimeoutMS) * time.Millisecond
}

// SuggestionTables merges the configured tables over the built-in ones. A
// configured category replaces the built-in entry of the same name.
func (c *Config) SuggestionTables() suggest.Tables {
	t := suggest.DefaultTables()
	for cat, words := range c.CategoryKeywords {
		t.Keywords[strings.ToLower(cat)] = words
	}
	for cat, set := range c.FallbackSuggestions {
		out := make([]model.Suggestion, 0, len(set))
		for _, s := range set {
			imp, ok := model.ParseImportance(s.Importance)
			if !ok {
				imp = model.ImportanceImportant
			}
			out = append(out, model.Suggestion{Name: s.Name, Importance: imp, FutureProof: s.FutureProof, Reason: s.Reason})
		}
		t.Fallbacks[strings.ToLower(cat)] = out
	}
	return t
}

// Validate rejects configurations the service cannot run with.
func (c *Config) Validate() error {
	positive := map[string]int{
		"queue_size":              c.QueueSize,
		"worker_count":            c.WorkerCount,
		"idempotency_cache_size":  c.IdempotencyCacheSize,
		"confidence_checkin_days": c.ConfidenceCheckInDays,
		"recovery_gap_days":       c.RecoveryGapDays,
		"plan_size":               c.PlanSize,
		"recovery_plan_size":      c.RecoveryPlanSize,
		"max_note_length":         c.MaxNoteLength,
		"suggestion_timeout_ms":   c.SuggestionTimeoutMS,
		"max_suggestions":         c.MaxSuggestions,
	}
	for key, v := range positive {
		if v <= 0 {
			return fmt.Errorf("%w: %s must be positive", ErrInvalidConfig, key)
		}
	}

	switch {
	case strings.TrimSpace(c.Addr) == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.RecoveryPlanSize > c.PlanSize:
		return fmt.Errorf("%w: recovery_plan_size must not exceed plan_size", ErrInvalidConfig)
	case c.LogFormat != "text" && c.LogFormat != "json":
		return fmt.Errorf("%w: log_format must be text or json", ErrInvalidConfig)
	case c.SweepEnabled && strings.TrimSpace(c.SweepCron) == "":
		return fmt.Errorf("%w: sweep_cron is required when sweep_enabled", ErrInvalidConfig)
	}

	switch c.DBDriver {
	case DriverSQLite, DriverPostgres:
		if strings.TrimSpace(c.DBDSN) == "" {
			return fmt.Errorf("%w: db_dsn is required for %s", ErrInvalidConfig, c.DBDriver)
		}
	case DriverMemory:
	default:
		return fmt.Errorf("%w: unknown db_driver %q", ErrInvalidConfig, c.DBDriver)
	}

	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}
