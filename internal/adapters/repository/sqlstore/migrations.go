package sqlstore

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/okian/alsip/internal/domain/model"
)

// Calendar dates are TEXT columns holding YYYY-MM-DD so that equality is a
// string comparison on every driver.
var schema = []struct {
	name string
	ddl  string
}{
	{"goals", `
		CREATE TABLE IF NOT EXISTS goals (
			id         TEXT PRIMARY KEY,
			owner      TEXT NOT NULL,
			title      TEXT NOT NULL,
			category   TEXT NOT NULL DEFAULT '',
			timeline   TEXT NOT NULL,
			effort     TEXT NOT NULL,
			is_active  BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMP NOT NULL
		)`},
	{"skills", `
		CREATE TABLE IF NOT EXISTS skills (
			id                     TEXT PRIMARY KEY,
			goal_id                TEXT NOT NULL REFERENCES goals(id),
			name                   TEXT NOT NULL,
			progress               INTEGER NOT NULL DEFAULT 0,
			days_practiced         INTEGER NOT NULL DEFAULT 0,
			last_practiced_date    TEXT,
			confidence_score       INTEGER,
			last_confidence_update TEXT,
			created_at             TIMESTAMP NOT NULL
		)`},
	{"streaks", `
		CREATE TABLE IF NOT EXISTS streaks (
			owner              TEXT PRIMARY KEY,
			current_streak     INTEGER NOT NULL DEFAULT 0,
			longest_streak     INTEGER NOT NULL DEFAULT 0,
			last_activity_date TEXT,
			is_in_recovery     BOOLEAN NOT NULL DEFAULT FALSE,
			missed_days        INTEGER NOT NULL DEFAULT 0,
			updated_at         TIMESTAMP NOT NULL
		)`},
	{"learning_outcomes", `
		CREATE TABLE IF NOT EXISTS learning_outcomes (
			id             TEXT PRIMARY KEY,
			owner          TEXT NOT NULL,
			skill_id       TEXT NOT NULL REFERENCES skills(id),
			clarity_gain   INTEGER NOT NULL,
			confusion_note TEXT,
			difficulty     TEXT,
			created_at     TIMESTAMP NOT NULL
		)`},
	{"idx_goals_owner", `CREATE INDEX IF NOT EXISTS idx_goals_owner ON goals(owner)`},
	{"idx_skills_goal", `CREATE INDEX IF NOT EXISTS idx_skills_goal ON skills(goal_id)`},
	{"idx_outcomes_owner", `CREATE INDEX IF NOT EXISTS idx_outcomes_owner ON learning_outcomes(owner, created_at)`},
}

// Migrator creates the schema. Every statement is idempotent.
type Migrator struct {
	version string
}

// NewMigrator creates a migrator for the current schema version.
func NewMigrator() *Migrator {
	return &Migrator{version: "1"}
}

// Version returns the schema version.
func (m *Migrator) Version() string {
	return m.version
}

// Run applies every schema statement in order.
func (m *Migrator) Run(ctx context.Context, db *sqlx.DB) error {
	for _, step := range schema {
		if _, err := db.ExecContext(ctx, step.ddl); err != nil {
			return fmt.Errorf("%w: migrate %s: %v", model.ErrPersistence, step.name, err)
		}
	}
	return nil
}
