package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/okian/alsip/internal/adapters/repository"
	"github.com/okian/alsip/internal/domain/model"
	"github.com/okian/alsip/pkg/metrics"
)

const (
	goalColumns    = `id, owner, title, category, timeline, effort, is_active, created_at`
	skillColumns   = `id, goal_id, name, progress, days_practiced, last_practiced_date, confidence_score, last_confidence_update, created_at`
	streakColumns  = `owner, current_streak, longest_streak, last_activity_date, is_in_recovery, missed_days, updated_at`
	outcomeColumns = `id, owner, skill_id, clarity_gain, confusion_note, difficulty, created_at`
)

// records implements repository.Records over a database or a transaction.
type records struct {
	ext sqlx.ExtContext
}

func observe(op string, start time.Time) {
	metrics.RecordStoreLatency(op, float64(time.Since(start).Microseconds())/1000)
}

func (r records) get(ctx context.Context, op string, dest interface{}, query string, args ...interface{}) error {
	defer observe(op, time.Now())
	if err := sqlx.GetContext(ctx, r.ext, dest, r.ext.Rebind(query), args...); err != nil {
		return fail(op, err)
	}
	return nil
}

func (r records) list(ctx context.Context, op string, dest interface{}, query string, args ...interface{}) error {
	defer observe(op, time.Now())
	if err := sqlx.SelectContext(ctx, r.ext, dest, r.ext.Rebind(query), args...); err != nil {
		return fail(op, err)
	}
	return nil
}

func (r records) insert(ctx context.Context, op, query string, arg interface{}) error {
	defer observe(op, time.Now())
	if _, err := sqlx.NamedExecContext(ctx, r.ext, query, arg); err != nil {
		return fail(op, err)
	}
	return nil
}

// update reports model.ErrNotFound when no row matched.
func (r records) update(ctx context.Context, op, query string, arg interface{}) error {
	defer observe(op, time.Now())
	res, err := sqlx.NamedExecContext(ctx, r.ext, query, arg)
	if err != nil {
		return fail(op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fail(op, err)
	}
	if n == 0 {
		return fail(op, sql.ErrNoRows)
	}
	return nil
}

func (r records) InsertGoal(ctx context.Context, g model.Goal) error {
	return r.insert(ctx, "insert_goal", `
		INSERT INTO goals (`+goalColumns+`)
		VALUES (:id, :owner, :title, :category, :timeline, :effort, :is_active, :created_at)`, g)
}

func (r records) GetGoal(ctx context.Context, id string) (model.Goal, error) {
	var g model.Goal
	err := r.get(ctx, "get_goal", &g, `SELECT `+goalColumns+` FROM goals WHERE id = ?`, id)
	return g, err
}

func (r records) ListGoals(ctx context.Context, owner string, f repository.GoalFilter) ([]model.Goal, error) {
	query := `SELECT ` + goalColumns + ` FROM goals WHERE owner = ?`
	args := []interface{}{owner}
	if f.ActiveOnly {
		query += ` AND is_active = ?`
		args = append(args, true)
	}
	query += ` ORDER BY created_at, id`

	goals := []model.Goal{}
	err := r.list(ctx, "list_goals", &goals, query, args...)
	return goals, err
}

func (r records) UpdateGoal(ctx context.Context, g model.Goal) error {
	return r.update(ctx, "update_goal", `
		UPDATE goals
		SET title = :title, category = :category, timeline = :timeline, effort = :effort, is_active = :is_active
		WHERE id = :id`, g)
}

func (r records) InsertSkill(ctx context.Context, s model.Skill) error {
	return r.insert(ctx, "insert_skill", `
		INSERT INTO skills (`+skillColumns+`)
		VALUES (:id, :goal_id, :name, :progress, :days_practiced, :last_practiced_date, :confidence_score, :last_confidence_update, :created_at)`, s)
}

func (r records) GetSkill(ctx context.Context, id string) (model.Skill, error) {
	var s model.Skill
	err := r.get(ctx, "get_skill", &s, `SELECT `+skillColumns+` FROM skills WHERE id = ?`, id)
	return s, err
}

func (r records) ListSkillsByGoal(ctx context.Context, goalID string) ([]model.Skill, error) {
	skills := []model.Skill{}
	err := r.list(ctx, "list_skills_by_goal", &skills,
		`SELECT `+skillColumns+` FROM skills WHERE goal_id = ? ORDER BY created_at, id`, goalID)
	return skills, err
}

func (r records) ListSkillsByOwner(ctx context.Context, owner string) ([]model.Skill, error) {
	skills := []model.Skill{}
	err := r.list(ctx, "list_skills_by_owner", &skills, `
		SELECT s.id, s.goal_id, s.name, s.progress, s.days_practiced, s.last_practiced_date,
		       s.confidence_score, s.last_confidence_update, s.created_at
		FROM skills s
		JOIN goals g ON g.id = s.goal_id
		WHERE g.owner = ?
		ORDER BY g.created_at, g.id, s.created_at, s.id`, owner)
	return skills, err
}

func (r records) UpdateSkill(ctx context.Context, s model.Skill) error {
	return r.update(ctx, "update_skill", `
		UPDATE skills
		SET name = :name, progress = :progress, days_practiced = :days_practiced,
		    last_practiced_date = :last_practiced_date, confidence_score = :confidence_score,
		    last_confidence_update = :last_confidence_update
		WHERE id = :id`, s)
}

func (r records) GetStreak(ctx context.Context, owner string) (model.Streak, error) {
	var s model.Streak
	err := r.get(ctx, "get_streak", &s, `SELECT `+streakColumns+` FROM streaks WHERE owner = ?`, owner)
	return s, err
}

func (r records) InsertStreak(ctx context.Context, s model.Streak) error {
	return r.insert(ctx, "insert_streak", `
		INSERT INTO streaks (`+streakColumns+`)
		VALUES (:owner, :current_streak, :longest_streak, :last_activity_date, :is_in_recovery, :missed_days, :updated_at)`, s)
}

func (r records) UpdateStreak(ctx context.Context, s model.Streak) error {
	return r.update(ctx, "update_streak", `
		UPDATE streaks
		SET current_streak = :current_streak, longest_streak = :longest_streak,
		    last_activity_date = :last_activity_date, is_in_recovery = :is_in_recovery,
		    missed_days = :missed_days, updated_at = :updated_at
		WHERE owner = :owner`, s)
}

func (r records) ListStreakOwners(ctx context.Context) ([]string, error) {
	owners := []string{}
	err := r.list(ctx, "list_streak_owners", &owners, `SELECT owner FROM streaks ORDER BY owner`)
	return owners, err
}

func (r records) InsertOutcome(ctx context.Context, o model.LearningOutcome) error {
	return r.insert(ctx, "insert_outcome", `
		INSERT INTO learning_outcomes (`+outcomeColumns+`)
		VALUES (:id, :owner, :skill_id, :clarity_gain, :confusion_note, :difficulty, :created_at)`, o)
}

func (r records) ListOutcomes(ctx context.Context, owner string, f repository.OutcomeFilter) ([]model.LearningOutcome, error) {
	query := `SELECT ` + outcomeColumns + ` FROM learning_outcomes WHERE owner = ?`
	args := []interface{}{owner}
	if f.SkillID != "" {
		query += ` AND skill_id = ?`
		args = append(args, f.SkillID)
	}
	switch f.Order {
	case repository.OrderByClarity:
		query += ` ORDER BY clarity_gain DESC, created_at DESC, id`
	case repository.OrderByCreated, "":
		query += ` ORDER BY created_at DESC, id`
	default:
		return nil, model.Invalid("order", fmt.Sprintf("unknown ordering %q", f.Order))
	}

	outcomes := []model.LearningOutcome{}
	err := r.list(ctx, "list_outcomes", &outcomes, query, args...)
	return outcomes, err
}
