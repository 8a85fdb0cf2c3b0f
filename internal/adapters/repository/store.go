// Package repository defines the record store interface and errors.
package repository

import (
	"context"

	"github.com/okian/alsip/internal/domain/model"
)

// OutcomeOrder selects the ordering of listed learning outcomes.
type OutcomeOrder string

// Outcome orderings. Both are descending.
const (
	OrderByCreated OutcomeOrder = "created_at"
	OrderByClarity OutcomeOrder = "clarity_gain"
)

// GoalFilter narrows a goal listing.
type GoalFilter struct {
	ActiveOnly bool
}

// OutcomeFilter narrows an outcome listing. An empty SkillID matches all
// skills.
type OutcomeFilter struct {
	SkillID string
	Order   OutcomeOrder
}

// Records is the typed get/insert/update surface shared by a store and its
// transactions. Missing rows are reported as model.ErrNotFound and every
// other failure wraps model.ErrPersistence.
type Records interface {
	InsertGoal(ctx context.Context, g model.Goal) error
	GetGoal(ctx context.Context, id string) (model.Goal, error)
	ListGoals(ctx context.Context, owner string, f GoalFilter) ([]model.Goal, error)
	UpdateGoal(ctx context.Context, g model.Goal) error

	InsertSkill(ctx context.Context, s model.Skill) error
	GetSkill(ctx context.Context, id string) (model.Skill, error)
	ListSkillsByGoal(ctx context.Context, goalID string) ([]model.Skill, error)
	// ListSkillsByOwner returns the skills of every goal owned by owner.
	ListSkillsByOwner(ctx context.Context, owner string) ([]model.Skill, error)
	UpdateSkill(ctx context.Context, s model.Skill) error

	GetStreak(ctx context.Context, owner string) (model.Streak, error)
	InsertStreak(ctx context.Context, s model.Streak) error
	UpdateStreak(ctx context.Context, s model.Streak) error
	ListStreakOwners(ctx context.Context) ([]string, error)

	InsertOutcome(ctx context.Context, o model.LearningOutcome) error
	ListOutcomes(ctx context.Context, owner string, f OutcomeFilter) ([]model.LearningOutcome, error)
}

// Store provides read/write access to persisted records.
type Store interface {
	Records

	// InTx runs fn against a transactional view of the store. The view is
	// committed when fn returns nil and rolled back otherwise. fn must not
	// use the outer Store.
	InTx(ctx context.Context, fn func(tx Records) error) error

	Ping(ctx context.Context) error
	Close() error
}
