// Package types contains result types shared by the service and the API.
package types

import (
	"github.com/okian/alsip/internal/domain/goal"
	"github.com/okian/alsip/internal/domain/model"
	"github.com/okian/alsip/internal/domain/plan"
	"github.com/okian/alsip/internal/domain/progress"
	"github.com/okian/alsip/internal/domain/streak"
)

// NewGoal is the input for creating a goal.
type NewGoal struct {
	Owner    string         `json:"owner"`
	Title    string         `json:"title"`
	Category string         `json:"category"`
	Timeline model.Timeline `json:"timeline"`
	Effort   model.Effort   `json:"effort"`
}

// PracticeResult reports a LogPractice call.
type PracticeResult struct {
	Status progress.Status `json:"status"`
	Skill  model.Skill     `json:"skill"`
}

// CheckIn reports whether a confidence check-in is due for a skill.
type CheckIn struct {
	SkillID              string      `json:"skill_id"`
	Due                  bool        `json:"due"`
	DaysPracticed        int         `json:"days_practiced"`
	ConfidenceScore      *int        `json:"confidence_score"`
	LastConfidenceUpdate *model.Date `json:"last_confidence_update"`
}

// Session is the input of a completed learning session.
type Session struct {
	Owner         string            `json:"owner"`
	SkillID       string            `json:"skill_id"`
	Date          model.Date        `json:"date,omitempty"`
	ClarityGain   *int              `json:"clarity_gain"`
	ConfusionNote *string           `json:"confusion_note,omitempty"`
	Difficulty    *model.Difficulty `json:"difficulty,omitempty"`
}

// SessionResult reports a completed session. Outcome is the reflection stored
// for the session; it is set on every successful call.
type SessionResult struct {
	Status       progress.Status        `json:"status"`
	Skill        model.Skill            `json:"skill"`
	Outcome      *model.LearningOutcome `json:"outcome,omitempty"`
	Streak       streak.Status          `json:"streak"`
	GoalProgress int                    `json:"goal_progress"`
	Replayed     bool                   `json:"replayed,omitempty"`
}

// SuggestionQuery asks for skills for a goal, either by id or by title.
type SuggestionQuery struct {
	GoalID    string `json:"goal_id,omitempty"`
	GoalTitle string `json:"goal_title"`
	Category  string `json:"category,omitempty"`
}

// Dashboard is the per-owner overview for a date.
type Dashboard struct {
	Owner  string         `json:"owner"`
	Date   model.Date     `json:"date"`
	Streak streak.Status  `json:"streak"`
	Goals  []goal.Summary `json:"goals"`
	Plan   plan.Plan      `json:"plan"`
}
