package model

import "time"

// Goal is a user-defined learning objective. Skills point back to it through
// Skill.GoalID; the goal never holds skill instances.
type Goal struct {
	ID        string    `db:"id" json:"id"`
	Owner     string    `db:"owner" json:"owner"`
	Title     string    `db:"title" json:"title"`
	Category  string    `db:"category" json:"category"`
	Timeline  Timeline  `db:"timeline" json:"timeline"`
	Effort    Effort    `db:"effort" json:"effort"`
	IsActive  bool      `db:"is_active" json:"is_active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`

	// Derived at read time, never stored.
	Progress      int `db:"-" json:"progress"`
	DaysRemaining int `db:"-" json:"days_remaining"`
}

// Skill is a trackable part of a goal.
type Skill struct {
	ID                   string    `db:"id" json:"id"`
	GoalID               string    `db:"goal_id" json:"goal_id"`
	Name                 string    `db:"name" json:"name"`
	Progress             int       `db:"progress" json:"progress"`
	DaysPracticed        int       `db:"days_practiced" json:"days_practiced"`
	LastPracticedDate    *Date     `db:"last_practiced_date" json:"last_practiced_date"`
	ConfidenceScore      *int      `db:"confidence_score" json:"confidence_score"`
	LastConfidenceUpdate *Date     `db:"last_confidence_update" json:"last_confidence_update"`
	CreatedAt            time.Time `db:"created_at" json:"created_at"`
}

// Streak is the per-owner consecutive-day practice counter.
type Streak struct {
	Owner            string    `db:"owner" json:"owner"`
	CurrentStreak    int       `db:"current_streak" json:"current_streak"`
	LongestStreak    int       `db:"longest_streak" json:"longest_streak"`
	LastActivityDate *Date     `db:"last_activity_date" json:"last_activity_date"`
	IsInRecovery     bool      `db:"is_in_recovery" json:"is_in_recovery"`
	MissedDays       int       `db:"missed_days" json:"missed_days"`
	UpdatedAt        time.Time `db:"updated_at" json:"updated_at"`
}

// LearningOutcome is an immutable reflection recorded after a session.
type LearningOutcome struct {
	ID            string      `db:"id" json:"id"`
	Owner         string      `db:"owner" json:"owner"`
	SkillID       string      `db:"skill_id" json:"skill_id"`
	ClarityGain   int         `db:"clarity_gain" json:"clarity_gain"`
	ConfusionNote *string     `db:"confusion_note" json:"confusion_note,omitempty"`
	Difficulty    *Difficulty `db:"difficulty" json:"difficulty,omitempty"`
	CreatedAt     time.Time   `db:"created_at" json:"created_at"`
}

// Suggestion is one skill proposed for a goal.
type Suggestion struct {
	Name        string     `json:"name"`
	Importance  Importance `json:"importance"`
	FutureProof bool       `json:"future_proof"`
	Reason      string     `json:"reason"`
}

// SweepJob asks a worker to observe one owner's streak on Date.
type SweepJob struct {
	ID    string
	Owner string
	Date  Date
}

// DatePtr returns a pointer to d.
func DatePtr(d Date) *Date { return &d }

// IntPtr returns a pointer to n.
func IntPtr(n int) *int { return &n }
