// Package progress tracks per-skill practice counters and confidence.
package progress

import (
	"github.com/okian/alsip/internal/domain/model"
)

// Default tracker configuration constants.
const (
	defaultCheckInDays = 7
	minConfidence      = 1
	maxConfidence      = 10
	minProgress        = 0
	maxProgress        = 100
)

// Status reports what LogPractice did.
type Status string

// LogPractice outcomes.
const (
	// StatusLogged means the skill was incremented.
	StatusLogged Status = "logged"
	// StatusAlreadyLoggedToday means the call was a no-op because practice
	// was already recorded for the date. It is not an error.
	StatusAlreadyLoggedToday Status = "already_logged_today"
)

// Option applies a configuration option to the Tracker.
type Option func(*Tracker)

// WithCheckInDays sets how many days must pass between confidence check-ins.
func WithCheckInDays(days int) Option {
	return func(t *Tracker) {
		if days > 0 {
			t.checkInDays = days
		}
	}
}

// Tracker applies practice and confidence events to skills. It holds no
// state of its own; callers persist the returned skill.
type Tracker struct {
	checkInDays int
}

// NewTracker creates a tracker with configuration options.
func NewTracker(opts ...Option) *Tracker {
	t := &Tracker{checkInDays: defaultCheckInDays}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// LogPractice records a day of practice on skill. A second call for the same
// date returns the skill unchanged with StatusAlreadyLoggedToday. A date
// earlier than the last practiced date is rejected.
func (t *Tracker) LogPractice(skill model.Skill, today model.Date) (model.Skill, Status, error) {
	if !today.Valid() {
		return skill, "", model.Invalid("date", "must be YYYY-MM-DD")
	}
	if last := skill.LastPracticedDate; last != nil {
		if *last == today {
			return skill, StatusAlreadyLoggedToday, nil
		}
		if today.Before(*last) {
			return skill, "", model.Invalid("date", "precedes last practiced date "+last.String())
		}
	}
	skill.DaysPracticed++
	skill.LastPracticedDate = model.DatePtr(today)
	return skill, StatusLogged, nil
}

// UpdateConfidence stores a 1..10 self-assessment taken on today.
func (t *Tracker) UpdateConfidence(skill model.Skill, score int, today model.Date) (model.Skill, error) {
	if score < minConfidence || score > maxConfidence {
		return skill, model.Invalid("confidence_score", "must be between 1 and 10")
	}
	if !today.Valid() {
		return skill, model.Invalid("date", "must be YYYY-MM-DD")
	}
	skill.ConfidenceScore = model.IntPtr(score)
	skill.LastConfidenceUpdate = model.DatePtr(today)
	return skill, nil
}

// SetProgress overwrites the externally managed 0..100 progress value.
func (t *Tracker) SetProgress(skill model.Skill, value int) (model.Skill, error) {
	if value < minProgress || value > maxProgress {
		return skill, model.Invalid("progress", "must be between 0 and 100")
	}
	skill.Progress = value
	return skill, nil
}

// NeedsConfidenceCheckIn reports whether the user should be asked for a new
// confidence score: never asked and practiced for the threshold number of
// days, or the last answer is at least that many days old.
func (t *Tracker) NeedsConfidenceCheckIn(skill model.Skill, today model.Date) bool {
	if skill.LastConfidenceUpdate == nil {
		return skill.DaysPracticed >= t.checkInDays
	}
	days, err := model.DaysBetween(*skill.LastConfidenceUpdate, today)
	if err != nil {
		return false
	}
	return days >= t.checkInDays
}
