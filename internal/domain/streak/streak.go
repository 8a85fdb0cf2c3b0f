// Package streak maintains the consecutive-day practice streak and the
// derived recovery state.
//
// The persisted counters only change on a completed session. Recovery is a
// function of (last activity, observation date) computed at read time; an
// observation may set the stored recovery flag but never clears it and never
// touches the counters.
package streak

import (
	"github.com/okian/alsip/internal/domain/model"
)

const defaultRecoveryGapDays = 2

// State is the logical state of a streak at an observation date.
type State string

// Streak states.
const (
	StateActive   State = "active"
	StateRecovery State = "recovery"
)

// Status is a read-time view of a streak.
type Status struct {
	State         State `json:"state"`
	MissedDays    int   `json:"missed_days"`
	CurrentStreak int   `json:"current_streak"`
	LongestStreak int   `json:"longest_streak"`
}

// Option applies a configuration option to the Tracker.
type Option func(*Tracker)

// WithRecoveryGapDays sets the day gap at which a streak enters recovery.
func WithRecoveryGapDays(days int) Option {
	return func(t *Tracker) {
		if days > 0 {
			t.recoveryGap = days
		}
	}
}

// Tracker applies session completions and observations to streaks.
type Tracker struct {
	recoveryGap int
}

// NewTracker creates a tracker with configuration options.
func NewTracker(opts ...Option) *Tracker {
	t := &Tracker{recoveryGap: defaultRecoveryGapDays}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// New returns the zero streak for owner, used on the first activity.
func New(owner string) model.Streak {
	return model.Streak{Owner: owner}
}

// Complete applies a completed session on today. A second completion on the
// same date leaves the streak unchanged and reports changed=false.
func (t *Tracker) Complete(s model.Streak, today model.Date) (model.Streak, bool, error) {
	if !today.Valid() {
		return s, false, model.Invalid("date", "must be YYYY-MM-DD")
	}
	if last := s.LastActivityDate; last != nil {
		if *last == today {
			return s, false, nil
		}
		if today.Before(*last) {
			return s, false, model.Invalid("date", "precedes last activity date "+last.String())
		}
	}
	s.CurrentStreak++
	if s.CurrentStreak > s.LongestStreak {
		s.LongestStreak = s.CurrentStreak
	}
	s.LastActivityDate = model.DatePtr(today)
	s.IsInRecovery = false
	s.MissedDays = 0
	return s, true, nil
}

// Observe derives the streak state on today without modifying anything.
// A streak with no activity yet is active with no missed days.
func (t *Tracker) Observe(s model.Streak, today model.Date) Status {
	st := Status{
		State:         StateActive,
		CurrentStreak: s.CurrentStreak,
		LongestStreak: s.LongestStreak,
	}
	gap := t.gap(s, today)
	if gap >= t.recoveryGap {
		st.State = StateRecovery
		st.MissedDays = gap
	}
	// A stored flag stays until a completion clears it. The missed days
	// always follow the gap on today; the stored count only stands in when
	// there is no activity date to measure from.
	if s.IsInRecovery {
		st.State = StateRecovery
		st.MissedDays = gap
		if s.LastActivityDate == nil {
			st.MissedDays = s.MissedDays
		}
	}
	return st
}

// MarkObserved folds an observation into the stored fields: entering
// recovery sets IsInRecovery and MissedDays. changed reports whether the
// caller needs to persist the result.
func (t *Tracker) MarkObserved(s model.Streak, today model.Date) (model.Streak, bool) {
	st := t.Observe(s, today)
	if st.State != StateRecovery {
		return s, false
	}
	if s.IsInRecovery && s.MissedDays == st.MissedDays {
		return s, false
	}
	s.IsInRecovery = true
	s.MissedDays = st.MissedDays
	return s, true
}

func (t *Tracker) gap(s model.Streak, today model.Date) int {
	if s.LastActivityDate == nil {
		return 0
	}
	days, err := model.DaysBetween(*s.LastActivityDate, today)
	if err != nil || days < 0 {
		return 0
	}
	return days
}
