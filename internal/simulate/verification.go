package simulate

import (
	"fmt"

	"github.com/okian/alsip/internal/domain/model"
	"github.com/okian/alsip/internal/domain/streak"
	"github.com/okian/alsip/internal/domain/types"
)

// learner is the client-side model of one owner's streak. Completions never
// decay the counters, so the current streak equals the number of distinct
// practiced days.
type learner struct {
	owner     string
	goalID    string
	skillIDs  []string
	practiced int
	last      *model.Date
}

func (l *learner) practice(day model.Date) {
	if l.last != nil && *l.last == day {
		return
	}
	l.practiced++
	l.last = model.DatePtr(day)
}

// check compares an observed status with the model and returns every
// violated invariant.
func (l *learner) check(st streak.Status, today model.Date, recoveryGap int) []string {
	var out []string
	add := func(format string, args ...any) {
		out = append(out, fmt.Sprintf("%s on %s: ", l.owner, today)+fmt.Sprintf(format, args...))
	}

	if st.LongestStreak < st.CurrentStreak {
		add("longest %d below current %d", st.LongestStreak, st.CurrentStreak)
	}
	if st.CurrentStreak != l.practiced {
		add("current %d, expected %d practiced days", st.CurrentStreak, l.practiced)
	}
	if st.MissedDays < 0 {
		add("negative missed days %d", st.MissedDays)
	}
	if l.last == nil {
		if st.State != streak.StateActive {
			add("no activity but state %s", st.State)
		}
		return out
	}

	gap, err := model.DaysBetween(*l.last, today)
	if err != nil {
		add("bad dates: %v", err)
		return out
	}
	switch {
	case gap == 0 && st.State != streak.StateActive:
		add("practiced today but state %s", st.State)
	case gap >= recoveryGap && st.State != streak.StateRecovery:
		add("gap %d but state %s", gap, st.State)
	case gap >= recoveryGap && st.MissedDays < gap:
		add("gap %d but missed days %d", gap, st.MissedDays)
	}
	return out
}

// sameResult reports whether a replayed session matches the first response.
func sameResult(first, replay types.SessionResult) bool {
	return replay.Replayed &&
		first.Status == replay.Status &&
		first.Skill.ID == replay.Skill.ID &&
		first.Streak == replay.Streak &&
		first.GoalProgress == replay.GoalProgress
}
