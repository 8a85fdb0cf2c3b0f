package model

// Timeline is the planned duration bucket of a goal.
type Timeline string

// Timeline buckets.
const (
	Timeline1Month  Timeline = "1_month"
	Timeline3Months Timeline = "3_months"
	Timeline6Months Timeline = "6_months"
	Timeline1Year   Timeline = "1_year"
)

var timelineDays = map[Timeline]int{
	Timeline1Month:  30,
	Timeline3Months: 90,
	Timeline6Months: 180,
	Timeline1Year:   365,
}

// Valid reports whether t is a known bucket.
func (t Timeline) Valid() bool {
	_, ok := timelineDays[t]
	return ok
}

// Days returns the bucket length in days, 0 for unknown buckets.
func (t Timeline) Days() int { return timelineDays[t] }

// Effort is the weekly effort a user commits to a goal.
type Effort string

// Effort levels.
const (
	EffortLight     Effort = "light"
	EffortModerate  Effort = "moderate"
	EffortIntensive Effort = "intensive"
)

// Valid reports whether e is a known level.
func (e Effort) Valid() bool {
	switch e {
	case EffortLight, EffortModerate, EffortIntensive:
		return true
	}
	return false
}

// Difficulty is how a session felt to the learner.
type Difficulty string

// Difficulty tags.
const (
	DifficultyTooEasy   Difficulty = "too_easy"
	DifficultyJustRight Difficulty = "just_right"
	DifficultyTooHard   Difficulty = "too_hard"
)

// Valid reports whether d is a known tag.
func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyTooEasy, DifficultyJustRight, DifficultyTooHard:
		return true
	}
	return false
}

// Importance ranks a suggested skill.
type Importance string

// Importance levels.
const (
	ImportanceCritical   Importance = "critical"
	ImportanceImportant  Importance = "important"
	ImportanceNiceToHave Importance = "nice_to_have"
)

// ParseImportance maps loose spellings ("nice-to-have", "Critical") onto a
// level. ok is false for anything else.
func ParseImportance(s string) (Importance, bool) {
	switch normalizeTag(s) {
	case "critical":
		return ImportanceCritical, true
	case "important":
		return ImportanceImportant, true
	case "nice_to_have":
		return ImportanceNiceToHave, true
	}
	return "", false
}

func normalizeTag(s string) string {
	b := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'A' && c <= 'Z':
			b = append(b, c+('a'-'A'))
		case c == '-' || c == ' ':
			b = append(b, '_')
		default:
			b = append(b, c)
		}
	}
	return string(b)
}
