// Package analytics derives history views from a learner's skills,
// reflections and streak: how confidence moved per skill, how the current
// streak was built, and how much time went into each skill.
package analytics

import (
	"sort"
	"time"

	"github.com/montanaflynn/stats"
	"github.com/okian/alsip/internal/domain/model"
)

const (
	defaultMinutesPerDay = 30
	maxConfidence        = 10
	// clarityWeight converts a 1..5 clarity gain into confidence points.
	clarityWeight = 2
)

// ConfidencePoint is a skill's confidence on a date. Points derived from
// reflections carry a running score; SelfAssessed marks the learner's own
// latest rating.
type ConfidencePoint struct {
	Date         model.Date `json:"date"`
	SkillID      string     `json:"skill_id"`
	Skill        string     `json:"skill"`
	Score        int        `json:"score"`
	SelfAssessed bool       `json:"self_assessed,omitempty"`
}

// StreakPoint is the streak length reached on a date.
type StreakPoint struct {
	Date   model.Date `json:"date"`
	Streak int        `json:"streak"`
}

// SkillTime is the estimated time invested in a skill.
type SkillTime struct {
	SkillID string `json:"skill_id"`
	Skill   string `json:"skill"`
	Days    int    `json:"days"`
	Minutes int    `json:"minutes"`
}

// Summary aggregates the report.
type Summary struct {
	Reflections   int     `json:"reflections"`
	MeanClarity   float64 `json:"mean_clarity"`
	MedianClarity float64 `json:"median_clarity"`
	PracticeDays  int     `json:"practice_days"`
	TotalMinutes  int     `json:"total_minutes"`
}

// Report is the analytics view for one owner as of Date.
type Report struct {
	Owner             string            `json:"owner"`
	Date              model.Date        `json:"date"`
	ConfidenceHistory []ConfidencePoint `json:"confidence_history"`
	StreakHistory     []StreakPoint     `json:"streak_history"`
	TimeInvested      []SkillTime       `json:"time_invested"`
	Summary           Summary           `json:"summary"`
}

// Option applies a configuration option to the Builder.
type Option func(*Builder)

// WithMinutesPerDay sets the time credited for one practiced day.
func WithMinutesPerDay(n int) Option {
	return func(b *Builder) {
		if n > 0 {
			b.minutesPerDay = n
		}
	}
}

// WithLocation sets the zone reflection timestamps are dated in.
func WithLocation(loc *time.Location) Option {
	return func(b *Builder) {
		if loc != nil {
			b.loc = loc
		}
	}
}

// Builder assembles reports.
type Builder struct {
	minutesPerDay int
	loc           *time.Location
}

// NewBuilder creates a builder with configuration options.
func NewBuilder(opts ...Option) *Builder {
	b := &Builder{minutesPerDay: defaultMinutesPerDay, loc: time.UTC}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build derives the report for owner on today. Reflections on skills not in
// skills are ignored, as is anything dated after today.
func (b *Builder) Build(owner string, skills []model.Skill, outcomes []model.LearningOutcome, st model.Streak, today model.Date) Report {
	r := Report{
		Owner:             owner,
		Date:              today,
		ConfidenceHistory: b.confidence(skills, outcomes, today),
		StreakHistory:     StreakHistory(st, today),
		TimeInvested:      make([]SkillTime, 0, len(skills)),
	}
	for _, sk := range skills {
		t := SkillTime{
			SkillID: sk.ID,
			Skill:   sk.Name,
			Days:    sk.DaysPracticed,
			Minutes: sk.DaysPracticed * b.minutesPerDay,
		}
		r.TimeInvested = append(r.TimeInvested, t)
		r.Summary.PracticeDays += t.Days
		r.Summary.TotalMinutes += t.Minutes
	}
	r.Summary.Reflections, r.Summary.MeanClarity, r.Summary.MedianClarity = clarity(skills, outcomes, b.loc, today)
	return r
}

func (b *Builder) confidence(skills []model.Skill, outcomes []model.LearningOutcome, today model.Date) []ConfidencePoint {
	bySkill := make(map[string][]model.LearningOutcome, len(skills))
	for _, o := range outcomes {
		bySkill[o.SkillID] = append(bySkill[o.SkillID], o)
	}

	points := make([]ConfidencePoint, 0, len(outcomes)+len(skills))
	for _, sk := range skills {
		list := bySkill[sk.ID]
		sort.SliceStable(list, func(i, j int) bool { return list[i].CreatedAt.Before(list[j].CreatedAt) })

		score := 0
		for _, o := range list {
			day := model.DateOf(o.CreatedAt.In(b.loc))
			if today.Before(day) {
				continue
			}
			score = min(maxConfidence, score+o.ClarityGain*clarityWeight)
			points = append(points, ConfidencePoint{Date: day, SkillID: sk.ID, Skill: sk.Name, Score: score})
		}
		if sk.ConfidenceScore != nil && sk.LastConfidenceUpdate != nil && !today.Before(*sk.LastConfidenceUpdate) {
			points = append(points, ConfidencePoint{
				Date:         *sk.LastConfidenceUpdate,
				SkillID:      sk.ID,
				Skill:        sk.Name,
				Score:        *sk.ConfidenceScore,
				SelfAssessed: true,
			})
		}
	}
	sort.SliceStable(points, func(i, j int) bool { return points[i].Date < points[j].Date })
	return points
}

// StreakHistory rebuilds the run of days that produced the current streak,
// ending on the last activity date. Days after today are left out.
func StreakHistory(st model.Streak, today model.Date) []StreakPoint {
	out := []StreakPoint{}
	if st.LastActivityDate == nil || st.CurrentStreak <= 0 {
		return out
	}
	first := st.LastActivityDate.AddDays(1 - st.CurrentStreak)
	for i := 0; i < st.CurrentStreak; i++ {
		day := first.AddDays(i)
		if today.Before(day) {
			break
		}
		out = append(out, StreakPoint{Date: day, Streak: i + 1})
	}
	return out
}

func clarity(skills []model.Skill, outcomes []model.LearningOutcome, loc *time.Location, today model.Date) (int, float64, float64) {
	known := make(map[string]struct{}, len(skills))
	for _, sk := range skills {
		known[sk.ID] = struct{}{}
	}
	var values stats.Float64Data
	for _, o := range outcomes {
		if _, ok := known[o.SkillID]; !ok {
			continue
		}
		if today.Before(model.DateOf(o.CreatedAt.In(loc))) {
			continue
		}
		values = append(values, float64(o.ClarityGain))
	}
	if len(values) == 0 {
		return 0, 0, 0
	}
	return len(values), round(values.Mean), round(values.Median)
}

func round(f func() (float64, error)) float64 {
	v, err := f()
	if err != nil {
		return 0
	}
	r, err := stats.Round(v, 2)
	if err != nil {
		return 0
	}
	return r
}
