// Package goal derives goal-level analytics from a goal's skills.
package goal

import (
	"strings"

	"github.com/montanaflynn/stats"
	"github.com/okian/alsip/internal/domain/model"
)

// ComputeOverallProgress returns the mean skill progress rounded to the
// nearest integer, or 0 when the goal has no skills.
func ComputeOverallProgress(_ model.Goal, skills []model.Skill) int {
	if len(skills) == 0 {
		return 0
	}
	values := make(stats.Float64Data, len(skills))
	for i, s := range skills {
		values[i] = float64(s.Progress)
	}
	mean, err := values.Mean()
	if err != nil {
		return 0
	}
	rounded, err := stats.Round(mean, 0)
	if err != nil {
		return 0
	}
	return int(rounded)
}

// DaysRemaining counts the days left in the goal's timeline as of today,
// floored at zero. Unknown timelines and goals without a creation time yield 0.
func DaysRemaining(g model.Goal, today model.Date) int {
	if g.CreatedAt.IsZero() || !g.Timeline.Valid() {
		return 0
	}
	end := model.DateOf(g.CreatedAt.UTC()).AddDays(g.Timeline.Days())
	left, err := model.DaysBetween(today, end)
	if err != nil || left < 0 {
		return 0
	}
	return left
}

// Summary is a goal card as shown on the dashboard.
type Summary struct {
	Goal       model.Goal    `json:"goal"`
	Skills     []model.Skill `json:"skills"`
	SkillCount int           `json:"skill_count"`
}

// Summarize fills the derived fields of g for display.
func Summarize(g model.Goal, skills []model.Skill, today model.Date) Summary {
	g.Progress = ComputeOverallProgress(g, skills)
	g.DaysRemaining = DaysRemaining(g, today)
	if skills == nil {
		skills = []model.Skill{}
	}
	return Summary{Goal: g, Skills: skills, SkillCount: len(skills)}
}

// Validate checks a goal before it is created.
func Validate(g model.Goal) error {
	switch {
	case strings.TrimSpace(g.Owner) == "":
		return model.Invalid("owner", "required")
	case strings.TrimSpace(g.Title) == "":
		return model.Invalid("title", "required")
	case !g.Timeline.Valid():
		return model.Invalid("timeline", "must be 1_month, 3_months, 6_months or 1_year")
	case !g.Effort.Valid():
		return model.Invalid("effort", "must be light, moderate or intensive")
	}
	return nil
}
