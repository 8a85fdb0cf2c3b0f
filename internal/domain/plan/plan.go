// Package plan builds the daily practice plan shown on the dashboard.
package plan

import (
	"sort"

	"github.com/okian/alsip/internal/domain/model"
	"github.com/okian/alsip/internal/domain/streak"
)

const (
	defaultSize         = 5
	defaultRecoverySize = 2
)

// CheckIner reports whether a skill is due for a confidence check-in.
type CheckIner interface {
	NeedsConfidenceCheckIn(skill model.Skill, today model.Date) bool
}

// Item is one skill to practice today.
type Item struct {
	SkillID           string      `json:"skill_id"`
	SkillName         string      `json:"skill_name"`
	GoalID            string      `json:"goal_id"`
	GoalTitle         string      `json:"goal_title"`
	LastPracticedDate *model.Date `json:"last_practiced_date"`
	CheckInDue        bool        `json:"check_in_due"`
}

// Plan is the ordered list of items for one day.
type Plan struct {
	Date     model.Date `json:"date"`
	Recovery bool       `json:"recovery"`
	Items    []Item     `json:"items"`
}

// Option applies a configuration option to the Planner.
type Option func(*Planner)

// WithSize caps the plan on a normal day.
func WithSize(n int) Option {
	return func(p *Planner) {
		if n > 0 {
			p.size = n
		}
	}
}

// WithRecoverySize caps the plan while the streak is in recovery.
func WithRecoverySize(n int) Option {
	return func(p *Planner) {
		if n > 0 {
			p.recoverySize = n
		}
	}
}

// Planner selects skills for today's plan.
type Planner struct {
	checkIn      CheckIner
	size         int
	recoverySize int
}

// NewPlanner creates a planner. checkIn may be nil, in which case no item is
// marked as due.
func NewPlanner(checkIn CheckIner, opts ...Option) *Planner {
	p := &Planner{
		checkIn:      checkIn,
		size:         defaultSize,
		recoverySize: defaultRecoverySize,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Build lists skills of active goals not yet practiced today, least recently
// practiced first with never-practiced skills ahead of all others. Ties keep
// goal then skill creation order.
func (p *Planner) Build(goals []model.Goal, skills []model.Skill, status streak.Status, today model.Date) Plan {
	active := make(map[string]model.Goal, len(goals))
	for _, g := range goals {
		if g.IsActive {
			active[g.ID] = g
		}
	}

	candidates := make([]model.Skill, 0, len(skills))
	for _, s := range skills {
		if _, ok := active[s.GoalID]; !ok {
			continue
		}
		if s.LastPracticedDate != nil && *s.LastPracticedDate == today {
			continue
		}
		candidates = append(candidates, s)
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i].LastPracticedDate, candidates[j].LastPracticedDate
		switch {
		case a == nil:
			return b != nil
		case b == nil:
			return false
		default:
			return a.Before(*b)
		}
	})

	limit := p.size
	recovery := status.State == streak.StateRecovery
	if recovery {
		limit = p.recoverySize
	}
	if len(candidates) > limit {
		candidates = candidates[:limit]
	}

	out := Plan{Date: today, Recovery: recovery, Items: make([]Item, 0, len(candidates))}
	for _, s := range candidates {
		g := active[s.GoalID]
		item := Item{
			SkillID:           s.ID,
			SkillName:         s.Name,
			GoalID:            g.ID,
			GoalTitle:         g.Title,
			LastPracticedDate: s.LastPracticedDate,
		}
		if p.checkIn != nil {
			item.CheckInDue = p.checkIn.NeedsConfidenceCheckIn(s, today)
		}
		out.Items = append(out.Items, item)
	}
	return out
}
