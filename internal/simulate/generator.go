package simulate

import (
	"context"
	"fmt"
	"math/rand/v2"

	"github.com/google/uuid"
	"github.com/okian/alsip/internal/domain/model"
	"github.com/okian/alsip/pkg/logger"
)

// Generation constants.
const (
	maxClarityGain = 5
	// A learner who practices has this chance of a second session that day.
	secondSessionRate = 0.25
)

var difficulties = []model.Difficulty{
	model.DifficultyTooEasy,
	model.DifficultyJustRight,
	model.DifficultyJustRight,
	model.DifficultyTooHard,
}

// Generate builds a deterministic schedule for cfg. Learner ids are fresh
// uuids so repeated runs against one server never collide; everything else
// depends only on cfg.Seed.
func Generate(ctx context.Context, cfg *Config) (*Schedule, error) {
	if cfg.Users <= 0 || cfg.Days <= 0 || cfg.SkillsPerGoal <= 0 {
		return nil, fmt.Errorf("users, days and skills must be positive")
	}
	if !cfg.Start.Valid() {
		return nil, fmt.Errorf("invalid start date %q", cfg.Start)
	}

	logger.Get().Info(ctx, "generating schedule",
		logger.Int("users", cfg.Users),
		logger.Int("days", cfg.Days),
		logger.Float64("practiceRate", cfg.PracticeRate))

	rng := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15))
	s := &Schedule{
		Start: cfg.Start,
		Days:  cfg.Days,
		Users: make([]string, cfg.Users),
		ByDay: make([]map[string][]Action, cfg.Days),
	}
	for i := range s.Users {
		s.Users[i] = "sim-" + uuid.NewString()
	}

	for day := 0; day < cfg.Days; day++ {
		s.ByDay[day] = make(map[string][]Action, cfg.Users)
		for _, owner := range s.Users {
			if rng.Float64() >= cfg.PracticeRate {
				continue
			}
			n := 1
			if cfg.SkillsPerGoal > 1 && rng.Float64() < secondSessionRate {
				n = 2
			}
			first := rng.IntN(cfg.SkillsPerGoal)
			for k := 0; k < n; k++ {
				skill := (first + k) % cfg.SkillsPerGoal
				s.ByDay[day][owner] = append(s.ByDay[day][owner], Action{
					Day:         day,
					Owner:       owner,
					Skill:       skill,
					ClarityGain: 1 + rng.IntN(maxClarityGain),
					Difficulty:  difficulties[rng.IntN(len(difficulties))],
					Key:         fmt.Sprintf("%s-%d-%d", owner, day, skill),
					Retry:       rng.Float64() < cfg.RetryRate,
				})
			}
		}
	}
	return s, nil
}

// Date returns the calendar date of day d.
func (s *Schedule) Date(d int) model.Date {
	return s.Start.AddDays(d)
}

// Sessions counts the scheduled sessions.
func (s *Schedule) Sessions() int {
	n := 0
	for _, day := range s.ByDay {
		for _, acts := range day {
			n += len(acts)
		}
	}
	return n
}
