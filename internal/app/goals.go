package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	repository "github.com/okian/alsip/internal/adapters/repository"
	"github.com/okian/alsip/internal/domain/goal"
	"github.com/okian/alsip/internal/domain/model"
	"github.com/okian/alsip/internal/domain/types"
	"github.com/okian/alsip/pkg/logger"
)

// CreateGoal validates and stores a new active goal. A blank category is
// resolved from the title.
func (s *Service) CreateGoal(ctx context.Context, in types.NewGoal) (goal.Summary, error) {
	g := model.Goal{
		ID:        uuid.NewString(),
		Owner:     strings.TrimSpace(in.Owner),
		Title:     strings.TrimSpace(in.Title),
		Category:  strings.ToLower(strings.TrimSpace(in.Category)),
		Timeline:  in.Timeline,
		Effort:    in.Effort,
		IsActive:  true,
		CreatedAt: s.now().UTC(),
	}
	if err := goal.Validate(g); err != nil {
		return goal.Summary{}, s.fail(ctx, "create_goal", err)
	}
	if g.Category == "" {
		g.Category = s.suggestions.ResolveCategory(g.Title, "")
	}
	if err := s.store.InsertGoal(ctx, g); err != nil {
		return goal.Summary{}, s.fail(ctx, "create_goal", err)
	}
	s.logger.Debug(ctx, "goal created", logger.String("goal_id", g.ID), logger.String("owner", g.Owner))
	return goal.Summarize(g, nil, s.Today()), nil
}

// ListGoals returns the owner's goals with computed progress.
func (s *Service) ListGoals(ctx context.Context, owner string, activeOnly bool) ([]goal.Summary, error) {
	if strings.TrimSpace(owner) == "" {
		return nil, s.fail(ctx, "list_goals", model.Invalid("owner", "required"))
	}
	goals, err := s.store.ListGoals(ctx, owner, repository.GoalFilter{ActiveOnly: activeOnly})
	if err != nil {
		return nil, s.fail(ctx, "list_goals", err)
	}
	skills, err := s.store.ListSkillsByOwner(ctx, owner)
	if err != nil {
		return nil, s.fail(ctx, "list_goals", err)
	}
	return summarizeAll(goals, skills, s.Today()), nil
}

// GetGoal returns one goal with its skills and computed progress.
func (s *Service) GetGoal(ctx context.Context, goalID string) (goal.Summary, error) {
	g, err := s.store.GetGoal(ctx, goalID)
	if err != nil {
		return goal.Summary{}, s.fail(ctx, "get_goal", err)
	}
	skills, err := s.store.ListSkillsByGoal(ctx, goalID)
	if err != nil {
		return goal.Summary{}, s.fail(ctx, "get_goal", err)
	}
	return goal.Summarize(g, skills, s.Today()), nil
}

// SetGoalActive archives or reactivates a goal. Inactive goals drop out of
// the daily plan but keep their history.
func (s *Service) SetGoalActive(ctx context.Context, goalID string, active bool) (goal.Summary, error) {
	var (
		g      model.Goal
		skills []model.Skill
	)
	err := s.store.InTx(ctx, func(tx repository.Records) error {
		var err error
		if g, err = tx.GetGoal(ctx, goalID); err != nil {
			return err
		}
		g.IsActive = active
		if err = tx.UpdateGoal(ctx, g); err != nil {
			return err
		}
		skills, err = tx.ListSkillsByGoal(ctx, goalID)
		return err
	})
	if err != nil {
		return goal.Summary{}, s.fail(ctx, "set_goal_active", err)
	}
	return goal.Summarize(g, skills, s.Today()), nil
}

// AddSkill attaches a new skill to a goal. Skill names are unique per goal,
// compared case-insensitively.
func (s *Service) AddSkill(ctx context.Context, goalID, name string) (model.Skill, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return model.Skill{}, s.fail(ctx, "add_skill", model.Invalid("name", "required"))
	}
	sk := model.Skill{
		ID:        uuid.NewString(),
		GoalID:    goalID,
		Name:      name,
		CreatedAt: s.now().UTC(),
	}
	err := s.store.InTx(ctx, func(tx repository.Records) error {
		if _, err := tx.GetGoal(ctx, goalID); err != nil {
			return err
		}
		existing, err := tx.ListSkillsByGoal(ctx, goalID)
		if err != nil {
			return err
		}
		for _, e := range existing {
			if strings.EqualFold(e.Name, name) {
				return model.Invalid("name", fmt.Sprintf("skill %q already exists on goal", e.Name))
			}
		}
		return tx.InsertSkill(ctx, sk)
	})
	if err != nil {
		return model.Skill{}, s.fail(ctx, "add_skill", err)
	}
	return sk, nil
}

// summarizeAll builds goal cards, keeping the goal order.
func summarizeAll(goals []model.Goal, skills []model.Skill, today model.Date) []goal.Summary {
	byGoal := make(map[string][]model.Skill, len(goals))
	for _, sk := range skills {
		byGoal[sk.GoalID] = append(byGoal[sk.GoalID], sk)
	}
	out := make([]goal.Summary, 0, len(goals))
	for _, g := range goals {
		out = append(out, goal.Summarize(g, byGoal[g.ID], today))
	}
	return out
}
