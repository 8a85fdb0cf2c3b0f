package service

import (
	"context"

	repository "github.com/okian/alsip/internal/adapters/repository"
	"github.com/okian/alsip/internal/domain/model"
	"github.com/okian/alsip/internal/domain/progress"
	"github.com/okian/alsip/internal/domain/types"
	"github.com/okian/alsip/pkg/metrics"
)

// LogPractice records a day of practice on a skill without a reflection.
// A repeat on the same date reports AlreadyLoggedToday and writes nothing.
func (s *Service) LogPractice(ctx context.Context, skillID string, date model.Date) (types.PracticeResult, error) {
	today, err := s.dateOrToday(date)
	if err != nil {
		return types.PracticeResult{}, s.fail(ctx, "log_practice", err)
	}

	var res types.PracticeResult
	err = s.store.InTx(ctx, func(tx repository.Records) error {
		sk, err := tx.GetSkill(ctx, skillID)
		if err != nil {
			return err
		}
		updated, status, err := s.progress.LogPractice(sk, today)
		if err != nil {
			return err
		}
		res = types.PracticeResult{Status: status, Skill: updated}
		if status == progress.StatusAlreadyLoggedToday {
			return nil
		}
		return tx.UpdateSkill(ctx, updated)
	})
	if err != nil {
		return types.PracticeResult{}, s.fail(ctx, "log_practice", err)
	}
	countPractice(res.Status)
	return res, nil
}

// UpdateConfidence stores a 1..10 self-assessment for a skill.
func (s *Service) UpdateConfidence(ctx context.Context, skillID string, score int, date model.Date) (model.Skill, error) {
	today, err := s.dateOrToday(date)
	if err != nil {
		return model.Skill{}, s.fail(ctx, "update_confidence", err)
	}
	return s.updateSkill(ctx, "update_confidence", skillID, func(sk model.Skill) (model.Skill, error) {
		return s.progress.UpdateConfidence(sk, score, today)
	})
}

// SetProgress overwrites the 0..100 progress value of a skill.
func (s *Service) SetProgress(ctx context.Context, skillID string, value int) (model.Skill, error) {
	return s.updateSkill(ctx, "set_progress", skillID, func(sk model.Skill) (model.Skill, error) {
		return s.progress.SetProgress(sk, value)
	})
}

// CheckIn reports whether a confidence check-in is due for a skill.
func (s *Service) CheckIn(ctx context.Context, skillID string, date model.Date) (types.CheckIn, error) {
	today, err := s.dateOrToday(date)
	if err != nil {
		return types.CheckIn{}, s.fail(ctx, "check_in", err)
	}
	sk, err := s.store.GetSkill(ctx, skillID)
	if err != nil {
		return types.CheckIn{}, s.fail(ctx, "check_in", err)
	}
	return types.CheckIn{
		SkillID:              sk.ID,
		Due:                  s.progress.NeedsConfidenceCheckIn(sk, today),
		DaysPracticed:        sk.DaysPracticed,
		ConfidenceScore:      sk.ConfidenceScore,
		LastConfidenceUpdate: sk.LastConfidenceUpdate,
	}, nil
}

func (s *Service) updateSkill(ctx context.Context, op, skillID string, apply func(model.Skill) (model.Skill, error)) (model.Skill, error) {
	var out model.Skill
	err := s.store.InTx(ctx, func(tx repository.Records) error {
		sk, err := tx.GetSkill(ctx, skillID)
		if err != nil {
			return err
		}
		if out, err = apply(sk); err != nil {
			return err
		}
		return tx.UpdateSkill(ctx, out)
	})
	if err != nil {
		return model.Skill{}, s.fail(ctx, op, err)
	}
	return out, nil
}

func countPractice(status progress.Status) {
	if status == progress.StatusAlreadyLoggedToday {
		metrics.RecordDuplicatePractice()
		return
	}
	metrics.RecordPracticeLogged()
}
