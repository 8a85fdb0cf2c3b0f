package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	repository "github.com/okian/alsip/internal/adapters/repository"
	"github.com/okian/alsip/internal/domain/goal"
	"github.com/okian/alsip/internal/domain/model"
	"github.com/okian/alsip/internal/domain/progress"
	"github.com/okian/alsip/internal/domain/reflection"
	"github.com/okian/alsip/internal/domain/streak"
	"github.com/okian/alsip/internal/domain/types"
	"github.com/okian/alsip/pkg/logger"
	"github.com/okian/alsip/pkg/metrics"
)

// ErrInFlight is returned when a request with the same idempotency key is
// still being processed.
var ErrInFlight = model.Invalid("idempotency_key", "request with this key is still in progress")

// RecordReflection stores a standalone learning outcome for a skill the
// owner holds.
func (s *Service) RecordReflection(ctx context.Context, in reflection.Input) (model.LearningOutcome, error) {
	out, err := s.reflections.Record(in)
	if err != nil {
		return model.LearningOutcome{}, s.fail(ctx, "record_reflection", err)
	}
	err = s.store.InTx(ctx, func(tx repository.Records) error {
		if _, _, err := ownedSkill(ctx, tx, out.Owner, out.SkillID); err != nil {
			return err
		}
		return tx.InsertOutcome(ctx, out)
	})
	if err != nil {
		return model.LearningOutcome{}, s.fail(ctx, "record_reflection", err)
	}
	metrics.RecordReflection()
	return out, nil
}

// ListReflections returns the owner's outcomes, optionally for one skill,
// newest first or by clarity gain.
func (s *Service) ListReflections(ctx context.Context, owner, skillID, order string) ([]model.LearningOutcome, error) {
	if strings.TrimSpace(owner) == "" {
		return nil, s.fail(ctx, "list_reflections", model.Invalid("owner", "required"))
	}
	f := repository.OutcomeFilter{SkillID: skillID, Order: repository.OrderByCreated}
	switch repository.OutcomeOrder(order) {
	case "", repository.OrderByCreated:
	case repository.OrderByClarity:
		f.Order = repository.OrderByClarity
	default:
		return nil, s.fail(ctx, "list_reflections", model.Invalid("order", "must be created_at or clarity_gain"))
	}
	out, err := s.store.ListOutcomes(ctx, owner, f)
	if err != nil {
		return nil, s.fail(ctx, "list_reflections", err)
	}
	return out, nil
}

// CompleteSession applies a finished learning session as one transaction:
// the practice day, the reflection and the streak. The reflection is
// validated before anything is written. Every session stores its reflection
// and completes the streak for the date; when the skill was already practiced
// on the date only the practice counter is left alone and the status is
// AlreadyLoggedToday.
func (s *Service) CompleteSession(ctx context.Context, in types.Session) (types.SessionResult, error) {
	today, err := s.dateOrToday(in.Date)
	if err != nil {
		return types.SessionResult{}, s.fail(ctx, "complete_session", err)
	}
	input := reflection.Input{
		Owner:         in.Owner,
		SkillID:       in.SkillID,
		ClarityGain:   in.ClarityGain,
		ConfusionNote: in.ConfusionNote,
		Difficulty:    in.Difficulty,
	}
	if err := s.reflections.Validate(input); err != nil {
		return types.SessionResult{}, s.fail(ctx, "complete_session", err)
	}
	owner := strings.TrimSpace(in.Owner)

	var (
		res          types.SessionResult
		leftRecovery bool
	)
	err = s.store.InTx(ctx, func(tx repository.Records) error {
		sk, g, err := ownedSkill(ctx, tx, owner, strings.TrimSpace(in.SkillID))
		if err != nil {
			return err
		}
		updated, status, err := s.progress.LogPractice(sk, today)
		if err != nil {
			return err
		}
		res.Status = status
		res.Skill = updated

		if status == progress.StatusLogged {
			if err := tx.UpdateSkill(ctx, updated); err != nil {
				return err
			}
		}
		outcome, err := s.reflections.Record(input)
		if err != nil {
			return err
		}
		if err := tx.InsertOutcome(ctx, outcome); err != nil {
			return err
		}
		res.Outcome = &outcome

		st, exists, err := loadStreak(ctx, tx, owner)
		if err != nil {
			return err
		}
		next, changed, err := s.streaks.Complete(st, today)
		if err != nil {
			return err
		}
		if changed {
			next.UpdatedAt = s.now().UTC()
			if exists {
				err = tx.UpdateStreak(ctx, next)
			} else {
				err = tx.InsertStreak(ctx, next)
			}
			if err != nil {
				return err
			}
		}
		leftRecovery = st.IsInRecovery
		res.Streak = s.streaks.Observe(next, today)

		res.GoalProgress, err = goalProgress(ctx, tx, g)
		return err
	})
	if err != nil {
		return types.SessionResult{}, s.fail(ctx, "complete_session", err)
	}

	countPractice(res.Status)
	metrics.RecordSessionCompleted()
	metrics.RecordReflection()
	s.logger.Debug(ctx, "session completed",
		logger.String("owner", owner),
		logger.String("skill_id", res.Skill.ID),
		logger.String("status", string(res.Status)),
		logger.Int("current_streak", res.Streak.CurrentStreak),
		logger.Bool("left_recovery", leftRecovery),
	)
	return res, nil
}

// CompleteSessionOnce is CompleteSession guarded by an idempotency key. A
// replayed key returns the first result flagged as Replayed. A failed first
// attempt releases the key so that it can be retried. Keys are scoped to the
// owner, so two learners may use the same key independently.
func (s *Service) CompleteSessionOnce(ctx context.Context, key string, in types.Session) (types.SessionResult, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return s.CompleteSession(ctx, in)
	}
	key = strings.TrimSpace(in.Owner) + ":" + key
	if s.deduper.SeenAndRecord(ctx, key) {
		raw, ok := s.deduper.Result(ctx, key)
		if !ok {
			return types.SessionResult{}, s.fail(ctx, "complete_session", ErrInFlight)
		}
		var res types.SessionResult
		if err := json.Unmarshal(raw, &res); err != nil {
			return types.SessionResult{}, s.fail(ctx, "complete_session", err)
		}
		res.Replayed = true
		s.logger.Debug(ctx, "session replayed", logger.String("idempotency_key", key))
		return res, nil
	}

	res, err := s.CompleteSession(ctx, in)
	if err != nil {
		s.deduper.Unrecord(ctx, key)
		return types.SessionResult{}, err
	}
	raw, err := json.Marshal(res)
	if err != nil {
		s.deduper.Unrecord(ctx, key)
		return res, nil
	}
	s.deduper.Complete(ctx, key, raw)
	return res, nil
}

// ownedSkill loads a skill and its goal. A skill on another owner's goal is
// reported as not found.
func ownedSkill(ctx context.Context, tx repository.Records, owner, skillID string) (model.Skill, model.Goal, error) {
	sk, err := tx.GetSkill(ctx, skillID)
	if err != nil {
		return model.Skill{}, model.Goal{}, err
	}
	g, err := tx.GetGoal(ctx, sk.GoalID)
	if err != nil {
		return model.Skill{}, model.Goal{}, err
	}
	if g.Owner != owner {
		return model.Skill{}, model.Goal{}, errSkillNotOwned
	}
	return sk, g, nil
}

var errSkillNotOwned = fmt.Errorf("skill does not belong to owner: %w", model.ErrNotFound)

// loadStreak returns the owner's streak, or a fresh one with exists=false.
func loadStreak(ctx context.Context, tx repository.Records, owner string) (model.Streak, bool, error) {
	st, err := tx.GetStreak(ctx, owner)
	switch {
	case err == nil:
		return st, true, nil
	case errors.Is(err, model.ErrNotFound):
		return streak.New(owner), false, nil
	default:
		return model.Streak{}, false, err
	}
}

func goalProgress(ctx context.Context, tx repository.Records, g model.Goal) (int, error) {
	skills, err := tx.ListSkillsByGoal(ctx, g.ID)
	if err != nil {
		return 0, err
	}
	return goal.ComputeOverallProgress(g, skills), nil
}
