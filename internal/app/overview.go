package service

import (
	"context"
	"io"
	"strings"

	"github.com/okian/alsip/internal/adapters/excel"
	repository "github.com/okian/alsip/internal/adapters/repository"
	"github.com/okian/alsip/internal/domain/analytics"
	"github.com/okian/alsip/internal/domain/model"
	"github.com/okian/alsip/internal/domain/streak"
	"github.com/okian/alsip/internal/domain/suggest"
	"github.com/okian/alsip/internal/domain/types"
	"github.com/okian/alsip/pkg/logger"
	"github.com/okian/alsip/pkg/metrics"
)

// StreakStatus observes the owner's streak on date without writing. An
// owner with no activity has an active, empty streak.
func (s *Service) StreakStatus(ctx context.Context, owner string, date model.Date) (streak.Status, error) {
	today, err := s.dateOrToday(date)
	if err != nil {
		return streak.Status{}, s.fail(ctx, "streak_status", err)
	}
	if strings.TrimSpace(owner) == "" {
		return streak.Status{}, s.fail(ctx, "streak_status", model.Invalid("owner", "required"))
	}
	st, _, err := loadStreak(ctx, s.store, owner)
	if err != nil {
		return streak.Status{}, s.fail(ctx, "streak_status", err)
	}
	return s.streaks.Observe(st, today), nil
}

// Dashboard returns the streak status, goal cards and daily plan for an
// owner. Entering recovery is persisted on the stored streak, so a date
// after the server's today is rejected.
func (s *Service) Dashboard(ctx context.Context, owner string, date model.Date) (types.Dashboard, error) {
	today, err := s.dateOrToday(date)
	if err != nil {
		return types.Dashboard{}, s.fail(ctx, "dashboard", err)
	}
	if now := s.Today(); now.Before(today) {
		return types.Dashboard{}, s.fail(ctx, "dashboard", model.Invalid("date", "must not be after "+now.String()))
	}
	if strings.TrimSpace(owner) == "" {
		return types.Dashboard{}, s.fail(ctx, "dashboard", model.Invalid("owner", "required"))
	}

	var (
		dash    = types.Dashboard{Owner: owner, Date: today}
		entered bool
	)
	err = s.store.InTx(ctx, func(tx repository.Records) error {
		var (
			st  model.Streak
			err error
		)
		if st, entered, err = s.observe(ctx, tx, owner, today); err != nil {
			return err
		}
		dash.Streak = s.streaks.Observe(st, today)

		goals, err := tx.ListGoals(ctx, owner, repository.GoalFilter{})
		if err != nil {
			return err
		}
		skills, err := tx.ListSkillsByOwner(ctx, owner)
		if err != nil {
			return err
		}
		dash.Goals = summarizeAll(goals, skills, today)
		dash.Plan = s.planner.Build(goals, skills, dash.Streak, today)
		return nil
	})
	if err != nil {
		return types.Dashboard{}, s.fail(ctx, "dashboard", err)
	}
	if entered {
		metrics.RecordRecoveryEntered()
	}
	return dash, nil
}

// Sweep observes one owner's streak for the job date and persists a change
// of the recovery fields. flagged reports a streak that entered recovery.
func (s *Service) Sweep(ctx context.Context, job model.SweepJob) (bool, error) {
	var flagged bool
	err := s.store.InTx(ctx, func(tx repository.Records) error {
		var err error
		_, flagged, err = s.observe(ctx, tx, job.Owner, job.Date)
		return err
	})
	if err != nil {
		return false, s.fail(ctx, "sweep", err)
	}
	if flagged {
		metrics.RecordRecoveryEntered()
		s.logger.Info(ctx, "streak entered recovery", logger.String("owner", job.Owner), logger.String("date", job.Date.String()))
	}
	return flagged, nil
}

// observe folds an observation on today into the stored streak. entered is
// true when the stored flag went from active to recovery. Owners without a
// streak are left alone.
func (s *Service) observe(ctx context.Context, tx repository.Records, owner string, today model.Date) (model.Streak, bool, error) {
	st, exists, err := loadStreak(ctx, tx, owner)
	if err != nil || !exists {
		return st, false, err
	}
	next, changed := s.streaks.MarkObserved(st, today)
	if !changed {
		return st, false, nil
	}
	next.UpdatedAt = s.now().UTC()
	if err := tx.UpdateStreak(ctx, next); err != nil {
		return st, false, err
	}
	return next, !st.IsInRecovery, nil
}

// Analytics reports the owner's confidence history, how the current streak
// was built and the time invested per skill, as of date.
func (s *Service) Analytics(ctx context.Context, owner string, date model.Date) (analytics.Report, error) {
	today, err := s.dateOrToday(date)
	if err != nil {
		return analytics.Report{}, s.fail(ctx, "analytics", err)
	}
	if strings.TrimSpace(owner) == "" {
		return analytics.Report{}, s.fail(ctx, "analytics", model.Invalid("owner", "required"))
	}
	skills, err := s.store.ListSkillsByOwner(ctx, owner)
	if err != nil {
		return analytics.Report{}, s.fail(ctx, "analytics", err)
	}
	outcomes, err := s.store.ListOutcomes(ctx, owner, repository.OutcomeFilter{Order: repository.OrderByCreated})
	if err != nil {
		return analytics.Report{}, s.fail(ctx, "analytics", err)
	}
	st, _, err := loadStreak(ctx, s.store, owner)
	if err != nil {
		return analytics.Report{}, s.fail(ctx, "analytics", err)
	}
	return s.analytics.Build(owner, skills, outcomes, st, today), nil
}

// Suggest proposes skills for a goal. When GoalID is set the goal's title
// and category fill blanks and its skill names are excluded.
func (s *Service) Suggest(ctx context.Context, q types.SuggestionQuery) (suggest.Result, error) {
	req := suggest.Request{GoalTitle: q.GoalTitle, Category: q.Category}
	if q.GoalID != "" {
		g, err := s.store.GetGoal(ctx, q.GoalID)
		if err != nil {
			return suggest.Result{}, s.fail(ctx, "suggest", err)
		}
		skills, err := s.store.ListSkillsByGoal(ctx, g.ID)
		if err != nil {
			return suggest.Result{}, s.fail(ctx, "suggest", err)
		}
		if strings.TrimSpace(req.GoalTitle) == "" {
			req.GoalTitle = g.Title
		}
		if strings.TrimSpace(req.Category) == "" {
			req.Category = g.Category
		}
		for _, sk := range skills {
			req.Existing = append(req.Existing, sk.Name)
		}
	}

	res, err := s.suggestions.Suggest(ctx, req)
	if err != nil {
		return suggest.Result{}, s.fail(ctx, "suggest", err)
	}
	if res.Fallback {
		metrics.RecordSuggestionFallback()
		s.logger.Warn(ctx, "suggestion output malformed, served fallback set", logger.String("category", res.Category))
	}
	return res, nil
}

// Export writes the owner's goals, skills, reflections and streak as an
// xlsx workbook.
func (s *Service) Export(ctx context.Context, owner string, date model.Date, w io.Writer) error {
	snap, err := s.snapshot(ctx, owner, date)
	if err != nil {
		return s.fail(ctx, "export", err)
	}
	if err := s.exporter.Write(w, snap); err != nil {
		return s.fail(ctx, "export", err)
	}
	return nil
}

func (s *Service) snapshot(ctx context.Context, owner string, date model.Date) (excel.Snapshot, error) {
	today, err := s.dateOrToday(date)
	if err != nil {
		return excel.Snapshot{}, err
	}
	if strings.TrimSpace(owner) == "" {
		return excel.Snapshot{}, model.Invalid("owner", "required")
	}
	goals, err := s.store.ListGoals(ctx, owner, repository.GoalFilter{})
	if err != nil {
		return excel.Snapshot{}, err
	}
	skills, err := s.store.ListSkillsByOwner(ctx, owner)
	if err != nil {
		return excel.Snapshot{}, err
	}
	outcomes, err := s.store.ListOutcomes(ctx, owner, repository.OutcomeFilter{Order: repository.OrderByCreated})
	if err != nil {
		return excel.Snapshot{}, err
	}
	st, _, err := loadStreak(ctx, s.store, owner)
	if err != nil {
		return excel.Snapshot{}, err
	}

	summaries := summarizeAll(goals, skills, today)
	snap := excel.Snapshot{
		Owner:    owner,
		Goals:    make([]model.Goal, 0, len(summaries)),
		Skills:   skills,
		Outcomes: outcomes,
		Streak:   st,
		Status:   s.streaks.Observe(st, today),
	}
	for _, sum := range summaries {
		snap.Goals = append(snap.Goals, sum.Goal)
	}
	return snap, nil
}
