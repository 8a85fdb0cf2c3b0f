// Package storetest holds the behavior every repository.Store must share.
// Store implementations call Run from their own tests.
package storetest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/okian/alsip/internal/adapters/repository"
	"github.com/okian/alsip/internal/domain/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var base = time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)

func seed(t *testing.T, ctx context.Context, s repository.Store) (model.Goal, model.Skill) {
	t.Helper()
	g := model.Goal{
		ID: "goal-1", Owner: "user-1", Title: "Learn Go", Category: "programming",
		Timeline: model.Timeline3Months, Effort: model.EffortModerate, IsActive: true, CreatedAt: base,
	}
	require.NoError(t, s.InsertGoal(ctx, g))
	sk := model.Skill{ID: "skill-1", GoalID: g.ID, Name: "Goroutines", CreatedAt: base}
	require.NoError(t, s.InsertSkill(ctx, sk))
	return g, sk
}

// Run exercises newStore against the shared contract. newStore must return
// an empty store.
func Run(t *testing.T, newStore func(t *testing.T) repository.Store) {
	ctx := context.Background()

	t.Run("goals round trip", func(t *testing.T) {
		s := newStore(t)
		g, _ := seed(t, ctx, s)

		got, err := s.GetGoal(ctx, g.ID)
		require.NoError(t, err)
		assert.Equal(t, g.Title, got.Title)
		assert.Equal(t, g.Timeline, got.Timeline)
		assert.True(t, got.IsActive)
		assert.True(t, g.CreatedAt.Equal(got.CreatedAt))

		g.IsActive = false
		g.Title = "Learn Go well"
		require.NoError(t, s.UpdateGoal(ctx, g))

		active, err := s.ListGoals(ctx, "user-1", repository.GoalFilter{ActiveOnly: true})
		require.NoError(t, err)
		assert.Empty(t, active)

		all, err := s.ListGoals(ctx, "user-1", repository.GoalFilter{})
		require.NoError(t, err)
		require.Len(t, all, 1)
		assert.Equal(t, "Learn Go well", all[0].Title)
	})

	t.Run("missing rows are not found", func(t *testing.T) {
		s := newStore(t)

		_, err := s.GetGoal(ctx, "nope")
		assert.True(t, errors.Is(err, model.ErrNotFound))
		_, err = s.GetSkill(ctx, "nope")
		assert.True(t, errors.Is(err, model.ErrNotFound))
		_, err = s.GetStreak(ctx, "nope")
		assert.True(t, errors.Is(err, model.ErrNotFound))
		err = s.UpdateSkill(ctx, model.Skill{ID: "nope"})
		assert.True(t, errors.Is(err, model.ErrNotFound))
	})

	t.Run("duplicate insert is a persistence failure", func(t *testing.T) {
		s := newStore(t)
		g, _ := seed(t, ctx, s)

		err := s.InsertGoal(ctx, g)
		assert.True(t, errors.Is(err, repository.ErrDuplicate))
		assert.True(t, errors.Is(err, model.ErrPersistence))
	})

	t.Run("skills keep nullable dates", func(t *testing.T) {
		s := newStore(t)
		_, sk := seed(t, ctx, s)

		got, err := s.GetSkill(ctx, sk.ID)
		require.NoError(t, err)
		assert.Nil(t, got.LastPracticedDate)
		assert.Nil(t, got.ConfidenceScore)

		got.DaysPracticed = 3
		got.LastPracticedDate = model.DatePtr("2024-01-03")
		got.ConfidenceScore = model.IntPtr(7)
		got.LastConfidenceUpdate = model.DatePtr("2024-01-02")
		require.NoError(t, s.UpdateSkill(ctx, got))

		again, err := s.GetSkill(ctx, sk.ID)
		require.NoError(t, err)
		assert.Equal(t, 3, again.DaysPracticed)
		require.NotNil(t, again.LastPracticedDate)
		assert.Equal(t, model.Date("2024-01-03"), *again.LastPracticedDate)
		require.NotNil(t, again.ConfidenceScore)
		assert.Equal(t, 7, *again.ConfidenceScore)

		byGoal, err := s.ListSkillsByGoal(ctx, "goal-1")
		require.NoError(t, err)
		assert.Len(t, byGoal, 1)

		byOwner, err := s.ListSkillsByOwner(ctx, "user-1")
		require.NoError(t, err)
		assert.Len(t, byOwner, 1)

		none, err := s.ListSkillsByOwner(ctx, "user-2")
		require.NoError(t, err)
		assert.Empty(t, none)
	})

	t.Run("streaks", func(t *testing.T) {
		s := newStore(t)
		st := model.Streak{Owner: "user-1", CurrentStreak: 1, LongestStreak: 1, LastActivityDate: model.DatePtr("2024-01-01"), UpdatedAt: base}
		require.NoError(t, s.InsertStreak(ctx, st))
		require.NoError(t, s.InsertStreak(ctx, model.Streak{Owner: "user-0", UpdatedAt: base}))

		st.IsInRecovery = true
		st.MissedDays = 2
		require.NoError(t, s.UpdateStreak(ctx, st))

		got, err := s.GetStreak(ctx, "user-1")
		require.NoError(t, err)
		assert.True(t, got.IsInRecovery)
		assert.Equal(t, 2, got.MissedDays)
		assert.Equal(t, model.Date("2024-01-01"), *got.LastActivityDate)

		owners, err := s.ListStreakOwners(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"user-0", "user-1"}, owners)
	})

	t.Run("outcomes are ordered", func(t *testing.T) {
		s := newStore(t)
		_, sk := seed(t, ctx, s)
		hard := model.DifficultyTooHard
		note := "select vs switch"
		for i, gain := range []int{2, 5, 3} {
			o := model.LearningOutcome{
				ID: string(rune('a' + i)), Owner: "user-1", SkillID: sk.ID, ClarityGain: gain,
				CreatedAt: base.Add(time.Duration(i) * time.Hour),
			}
			if i == 0 {
				o.Difficulty = &hard
				o.ConfusionNote = &note
			}
			require.NoError(t, s.InsertOutcome(ctx, o))
		}

		recent, err := s.ListOutcomes(ctx, "user-1", repository.OutcomeFilter{})
		require.NoError(t, err)
		require.Len(t, recent, 3)
		assert.Equal(t, []string{"c", "b", "a"}, []string{recent[0].ID, recent[1].ID, recent[2].ID})
		require.NotNil(t, recent[2].Difficulty)
		assert.Equal(t, model.DifficultyTooHard, *recent[2].Difficulty)
		assert.Equal(t, note, *recent[2].ConfusionNote)
		assert.Nil(t, recent[0].ConfusionNote)

		clearest, err := s.ListOutcomes(ctx, "user-1", repository.OutcomeFilter{SkillID: sk.ID, Order: repository.OrderByClarity})
		require.NoError(t, err)
		assert.Equal(t, 5, clearest[0].ClarityGain)

		_, err = s.ListOutcomes(ctx, "user-1", repository.OutcomeFilter{Order: "random"})
		assert.True(t, errors.Is(err, model.ErrValidation))
	})

	t.Run("transaction commits", func(t *testing.T) {
		s := newStore(t)
		_, sk := seed(t, ctx, s)

		err := s.InTx(ctx, func(tx repository.Records) error {
			got, err := tx.GetSkill(ctx, sk.ID)
			if err != nil {
				return err
			}
			got.DaysPracticed = 1
			if err := tx.UpdateSkill(ctx, got); err != nil {
				return err
			}
			return tx.InsertStreak(ctx, model.Streak{Owner: "user-1", CurrentStreak: 1, LongestStreak: 1, UpdatedAt: base})
		})
		require.NoError(t, err)

		got, err := s.GetSkill(ctx, sk.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, got.DaysPracticed)
		_, err = s.GetStreak(ctx, "user-1")
		assert.NoError(t, err)
	})

	t.Run("transaction rolls back", func(t *testing.T) {
		s := newStore(t)
		_, sk := seed(t, ctx, s)
		boom := errors.New("boom")

		err := s.InTx(ctx, func(tx repository.Records) error {
			got, err := tx.GetSkill(ctx, sk.ID)
			if err != nil {
				return err
			}
			got.DaysPracticed = 9
			if err := tx.UpdateSkill(ctx, got); err != nil {
				return err
			}
			return boom
		})
		assert.True(t, errors.Is(err, boom))

		got, err := s.GetSkill(ctx, sk.ID)
		require.NoError(t, err)
		assert.Equal(t, 0, got.DaysPracticed)
	})

	t.Run("ping", func(t *testing.T) {
		assert.NoError(t, newStore(t).Ping(ctx))
	})
}
