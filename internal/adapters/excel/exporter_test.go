package excel_test

import (
	"bytes"
	"testing"
	"time"

	"github.com/okian/alsip/internal/adapters/excel"
	"github.com/okian/alsip/internal/domain/model"
	"github.com/okian/alsip/internal/domain/streak"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestExporter_Write(t *testing.T) {
	created := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	hard := model.DifficultyTooHard
	note := "channel direction"
	snap := excel.Snapshot{
		Owner: "user-1",
		Goals: []model.Goal{{
			ID: "g1", Title: "Learn Go", Category: "programming", Timeline: model.Timeline3Months,
			Effort: model.EffortLight, IsActive: true, CreatedAt: created, Progress: 40, DaysRemaining: 80,
		}},
		Skills: []model.Skill{
			{ID: "s1", GoalID: "g1", Name: "Goroutines", Progress: 80, DaysPracticed: 4, LastPracticedDate: model.DatePtr("2024-01-09"), ConfidenceScore: model.IntPtr(6)},
			{ID: "s2", GoalID: "g1", Name: "Generics"},
		},
		Outcomes: []model.LearningOutcome{
			{ID: "o1", SkillID: "s1", ClarityGain: 4, Difficulty: &hard, ConfusionNote: &note, CreatedAt: created},
		},
		Streak: model.Streak{Owner: "user-1", CurrentStreak: 3, LongestStreak: 5, LastActivityDate: model.DatePtr("2024-01-09")},
		Status: streak.Status{State: streak.StateRecovery, MissedDays: 2, CurrentStreak: 3, LongestStreak: 5},
	}

	var buf bytes.Buffer
	require.NoError(t, excel.NewExporter().Write(&buf, snap))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{excel.SheetGoals, excel.SheetSkills, excel.SheetReflections, excel.SheetStreak}, f.GetSheetList())

	goals, err := f.GetRows(excel.SheetGoals)
	require.NoError(t, err)
	require.Len(t, goals, 2)
	assert.Equal(t, "Learn Go", goals[1][1])
	assert.Equal(t, "40", goals[1][6])
	assert.Equal(t, "2024-01-01", goals[1][8])

	skills, err := f.GetRows(excel.SheetSkills)
	require.NoError(t, err)
	require.Len(t, skills, 3)
	assert.Equal(t, "Learn Go", skills[1][1])
	assert.Equal(t, "2024-01-09", skills[1][5])
	assert.Equal(t, "6", skills[1][6])

	reflections, err := f.GetRows(excel.SheetReflections)
	require.NoError(t, err)
	require.Len(t, reflections, 2)
	assert.Equal(t, "Goroutines", reflections[1][1])
	assert.Equal(t, "too_hard", reflections[1][3])
	assert.Equal(t, note, reflections[1][4])

	streakRows, err := f.GetRows(excel.SheetStreak)
	require.NoError(t, err)
	assert.Equal(t, []string{"State", "recovery"}, streakRows[4])
	assert.Equal(t, []string{"Missed days", "2"}, streakRows[5])
}

func TestExporter_EmptySnapshot(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, excel.NewExporter().Write(&buf, excel.Snapshot{Owner: "nobody"}))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(excel.SheetGoals)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}
