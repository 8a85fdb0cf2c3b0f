// Package excel renders a learner's records as an xlsx workbook.
package excel

import (
	"fmt"
	"io"

	"github.com/okian/alsip/internal/domain/model"
	"github.com/okian/alsip/internal/domain/streak"
	"github.com/xuri/excelize/v2"
)

// Sheet names, in workbook order.
const (
	SheetGoals       = "Goals"
	SheetSkills      = "Skills"
	SheetReflections = "Reflections"
	SheetStreak      = "Streak"
)

// ContentType is the MIME type of the rendered workbook.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Snapshot is everything exported for one owner. Goals carry their derived
// progress and days remaining.
type Snapshot struct {
	Owner    string
	Goals    []model.Goal
	Skills   []model.Skill
	Outcomes []model.LearningOutcome
	Streak   model.Streak
	Status   streak.Status
}

// Exporter writes snapshots as workbooks.
type Exporter struct{}

// NewExporter creates an exporter.
func NewExporter() *Exporter { return &Exporter{} }

// Write renders snap into w.
func (e *Exporter) Write(w io.Writer, snap Snapshot) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetGoals); err != nil {
		return fmt.Errorf("excel: rename sheet: %w", err)
	}
	for _, name := range []string{SheetSkills, SheetReflections, SheetStreak} {
		if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("excel: new sheet %s: %w", name, err)
		}
	}

	goalTitles := make(map[string]string, len(snap.Goals))
	goals := [][]interface{}{{"ID", "Title", "Category", "Timeline", "Effort", "Active", "Progress", "Days remaining", "Created"}}
	for _, g := range snap.Goals {
		goalTitles[g.ID] = g.Title
		goals = append(goals, []interface{}{
			g.ID, g.Title, g.Category, string(g.Timeline), string(g.Effort), g.IsActive,
			g.Progress, g.DaysRemaining, g.CreatedAt.UTC().Format(model.DateLayout),
		})
	}

	skillNames := make(map[string]string, len(snap.Skills))
	skills := [][]interface{}{{"ID", "Goal", "Name", "Progress", "Days practiced", "Last practiced", "Confidence", "Confidence updated"}}
	for _, s := range snap.Skills {
		skillNames[s.ID] = s.Name
		skills = append(skills, []interface{}{
			s.ID, goalTitles[s.GoalID], s.Name, s.Progress, s.DaysPracticed,
			dateCell(s.LastPracticedDate), intCell(s.ConfidenceScore), dateCell(s.LastConfidenceUpdate),
		})
	}

	reflections := [][]interface{}{{"ID", "Skill", "Clarity gain", "Difficulty", "Confusion note", "Recorded"}}
	for _, o := range snap.Outcomes {
		var diff, note string
		if o.Difficulty != nil {
			diff = string(*o.Difficulty)
		}
		if o.ConfusionNote != nil {
			note = *o.ConfusionNote
		}
		reflections = append(reflections, []interface{}{
			o.ID, skillNames[o.SkillID], o.ClarityGain, diff, note, o.CreatedAt.UTC().Format("2006-01-02 15:04"),
		})
	}

	streakRows := [][]interface{}{
		{"Owner", snap.Owner},
		{"Current streak", snap.Status.CurrentStreak},
		{"Longest streak", snap.Status.LongestStreak},
		{"Last activity", dateCell(snap.Streak.LastActivityDate)},
		{"State", string(snap.Status.State)},
		{"Missed days", snap.Status.MissedDays},
	}

	for sheet, rows := range map[string][][]interface{}{
		SheetGoals:       goals,
		SheetSkills:      skills,
		SheetReflections: reflections,
		SheetStreak:      streakRows,
	} {
		if err := writeRows(f, sheet, rows); err != nil {
			return err
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("excel: write workbook: %w", err)
	}
	return nil
}

func writeRows(f *excelize.File, sheet string, rows [][]interface{}) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return fmt.Errorf("excel: %s row %d: %w", sheet, i+1, err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("excel: %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}

func dateCell(d *model.Date) string {
	if d == nil {
		return ""
	}
	return d.String()
}

func intCell(n *int) interface{} {
	if n == nil {
		return ""
	}
	return *n
}
