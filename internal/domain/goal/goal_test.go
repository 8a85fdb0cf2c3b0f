package goal_test

import (
	"errors"
	"testing"
	"time"

	"github.com/okian/alsip/internal/domain/goal"
	"github.com/okian/alsip/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func skills(progress ...int) []model.Skill {
	out := make([]model.Skill, len(progress))
	for i, p := range progress {
		out[i] = model.Skill{Progress: p}
	}
	return out
}

func TestComputeOverallProgress(t *testing.T) {
	Convey("Given a goal", t, func() {
		g := model.Goal{ID: "g1"}

		Convey("When skills are 80, 40 and 0", func() {
			So(goal.ComputeOverallProgress(g, skills(80, 40, 0)), ShouldEqual, 40)
		})

		Convey("When the goal has no skills", func() {
			So(goal.ComputeOverallProgress(g, nil), ShouldEqual, 0)
		})

		Convey("When the mean has a fractional part", func() {
			So(goal.ComputeOverallProgress(g, skills(50, 51)), ShouldEqual, 51)
			So(goal.ComputeOverallProgress(g, skills(10, 10, 11)), ShouldEqual, 10)
		})

		Convey("When every skill is complete", func() {
			So(goal.ComputeOverallProgress(g, skills(100, 100)), ShouldEqual, 100)
		})
	})
}

func TestDaysRemaining(t *testing.T) {
	Convey("Given a three month goal created on 2024-01-01", t, func() {
		g := model.Goal{Timeline: model.Timeline3Months, CreatedAt: time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)}

		So(goal.DaysRemaining(g, "2024-01-01"), ShouldEqual, 90)
		So(goal.DaysRemaining(g, "2024-03-01"), ShouldEqual, 30)
		So(goal.DaysRemaining(g, "2024-12-01"), ShouldEqual, 0)
	})

	Convey("Given a goal without a creation time", t, func() {
		So(goal.DaysRemaining(model.Goal{Timeline: model.Timeline1Month}, "2024-01-01"), ShouldEqual, 0)
	})
}

func TestSummarize(t *testing.T) {
	Convey("Given a goal and its skills", t, func() {
		g := model.Goal{ID: "g1", Timeline: model.Timeline1Month, CreatedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
		sum := goal.Summarize(g, skills(20, 40), "2024-01-11")

		So(sum.Goal.Progress, ShouldEqual, 30)
		So(sum.Goal.DaysRemaining, ShouldEqual, 20)
		So(sum.SkillCount, ShouldEqual, 2)
	})

	Convey("Given a goal with no skills", t, func() {
		sum := goal.Summarize(model.Goal{}, nil, "2024-01-11")

		So(sum.Skills, ShouldNotBeNil)
		So(sum.SkillCount, ShouldEqual, 0)
	})
}

func TestValidate(t *testing.T) {
	Convey("Given goal input", t, func() {
		valid := model.Goal{Owner: "u", Title: "Learn Go", Timeline: model.Timeline6Months, Effort: model.EffortLight}
		So(goal.Validate(valid), ShouldBeNil)

		noTitle := valid
		noTitle.Title = " "
		So(errors.Is(goal.Validate(noTitle), model.ErrValidation), ShouldBeTrue)

		badTimeline := valid
		badTimeline.Timeline = "forever"
		So(errors.Is(goal.Validate(badTimeline), model.ErrValidation), ShouldBeTrue)

		badEffort := valid
		badEffort.Effort = "heroic"
		So(errors.Is(goal.Validate(badEffort), model.ErrValidation), ShouldBeTrue)
	})
}
