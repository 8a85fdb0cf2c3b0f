package progress_test

import (
	"errors"
	"testing"

	"github.com/okian/alsip/internal/domain/model"
	"github.com/okian/alsip/internal/domain/progress"
	. "github.com/smartystreets/goconvey/convey"
)

func TestTracker_LogPractice(t *testing.T) {
	Convey("Given a skill and a tracker", t, func() {
		tracker := progress.NewTracker()
		skill := model.Skill{ID: "s1", GoalID: "g1", Name: "Go"}

		Convey("When practice is logged for the first time", func() {
			updated, status, err := tracker.LogPractice(skill, "2024-01-01")

			Convey("Then the counter and date should move", func() {
				So(err, ShouldBeNil)
				So(status, ShouldEqual, progress.StatusLogged)
				So(updated.DaysPracticed, ShouldEqual, 1)
				So(*updated.LastPracticedDate, ShouldEqual, model.Date("2024-01-01"))
			})

			Convey("And logging again on the same date should be a no-op", func() {
				again, status, err := tracker.LogPractice(updated, "2024-01-01")
				So(err, ShouldBeNil)
				So(status, ShouldEqual, progress.StatusAlreadyLoggedToday)
				So(again.DaysPracticed, ShouldEqual, 1)
				So(*again.LastPracticedDate, ShouldEqual, model.Date("2024-01-01"))
			})

			Convey("And logging on the next date should increment once", func() {
				next, status, err := tracker.LogPractice(updated, "2024-01-02")
				So(err, ShouldBeNil)
				So(status, ShouldEqual, progress.StatusLogged)
				So(next.DaysPracticed, ShouldEqual, 2)
			})

			Convey("And logging on an earlier date should be rejected", func() {
				_, _, err := tracker.LogPractice(updated, "2023-12-31")
				So(errors.Is(err, model.ErrValidation), ShouldBeTrue)
			})
		})

		Convey("When the date is malformed", func() {
			_, _, err := tracker.LogPractice(skill, "yesterday")

			Convey("Then it should fail validation", func() {
				So(errors.Is(err, model.ErrValidation), ShouldBeTrue)
			})
		})
	})
}

func TestTracker_UpdateConfidence(t *testing.T) {
	Convey("Given a tracker", t, func() {
		tracker := progress.NewTracker()
		skill := model.Skill{ID: "s1"}

		Convey("When the score is in range", func() {
			updated, err := tracker.UpdateConfidence(skill, 7, "2024-02-01")

			Convey("Then score and date should be stored", func() {
				So(err, ShouldBeNil)
				So(*updated.ConfidenceScore, ShouldEqual, 7)
				So(*updated.LastConfidenceUpdate, ShouldEqual, model.Date("2024-02-01"))
			})
		})

		Convey("When the score is out of range", func() {
			for _, score := range []int{0, 11, -3} {
				updated, err := tracker.UpdateConfidence(skill, score, "2024-02-01")
				So(errors.Is(err, model.ErrValidation), ShouldBeTrue)
				So(updated.ConfidenceScore, ShouldBeNil)
			}
		})
	})
}

func TestTracker_SetProgress(t *testing.T) {
	Convey("Given a tracker", t, func() {
		tracker := progress.NewTracker()

		updated, err := tracker.SetProgress(model.Skill{}, 55)
		So(err, ShouldBeNil)
		So(updated.Progress, ShouldEqual, 55)

		_, err = tracker.SetProgress(model.Skill{}, 101)
		So(errors.Is(err, model.ErrValidation), ShouldBeTrue)
	})
}

func TestTracker_NeedsConfidenceCheckIn(t *testing.T) {
	Convey("Given a skill practiced for six days with no confidence yet", t, func() {
		tracker := progress.NewTracker()
		skill := model.Skill{DaysPracticed: 6, LastPracticedDate: model.DatePtr("2024-01-06")}

		Convey("Then no check-in should be due", func() {
			So(tracker.NeedsConfidenceCheckIn(skill, "2024-01-06"), ShouldBeFalse)
		})

		Convey("When a seventh day is logged", func() {
			updated, _, err := tracker.LogPractice(skill, "2024-01-07")
			So(err, ShouldBeNil)

			Convey("Then a check-in should be due", func() {
				So(updated.DaysPracticed, ShouldEqual, 7)
				So(tracker.NeedsConfidenceCheckIn(updated, "2024-01-07"), ShouldBeTrue)
			})
		})
	})

	Convey("Given a skill with a recent confidence update", t, func() {
		tracker := progress.NewTracker()
		skill := model.Skill{DaysPracticed: 30, LastConfidenceUpdate: model.DatePtr("2024-03-01")}

		So(tracker.NeedsConfidenceCheckIn(skill, "2024-03-07"), ShouldBeFalse)
		So(tracker.NeedsConfidenceCheckIn(skill, "2024-03-08"), ShouldBeTrue)
	})

	Convey("Given a custom check-in interval", t, func() {
		tracker := progress.NewTracker(progress.WithCheckInDays(3))
		skill := model.Skill{DaysPracticed: 3}

		So(tracker.NeedsConfidenceCheckIn(skill, "2024-03-08"), ShouldBeTrue)
	})
}
