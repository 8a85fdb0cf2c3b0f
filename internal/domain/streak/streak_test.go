package streak_test

import (
	"errors"
	"testing"

	"github.com/okian/alsip/internal/domain/model"
	"github.com/okian/alsip/internal/domain/streak"
	. "github.com/smartystreets/goconvey/convey"
)

func TestTracker_Complete(t *testing.T) {
	Convey("Given a fresh streak", t, func() {
		tracker := streak.NewTracker()
		s := streak.New("user-1")

		Convey("When a session is completed", func() {
			updated, changed, err := tracker.Complete(s, "2024-01-01")

			Convey("Then the streak should start at one", func() {
				So(err, ShouldBeNil)
				So(changed, ShouldBeTrue)
				So(updated.CurrentStreak, ShouldEqual, 1)
				So(updated.LongestStreak, ShouldEqual, 1)
				So(*updated.LastActivityDate, ShouldEqual, model.Date("2024-01-01"))
			})

			Convey("And a second completion the same day should not inflate it", func() {
				again, changed, err := tracker.Complete(updated, "2024-01-01")
				So(err, ShouldBeNil)
				So(changed, ShouldBeFalse)
				So(again, ShouldResemble, updated)
			})
		})

		Convey("When the date is earlier than the last activity", func() {
			s.LastActivityDate = model.DatePtr("2024-01-05")
			_, _, err := tracker.Complete(s, "2024-01-04")

			So(errors.Is(err, model.ErrValidation), ShouldBeTrue)
		})
	})
}

func TestTracker_LongestNeverRegresses(t *testing.T) {
	Convey("Given any sequence of completions and observations", t, func() {
		tracker := streak.NewTracker()
		s := model.Streak{Owner: "u", CurrentStreak: 2, LongestStreak: 9, LastActivityDate: model.DatePtr("2024-01-01")}
		days := []model.Date{"2024-01-02", "2024-01-02", "2024-01-05", "2024-01-06", "2024-01-20", "2024-01-21"}

		for _, d := range days {
			s, _ = tracker.MarkObserved(s, d)
			So(s.LongestStreak, ShouldBeGreaterThanOrEqualTo, s.CurrentStreak)

			var err error
			s, _, err = tracker.Complete(s, d)
			So(err, ShouldBeNil)
			So(s.LongestStreak, ShouldBeGreaterThanOrEqualTo, s.CurrentStreak)
			So(s.LongestStreak, ShouldBeGreaterThanOrEqualTo, 9)
		}
	})
}

func TestTracker_Recovery(t *testing.T) {
	Convey("Given a 5/5 streak last active on 2024-01-01", t, func() {
		tracker := streak.NewTracker()
		s := model.Streak{
			Owner:            "user-1",
			CurrentStreak:    5,
			LongestStreak:    5,
			LastActivityDate: model.DatePtr("2024-01-01"),
		}

		Convey("When observed the next day", func() {
			st := tracker.Observe(s, "2024-01-02")

			Convey("Then it should still be active", func() {
				So(st.State, ShouldEqual, streak.StateActive)
				So(st.MissedDays, ShouldEqual, 0)
			})
		})

		Convey("When observed on 2024-01-03", func() {
			observed, changed := tracker.MarkObserved(s, "2024-01-03")

			Convey("Then recovery should be flagged without touching the counters", func() {
				So(changed, ShouldBeTrue)
				So(observed.IsInRecovery, ShouldBeTrue)
				So(observed.MissedDays, ShouldEqual, 2)
				So(observed.CurrentStreak, ShouldEqual, 5)
				So(tracker.Observe(observed, "2024-01-03").State, ShouldEqual, streak.StateRecovery)
			})

			Convey("And observing again should be idempotent", func() {
				_, changed := tracker.MarkObserved(observed, "2024-01-03")
				So(changed, ShouldBeFalse)
			})

			Convey("And a completion on 2024-01-03 should clear recovery", func() {
				done, changed, err := tracker.Complete(observed, "2024-01-03")
				So(err, ShouldBeNil)
				So(changed, ShouldBeTrue)
				So(done.CurrentStreak, ShouldEqual, 6)
				So(done.LongestStreak, ShouldEqual, 6)
				So(done.IsInRecovery, ShouldBeFalse)
				So(done.MissedDays, ShouldEqual, 0)
			})
		})

		Convey("When a stored recovery flag is observed before the gap", func() {
			s.IsInRecovery = true
			s.MissedDays = 3

			Convey("Then observation should keep the flag but report the real gap", func() {
				st := tracker.Observe(s, "2024-01-02")
				So(st.State, ShouldEqual, streak.StateRecovery)
				So(st.MissedDays, ShouldEqual, 1)

				observed, _ := tracker.MarkObserved(s, "2024-01-02")
				So(observed.IsInRecovery, ShouldBeTrue)
			})
		})

		Convey("When a far future observation was stored", func() {
			far, changed := tracker.MarkObserved(s, "2030-01-01")
			So(changed, ShouldBeTrue)
			So(far.MissedDays, ShouldBeGreaterThan, 2000)

			Convey("Then a later read should measure from the last activity", func() {
				st := tracker.Observe(far, "2024-01-04")
				So(st.State, ShouldEqual, streak.StateRecovery)
				So(st.MissedDays, ShouldEqual, 3)
			})
		})

		Convey("When the gap threshold is configured higher", func() {
			lenient := streak.NewTracker(streak.WithRecoveryGapDays(4))

			So(lenient.Observe(s, "2024-01-04").State, ShouldEqual, streak.StateActive)
			So(lenient.Observe(s, "2024-01-05").State, ShouldEqual, streak.StateRecovery)
		})
	})

	Convey("Given a streak with no activity", t, func() {
		st := streak.NewTracker().Observe(streak.New("u"), "2024-01-03")

		So(st.State, ShouldEqual, streak.StateActive)
		So(st.CurrentStreak, ShouldEqual, 0)
	})
}
