package analytics_test

import (
	"testing"
	"time"

	"github.com/okian/alsip/internal/domain/analytics"
	"github.com/okian/alsip/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func reflection(skillID string, clarity int, day string) model.LearningOutcome {
	at, err := time.Parse(model.DateLayout, day)
	So(err, ShouldBeNil)
	return model.LearningOutcome{SkillID: skillID, ClarityGain: clarity, CreatedAt: at.Add(18 * time.Hour)}
}

func TestBuilder_Build(t *testing.T) {
	Convey("Given two skills with reflections and a 3 day streak", t, func() {
		skills := []model.Skill{
			{
				ID: "s1", Name: "Syntax", DaysPracticed: 3,
				ConfidenceScore: model.IntPtr(7), LastConfidenceUpdate: model.DatePtr("2024-01-04"),
			},
			{ID: "s2", Name: "Concurrency", DaysPracticed: 1},
		}
		outcomes := []model.LearningOutcome{
			reflection("s1", 4, "2024-01-02"),
			reflection("s1", 3, "2024-01-01"),
			reflection("s2", 1, "2024-01-02"),
			reflection("s1", 2, "2024-01-03"),
			reflection("gone", 5, "2024-01-01"),
			reflection("s1", 5, "2024-01-09"),
		}
		st := model.Streak{Owner: "u1", CurrentStreak: 3, LongestStreak: 4, LastActivityDate: model.DatePtr("2024-01-04")}

		Convey("When the report is built on 2024-01-05", func() {
			r := analytics.NewBuilder().Build("u1", skills, outcomes, st, "2024-01-05")

			Convey("Then confidence should accumulate clarity and end on the self assessment", func() {
				So(r.Owner, ShouldEqual, "u1")
				So(r.ConfidenceHistory, ShouldResemble, []analytics.ConfidencePoint{
					{Date: "2024-01-01", SkillID: "s1", Skill: "Syntax", Score: 6},
					{Date: "2024-01-02", SkillID: "s1", Skill: "Syntax", Score: 10},
					{Date: "2024-01-02", SkillID: "s2", Skill: "Concurrency", Score: 2},
					{Date: "2024-01-03", SkillID: "s1", Skill: "Syntax", Score: 10},
					{Date: "2024-01-04", SkillID: "s1", Skill: "Syntax", Score: 7, SelfAssessed: true},
				})
			})

			Convey("Then the streak history should end on the last activity", func() {
				So(r.StreakHistory, ShouldResemble, []analytics.StreakPoint{
					{Date: "2024-01-02", Streak: 1},
					{Date: "2024-01-03", Streak: 2},
					{Date: "2024-01-04", Streak: 3},
				})
			})

			Convey("Then time should be credited per practiced day", func() {
				So(r.TimeInvested, ShouldResemble, []analytics.SkillTime{
					{SkillID: "s1", Skill: "Syntax", Days: 3, Minutes: 90},
					{SkillID: "s2", Skill: "Concurrency", Days: 1, Minutes: 30},
				})
				So(r.Summary.PracticeDays, ShouldEqual, 4)
				So(r.Summary.TotalMinutes, ShouldEqual, 120)
			})

			Convey("Then the clarity summary should skip unknown and later reflections", func() {
				So(r.Summary.Reflections, ShouldEqual, 4)
				So(r.Summary.MeanClarity, ShouldEqual, 2.5)
				So(r.Summary.MedianClarity, ShouldEqual, 2.5)
			})
		})

		Convey("When a practice day is worth 45 minutes", func() {
			r := analytics.NewBuilder(analytics.WithMinutesPerDay(45)).Build("u1", skills, nil, st, "2024-01-05")

			So(r.TimeInvested[0].Minutes, ShouldEqual, 135)
			So(r.Summary.TotalMinutes, ShouldEqual, 180)
			So(r.Summary.Reflections, ShouldEqual, 0)
			So(r.Summary.MeanClarity, ShouldEqual, 0)
		})

		Convey("When reflections are dated in a zone ahead of UTC", func() {
			tokyo := time.FixedZone("JST", 9*3600)
			r := analytics.NewBuilder(analytics.WithLocation(tokyo)).Build("u1", skills, outcomes[1:2], st, "2024-01-05")

			So(r.ConfidenceHistory[0].Date, ShouldEqual, model.Date("2024-01-02"))
		})
	})
}

func TestStreakHistory(t *testing.T) {
	Convey("Given a streak", t, func() {
		Convey("When there is no activity", func() {
			So(analytics.StreakHistory(model.Streak{}, "2024-01-05"), ShouldBeEmpty)
		})

		Convey("When the last activity is after the observation date", func() {
			st := model.Streak{CurrentStreak: 3, LastActivityDate: model.DatePtr("2024-01-06")}
			So(analytics.StreakHistory(st, "2024-01-05"), ShouldResemble, []analytics.StreakPoint{
				{Date: "2024-01-04", Streak: 1},
				{Date: "2024-01-05", Streak: 2},
			})
		})
	})
}
