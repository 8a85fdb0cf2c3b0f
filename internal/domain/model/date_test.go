package model_test

import (
	"errors"
	"testing"

	model "github.com/okian/alsip/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

func TestDate(t *testing.T) {
	convey.Convey("Given calendar dates", t, func() {
		convey.Convey("When parsing a canonical date", func() {
			d, err := model.ParseDate(" 2024-01-03 ")

			convey.Convey("Then it should round-trip as a string", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(d, convey.ShouldEqual, model.Date("2024-01-03"))
				convey.So(d.Valid(), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When parsing garbage", func() {
			_, err := model.ParseDate("03/01/2024")

			convey.Convey("Then it should be a validation error", func() {
				convey.So(errors.Is(err, model.ErrValidation), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When counting days across a month boundary", func() {
			n, err := model.DaysBetween("2024-01-30", "2024-02-02")

			convey.Convey("Then it should count whole days", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(n, convey.ShouldEqual, 3)
			})
		})

		convey.Convey("When counting days backwards", func() {
			n, err := model.DaysBetween("2024-01-03", "2024-01-01")

			convey.Convey("Then the result should be negative", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(n, convey.ShouldEqual, -2)
			})
		})

		convey.Convey("When adding days over a leap day", func() {
			convey.So(model.Date("2024-02-28").AddDays(2), convey.ShouldEqual, model.Date("2024-03-01"))
		})

		convey.Convey("When comparing dates", func() {
			convey.So(model.Date("2024-01-02").Before("2024-01-10"), convey.ShouldBeTrue)
			convey.So(model.Date("2024-01-10").Before("2024-01-10"), convey.ShouldBeFalse)
		})
	})
}

func TestEnums(t *testing.T) {
	convey.Convey("Given the domain enumerations", t, func() {
		convey.So(model.Timeline3Months.Valid(), convey.ShouldBeTrue)
		convey.So(model.Timeline("2_weeks").Valid(), convey.ShouldBeFalse)
		convey.So(model.Timeline1Year.Days(), convey.ShouldEqual, 365)
		convey.So(model.EffortModerate.Valid(), convey.ShouldBeTrue)
		convey.So(model.DifficultyTooHard.Valid(), convey.ShouldBeTrue)
		convey.So(model.Difficulty("meh").Valid(), convey.ShouldBeFalse)

		convey.Convey("When parsing loosely spelled importance", func() {
			imp, ok := model.ParseImportance("Nice-to-have")
			convey.So(ok, convey.ShouldBeTrue)
			convey.So(imp, convey.ShouldEqual, model.ImportanceNiceToHave)

			_, ok = model.ParseImportance("optional")
			convey.So(ok, convey.ShouldBeFalse)
		})
	})
}
