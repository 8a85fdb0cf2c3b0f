package reflection_test

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/okian/alsip/internal/domain/model"
	"github.com/okian/alsip/internal/domain/reflection"
	. "github.com/smartystreets/goconvey/convey"
)

func gain(n int) *int { return &n }

func TestRecorder_Record(t *testing.T) {
	Convey("Given a recorder with a fixed clock", t, func() {
		fixed := time.Date(2024, 1, 3, 18, 30, 0, 0, time.UTC)
		rec := reflection.NewRecorder(reflection.WithClock(func() time.Time { return fixed }))

		Convey("When all fields are valid", func() {
			note := "  channels vs mutexes  "
			diff := model.DifficultyJustRight
			out, err := rec.Record(reflection.Input{
				Owner:         "user-1",
				SkillID:       "skill-1",
				ClarityGain:   gain(4),
				ConfusionNote: &note,
				Difficulty:    &diff,
			})

			Convey("Then an outcome should be built", func() {
				So(err, ShouldBeNil)
				So(out.ID, ShouldNotBeEmpty)
				So(out.ClarityGain, ShouldEqual, 4)
				So(*out.ConfusionNote, ShouldEqual, "channels vs mutexes")
				So(*out.Difficulty, ShouldEqual, model.DifficultyJustRight)
				So(out.CreatedAt, ShouldEqual, fixed)
			})
		})

		Convey("When the note is blank", func() {
			blank := "   "
			out, err := rec.Record(reflection.Input{Owner: "u", SkillID: "s", ClarityGain: gain(1), ConfusionNote: &blank})

			Convey("Then it should be treated as absent", func() {
				So(err, ShouldBeNil)
				So(out.ConfusionNote, ShouldBeNil)
			})
		})

		Convey("When clarity gain is out of range", func() {
			_, err := rec.Record(reflection.Input{Owner: "u", SkillID: "s", ClarityGain: gain(6)})

			Convey("Then it should fail validation", func() {
				So(errors.Is(err, model.ErrValidation), ShouldBeTrue)
				So(err.Error(), ShouldContainSubstring, "clarity_gain")
			})
		})

		Convey("When clarity gain is missing", func() {
			err := rec.Validate(reflection.Input{Owner: "u", SkillID: "s"})
			So(errors.Is(err, model.ErrValidation), ShouldBeTrue)
		})

		Convey("When the difficulty tag is unknown", func() {
			bad := model.Difficulty("brutal")
			err := rec.Validate(reflection.Input{Owner: "u", SkillID: "s", ClarityGain: gain(3), Difficulty: &bad})
			So(errors.Is(err, model.ErrValidation), ShouldBeTrue)
		})

		Convey("When owner or skill is missing", func() {
			So(errors.Is(rec.Validate(reflection.Input{SkillID: "s", ClarityGain: gain(3)}), model.ErrValidation), ShouldBeTrue)
			So(errors.Is(rec.Validate(reflection.Input{Owner: "u", ClarityGain: gain(3)}), model.ErrValidation), ShouldBeTrue)
		})

		Convey("When the note exceeds the configured length", func() {
			short := reflection.NewRecorder(reflection.WithMaxNoteLength(5))
			long := strings.Repeat("é", 6)
			err := short.Validate(reflection.Input{Owner: "u", SkillID: "s", ClarityGain: gain(3), ConfusionNote: &long})
			So(errors.Is(err, model.ErrValidation), ShouldBeTrue)
		})
	})
}
