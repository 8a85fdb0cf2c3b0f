package memstore_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/okian/alsip/internal/adapters/repository"
	"github.com/okian/alsip/internal/adapters/repository/memstore"
	"github.com/okian/alsip/internal/adapters/repository/storetest"
	"github.com/okian/alsip/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestContract(t *testing.T) {
	storetest.Run(t, func(*testing.T) repository.Store { return memstore.New() })
}

func TestFailOn(t *testing.T) {
	Convey("Given a store with an injected failure", t, func() {
		ctx := context.Background()
		s := memstore.New()
		So(s.InsertGoal(ctx, model.Goal{ID: "g", Owner: "u", CreatedAt: time.Now()}), ShouldBeNil)
		So(s.InsertSkill(ctx, model.Skill{ID: "s", GoalID: "g"}), ShouldBeNil)
		s.FailOn("InsertOutcome", errors.New("disk full"))

		Convey("When a transaction hits the failing operation", func() {
			err := s.InTx(ctx, func(tx repository.Records) error {
				sk, err := tx.GetSkill(ctx, "s")
				if err != nil {
					return err
				}
				sk.DaysPracticed = 1
				if err := tx.UpdateSkill(ctx, sk); err != nil {
					return err
				}
				return tx.InsertOutcome(ctx, model.LearningOutcome{ID: "o", Owner: "u", SkillID: "s", ClarityGain: 3})
			})

			Convey("Then it should fail with a persistence error and keep no writes", func() {
				So(errors.Is(err, model.ErrPersistence), ShouldBeTrue)
				sk, err := s.GetSkill(ctx, "s")
				So(err, ShouldBeNil)
				So(sk.DaysPracticed, ShouldEqual, 0)
			})
		})

		Convey("When the failure is cleared", func() {
			s.FailOn("InsertOutcome", nil)
			err := s.InsertOutcome(ctx, model.LearningOutcome{ID: "o", Owner: "u", SkillID: "s", ClarityGain: 3})
			So(err, ShouldBeNil)
		})
	})
}
