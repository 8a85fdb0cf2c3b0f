package dedupe_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/okian/alsip/internal/domain/dedupe"
	. "github.com/smartystreets/goconvey/convey"
)

func TestInMemoryDeduper(t *testing.T) {
	ctx := context.Background()

	Convey("Given a new InMemoryDeduper", t, func() {
		d := dedupe.NewInMemoryDeduper()

		So(d.Size(), ShouldEqual, 0)

		Convey("When a key is new", func() {
			seen := d.SeenAndRecord(ctx, "key-1")

			Convey("Then it should be recorded without a result", func() {
				So(seen, ShouldBeFalse)
				So(d.Size(), ShouldEqual, 1)
				_, ok := d.Result(ctx, "key-1")
				So(ok, ShouldBeFalse)
			})
		})

		Convey("When a key is replayed after completion", func() {
			d.SeenAndRecord(ctx, "key-1")
			d.Complete(ctx, "key-1", []byte(`{"status":"logged"}`))

			seen := d.SeenAndRecord(ctx, "key-1")
			res, ok := d.Result(ctx, "key-1")

			Convey("Then the first result should be returned", func() {
				So(seen, ShouldBeTrue)
				So(ok, ShouldBeTrue)
				So(string(res), ShouldEqual, `{"status":"logged"}`)
				So(d.Size(), ShouldEqual, 1)
			})
		})

		Convey("When a key is unrecorded", func() {
			d.SeenAndRecord(ctx, "key-1")
			d.Unrecord(ctx, "key-1")

			Convey("Then it can be recorded again", func() {
				So(d.Size(), ShouldEqual, 0)
				So(d.SeenAndRecord(ctx, "key-1"), ShouldBeFalse)
			})
		})

		Convey("When completing an unknown key", func() {
			d.Complete(ctx, "ghost", []byte("x"))

			So(d.Size(), ShouldEqual, 0)
		})
	})

	Convey("Given a bounded deduper", t, func() {
		d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(2))

		d.SeenAndRecord(ctx, "a")
		d.SeenAndRecord(ctx, "b")
		d.SeenAndRecord(ctx, "c")

		Convey("Then the oldest key should be evicted", func() {
			So(d.Size(), ShouldEqual, 2)
			So(d.SeenAndRecord(ctx, "c"), ShouldBeTrue)
			So(d.SeenAndRecord(ctx, "b"), ShouldBeTrue)
			So(d.SeenAndRecord(ctx, "a"), ShouldBeFalse)
		})
	})

	Convey("Given concurrent callers with the same key", t, func() {
		d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(0))
		var wg sync.WaitGroup
		var mu sync.Mutex
		fresh := 0

		for i := 0; i < 50; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if !d.SeenAndRecord(ctx, "same") {
					mu.Lock()
					fresh++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()

		Convey("Then exactly one should win", func() {
			So(fresh, ShouldEqual, 1)
		})
	})

	Convey("Given an unbounded deduper", t, func() {
		d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(0))
		for i := 0; i < 100; i++ {
			d.SeenAndRecord(ctx, fmt.Sprintf("k-%d", i))
		}

		So(d.Size(), ShouldEqual, 100)
	})
}
