package worker_test

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/okian/alsip/internal/adapters/mq/queue"
	"github.com/okian/alsip/internal/adapters/mq/worker"
	"github.com/okian/alsip/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

type fakeSweeper struct {
	mu     sync.Mutex
	owners []string
	fail   map[string]error
}

func (f *fakeSweeper) Sweep(_ context.Context, job queue.Job) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail[job.Owner]; err != nil {
		return false, err
	}
	f.owners = append(f.owners, job.Owner)
	return job.Owner == "lapsed", nil
}

func (f *fakeSweeper) seen() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := append([]string(nil), f.owners...)
	sort.Strings(out)
	return out
}

func TestInMemoryWorker(t *testing.T) {
	convey.Convey("Given a worker on a job channel", t, func() {
		jobs := make(chan queue.Job, 4)
		sweeper := &fakeSweeper{fail: map[string]error{"broken": errors.New("store down")}}
		w := worker.NewInMemoryWorker(jobs, sweeper, worker.WithName("w-test"))

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go w.Run(ctx)

		convey.Convey("When jobs arrive including a failing one", func() {
			jobs <- model.SweepJob{ID: "1", Owner: "lapsed", Date: "2024-01-03"}
			jobs <- model.SweepJob{ID: "2", Owner: "broken", Date: "2024-01-03"}
			jobs <- model.SweepJob{ID: "3", Owner: "active", Date: "2024-01-03"}
			close(jobs)

			convey.Convey("Then the worker should keep going past the failure", func() {
				deadline := time.Now().Add(time.Second)
				for len(sweeper.seen()) < 2 && time.Now().Before(deadline) {
					time.Sleep(5 * time.Millisecond)
				}
				convey.So(sweeper.seen(), convey.ShouldResemble, []string{"active", "lapsed"})

				shutdownCtx, done := context.WithTimeout(context.Background(), time.Second)
				defer done()
				convey.So(w.Shutdown(shutdownCtx), convey.ShouldBeNil)
			})
		})

		convey.Convey("When shutdown is requested twice", func() {
			shutdownCtx, done := context.WithTimeout(context.Background(), time.Second)
			defer done()

			convey.So(w.Shutdown(shutdownCtx), convey.ShouldBeNil)
			convey.So(w.Shutdown(shutdownCtx), convey.ShouldBeNil)
		})
	})
}

func TestPool(t *testing.T) {
	convey.Convey("Given a pool of three workers over a queue", t, func() {
		q := queue.NewInMemoryQueue(queue.WithCapacity(64))
		sweeper := &fakeSweeper{}
		pool := worker.NewPool(3, q, sweeper, nil)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		pool.Start(ctx)

		owners := []string{"a", "b", "c", "d", "e", "lapsed"}
		for _, o := range owners {
			convey.So(q.Enqueue(ctx, model.SweepJob{ID: o, Owner: o, Date: "2024-01-03"}), convey.ShouldBeTrue)
		}

		convey.Convey("When the pool shuts down", func() {
			convey.So(pool.Shutdown(context.Background()), convey.ShouldBeNil)

			convey.Convey("Then every queued job should have been swept", func() {
				convey.So(sweeper.seen(), convey.ShouldResemble, []string{"a", "b", "c", "d", "e", "lapsed"})
				convey.So(q.IsClosed(), convey.ShouldBeTrue)
			})
		})
	})

	convey.Convey("Given a pool with no worker count", t, func() {
		pool := worker.NewPool(0, queue.NewInMemoryQueue(), &fakeSweeper{}, nil)
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		pool.Start(ctx)

		convey.So(pool.Shutdown(context.Background()), convey.ShouldBeNil)
	})
}
