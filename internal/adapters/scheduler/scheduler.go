// Package scheduler triggers the recovery sweep on a cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/google/uuid"
	"github.com/okian/alsip/internal/domain/model"
	"github.com/okian/alsip/pkg/logger"
	"github.com/okian/alsip/pkg/metrics"
)

const defaultCron = "5 0 * * *"

// OwnerLister enumerates owners with a streak record.
type OwnerLister interface {
	ListStreakOwners(ctx context.Context) ([]string, error)
}

// Enqueuer accepts sweep jobs.
type Enqueuer interface {
	Enqueue(ctx context.Context, j model.SweepJob) bool
}

// Option applies a configuration option to the Scheduler.
type Option func(*Scheduler)

// WithCron sets the five-field cron expression of the sweep.
func WithCron(expr string) Option {
	return func(s *Scheduler) {
		if expr != "" {
			s.cron = expr
		}
	}
}

// WithLocation sets the timezone used for the schedule and for "today".
func WithLocation(loc *time.Location) Option {
	return func(s *Scheduler) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets the scheduler logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Scheduler) {
		if l != nil {
			s.log = l
		}
	}
}

// Scheduler enqueues one sweep job per streak owner on every tick.
type Scheduler struct {
	owners OwnerLister
	queue  Enqueuer
	cron   string
	loc    *time.Location
	now    func() time.Time
	log    logger.Logger

	cronScheduler *gocron.Scheduler
}

// New creates a scheduler. Start must be called to run it.
func New(owners OwnerLister, queue Enqueuer, opts ...Option) *Scheduler {
	s := &Scheduler{
		owners: owners,
		queue:  queue,
		cron:   defaultCron,
		loc:    time.UTC,
		now:    time.Now,
		log:    logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start registers the cron job and runs the scheduler in the background.
func (s *Scheduler) Start(ctx context.Context) error {
	cs := gocron.NewScheduler(s.loc)
	cs.SingletonModeAll()
	if _, err := cs.Cron(s.cron).Do(func() {
		if _, err := s.Trigger(ctx); err != nil {
			s.log.Error(ctx, "recovery sweep failed", logger.Error(err))
		}
	}); err != nil {
		return fmt.Errorf("scheduler: cron %q: %w", s.cron, err)
	}
	cs.StartAsync()
	s.cronScheduler = cs
	s.log.Info(ctx, "recovery sweep scheduled", logger.String("cron", s.cron), logger.String("timezone", s.loc.String()))
	return nil
}

// Stop halts the schedule. Queued jobs are left to the worker pool.
func (s *Scheduler) Stop() {
	if s.cronScheduler != nil {
		s.cronScheduler.Stop()
	}
}

// Trigger enqueues a job for every owner for today's date and returns the
// number of jobs accepted.
func (s *Scheduler) Trigger(ctx context.Context) (int, error) {
	owners, err := s.owners.ListStreakOwners(ctx)
	if err != nil {
		return 0, fmt.Errorf("list owners: %w", err)
	}
	metrics.UpdateTrackedOwners(len(owners))

	today := model.DateOf(s.now().In(s.loc))
	accepted := 0
	for _, owner := range owners {
		job := model.SweepJob{ID: uuid.NewString(), Owner: owner, Date: today}
		if s.queue.Enqueue(ctx, job) {
			accepted++
			continue
		}
		s.log.Warn(ctx, "sweep job dropped", logger.String("owner", owner))
	}
	s.log.Info(ctx, "recovery sweep enqueued",
		logger.Int("owners", len(owners)), logger.Int("accepted", accepted), logger.String("date", today.String()))
	return accepted, nil
}
