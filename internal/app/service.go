// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/okian/alsip/internal/adapters/excel"
	eventqueue "github.com/okian/alsip/internal/adapters/mq/queue"
	workerpool "github.com/okian/alsip/internal/adapters/mq/worker"
	repository "github.com/okian/alsip/internal/adapters/repository"
	"github.com/okian/alsip/internal/adapters/scheduler"
	"github.com/okian/alsip/internal/domain/analytics"
	"github.com/okian/alsip/internal/domain/dedupe"
	"github.com/okian/alsip/internal/domain/model"
	"github.com/okian/alsip/internal/domain/plan"
	"github.com/okian/alsip/internal/domain/progress"
	"github.com/okian/alsip/internal/domain/reflection"
	"github.com/okian/alsip/internal/domain/streak"
	"github.com/okian/alsip/internal/domain/suggest"
	"github.com/okian/alsip/pkg/logger"
	"github.com/okian/alsip/pkg/metrics"
)

// Service implements the API dependencies for the learning tracker.
type Service struct {
	mu sync.Mutex

	// Core components
	store       repository.Store
	progress    *progress.Tracker
	streaks     *streak.Tracker
	reflections *reflection.Recorder
	planner     *plan.Planner
	suggestions *suggest.Service
	exporter    *excel.Exporter
	analytics   *analytics.Builder
	deduper     dedupe.Deduper

	// Recovery sweep
	sweepQueue *eventqueue.InMemoryQueue
	workerPool *workerpool.Pool
	scheduler  *scheduler.Scheduler

	// Configuration
	workerCount  int
	queueSize    int
	dedupeSize   int
	sweepEnabled bool
	sweepCron    string
	loc          *time.Location
	now          func() time.Time

	// State
	started bool

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of sweep workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the capacity of the sweep queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets how many idempotency keys are remembered.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithSweep enables or disables the scheduled recovery sweep and sets its
// cron expression.
func WithSweep(enabled bool, cron string) Option {
	return func(s *Service) {
		s.sweepEnabled = enabled
		if cron != "" {
			s.sweepCron = cron
		}
	}
}

// WithLocation sets the timezone that defines "today".
func WithLocation(loc *time.Location) Option {
	return func(s *Service) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithProgressTracker replaces the default skill tracker.
func WithProgressTracker(t *progress.Tracker) Option {
	return func(s *Service) {
		if t != nil {
			s.progress = t
		}
	}
}

// WithStreakTracker replaces the default streak tracker.
func WithStreakTracker(t *streak.Tracker) Option {
	return func(s *Service) {
		if t != nil {
			s.streaks = t
		}
	}
}

// WithRecorder replaces the default reflection recorder.
func WithRecorder(r *reflection.Recorder) Option {
	return func(s *Service) {
		if r != nil {
			s.reflections = r
		}
	}
}

// WithPlanner replaces the default daily planner.
func WithPlanner(p *plan.Planner) Option {
	return func(s *Service) {
		if p != nil {
			s.planner = p
		}
	}
}

// WithSuggestions replaces the default static suggestion service.
func WithSuggestions(svc *suggest.Service) Option {
	return func(s *Service) {
		if svc != nil {
			s.suggestions = svc
		}
	}
}

// WithAnalytics replaces the default analytics builder.
func WithAnalytics(b *analytics.Builder) Option {
	return func(s *Service) {
		if b != nil {
			s.analytics = b
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a Service over store with default configuration.
func New(store repository.Store, opts ...Option) *Service {
	s := &Service{
		store:       store,
		progress:    progress.NewTracker(),
		streaks:     streak.NewTracker(),
		suggestions: suggest.NewService(nil),
		exporter:    excel.NewExporter(),
		workerCount: 2,
		queueSize:   1024,
		dedupeSize:  10000,
		sweepCron:   "5 0 * * *",
		loc:         time.UTC,
		now:         time.Now,
		logger:      logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.planner == nil {
		s.planner = plan.NewPlanner(s.progress)
	}
	if s.reflections == nil {
		s.reflections = reflection.NewRecorder(reflection.WithClock(s.now))
	}
	if s.analytics == nil {
		s.analytics = analytics.NewBuilder(analytics.WithLocation(s.loc))
	}
	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	s.logger = s.logger.Named("service")
	return s
}

// Start launches the sweep queue and workers and, when enabled, the sweep
// schedule.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	s.logger.Info(ctx, "starting learning tracker service...")

	s.sweepQueue = eventqueue.NewInMemoryQueue(eventqueue.WithCapacity(s.queueSize))
	s.workerPool = workerpool.NewPool(s.workerCount, s.sweepQueue, s, s.logger)
	s.workerPool.Start(ctx)

	s.scheduler = scheduler.New(s.store, s.sweepQueue,
		scheduler.WithCron(s.sweepCron),
		scheduler.WithLocation(s.loc),
		scheduler.WithClock(s.now),
		scheduler.WithLogger(s.logger.Named("scheduler")),
	)
	if s.sweepEnabled {
		if err := s.scheduler.Start(ctx); err != nil {
			_ = s.workerPool.Shutdown(ctx)
			return fmt.Errorf("start sweep: %w", err)
		}
	}

	s.started = true
	s.logger.Info(ctx, "learning tracker service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Int("dedupeSize", s.dedupeSize),
		logger.Bool("sweep", s.sweepEnabled),
	)
	return nil
}

// Stop halts the schedule and drains queued sweep jobs.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil
	}

	s.logger.Info(ctx, "stopping learning tracker service...")
	s.scheduler.Stop()
	err := s.workerPool.Shutdown(ctx)
	s.started = false
	s.logger.Info(ctx, "learning tracker service stopped")
	return err
}

// TriggerSweep enqueues a recovery sweep job for every owner now. The
// service must be started.
func (s *Service) TriggerSweep(ctx context.Context) (int, error) {
	s.mu.Lock()
	sch := s.scheduler
	s.mu.Unlock()
	if sch == nil {
		return 0, errors.New("service not started")
	}
	return sch.Trigger(ctx)
}

// Ping reports whether the record store is reachable.
func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// Today returns the current calendar date in the configured timezone.
func (s *Service) Today() model.Date {
	return model.DateOf(s.now().In(s.loc))
}

// dateOrToday validates d, defaulting an empty date to today.
func (s *Service) dateOrToday(d model.Date) (model.Date, error) {
	if d == "" {
		return s.Today(), nil
	}
	return model.ParseDate(string(d))
}

// fail records metrics for err and logs store failures. It returns err
// unchanged.
func (s *Service) fail(ctx context.Context, op string, err error) error {
	var fe *model.FieldError
	switch {
	case err == nil:
		return nil
	case errors.As(err, &fe):
		metrics.RecordValidationError(fe.Field)
	case errors.Is(err, model.ErrValidation), errors.Is(err, model.ErrNotFound):
	case errors.Is(err, model.ErrSuggestion):
		metrics.RecordSuggestionFailure()
		s.logger.Warn(ctx, "suggestion service failed", logger.String("op", op), logger.Error(err))
	default:
		metrics.RecordErrorByComponent("service", op)
		s.logger.Error(ctx, "operation failed", logger.String("op", op), logger.Error(err))
	}
	return err
}
