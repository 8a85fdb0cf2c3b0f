// Package worker runs recovery sweep jobs off the queue.
package worker

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/alsip/internal/adapters/mq/queue"
	"github.com/okian/alsip/pkg/logger"
	"github.com/okian/alsip/pkg/metrics"
)

const (
	defaultWorkerCount  = 2
	poolShutdownTimeout = 30 * time.Second
)

// Sweeper observes one owner's streak for a job. flagged reports whether the
// stored streak was moved into recovery.
type Sweeper interface {
	Sweep(ctx context.Context, job queue.Job) (flagged bool, err error)
}

// Queue defines how workers receive jobs.
type Queue interface {
	Dequeue(ctx context.Context) <-chan queue.Job
}

// Option applies a configuration option to the InMemoryWorker.
type Option func(*InMemoryWorker)

// WithName sets the worker name for identification and logging.
func WithName(name string) Option {
	return func(w *InMemoryWorker) {
		if name != "" {
			w.name = name
		}
	}
}

// WithLogger sets a custom logger for the worker.
func WithLogger(l logger.Logger) Option {
	return func(w *InMemoryWorker) {
		if l != nil {
			w.logger = l
		}
	}
}

// InMemoryWorker processes jobs from one dequeue channel.
type InMemoryWorker struct {
	jobs    <-chan queue.Job
	sweeper Sweeper
	name    string
	active  *atomic.Int64

	shutdown     chan struct{}
	shutdownOnce sync.Once
	done         chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a worker reading from jobs.
func NewInMemoryWorker(jobs <-chan queue.Job, sweeper Sweeper, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		jobs:     jobs,
		sweeper:  sweeper,
		name:     "worker",
		active:   &atomic.Int64{},
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
		logger:   logger.Nop(),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.logger = w.logger.Named(w.name)
	return w
}

// Run processes jobs until ctx is done, Shutdown is called or the channel
// closes.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case job, ok := <-w.jobs:
			if !ok {
				return
			}
			if err := w.process(ctx, job); err != nil {
				w.logger.Error(ctx, "sweep job failed", logger.String("owner", job.Owner), logger.Error(err))
			}
		}
	}
}

// Shutdown stops the worker after its current job.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	w.shutdownOnce.Do(func() { close(w.shutdown) })
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

func (w *InMemoryWorker) process(ctx context.Context, job queue.Job) error {
	metrics.UpdateWorkerActiveCount(int(w.active.Add(1)))
	start := time.Now()
	defer func() {
		metrics.UpdateWorkerActiveCount(int(w.active.Add(-1)))
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Milliseconds()))
	}()

	flagged, err := w.sweeper.Sweep(ctx, job)
	if err != nil {
		metrics.RecordWorkerError()
		metrics.RecordSweepJob("failed")
		metrics.RecordErrorByComponent("worker", "sweep_error")
		return fmt.Errorf("sweep %s: %w", job.ID, err)
	}
	if flagged {
		metrics.RecordSweepJob("flagged")
		w.logger.Debug(ctx, "streak moved to recovery", logger.String("owner", job.Owner), logger.String("date", job.Date.String()))
	} else {
		metrics.RecordSweepJob("unchanged")
	}
	return nil
}

// Pool manages multiple workers sharing one dequeue channel.
type Pool struct {
	size    int
	queue   Queue
	sweeper Sweeper
	workers []*InMemoryWorker
	logger  logger.Logger
}

// NewPool creates a pool of workerCount workers. Workers are created on
// Start.
func NewPool(workerCount int, q Queue, sweeper Sweeper, l logger.Logger) *Pool {
	if workerCount < 1 {
		workerCount = defaultWorkerCount
	}
	if l == nil {
		l = logger.Nop()
	}
	metrics.UpdateWorkerCount(workerCount)
	return &Pool{
		size:    workerCount,
		queue:   q,
		sweeper: sweeper,
		logger:  l.Named("worker-pool"),
	}
}

// Start launches every worker on a shared dequeue channel.
func (p *Pool) Start(ctx context.Context) {
	jobs := p.queue.Dequeue(ctx)
	active := &atomic.Int64{}
	p.workers = make([]*InMemoryWorker, p.size)
	for i := range p.workers {
		w := NewInMemoryWorker(jobs, p.sweeper, WithName("worker-"+strconv.Itoa(i)), WithLogger(p.logger))
		w.active = active
		p.workers[i] = w
		go w.Run(ctx)
	}
	p.logger.Info(ctx, "worker pool started", logger.Int("workers", p.size))
}

// Shutdown closes the queue when it can be closed and waits for workers to
// drain it.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	for i, w := range p.workers {
		select {
		case <-w.done:
		case <-shutdownCtx.Done():
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
			return fmt.Errorf("pool shutdown: %w", shutdownCtx.Err())
		}
	}
	return nil
}
