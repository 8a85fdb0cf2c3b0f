package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/okian/alsip/internal/adapters/ai"
	"github.com/okian/alsip/internal/adapters/http/api"
	"github.com/okian/alsip/internal/adapters/repository"
	"github.com/okian/alsip/internal/adapters/repository/memstore"
	"github.com/okian/alsip/internal/adapters/repository/sqlstore"
	service "github.com/okian/alsip/internal/app"
	"github.com/okian/alsip/internal/config"
	"github.com/okian/alsip/internal/domain/plan"
	"github.com/okian/alsip/internal/domain/progress"
	"github.com/okian/alsip/internal/domain/reflection"
	"github.com/okian/alsip/internal/domain/streak"
	"github.com/okian/alsip/internal/domain/suggest"
	"github.com/okian/alsip/pkg/logger"
)

// HTTP server timeout constants.
const (
	readTimeout       = 10 * time.Second
	writeTimeout      = 30 * time.Second
	idleTimeout       = 60 * time.Second
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 30 * time.Second
)

func main() {
	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		// The logger may not be initialised yet.
		os.Stderr.WriteString("alsip: " + err.Error() + "\n")
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if err := logger.Init(logger.WithFormat(cfg.LogFormat)); err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	log := logger.Get()
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	store, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Error(ctx, "store close failed", logger.Error(err))
		}
	}()

	svc, err := buildService(cfg, store, log)
	if err != nil {
		return err
	}
	if err := svc.Start(ctx); err != nil {
		return fmt.Errorf("start service: %w", err)
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           api.NewServer(svc, api.WithLogger(log)).Handler(),
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr), logger.String("store", cfg.DBDriver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
		log.Info(ctx, "shutting down server...")
	case err := <-serveErr:
		if err != nil {
			log.Error(ctx, "HTTP server failed", logger.Error(err))
		}
	}

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}
	if err := svc.Stop(shutdownCtx); err != nil {
		log.Error(ctx, "service shutdown failed", logger.Error(err))
	}

	log.Info(ctx, "server stopped")
	return nil
}

// openStore selects the record store named by db_driver.
func openStore(ctx context.Context, cfg *config.Config, log logger.Logger) (repository.Store, error) {
	if cfg.DBDriver == config.DriverMemory {
		log.Warn(ctx, "using in-memory store; data is lost on exit")
		return memstore.New(), nil
	}
	store, err := sqlstore.Open(ctx, cfg.DBDriver, cfg.DBDSN, sqlstore.WithLogger(log))
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	return store, nil
}

// buildService wires the domain trackers from configuration.
func buildService(cfg *config.Config, store repository.Store, log logger.Logger) (*service.Service, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	var suggester suggest.Suggester
	if cfg.OpenAIAPIKey != "" {
		suggester = ai.NewClient(cfg.OpenAIAPIKey,
			ai.WithBaseURL(cfg.OpenAIBaseURL),
			ai.WithModel(cfg.OpenAIModel),
			ai.WithTimeout(cfg.SuggestionTimeout()),
			ai.WithLogger(log),
		)
	}
	suggestions := suggest.NewService(suggester,
		suggest.WithTables(cfg.SuggestionTables()),
		suggest.WithMaxSuggestions(cfg.MaxSuggestions),
	)

	tracker := progress.NewTracker(progress.WithCheckInDays(cfg.ConfidenceCheckInDays))

	return service.New(store,
		service.WithLogger(log),
		service.WithLocation(loc),
		service.WithWorkerCount(cfg.WorkerCount),
		service.WithQueueSize(cfg.QueueSize),
		service.WithDedupeSize(cfg.IdempotencyCacheSize),
		service.WithSweep(cfg.SweepEnabled, cfg.SweepCron),
		service.WithProgressTracker(tracker),
		service.WithStreakTracker(streak.NewTracker(streak.WithRecoveryGapDays(cfg.RecoveryGapDays))),
		service.WithRecorder(reflection.NewRecorder(reflection.WithMaxNoteLength(cfg.MaxNoteLength))),
		service.WithPlanner(plan.NewPlanner(tracker,
			plan.WithSize(cfg.PlanSize),
			plan.WithRecoverySize(cfg.RecoveryPlanSize),
		)),
		service.WithSuggestions(suggestions),
	), nil
}
