// Package sqlstore implements the record store on SQL databases through
// sqlx. SQLite is the default; PostgreSQL is supported with the same schema.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
	"github.com/okian/alsip/internal/adapters/repository"
	"github.com/okian/alsip/internal/domain/model"
	"github.com/okian/alsip/pkg/logger"
	"github.com/okian/alsip/pkg/metrics"
)

// Supported driver names.
const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
)

// pgUniqueViolation is the PostgreSQL SQLSTATE for a unique key conflict.
const pgUniqueViolation = "23505"

// Option applies a configuration option to the Store.
type Option func(*Store)

// WithLogger sets the store logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.log = l
		}
	}
}

// WithoutMigrations skips schema creation on Open.
func WithoutMigrations() Option {
	return func(s *Store) {
		s.migrate = false
	}
}

// Store is a repository.Store over a sqlx database handle.
type Store struct {
	records
	db      *sqlx.DB
	log     logger.Logger
	migrate bool
}

var _ repository.Store = (*Store)(nil)

// Open connects to the database, applies the schema and returns the store.
func Open(ctx context.Context, driver, dsn string, opts ...Option) (*Store, error) {
	switch driver {
	case DriverSQLite, DriverPostgres:
	default:
		return nil, fmt.Errorf("%w: unsupported driver %q", model.ErrPersistence, driver)
	}

	db, err := sqlx.ConnectContext(ctx, driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: connect %s: %v", model.ErrPersistence, driver, err)
	}
	s, err := New(ctx, db, opts...)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// New wraps an open handle. SQLite handles are limited to one connection so
// that ":memory:" databases are shared and writers are serialized.
func New(ctx context.Context, db *sqlx.DB, opts ...Option) (*Store, error) {
	s := &Store{
		db:      db,
		log:     logger.Nop(),
		migrate: true,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.records = records{ext: db}

	if db.DriverName() == DriverSQLite {
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
			return nil, fmt.Errorf("%w: enable foreign keys: %v", model.ErrPersistence, err)
		}
	}

	if s.migrate {
		if err := NewMigrator().Run(ctx, db); err != nil {
			return nil, err
		}
		s.log.Info(ctx, "schema ready", logger.String("driver", db.DriverName()))
	}
	return s, nil
}

// InTx runs fn inside a database transaction.
func (s *Store) InTx(ctx context.Context, fn func(tx repository.Records) error) (err error) {
	start := time.Now()
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fail("begin_tx", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		metrics.RecordStoreLatency("tx", float64(time.Since(start).Milliseconds()))
	}()

	if err = fn(records{ext: tx}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			s.log.Error(ctx, "rollback failed", logger.Error(rbErr))
		}
		return err
	}
	if err = tx.Commit(); err != nil {
		return fail("commit_tx", err)
	}
	return nil
}

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fail("ping", err)
	}
	return nil
}

// Close closes the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// fail classifies a driver error and records it.
func fail(op string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", op, model.ErrNotFound)
	}
	metrics.RecordPersistenceFailure(op)

	var pqErr *pq.Error
	if errors.As(err, &pqErr) && string(pqErr.Code) == pgUniqueViolation {
		return fmt.Errorf("%s: %w", op, repository.ErrDuplicate)
	}
	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) && liteErr.Code == sqlite3.ErrConstraint &&
		(liteErr.ExtendedCode == sqlite3.ErrConstraintUnique || liteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey) {
		return fmt.Errorf("%s: %w", op, repository.ErrDuplicate)
	}
	return fmt.Errorf("%s: %w: %v", op, model.ErrPersistence, err)
}
