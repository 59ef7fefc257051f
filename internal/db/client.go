// Copyright 2025 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/exaring/otelpgx"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"

	"github.com/canonical/elevation-service/internal/logging"
	"github.com/canonical/elevation-service/internal/monitoring"
	"github.com/canonical/elevation-service/internal/tracing"
)

type Config struct {
	DSN             string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
	TracingEnabled  bool
}

type DBClient struct {
	// pool is the native PGX pool we hold to allow closing
	pool *pgxpool.Pool
	// db original instance to handle transactions
	db *sql.DB
	// dbRunner is the runner instance of choice
	dbRunner sq.BaseRunner

	tracer  tracing.TracingInterface
	monitor monitoring.MonitorInterface
	logger  logging.LoggerInterface
}

// Statement provides a StatementBuilderType bound to the client's pool, or
// to the transaction attached to the context if one exists (created lazily
// on first use). When the transaction cannot be started, the statement is
// bound to a runner that fails every execution with that error; a
// transactional caller never silently runs against the pool.
func (d *DBClient) Statement(ctx context.Context) sq.StatementBuilderType {
	if lt := lazyTxFromContext(ctx); lt != nil {
		tx, err := lt.get()
		if err != nil {
			return sq.StatementBuilder.
				PlaceholderFormat(sq.Dollar).
				RunWith(&failingRunner{err: fmt.Errorf("failed to start transaction: %w", err)})
		}
		return sq.StatementBuilder.
			PlaceholderFormat(sq.Dollar).
			RunWith(tx)
	}

	return sq.StatementBuilder.
		PlaceholderFormat(sq.Dollar).
		RunWith(d.dbRunner)
}

// failingRunner satisfies the squirrel runner interfaces and returns the
// same error on every call.
type failingRunner struct {
	err error
}

func (r *failingRunner) Exec(query string, args ...interface{}) (sql.Result, error) {
	return nil, r.err
}

func (r *failingRunner) Query(query string, args ...interface{}) (*sql.Rows, error) {
	return nil, r.err
}

func (r *failingRunner) QueryRow(query string, args ...interface{}) sq.RowScanner {
	return failingRow{err: r.err}
}

func (r *failingRunner) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	return nil, r.err
}

func (r *failingRunner) QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	return nil, r.err
}

func (r *failingRunner) QueryRowContext(ctx context.Context, query string, args ...interface{}) sq.RowScanner {
	return failingRow{err: r.err}
}

type failingRow struct {
	err error
}

func (r failingRow) Scan(dest ...interface{}) error {
	return r.err
}

// Exec runs a raw statement, on the context's transaction when present.
// It exists for statements squirrel cannot build, such as SET LOCAL.
func (d *DBClient) Exec(ctx context.Context, query string, args ...interface{}) error {
	if lt := lazyTxFromContext(ctx); lt != nil {
		tx, err := lt.get()
		if err != nil {
			return err
		}
		_, err = tx.Exec(query, args...)
		return err
	}

	_, err := d.db.ExecContext(ctx, query, args...)
	return err
}

func (d *DBClient) Close() {
	if d.db != nil {
		_ = d.db.Close()
	}

	if d.pool != nil {
		d.pool.Close()
	}
}

// NewDBClient creates a new DBClient instance with the provided DSN and configuration options.
func NewDBClient(cfg Config, tracer tracing.TracingInterface, monitor monitoring.MonitorInterface, logger logging.LoggerInterface) (*DBClient, error) {
	config, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		logger.Fatalf("DSN validation failed, shutting down, err: %v", err)
	}

	if cfg.TracingEnabled {
		// otelpgx.NewTracer will use default global TracerProvider, just like our tracer struct
		config.ConnConfig.Tracer = otelpgx.NewTracer()
	}

	config.MaxConns = cfg.MaxConns
	config.MinConns = cfg.MinConns
	config.MaxConnLifetime = cfg.MaxConnLifetime
	config.MaxConnLifetimeJitter = cfg.MaxConnLifetime / 10 // Add 10% jitter to avoid thundering herd
	config.MaxConnIdleTime = cfg.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(context.Background(), config)
	if err != nil {
		return nil, fmt.Errorf("failed to create db pool: %v", err)
	}

	if cfg.TracingEnabled {
		// when tracing is enabled, also collect metrics
		if err := otelpgx.RecordStats(pool); err != nil {
			return nil, fmt.Errorf("failed to start metrics collection for database: %v", err)
		}
	}

	db := stdlib.OpenDBFromPool(pool)
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to the database: %v", err)
	}

	d := new(DBClient)
	d.pool = pool
	d.db = db
	d.dbRunner = db

	d.tracer = tracer
	d.monitor = monitor
	d.logger = logger

	return d, nil
}
