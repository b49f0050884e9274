// Package database owns the PostgreSQL connection pool and transaction scoping.
//
// Transactions travel in the context: WithTx and WithSnapshot hand fn a ctx
// carrying the *sql.Tx, and Querier(ctx) resolves to that tx (or the pool when
// there is none), so repositories never take a tx parameter. Nested calls join
// the outer transaction.
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" database/sql driver

	"github.com/ghuser/circulationledger/pkg/logger"
)

// ErrTransaction marks failures of the transaction machinery itself (begin,
// session setup, commit), as opposed to errors returned by fn.
var ErrTransaction = errors.New("database: transaction failed")

// Querier is the subset of *sql.DB and *sql.Tx repositories use.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Database wraps a *sql.DB opened with the pgx stdlib driver.
type Database struct {
	db          *sql.DB
	log         logger.Logger
	lockTimeout time.Duration
}

type options struct {
	maxOpenConns int
	lockTimeout  time.Duration
}

// Option configures NewPool and New.
type Option func(*options)

// WithMaxOpenConns caps the pool size.
func WithMaxOpenConns(n int) Option {
	return func(o *options) { o.maxOpenConns = n }
}

// WithLockTimeout bounds how long a write transaction waits for a row lock.
// Zero waits indefinitely.
func WithLockTimeout(d time.Duration) Option {
	return func(o *options) { o.lockTimeout = d }
}

// NewPool opens and pings a pool for url.
func NewPool(ctx context.Context, url string, log logger.Logger, opts ...Option) (*Database, error) {
	db, err := sql.Open("pgx", url)
	if err != nil {
		return nil, fmt.Errorf("database: open: %w", err)
	}

	d := New(db, log, opts...)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := d.Ping(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return d, nil
}

// New wraps an already opened *sql.DB.
func New(db *sql.DB, log logger.Logger, opts ...Option) *Database {
	o := options{maxOpenConns: 25, lockTimeout: 5 * time.Second}
	for _, opt := range opts {
		opt(&o)
	}

	if o.maxOpenConns > 0 {
		db.SetMaxOpenConns(o.maxOpenConns)
		db.SetMaxIdleConns(max(o.maxOpenConns/2, 1))
	}
	db.SetConnMaxLifetime(30 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)

	return &Database{db: db, log: log, lockTimeout: o.lockTimeout}
}

// DB returns the underlying pool.
func (d *Database) DB() *sql.DB {
	return d.db
}

// Ping checks the database connection health.
func (d *Database) Ping(ctx context.Context) error {
	if err := d.db.PingContext(ctx); err != nil {
		return fmt.Errorf("database: ping: %w", err)
	}
	return nil
}

// Close closes the pool.
func (d *Database) Close() error {
	return d.db.Close()
}

type txKey struct{}

type txState struct {
	tx       *sql.Tx
	readOnly bool
}

// TxFromContext returns the transaction carried by ctx, if any.
func TxFromContext(ctx context.Context) (*sql.Tx, bool) {
	st, ok := ctx.Value(txKey{}).(*txState)
	if !ok {
		return nil, false
	}
	return st.tx, true
}

// Querier returns the transaction in ctx, or the pool.
func (d *Database) Querier(ctx context.Context) Querier {
	if tx, ok := TxFromContext(ctx); ok {
		return tx
	}
	return d.db
}

// WithTx runs fn in a READ COMMITTED transaction. Row locks taken with
// SELECT ... FOR UPDATE are released at commit or rollback.
func (d *Database) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return d.run(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted}, fn)
}

// WithSnapshot runs fn in a REPEATABLE READ, READ ONLY transaction: every
// statement in fn sees the same committed state.
func (d *Database) WithSnapshot(ctx context.Context, fn func(ctx context.Context) error) error {
	return d.run(ctx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true}, fn)
}

func (d *Database) run(ctx context.Context, opts *sql.TxOptions, fn func(ctx context.Context) error) (err error) {
	if st, ok := ctx.Value(txKey{}).(*txState); ok {
		if st.readOnly && !opts.ReadOnly {
			return fmt.Errorf("%w: write transaction inside read-only snapshot", ErrTransaction)
		}
		return fn(ctx)
	}

	tx, err := d.db.BeginTx(ctx, opts)
	if err != nil {
		return fmt.Errorf("%w: begin: %w", ErrTransaction, err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if !opts.ReadOnly && d.lockTimeout > 0 {
		timeout := fmt.Sprintf("%dms", d.lockTimeout.Milliseconds())
		if _, err := tx.ExecContext(ctx, "SELECT set_config('lock_timeout', $1, true)", timeout); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("%w: set lock_timeout: %w", ErrTransaction, err)
		}
	}

	if err := fn(context.WithValue(ctx, txKey{}, &txState{tx: tx, readOnly: opts.ReadOnly})); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			d.log.WarnContext(ctx, "database: rollback failed", "error", rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit: %w", ErrTransaction, err)
	}
	return nil
}
