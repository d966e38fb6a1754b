package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PoolConfig configures NewPool.
type PoolConfig struct {
	ConnString       string
	MaxConns         int32
	MinConns         int32
	AcquireTimeout   time.Duration
	ConnectTimeout   time.Duration
	StatementTimeout time.Duration
	IdleTimeout      time.Duration

	// ConnectRetries is the number of startup connectivity attempts (default 3).
	// The wait before attempt n+1 is n*RetryDelay.
	ConnectRetries int
	RetryDelay     time.Duration

	Logger *slog.Logger
}

// Pool is the process-wide PostgreSQL connection pool. Every acquisition is
// bounded by the configured acquire timeout. It is safe for concurrent use.
type Pool struct {
	pool           *pgxpool.Pool
	acquireTimeout time.Duration
}

// Ensure Pool satisfies the interfaces the stores and health check depend on.
var (
	_ Querier = (*Pool)(nil)
	_ DB      = (*Pool)(nil)
)

// NewPool builds the pool and verifies connectivity, retrying up to
// cfg.ConnectRetries times. It fails if the store never answers.
func NewPool(ctx context.Context, cfg PoolConfig) (*Pool, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	retries := cfg.ConnectRetries
	if retries < 1 {
		retries = 3
	}

	pcfg, err := pgxpool.ParseConfig(cfg.ConnString)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	if cfg.MaxConns > 0 {
		pcfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		pcfg.MinConns = cfg.MinConns
	}
	if cfg.IdleTimeout > 0 {
		pcfg.MaxConnIdleTime = cfg.IdleTimeout
	}
	if cfg.ConnectTimeout > 0 {
		pcfg.ConnConfig.ConnectTimeout = cfg.ConnectTimeout
	}
	if cfg.StatementTimeout > 0 {
		pcfg.ConnConfig.RuntimeParams["statement_timeout"] = strconv.FormatInt(cfg.StatementTimeout.Milliseconds(), 10)
	}
	// Idle connections dropped by the server are discovered here; they are
	// logged and replaced rather than handed to a caller.
	pcfg.BeforeAcquire = func(_ context.Context, conn *pgx.Conn) bool {
		if conn.IsClosed() {
			logger.Warn("discarding closed database connection", "pid", conn.PgConn().PID())
			return false
		}
		return true
	}

	pool, err := pgxpool.NewWithConfig(ctx, pcfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	var lastErr error
	for attempt := 1; attempt <= retries; attempt++ {
		lastErr = ping(ctx, pool, cfg.ConnectTimeout)
		if lastErr == nil {
			logger.Info("database connected",
				"attempt", attempt,
				"max_conns", pcfg.MaxConns,
			)
			return &Pool{pool: pool, acquireTimeout: cfg.AcquireTimeout}, nil
		}
		logger.Warn("database connection attempt failed",
			"attempt", attempt,
			"retries", retries,
			"error", lastErr,
		)
		if attempt == retries {
			break
		}
		select {
		case <-time.After(time.Duration(attempt) * cfg.RetryDelay):
		case <-ctx.Done():
			pool.Close()
			return nil, ctx.Err()
		}
	}
	pool.Close()
	return nil, fmt.Errorf("connect to database after %d attempts: %w", retries, lastErr)
}

func ping(ctx context.Context, pool *pgxpool.Pool, timeout time.Duration) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	return pool.Ping(ctx)
}

// Ping acquires a connection and checks the server responds.
func (p *Pool) Ping(ctx context.Context) error {
	conn, err := p.acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()
	return conn.Ping(ctx)
}

// Close waits for acquired connections to be released and closes the pool.
func (p *Pool) Close() { p.pool.Close() }

// Stat returns a snapshot of pool usage.
func (p *Pool) Stat() *pgxpool.Stat { return p.pool.Stat() }

// ErrAcquireTimeout is returned when no connection became available within
// the configured acquire timeout.
var ErrAcquireTimeout = errors.New("timed out acquiring database connection")

func (p *Pool) acquire(ctx context.Context) (*pgxpool.Conn, error) {
	actx := ctx
	if p.acquireTimeout > 0 {
		var cancel context.CancelFunc
		actx, cancel = context.WithTimeout(ctx, p.acquireTimeout)
		defer cancel()
	}
	conn, err := p.pool.Acquire(actx)
	if err != nil {
		if ctx.Err() == nil && errors.Is(actx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w after %s: %v", ErrAcquireTimeout, p.acquireTimeout, err)
		}
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	return conn, nil
}

// Exec runs a statement with positional parameters.
func (p *Pool) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	conn, err := p.acquire(ctx)
	if err != nil {
		return pgconn.CommandTag{}, err
	}
	defer conn.Release()
	return conn.Exec(ctx, sql, args...)
}

// Query runs a query with positional parameters. The connection returns to
// the pool when the rows are closed or fully read.
func (p *Pool) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	conn, err := p.acquire(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := conn.Query(ctx, sql, args...)
	if err != nil {
		conn.Release()
		return nil, err
	}
	return &pooledRows{Rows: rows, conn: conn}, nil
}

// QueryRow runs a query expected to return at most one row. The connection
// returns to the pool when Scan is called.
func (p *Pool) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	conn, err := p.acquire(ctx)
	if err != nil {
		return errRow{err: err}
	}
	return &pooledRow{row: conn.QueryRow(ctx, sql, args...), conn: conn}
}

type pooledRows struct {
	pgx.Rows
	conn *pgxpool.Conn
	once sync.Once
}

func (r *pooledRows) release() { r.once.Do(r.conn.Release) }

func (r *pooledRows) Next() bool {
	if r.Rows.Next() {
		return true
	}
	r.release()
	return false
}

func (r *pooledRows) Close() {
	r.Rows.Close()
	r.release()
}

type pooledRow struct {
	row  pgx.Row
	conn *pgxpool.Conn
}

func (r *pooledRow) Scan(dest ...any) error {
	defer r.conn.Release()
	return r.row.Scan(dest...)
}

type errRow struct{ err error }

func (r errRow) Scan(...any) error { return r.err }
