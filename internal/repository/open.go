package repository

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/landing/backend/internal/config"
)

// Open resolves the connection string for cfg, fetching it from the Neon API
// when no DATABASE_URL is set, and builds the pool.
func Open(ctx context.Context, cfg config.DatabaseConfig, logger *slog.Logger) (*Pool, error) {
	connString, err := cfg.ResolveDatabaseURL(ctx, &http.Client{Timeout: 10 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("resolve database url: %w", err)
	}

	return NewPool(ctx, PoolConfig{
		ConnString:       connString,
		MaxConns:         cfg.MaxConns,
		MinConns:         cfg.MinConns,
		AcquireTimeout:   cfg.AcquireTimeout,
		ConnectTimeout:   cfg.ConnectTimeout,
		StatementTimeout: cfg.StatementTimeout,
		IdleTimeout:      cfg.IdleTimeout,
		ConnectRetries:   cfg.ConnectRetries,
		RetryDelay:       cfg.RetryDelay,
		Logger:           logger,
	})
}
