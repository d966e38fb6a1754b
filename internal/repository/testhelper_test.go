package repository

import (
	"context"
	"os"
	"testing"
	"time"
)

// newTestPool connects to TEST_DATABASE_URL and applies the schema. Tests
// using it are skipped in -short mode or when the variable is unset.
func newTestPool(t *testing.T) *Pool {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	pool, err := NewPool(ctx, PoolConfig{
		ConnString:     dbURL,
		MaxConns:       4,
		AcquireTimeout: 5 * time.Second,
		ConnectTimeout: 5 * time.Second,
		ConnectRetries: 1,
	})
	if err != nil {
		t.Fatalf("failed to connect: %v", err)
	}
	t.Cleanup(pool.Close)

	schema, err := os.ReadFile("../../migrations/001_init.up.sql")
	if err != nil {
		t.Fatalf("read schema: %v", err)
	}
	if _, err := pool.Exec(ctx, string(schema)); err != nil {
		t.Fatalf("apply schema: %v", err)
	}
	return pool
}
