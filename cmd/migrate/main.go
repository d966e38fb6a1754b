package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/joho/godotenv"

	"github.com/landing/backend/internal/config"
	"github.com/landing/backend/internal/logging"
	"github.com/landing/backend/internal/repository"
)

const dropAllFile = "000_drop_all.sql"

func usage() {
	fmt.Fprintln(os.Stderr, `Usage: migrate [command]

Commands:
  (default)   apply pending migrations
  reset       drop every table, then apply all migrations
  status      list migrations and whether they are applied`)
	os.Exit(1)
}

func main() {
	_ = godotenv.Load()
	_ = godotenv.Load("../.env")
	logger := logging.Setup(os.Getenv("LOG_LEVEL"))

	dbCfg, err := config.LoadDatabaseFromEnv()
	if err != nil {
		logging.Fatal("configuration error", "error", err)
	}

	ctx := context.Background()
	pool, err := repository.Open(ctx, dbCfg, logger)
	if err != nil {
		logging.Fatal("connect failed", "error", err)
	}
	defer pool.Close()

	dir := findMigrationDir()

	cmd := ""
	if len(os.Args) > 1 {
		cmd = os.Args[1]
	}

	switch cmd {
	case "":
		err = runPending(ctx, pool, dir)
	case "reset":
		if err = runDropAll(ctx, pool, dir); err == nil {
			err = runPending(ctx, pool, dir)
		}
	case "status":
		err = printStatus(ctx, pool, dir)
	default:
		usage()
	}
	if err != nil {
		pool.Close()
		logging.Fatal("migrate failed", "command", cmd, "error", err)
	}
}

func findMigrationDir() string {
	dir := "migrations"
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		dir = "../migrations"
	}
	return dir
}

// collectUpFiles returns the .up.sql migration names in dir, sorted.
func collectUpFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read migrations dir: %w", err)
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".up.sql") {
			names = append(names, strings.TrimSuffix(e.Name(), ".up.sql"))
		}
	}
	sort.Strings(names)
	return names, nil
}

func ensureSchemaMigrations(ctx context.Context, db repository.Querier) error {
	_, err := db.Exec(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		name TEXT PRIMARY KEY,
		applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`)
	return err
}

func isApplied(ctx context.Context, db repository.Querier, name string) (bool, error) {
	var exists bool
	err := db.QueryRow(ctx, "SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE name=$1)", name).Scan(&exists)
	return exists, err
}

// runPending applies every migration not yet recorded in schema_migrations.
func runPending(ctx context.Context, db repository.Querier, dir string) error {
	if err := ensureSchemaMigrations(ctx, db); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}
	names, err := collectUpFiles(dir)
	if err != nil {
		return err
	}

	applied := 0
	for _, name := range names {
		done, err := isApplied(ctx, db, name)
		if err != nil {
			return fmt.Errorf("check %s: %w", name, err)
		}
		if done {
			continue
		}

		sql, err := os.ReadFile(filepath.Join(dir, name+".up.sql"))
		if err != nil {
			return fmt.Errorf("read %s: %w", name, err)
		}
		if _, err := db.Exec(ctx, string(sql)); err != nil {
			return fmt.Errorf("apply %s: %w", name, err)
		}
		if _, err := db.Exec(ctx, "INSERT INTO schema_migrations (name) VALUES ($1)", name); err != nil {
			return fmt.Errorf("record %s: %w", name, err)
		}
		applied++
		slog.Info("migration applied", "migration", name)
	}

	if applied == 0 {
		slog.Info("all migrations already applied")
	} else {
		slog.Info("migrations completed", "count", applied)
	}
	return nil
}

func runDropAll(ctx context.Context, db repository.Querier, dir string) error {
	slog.Info("dropping all tables")
	sql, err := os.ReadFile(filepath.Join(dir, dropAllFile))
	if err != nil {
		return fmt.Errorf("read %s: %w", dropAllFile, err)
	}
	if _, err := db.Exec(ctx, string(sql)); err != nil {
		return fmt.Errorf("drop all: %w", err)
	}
	slog.Info("all tables dropped")
	return nil
}

func printStatus(ctx context.Context, db repository.Querier, dir string) error {
	if err := ensureSchemaMigrations(ctx, db); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}
	names, err := collectUpFiles(dir)
	if err != nil {
		return err
	}
	for _, name := range names {
		done, err := isApplied(ctx, db, name)
		if err != nil {
			return fmt.Errorf("check %s: %w", name, err)
		}
		state := "pending"
		if done {
			state = "applied"
		}
		fmt.Printf("%-40s %s\n", name, state)
	}
	return nil
}
