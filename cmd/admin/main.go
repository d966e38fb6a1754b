// Command admin inspects and prunes waitlist subscribers and contact
// messages from the command line.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/landing/backend/internal/config"
	"github.com/landing/backend/internal/logging"
	"github.com/landing/backend/internal/repository"
	"github.com/landing/backend/internal/service"
)

func main() {
	_ = godotenv.Load()
	logger := logging.Setup(envOr("LOG_LEVEL", "WARN"))

	if len(os.Args) < 2 || os.Args[1] == "-h" || os.Args[1] == "--help" || os.Args[1] == "help" {
		printUsage(os.Stderr)
		os.Exit(2)
	}

	dbCfg, err := config.LoadDatabaseFromEnv()
	if err != nil {
		logging.Fatal("configuration error", "error", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := repository.Open(ctx, dbCfg, logger)
	if err != nil {
		logging.Fatal("failed to connect to database", "error", err)
	}
	defer pool.Close()

	a := &app{
		waitlist: service.NewWaitlistService(repository.NewPgSubscriberRepository(pool)),
		contact:  service.NewContactService(repository.NewPgContactRepository(pool)),
		out:      os.Stdout,
	}
	if err := a.run(ctx, os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "admin:", err)
		code := 1
		if errors.Is(err, errUsage) {
			printUsage(os.Stderr)
			code = 2
		}
		pool.Close()
		stop()
		os.Exit(code)
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
