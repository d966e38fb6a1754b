package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/landing/backend/internal/config"
	"github.com/landing/backend/internal/handler"
	"github.com/landing/backend/internal/logging"
	"github.com/landing/backend/internal/metrics"
	"github.com/landing/backend/internal/repository"
	"github.com/landing/backend/internal/service"
)

const shutdownTimeout = 10 * time.Second

func main() {
	_ = godotenv.Load()

	cfg, err := config.LoadFromEnv()
	if err != nil {
		logging.Setup("INFO")
		logging.Fatal("configuration error", "error", err)
	}
	logger := logging.Setup(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := repository.Open(ctx, cfg.Database, logger)
	if err != nil {
		logging.Fatal("failed to connect to database", "error", err)
	}

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	m.RegisterPool(pool)

	subscriberRepo := repository.NewPgSubscriberRepository(pool)
	contactRepo := repository.NewPgContactRepository(pool)

	srv := handler.NewServer(handler.Options{
		AllowedOrigin:    cfg.AllowedOrigin,
		ExposeErrorTrace: !cfg.IsProduction(),
		RateLimit:        cfg.RateLimit,
		DB:               pool,
		Waitlist:         service.NewWaitlistService(subscriberRepo),
		Contact:          service.NewContactService(contactRepo),
		Metrics:          m,
	})

	server := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           srv,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	var metricsServer *http.Server
	if cfg.MetricsAddr != "" {
		metricsServer = &http.Server{
			Addr:              cfg.MetricsAddr,
			Handler:           m.Handler(),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			slog.Info("metrics listening", "addr", metricsServer.Addr)
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("metrics server error", "error", err)
			}
		}()
	}

	go func() {
		slog.Info("server listening",
			"addr", server.Addr,
			"env", cfg.Env,
			"stages", srv.StageNames(),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Fatal("server error", "error", err)
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "error", err)
	}
	if metricsServer != nil {
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			slog.Warn("metrics shutdown error", "error", err)
		}
	}
	srv.Close()
	pool.Close()
	slog.Info("shutdown complete")
}
