// Command api is the Kicker Elo webhook server.
//
// Usage:
//
//	kicker-elo-api
//	API_PORT=8080 kicker-elo-api

// @title Kicker Elo Service
// @version 1.0.0
// @description Webhook-triggered Elo rating updates for two-player league matches stored in Notion or Postgres.
// @host localhost:8000
// @BasePath /api/v1
// @schemes http https
// @contact.name Scoracle
// @license.name MIT
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"

	"github.com/albapepper/kicker-elo/internal/api"
	"github.com/albapepper/kicker-elo/internal/api/handler"
	"github.com/albapepper/kicker-elo/internal/config"
	"github.com/albapepper/kicker-elo/internal/dedup"
	"github.com/albapepper/kicker-elo/internal/listener"
	"github.com/albapepper/kicker-elo/internal/notion"
	"github.com/albapepper/kicker-elo/internal/pgstore"
	"github.com/albapepper/kicker-elo/internal/processor"
	"github.com/albapepper/kicker-elo/internal/reconcile"
	"github.com/albapepper/kicker-elo/internal/record"

	_ "github.com/albapepper/kicker-elo/docs" // swagger docs
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	// Load .env if present
	_ = godotenv.Load(".env")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Context with signal handling
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	statuses := record.NewStatusSet(cfg)

	// Connect to the record store
	var (
		repo   record.Repository
		health *pgstore.Store
	)
	switch cfg.StoreBackend {
	case config.BackendPostgres:
		logger.Info("Connecting to database...")
		store, err := pgstore.New(ctx, cfg, statuses, logger)
		if err != nil {
			logger.Error("Failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer store.Close()
		logger.Info("Database connected",
			"min_conns", cfg.DBPoolMinConns,
			"max_conns", cfg.DBPoolMaxConns)
		repo = store
		health = store
	case config.BackendNotion:
		client := notion.NewClient(cfg.NotionToken, cfg.NotionRequestsPerMinute, logger)
		repo = notion.NewRepository(client, cfg.MatchesDBID, cfg.Schema, statuses, logger)
		logger.Info("Notion record store configured",
			"matches_db", cfg.MatchesDBID,
			"requests_per_minute", cfg.NotionRequestsPerMinute)
	}

	proc := processor.New(repo, statuses, logger)
	guard := dedup.New(cfg.DedupTTL)
	logger.Info("Duplicate suppression initialized", "ttl", cfg.DedupTTL)

	// Start the partial-commit reconcile sweep (if enabled)
	if cfg.ReconcileInterval > 0 {
		go reconcile.Start(ctx, repo, cfg.ReconcileInterval, logger)
	}

	// Start LISTEN/NOTIFY consumer for match-open events (postgres only)
	if cfg.StoreBackend == config.BackendPostgres && cfg.ListenEnabled {
		go listener.Start(ctx, cfg.DatabaseURL, proc, guard, logger)
	}

	// Create router
	h := handler.New(proc, guard, cfg, healthChecker(health))
	router := api.NewRouter(h, cfg)

	// Create HTTP server
	addr := fmt.Sprintf("%s:%d", cfg.APIHost, cfg.APIPort)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in background
	go func() {
		logger.Info("Starting Kicker Elo Service",
			"addr", addr,
			"backend", cfg.StoreBackend,
			"environment", cfg.Environment,
			"docs", fmt.Sprintf("http://localhost:%d/docs/", cfg.APIPort))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt
	<-ctx.Done()
	logger.Info("Shutting down...")

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Shutdown error", "error", err)
	}
	logger.Info("Server stopped")
}

// healthChecker converts a possibly-nil *pgstore.Store into the handler's
// interface without smuggling a typed nil into it.
func healthChecker(store *pgstore.Store) interface {
	HealthCheck(ctx context.Context) error
} {
	if store == nil {
		return nil
	}
	return store
}
