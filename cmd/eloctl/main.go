// Command eloctl is the Kicker Elo operations CLI.
//
// Usage:
//
//	eloctl rate --id 1a2b3c4d
//	eloctl reconcile
//	eloctl reconcile --loop --interval 10
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/albapepper/kicker-elo/internal/config"
	"github.com/albapepper/kicker-elo/internal/notion"
	"github.com/albapepper/kicker-elo/internal/pgstore"
	"github.com/albapepper/kicker-elo/internal/processor"
	"github.com/albapepper/kicker-elo/internal/reconcile"
	"github.com/albapepper/kicker-elo/internal/record"
)

var logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

func main() {
	// Load .env if present
	_ = godotenv.Load(".env")

	root := &cobra.Command{
		Use:   "eloctl",
		Short: "Kicker Elo operations CLI",
	}

	root.AddCommand(rateCmd())
	root.AddCommand(reconcileCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// --------------------------------------------------------------------------
// rate command
// --------------------------------------------------------------------------

func rateCmd() *cobra.Command {
	var matchID string
	cmd := &cobra.Command{
		Use:   "rate",
		Short: "Rate a single match by record ID",
		RunE: func(cmd *cobra.Command, args []string) error {
			if matchID == "" {
				return fmt.Errorf("--id is required")
			}
			return run(func(ctx context.Context, cfg *config.Config, repo record.Repository) error {
				proc := processor.New(repo, record.NewStatusSet(cfg), logger)
				start := time.Now()
				out, err := proc.Process(ctx, matchID)
				if err != nil {
					return err
				}
				if out.NoOp {
					logger.Info("Match not open, nothing to do",
						"match_id", matchID, "status", out.Status,
						"duration", time.Since(start).Round(time.Millisecond))
					return nil
				}
				logger.Info("Match rated",
					"match_id", matchID, "k", out.K,
					"duration", time.Since(start).Round(time.Millisecond))
				return json.NewEncoder(os.Stdout).Encode(out)
			})
		},
	}
	cmd.Flags().StringVar(&matchID, "id", "", "Match record ID to rate")
	return cmd
}

// --------------------------------------------------------------------------
// reconcile command
// --------------------------------------------------------------------------

func reconcileCmd() *cobra.Command {
	var (
		loop     bool
		interval int
	)
	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Finish partially committed matches from their audit snapshots",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(func(ctx context.Context, cfg *config.Config, repo record.Repository) error {
				if loop {
					reconcile.Start(ctx, repo, time.Duration(interval)*time.Minute, logger)
					return nil
				}
				result, err := reconcile.Sweep(ctx, repo, logger)
				if err != nil {
					return err
				}
				logger.Info("Reconcile sweep finished", "summary", result.Summary())
				for i := range result.Results {
					logger.Info("Reconcile result", "detail", result.Results[i].Summary())
				}
				if result.Failed > 0 {
					return fmt.Errorf("%d matches failed to reconcile", result.Failed)
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&loop, "loop", false, "Run continuously instead of a single sweep")
	cmd.Flags().IntVar(&interval, "interval", 10, "Sweep interval in minutes (with --loop)")
	return cmd
}

// --------------------------------------------------------------------------
// Shared setup
// --------------------------------------------------------------------------

// run handles config loading, record store setup, and context cancellation.
func run(fn func(ctx context.Context, cfg *config.Config, repo record.Repository) error) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	statuses := record.NewStatusSet(cfg)

	var repo record.Repository
	switch cfg.StoreBackend {
	case config.BackendPostgres:
		store, err := pgstore.New(ctx, cfg, statuses, logger)
		if err != nil {
			return fmt.Errorf("connect to database: %w", err)
		}
		defer store.Close()
		repo = store
	case config.BackendNotion:
		client := notion.NewClient(cfg.NotionToken, cfg.NotionRequestsPerMinute, logger)
		repo = notion.NewRepository(client, cfg.MatchesDBID, cfg.Schema, statuses, logger)
	}

	return fn(ctx, cfg, repo)
}
