// Package listener provides a Postgres LISTEN/NOTIFY consumer for the
// self-hosted backend. It holds a dedicated pgx connection (not from the
// pool) listening on the `match_open` channel.
//
// A trigger on the matches table fires pg_notify when a row transitions to
// an open status, so self-hosted deployments get rated without any webhook
// round trip. Deliveries are best-effort; the processor's status guard
// makes redundant or stale events harmless.
package listener

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/albapepper/kicker-elo/internal/dedup"
	"github.com/albapepper/kicker-elo/internal/processor"
)

const (
	channel          = "match_open"
	reconnectBackoff = 5 * time.Second
	maxReconnect     = 30 * time.Second
)

// MatchEvent is the JSON payload from pg_notify('match_open', ...).
type MatchEvent struct {
	MatchID string `json:"match_id"`
}

// Start opens a dedicated connection and listens on the match_open channel.
// It reconnects automatically on connection loss. Blocks until ctx is
// cancelled. Intended to be called with `go`.
//
// Events share the dedup guard with the HTTP path, so a notification racing
// a webhook delivery for the same match does not start a second execution.
func Start(ctx context.Context, dbURL string, proc *processor.Processor, guard *dedup.Guard, logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	backoff := reconnectBackoff

	for {
		err := listenLoop(ctx, dbURL, proc, guard, logger)
		if ctx.Err() != nil {
			logger.Info("Match listener stopped (context cancelled)")
			return
		}

		logger.Error("Match listener disconnected, reconnecting...",
			"error", err, "backoff", backoff)

		select {
		case <-time.After(backoff):
			backoff = min(backoff*2, maxReconnect)
		case <-ctx.Done():
			return
		}
	}
}

// listenLoop runs a single listen session. Returns when the connection
// drops or the context is cancelled.
func listenLoop(ctx context.Context, dbURL string, proc *processor.Processor, guard *dedup.Guard, logger *slog.Logger) error {
	conn, err := pgx.Connect(ctx, dbURL)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer conn.Close(context.Background())

	_, err = conn.Exec(ctx, "LISTEN "+channel)
	if err != nil {
		return fmt.Errorf("LISTEN %s: %w", channel, err)
	}
	logger.Info("Match listener connected", "channel", channel)

	for {
		notification, err := conn.WaitForNotification(ctx)
		if err != nil {
			return fmt.Errorf("wait for notification: %w", err)
		}

		id, ok := claimEvent(notification.Payload, guard, logger)
		if !ok {
			continue
		}

		logger.Info("Match event received", "match_id", id)

		// Process asynchronously to avoid blocking the listener
		go func(id string) {
			completed := false
			defer func() { guard.Done(id, completed) }()
			if _, err := proc.Process(ctx, id); err != nil {
				logger.Error("Listener-triggered processing failed",
					"match_id", id, "error", err)
				return
			}
			completed = true
		}(id)
	}
}

// claimEvent parses a notification payload and claims the match id on the
// dedup guard. Returns ok=false for malformed payloads and for matches
// already in flight or completed inside the suppression window.
func claimEvent(payload string, guard *dedup.Guard, logger *slog.Logger) (string, bool) {
	var event MatchEvent
	if err := json.Unmarshal([]byte(payload), &event); err != nil {
		logger.Warn("Failed to parse match event", "payload", payload, "error", err)
		return "", false
	}
	if event.MatchID == "" {
		logger.Warn("Match event without match_id", "payload", payload)
		return "", false
	}
	if !guard.Begin(event.MatchID) {
		logger.Info("Duplicate match event ignored", "match_id", event.MatchID)
		return "", false
	}
	return event.MatchID, true
}
