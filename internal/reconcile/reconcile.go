// Package reconcile repairs matches left inconsistent by partial commits.
//
// The write saga stages the audit snapshot on the match before any rating
// write, so a match that still reads open but already carries post-rating
// audit fields was interrupted mid-commit. The sweep finishes such matches
// from the stored snapshot: re-apply both posterior ratings (idempotent,
// the values are the ones a completed commit would have written) and issue
// the conditional terminal write.
package reconcile

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/albapepper/kicker-elo/internal/record"
)

const defaultMaxMatches = 50

// --------------------------------------------------------------------------
// Types
// --------------------------------------------------------------------------

// Result tracks the outcome of repairing a single match.
type Result struct {
	MatchID  string
	Repaired bool
	Skipped  bool
	Error    string
	Duration time.Duration
}

// Summary returns a human-readable summary.
func (r *Result) Summary() string {
	status := "repaired"
	switch {
	case r.Skipped:
		status = "skipped"
	case r.Error != "":
		status = "FAILED"
	}
	return fmt.Sprintf("match=%s status=%s dur=%s", r.MatchID, status, r.Duration.Round(time.Millisecond))
}

// SweepResult tracks the outcome of a full sweep run.
type SweepResult struct {
	Found    int
	Repaired int
	Skipped  int
	Failed   int
	Duration time.Duration
	Errors   []string
	Results  []Result
}

// Summary returns a human-readable summary.
func (r *SweepResult) Summary() string {
	return fmt.Sprintf("found=%d repaired=%d skipped=%d failed=%d dur=%s",
		r.Found, r.Repaired, r.Skipped, r.Failed, r.Duration.Round(time.Millisecond))
}

// --------------------------------------------------------------------------
// Sweep
// --------------------------------------------------------------------------

// Sweep runs one reconcile pass over at most defaultMaxMatches matches.
func Sweep(ctx context.Context, repo record.Repository, logger *slog.Logger) (*SweepResult, error) {
	if logger == nil {
		logger = slog.Default()
	}
	start := time.Now()

	matches, err := repo.OpenMatchesWithAudit(ctx, defaultMaxMatches)
	if err != nil {
		return nil, fmt.Errorf("list partial commits: %w", err)
	}

	result := &SweepResult{Found: len(matches)}
	for i := range matches {
		r := repairMatch(ctx, repo, &matches[i], logger)
		result.Results = append(result.Results, r)
		switch {
		case r.Repaired:
			result.Repaired++
		case r.Skipped:
			result.Skipped++
		default:
			result.Failed++
			result.Errors = append(result.Errors, r.Error)
		}
	}

	result.Duration = time.Since(start)
	return result, nil
}

// repairMatch finishes the commit for one partially committed match.
func repairMatch(ctx context.Context, repo record.Repository, m *record.Match, logger *slog.Logger) Result {
	start := time.Now()
	result := Result{MatchID: m.ID}

	fail := func(err error) Result {
		result.Error = err.Error()
		result.Duration = time.Since(start)
		logger.Error("Reconcile repair failed", "match_id", m.ID, "error", err)
		return result
	}

	// An incomplete snapshot or an ambiguous player link cannot be repaired
	// mechanically; leave the match for an operator.
	if m.EloAAfter == nil || m.EloBAfter == nil || m.EloABefore == nil || m.EloBBefore == nil || m.K == nil {
		result.Skipped = true
		result.Duration = time.Since(start)
		logger.Warn("Reconcile skipped match with incomplete audit snapshot", "match_id", m.ID)
		return result
	}
	if len(m.PlayerAIDs) != 1 || len(m.PlayerBIDs) != 1 {
		result.Skipped = true
		result.Duration = time.Since(start)
		logger.Warn("Reconcile skipped match with ambiguous player links", "match_id", m.ID)
		return result
	}

	if err := repo.UpdatePlayerRating(ctx, m.PlayerAIDs[0], *m.EloAAfter); err != nil {
		return fail(fmt.Errorf("re-apply rating for player A: %w", err))
	}
	if err := repo.UpdatePlayerRating(ctx, m.PlayerBIDs[0], *m.EloBAfter); err != nil {
		return fail(fmt.Errorf("re-apply rating for player B: %w", err))
	}

	audit := record.Audit{
		EloABefore: *m.EloABefore,
		EloBBefore: *m.EloBBefore,
		EloAAfter:  *m.EloAAfter,
		EloBAfter:  *m.EloBAfter,
		K:          *m.K,
	}
	applied, err := repo.CompleteMatch(ctx, m.ID, audit)
	if err != nil {
		return fail(fmt.Errorf("terminal write: %w", err))
	}
	if !applied {
		// Rated between the sweep query and the repair. Nothing to do.
		result.Skipped = true
		result.Duration = time.Since(start)
		return result
	}

	result.Repaired = true
	result.Duration = time.Since(start)
	logger.Info("Reconciled partial commit", "match_id", m.ID,
		"elo_a", *m.EloAAfter, "elo_b", *m.EloBAfter)
	return result
}

// --------------------------------------------------------------------------
// Ticker
// --------------------------------------------------------------------------

// Start runs Sweep on a fixed interval. Blocks until ctx is cancelled.
// Intended to be called with `go`.
func Start(ctx context.Context, repo record.Repository, interval time.Duration, logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("Reconcile sweep started", "interval", interval)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("Reconcile sweep stopped")
			return
		case <-ticker.C:
			result, err := Sweep(ctx, repo, logger)
			if err != nil {
				logger.Error("Reconcile sweep failed", "error", err)
				continue
			}
			if result.Found > 0 {
				logger.Info("Reconcile sweep finished", "summary", result.Summary())
			}
		}
	}
}
