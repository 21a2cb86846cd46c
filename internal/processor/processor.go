// Package processor orchestrates rating a single match: guard the status,
// load both players, run the Elo update, and commit the three record
// writes.
//
// The store has no cross-record transaction, so the writes run as a saga:
// the audit snapshot is staged on the match first, then both player ratings
// in parallel (they touch disjoint records), then the terminal status as
// the commit point. The terminal write is conditional on the match still
// being open; the status field is the single source of truth for "already
// rated".
package processor

import (
	"context"
	"log/slog"
	"sync"

	"github.com/albapepper/kicker-elo/internal/elo"
	"github.com/albapepper/kicker-elo/internal/record"
)

// PlayerResult reports one player's rating change.
type PlayerResult struct {
	ID  string `json:"id"`
	Old int    `json:"old"`
	New int    `json:"new"`
}

// Outcome is the result of processing one match.
type Outcome struct {
	MatchID string
	// NoOp is true when the match was not eligible (already rated, not yet
	// open, or rated concurrently by another delivery). Benign, never an
	// error.
	NoOp bool
	// Status is the resolved canonical status when NoOp is true.
	Status record.Status
	K      int
	A      PlayerResult
	B      PlayerResult
}

// Processor applies match results to player ratings, exactly once per match.
type Processor struct {
	repo     record.Repository
	statuses record.StatusSet
	logger   *slog.Logger
}

// New creates a Processor. A nil logger falls back to slog.Default().
func New(repo record.Repository, statuses record.StatusSet, logger *slog.Logger) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{repo: repo, statuses: statuses, logger: logger}
}

// Process rates the match with the given id.
//
// Validation failures surface before any write is attempted. Write-phase
// failures are never swallowed: if only a subset of the three writes
// landed, the error is a *record.PartialCommitError so the response and
// logs distinguish an inconsistent store from a total failure.
func (p *Processor) Process(ctx context.Context, matchID string) (*Outcome, error) {
	match, err := p.repo.GetMatch(ctx, matchID)
	if err != nil {
		return nil, &record.UpstreamError{Op: "get match " + matchID, Err: err}
	}

	// Idempotency gate: only open matches are rated. Anything else is a
	// benign no-op, including statuses outside the known vocabulary.
	eligible, status := p.statuses.Eligible(match.StatusName)
	if !eligible {
		p.logger.Info("Match not open, nothing to do",
			"match_id", matchID, "status", match.StatusName, "resolved", status.String())
		return &Outcome{MatchID: matchID, NoOp: true, Status: status}, nil
	}

	if len(match.PlayerAIDs) != 1 || len(match.PlayerBIDs) != 1 {
		return nil, record.Validationf("player relations must link exactly one player per side (A=%d, B=%d)",
			len(match.PlayerAIDs), len(match.PlayerBIDs))
	}
	if match.GoalsA == nil || match.GoalsB == nil {
		return nil, record.Validationf("goal counts must be numbers")
	}

	playerA, playerB, err := p.fetchPlayers(ctx, match.PlayerAIDs[0], match.PlayerBIDs[0])
	if err != nil {
		return nil, err
	}

	oldA := ratingOrDefault(playerA)
	oldB := ratingOrDefault(playerB)
	k := elo.DefaultK
	if match.K != nil {
		k = *match.K
	}

	newA, newB := elo.Update(oldA, oldB, *match.GoalsA, *match.GoalsB, k)

	audit := record.Audit{
		EloABefore: oldA,
		EloBBefore: oldB,
		EloAAfter:  newA,
		EloBAfter:  newB,
		K:          k,
	}

	applied, err := p.commit(ctx, match.ID, playerA.ID, playerB.ID, newA, newB, audit)
	if err != nil {
		return nil, err
	}
	if !applied {
		// Another delivery won the terminal write between our status read
		// and our commit. Its player writes carry the same computed values,
		// so nothing needs repair.
		p.logger.Info("Match rated concurrently, skipping",
			"match_id", matchID)
		return &Outcome{MatchID: matchID, NoOp: true, Status: record.StatusRated}, nil
	}

	p.logger.Info("Match rated",
		"match_id", matchID, "k", k,
		"player_a", playerA.ID, "elo_a_old", oldA, "elo_a_new", newA,
		"player_b", playerB.ID, "elo_b_old", oldB, "elo_b_new", newB)

	return &Outcome{
		MatchID: matchID,
		Status:  record.StatusRated,
		K:       k,
		A:       PlayerResult{ID: playerA.ID, Old: oldA, New: newA},
		B:       PlayerResult{ID: playerB.ID, Old: oldB, New: newB},
	}, nil
}

// fetchPlayers loads both player records in parallel. The reads are
// independent; either failure aborts processing before any write.
func (p *Processor) fetchPlayers(ctx context.Context, idA, idB string) (*record.Player, *record.Player, error) {
	var (
		wg         sync.WaitGroup
		playerA    *record.Player
		playerB    *record.Player
		errA, errB error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		playerA, errA = p.repo.GetPlayer(ctx, idA)
	}()
	go func() {
		defer wg.Done()
		playerB, errB = p.repo.GetPlayer(ctx, idB)
	}()
	wg.Wait()

	if errA != nil {
		return nil, nil, &record.UpstreamError{Op: "get player " + idA, Err: errA}
	}
	if errB != nil {
		return nil, nil, &record.UpstreamError{Op: "get player " + idB, Err: errB}
	}
	return playerA, playerB, nil
}

// commit runs the write saga: stage the audit snapshot on the match, write
// both player ratings in parallel, then flip the status to terminal as the
// conditional commit point.
//
// Once the audit snapshot is staged, any later failure is a partial commit:
// the reconcile sweep can finish the match from the snapshot, so the error
// must stay distinguishable from a total failure.
func (p *Processor) commit(ctx context.Context, matchID, idA, idB string, newA, newB int, audit record.Audit) (bool, error) {
	if err := p.repo.WriteMatchAudit(ctx, matchID, audit); err != nil {
		// Nothing rating-visible has changed; the caller may retry freely.
		return false, &record.UpstreamError{Op: "stage audit on match " + matchID, Err: err}
	}

	var (
		wg         sync.WaitGroup
		errA, errB error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		errA = p.repo.UpdatePlayerRating(ctx, idA, newA)
	}()
	go func() {
		defer wg.Done()
		errB = p.repo.UpdatePlayerRating(ctx, idB, newB)
	}()
	wg.Wait()

	if errA != nil || errB != nil {
		err := errA
		if err == nil {
			err = errB
		}
		return false, &record.PartialCommitError{
			MatchID:        matchID,
			AuditStaged:    true,
			PlayerAWritten: errA == nil,
			PlayerBWritten: errB == nil,
			Err:            err,
		}
	}

	applied, err := p.repo.CompleteMatch(ctx, matchID, audit)
	if err != nil {
		// Both player ratings landed but the match still reads open.
		return false, &record.PartialCommitError{
			MatchID:        matchID,
			AuditStaged:    true,
			PlayerAWritten: true,
			PlayerBWritten: true,
			Err:            err,
		}
	}
	return applied, nil
}

func ratingOrDefault(p *record.Player) int {
	if p.Rating == nil {
		return elo.DefaultRating
	}
	return *p.Rating
}
