package reconcile

import (
	"context"
	"errors"
	"testing"

	"github.com/albapepper/kicker-elo/internal/record"
)

type sweepRepo struct {
	open         []record.Match
	ratingWrites map[string]int
	completed    []string
	failComplete error
	rejectCAS    bool
}

func (r *sweepRepo) GetMatch(ctx context.Context, id string) (*record.Match, error) {
	return nil, record.ErrNotFound
}

func (r *sweepRepo) GetPlayer(ctx context.Context, id string) (*record.Player, error) {
	return nil, record.ErrNotFound
}

func (r *sweepRepo) UpdatePlayerRating(ctx context.Context, id string, rating int) error {
	if r.ratingWrites == nil {
		r.ratingWrites = make(map[string]int)
	}
	r.ratingWrites[id] = rating
	return nil
}

func (r *sweepRepo) WriteMatchAudit(ctx context.Context, id string, audit record.Audit) error {
	return nil
}

func (r *sweepRepo) CompleteMatch(ctx context.Context, id string, audit record.Audit) (bool, error) {
	if r.failComplete != nil {
		return false, r.failComplete
	}
	if r.rejectCAS {
		return false, nil
	}
	r.completed = append(r.completed, id)
	return true, nil
}

func (r *sweepRepo) OpenMatchesWithAudit(ctx context.Context, limit int) ([]record.Match, error) {
	return r.open, nil
}

func intPtr(n int) *int { return &n }

func partialMatch(id string) record.Match {
	return record.Match{
		ID:         id,
		StatusName: "Offen",
		PlayerAIDs: []string{"player-a"},
		PlayerBIDs: []string{"player-b"},
		EloABefore: intPtr(1000),
		EloBBefore: intPtr(1000),
		EloAAfter:  intPtr(1010),
		EloBAfter:  intPtr(990),
		K:          intPtr(20),
	}
}

func TestSweep_RepairsPartialCommit(t *testing.T) {
	repo := &sweepRepo{open: []record.Match{partialMatch("m-1")}}

	result, err := Sweep(context.Background(), repo, nil)
	if err != nil {
		t.Fatalf("Sweep failed: %v", err)
	}
	if result.Found != 1 || result.Repaired != 1 {
		t.Errorf("sweep result = %s, want 1 found, 1 repaired", result.Summary())
	}
	if got := repo.ratingWrites["player-a"]; got != 1010 {
		t.Errorf("player A repaired to %d, want 1010", got)
	}
	if got := repo.ratingWrites["player-b"]; got != 990 {
		t.Errorf("player B repaired to %d, want 990", got)
	}
	if len(repo.completed) != 1 || repo.completed[0] != "m-1" {
		t.Errorf("completed matches = %v, want [m-1]", repo.completed)
	}
}

func TestSweep_SkipsIncompleteSnapshot(t *testing.T) {
	m := partialMatch("m-1")
	m.EloBAfter = nil
	repo := &sweepRepo{open: []record.Match{m}}

	result, err := Sweep(context.Background(), repo, nil)
	if err != nil {
		t.Fatalf("Sweep failed: %v", err)
	}
	if result.Skipped != 1 || result.Repaired != 0 {
		t.Errorf("sweep result = %s, want 1 skipped", result.Summary())
	}
	if len(repo.ratingWrites) != 0 {
		t.Error("ratings were written for an unrepairable match")
	}
}

func TestSweep_SkipsConcurrentlyRatedMatch(t *testing.T) {
	repo := &sweepRepo{open: []record.Match{partialMatch("m-1")}, rejectCAS: true}

	result, err := Sweep(context.Background(), repo, nil)
	if err != nil {
		t.Fatalf("Sweep failed: %v", err)
	}
	if result.Skipped != 1 || result.Failed != 0 {
		t.Errorf("sweep result = %s, want 1 skipped", result.Summary())
	}
}

func TestSweep_ReportsRepairFailure(t *testing.T) {
	repo := &sweepRepo{
		open:         []record.Match{partialMatch("m-1")},
		failComplete: errors.New("store timeout"),
	}

	result, err := Sweep(context.Background(), repo, nil)
	if err != nil {
		t.Fatalf("Sweep failed: %v", err)
	}
	if result.Failed != 1 || len(result.Errors) != 1 {
		t.Errorf("sweep result = %s, want 1 failed", result.Summary())
	}
}
