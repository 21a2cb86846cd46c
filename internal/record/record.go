// Package record defines the repository boundary between the rating engine
// and the backing record store: the match/player record shapes, the status
// vocabulary, the error taxonomy, and the Repository interface both store
// adapters implement.
package record

import "context"

// Match is a normalized match record. Adapters map store-specific property
// shapes into this struct before the processor sees them.
type Match struct {
	ID string

	// StatusName is the raw status spelling read from the record, taken
	// from the primary status slot, or the legacy fallback slot when the
	// primary is empty.
	StatusName string

	// PlayerAIDs/PlayerBIDs carry every linked player reference per side.
	// A valid match has exactly one per side; the processor enforces this.
	PlayerAIDs []string
	PlayerBIDs []string

	GoalsA *int
	GoalsB *int

	// K is the per-match K-factor override, nil when unset.
	K *int

	// Audit snapshot fields previously written by this service. Only read
	// by the reconcile sweep; never an input to rating computation.
	EloABefore *int
	EloBBefore *int
	EloAAfter  *int
	EloBAfter  *int
}

// Player is a normalized player record. Rating is nil when the property is
// empty; the processor substitutes the default.
type Player struct {
	ID     string
	Rating *int
}

// Audit is the snapshot written onto a match record together with the
// terminal status. It makes every rating change reproducible and gives the
// reconcile sweep enough to finish a partial commit.
type Audit struct {
	EloABefore int
	EloBBefore int
	EloAAfter  int
	EloBAfter  int
	K          int
}

// Repository is the record-store boundary. Implementations must treat each
// call as an independent operation; there is no cross-record transaction.
type Repository interface {
	GetMatch(ctx context.Context, id string) (*Match, error)
	GetPlayer(ctx context.Context, id string) (*Player, error)

	UpdatePlayerRating(ctx context.Context, id string, rating int) error

	// WriteMatchAudit stages the audit snapshot on the match record without
	// touching its status. Staged before any rating write so a later
	// partial failure can always be finished from the stored snapshot.
	WriteMatchAudit(ctx context.Context, id string, audit Audit) error

	// CompleteMatch writes the audit snapshot and the terminal status in a
	// single record update, conditional on the match still being open.
	// Returns applied=false (and no error) when the precondition no longer
	// holds, i.e. another execution already rated the match.
	CompleteMatch(ctx context.Context, id string, audit Audit) (applied bool, err error)

	// OpenMatchesWithAudit lists matches still in an open status that
	// already carry post-rating audit fields, the partial-commit
	// signature the reconcile sweep repairs.
	OpenMatchesWithAudit(ctx context.Context, limit int) ([]Match, error)
}
