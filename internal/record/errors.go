package record

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound is returned when a record id does not resolve in the store.
var ErrNotFound = errors.New("record not found")

// IsNotFound reports whether err wraps ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// ValidationError marks input problems detected before any write is
// attempted: missing identifier, wrong relation cardinality, non-numeric
// scores. Surfaced as a client error (400).
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// Validationf builds a ValidationError.
func Validationf(format string, args ...interface{}) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// UpstreamError wraps a failed repository read or write with the operation
// that failed. Surfaced as a server error (500).
type UpstreamError struct {
	Op  string
	Err error
}

func (e *UpstreamError) Error() string { return e.Op + ": " + e.Err.Error() }
func (e *UpstreamError) Unwrap() error { return e.Err }

// PartialCommitError reports that a subset of the three writes for a match
// succeeded. The store is inconsistent until the reconcile sweep (or an
// operator) finishes the commit, so this must never be masked as plain
// success or collapsed into a total failure.
type PartialCommitError struct {
	MatchID        string
	AuditStaged    bool
	PlayerAWritten bool
	PlayerBWritten bool
	MatchWritten   bool
	Err            error
}

func (e *PartialCommitError) Error() string {
	landed := make([]string, 0, 4)
	if e.AuditStaged {
		landed = append(landed, "audit")
	}
	if e.PlayerAWritten {
		landed = append(landed, "player A")
	}
	if e.PlayerBWritten {
		landed = append(landed, "player B")
	}
	if e.MatchWritten {
		landed = append(landed, "match")
	}
	return fmt.Sprintf("partial commit on match %s (landed: %s): %v",
		e.MatchID, strings.Join(landed, ", "), e.Err)
}

func (e *PartialCommitError) Unwrap() error { return e.Err }
