package pgstore

import (
	"strings"
	"testing"

	"github.com/albapepper/kicker-elo/internal/record"
)

func TestStatusPredicatesFoldCase(t *testing.T) {
	// The CAS and the sweep query must match every spelling the
	// eligibility guard accepts, independent of stored casing.
	for _, name := range []string{"complete_match", "open_matches_with_audit"} {
		sql, ok := preparedStatements[name]
		if !ok {
			t.Fatalf("statement %q not registered", name)
		}
		if !strings.Contains(sql, "LOWER(BTRIM(status)) = ANY(") {
			t.Errorf("%s compares status case-sensitively: %s", name, sql)
		}
	}
}

func TestFoldSpellings(t *testing.T) {
	got := foldSpellings([]string{"Offen", "OPEN", " Not started "})
	want := []string{"offen", "open", "not started"}
	if len(got) != len(want) {
		t.Fatalf("foldSpellings returned %d entries, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("foldSpellings[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestFoldedPredicateMatchesGuard(t *testing.T) {
	// Any stored spelling that passes the guard must also satisfy the
	// folded SQL predicate; otherwise a rated match keeps reading open and
	// a webhook replay re-rates it.
	statuses := record.DefaultStatusSet()
	folded := foldSpellings(statuses.OpenSpellings())

	for _, stored := range []string{"Offen", "OFFEN", "offen", " Open ", "NOT STARTED"} {
		if eligible, _ := statuses.Eligible(stored); !eligible {
			t.Fatalf("guard rejects %q, test premise broken", stored)
		}
		// LOWER(BTRIM(status)) as the predicate evaluates it.
		normalized := strings.ToLower(strings.TrimSpace(stored))
		matched := false
		for _, f := range folded {
			if normalized == f {
				matched = true
				break
			}
		}
		if !matched {
			t.Errorf("stored status %q passes the guard but misses the SQL predicate", stored)
		}
	}
}
