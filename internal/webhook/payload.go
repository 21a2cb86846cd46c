// Package webhook normalizes inbound trigger payloads to a single match
// record identifier.
//
// Upstream integrations deliver the id at different nested paths depending
// on who fires the webhook (native automations, Kestra flows, manual
// curls). Rather than an ad hoc fallback chain, the recognized shapes are
// enumerated in one envelope type and resolved in a fixed precedence order.
package webhook

import (
	"encoding/json"
	"io"

	"github.com/albapepper/kicker-elo/internal/record"
)

// envelope enumerates every recognized payload schema. Exactly one variant
// is expected to be populated per delivery.
type envelope struct {
	// Explicitly sent by our own tooling.
	PageID string `json:"page_id"`

	// Automation platforms wrap the triggering record.
	Entity idRef `json:"entity"`
	Data   struct {
		ID     string `json:"id"`
		Entity idRef  `json:"entity"`
	} `json:"data"`
	Page idRef `json:"page"`
}

type idRef struct {
	ID string `json:"id"`
}

// resolve returns the first populated identifier in precedence order.
func (e *envelope) resolve() string {
	for _, id := range []string{
		e.PageID,
		e.Entity.ID,
		e.Data.ID,
		e.Data.Entity.ID,
		e.Page.ID,
	} {
		if id != "" {
			return id
		}
	}
	return ""
}

// ParseMatchID extracts the match record identifier from a JSON payload.
// Returns a ValidationError when no recognized path yields an id: a
// malformed delivery is a client error, not a server fault.
func ParseMatchID(body io.Reader) (string, error) {
	var env envelope
	if err := json.NewDecoder(body).Decode(&env); err != nil && err != io.EOF {
		// Unparseable bodies resolve like empty ones: no identifier.
		return "", record.Validationf("missing match identifier in payload")
	}
	id := env.resolve()
	if id == "" {
		return "", record.Validationf("missing match identifier in payload")
	}
	return id, nil
}
