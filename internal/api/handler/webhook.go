package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/albapepper/kicker-elo/internal/api/respond"
	"github.com/albapepper/kicker-elo/internal/processor"
	"github.com/albapepper/kicker-elo/internal/record"
	"github.com/albapepper/kicker-elo/internal/webhook"
)

// RatingResponse is the success body for a rated match.
type RatingResponse struct {
	Message string                 `json:"message"`
	PageID  string                 `json:"pageId"`
	K       int                    `json:"k"`
	PlayerA processor.PlayerResult `json:"playerA"`
	PlayerB processor.PlayerResult `json:"playerB"`
}

// NoOpResponse is the body for benign non-processing outcomes.
type NoOpResponse struct {
	Message string `json:"message"`
	PageID  string `json:"pageId,omitempty"`
	Status  string `json:"status,omitempty"`
}

// TriggerRating handles a webhook delivery (or manual trigger) for a match.
// @Summary Rate a match
// @Description Applies a recorded match result to both players' Elo ratings, exactly once per match. Redeliveries and already-rated matches return an informational no-op. The match identifier is taken from the JSON payload (page_id, entity.id, data.id, data.entity.id, or page.id) or, for GET, from the page_id/match_id query parameter.
// @Tags elo
// @Accept json
// @Produce json
// @Param X-Elo-Secret header string false "Shared webhook secret (when configured)"
// @Success 200 {object} RatingResponse
// @Failure 400 {object} respond.ErrorResponse
// @Failure 401 {object} respond.ErrorResponse
// @Failure 500 {object} respond.ErrorResponse
// @Router /elo/webhook [post]
func (h *Handler) TriggerRating(w http.ResponseWriter, r *http.Request) {
	if h.proc == nil {
		// Required store configuration was missing at startup; nothing can
		// be attempted.
		respond.WriteError(w, http.StatusInternalServerError, "MISSING_CONFIG", "record store is not configured")
		return
	}

	matchID, err := h.matchID(r)
	if err != nil {
		respond.WriteError(w, http.StatusBadRequest, "MISSING_IDENTIFIER", err.Error())
		return
	}

	if !h.guard.Begin(matchID) {
		// In flight on another connection or completed moments ago.
		respond.WriteJSONObject(w, http.StatusOK, NoOpResponse{
			Message: "Duplicate delivery ignored",
			PageID:  matchID,
		})
		return
	}
	completed := false
	defer func() { h.guard.Done(matchID, completed) }()

	outcome, err := h.proc.Process(r.Context(), matchID)
	if err != nil {
		h.writeProcessError(w, err)
		return
	}
	completed = true

	if outcome.NoOp {
		respond.WriteJSONObject(w, http.StatusOK, NoOpResponse{
			Message: "Match not open, nothing to do",
			PageID:  matchID,
			Status:  outcome.Status.String(),
		})
		return
	}

	respond.WriteJSONObject(w, http.StatusOK, RatingResponse{
		Message: "ELO updated",
		PageID:  outcome.MatchID,
		K:       outcome.K,
		PlayerA: outcome.A,
		PlayerB: outcome.B,
	})
}

// matchID resolves the match identifier from the query string (manual GET
// triggers) or the JSON payload.
func (h *Handler) matchID(r *http.Request) (string, error) {
	if id := r.URL.Query().Get("page_id"); id != "" {
		return id, nil
	}
	if id := r.URL.Query().Get("match_id"); id != "" {
		return id, nil
	}
	if r.Method == http.MethodGet {
		return "", record.Validationf("missing page_id query parameter")
	}
	return webhook.ParseMatchID(r.Body)
}

// writeProcessError maps the error taxonomy onto the response contract.
// Partial commits must stay distinguishable from total failures: they left
// the store inconsistent and need the reconcile sweep or an operator.
func (h *Handler) writeProcessError(w http.ResponseWriter, err error) {
	var verr *record.ValidationError
	if errors.As(err, &verr) {
		respond.WriteError(w, http.StatusBadRequest, "VALIDATION", verr.Msg)
		return
	}

	var perr *record.PartialCommitError
	if errors.As(err, &perr) {
		slog.Error("Partial commit", "match_id", perr.MatchID, "error", err)
		respond.WriteErrorDetail(w, http.StatusInternalServerError, "PARTIAL_COMMIT",
			"some rating writes landed before the failure; match needs reconciliation", perr.Error())
		return
	}

	slog.Error("Processing failed", "error", err)
	respond.WriteError(w, http.StatusInternalServerError, "UPSTREAM", "record store operation failed")
}
