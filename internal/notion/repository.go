package notion

import (
	"context"
	"log/slog"

	"github.com/albapepper/kicker-elo/internal/config"
	"github.com/albapepper/kicker-elo/internal/record"
)

// Repository adapts the Notion API to the record.Repository boundary.
type Repository struct {
	client      *Client
	matchesDBID string
	schema      config.Schema
	statuses    record.StatusSet
	logger      *slog.Logger
}

// NewRepository creates a Notion-backed repository.
func NewRepository(client *Client, matchesDBID string, schema config.Schema, statuses record.StatusSet, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{
		client:      client,
		matchesDBID: matchesDBID,
		schema:      schema,
		statuses:    statuses,
		logger:      logger,
	}
}

// GetMatch fetches and normalizes a match page.
func (r *Repository) GetMatch(ctx context.Context, id string) (*record.Match, error) {
	p, err := r.client.getPage(ctx, id)
	if err != nil {
		return nil, err
	}
	m := r.matchFromPage(p)
	return &m, nil
}

// GetPlayer fetches and normalizes a player page.
func (r *Repository) GetPlayer(ctx context.Context, id string) (*record.Player, error) {
	p, err := r.client.getPage(ctx, id)
	if err != nil {
		return nil, err
	}
	return &record.Player{
		ID:     p.ID,
		Rating: p.Properties[r.schema.Rating].intNumber(),
	}, nil
}

// UpdatePlayerRating writes the rating property. The rating is the only
// player field this service ever mutates.
func (r *Repository) UpdatePlayerRating(ctx context.Context, id string, rating int) error {
	return r.client.updatePage(ctx, id, map[string]property{
		r.schema.Rating: numberProperty(rating),
	})
}

// WriteMatchAudit stages the audit snapshot without touching the status.
func (r *Repository) WriteMatchAudit(ctx context.Context, id string, audit record.Audit) error {
	return r.client.updatePage(ctx, id, r.auditProperties(audit))
}

// CompleteMatch writes the audit snapshot and the terminal status.
//
// The Notion API has no conditional update, so the open precondition is
// approximated with a verify-then-write: the status is re-read immediately
// before the terminal write and the commit is abandoned when it has already
// moved. The race window shrinks to one round trip; the status field
// remains the single source of truth either way.
func (r *Repository) CompleteMatch(ctx context.Context, id string, audit record.Audit) (bool, error) {
	p, err := r.client.getPage(ctx, id)
	if err != nil {
		return false, err
	}
	if status := r.statuses.Resolve(r.statusName(p)); status != record.StatusOpen {
		r.logger.Info("Terminal write skipped, match no longer open",
			"match_id", id, "status", status.String())
		return false, nil
	}

	props := r.auditProperties(audit)
	props[r.schema.Status] = statusProperty(r.statuses.Terminal())
	if err := r.client.updatePage(ctx, id, props); err != nil {
		return false, err
	}
	return true, nil
}

// OpenMatchesWithAudit queries the matches database for the partial-commit
// signature: an open status combined with populated post-rating fields.
func (r *Repository) OpenMatchesWithAudit(ctx context.Context, limit int) ([]record.Match, error) {
	openFilters := make([]map[string]interface{}, 0, len(r.statuses.OpenSpellings()))
	for _, name := range r.statuses.OpenSpellings() {
		openFilters = append(openFilters, map[string]interface{}{
			"property": r.schema.Status,
			"status":   map[string]interface{}{"equals": name},
		})
	}

	filter := map[string]interface{}{
		"and": []interface{}{
			map[string]interface{}{"or": openFilters},
			map[string]interface{}{
				"property": r.schema.EloAAfter,
				"number":   map[string]interface{}{"is_not_empty": true},
			},
		},
	}

	pages, err := r.client.queryDatabase(ctx, r.matchesDBID, filter, limit)
	if err != nil {
		return nil, err
	}

	matches := make([]record.Match, 0, len(pages))
	for i := range pages {
		matches = append(matches, r.matchFromPage(&pages[i]))
	}
	return matches, nil
}

// matchFromPage maps page properties onto the normalized match shape.
func (r *Repository) matchFromPage(p *page) record.Match {
	props := p.Properties
	return record.Match{
		ID:         p.ID,
		StatusName: r.statusName(p),
		PlayerAIDs: props[r.schema.PlayerA].relationIDs(),
		PlayerBIDs: props[r.schema.PlayerB].relationIDs(),
		GoalsA:     props[r.schema.GoalsA].intNumber(),
		GoalsB:     props[r.schema.GoalsB].intNumber(),
		K:          props[r.schema.KFactor].intNumber(),
		EloABefore: props[r.schema.EloABefore].intNumber(),
		EloBBefore: props[r.schema.EloBBefore].intNumber(),
		EloAAfter:  props[r.schema.EloAAfter].intNumber(),
		EloBAfter:  props[r.schema.EloBAfter].intNumber(),
	}
}

// statusName reads the status spelling from the primary slot, falling back
// to the legacy slot when the primary is empty.
func (r *Repository) statusName(p *page) string {
	if name := p.Properties[r.schema.Status].statusName(); name != "" {
		return name
	}
	return p.Properties[r.schema.StatusFallback].statusName()
}

func (r *Repository) auditProperties(audit record.Audit) map[string]property {
	return map[string]property{
		r.schema.EloABefore: numberProperty(audit.EloABefore),
		r.schema.EloBBefore: numberProperty(audit.EloBBefore),
		r.schema.EloAAfter:  numberProperty(audit.EloAAfter),
		r.schema.EloBAfter:  numberProperty(audit.EloBAfter),
		r.schema.KFactor:    numberProperty(audit.K),
	}
}
