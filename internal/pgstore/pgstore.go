// Package pgstore implements the record repository on Postgres for
// self-hosted deployments, using a pgxpool connection pool with prepared
// statement registration.
//
// Expected schema:
//
//	matches(id TEXT PRIMARY KEY, status TEXT NOT NULL,
//	        player_a TEXT, player_b TEXT,
//	        goals_a INT, goals_b INT, k INT,
//	        elo_a_before INT, elo_b_before INT,
//	        elo_a_after INT, elo_b_after INT)
//	players(id TEXT PRIMARY KEY, rating INT)
//
// Unlike the Notion backend, the terminal write here is a true conditional
// update: UPDATE … WHERE LOWER(BTRIM(status)) = ANY(open spellings).
// Status predicates fold case and whitespace exactly like the eligibility
// guard does, so a spelling that passes the guard also satisfies the CAS
// and the sweep query.
package pgstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/albapepper/kicker-elo/internal/config"
	"github.com/albapepper/kicker-elo/internal/record"
)

// Store wraps pgxpool.Pool with the record.Repository operations.
type Store struct {
	*pgxpool.Pool
	statuses record.StatusSet
	logger   *slog.Logger
}

// New creates and validates a new Postgres-backed store.
func New(ctx context.Context, cfg *config.Config, statuses record.StatusSet, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}

	poolCfg.MinConns = int32(cfg.DBPoolMinConns)
	poolCfg.MaxConns = int32(cfg.DBPoolMaxConns)
	poolCfg.MaxConnLifetime = cfg.DBPoolMaxLife
	poolCfg.MaxConnIdleTime = 5 * time.Minute

	// Register prepared statements on every new connection.
	poolCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return registerPreparedStatements(ctx, conn)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	// Verify connectivity
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &Store{Pool: pool, statuses: statuses, logger: logger}, nil
}

// HealthCheck runs a trivial query to verify the database is reachable.
func (s *Store) HealthCheck(ctx context.Context) error {
	var n int
	return s.QueryRow(ctx, "health_check").Scan(&n)
}

// GetMatch loads a match row.
func (s *Store) GetMatch(ctx context.Context, id string) (*record.Match, error) {
	row := s.QueryRow(ctx, "match_by_id", id)
	m, err := scanMatch(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("match %s: %w", id, record.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get match %s: %w", id, err)
	}
	return m, nil
}

// GetPlayer loads a player row.
func (s *Store) GetPlayer(ctx context.Context, id string) (*record.Player, error) {
	p := record.Player{ID: id}
	err := s.QueryRow(ctx, "player_by_id", id).Scan(&p.ID, &p.Rating)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("player %s: %w", id, record.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get player %s: %w", id, err)
	}
	return &p, nil
}

// UpdatePlayerRating writes the rating column, the only player field this
// service mutates.
func (s *Store) UpdatePlayerRating(ctx context.Context, id string, rating int) error {
	tag, err := s.Exec(ctx, "update_player_rating", id, rating)
	if err != nil {
		return fmt.Errorf("update rating for player %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("player %s: %w", id, record.ErrNotFound)
	}
	return nil
}

// WriteMatchAudit stages the audit snapshot without touching the status.
func (s *Store) WriteMatchAudit(ctx context.Context, id string, audit record.Audit) error {
	tag, err := s.Exec(ctx, "stage_match_audit", id,
		audit.EloABefore, audit.EloBBefore, audit.EloAAfter, audit.EloBAfter, audit.K)
	if err != nil {
		return fmt.Errorf("stage audit on match %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("match %s: %w", id, record.ErrNotFound)
	}
	return nil
}

// CompleteMatch flips the match to the terminal status, conditional on it
// still carrying an open status. Zero affected rows means another execution
// already rated it.
func (s *Store) CompleteMatch(ctx context.Context, id string, audit record.Audit) (bool, error) {
	tag, err := s.Exec(ctx, "complete_match", id,
		audit.EloABefore, audit.EloBBefore, audit.EloAAfter, audit.EloBAfter, audit.K,
		s.statuses.Terminal(), foldSpellings(s.statuses.OpenSpellings()))
	if err != nil {
		return false, fmt.Errorf("complete match %s: %w", id, err)
	}
	return tag.RowsAffected() > 0, nil
}

// OpenMatchesWithAudit lists matches carrying the partial-commit signature.
func (s *Store) OpenMatchesWithAudit(ctx context.Context, limit int) ([]record.Match, error) {
	rows, err := s.Query(ctx, "open_matches_with_audit", foldSpellings(s.statuses.OpenSpellings()), limit)
	if err != nil {
		return nil, fmt.Errorf("query open matches with audit: %w", err)
	}
	defer rows.Close()

	var matches []record.Match
	for rows.Next() {
		m, err := scanMatch(rows)
		if err != nil {
			return nil, fmt.Errorf("scan match: %w", err)
		}
		matches = append(matches, *m)
	}
	return matches, rows.Err()
}

func scanMatch(row pgx.Row) (*record.Match, error) {
	var (
		m                record.Match
		playerA, playerB *string
	)
	err := row.Scan(&m.ID, &m.StatusName, &playerA, &playerB,
		&m.GoalsA, &m.GoalsB, &m.K,
		&m.EloABefore, &m.EloBBefore, &m.EloAAfter, &m.EloBAfter)
	if err != nil {
		return nil, err
	}
	if playerA != nil {
		m.PlayerAIDs = []string{*playerA}
	}
	if playerB != nil {
		m.PlayerBIDs = []string{*playerB}
	}
	return &m, nil
}

// foldSpellings normalizes status spellings the same way the eligibility
// guard matches them: trimmed and lowercased. Passed to the predicates
// that compare LOWER(BTRIM(status)).
func foldSpellings(spellings []string) []string {
	folded := make([]string, len(spellings))
	for i, s := range spellings {
		folded[i] = strings.ToLower(strings.TrimSpace(s))
	}
	return folded
}

// preparedStatements are registered on every new connection. Prepared
// statements eliminate parse overhead on every request. Status predicates
// fold case and whitespace to stay in lockstep with the eligibility guard.
var preparedStatements = map[string]string{
	// Health
	"health_check": "SELECT 1",

	// Reads
	"match_by_id":  "SELECT id, status, player_a, player_b, goals_a, goals_b, k, elo_a_before, elo_b_before, elo_a_after, elo_b_after FROM matches WHERE id = $1",
	"player_by_id": "SELECT id, rating FROM players WHERE id = $1",

	// Writes
	"update_player_rating": "UPDATE players SET rating = $2 WHERE id = $1",
	"stage_match_audit":    "UPDATE matches SET elo_a_before = $2, elo_b_before = $3, elo_a_after = $4, elo_b_after = $5, k = $6 WHERE id = $1",
	"complete_match":       "UPDATE matches SET elo_a_before = $2, elo_b_before = $3, elo_a_after = $4, elo_b_after = $5, k = $6, status = $7 WHERE id = $1 AND LOWER(BTRIM(status)) = ANY($8)",

	// Reconcile sweep
	"open_matches_with_audit": "SELECT id, status, player_a, player_b, goals_a, goals_b, k, elo_a_before, elo_b_before, elo_a_after, elo_b_after FROM matches WHERE LOWER(BTRIM(status)) = ANY($1) AND elo_a_after IS NOT NULL LIMIT $2",
}

func registerPreparedStatements(ctx context.Context, conn *pgx.Conn) error {
	for name, sql := range preparedStatements {
		if _, err := conn.Prepare(ctx, name, sql); err != nil {
			return fmt.Errorf("prepare %q: %w", name, err)
		}
	}
	return nil
}
