package processor

import (
	"context"
	"sync"

	"github.com/albapepper/kicker-elo/internal/record"
)

// mockRepository is an in-memory record.Repository with per-operation
// failure injection.
type mockRepository struct {
	mu sync.Mutex

	Matches map[string]*record.Match
	Players map[string]*record.Player

	// Failure injection
	FailGetPlayer    map[string]error
	FailPlayerWrite  map[string]error
	FailAuditWrite   error
	FailComplete     error
	CompleteRejected bool // CAS precondition no longer holds

	// Call recording
	PlayerReads   []string
	RatingWrites  map[string]int
	AuditWrites   map[string]record.Audit
	CompleteCalls []string
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		Matches:         make(map[string]*record.Match),
		Players:         make(map[string]*record.Player),
		FailGetPlayer:   make(map[string]error),
		FailPlayerWrite: make(map[string]error),
		RatingWrites:    make(map[string]int),
		AuditWrites:     make(map[string]record.Audit),
	}
}

func (m *mockRepository) GetMatch(ctx context.Context, id string) (*record.Match, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	match, ok := m.Matches[id]
	if !ok {
		return nil, record.ErrNotFound
	}
	cp := *match
	return &cp, nil
}

func (m *mockRepository) GetPlayer(ctx context.Context, id string) (*record.Player, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.PlayerReads = append(m.PlayerReads, id)
	if err := m.FailGetPlayer[id]; err != nil {
		return nil, err
	}
	player, ok := m.Players[id]
	if !ok {
		return nil, record.ErrNotFound
	}
	cp := *player
	return &cp, nil
}

func (m *mockRepository) UpdatePlayerRating(ctx context.Context, id string, rating int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.FailPlayerWrite[id]; err != nil {
		return err
	}
	m.RatingWrites[id] = rating
	if p, ok := m.Players[id]; ok {
		p.Rating = &rating
	}
	return nil
}

func (m *mockRepository) WriteMatchAudit(ctx context.Context, id string, audit record.Audit) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailAuditWrite != nil {
		return m.FailAuditWrite
	}
	m.AuditWrites[id] = audit
	return nil
}

func (m *mockRepository) CompleteMatch(ctx context.Context, id string, audit record.Audit) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CompleteCalls = append(m.CompleteCalls, id)
	if m.FailComplete != nil {
		return false, m.FailComplete
	}
	if m.CompleteRejected {
		return false, nil
	}
	if match, ok := m.Matches[id]; ok {
		match.StatusName = "Gewertet"
	}
	return true, nil
}

func (m *mockRepository) OpenMatchesWithAudit(ctx context.Context, limit int) ([]record.Match, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []record.Match
	for _, match := range m.Matches {
		if match.StatusName == "Offen" && match.EloAAfter != nil {
			out = append(out, *match)
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

func intPtr(n int) *int { return &n }
