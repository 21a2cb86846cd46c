package notion

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"golang.org/x/time/rate"

	"github.com/albapepper/kicker-elo/internal/config"
	"github.com/albapepper/kicker-elo/internal/record"
)

func newTestRepository(t *testing.T, handler http.HandlerFunc) (*Repository, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client := &Client{
		httpClient: &http.Client{Timeout: 5 * time.Second},
		baseURL:    srv.URL,
		token:      "test-token",
		limiter:    rate.NewLimiter(rate.Inf, 1),
	}
	repo := NewRepository(client, "matches-db", config.DefaultSchema(), record.DefaultStatusSet(), nil)
	return repo, srv
}

func matchPageJSON(status string) string {
	return `{
		"id": "m-1",
		"properties": {
			"Ergebnis": {"type": "status", "status": {"name": "` + status + `"}},
			"Spieler A": {"type": "relation", "relation": [{"id": "player-a"}]},
			"Spieler B": {"type": "relation", "relation": [{"id": "player-b"}]},
			"Tore A": {"type": "number", "number": 3},
			"Tore B": {"type": "number", "number": 1},
			"K": {"type": "number", "number": 24}
		}
	}`
}

func TestGetMatch_MapsProperties(t *testing.T) {
	repo, _ := newTestRepository(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/pages/m-1" || r.Method != http.MethodGet {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-token" {
			t.Errorf("Authorization = %q", got)
		}
		if got := r.Header.Get("Notion-Version"); got == "" {
			t.Error("Notion-Version header missing")
		}
		w.Write([]byte(matchPageJSON("Offen")))
	})

	m, err := repo.GetMatch(context.Background(), "m-1")
	if err != nil {
		t.Fatalf("GetMatch failed: %v", err)
	}
	if m.StatusName != "Offen" {
		t.Errorf("status = %q, want Offen", m.StatusName)
	}
	if len(m.PlayerAIDs) != 1 || m.PlayerAIDs[0] != "player-a" {
		t.Errorf("player A links = %v", m.PlayerAIDs)
	}
	if m.GoalsA == nil || *m.GoalsA != 3 || m.GoalsB == nil || *m.GoalsB != 1 {
		t.Errorf("goals = %v,%v, want 3,1", m.GoalsA, m.GoalsB)
	}
	if m.K == nil || *m.K != 24 {
		t.Errorf("K = %v, want 24", m.K)
	}
}

func TestGetMatch_LegacyStatusSlot(t *testing.T) {
	// Primary status slot empty; the legacy slot carries the state.
	repo, _ := newTestRepository(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"id": "m-1",
			"properties": {
				"Status Ergebnis": {"type": "select", "select": {"name": "Open"}},
				"Spieler A": {"relation": [{"id": "player-a"}]},
				"Spieler B": {"relation": [{"id": "player-b"}]}
			}
		}`))
	})

	m, err := repo.GetMatch(context.Background(), "m-1")
	if err != nil {
		t.Fatalf("GetMatch failed: %v", err)
	}
	if m.StatusName != "Open" {
		t.Errorf("status = %q, want Open from legacy slot", m.StatusName)
	}
}

func TestGetMatch_NotFound(t *testing.T) {
	repo, _ := newTestRepository(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := repo.GetMatch(context.Background(), "missing")
	if !record.IsNotFound(err) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestGetPlayer_EmptyRating(t *testing.T) {
	repo, _ := newTestRepository(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id": "player-a", "properties": {"ELO": {"type": "number", "number": null}}}`))
	})

	p, err := repo.GetPlayer(context.Background(), "player-a")
	if err != nil {
		t.Fatalf("GetPlayer failed: %v", err)
	}
	if p.Rating != nil {
		t.Errorf("rating = %v, want nil for empty property", *p.Rating)
	}
}

func TestCompleteMatch_SkipsWhenNoLongerOpen(t *testing.T) {
	patched := false
	repo, _ := newTestRepository(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPatch {
			patched = true
		}
		w.Write([]byte(matchPageJSON("Gewertet")))
	})

	applied, err := repo.CompleteMatch(context.Background(), "m-1", record.Audit{})
	if err != nil {
		t.Fatalf("CompleteMatch failed: %v", err)
	}
	if applied {
		t.Error("commit applied against an already-rated match")
	}
	if patched {
		t.Error("terminal write was issued despite the failed precondition")
	}
}

func TestCompleteMatch_WritesAuditAndTerminalStatus(t *testing.T) {
	var patchBody map[string]map[string]property
	repo, _ := newTestRepository(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			w.Write([]byte(matchPageJSON("Offen")))
		case http.MethodPatch:
			if err := json.NewDecoder(r.Body).Decode(&patchBody); err != nil {
				t.Fatalf("decode patch body: %v", err)
			}
			w.Write([]byte(`{"id": "m-1", "properties": {}}`))
		}
	})

	audit := record.Audit{EloABefore: 1000, EloBBefore: 1000, EloAAfter: 1010, EloBAfter: 990, K: 20}
	applied, err := repo.CompleteMatch(context.Background(), "m-1", audit)
	if err != nil {
		t.Fatalf("CompleteMatch failed: %v", err)
	}
	if !applied {
		t.Fatal("commit not applied")
	}

	props := patchBody["properties"]
	if props == nil {
		t.Fatal("patch carried no properties")
	}
	status := props["Ergebnis"]
	if status.Status == nil || status.Status.Name != "Gewertet" {
		t.Errorf("terminal status = %+v, want Gewertet", status.Status)
	}
	after := props["ELO A nach"]
	if after.Number == nil || *after.Number != 1010 {
		t.Errorf("ELO A nach = %v, want 1010", after.Number)
	}
}

func TestOpenMatchesWithAudit_Filter(t *testing.T) {
	var queryBody map[string]interface{}
	repo, _ := newTestRepository(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/databases/matches-db/query" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&queryBody); err != nil {
			t.Fatalf("decode query body: %v", err)
		}
		w.Write([]byte(`{"results": [` + matchPageJSON("Offen") + `]}`))
	})

	matches, err := repo.OpenMatchesWithAudit(context.Background(), 50)
	if err != nil {
		t.Fatalf("OpenMatchesWithAudit failed: %v", err)
	}
	if len(matches) != 1 || matches[0].ID != "m-1" {
		t.Errorf("matches = %+v, want one m-1", matches)
	}
	if queryBody["page_size"] != float64(50) {
		t.Errorf("page_size = %v, want 50", queryBody["page_size"])
	}
	if queryBody["filter"] == nil {
		t.Error("query carried no filter")
	}
}
