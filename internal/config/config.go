// Package config provides centralized configuration loaded from environment
// variables. Shared by both cmd/api and cmd/eloctl.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// --------------------------------------------------------------------------
// Store backends
// --------------------------------------------------------------------------

const (
	BackendNotion   = "notion"
	BackendPostgres = "postgres"
)

// --------------------------------------------------------------------------
// Record schema: property names as they exist in the live store.
//
// The matches database has accreted two status slots over time; the primary
// slot wins when both are populated. All names are overridable so a schema
// rename never requires a rebuild.
// --------------------------------------------------------------------------

type Schema struct {
	Status         string // primary status slot
	StatusFallback string // legacy status slot, read only when primary is empty
	PlayerA        string
	PlayerB        string
	GoalsA         string
	GoalsB         string
	KFactor        string
	Rating         string // player rating property
	EloABefore     string
	EloBBefore     string
	EloAAfter      string
	EloBAfter      string
}

// DefaultSchema matches the league workspace the service was built against.
func DefaultSchema() Schema {
	return Schema{
		Status:         "Ergebnis",
		StatusFallback: "Status Ergebnis",
		PlayerA:        "Spieler A",
		PlayerB:        "Spieler B",
		GoalsA:         "Tore A",
		GoalsB:         "Tore B",
		KFactor:        "K",
		Rating:         "ELO",
		EloABefore:     "ELO A vor",
		EloBBefore:     "ELO B vor",
		EloAAfter:      "ELO A nach",
		EloBAfter:      "ELO B nach",
	}
}

// --------------------------------------------------------------------------
// Status vocabulary
//
// Upstream integrations have used several spellings for "not rated yet".
// The recognized set and the single terminal name are configuration data,
// never string literals in processing logic.
// --------------------------------------------------------------------------

// DefaultOpenStatuses are the spellings resolved to the open state.
var DefaultOpenStatuses = []string{"Offen", "Open", "Not started", "Pending"}

// DefaultRatedStatus is the terminal name written when a match is rated.
const DefaultRatedStatus = "Gewertet"

// DefaultRatedSynonyms are additional spellings resolved (but never written)
// as the terminal state.
var DefaultRatedSynonyms = []string{"Rated", "Processed"}

// --------------------------------------------------------------------------
// Config struct, populated from environment variables
// --------------------------------------------------------------------------

type Config struct {
	// Record store
	StoreBackend string // notion | postgres
	NotionToken  string
	MatchesDBID  string
	PlayersDBID  string
	DatabaseURL  string // postgres backend

	// Postgres pool (postgres backend only)
	DBPoolMinConns int
	DBPoolMaxConns int
	DBPoolMaxLife  time.Duration

	// API server
	APIHost     string
	APIPort     int
	Environment string // development, staging, production
	Debug       bool

	// Webhook auth
	WebhookSecret string // empty disables the shared-secret check

	// CORS
	CORSAllowOrigins []string

	// Rate limiting
	RateLimitEnabled  bool
	RateLimitRequests int
	RateLimitWindow   time.Duration

	// Notion API throttle (requests per minute)
	NotionRequestsPerMinute int

	// Duplicate-delivery suppression window
	DedupTTL time.Duration

	// Partial-commit reconcile sweep (0 disables)
	ReconcileInterval time.Duration

	// Postgres LISTEN/NOTIFY trigger (postgres backend only)
	ListenEnabled bool

	// Record schema + status vocabulary
	Schema        Schema
	OpenStatuses  []string
	RatedStatus   string
	RatedSynonyms []string
}

// Load reads configuration from environment variables with sensible defaults.
func Load() (*Config, error) {
	cfg := &Config{
		StoreBackend: strings.ToLower(envOr("STORE_BACKEND", BackendNotion)),
		NotionToken:  envOr("NOTION_TOKEN", ""),
		MatchesDBID:  envOr("MATCHES_DB_ID", ""),
		PlayersDBID:  envOr("PLAYERS_DB_ID", ""),
		DatabaseURL:  envOr("DATABASE_URL", ""),

		DBPoolMinConns: envInt("DB_POOL_MIN_CONNS", 2),
		DBPoolMaxConns: envInt("DB_POOL_MAX_CONNS", 10),
		DBPoolMaxLife:  time.Duration(envInt("DB_POOL_MAX_LIFE_MINUTES", 30)) * time.Minute,

		APIHost:     envOr("API_HOST", "0.0.0.0"),
		APIPort:     envInt("API_PORT", envInt("PORT", 8000)),
		Environment: envOr("ENVIRONMENT", "development"),
		Debug:       envBool("DEBUG", false),

		WebhookSecret: envOr("ELO_WEBHOOK_SECRET", ""),

		CORSAllowOrigins: envList("CORS_ALLOW_ORIGINS", []string{
			"http://localhost:3000",
			"http://localhost:5173",
		}),

		RateLimitEnabled:  envBool("RATE_LIMIT_ENABLED", true),
		RateLimitRequests: envInt("RATE_LIMIT_REQUESTS", 60),
		RateLimitWindow:   time.Duration(envInt("RATE_LIMIT_WINDOW", 60)) * time.Second,

		NotionRequestsPerMinute: envInt("NOTION_REQUESTS_PER_MINUTE", 180),

		DedupTTL:          time.Duration(envInt("DEDUP_TTL_SECONDS", 120)) * time.Second,
		ReconcileInterval: time.Duration(envInt("RECONCILE_INTERVAL_MINUTES", 0)) * time.Minute,
		ListenEnabled:     envBool("LISTEN_ENABLED", false),

		Schema:        schemaFromEnv(),
		OpenStatuses:  envList("MATCH_STATUS_OPEN_SYNONYMS", DefaultOpenStatuses),
		RatedStatus:   envOr("MATCH_STATUS_RATED", DefaultRatedStatus),
		RatedSynonyms: envList("MATCH_STATUS_RATED_SYNONYMS", DefaultRatedSynonyms),
	}

	switch cfg.StoreBackend {
	case BackendNotion:
		if cfg.NotionToken == "" || cfg.MatchesDBID == "" || cfg.PlayersDBID == "" {
			return nil, fmt.Errorf("NOTION_TOKEN, MATCHES_DB_ID, and PLAYERS_DB_ID must be set for the notion backend")
		}
	case BackendPostgres:
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL must be set for the postgres backend")
		}
	default:
		return nil, fmt.Errorf("unknown STORE_BACKEND %q (want %s or %s)", cfg.StoreBackend, BackendNotion, BackendPostgres)
	}

	return cfg, nil
}

// IsProduction returns true if running in production environment.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func schemaFromEnv() Schema {
	s := DefaultSchema()
	s.Status = envOr("PROP_STATUS", s.Status)
	s.StatusFallback = envOr("PROP_STATUS_FALLBACK", s.StatusFallback)
	s.PlayerA = envOr("PROP_PLAYER_A", s.PlayerA)
	s.PlayerB = envOr("PROP_PLAYER_B", s.PlayerB)
	s.GoalsA = envOr("PROP_GOALS_A", s.GoalsA)
	s.GoalsB = envOr("PROP_GOALS_B", s.GoalsB)
	s.KFactor = envOr("PROP_K", s.KFactor)
	s.Rating = envOr("PROP_ELO", s.Rating)
	s.EloABefore = envOr("PROP_ELO_A_BEFORE", s.EloABefore)
	s.EloBBefore = envOr("PROP_ELO_B_BEFORE", s.EloBBefore)
	s.EloAAfter = envOr("PROP_ELO_A_AFTER", s.EloAAfter)
	s.EloBAfter = envOr("PROP_ELO_B_AFTER", s.EloBAfter)
	return s
}

// --------------------------------------------------------------------------
// Env helpers
// --------------------------------------------------------------------------

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return fallback
}

func envList(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		if len(result) > 0 {
			return result
		}
	}
	return fallback
}
