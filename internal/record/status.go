package record

import (
	"strings"

	"github.com/albapepper/kicker-elo/internal/config"
)

// Status is the canonical match state after synonym resolution.
type Status int

const (
	// StatusUnknown covers spellings outside the configured vocabulary
	// (in-progress states, upstream experiments). Not eligible for rating.
	StatusUnknown Status = iota
	// StatusOpen marks a match awaiting rating.
	StatusOpen
	// StatusRated is the terminal state. Write-once per match.
	StatusRated
)

func (s Status) String() string {
	switch s {
	case StatusOpen:
		return "open"
	case StatusRated:
		return "rated"
	default:
		return "unknown"
	}
}

// StatusSet resolves the status spellings that have accreted upstream to
// the canonical states. Declared once from configuration; processing logic
// never compares raw status strings.
type StatusSet struct {
	open  []string
	rated []string
	// terminal is the single spelling written on completion.
	terminal string
}

// NewStatusSet builds a resolver from the configured vocabulary.
func NewStatusSet(cfg *config.Config) StatusSet {
	rated := append([]string{cfg.RatedStatus}, cfg.RatedSynonyms...)
	return StatusSet{
		open:     cfg.OpenStatuses,
		rated:    rated,
		terminal: cfg.RatedStatus,
	}
}

// DefaultStatusSet returns the resolver for the default vocabulary.
func DefaultStatusSet() StatusSet {
	return StatusSet{
		open:     config.DefaultOpenStatuses,
		rated:    append([]string{config.DefaultRatedStatus}, config.DefaultRatedSynonyms...),
		terminal: config.DefaultRatedStatus,
	}
}

// Resolve maps a raw status spelling to its canonical state. Matching is
// case-insensitive; surrounding whitespace is ignored.
func (s StatusSet) Resolve(name string) Status {
	name = strings.TrimSpace(name)
	for _, o := range s.open {
		if strings.EqualFold(name, o) {
			return StatusOpen
		}
	}
	for _, r := range s.rated {
		if strings.EqualFold(name, r) {
			return StatusRated
		}
	}
	return StatusUnknown
}

// Eligible reports whether a match with the given status spelling may be
// rated, along with the resolved canonical state for logging.
func (s StatusSet) Eligible(name string) (bool, Status) {
	st := s.Resolve(name)
	return st == StatusOpen, st
}

// Terminal returns the spelling written when a match is rated.
func (s StatusSet) Terminal() string {
	return s.terminal
}

// OpenSpellings returns the recognized open spellings, for adapters that
// need them in store-side filters (conditional writes, sweep queries).
func (s StatusSet) OpenSpellings() []string {
	return s.open
}
