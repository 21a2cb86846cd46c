// Package dedup suppresses duplicate webhook deliveries with an in-memory
// TTL set plus an in-flight registry.
//
// Webhook redelivery offers no guarantees: the same match event can arrive
// twice in a burst or race itself on two connections. The guard keeps a
// short memory of recently completed match ids and refuses to start a
// second execution for an id already in flight. Defense in depth only:
// the match status field remains the source of truth for "already rated",
// and a restart simply empties the guard.
package dedup

import (
	"sync"
	"time"
)

// Guard tracks in-flight and recently completed match ids.
type Guard struct {
	mu       sync.Mutex
	inflight map[string]struct{}
	done     map[string]time.Time
	ttl      time.Duration
}

// New creates a Guard. A zero ttl disables the recently-completed memory
// but keeps in-flight exclusivity.
func New(ttl time.Duration) *Guard {
	g := &Guard{
		inflight: make(map[string]struct{}),
		done:     make(map[string]time.Time),
		ttl:      ttl,
	}
	if ttl > 0 {
		go g.evictLoop()
	}
	return g
}

// Begin attempts to claim an id for processing. Returns false when the id
// is currently in flight or completed inside the TTL window; the caller
// should short-circuit with a benign no-op response.
func (g *Guard) Begin(id string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, busy := g.inflight[id]; busy {
		return false
	}
	if doneAt, seen := g.done[id]; seen && time.Since(doneAt) < g.ttl {
		return false
	}
	g.inflight[id] = struct{}{}
	return true
}

// Done releases an id claimed by Begin. Pass completed=true when the match
// reached a terminal outcome (rated or confirmed no-op) so replays inside
// the TTL window are suppressed; pass false after a failure so a retry is
// not blocked.
func (g *Guard) Done(id string, completed bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	delete(g.inflight, id)
	if completed && g.ttl > 0 {
		g.done[id] = time.Now()
	}
}

// Stats returns guard statistics for health reporting.
func (g *Guard) Stats() map[string]interface{} {
	g.mu.Lock()
	defer g.mu.Unlock()

	active := 0
	now := time.Now()
	for _, doneAt := range g.done {
		if now.Sub(doneAt) < g.ttl {
			active++
		}
	}
	return map[string]interface{}{
		"inflight":       len(g.inflight),
		"suppressed_ids": active,
		"ttl_seconds":    int(g.ttl.Seconds()),
	}
}

func (g *Guard) evictLoop() {
	ticker := time.NewTicker(g.ttl)
	defer ticker.Stop()
	for range ticker.C {
		g.mu.Lock()
		now := time.Now()
		for id, doneAt := range g.done {
			if now.Sub(doneAt) >= g.ttl {
				delete(g.done, id)
			}
		}
		g.mu.Unlock()
	}
}
