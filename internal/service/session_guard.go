package service

import (
	"sync"
)

// sessionGuard enforces single-writer access per session: a message for a
// session already being processed is rejected (the API layer turns that
// into 409 + Retry-After) instead of racing against stale state. Different
// sessions proceed concurrently.
type sessionGuard struct {
	mu       sync.Mutex
	inFlight map[string]bool
}

func newSessionGuard() *sessionGuard {
	return &sessionGuard{inFlight: make(map[string]bool)}
}

// acquire marks the session as in flight. Returns false if it already is.
func (g *sessionGuard) acquire(id string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.inFlight[id] {
		return false
	}
	g.inFlight[id] = true
	return true
}

// release clears the in-flight mark.
func (g *sessionGuard) release(id string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.inFlight, id)
}
