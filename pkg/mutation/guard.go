package mutation

import (
	"sync"
	"sync/atomic"
)

// Guard admits at most one in-flight submission. A second caller is turned
// away instead of queued.
type Guard struct {
	busy atomic.Bool
}

// TryStart claims the guard. It returns false when a submission is already
// in flight.
func (g *Guard) TryStart() bool {
	return g.busy.CompareAndSwap(false, true)
}

// Finish releases the guard.
func (g *Guard) Finish() {
	g.busy.Store(false)
}

// InFlight reports whether a submission currently holds the guard.
func (g *Guard) InFlight() bool {
	return g.busy.Load()
}

// guardSet lazily allocates one guard per action key.
type guardSet struct {
	mu     sync.Mutex
	guards map[string]*Guard
}

func (s *guardSet) get(key string) *Guard {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.guards == nil {
		s.guards = make(map[string]*Guard)
	}
	g, ok := s.guards[key]
	if !ok {
		g = &Guard{}
		s.guards[key] = g
	}
	return g
}
