package resources

import "sync/atomic"

// Guard records whether artifact generation has been attempted during this
// process lifetime. The zero value is ready to use.
type Guard struct {
	attempted atomic.Bool
}

func (g *Guard) HasAttempted() bool { return g.attempted.Load() }

func (g *Guard) MarkAttempted() { g.attempted.Store(true) }

// Claim sets the guard and reports whether this caller was the one to set it.
func (g *Guard) Claim() bool { return g.attempted.CompareAndSwap(false, true) }
