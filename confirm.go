package blogkit

import (
	"sync"
	"time"
)

// Guard implements two-step destructive actions. The first request for a
// target arms it; a second request for the same target within the window
// confirms it. Each owner (an admin session) has at most one armed target,
// and arming a new one disarms the previous.
type Guard struct {
	mu     sync.Mutex
	window time.Duration
	armed  map[string]armed
	now    func() time.Time
}

type armed struct {
	target string
	at     time.Time
}

// NewGuard creates a Guard whose confirmations expire after window.
func NewGuard(window time.Duration) *Guard {
	return &Guard{
		window: window,
		armed:  make(map[string]armed),
		now:    time.Now,
	}
}

// Request records a delete request from owner for target. It returns true
// when the request confirms an armed target, in which case the target is
// disarmed and the caller should execute the action. Otherwise target is
// armed and false is returned.
func (g *Guard) Request(owner, target string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	g.sweep(now)
	if a, ok := g.armed[owner]; ok && a.target == target {
		delete(g.armed, owner)
		return true
	}
	g.armed[owner] = armed{target: target, at: now}
	return false
}

// Armed returns the target currently awaiting confirmation for owner.
func (g *Guard) Armed(owner string) (string, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.sweep(g.now())
	a, ok := g.armed[owner]
	return a.target, ok
}

// Disarm cancels any pending target for owner.
func (g *Guard) Disarm(owner string) {
	g.mu.Lock()
	delete(g.armed, owner)
	g.mu.Unlock()
}

// Window returns the confirmation window.
func (g *Guard) Window() time.Duration {
	return g.window
}

func (g *Guard) sweep(now time.Time) {
	dropExpired(g.armed, now.Add(-g.window), func(a armed) time.Time { return a.at })
}
