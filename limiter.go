package blogkit

import (
	"sync"
	"time"
)

// LoginLimiter counts failed logins per IP over a sliding window. Stale IPs
// are swept lazily while recording, at most once per window.
type LoginLimiter struct {
	mu       sync.Mutex
	max      int
	window   time.Duration
	failures map[string][]time.Time
	swept    time.Time
	now      func() time.Time
}

// NewLoginLimiter allows max failures per IP within window.
func NewLoginLimiter(max int, window time.Duration) *LoginLimiter {
	return &LoginLimiter{
		max:      max,
		window:   window,
		failures: make(map[string][]time.Time),
		now:      time.Now,
	}
}

// Check reports whether ip may try another login. It records nothing.
func (l *LoginLimiter) Check(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.recent(ip, l.now())) < l.max
}

// Record counts a failed login from ip.
func (l *LoginLimiter) Record(ip string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.failures[ip] = append(l.recent(ip, now), now)
	if now.Sub(l.swept) >= l.window {
		dropExpired(l.failures, now.Add(-l.window), lastFailure)
		l.swept = now
	}
}

// tracked returns how many IPs currently hold failures.
func (l *LoginLimiter) tracked() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.failures)
}

func (l *LoginLimiter) recent(ip string, now time.Time) []time.Time {
	hits := since(l.failures[ip], now.Add(-l.window))
	if len(hits) == 0 {
		delete(l.failures, ip)
		return nil
	}
	l.failures[ip] = hits
	return hits
}

func lastFailure(hits []time.Time) time.Time {
	if len(hits) == 0 {
		return time.Time{}
	}
	return hits[len(hits)-1]
}
