// Package ratelimit provides the per-client sliding-window admission check
// that sits in front of every chat request.
package ratelimit

import (
	"sync"
	"time"
)

const (
	// DefaultLimit is the maximum number of requests allowed per client
	// within the window when no explicit limit is configured.
	DefaultLimit = 30

	// DefaultWindow is the sliding window duration.
	DefaultWindow = time.Minute
)

// Limiter enforces a per-client sliding-window rate limit.
//
// Internally it holds the request timestamps for each client within the
// current window and prunes stale entries on every Allow call. Rejected
// requests are not recorded, so memory stays bounded to O(limit) entries
// per active client.
//
// Limiter is safe for concurrent use from multiple goroutines.
type Limiter struct {
	mu      sync.Mutex
	limit   int
	window  time.Duration
	windows map[string][]time.Time // clientKey → request timestamps in window
}

// New returns a Limiter that allows at most limit requests per client
// within window.
//
// If limit ≤ 0 it defaults to DefaultLimit.
// If window ≤ 0 it defaults to one minute.
func New(limit int, window time.Duration) *Limiter {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if window <= 0 {
		window = DefaultWindow
	}
	return &Limiter{
		limit:   limit,
		window:  window,
		windows: make(map[string][]time.Time),
	}
}

// Allow returns true when the client is permitted to make another request
// and records the current timestamp. Returns false when the client has
// exhausted their quota for the current window; a rejected request does
// not consume a slot.
func (l *Limiter) Allow(clientKey string) bool {
	return l.allowAt(clientKey, time.Now())
}

// allowAt is the time-injectable core of Allow (for testing).
func (l *Limiter) allowAt(clientKey string, now time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := now.Add(-l.window)

	// Prune timestamps that have fallen outside the window.
	existing := l.windows[clientKey]
	valid := existing[:0] // reuse backing array
	for _, t := range existing {
		if t.After(cutoff) {
			valid = append(valid, t)
		}
	}

	if len(valid) >= l.limit {
		l.windows[clientKey] = valid
		return false
	}

	l.windows[clientKey] = append(valid, now)
	return true
}

// Remaining returns the number of requests the client can still make within
// the current window. A return value of 0 means the next Allow call will
// return false.
func (l *Limiter) Remaining(clientKey string) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := time.Now().Add(-l.window)
	count := 0
	for _, t := range l.windows[clientKey] {
		if t.After(cutoff) {
			count++
		}
	}
	rem := l.limit - count
	if rem < 0 {
		return 0
	}
	return rem
}

// ActiveClients returns the number of clients currently holding window state.
func (l *Limiter) ActiveClients() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.windows)
}

// Sweep removes window state for clients whose newest timestamp is older
// than twice the window, bounding memory for inactive clients. It is meant
// to run from the background cleanup schedule and is safe to run
// concurrently with Allow. Returns the number of clients removed.
func (l *Limiter) Sweep(now time.Time) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := now.Add(-2 * l.window)
	removed := 0
	for key, stamps := range l.windows {
		if len(stamps) == 0 || !stamps[len(stamps)-1].After(cutoff) {
			delete(l.windows, key)
			removed++
		}
	}
	return removed
}
