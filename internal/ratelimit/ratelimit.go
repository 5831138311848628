// Package ratelimit bounds attempts per client key over a sliding window.
// The deployment is single-process, so the counters live in memory; the
// keying scheme (per identifier, per window) mirrors what a shared-store
// limiter would use.
package ratelimit

import (
	"sync"
	"time"
)

// Limiter is a sliding-window counter. Every call counts toward the budget,
// successful or not; the window drains only by time.
type Limiter struct {
	mu      sync.Mutex
	limit   int
	window  time.Duration
	now     func() time.Time
	entries map[string][]time.Time
}

func New(limit int, window time.Duration) *Limiter {
	return &Limiter{
		limit:   limit,
		window:  window,
		now:     time.Now,
		entries: map[string][]time.Time{},
	}
}

// Allow records an attempt for key and reports whether it is within budget.
// When over budget it returns the wait until the oldest attempt leaves the
// window.
func (l *Limiter) Allow(key string) (bool, time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	cutoff := now.Add(-l.window)

	kept := l.entries[key][:0]
	for _, t := range l.entries[key] {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}

	if len(kept) >= l.limit {
		l.entries[key] = kept
		return false, kept[0].Sub(cutoff)
	}

	l.entries[key] = append(kept, now)
	return true, 0
}

// Prune drops keys whose every attempt has left the window. Called by the
// housekeeping janitor so idle keys do not accumulate.
func (l *Limiter) Prune() {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := l.now().Add(-l.window)
	for key, attempts := range l.entries {
		live := false
		for _, t := range attempts {
			if t.After(cutoff) {
				live = true
				break
			}
		}
		if !live {
			delete(l.entries, key)
		}
	}
}
