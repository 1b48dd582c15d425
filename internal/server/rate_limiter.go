package server

import (
	"sync"
	"time"
)

// rateLimiter is a fixed-window per-client counter. A limit of zero or a
// non-positive window disables limiting.
type rateLimiter struct {
	mu     sync.Mutex
	limit  int
	window time.Duration
	counts map[string]*windowCount

	now func() time.Time
}

type windowCount struct {
	start time.Time
	hits  int
}

func newRateLimiter(limit int, window time.Duration) *rateLimiter {
	if limit <= 0 || window <= 0 {
		return nil
	}
	return &rateLimiter{
		limit:  limit,
		window: window,
		counts: make(map[string]*windowCount),
		now:    time.Now,
	}
}

// Allow records one hit for the client and reports whether it stays within
// the window budget.
func (rl *rateLimiter) Allow(client string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	entry, ok := rl.counts[client]
	if !ok || now.Sub(entry.start) >= rl.window {
		rl.counts[client] = &windowCount{start: now, hits: 1}
		rl.sweepLocked(now)
		return true
	}

	entry.hits++
	return entry.hits <= rl.limit
}

// sweepLocked drops entries whose window has lapsed so the map does not grow
// with one-off clients. Caller holds the lock.
func (rl *rateLimiter) sweepLocked(now time.Time) {
	if len(rl.counts) < 1024 {
		return
	}
	for client, entry := range rl.counts {
		if now.Sub(entry.start) >= rl.window {
			delete(rl.counts, client)
		}
	}
}
