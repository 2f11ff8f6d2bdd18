// Copyright 2024 - 2026, the Nivelo contributors
// SPDX-License-Identifier: AGPL-3.0-only

package contact

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// staleAfter controls when idle per-IP limiters are dropped.
const staleAfter = time.Hour

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter applies a token-bucket limit per client IP.
type RateLimiter struct {
	mu      sync.Mutex
	entries map[string]*limiterEntry
	limit   rate.Limit
	burst   int
}

// NewRateLimiter allows ratePerMinute submissions per minute with the given
// burst per client IP.
func NewRateLimiter(ratePerMinute, burst int) *RateLimiter {
	return &RateLimiter{
		entries: make(map[string]*limiterEntry),
		limit:   rate.Limit(float64(ratePerMinute) / 60.0),
		burst:   burst,
	}
}

// Allow reports whether a submission from the given IP may proceed.
func (rl *RateLimiter) Allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()

	entry, ok := rl.entries[ip]
	if !ok {
		rl.evictStale(now)

		entry = &limiterEntry{
			limiter:  rate.NewLimiter(rl.limit, rl.burst),
			lastSeen: now,
		}
		rl.entries[ip] = entry
	}

	entry.lastSeen = now

	return entry.limiter.Allow()
}

// evictStale drops limiters that have been idle long enough to refill
// completely. Called with rl.mu held.
func (rl *RateLimiter) evictStale(now time.Time) {
	for ip, entry := range rl.entries {
		if now.Sub(entry.lastSeen) > staleAfter {
			delete(rl.entries, ip)
		}
	}
}
