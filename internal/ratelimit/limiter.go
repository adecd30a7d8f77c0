// Package ratelimit provides per-client rate limiting for the Haven
// observability API.
package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limiter applies a token bucket per key (typically a client IP).
// Idle buckets are dropped after an expiry period so the map does not
// grow with every client ever seen.
type Limiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket

	limit  rate.Limit
	burst  int
	expiry time.Duration

	lastSweep time.Time
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewLimiter creates a limiter allowing limit events per second with
// the given burst per key.
func NewLimiter(limit float64, burst int) *Limiter {
	return &Limiter{
		buckets:   make(map[string]*bucket),
		limit:     rate.Limit(limit),
		burst:     burst,
		expiry:    10 * time.Minute,
		lastSweep: time.Now(),
	}
}

// Allow reports whether the event for the given key is within the
// rate limit.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	l.sweep(now)

	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.buckets[key] = b
	}
	b.lastSeen = now

	return b.limiter.Allow()
}

// sweep drops buckets that have been idle past the expiry. Called with
// the lock held, at most once per expiry period.
func (l *Limiter) sweep(now time.Time) {
	if now.Sub(l.lastSweep) < l.expiry {
		return
	}
	l.lastSweep = now

	for key, b := range l.buckets {
		if now.Sub(b.lastSeen) >= l.expiry {
			delete(l.buckets, key)
		}
	}
}

// Len returns the number of tracked keys.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}
