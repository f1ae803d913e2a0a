// Package quota limits how fast each session may call the shell API.
package quota

import (
	"context"
	"math"
	"sync"
	"time"
)

// bucket is a token bucket refilled at rpm tokens per minute.
type bucket struct {
	tokens     float64
	lastRefill time.Time
}

// RateLimiter keeps one token bucket per key. A limit of zero or less
// means unlimited.
type RateLimiter struct {
	rpm int
	now func() time.Time

	mu      sync.Mutex
	buckets map[string]*bucket
}

// NewRateLimiter allows rpm requests per minute per key, with bursts of
// up to rpm.
func NewRateLimiter(rpm int) *RateLimiter {
	return &RateLimiter{
		rpm:     rpm,
		now:     time.Now,
		buckets: make(map[string]*bucket),
	}
}

// Limit returns the requests per minute allowed per key.
func (rl *RateLimiter) Limit() int { return rl.rpm }

// Allow takes a token from key's bucket and reports whether one was left.
func (rl *RateLimiter) Allow(key string) bool {
	if rl.rpm <= 0 {
		return true
	}
	rl.mu.Lock()
	defer rl.mu.Unlock()

	b := rl.refill(key)
	if b.tokens < 1 {
		return false
	}
	b.tokens--
	return true
}

// RetryAfter returns the seconds until key's bucket holds a token again.
func (rl *RateLimiter) RetryAfter(key string) int {
	if rl.rpm <= 0 {
		return 0
	}
	rl.mu.Lock()
	defer rl.mu.Unlock()

	b := rl.refill(key)
	if b.tokens >= 1 {
		return 0
	}
	perSecond := float64(rl.rpm) / 60
	return int(math.Ceil((1 - b.tokens) / perSecond))
}

// refill must be called with mu held.
func (rl *RateLimiter) refill(key string) *bucket {
	now := rl.now()
	b, ok := rl.buckets[key]
	if !ok {
		b = &bucket{tokens: float64(rl.rpm), lastRefill: now}
		rl.buckets[key] = b
		return b
	}
	elapsed := now.Sub(b.lastRefill).Seconds()
	b.tokens = math.Min(float64(rl.rpm), b.tokens+elapsed*float64(rl.rpm)/60)
	b.lastRefill = now
	return b
}

// Forget drops key's bucket.
func (rl *RateLimiter) Forget(key string) {
	rl.mu.Lock()
	delete(rl.buckets, key)
	rl.mu.Unlock()
}

// Cleanup drops buckets untouched for longer than olderThan and returns
// how many it dropped.
func (rl *RateLimiter) Cleanup(olderThan time.Duration) int {
	cutoff := rl.now().Add(-olderThan)
	rl.mu.Lock()
	defer rl.mu.Unlock()
	n := 0
	for key, b := range rl.buckets {
		if b.lastRefill.Before(cutoff) {
			delete(rl.buckets, key)
			n++
		}
	}
	return n
}

// RunCleanup calls Cleanup every interval until ctx is done.
func (rl *RateLimiter) RunCleanup(ctx context.Context, interval, olderThan time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rl.Cleanup(olderThan)
		}
	}
}
