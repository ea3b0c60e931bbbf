package ratelimit

import (
	"context"
	"sync"
	"time"
)

// RateLimiter implements a fixed-window in-memory limiter keyed by user id.
type RateLimiter struct {
	userLimits map[string]*userLimit
	mu         sync.RWMutex

	maxRequests int
	window      time.Duration
	now         func() time.Time
}

type userLimit struct {
	requests  int
	resetTime time.Time
}

// NewRateLimiter creates a new rate limiter. A maxRequests of zero or less
// disables limiting.
func NewRateLimiter(maxRequests int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		userLimits:  make(map[string]*userLimit),
		maxRequests: maxRequests,
		window:      window,
		now:         time.Now,
	}
}

// Allow consumes one request for userID and reports whether it was within
// the limit.
func (rl *RateLimiter) Allow(userID string) bool {
	if rl.maxRequests <= 0 {
		return true
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()

	limit, exists := rl.userLimits[userID]
	if !exists || now.After(limit.resetTime) {
		rl.userLimits[userID] = &userLimit{
			requests:  1,
			resetTime: now.Add(rl.window),
		}
		return true
	}

	if limit.requests >= rl.maxRequests {
		return false
	}

	limit.requests++
	return true
}

// Remaining returns remaining requests for userID in the current window.
func (rl *RateLimiter) Remaining(userID string) int {
	if rl.maxRequests <= 0 {
		return -1
	}

	rl.mu.RLock()
	defer rl.mu.RUnlock()

	limit, exists := rl.userLimits[userID]
	if !exists || rl.now().After(limit.resetTime) {
		return rl.maxRequests
	}

	remaining := rl.maxRequests - limit.requests
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Run removes expired windows every interval until ctx is done. It returns
// immediately when limiting is disabled or interval is not positive.
func (rl *RateLimiter) Run(ctx context.Context, interval time.Duration) {
	if rl.maxRequests <= 0 || interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rl.cleanup()
		}
	}
}

// cleanup removes expired entries
func (rl *RateLimiter) cleanup() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	removed := 0
	for userID, limit := range rl.userLimits {
		if now.After(limit.resetTime) {
			delete(rl.userLimits, userID)
			removed++
		}
	}
	return removed
}

// Reset clears all rate limits (useful for testing)
func (rl *RateLimiter) Reset() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.userLimits = make(map[string]*userLimit)
}
