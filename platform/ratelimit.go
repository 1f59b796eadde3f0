package platform

import (
	"sync"
	"time"

	"github.com/cityzenmag/socialhub/model"
)

// RateLimiter bounds outbound request volume for one adapter with a
// rolling hourly window. Each adapter owns its own limiter; there is no
// cross-adapter shared state.
type RateLimiter struct {
	mu          sync.Mutex
	limit       int
	window      time.Duration
	windowStart time.Time
	count       int
	now         func() time.Time
	platform    model.Platform
}

// NewRateLimiter creates a limiter allowing requestsPerHour calls per
// rolling hour. A non-positive limit disables the limiter.
func NewRateLimiter(p model.Platform, requestsPerHour int) *RateLimiter {
	return &RateLimiter{
		limit:    requestsPerHour,
		window:   time.Hour,
		now:      time.Now,
		platform: p,
	}
}

// SetClock replaces the limiter's time source. Used by tests to simulate
// window rollover.
func (r *RateLimiter) SetClock(now func() time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.now = now
}

// Take consumes one request slot. It returns a rate_limit classified error
// once the window is exhausted; the window resets after an hour.
func (r *RateLimiter) Take() error {
	if r == nil || r.limit <= 0 {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	if r.windowStart.IsZero() || now.Sub(r.windowStart) >= r.window {
		r.windowStart = now
		r.count = 0
	}

	if r.count >= r.limit {
		return Errorf(r.platform, "rate_limit", KindRateLimit,
			"request limit of %d per hour exceeded, window resets at %s",
			r.limit, r.windowStart.Add(r.window).Format(time.RFC3339))
	}

	r.count++
	return nil
}

// Remaining returns the number of slots left in the current window.
func (r *RateLimiter) Remaining() int {
	if r == nil || r.limit <= 0 {
		return -1
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	if r.windowStart.IsZero() || now.Sub(r.windowStart) >= r.window {
		return r.limit
	}
	return r.limit - r.count
}
