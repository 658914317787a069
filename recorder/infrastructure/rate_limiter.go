package infrastructure

import (
	"sync"
	"time"

	recorderDomain "github.com/samoilenko/sensorlog/recorder/domain"
)

// Sized is anything with a wire size in bytes.
type Sized interface {
	Size() int
}

// RateLimiter implements a fixed window rate limiter over message sizes.
// It limits the total size of messages accepted within one time window.
type RateLimiter[K Sized] struct {
	last       time.Time
	mu         sync.Mutex
	timeWindow time.Duration
	maxLimit   recorderDomain.RateLimit
	limit      int
	now        func() time.Time
}

// Apply processes a message through the rate limiter, checking if it exceeds the configured rate limit.
//
// The rate limiter uses a fixed window approach:
// - If the window has elapsed since the last reset, it starts a new window
// - Otherwise, it accumulates the message size and checks against the limit
// - Messages exceeding the limit are rejected with a RateLimitError and not counted
func (r *RateLimiter[K]) Apply(msg K) error {
	if !r.maxLimit.Enabled() {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now()
	elapsed := now.Sub(r.last)
	size := msg.Size()
	if elapsed >= r.timeWindow {
		r.last = now
		r.limit = size

		return nil
	}

	if r.limit+size > int(r.maxLimit) {
		return &recorderDomain.RateLimitError{
			Message: "rate limit exceeded",
			Delay:   r.timeWindow - elapsed,
		}
	}
	r.limit += size

	return nil
}

// NewRateLimiter creates a new rate limiter instance with the specified maximum limit.
// A zero limit accepts everything.
func NewRateLimiter[K Sized](maxLimit recorderDomain.RateLimit, timeWindow time.Duration) *RateLimiter[K] {
	return &RateLimiter[K]{
		maxLimit:   maxLimit,
		timeWindow: timeWindow,
		now:        time.Now,
	}
}
