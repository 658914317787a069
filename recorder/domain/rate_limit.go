package domain

import "errors"

// RateLimit is the maximum inbound frame volume, in bytes per second, accepted from
// one connection. Zero disables limiting.
type RateLimit uint32

// NewRateLimit rejects negative limits.
func NewRateLimit(val int) (RateLimit, error) {
	if val < 0 {
		return 0, errors.New("rate limit must not be negative")
	}
	return RateLimit(val), nil
}

// Enabled reports whether the limit should be enforced.
func (r RateLimit) Enabled() bool {
	return r > 0
}
