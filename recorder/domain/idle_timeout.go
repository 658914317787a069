package domain

import (
	"errors"
	"time"
)

// IdleTimeout is how long a sensor log handle may stay unused before the store closes it.
type IdleTimeout time.Duration

// NewIdleTimeout validates that the timeout is positive.
func NewIdleTimeout(val time.Duration) (IdleTimeout, error) {
	if val <= 0 {
		return 0, errors.New("handle idle timeout must be greater than 0")
	}
	return IdleTimeout(val), nil
}
