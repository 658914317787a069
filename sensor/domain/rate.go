package domain

import "errors"

// Rate is the number of readings a sensor sends per second.
type Rate uint32

// NewRate validates rate and returns it as a Rate.
func NewRate(rate int) (Rate, error) {
	if rate <= 0 {
		return 0, errors.New("rate must be greater than 0")
	}
	return Rate(rate), nil
}
