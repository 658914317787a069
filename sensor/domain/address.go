package domain

import (
	"errors"
	"fmt"
	"net"
)

// Address of the telemetry recorder in host:port form.
type Address string

// NewAddress validates the given string and returns it as an Address.
// It returns an error if address is empty or is not a host:port pair.
func NewAddress(address string) (Address, error) {
	if len(address) == 0 {
		return "", errors.New("address cannot be empty")
	}
	if _, _, err := net.SplitHostPort(address); err != nil {
		return "", fmt.Errorf("invalid address %q: %w", address, err)
	}
	return Address(address), nil
}
