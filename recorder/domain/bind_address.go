package domain

import (
	"errors"
	"fmt"
	"net"
	"strconv"
)

// BindAddress is the TCP address the recorder listens on for sensor connections.
//
// Valid address formats:
//   - "localhost:9000"
//   - "0.0.0.0:9000"
//   - ":9000" (binds to all interfaces)
//   - "[::1]:9000" (IPv6)
type BindAddress string

// NewBindAddress validates that value is a host:port pair with a numeric port in range.
func NewBindAddress(value string) (BindAddress, error) {
	if value == "" {
		return "", errors.New("bind address must be non-empty")
	}

	_, port, err := net.SplitHostPort(value)
	if err != nil {
		return "", fmt.Errorf("invalid bind address format: %w", err)
	}

	n, err := strconv.Atoi(port)
	if err != nil {
		return "", fmt.Errorf("port must be a number: %s", port)
	}
	if n < 0 || n > 65535 {
		return "", fmt.Errorf("port out of range: %d", n)
	}

	return BindAddress(value), nil
}
