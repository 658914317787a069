package domain

import "errors"

// FleetSize is how many emulated sensors one process runs.
type FleetSize uint32

// NewFleetSize validates size and returns it as a FleetSize.
func NewFleetSize(size int) (FleetSize, error) {
	if size <= 0 {
		return 0, errors.New("count must be greater than 0")
	}
	return FleetSize(size), nil
}
