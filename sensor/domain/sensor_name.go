package domain

import (
	"errors"
	"fmt"
)

// MaxSensorNameLen is the longest name the recorder keeps; longer ids are cut there.
const MaxSensorNameLen = 31

// SensorName - the name of the sensor to use.
type SensorName string

// NewSensorName validates the given string and returns it as a SensorName.
// It returns an error if name is empty, longer than MaxSensorNameLen or holds
// bytes that cannot travel in a frame field.
func NewSensorName(name string) (SensorName, error) {
	if name == "" {
		return "", errors.New("sensor name cannot be empty")
	}
	if len(name) > MaxSensorNameLen {
		return "", fmt.Errorf("sensor name is longer than %d bytes", MaxSensorNameLen)
	}
	for i := 0; i < len(name); i++ {
		if c := name[i]; c <= ' ' || c > '~' || c == '|' {
			return "", fmt.Errorf("sensor name contains invalid byte 0x%02x", c)
		}
	}

	return SensorName(name), nil
}
