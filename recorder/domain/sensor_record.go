package domain

import (
	"fmt"
	"time"
)

// MaxSensorIDLen is the number of usable bytes of a sensor id. The on-disk field is one
// byte longer so that every stored id is NUL terminated.
const MaxSensorIDLen = SensorIDSize - 1

// SensorID is a canonical sensor identifier: non-empty printable ASCII, at most
// MaxSensorIDLen bytes.
type SensorID string

// NewSensorID truncates raw to MaxSensorIDLen bytes and validates the result.
func NewSensorID(raw string) (SensorID, error) {
	if len(raw) > MaxSensorIDLen {
		raw = raw[:MaxSensorIDLen]
	}
	if raw == "" {
		return "", fmt.Errorf("%w: sensor id is empty", ErrValidation)
	}
	for i := 0; i < len(raw); i++ {
		if c := raw[i]; c < 0x20 || c > 0x7e {
			return "", fmt.Errorf("%w: sensor id has non-printable byte 0x%02x at %d", ErrValidation, c, i)
		}
	}

	return SensorID(raw), nil
}

// SensorRecord is one reading as it is persisted. Records are never modified after append.
type SensorRecord struct {
	SensorID  SensorID
	Timestamp int64 // seconds since the epoch
	Value     float64
}

// Time returns the record timestamp in the local zone.
func (r SensorRecord) Time() time.Time {
	return time.Unix(r.Timestamp, 0)
}
