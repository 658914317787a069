package domain

import (
	"errors"
	"fmt"
	"time"
)

// ErrValidation is a sentinel error used to indicate validation failures.
// This error should be wrapped with additional context using fmt.Errorf
// to provide specific details about what validation failed.
var ErrValidation = errors.New("validation failed")

// ErrMalformedMessage marks a frame whose keyword is known but whose fields are
// missing or unparseable. The frame is dropped and the connection stays open.
var ErrMalformedMessage = errors.New("malformed message")

// ErrUnsupportedType marks an empty frame or a frame with an unknown keyword.
var ErrUnsupportedType = errors.New("unsupported message type")

// ErrUnknownSensor is returned by a tail read for a sensor that has no log.
var ErrUnknownSensor = errors.New("unknown sensor")

// ErrStoreIO classifies filesystem failures surfaced by the store.
var ErrStoreIO = errors.New("store io failure")

// ErrCorruption marks a log whose size is not a whole number of records.
var ErrCorruption = errors.New("sensor log corrupted")

// RateLimitError represents an error that occurs when a rate limit is exceeded.
// Delay is the time left in the current window.
type RateLimitError struct {
	Delay   time.Duration
	Message string
}

// Error implements the error interface, returning the error message.
func (e *RateLimitError) Error() string {
	return e.Message
}

// DecodeError is returned when a buffer handed to DecodeRecord is not exactly one record long.
type DecodeError struct {
	Size int
}

// Error implements the error interface.
func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode record: got %d bytes, want %d", e.Size, RecordSize)
}

// StoreError describes a failed filesystem operation on one sensor log.
type StoreError struct {
	Op       string
	SensorID string
	Err      error
}

// Error implements the error interface.
func (e *StoreError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.SensorID, e.Err)
}

// Unwrap returns the underlying filesystem error.
func (e *StoreError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is(err, ErrStoreIO) match any StoreError.
func (e *StoreError) Is(target error) bool {
	return target == ErrStoreIO
}
