package domain

import (
	"fmt"
	"log"
)

// Logger defines the contract for logging operations with different severity levels.
type Logger interface {
	Info(msg string, args ...interface{})
	Error(msg string, args ...interface{})
}

// StdLogger implements the Logger interface using Go's standard log package.
// Every line carries the emitting sensor's name.
type StdLogger struct {
	logger *log.Logger
	prefix string
}

// Info logs an informational message with INFO prefix.
func (l *StdLogger) Info(msg string, args ...interface{}) {
	l.logger.Printf("INFO: %s%s", l.prefix, fmt.Sprintf(msg, args...))
}

// Error logs an error message with ERROR prefix.
func (l *StdLogger) Error(msg string, args ...interface{}) {
	l.logger.Printf("ERROR: %s%s", l.prefix, fmt.Sprintf(msg, args...))
}

// With returns a logger that tags lines with name.
func (l *StdLogger) With(name SensorName) *StdLogger {
	return &StdLogger{logger: l.logger, prefix: "[" + string(name) + "] "}
}

// NewStdLogger creates a new StdLogger instance wrapping the provided standard logger.
func NewStdLogger(l *log.Logger) *StdLogger {
	return &StdLogger{logger: l}
}
