package domain

import (
	"fmt"
	"log"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

// Logger defines the contract for logging operations with different severity levels.
type Logger interface {
	// Info logs an informational message with optional formatted arguments.
	Info(msg string, args ...interface{})
	// Error logs an error message with optional formatted arguments.
	Error(msg string, args ...interface{})
}

// StdLogger implements the Logger interface using Go's standard log package.
type StdLogger struct {
	logger   *log.Logger
	infoTag  string
	errorTag string
}

// Info logs an informational message with INFO prefix using the underlying standard logger.
func (l *StdLogger) Info(msg string, args ...interface{}) {
	l.logger.Printf("%s %s", l.infoTag, fmt.Sprintf(msg, args...))
}

// Error logs an error message with ERROR prefix using the underlying standard logger.
func (l *StdLogger) Error(msg string, args ...interface{}) {
	l.logger.Printf("%s %s", l.errorTag, fmt.Sprintf(msg, args...))
}

// NewStdLogger creates a new StdLogger instance wrapping the provided standard logger.
// Level tags are coloured when colored is true.
func NewStdLogger(l *log.Logger, colored bool) *StdLogger {
	info := color.New(color.FgGreen)
	errc := color.New(color.FgRed, color.Bold)
	if colored {
		info.EnableColor()
		errc.EnableColor()
	} else {
		info.DisableColor()
		errc.DisableColor()
	}

	return &StdLogger{
		logger:   l,
		infoTag:  info.Sprint("INFO:"),
		errorTag: errc.Sprint("ERROR:"),
	}
}

// IsTerminal reports whether f is attached to a terminal, which is when log output gets colour.
func IsTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
