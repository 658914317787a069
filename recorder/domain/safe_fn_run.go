package domain

import (
	"fmt"
)

// SafeFunctionRun runs fn and turns a panic into a logged error so one broken
// session cannot take the recorder down.
func SafeFunctionRun(fn func() error, logger Logger) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic: %v", rec)
			logger.Error("panic: %v", rec)
		}
	}()
	return fn()
}
