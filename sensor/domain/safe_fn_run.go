package domain

import (
	"fmt"
)

// SafeFunctionRun executes fn with panic recovery so one broken emulator does not
// stop the rest of the fleet.
func SafeFunctionRun(fn func() error, logger Logger) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic: %v", rec)
			logger.Error("panic: %v", rec)
		}
	}()
	return fn()
}
