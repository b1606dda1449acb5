package safe

import (
	"fmt"

	"QGuard/logger"
)

// Go starts a new goroutine that recovers from panic,
// so that panics in timers/handlers don't crash the process.
func Go(f func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				logger.Errorf("[safe.Go] panic recovered: %v", r)
			}
		}()
		f()
	}()
}

// Recover is meant to be deferred at the top of event handlers.
func Recover(tag string) {
	if r := recover(); r != nil {
		logger.Errorf("[%s] panic recovered: %v", tag, r)
	}
}

// MustNotNil panics if the given value is nil.
// Useful for enforcing required fields during struct initialization.
func MustNotNil(v any, name string) {
	if v == nil {
		panic(fmt.Sprintf("%s must not be nil", name))
	}
}
