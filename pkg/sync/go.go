package sync

import "github.com/murtaza-nasir/maestro/pkg/safe"

// Go launches fn in a panic-safe goroutine. Thin re-export of safe.Go so
// callers that already import this package for Limiter don't need a second
// import for goroutine launching.
func Go(fn func(), errFns ...func(error)) {
	safe.Go(fn, errFns...)
}
