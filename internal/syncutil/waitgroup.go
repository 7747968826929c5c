package syncutil

import (
	"runtime/debug"
	"sync"
	"time"
)

// Go runs fn on a goroutine tracked by wg. A panic in fn is recovered and
// reported to onPanic with the goroutine stack; wg is released either way.
// A nil onPanic swallows the panic.
//
// Usage:
//
//	var wg sync.WaitGroup
//	syncutil.Go(&wg, func() {
//	    // work
//	}, func(v any, stack []byte) {
//	    logger.Error("handler panicked", "panic", v, "stack", string(stack))
//	})
//	wg.Wait()
func Go(wg *sync.WaitGroup, fn func(), onPanic func(v any, stack []byte)) {
	wg.Go(func() {
		defer func() {
			if v := recover(); v != nil && onPanic != nil {
				onPanic(v, debug.Stack())
			}
		}()
		fn()
	})
}

// WaitTimeout waits for wg up to d and reports whether it finished in time.
// On timeout the goroutines keep running; the caller decides what to drop.
func WaitTimeout(wg *sync.WaitGroup, d time.Duration) bool {
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-done:
		return true
	case <-timer.C:
		return false
	}
}
