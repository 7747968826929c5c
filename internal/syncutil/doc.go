// Package syncutil tracks goroutines that must not take the process down.
//
// Go spawns a goroutine on a WaitGroup and recovers any panic it raises:
//
//	var wg sync.WaitGroup
//	syncutil.Go(&wg, work, onPanic)
//
// WaitTimeout bounds how long a shutdown waits for those goroutines:
//
//	if !syncutil.WaitTimeout(&wg, 5*time.Second) {
//	    logger.Warn("drain window elapsed")
//	}
package syncutil
