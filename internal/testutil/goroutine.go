// Package testutil carries helpers shared by tests.
package testutil

import (
	"runtime"
	"testing"
	"time"
)

// AssertNoGoroutineLeaks fails the test if the goroutine count has not
// settled back to the baseline (plus margin) within the wait window.
// Capture the baseline with runtime.NumGoroutine() before starting the
// code under test.
func AssertNoGoroutineLeaks(t *testing.T, baseline, margin int, wait time.Duration) {
	t.Helper()

	deadline := time.Now().Add(wait)
	var current int
	for time.Now().Before(deadline) {
		current = runtime.NumGoroutine()
		if current <= baseline+margin {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Errorf("goroutine leak: baseline %d, now %d (margin %d)", baseline, current, margin)
}
