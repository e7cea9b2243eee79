package listate

import "time"

// Scheduler runs f once after d has elapsed.
// Implementations must not run f synchronously inside AfterFunc.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

// Timer is a pending scheduled call.
type Timer interface {
	// Stop cancels the call. Returns false if it already ran or was stopped.
	Stop() bool
}

// WallClock schedules with time.AfterFunc.
type WallClock struct{}

// AfterFunc implements Scheduler.
func (WallClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}
