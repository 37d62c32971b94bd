package lock

import "time"

// NewLockerWithRetry creates a Locker polling the lock file every d.
func NewLockerWithRetry(d time.Duration) *Locker {
	return &Locker{retryDelay: d}
}
