package journey

import (
	"sync"
	"time"
)

// throttle tracks the last run time of a polling unit. Runs that arrive
// before the interval has elapsed are skipped, not deferred.
type throttle struct {
	interval time.Duration

	mu   sync.Mutex
	last time.Time
}

func (t *throttle) ready(now time.Time) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.last.IsZero() && now.Sub(t.last) < t.interval {
		return false
	}
	t.last = now
	return true
}
