package search

import (
	"sync"
	"time"
)

// moreThrottleInterval is the minimum spacing between accepted "show more"
// taps per user. Faster taps are acknowledged but ignored.
const moreThrottleInterval = time.Second

// Throttle rate-limits pagination taps per user.
type Throttle struct {
	mu   sync.Mutex
	last map[int64]time.Time
	now  func() time.Time
}

// NewThrottle creates a throttle using the wall clock.
func NewThrottle() *Throttle {
	return &Throttle{last: make(map[int64]time.Time), now: time.Now}
}

// SetClock overrides the time source. Tests only.
func (t *Throttle) SetClock(now func() time.Time) { t.now = now }

// Allow reports whether a tap from userID may proceed, recording the tap
// time when it does. Suppressed taps do not push the window forward.
func (t *Throttle) Allow(userID int64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	if prev, ok := t.last[userID]; ok && now.Sub(prev) < moreThrottleInterval {
		return false
	}
	t.last[userID] = now
	return true
}
