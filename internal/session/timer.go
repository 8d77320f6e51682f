package session

import (
	"sync"
	"time"
)

// Countdown is a cancellable delayed action: the shared primitive behind
// auto-resume, up-next auto-advance and any other "do X unless the user
// objects within N seconds" behavior. The action runs at most once.
type Countdown struct {
	mu        sync.Mutex
	timer     *time.Timer
	fired     bool
	cancelled bool
}

// NewCountdown schedules fn to run after d. Cancel before expiry prevents
// the action entirely.
func NewCountdown(d time.Duration, fn func()) *Countdown {
	c := &Countdown{}
	c.timer = time.AfterFunc(d, func() {
		c.mu.Lock()
		if c.cancelled {
			c.mu.Unlock()
			return
		}
		c.fired = true
		c.mu.Unlock()
		fn()
	})
	return c
}

// Cancel stops the countdown. It reports whether the action was actually
// prevented; cancelling after the action ran (or a second time) returns
// false. Safe to call from any goroutine.
func (c *Countdown) Cancel() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fired || c.cancelled {
		return false
	}
	c.cancelled = true
	c.timer.Stop()
	return true
}

// Fired reports whether the action has run.
func (c *Countdown) Fired() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fired
}
