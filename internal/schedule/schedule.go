// Package schedule is the caller-driven refresh countdown. It owns no
// timers; the host calls Tick once per second.
package schedule

import (
	"fmt"
	"sync"

	"github.com/rileyhilliard/swarm/internal/errors"
)

// DefaultInterval is the refresh period in seconds when nothing is stored.
const DefaultInterval = 30

// Policy counts down to the next refresh.
type Policy struct {
	mu        sync.Mutex
	interval  int
	remaining int
}

// New creates a policy with the given interval, clamped to at least one second.
func New(interval int) *Policy {
	if interval < 1 {
		interval = DefaultInterval
	}
	return &Policy{interval: interval, remaining: interval}
}

// Interval returns the configured period in seconds.
func (p *Policy) Interval() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.interval
}

// Remaining returns the seconds left before the next refresh.
func (p *Policy) Remaining() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.remaining
}

// SetInterval changes the period and restarts the countdown.
func (p *Policy) SetInterval(seconds int) error {
	if seconds < 1 {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("Refresh interval must be at least 1 second, got %d", seconds),
			"Pick a value like 30")
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.interval = seconds
	p.remaining = seconds
	return nil
}

// Reset restarts the countdown, typically after a manual refresh or scan.
func (p *Policy) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.remaining = p.interval
}

// Tick advances one second. It is a no-op while a batch is running or the
// fleet is empty. Returns true when a refresh is due; the countdown is
// reset at that point.
func (p *Policy) Tick(busy, empty bool) bool {
	if busy || empty {
		return false
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.remaining--
	if p.remaining > 0 {
		return false
	}
	p.remaining = p.interval
	return true
}
