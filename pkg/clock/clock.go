// Package clock makes the current time controllable from tests.
//
// Exported file names embed the current date and time. Tests freeze
// the clock to obtain reproducible names.
package clock

import (
	"sync"
	"time"
)

type Clock interface {
	Now() time.Time
}

type DefaultClock struct{}

func (c DefaultClock) Now() time.Time {
	return time.Now()
}

// TestClock is a clock whose time only moves when asked to.
type TestClock struct {
	mu  sync.Mutex
	now time.Time
}

func NewTestClockAt(date time.Time) *TestClock {
	return &TestClock{
		now: date,
	}
}

func (c *TestClock) FastForward(d time.Duration) time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
	return c.now
}

func (c *TestClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

var (
	clockMu        sync.RWMutex
	clockSingleton Clock = DefaultClock{}
)

func CurrentClock() Clock {
	clockMu.RLock()
	defer clockMu.RUnlock()
	return clockSingleton
}

// Same as time.Now() but makes possible to control time from unit tests.
func Now() time.Time {
	return CurrentClock().Now()
}

func FreezeAt(now time.Time) *TestClock {
	testClock := NewTestClockAt(now)
	clockMu.Lock()
	clockSingleton = testClock
	clockMu.Unlock()
	return testClock
}

func Freeze() *TestClock {
	return FreezeAt(time.Now())
}

func Unfreeze() {
	clockMu.Lock()
	clockSingleton = DefaultClock{}
	clockMu.Unlock()
}
