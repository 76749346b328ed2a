package service

import (
	"sync"
	"time"
)

type fakeTimer struct {
	clock    *fakeClock
	d        time.Duration
	f        func()
	periodic bool
	stopped  bool
}

func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	if t.stopped {
		return false
	}
	t.stopped = true
	return true
}

// fakeClock only fires timers when the test calls Fire.
type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*fakeTimer
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Unix(1715003456, 0)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) Timer {
	return c.add(d, f, false)
}

func (c *fakeClock) Every(d time.Duration, f func()) Timer {
	return c.add(d, f, true)
}

func (c *fakeClock) add(d time.Duration, f func(), periodic bool) *fakeTimer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{clock: c, d: d, f: f, periodic: periodic}
	c.timers = append(c.timers, t)
	return t
}

// active returns the timers that are still armed, one-shot or periodic.
func (c *fakeClock) active(periodic bool) []*fakeTimer {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []*fakeTimer
	for _, t := range c.timers {
		if !t.stopped && t.periodic == periodic {
			out = append(out, t)
		}
	}
	return out
}

// Fire runs t's callback as the runtime would when it expires.
func (c *fakeClock) Fire(t *fakeTimer) {
	c.mu.Lock()
	if t.stopped {
		c.mu.Unlock()
		return
	}
	if !t.periodic {
		t.stopped = true
	}
	c.mu.Unlock()
	t.f()
}
