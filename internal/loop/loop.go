// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package loop is a cooperative, single-goroutine scheduler.
//
// All interactive state is owned by the goroutine that runs the Loop.
// Other goroutines hand work to it with Post. Work that spans many
// frames is split across RequestFrame callbacks and cancelled through
// Generation tokens.
package loop

import (
	"context"
	"sort"
	"sync"
	"time"
)

// A Clock tells the loop what time it is.
type Clock interface {
	Now() time.Time
}

// SystemClock is the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// ManualClock is a Clock that only moves when told to.
type ManualClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewManualClock returns a ManualClock set to t.
func NewManualClock(t time.Time) *ManualClock {
	return &ManualClock{now: t}
}

func (c *ManualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d.
func (c *ManualClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// A Timer is a callback scheduled by After.
type Timer struct {
	l       *Loop
	when    time.Time
	fn      func()
	stopped bool
}

// Stop cancels t. It reports whether t was still pending.
func (t *Timer) Stop() bool {
	t.l.mu.Lock()
	defer t.l.mu.Unlock()
	if t.stopped {
		return false
	}
	t.stopped = true
	t.l.removeTimer(t)
	return true
}

// Loop runs callbacks one at a time.
type Loop struct {
	clock Clock

	mu     sync.Mutex
	posted []func()
	timers []*Timer // sorted by when, then insertion
	frames []func(now time.Time)
	wake   chan struct{}
}

// New returns a Loop driven by clock. A nil clock is the SystemClock.
func New(clock Clock) *Loop {
	if clock == nil {
		clock = SystemClock{}
	}
	return &Loop{clock: clock, wake: make(chan struct{}, 1)}
}

// Clock returns the loop's clock.
func (l *Loop) Clock() Clock {
	return l.clock
}

// Now is shorthand for l.Clock().Now().
func (l *Loop) Now() time.Time {
	return l.clock.Now()
}

func (l *Loop) signal() {
	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// Post schedules fn to run on the loop. It is safe to call from any
// goroutine.
func (l *Loop) Post(fn func()) {
	l.mu.Lock()
	l.posted = append(l.posted, fn)
	l.mu.Unlock()
	l.signal()
}

// After schedules fn to run on the loop once d has elapsed.
func (l *Loop) After(d time.Duration, fn func()) *Timer {
	l.mu.Lock()
	t := &Timer{l: l, when: l.clock.Now().Add(d), fn: fn}
	i := sort.Search(len(l.timers), func(i int) bool {
		return l.timers[i].when.After(t.when)
	})
	l.timers = append(l.timers, nil)
	copy(l.timers[i+1:], l.timers[i:])
	l.timers[i] = t
	l.mu.Unlock()
	l.signal()
	return t
}

// removeTimer must be called with l.mu held.
func (l *Loop) removeTimer(t *Timer) {
	for i, x := range l.timers {
		if x == t {
			l.timers = append(l.timers[:i], l.timers[i+1:]...)
			return
		}
	}
}

// RequestFrame schedules fn to run in the next frame. Frames run at
// most once per Tick.
func (l *Loop) RequestFrame(fn func(now time.Time)) {
	l.mu.Lock()
	l.frames = append(l.frames, fn)
	l.mu.Unlock()
	l.signal()
}

// Tick runs all posted callbacks, then every timer that is due, then
// the callbacks of one frame. Callbacks scheduled while Tick runs wait
// for the next Tick. Tick returns the number of callbacks it ran.
func (l *Loop) Tick() int {
	now := l.clock.Now()
	l.mu.Lock()
	posted := l.posted
	l.posted = nil
	var due []*Timer
	for _, t := range l.timers {
		if t.when.After(now) {
			break
		}
		due = append(due, t)
	}
	l.mu.Unlock()

	n := 0
	for _, fn := range posted {
		fn()
		n++
	}

	for _, t := range due {
		l.mu.Lock()
		if t.stopped {
			l.mu.Unlock()
			continue
		}
		t.stopped = true
		l.removeTimer(t)
		l.mu.Unlock()
		t.fn()
		n++
	}

	l.mu.Lock()
	frames := l.frames
	l.frames = nil
	l.mu.Unlock()
	for _, fn := range frames {
		fn(now)
		n++
	}
	return n
}

// Pending reports whether any callback is waiting, including timers
// that are not yet due.
func (l *Loop) Pending() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.posted) > 0 || len(l.timers) > 0 || len(l.frames) > 0
}

// Flush calls Tick until nothing but future timers remain.
func (l *Loop) Flush() {
	for {
		l.Tick()
		l.mu.Lock()
		busy := len(l.posted) > 0 || len(l.frames) > 0 ||
			(len(l.timers) > 0 && !l.timers[0].when.After(l.clock.Now()))
		l.mu.Unlock()
		if !busy {
			return
		}
	}
}

// Run runs the loop until ctx is done. Frames are spaced
// frameInterval apart.
func (l *Loop) Run(ctx context.Context, frameInterval time.Duration) error {
	for {
		l.Tick()

		l.mu.Lock()
		wait := time.Duration(-1)
		if len(l.posted) > 0 {
			wait = 0
		} else if len(l.frames) > 0 {
			wait = frameInterval
		}
		if len(l.timers) > 0 {
			d := l.timers[0].when.Sub(l.clock.Now())
			if wait < 0 || d < wait {
				wait = max(d, 0)
			}
		}
		l.mu.Unlock()

		var timer *time.Timer
		var timeout <-chan time.Time
		if wait >= 0 {
			timer = time.NewTimer(wait)
			timeout = timer.C
		}
		select {
		case <-ctx.Done():
		case <-l.wake:
		case <-timeout:
		}
		if timer != nil {
			timer.Stop()
		}
		if err := ctx.Err(); err != nil {
			return err
		}
	}
}
