// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package loop

import (
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

// Throttle limits calls of fn to one per interval. The first call in a
// quiet period runs immediately. Calls during the interval collapse
// into one trailing call at the end of it.
//
// A Throttle must only be used on its loop.
type Throttle struct {
	l       *Loop
	lim     *rate.Limiter
	fn      func()
	trailer *Timer
}

// NewThrottle returns a Throttle of fn on l.
func NewThrottle(l *Loop, interval time.Duration, fn func()) *Throttle {
	return &Throttle{l: l, lim: rate.NewLimiter(rate.Every(interval), 1), fn: fn}
}

// Call runs fn now or schedules the trailing call.
func (t *Throttle) Call() {
	if t.trailer != nil {
		return
	}
	now := t.l.Now()
	if t.lim.AllowN(now, 1) {
		t.fn()
		return
	}
	r := t.lim.ReserveN(now, 1)
	t.trailer = t.l.After(r.DelayFrom(now), func() {
		t.trailer = nil
		t.fn()
	})
}

// Pending reports whether a trailing call is scheduled.
func (t *Throttle) Pending() bool {
	return t.trailer != nil
}

// Cancel drops a pending trailing call.
func (t *Throttle) Cancel() {
	if t.trailer != nil {
		t.trailer.Stop()
		t.trailer = nil
	}
}

// Debounce runs fn once calls have stopped for a while.
//
// A Debounce must only be used on its loop.
type Debounce struct {
	l     *Loop
	d     time.Duration
	fn    func()
	timer *Timer
}

// NewDebounce returns a Debounce of fn with quiet period d.
func NewDebounce(l *Loop, d time.Duration, fn func()) *Debounce {
	return &Debounce{l: l, d: d, fn: fn}
}

// Call restarts the quiet period.
func (d *Debounce) Call() {
	d.Cancel()
	d.timer = d.l.After(d.d, func() {
		d.timer = nil
		d.fn()
	})
}

// Pending reports whether fn is scheduled.
func (d *Debounce) Pending() bool {
	return d.timer != nil
}

// Cancel drops the scheduled call, if any.
func (d *Debounce) Cancel() {
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

// Generation counts units of superseding work. Each call to Next
// makes every earlier Token stale.
type Generation struct {
	n atomic.Uint64
}

// Next starts a new generation and returns its token.
func (g *Generation) Next() Token {
	return Token{g, g.n.Add(1)}
}

// Current returns the current generation number.
func (g *Generation) Current() uint64 {
	return g.n.Load()
}

// A Token identifies one generation of work. The zero Token is always
// stale.
type Token struct {
	g  *Generation
	id uint64
}

// ID returns the generation number of t.
func (t Token) ID() uint64 {
	return t.id
}

// Stale reports whether a newer generation has started.
func (t Token) Stale() bool {
	return t.g == nil || t.g.n.Load() != t.id
}
