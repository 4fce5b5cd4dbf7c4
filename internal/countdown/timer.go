// Copyright (C) 2020 The countdown Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package countdown

import (
	"sync"

	"go.uber.org/zap"

	cage_zap "github.com/codeactual/countdown/internal/cage/log/zap"
	cage_time "github.com/codeactual/countdown/internal/cage/time"
)

// notification is a queued Listener call, captured in the same critical section as the state
// change it describes.
type notification struct {
	event   Event
	seconds float64
}

// Timer counts down whole seconds, one per Interval, and notifies its Listener of each
// lifecycle event.
//
// At most one scheduled handle exists at a time. Start, Stop and Pause replace or cancel it under
// the same lock that ticks use to verify they still belong to the current handle, so a tick from
// a superseded handle is never applied.
//
// Notifications are queued in the order of the state changes and delivered one at a time without
// the lock held. A Listener may therefore call any Timer method, including SetListener, from
// inside a notification; notifications caused by such calls are delivered after the current one
// returns. When only one goroutine uses the Timer, all notifications of an operation are
// delivered before it returns.
type Timer struct {
	// Clock supplies the ticker behind each scheduled handle.
	Clock cage_time.Clock

	// Log receives debug-level messages about control operations.
	Log *zap.Logger

	mu sync.Mutex

	// handle is non-nil iff the countdown is running.
	handle *cage_time.Handle

	listener Listener

	remaining float64
	starting  float64
	state     State

	// pending holds notifications not yet delivered.
	pending []notification

	// delivering is true while some goroutine is draining pending.
	delivering bool
}

// NewTimer returns an Idle timer driven by the real clock.
func NewTimer(log *zap.Logger) *Timer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Timer{
		Clock: cage_time.RealClock{},
		Log:   log,
		state: Idle,
	}
}

// Start begins a new countdown of seconds, rounded to the nearest whole second.
//
// Any running countdown is canceled first. If the rounded value is not positive, the timer is
// left inactive with zero remaining seconds, the starting seconds are kept, and no
// notification is sent.
func (t *Timer) Start(seconds float64) {
	seconds = Normalize(seconds)

	t.mu.Lock()
	t.cancel()

	if seconds <= 0 {
		t.remaining = 0
		t.state = Idle
		t.mu.Unlock()

		t.log().Debug("ignored non-positive start", cage_zap.Tag("timer"), zap.Float64("seconds", seconds))
		return
	}

	t.remaining = seconds
	t.starting = seconds
	t.schedule()
	t.enqueue(EventStarted, t.remaining)
	t.mu.Unlock()

	t.log().Debug("start", cage_zap.Tag("timer"), zap.Float64("seconds", seconds))

	t.deliver()
}

// Stop cancels the countdown, if any, and restores the remaining seconds to the starting
// seconds of the last successful Start.
//
// The Stopped notification is sent even if the timer was not running.
func (t *Timer) Stop() {
	t.mu.Lock()
	t.cancel()
	t.remaining = t.starting
	t.state = Idle
	t.enqueue(EventStopped, t.remaining)
	remaining := t.remaining
	t.mu.Unlock()

	t.log().Debug("stop", cage_zap.Tag("timer"), zap.Float64("remaining", remaining))

	t.deliver()
}

// Pause cancels the countdown, if any, and keeps the remaining seconds.
//
// The Paused notification is sent even if the timer was not running.
func (t *Timer) Pause() {
	t.mu.Lock()
	if t.cancel() {
		t.state = Paused
	}
	t.enqueue(EventPaused, t.remaining)
	remaining := t.remaining
	t.mu.Unlock()

	t.log().Debug("pause", cage_zap.Tag("timer"), zap.Float64("remaining", remaining))

	t.deliver()
}

// Resume continues counting down from the remaining seconds.
//
// It does nothing, and sends no notification, if no seconds remain or the timer is already running.
func (t *Timer) Resume() {
	t.mu.Lock()
	if t.remaining <= 0 || t.active() {
		t.mu.Unlock()
		return
	}
	t.schedule()
	t.enqueue(EventResumed, t.remaining)
	remaining := t.remaining
	t.mu.Unlock()

	t.log().Debug("resume", cage_zap.Tag("timer"), zap.Float64("remaining", remaining))

	t.deliver()
}

// Restore loads counters from a saved session into the timer, canceling any countdown.
//
// Both values are rounded and clamped to zero, and remaining is capped by starting. The timer is
// Paused if seconds remain, otherwise Idle. No notification is sent; Resume continues the countdown.
func (t *Timer) Restore(starting, remaining float64) {
	starting = Normalize(starting)
	if starting < 0 {
		starting = 0
	}
	remaining = Normalize(remaining)
	if remaining < 0 {
		remaining = 0
	}
	if remaining > starting {
		remaining = starting
	}

	t.mu.Lock()
	t.cancel()
	t.starting = starting
	t.remaining = remaining
	if remaining > 0 {
		t.state = Paused
	} else {
		t.state = Idle
	}
	t.mu.Unlock()

	t.log().Debug("restore", cage_zap.Tag("timer"), zap.Float64("starting", starting), zap.Float64("remaining", remaining))
}

// Remaining returns the seconds left in the countdown.
func (t *Timer) Remaining() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.remaining
}

// Starting returns the seconds passed to the last successful Start.
func (t *Timer) Starting() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.starting
}

// IsActive reports whether the timer is counting down.
func (t *Timer) IsActive() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.active()
}

// State returns the lifecycle state.
func (t *Timer) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state == "" {
		return Idle
	}
	return t.state
}

// Listener returns the current listener, or nil.
func (t *Timer) Listener() Listener {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.listener
}

// SetListener replaces the listener. A nil value clears it.
//
// Notifications which are already queued are delivered to the listener that is current
// at delivery time.
func (t *Timer) SetListener(l Listener) {
	t.mu.Lock()
	t.listener = l
	t.mu.Unlock()
}

// tick is called by the goroutine of a scheduled handle once per Interval.
func (t *Timer) tick(h *cage_time.Handle) {
	t.mu.Lock()
	if h != t.handle {
		t.mu.Unlock()

		t.log().Debug("dropped tick from superseded handle", cage_zap.Tag("timer"))
		return
	}

	t.remaining--
	if t.remaining < 0 {
		t.remaining = 0
	}
	t.enqueue(EventTicked, t.remaining)

	ended := t.remaining <= 0
	if ended {
		t.cancel()
		t.remaining = 0
		t.state = Ended
		t.enqueue(EventEnded, 0)
	}
	t.mu.Unlock()

	if ended {
		t.log().Debug("end", cage_zap.Tag("timer"))
	}

	t.deliver()
}

// schedule installs a new handle. The caller must hold mu and must have canceled the old handle.
func (t *Timer) schedule() {
	clock := t.Clock
	if clock == nil {
		clock = cage_time.RealClock{}
	}
	t.handle = cage_time.Schedule(clock, Interval, t.tick)
	t.state = Running
}

// cancel invalidates the current handle, if any, and reports whether one existed.
// The caller must hold mu.
func (t *Timer) cancel() bool {
	if t.handle == nil {
		return false
	}
	t.handle.Cancel()
	t.handle = nil
	return true
}

// active must be called with mu held.
func (t *Timer) active() bool {
	return t.handle != nil && t.handle.Valid()
}

// enqueue must be called with mu held.
func (t *Timer) enqueue(e Event, seconds float64) {
	t.pending = append(t.pending, notification{event: e, seconds: seconds})
}

// deliver drains pending notifications unless another call is already doing so.
func (t *Timer) deliver() {
	t.mu.Lock()
	if t.delivering {
		t.mu.Unlock()
		return
	}
	t.delivering = true

	for len(t.pending) > 0 {
		n := t.pending[0]
		t.pending = t.pending[1:]
		l := t.listener
		t.mu.Unlock()

		t.notify(l, n)

		t.mu.Lock()
	}

	t.delivering = false
	t.pending = nil
	t.mu.Unlock()
}

// notify calls the listener without mu held.
//
// If the listener panics, the queue is reset so later operations can deliver again.
func (t *Timer) notify(l Listener, n notification) {
	defer func() {
		if r := recover(); r != nil {
			t.mu.Lock()
			t.delivering = false
			t.pending = nil
			t.mu.Unlock()
			panic(r)
		}
	}()

	if l == nil {
		return
	}

	switch n.event {
	case EventStarted:
		l.Started(t, n.seconds)
	case EventTicked:
		l.Ticked(t, n.seconds)
	case EventStopped:
		l.Stopped(t, n.seconds)
	case EventPaused:
		l.Paused(t, n.seconds)
	case EventResumed:
		l.Resumed(t, n.seconds)
	case EventEnded:
		l.Ended(t)
	}
}

func (t *Timer) log() *zap.Logger {
	if t.Log == nil {
		return zap.NewNop()
	}
	return t.Log
}
