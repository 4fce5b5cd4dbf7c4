// Copyright (C) 2020 The countdown Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package countdown

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	cage_zap "github.com/codeactual/countdown/internal/cage/log/zap"
)

// Listener receives Timer lifecycle notifications.
//
// Methods are called synchronously, one at a time, and should return quickly.
type Listener interface {
	// Started is called after a successful Start with the starting seconds.
	Started(t *Timer, seconds float64)

	// Ticked is called once per Interval with the seconds remaining after the decrement.
	// The last call of a countdown passes 0 and is followed by Ended.
	Ticked(t *Timer, seconds float64)

	// Stopped is called by every Stop with the restored seconds.
	Stopped(t *Timer, seconds float64)

	// Paused is called by every Pause with the remaining seconds.
	Paused(t *Timer, seconds float64)

	// Resumed is called after a successful Resume with the remaining seconds.
	Resumed(t *Timer, seconds float64)

	// Ended is called when the countdown reaches zero.
	Ended(t *Timer)
}

// ListenerFuncs implements Listener with optional functions. Nil fields are skipped.
type ListenerFuncs struct {
	OnStarted func(t *Timer, seconds float64)
	OnTicked  func(t *Timer, seconds float64)
	OnStopped func(t *Timer, seconds float64)
	OnPaused  func(t *Timer, seconds float64)
	OnResumed func(t *Timer, seconds float64)
	OnEnded   func(t *Timer)
}

func (f ListenerFuncs) Started(t *Timer, seconds float64) {
	if f.OnStarted != nil {
		f.OnStarted(t, seconds)
	}
}

func (f ListenerFuncs) Ticked(t *Timer, seconds float64) {
	if f.OnTicked != nil {
		f.OnTicked(t, seconds)
	}
}

func (f ListenerFuncs) Stopped(t *Timer, seconds float64) {
	if f.OnStopped != nil {
		f.OnStopped(t, seconds)
	}
}

func (f ListenerFuncs) Paused(t *Timer, seconds float64) {
	if f.OnPaused != nil {
		f.OnPaused(t, seconds)
	}
}

func (f ListenerFuncs) Resumed(t *Timer, seconds float64) {
	if f.OnResumed != nil {
		f.OnResumed(t, seconds)
	}
}

func (f ListenerFuncs) Ended(t *Timer) {
	if f.OnEnded != nil {
		f.OnEnded(t)
	}
}

// Listeners fans each notification out to every element in order. Nil elements are skipped.
type Listeners []Listener

func (ls Listeners) Started(t *Timer, seconds float64) {
	for _, l := range ls {
		if l != nil {
			l.Started(t, seconds)
		}
	}
}

func (ls Listeners) Ticked(t *Timer, seconds float64) {
	for _, l := range ls {
		if l != nil {
			l.Ticked(t, seconds)
		}
	}
}

func (ls Listeners) Stopped(t *Timer, seconds float64) {
	for _, l := range ls {
		if l != nil {
			l.Stopped(t, seconds)
		}
	}
}

func (ls Listeners) Paused(t *Timer, seconds float64) {
	for _, l := range ls {
		if l != nil {
			l.Paused(t, seconds)
		}
	}
}

func (ls Listeners) Resumed(t *Timer, seconds float64) {
	for _, l := range ls {
		if l != nil {
			l.Resumed(t, seconds)
		}
	}
}

func (ls Listeners) Ended(t *Timer) {
	for _, l := range ls {
		if l != nil {
			l.Ended(t)
		}
	}
}

// LogListener writes every notification to Log at info level.
type LogListener struct {
	Log *zap.Logger

	// Label identifies the countdown in each message, e.g. a preset label.
	Label string
}

func (l LogListener) event(e Event, fields ...zapcore.Field) {
	l.Log.Info(
		e.String(),
		append([]zapcore.Field{cage_zap.Tag("listener"), zap.String("label", l.Label)}, fields...)...,
	)
}

func (l LogListener) Started(t *Timer, seconds float64) {
	l.event(EventStarted, zap.Float64("seconds", seconds))
}

func (l LogListener) Ticked(t *Timer, seconds float64) {
	l.event(EventTicked, zap.Float64("seconds", seconds))
}

func (l LogListener) Stopped(t *Timer, seconds float64) {
	l.event(EventStopped, zap.Float64("seconds", seconds))
}

func (l LogListener) Paused(t *Timer, seconds float64) {
	l.event(EventPaused, zap.Float64("seconds", seconds))
}

func (l LogListener) Resumed(t *Timer, seconds float64) {
	l.event(EventResumed, zap.Float64("seconds", seconds))
}

func (l LogListener) Ended(t *Timer) {
	l.event(EventEnded)
}

var _ Listener = ListenerFuncs{}
var _ Listener = Listeners{}
var _ Listener = LogListener{}
