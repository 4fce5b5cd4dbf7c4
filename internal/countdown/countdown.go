// Copyright (C) 2020 The countdown Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package countdown provides the countdown Timer and the configuration, session, end-hook and UI
// layers which the CLI builds around it.
package countdown

import (
	"fmt"
	"math"
	"time"
)

const (
	// Interval is how often a running Timer decrements its remaining seconds.
	Interval = time.Second

	// SessionVersion is included in the encoded Session file to support potential compatibility work.
	SessionVersion = 1
)

// State describes where a Timer is in its lifecycle.
type State string

const (
	// Idle is the state of a new Timer, of one whose Start input was non-positive,
	// and of one which was stopped.
	Idle State = "idle"

	// Running indicates a scheduled handle is decrementing the remaining seconds.
	Running State = "running"

	// Paused indicates Pause canceled a running countdown and Resume may continue it.
	Paused State = "paused"

	// Ended indicates the remaining seconds reached zero through the countdown itself.
	Ended State = "ended"
)

// Event identifies a Listener notification.
type Event int

const (
	EventStarted Event = iota
	EventTicked
	EventStopped
	EventPaused
	EventResumed
	EventEnded
)

func (e Event) String() string {
	switch e {
	case EventStarted:
		return "started"
	case EventTicked:
		return "ticked"
	case EventStopped:
		return "stopped"
	case EventPaused:
		return "paused"
	case EventResumed:
		return "resumed"
	case EventEnded:
		return "ended"
	}
	return fmt.Sprintf("event(%d)", int(e))
}

// Normalize rounds seconds half away from zero to a whole second.
//
// NaN and infinite values become 0.
func Normalize(seconds float64) float64 {
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) {
		return 0
	}
	return math.Round(seconds)
}

// Format renders whole seconds as clock text: "MM:SS", or "H:MM:SS" from one hour up.
func Format(seconds float64) string {
	s := int64(Normalize(seconds))
	if s < 0 {
		s = 0
	}
	h, m, sec := s/3600, (s%3600)/60, s%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, sec)
	}
	return fmt.Sprintf("%02d:%02d", m, sec)
}
