// Copyright (C) 2019 The CodeActual Go Environment Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package watcher

import (
	"fmt"
	"time"
)

// Op is used for file/directory operation codes.
type Op uint8

const (
	Create Op = 1 << iota
	Rename
	Remove
	Write
)

func (o Op) String() string {
	switch o {
	case Create:
		return "Create"
	case Rename:
		return "Rename"
	case Remove:
		return "Remove"
	case Write:
		return "Write"
	}
	return fmt.Sprintf("Op(%d)", uint8(o))
}

// Event instances are passed to Subscriber implementations on file/directory activity.
type Event struct {
	// Path holds the absolute path to the file/directory.
	Path string

	// Op defines the file/directory operation.
	Op Op
}

func (e Event) String() string {
	return fmt.Sprintf("%s %s", e.Op, e.Path)
}

// Subscriber implementations receive Event and error values.
type Subscriber interface {
	Event(Event)
	Error(error)
}

// SubscriberFuncs implements Subscriber with optional functions. Nil fields are skipped.
type SubscriberFuncs struct {
	OnEvent func(Event)
	OnError func(error)
}

func (s SubscriberFuncs) Event(e Event) {
	if s.OnEvent != nil {
		s.OnEvent(e)
	}
}

func (s SubscriberFuncs) Error(err error) {
	if s.OnError != nil {
		s.OnError(err)
	}
}

type Watcher interface {
	// AddSubscriber appends the list of subscribers that receive event/error details.
	AddSubscriber(Subscriber) error

	// AddPath appends the file/directory (non-recursive) to the watch list and
	// begins monitoring in a new goroutine.
	//
	// Absolute and relative paths are supported. However all paths are made absolute internally.
	AddPath(string) error

	// RemovePath stops the file/directory (non-recursive) from being watched.
	//
	// Absolute and relative paths are supported.
	RemovePath(string) error

	// Close ends all monitoring behavior. It may be called more than once, and before AddPath.
	Close() error

	// Set the amount of time to wait for duplicate events (same path and operation)
	// to stop arriving before broadcasting one Event value to subscribers.
	//
	// Implementations should not debounce events if this method is not called.
	Debounce(time.Duration)
}

var _ Subscriber = SubscriberFuncs{}
