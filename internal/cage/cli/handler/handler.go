// Copyright (C) 2019 The CodeActual Go Environment Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package handler defines the framework-agnostic parts of a CLI command handler: the session,
// which owns process-level concerns like signals, and mixins, which add reusable flags and
// setup to any command.
package handler

import (
	"context"
	"os"
	"os/signal"
	"sync"

	"github.com/spf13/cobra"
)

// Input holds the positional arguments of a command invocation.
type Input struct {
	Args []string
}

// Session implementations manage process-level state shared by a command's lifetime.
type Session interface {
	// OnSignal registers a function to call when the process receives the signal.
	// Multiple functions per signal are called in registration order.
	OnSignal(os.Signal, func(os.Signal))

	// Close stops signal delivery.
	Close()
}

// Mixin implementations add flags and setup logic to commands, e.g. logger creation.
type Mixin interface {
	// Name identifies the mixin in error messages.
	Name() string

	// BindCobraFlags binds flags to mixin fields and returns the names of flags which
	// may be overridden by environment variables.
	BindCobraFlags(cmd *cobra.Command) []string

	// PreRun is called after flag parsing and before the command logic.
	PreRun(ctx context.Context, input Input) error
}

// DefaultSession dispatches signals to functions registered with OnSignal.
//
// The zero value is ready to use.
type DefaultSession struct {
	mu       sync.Mutex
	handlers map[os.Signal][]func(os.Signal)
	ch       chan os.Signal
	done     chan struct{}
}

func (s *DefaultSession) OnSignal(sig os.Signal, f func(os.Signal)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.handlers == nil {
		s.handlers = make(map[os.Signal][]func(os.Signal))
	}
	s.handlers[sig] = append(s.handlers[sig], f)

	if s.ch == nil {
		s.ch = make(chan os.Signal, 1)
		s.done = make(chan struct{})
		go s.dispatch(s.ch, s.done)
	}
	signal.Notify(s.ch, sig)
}

func (s *DefaultSession) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ch == nil {
		return
	}
	signal.Stop(s.ch)
	close(s.done)
	s.ch = nil
	s.handlers = nil
}

func (s *DefaultSession) dispatch(ch chan os.Signal, done chan struct{}) {
	for {
		select {
		case <-done:
			return
		case sig := <-ch:
			s.mu.Lock()
			handlers := append([]func(os.Signal){}, s.handlers[sig]...)
			s.mu.Unlock()

			for _, f := range handlers {
				f(sig)
			}
		}
	}
}

var _ Session = (*DefaultSession)(nil)
