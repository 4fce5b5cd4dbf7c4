// Copyright (C) 2019 The CodeActual Go Environment Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package time

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"

	cage_time "github.com/codeactual/countdown/internal/cage/time"
	cage_time_mocks "github.com/codeactual/countdown/internal/cage/time/mocks"
)

// NewTimer returns a mock timer and a mock clock configured to provide it.
func NewTimer() (*cage_time_mocks.Timer, *cage_time_mocks.Clock) {
	timer := new(cage_time_mocks.Timer)
	clock := new(cage_time_mocks.Clock)
	clock.On("NewTimer", mock.AnythingOfType("time.Duration")).Return(timer)
	return timer, clock
}

// RWChanToROChan converts a bi-directional channel to a read-only one.
func RWChanToROChan(rw chan time.Time) <-chan time.Time {
	return rw
}

type DebounceTimerOption struct {
	ResetReturnTrue bool
}

// NewDebounceTimer expands on NewTimer by providing a channel to which tests can write
// in order to simulate a timer expiration.
func NewDebounceTimer(o *DebounceTimerOption) (*cage_time_mocks.Timer, *cage_time_mocks.Clock, chan time.Time, <-chan time.Time) {
	timer, clock := NewTimer()
	timer.On("Stop").Return(true)

	if o != nil {
		if o.ResetReturnTrue {
			timer.On("Reset", mock.AnythingOfType("time.Duration")).Return(true)
		}
	}

	// The read-only copy is emitted by the mock Timer while the test writes to the
	// bi-directional one to control it "remotely."
	ch := make(chan time.Time, 1)

	return timer, clock, ch, RWChanToROChan(ch)
}

// ControlledTicker pairs a mock Ticker with the channel that feeds it.
type ControlledTicker struct {
	Ticker   *cage_time_mocks.Ticker
	Ch       chan time.Time
	Interval time.Duration
}

// Tickers records every mock Ticker created through Clock, in creation order, so tests can
// fire a specific schedule instead of waiting on real intervals.
type Tickers struct {
	Clock *cage_time_mocks.Clock

	mu   sync.Mutex
	list []*ControlledTicker
}

// NewTickers returns a mock clock whose NewTicker calls each create a new ControlledTicker.
func NewTickers() *Tickers {
	t := &Tickers{Clock: new(cage_time_mocks.Clock)}
	t.Clock.On("NewTicker", mock.AnythingOfType("time.Duration")).Return(func(d time.Duration) cage_time.Ticker {
		ch := make(chan time.Time, 1)

		ticker := new(cage_time_mocks.Ticker)
		ticker.On("C").Return(RWChanToROChan(ch))
		ticker.On("Stop").Return()

		t.mu.Lock()
		t.list = append(t.list, &ControlledTicker{Ticker: ticker, Ch: ch, Interval: d})
		t.mu.Unlock()

		return ticker
	})
	return t
}

// Len returns how many tickers have been created.
func (t *Tickers) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.list)
}

// Get returns the n-th created ticker (0-based).
func (t *Tickers) Get(tb testing.TB, n int) *ControlledTicker {
	t.mu.Lock()
	defer t.mu.Unlock()
	if n < 0 || n >= len(t.list) {
		tb.Fatalf("ticker [%d] not found, [%d] created", n, len(t.list))
	}
	return t.list[n]
}

// Last returns the most recently created ticker.
func (t *Tickers) Last(tb testing.TB) *ControlledTicker {
	return t.Get(tb, t.Len()-1)
}

// Fire simulates one interval elapsing on the ticker.
func (c *ControlledTicker) Fire() {
	c.Ch <- time.Now()
}
