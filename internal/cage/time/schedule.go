// Copyright (C) 2019 The CodeActual Go Environment Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package time

import (
	"sync"
	"sync/atomic"
	std_time "time"
)

// Handle is a cancellable reference to a callback scheduled by Schedule.
//
// Only the goroutine started by Schedule reads from the ticker. Cancel may be called from
// any goroutine, including from inside the scheduled callback.
type Handle struct {
	ticker Ticker

	// done is closed by Cancel to end the goroutine started by Schedule.
	done chan struct{}

	cancelOnce sync.Once

	// valid is 1 until Cancel is called.
	valid int32
}

// Schedule invokes fire once per interval until the returned Handle is canceled.
//
// The callback receives its own Handle so that the receiver can tell whether the tick
// belongs to the schedule it currently owns. The callback runs in the goroutine created by
// Schedule and the next tick is not read until it returns.
func Schedule(clock Clock, interval std_time.Duration, fire func(*Handle)) *Handle {
	h := &Handle{
		ticker: clock.NewTicker(interval),
		done:   make(chan struct{}),
		valid:  1,
	}

	go func() {
		for {
			select {
			case <-h.done:
				return
			case <-h.ticker.C():
				// Both cases may be ready at once. Prefer done so a tick buffered before the
				// cancellation is discarded.
				select {
				case <-h.done:
					return
				default:
				}
				fire(h)
			}
		}
	}()

	return h
}

// Cancel stops the ticker and ends the schedule. It is idempotent.
func (h *Handle) Cancel() {
	h.cancelOnce.Do(func() {
		atomic.StoreInt32(&h.valid, 0)
		h.ticker.Stop()
		close(h.done)
	})
}

// Valid reports whether Cancel has not been called yet.
func (h *Handle) Valid() bool {
	return atomic.LoadInt32(&h.valid) == 1
}
