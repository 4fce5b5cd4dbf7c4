// Copyright (C) 2019 The CodeActual Go Environment Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package time

import (
	std_time "time"
)

// Ticker mirrors the subset of time.Ticker used by Schedule.
type Ticker interface {
	Stop()
	C() <-chan std_time.Time
}

type RealTicker struct {
	t *std_time.Ticker
}

func (f *RealTicker) Stop() {
	f.t.Stop()
}

func (f *RealTicker) C() <-chan std_time.Time {
	return f.t.C
}

var _ Ticker = (*RealTicker)(nil)
