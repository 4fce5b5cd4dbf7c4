// Copyright (C) 2019 The CodeActual Go Environment Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package time

import (
	std_time "time"

	"github.com/hako/durafmt"
)

// DurationShort returns a durafmt short-form string, e.g. "1 minute" for a 90s duration.
func DurationShort(d std_time.Duration) string {
	// Workaround for durafmt panic caused by lack of support for microseconds.
	if d < std_time.Millisecond {
		d = 0
	}
	return durafmt.ParseShort(d).String()
}

// DurationLong returns a durafmt string with every unit, e.g. "1 minute 30 seconds".
func DurationLong(d std_time.Duration) string {
	if d < std_time.Second {
		d = 0
	}
	return durafmt.Parse(d.Truncate(std_time.Second)).String()
}

// Seconds converts a float64 count of seconds to a Duration.
func Seconds(s float64) std_time.Duration {
	return std_time.Duration(s * float64(std_time.Second))
}
