// Copyright (C) 2019 The CodeActual Go Environment Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package time_test

import (
	"testing"
	std_time "time"

	"github.com/stretchr/testify/require"

	cage_time "github.com/codeactual/countdown/internal/cage/time"
)

func TestSeconds(t *testing.T) {
	require.Exactly(t, 1500*std_time.Millisecond, cage_time.Seconds(1.5))
	require.Exactly(t, 90*std_time.Second, cage_time.Seconds(90))
	require.Exactly(t, std_time.Duration(0), cage_time.Seconds(0))
}

func TestDurationShort(t *testing.T) {
	require.Exactly(t, "1 minute", cage_time.DurationShort(90*std_time.Second))

	// sub-millisecond input must not panic
	require.NotPanics(t, func() { cage_time.DurationShort(std_time.Microsecond) })
}

func TestDurationLong(t *testing.T) {
	require.Exactly(t, "1 minute 30 seconds", cage_time.DurationLong(90*std_time.Second))
	require.Exactly(t, "1 minute 30 seconds", cage_time.DurationLong(90*std_time.Second+400*std_time.Millisecond))
}
