// Copyright (C) 2020 The countdown Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package countdown_test

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/codeactual/countdown/internal/cage/testkit"
	testkit_time "github.com/codeactual/countdown/internal/cage/testkit/time"
	"github.com/codeactual/countdown/internal/countdown"
)

const (
	NotificationWait = time.Second
	UnexpectedWait   = 50 * time.Millisecond
)

// Notification is one captured Listener call.
type Notification struct {
	Event   countdown.Event
	Seconds float64
}

// Recorder captures notifications in delivery order.
type Recorder struct {
	ch chan Notification
}

func NewRecorder() *Recorder {
	return &Recorder{ch: make(chan Notification, 100)}
}

func (r *Recorder) Listener() countdown.Listener {
	push := func(e countdown.Event) func(*countdown.Timer, float64) {
		return func(_ *countdown.Timer, s float64) {
			r.ch <- Notification{Event: e, Seconds: s}
		}
	}
	return countdown.ListenerFuncs{
		OnStarted: push(countdown.EventStarted),
		OnTicked:  push(countdown.EventTicked),
		OnStopped: push(countdown.EventStopped),
		OnPaused:  push(countdown.EventPaused),
		OnResumed: push(countdown.EventResumed),
		OnEnded: func(*countdown.Timer) {
			r.ch <- Notification{Event: countdown.EventEnded}
		},
	}
}

func (r *Recorder) RequireNext(t *testing.T, e countdown.Event, seconds float64) {
	select {
	case n := <-r.ch:
		require.Exactly(t, Notification{Event: e, Seconds: seconds}, n)
	case <-time.After(NotificationWait):
		t.Fatalf("expected [%s] notification with [%v] seconds", e, seconds)
	}
}

func (r *Recorder) RequireNone(t *testing.T) {
	select {
	case n := <-r.ch:
		t.Fatalf("unexpected [%s] notification with [%v] seconds", n.Event, n.Seconds)
	case <-time.After(UnexpectedWait):
	}
}

type TimerSuite struct {
	suite.Suite

	tickers  *testkit_time.Tickers
	timer    *countdown.Timer
	recorder *Recorder
}

func TestTimerSuite(t *testing.T) {
	suite.Run(t, new(TimerSuite))
}

func (s *TimerSuite) SetupTest() {
	s.tickers = testkit_time.NewTickers()
	s.recorder = NewRecorder()

	s.timer = countdown.NewTimer(testkit.NewZapLogger())
	s.timer.Clock = s.tickers.Clock
	s.timer.SetListener(s.recorder.Listener())
}

func (s *TimerSuite) TearDownTest() {
	s.timer.SetListener(nil)
	s.timer.Pause()
}

func (s *TimerSuite) TestNewTimer() {
	t := s.T()

	require.False(t, s.timer.IsActive())
	require.Exactly(t, 0.0, s.timer.Remaining())
	require.Exactly(t, 0.0, s.timer.Starting())
	require.Exactly(t, countdown.Idle, s.timer.State())
}

func (s *TimerSuite) TestStart() {
	t := s.T()

	s.timer.Start(3)

	require.True(t, s.timer.IsActive())
	require.Exactly(t, 3.0, s.timer.Starting())
	require.Exactly(t, 3.0, s.timer.Remaining())
	require.Exactly(t, countdown.Running, s.timer.State())
	s.recorder.RequireNext(t, countdown.EventStarted, 3)

	require.Exactly(t, 1, s.tickers.Len())
	require.Exactly(t, countdown.Interval, s.tickers.Last(t).Interval)
}

func (s *TimerSuite) TestStartRoundsToWholeSeconds() {
	t := s.T()

	cases := []struct {
		input    float64
		expected float64
	}{
		{input: 4.4, expected: 4},
		{input: 4.5, expected: 5},
		{input: 4.6, expected: 5},
		{input: 0.6, expected: 1},
	}
	for _, c := range cases {
		s.timer.Start(c.input)
		require.Exactly(t, c.expected, s.timer.Remaining(), "input [%v]", c.input)
		require.Exactly(t, c.expected, s.timer.Starting(), "input [%v]", c.input)
		s.recorder.RequireNext(t, countdown.EventStarted, c.expected)
	}
}

func (s *TimerSuite) TestStartNonPositive() {
	t := s.T()

	for _, input := range []float64{0, 0.4, -1, -0.6, math.NaN(), math.Inf(1), math.Inf(-1)} {
		s.timer.Start(input)

		require.False(t, s.timer.IsActive(), "input [%v]", input)
		require.Exactly(t, 0.0, s.timer.Remaining(), "input [%v]", input)
		require.Exactly(t, countdown.Idle, s.timer.State(), "input [%v]", input)
	}

	require.Exactly(t, 0, s.tickers.Len())
	s.recorder.RequireNone(t)
}

func (s *TimerSuite) TestStartNonPositiveCancelsRunningCountdown() {
	t := s.T()

	s.timer.Start(3)
	s.recorder.RequireNext(t, countdown.EventStarted, 3)
	tk := s.tickers.Last(t)

	s.timer.Start(-4)

	require.False(t, s.timer.IsActive())
	require.Exactly(t, 0.0, s.timer.Remaining())
	require.Exactly(t, 3.0, s.timer.Starting())
	tk.Ticker.AssertNumberOfCalls(t, "Stop", 1)

	tk.Fire()
	s.recorder.RequireNone(t)
}

func (s *TimerSuite) TestCountdownEnds() {
	t := s.T()

	const n = 5

	var endedActive bool
	var endedRemaining float64
	ended := make(chan struct{}, 1)

	listener := s.recorder.Listener().(countdown.ListenerFuncs)
	onEnded := listener.OnEnded
	listener.OnEnded = func(timer *countdown.Timer) {
		endedActive = timer.IsActive()
		endedRemaining = timer.Remaining()
		onEnded(timer)
		ended <- struct{}{}
	}
	s.timer.SetListener(listener)

	s.timer.Start(n)
	s.recorder.RequireNext(t, countdown.EventStarted, n)
	tk := s.tickers.Last(t)

	for remaining := n - 1; remaining >= 0; remaining-- {
		tk.Fire()
		s.recorder.RequireNext(t, countdown.EventTicked, float64(remaining))
	}
	s.recorder.RequireNext(t, countdown.EventEnded, 0)
	<-ended

	require.False(t, endedActive)
	require.Exactly(t, 0.0, endedRemaining)

	require.False(t, s.timer.IsActive())
	require.Exactly(t, 0.0, s.timer.Remaining())
	require.Exactly(t, float64(n), s.timer.Starting())
	require.Exactly(t, countdown.Ended, s.timer.State())
	tk.Ticker.AssertNumberOfCalls(t, "Stop", 1)

	tk.Fire()
	s.recorder.RequireNone(t)
}

func (s *TimerSuite) TestRepeatedStartSupersedesHandles() {
	t := s.T()

	for n := 0; n < 5; n++ {
		s.timer.Start(2)
		s.recorder.RequireNext(t, countdown.EventStarted, 2)
	}
	require.Exactly(t, 5, s.tickers.Len())

	for n := 0; n < 4; n++ {
		stale := s.tickers.Get(t, n)
		stale.Ticker.AssertNumberOfCalls(t, "Stop", 1)
		stale.Fire()
	}
	s.recorder.RequireNone(t)
	require.Exactly(t, 2.0, s.timer.Remaining())

	current := s.tickers.Last(t)
	current.Fire()
	s.recorder.RequireNext(t, countdown.EventTicked, 1)
	current.Fire()
	s.recorder.RequireNext(t, countdown.EventTicked, 0)
	s.recorder.RequireNext(t, countdown.EventEnded, 0)
	s.recorder.RequireNone(t)
}

func (s *TimerSuite) TestRestartWithNewDuration() {
	t := s.T()

	s.timer.Start(3)
	s.recorder.RequireNext(t, countdown.EventStarted, 3)

	s.timer.Start(6)
	s.recorder.RequireNext(t, countdown.EventStarted, 6)
	require.Exactly(t, 6.0, s.timer.Remaining())
	require.Exactly(t, 6.0, s.timer.Starting())
}

func (s *TimerSuite) TestRestartAfterEnd() {
	t := s.T()

	s.timer.Start(1)
	s.recorder.RequireNext(t, countdown.EventStarted, 1)
	s.tickers.Last(t).Fire()
	s.recorder.RequireNext(t, countdown.EventTicked, 0)
	s.recorder.RequireNext(t, countdown.EventEnded, 0)

	s.timer.Start(2)
	s.recorder.RequireNext(t, countdown.EventStarted, 2)
	require.True(t, s.timer.IsActive())
	require.Exactly(t, countdown.Running, s.timer.State())
}

func (s *TimerSuite) TestStopRestoresStartingSeconds() {
	t := s.T()

	s.timer.Start(3)
	s.recorder.RequireNext(t, countdown.EventStarted, 3)
	tk := s.tickers.Last(t)

	tk.Fire()
	s.recorder.RequireNext(t, countdown.EventTicked, 2)
	tk.Fire()
	s.recorder.RequireNext(t, countdown.EventTicked, 1)

	s.timer.Stop()

	s.recorder.RequireNext(t, countdown.EventStopped, 3)
	require.False(t, s.timer.IsActive())
	require.Exactly(t, 3.0, s.timer.Remaining())
	require.Exactly(t, countdown.Idle, s.timer.State())

	tk.Fire()
	s.recorder.RequireNone(t)
}

func (s *TimerSuite) TestStopIsIdempotent() {
	t := s.T()

	s.timer.Stop()
	s.recorder.RequireNext(t, countdown.EventStopped, 0)

	s.timer.Start(2)
	s.recorder.RequireNext(t, countdown.EventStarted, 2)

	s.timer.Stop()
	s.timer.Stop()
	s.recorder.RequireNext(t, countdown.EventStopped, 2)
	s.recorder.RequireNext(t, countdown.EventStopped, 2)

	require.False(t, s.timer.IsActive())
	require.Exactly(t, 2.0, s.timer.Remaining())
	s.tickers.Last(t).Ticker.AssertNumberOfCalls(t, "Stop", 1)
}

func (s *TimerSuite) TestPauseAndResume() {
	t := s.T()

	s.timer.Start(3)
	s.recorder.RequireNext(t, countdown.EventStarted, 3)
	first := s.tickers.Last(t)

	first.Fire()
	s.recorder.RequireNext(t, countdown.EventTicked, 2)

	s.timer.Pause()
	s.recorder.RequireNext(t, countdown.EventPaused, 2)
	require.False(t, s.timer.IsActive())
	require.Exactly(t, 2.0, s.timer.Remaining())
	require.Exactly(t, countdown.Paused, s.timer.State())

	first.Fire()
	s.recorder.RequireNone(t)

	s.timer.Resume()
	s.recorder.RequireNext(t, countdown.EventResumed, 2)
	require.True(t, s.timer.IsActive())
	require.Exactly(t, countdown.Running, s.timer.State())
	require.Exactly(t, 3.0, s.timer.Starting())
	require.Exactly(t, 2, s.tickers.Len())

	second := s.tickers.Last(t)
	second.Fire()
	s.recorder.RequireNext(t, countdown.EventTicked, 1)
	second.Fire()
	s.recorder.RequireNext(t, countdown.EventTicked, 0)
	s.recorder.RequireNext(t, countdown.EventEnded, 0)
}

func (s *TimerSuite) TestPauseIsIdempotent() {
	t := s.T()

	s.timer.Pause()
	s.recorder.RequireNext(t, countdown.EventPaused, 0)
	require.Exactly(t, countdown.Idle, s.timer.State())

	s.timer.Start(2)
	s.recorder.RequireNext(t, countdown.EventStarted, 2)

	s.timer.Pause()
	s.timer.Pause()
	s.recorder.RequireNext(t, countdown.EventPaused, 2)
	s.recorder.RequireNext(t, countdown.EventPaused, 2)
	require.Exactly(t, 2.0, s.timer.Remaining())
	require.Exactly(t, countdown.Paused, s.timer.State())
}

func (s *TimerSuite) TestResumeWithoutRemainingSeconds() {
	t := s.T()

	s.timer.Resume()

	require.False(t, s.timer.IsActive())
	require.Exactly(t, 0, s.tickers.Len())
	s.recorder.RequireNone(t)
}

func (s *TimerSuite) TestResumeWhileRunning() {
	t := s.T()

	s.timer.Start(2)
	s.recorder.RequireNext(t, countdown.EventStarted, 2)

	s.timer.Resume()

	require.True(t, s.timer.IsActive())
	require.Exactly(t, 1, s.tickers.Len())
	s.recorder.RequireNone(t)

	s.tickers.Last(t).Fire()
	s.recorder.RequireNext(t, countdown.EventTicked, 1)
	require.Exactly(t, 1.0, s.timer.Remaining())
}

func (s *TimerSuite) TestResumeAfterEnd() {
	t := s.T()

	s.timer.Start(1)
	s.recorder.RequireNext(t, countdown.EventStarted, 1)
	s.tickers.Last(t).Fire()
	s.recorder.RequireNext(t, countdown.EventTicked, 0)
	s.recorder.RequireNext(t, countdown.EventEnded, 0)

	s.timer.Resume()

	require.False(t, s.timer.IsActive())
	require.Exactly(t, countdown.Ended, s.timer.State())
	s.recorder.RequireNone(t)
}

func (s *TimerSuite) TestResumeAfterStop() {
	t := s.T()

	s.timer.Start(3)
	s.recorder.RequireNext(t, countdown.EventStarted, 3)
	s.timer.Stop()
	s.recorder.RequireNext(t, countdown.EventStopped, 3)

	s.timer.Resume()

	s.recorder.RequireNext(t, countdown.EventResumed, 3)
	require.True(t, s.timer.IsActive())
}

func (s *TimerSuite) TestRestore() {
	t := s.T()

	s.timer.Restore(10, 4.4)

	require.False(t, s.timer.IsActive())
	require.Exactly(t, 10.0, s.timer.Starting())
	require.Exactly(t, 4.0, s.timer.Remaining())
	require.Exactly(t, countdown.Paused, s.timer.State())
	s.recorder.RequireNone(t)

	s.timer.Resume()
	s.recorder.RequireNext(t, countdown.EventResumed, 4)

	s.timer.Restore(5, 9)
	require.False(t, s.timer.IsActive())
	require.Exactly(t, 5.0, s.timer.Remaining())
	s.tickers.Last(t).Ticker.AssertNumberOfCalls(t, "Stop", 1)

	s.timer.Restore(5, -1)
	require.Exactly(t, 0.0, s.timer.Remaining())
	require.Exactly(t, countdown.Idle, s.timer.State())
}

func (s *TimerSuite) TestSetListenerDuringNotification() {
	t := s.T()

	replacement := NewRecorder()

	listener := s.recorder.Listener().(countdown.ListenerFuncs)
	onStarted := listener.OnStarted
	listener.OnStarted = func(timer *countdown.Timer, seconds float64) {
		onStarted(timer, seconds)
		timer.SetListener(replacement.Listener())
	}
	s.timer.SetListener(listener)

	s.timer.Start(2)
	s.recorder.RequireNext(t, countdown.EventStarted, 2)

	s.timer.Pause()
	replacement.RequireNext(t, countdown.EventPaused, 2)
	s.recorder.RequireNone(t)
}

func (s *TimerSuite) TestControlFromNotification() {
	t := s.T()

	listener := s.recorder.Listener().(countdown.ListenerFuncs)
	onTicked := listener.OnTicked
	listener.OnTicked = func(timer *countdown.Timer, seconds float64) {
		onTicked(timer, seconds)
		if seconds == 2 {
			timer.Pause()
		}
	}
	s.timer.SetListener(listener)

	s.timer.Start(3)
	s.recorder.RequireNext(t, countdown.EventStarted, 3)

	s.tickers.Last(t).Fire()
	s.recorder.RequireNext(t, countdown.EventTicked, 2)
	s.recorder.RequireNext(t, countdown.EventPaused, 2)
	require.False(t, s.timer.IsActive())
}

func (s *TimerSuite) TestNilListener() {
	t := s.T()

	s.timer.SetListener(nil)
	require.Nil(t, s.timer.Listener())

	s.timer.Start(1)
	s.tickers.Last(t).Fire()

	require.Eventually(t, func() bool {
		return s.timer.State() == countdown.Ended
	}, NotificationWait, 10*time.Millisecond)
}

func (s *TimerSuite) TestListenerPanic() {
	t := s.T()

	s.timer.SetListener(countdown.ListenerFuncs{
		OnStarted: func(*countdown.Timer, float64) {
			panic("listener failure")
		},
	})

	require.Panics(t, func() { s.timer.Start(2) })
	require.True(t, s.timer.IsActive())

	s.timer.SetListener(s.recorder.Listener())
	s.timer.Stop()
	s.recorder.RequireNext(t, countdown.EventStopped, 2)
}

func TestFormat(t *testing.T) {
	cases := []struct {
		input    float64
		expected string
	}{
		{input: 0, expected: "00:00"},
		{input: -3, expected: "00:00"},
		{input: 59.6, expected: "01:00"},
		{input: 90, expected: "01:30"},
		{input: 3599, expected: "59:59"},
		{input: 3600, expected: "1:00:00"},
		{input: 36061, expected: "10:01:01"},
	}
	for _, c := range cases {
		require.Exactly(t, c.expected, countdown.Format(c.input), "input [%v]", c.input)
	}
}

func TestEventString(t *testing.T) {
	require.Exactly(t, "started", countdown.EventStarted.String())
	require.Exactly(t, "ended", countdown.EventEnded.String())
	require.Exactly(t, "event(42)", countdown.Event(42).String())
}
