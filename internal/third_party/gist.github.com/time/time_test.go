package time_test

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	cage_time "github.com/codeactual/countdown/internal/cage/time"
	testkit_time "github.com/codeactual/countdown/internal/cage/testkit/time"
	tp_time "github.com/codeactual/countdown/internal/third_party/gist.github.com/time"
)

const (
	CallWait       = time.Second
	UnexpectedWait = 50 * time.Millisecond
)

func TestDebounceLatestValue(t *testing.T) {
	timer, clock, timerCh, timerChRO := testkit_time.NewDebounceTimer(&testkit_time.DebounceTimerOption{ResetReturnTrue: true})
	timer.On("C").Return(timerChRO)

	calls := make(chan interface{}, 3)
	call, stop := tp_time.Debounce(clock, time.Minute, func(v interface{}) {
		calls <- v
	})
	defer stop()

	call(1)
	call(2)
	call(3)

	timerCh <- time.Now()

	select {
	case v := <-calls:
		require.Exactly(t, 3, v)
	case <-time.After(CallWait):
		t.Fatal("expected debounced call")
	}

	select {
	case v := <-calls:
		t.Fatalf("unexpected call with [%v]", v)
	case <-time.After(UnexpectedWait):
	}

	clock.AssertNumberOfCalls(t, "NewTimer", 1)
	timer.AssertNumberOfCalls(t, "Reset", 2)
}

func TestDebounceStop(t *testing.T) {
	timer, clock, timerCh, timerChRO := testkit_time.NewDebounceTimer(nil)
	timer.On("C").Return(timerChRO)

	calls := make(chan interface{}, 1)
	call, stop := tp_time.Debounce(clock, time.Minute, func(v interface{}) {
		calls <- v
	})

	call(1)
	stop()
	stop()

	// let the loop observe the stop before the timer would have expired
	time.Sleep(UnexpectedWait)
	timerCh <- time.Now()

	call(2) // dropped

	select {
	case v := <-calls:
		t.Fatalf("unexpected call with [%v]", v)
	case <-time.After(UnexpectedWait):
	}
}

func TestDebounceRealClock(t *testing.T) {
	var mu sync.Mutex
	var got []interface{}
	done := make(chan struct{}, 1)

	call, stop := tp_time.Debounce(cage_time.RealClock{}, 100*time.Millisecond, func(v interface{}) {
		mu.Lock()
		got = append(got, v)
		mu.Unlock()
		done <- struct{}{}
	})
	defer stop()

	call("a")
	call("b")

	select {
	case <-done:
	case <-time.After(CallWait):
		t.Fatal("expected debounced call")
	}

	mu.Lock()
	defer mu.Unlock()
	require.Exactly(t, []interface{}{"b"}, got)
}
