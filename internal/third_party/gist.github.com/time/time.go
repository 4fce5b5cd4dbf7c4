package time

import (
	"sync"
	std_time "time"

	cage_time "github.com/codeactual/countdown/internal/cage/time"
)

// Debounce returns a debounced version of the input function and a function which ends the
// debounce goroutine.
//
// One goroutine with a for-select loop is created for each returned function, RF, to communicate with.
// When RF is called, all it does is send the input data to the for-select in the goroutine. If the
// goroutine's timer is nil, a timer is created with the debounce interval. But if the timer is non-nil,
// it is reset with the debounce interval. So if the RF is called twice within a total of two seconds,
// and the debounce interval is three seconds, the first RF call creates/starts the timer and the second
// call resets the timer. If the RF is no longer called and the timer is allowed to finish, the input
// function is finally invoked with the latest value and the timer is set back to nil.
//
// After stop is called, RF calls are dropped and a pending invocation never happens.
//
// Origin:
//   https://gist.github.com/leolara/d62b87797b0ef5e418cd#gistcomment-2243168
//   https://gist.github.com/alcore
//
// Changes:
//   - Provide interface{} argument as optional approach to link an invocation to an attempted value.
//   - Resolve timer data race.
//   - Inject a mockable clock.
//   - Select on the timer channel in the same goroutine, instead of one goroutine per timer.
//   - Add stop function.
//   - Add test.
func Debounce(clock cage_time.Clock, interval std_time.Duration, f func(interface{})) (call func(interface{}), stop func()) {
	// Unbuffered so a returned RF call has been received by the loop before the caller continues.
	timerEval := make(chan interface{})
	done := make(chan struct{})
	var stopOnce sync.Once

	go func() {
		var timer cage_time.Timer // after expired, f may finally run
		var last interface{}

		// nil, and never selected, while timer is nil
		var expired <-chan std_time.Time

		for {
			select {
			case <-done:
				if timer != nil {
					timer.Stop()
				}
				return
			case v := <-timerEval:
				last = v
				if timer == nil {
					timer = clock.NewTimer(interval)
				} else {
					// It's the 2nd+ time this function has been called and the timer has
					// not yet expired. Extend the wait time because the operation attempts
					// have not yet "settled."
					if !timer.Stop() {
						select {
						case <-timer.C():
						default:
						}
					}
					timer.Reset(interval)
				}
				expired = timer.C()
			case <-expired:
				timer = nil
				expired = nil
				f(last)
			}
		}
	}()

	call = func(v interface{}) {
		select {
		case timerEval <- v:
		case <-done:
		}
	}
	stop = func() {
		stopOnce.Do(func() { close(done) })
	}
	return call, stop
}
