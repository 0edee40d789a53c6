package timectrl

import (
	"sync"
	"time"
)

// SimClock gives read access to simulated time. Simulated time is measured
// as the offset from the start of the run, not as wall-clock time.
type SimClock interface {
	// Now returns the current simulation time.
	Now() time.Duration
}

// TimeController holds the discrete simulation clock and notifies listeners
// whenever time moves forward. It never sleeps: time advances only when the
// event loop jumps to the next scheduled event.
type TimeController struct {
	mu sync.RWMutex

	// Tick is the interval between mobility/contact evaluations.
	Tick time.Duration

	currentTime time.Duration
	listeners   []func(time.Duration)
}

// NewTimeController constructs a controller at time zero.
func NewTimeController(tick time.Duration) *TimeController {
	return &TimeController{Tick: tick}
}

// Now returns the current simulation time. Implements SimClock.
func (tc *TimeController) Now() time.Duration {
	tc.mu.RLock()
	defer tc.mu.RUnlock()
	return tc.currentTime
}

// SetTime moves the clock to t. Time is monotonic: earlier values are
// ignored. Listeners run only when the clock actually moves.
func (tc *TimeController) SetTime(t time.Duration) {
	tc.mu.Lock()
	if t <= tc.currentTime {
		tc.mu.Unlock()
		return
	}
	tc.currentTime = t
	listeners := append([]func(time.Duration){}, tc.listeners...)
	tc.mu.Unlock()

	for _, fn := range listeners {
		fn(t)
	}
}

// Advance moves the clock forward by d.
func (tc *TimeController) Advance(d time.Duration) {
	tc.SetTime(tc.Now() + d)
}

// AddListener registers a callback invoked every time the clock advances.
func (tc *TimeController) AddListener(fn func(time.Duration)) {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	tc.listeners = append(tc.listeners, fn)
}
