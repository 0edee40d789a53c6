package timectrl

import (
	"fmt"
	"sort"
	"sync"
	"time"
)

// EventScheduler schedules callbacks at simulation times on top of a
// SimClock. The simulation loop asks for the next event time, moves the
// clock there and calls RunDue. Events run in non-decreasing time order;
// events scheduled for the same instant run in submission order.
type EventScheduler interface {
	// Schedule registers f to run at simulation time at and returns an
	// opaque id that can be passed to Cancel.
	Schedule(at time.Duration, f func()) (id string)

	// Cancel drops a pending event and reports whether one was dropped.
	// Unknown or already-run ids are ignored.
	Cancel(id string) bool

	// Now returns the current simulation time of the underlying clock.
	Now() time.Duration

	// NextTime returns the time of the earliest pending event.
	NextTime() (time.Duration, bool)

	// RunDue runs every pending event whose time is <= Now(), including
	// events scheduled by callbacks for the current instant.
	RunDue() int

	// Pending returns the number of events still waiting to run.
	Pending() int
}

type scheduledEvent struct {
	id        string
	when      time.Duration
	f         func()
	cancelled bool
}

type eventScheduler struct {
	clock SimClock

	mu      sync.Mutex
	counter uint64
	events  []*scheduledEvent // ordered by when, then by submission
	index   map[string]*scheduledEvent
}

// NewEventScheduler creates a scheduler backed by clock.
func NewEventScheduler(clock SimClock) EventScheduler {
	return &eventScheduler{
		clock: clock,
		index: make(map[string]*scheduledEvent),
	}
}

func (s *eventScheduler) Schedule(at time.Duration, f func()) (id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.counter++
	id = fmt.Sprintf("ev-%d", s.counter)
	ev := &scheduledEvent{id: id, when: at, f: f}
	s.addEventLocked(ev)
	s.index[id] = ev
	return id
}

// addEventLocked inserts ev after every event scheduled at or before its
// time, which keeps equal-time events in FIFO order.
// Caller must hold s.mu.
func (s *eventScheduler) addEventLocked(ev *scheduledEvent) {
	idx := sort.Search(len(s.events), func(i int) bool {
		return s.events[i].when > ev.when
	})
	s.events = append(s.events, nil)
	copy(s.events[idx+1:], s.events[idx:])
	s.events[idx] = ev
}

func (s *eventScheduler) Cancel(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	ev, ok := s.index[id]
	if !ok {
		return false
	}
	ev.cancelled = true
	delete(s.index, id)
	// Removal from s.events is lazy; popNextLocked skips cancelled events.
	return true
}

func (s *eventScheduler) Now() time.Duration {
	return s.clock.Now()
}

func (s *eventScheduler) NextTime() (time.Duration, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.dropCancelledLocked()
	if len(s.events) == 0 {
		return 0, false
	}
	return s.events[0].when, true
}

func (s *eventScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.index)
}

func (s *eventScheduler) dropCancelledLocked() {
	for len(s.events) > 0 && s.events[0].cancelled {
		s.events = s.events[1:]
	}
}

// popNextLocked removes and returns the earliest due event, or nil.
// Caller must hold s.mu.
func (s *eventScheduler) popNextLocked(now time.Duration) *scheduledEvent {
	s.dropCancelledLocked()
	if len(s.events) == 0 || s.events[0].when > now {
		return nil
	}
	ev := s.events[0]
	s.events = s.events[1:]
	delete(s.index, ev.id)
	return ev
}

func (s *eventScheduler) RunDue() int {
	ran := 0
	for {
		now := s.clock.Now()
		s.mu.Lock()
		ev := s.popNextLocked(now)
		s.mu.Unlock()
		if ev == nil {
			return ran
		}

		// Run outside the lock so callbacks can schedule follow-up events.
		if ev.f != nil {
			ev.f()
		}
		ran++
	}
}
