package sequence

import (
	"container/heap"
	"context"
	"log"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// Scheduler runs timed functions on one loop. Everything it executes, sequence
// actions and posted functions alike, runs from Run (or Tick) one at a time,
// so actions never race with each other.
type Scheduler struct {
	clock clockwork.Clock

	mu    sync.Mutex
	queue eventQueue
	order uint64
	wake  chan struct{}

	run sync.Mutex // held while a scheduled function runs
}

// NewScheduler creates a scheduler driven by clock. A nil clock selects the wall clock.
func NewScheduler(clock clockwork.Clock) *Scheduler {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Scheduler{
		clock: clock,
		wake:  make(chan struct{}, 1),
	}
}

// Clock returns the scheduler's clock.
func (s *Scheduler) Clock() clockwork.Clock {
	return s.clock
}

// Start begins executing seq and returns its handle. The first step's delay
// starts now.
func (s *Scheduler) Start(seq Sequence) *Handle {
	h := &Handle{
		s:     s,
		steps: seq.Steps(),
		done:  make(chan struct{}),
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.advanceLocked()

	return h
}

// Post runs fn on the loop as soon as possible.
func (s *Scheduler) Post(fn func()) {
	s.schedule(0, fn)
}

// Exclusive runs fn on the calling goroutine once no scheduled function is
// running, and keeps the loop from starting one until fn returns. It must not
// be called from a scheduled function.
func (s *Scheduler) Exclusive(fn func()) {
	s.run.Lock()
	defer s.run.Unlock()
	fn()
}

// Pending returns the number of queued events.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queue.Len()
}

// Tick runs every event that is due at the current clock time, including
// events that become due while running, and returns how many ran.
func (s *Scheduler) Tick() int {
	n := 0
	for {
		s.mu.Lock()
		ev := s.queue.peek()
		if ev == nil || ev.due.After(s.clock.Now()) {
			s.mu.Unlock()
			return n
		}
		heap.Pop(&s.queue)
		s.mu.Unlock()

		s.run.Lock()
		s.safely(ev.fn)
		s.run.Unlock()
		n++
	}
}

// Run executes events as they become due until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	for {
		s.Tick()

		var (
			timer clockwork.Timer
			fire  <-chan time.Time
		)
		if d, ok := s.next(); ok {
			timer = s.clock.NewTimer(d)
			fire = timer.Chan()
		}

		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return ctx.Err()
		case <-s.wake:
		case <-fire:
		}

		if timer != nil {
			timer.Stop()
		}
	}
}

// next returns the time until the earliest queued event.
func (s *Scheduler) next() (time.Duration, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ev := s.queue.peek()
	if ev == nil {
		return 0, false
	}
	d := ev.due.Sub(s.clock.Now())
	if d < 0 {
		d = 0
	}
	return d, true
}

func (s *Scheduler) schedule(d time.Duration, fn func()) *event {
	s.mu.Lock()
	s.order++
	ev := &event{
		due:   s.clock.Now().Add(d),
		order: s.order,
		fn:    fn,
	}
	heap.Push(&s.queue, ev)
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}

	return ev
}

func (s *Scheduler) cancel(ev *event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queue.remove(ev)
}

// safely runs fn and reports whether it returned without panicking.
func (s *Scheduler) safely(fn func()) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Panic in scheduled action: %v", r)
			ok = false
		}
	}()
	fn()
	return true
}
