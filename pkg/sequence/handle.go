package sequence

import (
	"sync"
	"time"
)

// State is the lifecycle state of a running sequence.
type State int

const (
	Running State = iota
	Completed
	Aborted
)

func (s State) String() string {
	switch s {
	case Running:
		return "running"
	case Completed:
		return "completed"
	case Aborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// Handle controls one running sequence.
type Handle struct {
	s *Scheduler

	mu      sync.Mutex
	steps   []Step
	cursor  int
	state   State
	pending *event
	done    chan struct{}
}

// Delay appends a step to the running sequence. It fails with
// ErrSequenceClosed once the sequence was aborted or has completed.
func (h *Handle) Delay(d time.Duration, action Action) (*Handle, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.state != Running {
		return h, ErrSequenceClosed
	}
	h.steps = append(h.steps, Step{Delay: d, Action: action})
	return h, nil
}

// Abort stops the sequence. Steps that have not started never run; actions
// that already ran are not undone. Aborting a finished sequence does nothing.
func (h *Handle) Abort() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.state != Running {
		return
	}
	h.state = Aborted
	if h.pending != nil {
		h.s.cancel(h.pending)
		h.pending = nil
	}
	close(h.done)
}

// State returns the current state.
func (h *Handle) State() State {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

// Len returns the number of steps, including appended ones.
func (h *Handle) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.steps)
}

// Done is closed when the sequence completes or is aborted.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// advanceLocked queues the step at the cursor or completes the sequence.
func (h *Handle) advanceLocked() {
	if h.cursor >= len(h.steps) {
		h.state = Completed
		close(h.done)
		return
	}
	h.pending = h.s.schedule(h.steps[h.cursor].Delay, h.fire)
}

// fire runs the step at the cursor on the scheduler loop. The next delay
// starts once the action has returned.
func (h *Handle) fire() {
	h.mu.Lock()
	if h.state != Running {
		h.mu.Unlock()
		return
	}
	h.pending = nil
	action := h.steps[h.cursor].Action
	h.mu.Unlock()

	if action != nil && !h.s.safely(action) {
		h.Abort()
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.state != Running {
		return
	}
	h.cursor++
	h.advanceLocked()
}
