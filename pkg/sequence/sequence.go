// Package sequence runs ordered lists of timed actions on a single
// scheduler loop.
//
// A Sequence only describes the steps; Scheduler.Start turns it into a
// running Handle. Delays are sequential: each step waits its delay after the
// previous step's action has returned.
package sequence

import (
	"errors"
	"time"
)

// ErrSequenceClosed is returned when a step is appended to a handle that
// was aborted or has completed.
var ErrSequenceClosed = errors.New("sequence closed")

// Action is a step's effect. It runs on the scheduler loop and must not block.
type Action func()

// Step is a single delayed action.
type Step struct {
	Delay  time.Duration
	Action Action
}

// Sequence is an immutable, ordered list of steps.
type Sequence struct {
	steps []Step
}

// New returns an empty sequence.
func New() Sequence {
	return Sequence{}
}

// Delay returns a new sequence with action appended to run d after the
// previous step. The receiver is left unchanged.
func (s Sequence) Delay(d time.Duration, action Action) Sequence {
	steps := make([]Step, len(s.steps), len(s.steps)+1)
	copy(steps, s.steps)
	return Sequence{steps: append(steps, Step{Delay: d, Action: action})}
}

// Then returns a new sequence running next's steps after s's.
func (s Sequence) Then(next Sequence) Sequence {
	steps := make([]Step, 0, len(s.steps)+len(next.steps))
	steps = append(steps, s.steps...)
	return Sequence{steps: append(steps, next.steps...)}
}

// Len returns the number of steps.
func (s Sequence) Len() int {
	return len(s.steps)
}

// Steps returns a copy of the steps.
func (s Sequence) Steps() []Step {
	steps := make([]Step, len(s.steps))
	copy(steps, s.steps)
	return steps
}

// Duration returns the sum of all delays, which is the run time of the
// sequence when actions take no time.
func (s Sequence) Duration() time.Duration {
	var total time.Duration
	for _, step := range s.steps {
		total += step.Delay
	}
	return total
}
