package sequence

import (
	"container/heap"
	"time"
)

// event is a function due at a point in time.
type event struct {
	due   time.Time
	order uint64 // FIFO among events with the same due time
	fn    func()
	index int    // position in the heap, -1 when not queued
}

// eventQueue is a min-heap of events ordered by due time.
type eventQueue []*event

func (q eventQueue) Len() int { return len(q) }

func (q eventQueue) Less(i, j int) bool {
	if q[i].due.Equal(q[j].due) {
		return q[i].order < q[j].order
	}
	return q[i].due.Before(q[j].due)
}

func (q eventQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].index = i
	q[j].index = j
}

func (q *eventQueue) Push(x any) {
	ev := x.(*event)
	ev.index = len(*q)
	*q = append(*q, ev)
}

func (q *eventQueue) Pop() any {
	old := *q
	n := len(old)
	ev := old[n-1]
	old[n-1] = nil
	ev.index = -1
	*q = old[:n-1]
	return ev
}

func (q *eventQueue) remove(ev *event) {
	if ev.index >= 0 && ev.index < len(*q) && (*q)[ev.index] == ev {
		heap.Remove(q, ev.index)
	}
}

func (q eventQueue) peek() *event {
	if len(q) == 0 {
		return nil
	}
	return q[0]
}
