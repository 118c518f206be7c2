package sequence

import "sync"

// Group tracks running handles so they can be aborted together.
// The zero value is ready to use.
type Group struct {
	mu      sync.Mutex
	handles map[*Handle]struct{}
}

// Add tracks h and returns it. Finished handles are dropped.
func (g *Group) Add(h *Handle) *Handle {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.handles == nil {
		g.handles = make(map[*Handle]struct{})
	}
	g.pruneLocked()
	if h.State() == Running {
		g.handles[h] = struct{}{}
	}
	return h
}

// running returns the number of tracked handles that are still running.
func (g *Group) running() int {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.pruneLocked()
	return len(g.handles)
}

// AbortAll aborts every tracked handle and returns how many were still running.
func (g *Group) AbortAll() int {
	g.mu.Lock()
	handles := g.handles
	g.handles = nil
	g.mu.Unlock()

	n := 0
	for h := range handles {
		if h.State() == Running {
			n++
		}
		h.Abort()
	}
	return n
}

func (g *Group) pruneLocked() {
	for h := range g.handles {
		if h.State() != Running {
			delete(g.handles, h)
		}
	}
}
