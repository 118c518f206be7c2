package sequence

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGroup_AbortAll(t *testing.T) {
	tl, s := newTimeline()
	var g Group

	g.Add(s.Start(New().Delay(10*time.Millisecond, tl.action("short"))))
	long := g.Add(s.Start(New().
		Delay(10*time.Millisecond, tl.action("long1")).
		Delay(time.Second, tl.action("long2"))))
	other := g.Add(s.Start(New().Delay(500*time.Millisecond, tl.action("other"))))
	assert.Equal(t, 3, g.running())

	tl.advance(s, 20*time.Millisecond)
	assert.Equal(t, 2, g.running(), "completed handles are dropped")

	assert.Equal(t, 2, g.AbortAll())
	assert.Equal(t, Aborted, long.State())
	assert.Equal(t, Aborted, other.State())
	assert.Equal(t, 0, g.running())
	assert.Equal(t, 0, s.Pending())

	tl.advance(s, 2*time.Second)
	assert.Equal(t, []string{"short", "long1"}, tl.names())

	assert.Equal(t, 0, g.AbortAll(), "second abort finds nothing")
}

func TestGroup_AddFinishedHandle(t *testing.T) {
	_, s := newTimeline()
	var g Group

	h := g.Add(s.Start(New()))
	assert.Equal(t, Completed, h.State())
	assert.Equal(t, 0, g.running())
}
