package main

import (
	"log"

	"fyne.io/fyne/v2"

	"github.com/itohio/goracer/pkg/rig"
)

var _ rig.Client = (*raceClient)(nil)

// raceClient forwards race events to the UI thread.
type raceClient struct {
	state *appState
}

func (c *raceClient) SensorTriggered(lane int) {
	log.Printf("Lane %d triggered", lane)
	fyne.Do(func() {
		if lane >= 1 && lane <= len(c.state.lanes) {
			c.state.lanes[lane-1].trigger()
		}
	})
}

func (c *raceClient) RaceStarted() {
	fyne.Do(func() {
		c.state.racing = false
		updateControls(c.state)
		c.state.status.SetText("Racing")
	})
}

func (c *raceClient) BoardDisconnected() {
	fyne.Do(func() {
		c.state.racing = false
		for _, lane := range c.state.lanes {
			lane.reset()
		}
		updateControls(c.state)
	})
}
