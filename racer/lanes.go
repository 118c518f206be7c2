package main

import (
	"fmt"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"github.com/itohio/goracer/pkg/choreo"
	"github.com/itohio/goracer/pkg/config"
)

// laneIndicator shows the trigger state and pass count of one lane.
type laneIndicator struct {
	lane   int
	btn    *widget.Button
	passes int
	lit    int // generation of the latest trigger, used to expire the highlight
}

// createLanes creates one indicator per configured lane.
func createLanes(state *appState) fyne.CanvasObject {
	row := container.NewGridWithColumns(config.MaxLanes)
	for i := 0; i < state.cfg.Lanes(); i++ {
		lane := &laneIndicator{lane: i + 1}
		lane.btn = widget.NewButtonWithIcon("", theme.InfoIcon(), nil)
		lane.update(false)
		state.lanes = append(state.lanes, lane)
		row.Add(lane.btn)
	}
	return row
}

// trigger highlights the lane for as long as the board flashes its LED.
func (l *laneIndicator) trigger() {
	l.passes++
	l.lit++
	lit := l.lit
	l.update(true)

	time.AfterFunc(choreo.FlashDuration, func() {
		fyne.Do(func() {
			if l.lit == lit {
				l.update(false)
			}
		})
	})
}

func (l *laneIndicator) reset() {
	l.passes = 0
	l.lit++
	l.update(false)
}

// update updates the visual state of the lane button.
func (l *laneIndicator) update(isOn bool) {
	l.btn.SetText(fmt.Sprintf("Lane %d: %d", l.lane, l.passes))
	if isOn {
		l.btn.Importance = widget.HighImportance
	} else {
		l.btn.Importance = widget.MediumImportance
	}
	l.btn.Refresh()
}
