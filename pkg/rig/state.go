package rig

import "errors"

// State is the connection state of the rig.
type State int

const (
	Disconnected State = iota
	Connecting
	Ready
)

func (s State) String() string {
	switch s {
	case Disconnected:
		return "Disconnected"
	case Connecting:
		return "Connecting"
	case Ready:
		return "Ready"
	default:
		return "Unknown"
	}
}

var (
	// ErrNotReady is returned when the countdown is requested without a board.
	ErrNotReady = errors.New("board not ready")
	// ErrCountdownRunning is returned when the countdown is requested twice.
	ErrCountdownRunning = errors.New("countdown already running")
	// ErrConnectAborted is returned by Connect when Disconnect was called while connecting.
	ErrConnectAborted = errors.New("connection aborted")
)

// Client receives race events.
type Client interface {
	// SensorTriggered is called with the 1-based lane of a triggered sensor.
	SensorTriggered(lane int)
	// RaceStarted is called when the countdown ends and timing starts.
	RaceStarted()
	// BoardDisconnected is called when the board goes away.
	BoardDisconnected()
}

type nopClient struct{}

func (nopClient) SensorTriggered(int) {}
func (nopClient) RaceStarted()        {}
func (nopClient) BoardDisconnected()  {}
