package board

import (
	"context"
	"time"
)

// Board defines the interface for race rig boards (real or mocked).
//
// Pins passed to DigitalWrite, Blink, Tone and NoTone are digital pin numbers;
// ReportAnalog takes an analog channel number.
type Board interface {
	Connect(ctx context.Context) error
	Close() error
	IsConnected() bool

	// Readings delivers analog readings for every reporting channel. It is
	// closed when the board disconnects.
	Readings() <-chan Reading
	// Done is closed when the link is gone, whether by Close or by the board
	// going away.
	Done() <-chan struct{}

	DigitalWrite(pin int, high bool) error
	Blink(pin int, period time.Duration) error
	Tone(pin int, frequency int, duration time.Duration) error
	NoTone(pin int) error
	ReportAnalog(channel int, interval time.Duration) error
}

// Ensure Serial implements Board.
var _ Board = (*Serial)(nil)

// Ensure Mock implements Board.
var _ Board = (*Mock)(nil)
