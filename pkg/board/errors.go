package board

import (
	"errors"
	"fmt"
)

var (
	// ErrNotConnected is returned by output operations on a board that is not connected.
	ErrNotConnected = errors.New("not connected")
	// ErrAlreadyConnected is returned by Connect on a connected board.
	ErrAlreadyConnected = errors.New("already connected")
	// ErrClosed is returned by Connect on a board that was already closed.
	ErrClosed = errors.New("board closed")
	// ErrHandshakeTimeout is returned when the board does not answer the hello in time.
	ErrHandshakeTimeout = errors.New("handshake timed out")
	// ErrStalePeripheral is returned by peripheral handles used after release.
	ErrStalePeripheral = errors.New("peripheral released")
)

// ConnectionError reports a failure to open or handshake with a board.
type ConnectionError struct {
	Port string
	Err  error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("failed to connect to %s: %v", e.Port, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}
