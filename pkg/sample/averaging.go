package sample

import (
	"github.com/itohio/goracer/pkg/board"
)

// NewAveragingConverter creates a converter that replaces every reading with
// the average of the last windowSize readings of the same channel. This
// reduces sensor noise without changing the reading rate.
func NewAveragingConverter(windowSize int, bufSize int) Converter {
	if windowSize <= 0 {
		windowSize = 1 // No averaging if invalid
	}
	if bufSize <= 0 {
		bufSize = DefaultBufferSize
	}

	return func(in <-chan board.Reading) <-chan board.Reading {
		out := make(chan board.Reading, bufSize)

		go func() {
			defer close(out)

			buffers := make(map[int][]board.Reading)
			for r := range in {
				buffer := append(buffers[r.Channel], r)
				if len(buffer) > windowSize {
					buffer = buffer[1:] // Remove oldest
				}
				buffers[r.Channel] = buffer

				forward(out, averageReadings(buffer))
			}
		}()

		return out
	}
}

// averageReadings averages a slice of readings of one channel.
// Uses the most recent reading's timestamp.
func averageReadings(readings []board.Reading) board.Reading {
	if len(readings) == 0 {
		return board.Reading{}
	}

	var sum uint32
	last := readings[len(readings)-1]
	for _, r := range readings {
		sum += uint32(r.Value)
	}

	n := uint32(len(readings))
	return board.Reading{
		Timestamp: last.Timestamp,
		Channel:   last.Channel,
		Value:     uint16((sum + n/2) / n), // Round to nearest
	}
}
