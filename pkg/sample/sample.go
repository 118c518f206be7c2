package sample

import (
	"log"
	"time"

	"github.com/itohio/goracer/pkg/board"
)

// DefaultBufferSize is the output buffer of converters created with bufSize <= 0.
const DefaultBufferSize = 100

// Converter is a function type that transforms a Reading channel into another Reading channel.
// The output channel is closed once the input channel is closed and drained.
type Converter func(in <-chan board.Reading) <-chan board.Reading

// Chain composes converters left to right. Chain() passes readings through unchanged.
func Chain(converters ...Converter) Converter {
	return func(in <-chan board.Reading) <-chan board.Reading {
		out := in
		for _, c := range converters {
			if c != nil {
				out = c(out)
			}
		}
		return out
	}
}

// NewChannelFilter creates a converter that only passes readings from channels.
func NewChannelFilter(channels []int, bufSize int) Converter {
	if bufSize <= 0 {
		bufSize = DefaultBufferSize
	}

	allowed := make(map[int]struct{}, len(channels))
	for _, ch := range channels {
		allowed[ch] = struct{}{}
	}

	return func(in <-chan board.Reading) <-chan board.Reading {
		out := make(chan board.Reading, bufSize)

		go func() {
			defer close(out)

			for r := range in {
				if _, ok := allowed[r.Channel]; !ok {
					continue
				}
				forward(out, r)
			}
		}()

		return out
	}
}

// forward sends r, giving a slow consumer a second before dropping it.
func forward(out chan<- board.Reading, r board.Reading) {
	select {
	case out <- r:
	case <-time.After(time.Second):
		log.Printf("Converter output channel full, dropping reading")
	}
}
