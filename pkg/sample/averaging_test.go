package sample

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itohio/goracer/pkg/board"
)

func collect(out <-chan board.Reading) []board.Reading {
	var result []board.Reading
	for r := range out {
		result = append(result, r)
	}
	return result
}

func TestNewAveragingConverter_MovingAverage(t *testing.T) {
	in := make(chan board.Reading, 10)
	out := NewAveragingConverter(3, 10)(in)

	now := time.Now()
	for i, v := range []uint16{100, 200, 300, 400} {
		in <- board.Reading{Timestamp: now.Add(time.Duration(i) * time.Millisecond), Channel: 0, Value: v}
	}
	close(in)

	got := collect(out)
	require.Len(t, got, 4, "one output per input")
	assert.Equal(t, uint16(100), got[0].Value)
	assert.Equal(t, uint16(150), got[1].Value)
	assert.Equal(t, uint16(200), got[2].Value)
	assert.Equal(t, uint16(300), got[3].Value) // window holds 200, 300, 400
	assert.Equal(t, now.Add(3*time.Millisecond), got[3].Timestamp)
}

func TestNewAveragingConverter_PerChannel(t *testing.T) {
	in := make(chan board.Reading, 10)
	out := NewAveragingConverter(2, 10)(in)

	in <- board.Reading{Channel: 0, Value: 1000}
	in <- board.Reading{Channel: 1, Value: 10}
	in <- board.Reading{Channel: 0, Value: 800}
	in <- board.Reading{Channel: 1, Value: 20}
	close(in)

	got := collect(out)
	require.Len(t, got, 4)
	assert.Equal(t, board.Reading{Channel: 0, Value: 1000}, got[0])
	assert.Equal(t, board.Reading{Channel: 1, Value: 10}, got[1])
	assert.Equal(t, board.Reading{Channel: 0, Value: 900}, got[2])
	assert.Equal(t, board.Reading{Channel: 1, Value: 15}, got[3])
}

func TestNewAveragingConverter_InvalidWindow(t *testing.T) {
	in := make(chan board.Reading, 3)
	out := NewAveragingConverter(0, 0)(in)

	in <- board.Reading{Value: 10}
	in <- board.Reading{Value: 20}
	close(in)

	got := collect(out)
	require.Len(t, got, 2)
	assert.Equal(t, uint16(20), got[1].Value, "window of one passes readings through")
}

func TestAverageReadings_Rounding(t *testing.T) {
	avg := averageReadings([]board.Reading{{Value: 1}, {Value: 2}})
	assert.Equal(t, uint16(2), avg.Value) // 1.5 rounds up

	avg = averageReadings([]board.Reading{{Value: 1}, {Value: 1}, {Value: 2}})
	assert.Equal(t, uint16(1), avg.Value) // 1.33 rounds down

	assert.Equal(t, board.Reading{}, averageReadings(nil))
}
