package sample

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itohio/goracer/pkg/board"
)

func TestNewChannelFilter(t *testing.T) {
	in := make(chan board.Reading, 10)
	out := NewChannelFilter([]int{0, 2}, 10)(in)

	for ch := 0; ch < 4; ch++ {
		in <- board.Reading{Channel: ch, Value: uint16(ch * 10)}
	}
	close(in)

	got := collect(out)
	require.Len(t, got, 2)
	assert.Equal(t, 0, got[0].Channel)
	assert.Equal(t, 2, got[1].Channel)
}

func TestChain(t *testing.T) {
	in := make(chan board.Reading, 10)
	out := Chain(
		NewChannelFilter([]int{1}, 10),
		nil,
		NewAveragingConverter(2, 10),
	)(in)

	in <- board.Reading{Channel: 1, Value: 100}
	in <- board.Reading{Channel: 0, Value: 999}
	in <- board.Reading{Channel: 1, Value: 300}
	close(in)

	got := collect(out)
	require.Len(t, got, 2)
	assert.Equal(t, uint16(100), got[0].Value)
	assert.Equal(t, uint16(200), got[1].Value)
}

func TestChain_Empty(t *testing.T) {
	in := make(chan board.Reading, 1)
	out := Chain()(in)

	in <- board.Reading{Channel: 3, Value: 7}
	close(in)

	assert.Equal(t, []board.Reading{{Channel: 3, Value: 7}}, collect(out))
}
