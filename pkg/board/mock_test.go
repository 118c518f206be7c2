package board

import (
	"context"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itohio/goracer/pkg/config"
)

func quietMock() *Mock {
	return NewMock(&config.MockConfig{Baseline: 900})
}

func TestNewMock_NilConfig(t *testing.T) {
	dev := NewMock(nil)
	assert.NotNil(t, dev)
	assert.NotNil(t, dev.cfg)
	assert.Equal(t, config.Default().Mock, *dev.cfg)
	assert.False(t, dev.IsConnected())
}

func TestMock_ConnectTwice(t *testing.T) {
	dev := quietMock()
	require.NoError(t, dev.Connect(context.Background()))
	defer dev.Close()

	err := dev.Connect(context.Background())
	assert.ErrorIs(t, err, ErrAlreadyConnected)
}

func TestMock_ConnectCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := quietMock().Connect(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMock_Outputs(t *testing.T) {
	clock := clockwork.NewFakeClock()
	dev := NewMockWithClock(&config.MockConfig{}, clock)
	require.NoError(t, dev.Connect(context.Background()))
	defer dev.Close()

	require.NoError(t, dev.DigitalWrite(9, true))
	require.NoError(t, dev.Blink(10, 125*time.Millisecond))
	clock.Advance(time.Second)
	require.NoError(t, dev.Tone(3, 3900, time.Second))
	require.NoError(t, dev.ReportAnalog(1, time.Millisecond))

	assert.Equal(t, PinState{High: true}, dev.Pin(9))
	assert.Equal(t, PinState{Blink: 125 * time.Millisecond}, dev.Pin(10))
	assert.Equal(t, PinState{Tone: 3900}, dev.Pin(3))
	assert.Equal(t, time.Millisecond, dev.Reporting(1))

	require.NoError(t, dev.NoTone(3))
	require.NoError(t, dev.ReportAnalog(1, 0))
	assert.Equal(t, PinState{}, dev.Pin(3))
	assert.Equal(t, time.Duration(0), dev.Reporting(1))

	cmds := dev.Commands()
	require.Len(t, cmds, 6)
	lines := make([]string, len(cmds))
	for i, c := range cmds {
		lines[i] = c.Line
	}
	assert.Equal(t, []string{"D9,1", "B10,125", "T3,3900,1000", "A1,1", "N3", "A1,0"}, lines)
	assert.Equal(t, time.Second, cmds[2].At.Sub(cmds[0].At))
}

func TestMock_OutputsRequireConnection(t *testing.T) {
	dev := quietMock()
	assert.ErrorIs(t, dev.DigitalWrite(9, true), ErrNotConnected)
	assert.ErrorIs(t, dev.Inject(0, 10), ErrNotConnected)
	assert.Empty(t, dev.Commands())
}

func TestMock_Inject(t *testing.T) {
	dev := quietMock()
	require.NoError(t, dev.Connect(context.Background()))
	defer dev.Close()

	require.NoError(t, dev.Inject(2, 17))

	select {
	case r := <-dev.Readings():
		assert.Equal(t, 2, r.Channel)
		assert.Equal(t, uint16(17), r.Value)
	case <-time.After(time.Second):
		t.Fatal("no reading delivered")
	}
}

func TestMock_GeneratesReadingsForReportingChannels(t *testing.T) {
	dev := NewMock(&config.MockConfig{
		SampleRate:   5 * time.Millisecond,
		Baseline:     900,
		Noise:        3,
		PassPeriod:   time.Second,
		PassDuration: 100 * time.Millisecond,
		PassValue:    100,
	})
	require.NoError(t, dev.Connect(context.Background()))
	defer dev.Close()
	require.NoError(t, dev.ReportAnalog(1, time.Millisecond))

	select {
	case r := <-dev.Readings():
		assert.Equal(t, 1, r.Channel)
		assert.LessOrEqual(t, r.Value, uint16(MaxReading))
	case <-time.After(2 * time.Second):
		t.Fatal("no reading generated")
	}
}

func TestMock_Simulate(t *testing.T) {
	dev := NewMock(&config.MockConfig{
		Baseline:     900,
		PassPeriod:   3 * time.Second,
		PassDuration: 100 * time.Millisecond,
		PassValue:    100,
	})

	// Lane 0 passes at the start of every period, lane 1 a third later.
	assert.Equal(t, uint16(100), dev.simulate(0, 50*time.Millisecond))
	assert.Equal(t, uint16(900), dev.simulate(0, 500*time.Millisecond))
	assert.Equal(t, uint16(900), dev.simulate(1, 50*time.Millisecond))
	assert.Equal(t, uint16(100), dev.simulate(1, 2050*time.Millisecond))
	assert.Equal(t, uint16(100), dev.simulate(0, 3050*time.Millisecond))
}

func TestMock_SimulateClamps(t *testing.T) {
	dev := NewMock(&config.MockConfig{Baseline: 5000})
	assert.Equal(t, uint16(MaxReading), dev.simulate(0, 0))
}
