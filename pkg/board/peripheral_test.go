package board

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func connectedMock(t *testing.T) *Mock {
	t.Helper()
	dev := quietMock()
	require.NoError(t, dev.Connect(context.Background()))
	t.Cleanup(func() { dev.Close() })
	return dev
}

func TestLed(t *testing.T) {
	dev := connectedMock(t)
	led := NewLed(dev, 9)
	assert.Equal(t, 9, led.Pin())

	require.NoError(t, led.On())
	assert.True(t, dev.Pin(9).High)

	require.NoError(t, led.Blink(125*time.Millisecond))
	assert.Equal(t, 125*time.Millisecond, dev.Pin(9).Blink)

	require.NoError(t, led.Stop())
	require.NoError(t, led.Off())
	assert.Equal(t, PinState{}, dev.Pin(9))
}

func TestPiezo(t *testing.T) {
	dev := connectedMock(t)
	piezo := NewPiezo(dev, 3)

	require.NoError(t, piezo.Tone(3900, time.Second))
	assert.Equal(t, 3900, dev.Pin(3).Tone)

	require.NoError(t, piezo.NoTone())
	assert.Equal(t, 0, dev.Pin(3).Tone)
}

func TestReleasedPeripheralsAreStale(t *testing.T) {
	dev := connectedMock(t)
	led := NewLed(dev, 9)
	piezo := NewPiezo(dev, 3)
	sensor := NewSensor(0, time.Millisecond, 5)

	led.Release()
	piezo.Release()
	sensor.Release()
	led.Release() // idempotent

	assert.ErrorIs(t, led.On(), ErrStalePeripheral)
	assert.ErrorIs(t, led.Off(), ErrStalePeripheral)
	assert.ErrorIs(t, led.Blink(time.Second), ErrStalePeripheral)
	assert.ErrorIs(t, led.Stop(), ErrStalePeripheral)
	assert.ErrorIs(t, piezo.Tone(3900, time.Second), ErrStalePeripheral)
	assert.ErrorIs(t, piezo.NoTone(), ErrStalePeripheral)
	assert.ErrorIs(t, sensor.Enable(dev), ErrStalePeripheral)
	assert.False(t, sensor.Update(Reading{Channel: 0, Value: 10}))
	assert.Empty(t, dev.Commands(), "released handles must not reach the board")
}

func TestSensor_Enable(t *testing.T) {
	dev := connectedMock(t)
	sensor := NewSensor(2, time.Millisecond, 5)

	require.NoError(t, sensor.Enable(dev))
	assert.Equal(t, time.Millisecond, dev.Reporting(2))
}

func TestSensor_Update(t *testing.T) {
	sensor := NewSensor(1, time.Millisecond, 5)

	_, ok := sensor.lastValue()
	assert.False(t, ok)

	steps := []struct {
		channel int
		value   uint16
		changed bool
		last    int
	}{
		{1, 900, true, 900},  // first reading always notifies
		{1, 903, false, 900}, // below change threshold
		{1, 896, false, 900},
		{1, 905, true, 905},  // exactly the threshold
		{0, 100, false, 905}, // other channel
		{1, 100, true, 100},
		{1, 100, false, 100},
	}

	for i, s := range steps {
		changed := sensor.Update(Reading{Channel: s.channel, Value: s.value})
		assert.Equal(t, s.changed, changed, "step %d", i)
		last, ok := sensor.lastValue()
		assert.True(t, ok)
		assert.Equal(t, s.last, last, "step %d", i)
	}
}

func TestNewSensor_DefaultChangeThreshold(t *testing.T) {
	sensor := NewSensor(0, time.Millisecond, 0)
	assert.Equal(t, DefaultChangeThreshold, sensor.changeThreshold)
}
