package rig

import (
	"fmt"

	"github.com/itohio/goracer/pkg/board"
	"github.com/itohio/goracer/pkg/choreo"
	"github.com/itohio/goracer/pkg/config"
	"github.com/itohio/goracer/pkg/filter"
	"github.com/itohio/goracer/pkg/sequence"
)

// lane binds a sensor to its filter and indicator LED.
type lane struct {
	id     int
	led    *board.Led
	sensor *board.Sensor
	filter filter.Filter

	// flash is only touched from the scheduler loop.
	flash *sequence.Handle
}

// peripherals are the handles created for one connection.
type peripherals struct {
	b     board.Board
	lanes []*lane
	piezo *board.Piezo
}

func newPeripherals(b board.Board, cfg *config.Config) (*peripherals, error) {
	p := &peripherals{
		b:     b,
		piezo: board.NewPiezo(b, cfg.Pins.Piezo),
	}

	if len(cfg.Pins.Leds) < len(cfg.Pins.Sensors) {
		return nil, fmt.Errorf("expected one led per sensor, got %d leds for %d sensors", len(cfg.Pins.Leds), len(cfg.Pins.Sensors))
	}

	for i, pin := range cfg.Pins.Sensors {
		f, err := filter.New(i+1, cfg.Sensor.Threshold, 0, cfg.Sensor.InputMax)
		if err != nil {
			return nil, fmt.Errorf("lane %d: %w", i+1, err)
		}

		l := &lane{
			id:     i + 1,
			led:    board.NewLed(b, cfg.Pins.Leds[i]),
			sensor: board.NewSensor(int(pin), cfg.Sensor.Frequency, cfg.Sensor.ChangeThreshold),
			filter: f,
		}
		if err := l.sensor.Enable(b); err != nil {
			return nil, fmt.Errorf("failed to enable sensor %s: %w", pin, err)
		}
		p.lanes = append(p.lanes, l)
	}

	return p, nil
}

func (p *peripherals) lights() []choreo.Light {
	lights := make([]choreo.Light, 0, len(p.lanes))
	for _, l := range p.lanes {
		lights = append(lights, l.led)
	}
	return lights
}

func (p *peripherals) channels() []int {
	channels := make([]int, 0, len(p.lanes))
	for _, l := range p.lanes {
		channels = append(channels, l.sensor.Channel())
	}
	return channels
}

// shutdown silences every output and releases the handles. Outputs are
// only driven while the board is still attached.
func (p *peripherals) shutdown() {
	if p.b.IsConnected() {
		for _, l := range p.lanes {
			l.led.Stop()
			l.led.Off()
			p.b.ReportAnalog(l.sensor.Channel(), 0)
		}
		p.piezo.NoTone()
	}

	for _, l := range p.lanes {
		l.led.Release()
		l.sensor.Release()
	}
	p.piezo.Release()
}
