package board

import (
	"sync"
	"sync/atomic"
	"time"
)

// DefaultChangeThreshold is the raw distance a reading must move to count as a change.
const DefaultChangeThreshold = 5

// handle is the released flag shared by peripheral handles.
type handle struct {
	released atomic.Bool
}

// Release invalidates the handle. Later operations return ErrStalePeripheral.
func (h *handle) Release() {
	h.released.Store(true)
}

// Released reports whether the handle was released.
func (h *handle) Released() bool {
	return h.released.Load()
}

// Led is a digital output driving an indicator LED.
type Led struct {
	handle
	b   Board
	pin int
}

// NewLed binds an LED handle to a pin of b.
func NewLed(b Board, pin int) *Led {
	return &Led{b: b, pin: pin}
}

// Pin returns the digital pin of the LED.
func (l *Led) Pin() int { return l.pin }

// On switches the LED on.
func (l *Led) On() error {
	if l.Released() {
		return ErrStalePeripheral
	}
	return l.b.DigitalWrite(l.pin, true)
}

// Off switches the LED off.
func (l *Led) Off() error {
	if l.Released() {
		return ErrStalePeripheral
	}
	return l.b.DigitalWrite(l.pin, false)
}

// Blink toggles the LED every period until Stop.
func (l *Led) Blink(period time.Duration) error {
	if l.Released() {
		return ErrStalePeripheral
	}
	return l.b.Blink(l.pin, period)
}

// Stop ends blinking. The LED keeps whatever level it had.
func (l *Led) Stop() error {
	if l.Released() {
		return ErrStalePeripheral
	}
	return l.b.Blink(l.pin, 0)
}

// Piezo is a buzzer on a digital pin.
type Piezo struct {
	handle
	b   Board
	pin int
}

// NewPiezo binds a buzzer handle to a pin of b.
func NewPiezo(b Board, pin int) *Piezo {
	return &Piezo{b: b, pin: pin}
}

// Pin returns the digital pin of the buzzer.
func (p *Piezo) Pin() int { return p.pin }

// Tone sounds frequency for duration.
func (p *Piezo) Tone(frequency int, duration time.Duration) error {
	if p.Released() {
		return ErrStalePeripheral
	}
	return p.b.Tone(p.pin, frequency, duration)
}

// NoTone silences the buzzer.
func (p *Piezo) NoTone() error {
	if p.Released() {
		return ErrStalePeripheral
	}
	return p.b.NoTone(p.pin)
}

// Sensor is an analog input that turns a stream of readings into change
// notifications: the first reading, and every reading at least
// changeThreshold away from the last notified value.
type Sensor struct {
	handle
	channel         int
	freq            time.Duration
	changeThreshold int

	mu    sync.Mutex
	last  int
	valid bool
}

// NewSensor creates a sensor on an analog channel sampled every freq.
func NewSensor(channel int, freq time.Duration, changeThreshold int) *Sensor {
	if changeThreshold <= 0 {
		changeThreshold = DefaultChangeThreshold
	}
	return &Sensor{
		channel:         channel,
		freq:            freq,
		changeThreshold: changeThreshold,
	}
}

// Channel returns the analog channel.
func (s *Sensor) Channel() int { return s.channel }

// Enable asks b to report the sensor's channel at the sensor frequency.
func (s *Sensor) Enable(b Board) error {
	if s.Released() {
		return ErrStalePeripheral
	}
	return b.ReportAnalog(s.channel, s.freq)
}

// Update feeds a reading and reports whether it is a change.
// Readings for other channels and readings after release are ignored.
func (s *Sensor) Update(r Reading) bool {
	if s.Released() || r.Channel != s.channel {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	value := int(r.Value)
	if s.valid {
		delta := value - s.last
		if delta < 0 {
			delta = -delta
		}
		if delta < s.changeThreshold {
			return false
		}
	}

	s.last = value
	s.valid = true
	return true
}

// lastValue returns the last notified reading.
func (s *Sensor) lastValue() (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last, s.valid
}
