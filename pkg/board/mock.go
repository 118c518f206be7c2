package board

import (
	"context"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/chewxy/math32"
	"github.com/jonboulle/clockwork"

	"github.com/itohio/goracer/pkg/config"
)

// MockPort is the port name reported by mock connection errors.
const MockPort = "mock"

// PinState is the simulated state of a digital pin.
type PinState struct {
	High  bool
	Blink time.Duration // Blink period, 0 when not blinking
	Tone  int           // Tone frequency, 0 when silent
}

// Command is an output command received by the mock, in wire format.
type Command struct {
	At   time.Time
	Line string
}

// Mock simulates a race rig board for testing and development.
// Tone durations are not simulated: a tone lasts until NoTone.
type Mock struct {
	cfg   *config.MockConfig
	clock clockwork.Clock

	readings chan Reading
	done     chan struct{}
	mu       sync.RWMutex
	ctx      context.Context
	cancel   context.CancelFunc

	connected bool
	closed    bool

	pins      map[int]PinState
	reporting map[int]time.Duration
	commands  []Command
	startTime time.Time
}

// NewMock creates a new mocked board using the wall clock.
func NewMock(cfg *config.MockConfig) *Mock {
	return NewMockWithClock(cfg, clockwork.NewRealClock())
}

// NewMockWithClock creates a new mocked board driven by clock.
func NewMockWithClock(cfg *config.MockConfig, clock clockwork.Clock) *Mock {
	if cfg == nil {
		def := config.Default().Mock
		cfg = &def
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Mock{
		cfg:       cfg,
		clock:     clock,
		readings:  make(chan Reading, DefaultBufferSize),
		done:      make(chan struct{}),
		ctx:       ctx,
		cancel:    cancel,
		pins:      make(map[int]PinState),
		reporting: make(map[int]time.Duration),
	}
}

// Connect simulates connecting to the board.
func (m *Mock) Connect(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return &ConnectionError{Port: MockPort, Err: ErrClosed}
	}
	if m.connected {
		return &ConnectionError{Port: MockPort, Err: ErrAlreadyConnected}
	}
	if err := ctx.Err(); err != nil {
		return &ConnectionError{Port: MockPort, Err: err}
	}

	m.connected = true
	m.startTime = m.clock.Now()

	if m.cfg.SampleRate > 0 {
		go m.generateReadings()
	}

	return nil
}

// Close stops the mocked board.
func (m *Mock) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil
	}

	m.closed = true
	m.connected = false
	m.cancel()
	close(m.readings)
	close(m.done)

	return nil
}

// Disconnect simulates the cable being pulled.
func (m *Mock) Disconnect() {
	log.Printf("Mock board disconnected")
	m.Close()
}

// Readings returns the channel for reading analog samples.
func (m *Mock) Readings() <-chan Reading {
	return m.readings
}

// Done is closed when the mock is closed or disconnected.
func (m *Mock) Done() <-chan struct{} {
	return m.done
}

// IsConnected returns whether the board is currently connected.
func (m *Mock) IsConnected() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.connected
}

// DigitalWrite sets a simulated pin level.
func (m *Mock) DigitalWrite(pin int, high bool) error {
	return m.apply(digitalCommand(pin, high), pin, func(s *PinState) {
		s.High = high
	})
}

// Blink sets a simulated blink period.
func (m *Mock) Blink(pin int, period time.Duration) error {
	return m.apply(blinkCommand(pin, period), pin, func(s *PinState) {
		s.Blink = period
	})
}

// Tone sets a simulated tone.
func (m *Mock) Tone(pin int, frequency int, duration time.Duration) error {
	return m.apply(toneCommand(pin, frequency, duration), pin, func(s *PinState) {
		s.Tone = frequency
	})
}

// NoTone silences a simulated pin.
func (m *Mock) NoTone(pin int) error {
	return m.apply(noToneCommand(pin), pin, func(s *PinState) {
		s.Tone = 0
	})
}

// ReportAnalog enables simulated readings for a channel.
func (m *Mock) ReportAnalog(channel int, interval time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.connected {
		return ErrNotConnected
	}

	m.record(reportCommand(channel, interval))
	if interval > 0 {
		m.reporting[channel] = interval
	} else {
		delete(m.reporting, channel)
	}

	return nil
}

// Inject delivers a reading as if the board had reported it.
func (m *Mock) Inject(channel int, value uint16) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if !m.connected {
		return ErrNotConnected
	}

	m.emitLocked(Reading{
		Timestamp: m.clock.Now(),
		Channel:   channel,
		Value:     value,
	})

	return nil
}

// Pin returns the simulated state of a digital pin.
func (m *Mock) Pin(pin int) PinState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pins[pin]
}

// Reporting returns the report interval of an analog channel, 0 if disabled.
func (m *Mock) Reporting(channel int) time.Duration {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.reporting[channel]
}

// Commands returns a copy of every output command received so far.
func (m *Mock) Commands() []Command {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]Command, len(m.commands))
	copy(result, m.commands)
	return result
}

func (m *Mock) apply(cmd string, pin int, update func(*PinState)) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.connected {
		return ErrNotConnected
	}

	m.record(cmd)
	state := m.pins[pin]
	update(&state)
	m.pins[pin] = state

	return nil
}

func (m *Mock) record(cmd string) {
	m.commands = append(m.commands, Command{
		At:   m.clock.Now(),
		Line: strings.TrimSpace(cmd),
	})
}

// emitLocked must be called with at least the read lock held.
func (m *Mock) emitLocked(r Reading) {
	if m.closed {
		return
	}
	select {
	case m.readings <- r:
	default:
		// Channel full, skip
	}
}

// generateReadings generates simulated readings for every reporting channel.
func (m *Mock) generateReadings() {
	ticker := m.clock.NewTicker(m.cfg.SampleRate)
	defer ticker.Stop()

	for {
		select {
		case <-m.ctx.Done():
			return
		case now := <-ticker.Chan():
			m.mu.RLock()
			elapsed := now.Sub(m.startTime)
			for channel := range m.reporting {
				m.emitLocked(Reading{
					Timestamp: now,
					Channel:   channel,
					Value:     m.simulate(channel, elapsed),
				})
			}
			m.mu.RUnlock()
		}
	}
}

// simulate returns the reading of a lane sensor: a noisy baseline with a
// low dip whenever a simulated car passes. Lanes are staggered by a third
// of the pass period.
func (m *Mock) simulate(channel int, elapsed time.Duration) uint16 {
	value := float32(m.cfg.Baseline)

	if m.cfg.PassPeriod > 0 {
		offset := time.Duration(channel) * m.cfg.PassPeriod / config.MaxLanes
		phase := (elapsed + offset) % m.cfg.PassPeriod
		if phase < m.cfg.PassDuration {
			value = float32(m.cfg.PassValue)
		}
	}

	t := float32(elapsed.Seconds())
	noise := (math32.Sin(t*997+float32(channel)) + math32.Cos(t*1301)) * 0.5
	value += noise * float32(m.cfg.Noise)

	value = math32.Max(0, math32.Min(MaxReading, math32.Floor(value+0.5)))
	return uint16(value)
}
