// Package rig manages the board connection and wires sensors, lights and the
// start countdown together.
package rig

import (
	"context"
	"log"
	"sync"

	"github.com/itohio/goracer/pkg/board"
	"github.com/itohio/goracer/pkg/choreo"
	"github.com/itohio/goracer/pkg/config"
	"github.com/itohio/goracer/pkg/sample"
	"github.com/itohio/goracer/pkg/sequence"
)

// Factory creates the board for a connection attempt.
type Factory func(cfg *config.Config) board.Board

// SerialFactory creates a serial board from the serial section of cfg.
func SerialFactory(cfg *config.Config) board.Board {
	return board.New(cfg.Serial.Port, cfg.Serial.BaudRate, 0, cfg.Serial.Timeout)
}

// Manager owns the board connection. Sensor evaluation and every choreography
// run on the scheduler loop.
type Manager struct {
	factory Factory
	sched   *sequence.Scheduler
	client  Client

	mu        sync.Mutex
	cfg       config.Config
	state     State
	attempt   context.CancelFunc // cancels the connection attempt in flight
	gen       uint64
	board     board.Board
	periph    *peripherals
	seqs      sequence.Group
	countdown *sequence.Handle

	onReady        []func()
	onDisconnected []func()
	onError        []func(error)
}

// New creates a disconnected manager.
func New(cfg *config.Config, factory Factory, sched *sequence.Scheduler, client Client) *Manager {
	if factory == nil {
		factory = SerialFactory
	}
	if client == nil {
		client = nopClient{}
	}
	return &Manager{
		cfg:     *cfg,
		factory: factory,
		sched:   sched,
		client:  client,
	}
}

// SetConfig replaces the configuration used by the next connection.
func (m *Manager) SetConfig(cfg *config.Config) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cfg = *cfg
}

// State returns the connection state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// OnReady registers fn to be called after every successful connection.
func (m *Manager) OnReady(fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onReady = append(m.onReady, fn)
}

// OnDisconnected registers fn to be called whenever the board goes away.
func (m *Manager) OnDisconnected(fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onDisconnected = append(m.onDisconnected, fn)
}

// OnError registers fn to be called with connection failures.
func (m *Manager) OnError(fn func(error)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onError = append(m.onError, fn)
}

// Connect opens the board and blocks until it is ready or the attempt fails.
// It does nothing while a connection is established or an earlier attempt
// has not returned yet. Failures leave the manager Disconnected, so Connect
// may be retried.
func (m *Manager) Connect(ctx context.Context) error {
	m.mu.Lock()
	if m.state != Disconnected || m.attempt != nil {
		m.mu.Unlock()
		return nil
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	m.state = Connecting
	m.attempt = cancel
	m.gen++
	gen := m.gen
	cfg := m.cfg
	m.mu.Unlock()

	b := m.factory(&cfg)
	err := b.Connect(ctx)

	m.mu.Lock()
	m.attempt = nil
	aborted := m.gen != gen
	if err != nil || aborted {
		if !aborted {
			m.state = Disconnected
		}
		m.mu.Unlock()
		b.Close()

		if aborted {
			log.Printf("Connection aborted")
			return ErrConnectAborted
		}
		log.Printf("Failed to connect: %v", err)
		m.notifyError(err)
		return err
	}

	p, err := newPeripherals(b, &cfg)
	if err != nil {
		m.state = Disconnected
		m.mu.Unlock()
		b.Close()

		log.Printf("Failed to set up board: %v", err)
		m.notifyError(err)
		return err
	}

	m.board = b
	m.periph = p
	m.state = Ready
	m.startLocked(choreo.ConnectAcknowledge(p.lights()...))
	listeners := append([]func(){}, m.onReady...)
	m.mu.Unlock()

	go m.pump(gen, b, p, cfg.Sensor.AverageSamples)
	go m.watch(gen, b)

	log.Printf("Board ready with %d lanes", len(p.lanes))
	for _, fn := range listeners {
		fn()
	}

	return nil
}

// Disconnect closes the board or cancels a connection attempt. It is safe
// to call at any time and more than once, but not from a scheduled action.
func (m *Manager) Disconnect() {
	m.mu.Lock()
	gen := m.gen
	m.mu.Unlock()

	m.teardown(gen)
}

// StartRace starts the countdown. Unless the countdown is skipped by
// configuration, the board must be ready and no countdown may be running.
func (m *Manager) StartRace() error {
	m.mu.Lock()

	if m.cfg.Race.SkipCountdown {
		m.mu.Unlock()
		log.Printf("Countdown skipped, race started")
		m.client.RaceStarted()
		return nil
	}

	defer m.mu.Unlock()

	if m.state != Ready {
		return ErrNotReady
	}
	if m.countdown != nil && m.countdown.State() == sequence.Running {
		return ErrCountdownRunning
	}

	gen := m.gen
	seq := choreo.RaceStart(m.periph.lights(), m.periph.piezo, m.cfg.Race.ToneFrequency, func() {
		m.raceStarted(gen)
	})
	m.countdown = m.startLocked(seq)
	log.Printf("Countdown started, %d steps over %v", seq.Len(), seq.Duration())

	return nil
}

// Countdown reports whether the start countdown is running.
func (m *Manager) Countdown() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.countdown != nil && m.countdown.State() == sequence.Running
}

func (m *Manager) raceStarted(gen uint64) {
	m.mu.Lock()
	current := m.gen == gen && m.state == Ready
	m.mu.Unlock()

	if current {
		log.Printf("Race started")
		m.client.RaceStarted()
	}
}

// startLocked starts seq and tracks it for abort on disconnect.
func (m *Manager) startLocked(seq sequence.Sequence) *sequence.Handle {
	return m.seqs.Add(m.sched.Start(seq))
}

// pump turns readings into sensor changes and posts them onto the loop.
func (m *Manager) pump(gen uint64, b board.Board, p *peripherals, average int) {
	readings := b.Readings()
	if average > 1 {
		readings = sample.Chain(
			sample.NewChannelFilter(p.channels(), 0),
			sample.NewAveragingConverter(average, 0),
		)(readings)
	}

	for r := range readings {
		for _, l := range p.lanes {
			if !l.sensor.Update(r) {
				continue
			}
			raw := int(r.Value)
			m.sched.Post(func() { m.observe(gen, l, raw) })
		}
	}
}

// observe runs on the loop.
func (m *Manager) observe(gen uint64, l *lane, raw int) {
	trigger, ok := l.filter.Observe(raw)
	if !ok {
		return
	}

	m.mu.Lock()
	if m.gen != gen || m.state != Ready {
		m.mu.Unlock()
		return
	}
	if l.flash != nil {
		l.flash.Abort()
	}
	l.flash = m.startLocked(choreo.Flash(l.led))
	m.mu.Unlock()

	m.client.SensorTriggered(trigger.Lane)
}

// watch tears the connection down when the board exits on its own.
func (m *Manager) watch(gen uint64, b board.Board) {
	<-b.Done()
	m.teardown(gen)
}

// teardown aborts every sequence before the handles are released, so no
// action fires against a released peripheral. It runs while no scheduled
// action is in flight. Only a board that was ready is reported as disconnected.
func (m *Manager) teardown(gen uint64) {
	var (
		b         board.Board
		wasReady  bool
		listeners []func()
	)

	m.sched.Exclusive(func() {
		m.mu.Lock()
		defer m.mu.Unlock()

		if m.gen != gen || m.state == Disconnected {
			return
		}

		wasReady = m.state == Ready
		if m.attempt != nil {
			m.attempt()
		}
		m.state = Disconnected
		m.gen++

		p := m.periph
		b = m.board
		m.board, m.periph, m.countdown = nil, nil, nil

		m.seqs.AbortAll()
		if p != nil {
			p.shutdown()
		}
		listeners = append([]func(){}, m.onDisconnected...)
	})

	if b != nil {
		if err := b.Close(); err != nil {
			log.Printf("Error closing board: %v", err)
		}
	}

	if !wasReady {
		return
	}

	log.Printf("Board disconnected")
	m.client.BoardDisconnected()
	for _, fn := range listeners {
		fn()
	}
}

func (m *Manager) notifyError(err error) {
	m.mu.Lock()
	listeners := append([]func(error){}, m.onError...)
	m.mu.Unlock()

	for _, fn := range listeners {
		fn(err)
	}
}
