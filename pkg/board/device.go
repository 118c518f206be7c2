package board

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.bug.st/serial"
	"go.bug.st/serial/enumerator"
)

const (
	// DefaultBaudRate is the baud rate the race firmware listens on.
	DefaultBaudRate = 57600
	// DefaultBufferSize is the default size for the readings channel buffer.
	DefaultBufferSize = 100
	// DefaultTimeout is how long Connect waits for the handshake reply.
	DefaultTimeout = 600 * time.Millisecond
	// HelloInterval is how often Connect repeats the hello. Boards that reset
	// when the port opens miss the hellos sent while their bootloader runs.
	HelloInterval = 100 * time.Millisecond
)

// openPort opens a serial port. Tests replace it.
type openPort func(name string, mode *serial.Mode) (io.ReadWriteCloser, error)

func openSerial(name string, mode *serial.Mode) (io.ReadWriteCloser, error) {
	return serial.Open(name, mode)
}

// Port represents a serial port.
type Port struct {
	Name        string
	Description string
}

// Serial represents a connection to the race rig MCU.
type Serial struct {
	port     string
	baudRate int
	bufSize  int
	timeout  time.Duration

	open     openPort
	conn     io.ReadWriteCloser
	readings chan Reading
	hello    chan string
	done     chan struct{}
	ctx      context.Context
	cancel   context.CancelFunc

	mu        sync.Mutex // serializes Connect and Close
	wmu       sync.Mutex // serializes writes
	connected atomic.Bool
	started   bool
	closed    bool
	finish    sync.Once
}

// New creates a new Serial board with the specified port, baud rate, buffer size
// and handshake timeout. Zero values select the defaults.
func New(port string, baudRate int, bufSize int, timeout time.Duration) *Serial {
	if baudRate == 0 {
		baudRate = DefaultBaudRate
	}
	if bufSize == 0 {
		bufSize = DefaultBufferSize
	}
	if timeout == 0 {
		timeout = DefaultTimeout
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Serial{
		port:     port,
		baudRate: baudRate,
		bufSize:  bufSize,
		timeout:  timeout,
		open:     openSerial,
		readings: make(chan Reading, bufSize),
		hello:    make(chan string, 1),
		done:     make(chan struct{}),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Ports returns a list of available serial ports.
func Ports() ([]Port, error) {
	details, err := enumerator.GetDetailedPortsList()
	if err != nil {
		names, err := serial.GetPortsList()
		if err != nil {
			return nil, fmt.Errorf("failed to list serial ports: %w", err)
		}
		result := make([]Port, 0, len(names))
		for _, name := range names {
			result = append(result, Port{Name: name, Description: name})
		}
		return result, nil
	}

	result := make([]Port, 0, len(details))
	for _, d := range details {
		desc := d.Name
		if d.IsUSB {
			desc = fmt.Sprintf("%s [%s:%s]", d.Product, d.VID, d.PID)
		}
		result = append(result, Port{
			Name:        d.Name,
			Description: desc,
		})
	}

	return result, nil
}

// Connect opens the serial port, starts reading and sends a hello every
// HelloInterval until the board answers. Failures are returned as *ConnectionError.
func (d *Serial) Connect(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return &ConnectionError{Port: d.port, Err: ErrClosed}
	}
	if d.started {
		return &ConnectionError{Port: d.port, Err: ErrAlreadyConnected}
	}

	port, err := d.open(d.port, &serial.Mode{BaudRate: d.baudRate})
	if err != nil {
		return &ConnectionError{Port: d.port, Err: err}
	}

	d.conn = port
	d.started = true

	go d.readLines()

	if err := d.write(helloCommand); err != nil {
		d.closeLocked()
		return &ConnectionError{Port: d.port, Err: err}
	}

	timer := time.NewTimer(d.timeout)
	defer timer.Stop()
	ticker := time.NewTicker(HelloInterval)
	defer ticker.Stop()

	for {
		select {
		case name := <-d.hello:
			d.connected.Store(true)
			log.Printf("Board %q ready on %s", name, d.port)
			return nil
		case <-ticker.C:
			if err := d.write(helloCommand); err != nil {
				d.closeLocked()
				return &ConnectionError{Port: d.port, Err: err}
			}
		case <-d.done:
			d.closeLocked()
			return &ConnectionError{Port: d.port, Err: io.ErrUnexpectedEOF}
		case <-timer.C:
			d.closeLocked()
			return &ConnectionError{Port: d.port, Err: ErrHandshakeTimeout}
		case <-ctx.Done():
			d.closeLocked()
			return &ConnectionError{Port: d.port, Err: ctx.Err()}
		}
	}
}

// Close closes the connection and waits for the reader to stop.
func (d *Serial) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.closeLocked()
	return nil
}

func (d *Serial) closeLocked() {
	if d.closed {
		return
	}
	d.closed = true
	d.connected.Store(false)
	d.cancel()

	if d.conn == nil {
		d.finishReading()
		return
	}

	if err := d.conn.Close(); err != nil {
		log.Printf("Error closing serial port: %v", err)
	}

	<-d.done
}

// Readings returns the channel for reading analog samples.
func (d *Serial) Readings() <-chan Reading {
	return d.readings
}

// Done is closed once the reader has stopped.
func (d *Serial) Done() <-chan struct{} {
	return d.done
}

// IsConnected returns whether the board is currently connected.
func (d *Serial) IsConnected() bool {
	return d.connected.Load()
}

// DigitalWrite drives a digital pin high or low.
func (d *Serial) DigitalWrite(pin int, high bool) error {
	return d.send(digitalCommand(pin, high))
}

// Blink toggles a pin with the given period on the MCU. A zero period stops blinking.
func (d *Serial) Blink(pin int, period time.Duration) error {
	return d.send(blinkCommand(pin, period))
}

// Tone plays a square wave on a pin. A zero duration plays until NoTone.
func (d *Serial) Tone(pin int, frequency int, duration time.Duration) error {
	return d.send(toneCommand(pin, frequency, duration))
}

// NoTone silences a pin.
func (d *Serial) NoTone(pin int) error {
	return d.send(noToneCommand(pin))
}

// ReportAnalog asks the MCU to report an analog channel every interval. A zero interval disables it.
func (d *Serial) ReportAnalog(channel int, interval time.Duration) error {
	return d.send(reportCommand(channel, interval))
}

func (d *Serial) send(cmd string) error {
	if !d.connected.Load() {
		return ErrNotConnected
	}
	if err := d.write(cmd); err != nil {
		return fmt.Errorf("failed to send %q: %w", strings.TrimSpace(cmd), err)
	}
	return nil
}

func (d *Serial) write(cmd string) error {
	d.wmu.Lock()
	defer d.wmu.Unlock()

	_, err := d.conn.Write([]byte(cmd))
	return err
}

func (d *Serial) finishReading() {
	d.finish.Do(func() {
		d.connected.Store(false)
		close(d.readings)
		close(d.done)
	})
}

// readLines reads lines from the serial port and dispatches readings and handshake replies.
func (d *Serial) readLines() {
	defer d.finishReading()
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Panic in readLines: %v", r)
		}
	}()

	scanner := bufio.NewScanner(d.conn)
	for {
		select {
		case <-d.ctx.Done():
			return
		default:
		}

		if !scanner.Scan() {
			if err := scanner.Err(); err != nil && d.ctx.Err() == nil {
				log.Printf("Error reading from serial port: %v", err)
			}
			return
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if name, ok := parseReady(line); ok {
			select {
			case d.hello <- name:
			default:
			}
			continue
		}

		reading, err := parseLine(line)
		if err != nil {
			log.Printf("Failed to parse line '%s': %v", line, err)
			continue
		}

		select {
		case d.readings <- reading:
		case <-d.ctx.Done():
			return
		default:
			log.Printf("Readings channel full, dropping reading")
		}
	}
}
