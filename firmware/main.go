//go:build tinygo

//go:generate tinygo flash -target=arduino

package main

import (
	"machine"
	"time"
)

// output is a digital pin driven by the host.
type output struct {
	number int
	pin    machine.Pin
	high   bool

	blink time.Duration // Blink period, 0 when steady
	next  time.Time     // Next blink toggle

	tone      pwmTimer  // Timer driving the tone, nil when silent
	channel   uint8     // PWM channel of the tone
	toneUntil time.Time // Zero when the tone plays until N
}

// input is an analog channel reported to the host.
type input struct {
	adc      machine.ADC
	interval time.Duration // 0 when not reported
	next     time.Time
	sent     int       // Last reported value, -1 before the first report
	sentAt   time.Time // Time of the last report
}

var (
	uart = machine.UART0

	outputs = map[int]*output{}
	inputs  [len(analogPins)]input

	// Serial buffer for reading lines
	lineBuffer [LINE_SIZE]byte
	linePos    int
)

func main() {
	uart.Configure(machine.UARTConfig{
		BaudRate: UART_BAUD_RATE,
	})

	machine.InitADC()
	for i, pin := range analogPins {
		pin.Configure(machine.PinConfig{Mode: machine.PinInput})
		inputs[i].adc = machine.ADC{Pin: pin}
		inputs[i].adc.Configure(machine.ADCConfig{})
		inputs[i].sent = -1
	}

	// Announce ourselves once the bootloader is done; the host may have
	// sent its hello while the board was resetting.
	announce()

	// Main loop
	for {
		now := time.Now()

		// Check for serial input (non-blocking)
		processSerial(now)

		updateOutputs(now)
		reportInputs(now)

		// Small delay to prevent tight loop (but still allow precise timing)
		time.Sleep(50 * time.Microsecond)
	}
}

func announce() {
	print("READY,", FIRMWARE_NAME, "\n")
}

func processSerial(now time.Time) {
	for uart.Buffered() > 0 {
		data, err := uart.ReadByte()
		if err != nil {
			break
		}

		// Check for newline (end of line)
		if data == '\n' || data == '\r' {
			if linePos > 0 {
				handleCommand(lineBuffer[:linePos], now)
			}
			linePos = 0
			continue
		}

		// Ignore whitespace
		if data == ' ' || data == '\t' {
			continue
		}

		if linePos < len(lineBuffer) {
			lineBuffer[linePos] = data
			linePos++
		} else {
			// Overlong line - drop it
			linePos = 0
		}
	}
}

// handleCommand executes one host command. Malformed commands are ignored.
func handleCommand(line []byte, now time.Time) {
	var args [3]int
	n, ok := parseArgs(line[1:], args[:])
	if !ok {
		return
	}

	switch line[0] {
	case '?':
		announce()
	case 'D':
		if n != 2 {
			return
		}
		if out := getOutput(args[0]); out != nil {
			out.stopTone()
			out.blink = 0
			out.set(args[1] != 0)
		}
	case 'B':
		if n != 2 {
			return
		}
		if out := getOutput(args[0]); out != nil {
			out.blink = time.Duration(args[1]) * time.Millisecond
			out.next = now.Add(out.blink)
		}
	case 'T':
		if n != 3 || args[1] <= 0 {
			return
		}
		if out := getOutput(args[0]); out != nil {
			out.startTone(args[1], now, time.Duration(args[2])*time.Millisecond)
		}
	case 'N':
		if n != 1 {
			return
		}
		if out := getOutput(args[0]); out != nil {
			out.stopTone()
		}
	case 'A':
		if n != 2 || args[0] < 0 || args[0] >= len(inputs) {
			return
		}
		in := &inputs[args[0]]
		in.interval = 0
		if args[1] > 0 {
			in.interval = max(time.Duration(args[1])*time.Millisecond, MIN_REPORT_INTERVAL)
		}
		in.next = now
		in.sent = -1
	}
}

// parseArgs parses comma separated non-negative integers.
func parseArgs(s []byte, args []int) (int, bool) {
	if len(s) == 0 {
		return 0, true
	}

	n := 0
	value := 0
	digits := 0
	for _, c := range s {
		switch {
		case c >= '0' && c <= '9':
			value = value*10 + int(c-'0')
			digits++
		case c == ',':
			if digits == 0 || n >= len(args)-1 {
				return 0, false
			}
			args[n] = value
			n++
			value, digits = 0, 0
		default:
			return 0, false
		}
	}
	if digits == 0 {
		return 0, false
	}
	args[n] = value
	return n + 1, true
}

func getOutput(number int) *output {
	if out, ok := outputs[number]; ok {
		return out
	}
	pin, ok := digitalPins[number]
	if !ok {
		return nil
	}
	pin.Configure(machine.PinConfig{Mode: machine.PinOutput})
	out := &output{number: number, pin: pin}
	outputs[number] = out
	return out
}

func (o *output) set(high bool) {
	o.high = high
	o.pin.Set(high)
}

// startTone plays frequency on the pin's hardware timer. Pins without a
// timer stay silent.
func (o *output) startTone(frequency int, now time.Time, duration time.Duration) {
	timer, ok := tonePWM[o.number]
	if !ok {
		return
	}
	if err := timer.Configure(machine.PWMConfig{Period: uint64(time.Second) / uint64(frequency)}); err != nil {
		return
	}
	channel, err := timer.Channel(o.pin)
	if err != nil {
		return
	}
	timer.Set(channel, timer.Top()/2)

	o.blink = 0
	o.tone = timer
	o.channel = channel
	o.toneUntil = time.Time{}
	if duration > 0 {
		o.toneUntil = now.Add(duration)
	}
}

func (o *output) stopTone() {
	if o.tone == nil {
		return
	}
	o.tone.Set(o.channel, 0)
	o.tone = nil
	o.pin.Configure(machine.PinConfig{Mode: machine.PinOutput})
	o.set(false)
}

// updateOutputs ends timed tones and advances blinking.
func updateOutputs(now time.Time) {
	for _, out := range outputs {
		switch {
		case out.tone != nil:
			if !out.toneUntil.IsZero() && !now.Before(out.toneUntil) {
				out.stopTone()
			}
		case out.blink > 0:
			if !now.Before(out.next) {
				out.set(!out.high)
				out.next = now.Add(out.blink)
			}
		}
	}
}

// reportInputs sends readings of due channels that moved by REPORT_DELTA
// or were quiet for KEEPALIVE.
// Output format: "unix_micros,channel,value\n"
// Example: "1234567890123,0,512\n"
func reportInputs(now time.Time) {
	for i := range inputs {
		in := &inputs[i]
		if in.interval == 0 || now.Before(in.next) {
			continue
		}
		in.next = now.Add(in.interval)

		value := int(in.adc.Get() >> ADC_SHIFT)
		delta := value - in.sent
		if delta < 0 {
			delta = -delta
		}
		if in.sent >= 0 && delta < REPORT_DELTA && now.Sub(in.sentAt) < KEEPALIVE {
			continue
		}
		in.sent = value
		in.sentAt = now

		timestampMicros := now.UnixNano() / 1000 // Convert nanoseconds to microseconds

		print(timestampMicros)
		print(",")
		print(i)
		print(",")
		print(value)
		print("\n")
	}
}
