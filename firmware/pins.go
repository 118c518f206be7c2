//go:build tinygo

package main

import (
	"machine"
	"time"
)

const (
	// Firmware name reported in the handshake reply
	FIRMWARE_NAME = "goracer"

	// Serial configuration
	UART_BAUD_RATE = 57600

	// Reporting
	// Readings "unix_micros,channel,value\n" are ~20 bytes, so 57600 baud
	// carries ~280 readings/sec. Three channels at 12ms need 250/sec, and
	// readings are only sent when they move, so printing never stalls the loop.
	MIN_REPORT_INTERVAL = 12 * time.Millisecond
	REPORT_DELTA        = 2           // Raw units a reading must move to be sent
	KEEPALIVE           = time.Second // Send unchanged readings this often

	// ADC configuration
	ADC_SHIFT = 6 // machine.ADC.Get scales to 16 bits; the host expects 10-bit values

	// Line buffer for host commands, e.g. "T3,3900,1000"
	LINE_SIZE = 24
)

// digitalPins maps host pin numbers to board pins.
var digitalPins = map[int]machine.Pin{
	2:  machine.D2,
	3:  machine.D3,
	4:  machine.D4,
	5:  machine.D5,
	6:  machine.D6,
	7:  machine.D7,
	8:  machine.D8,
	9:  machine.D9,
	10: machine.D10,
	11: machine.D11,
	12: machine.D12,
	13: machine.D13,
}

// pwmTimer is the part of machine.PWM used for tones.
type pwmTimer interface {
	Configure(config machine.PWMConfig) error
	Channel(pin machine.Pin) (uint8, error)
	Set(channel uint8, value uint32)
	Top() uint32
}

// tonePWM maps host pin numbers to the hardware timer driving them.
// Timer0 keeps time and is not used.
var tonePWM = map[int]pwmTimer{
	3:  machine.Timer2,
	9:  machine.Timer1,
	10: machine.Timer1,
	11: machine.Timer2,
}

// analogPins maps host analog channels (A<n>) to board pins.
var analogPins = [...]machine.Pin{
	machine.ADC0,
	machine.ADC1,
	machine.ADC2,
	machine.ADC3,
	machine.ADC4,
	machine.ADC5,
}
