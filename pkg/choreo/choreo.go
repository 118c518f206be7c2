// Package choreo defines the light and sound choreographies of the race rig.
package choreo

import (
	"errors"
	"log"
	"time"

	"github.com/itohio/goracer/pkg/board"
	"github.com/itohio/goracer/pkg/sequence"
)

const (
	// FlashDuration is how long a lane LED stays on after a trigger.
	FlashDuration = time.Second

	// AckDelay, AckBlinkPeriod and AckDuration shape the connect acknowledgement.
	AckDelay       = 125 * time.Millisecond
	AckBlinkPeriod = 125 * time.Millisecond
	AckDuration    = 2 * time.Second

	// StartDelay is the pause between the start command and the first signal.
	StartDelay = 200 * time.Millisecond
	// Beat is the countdown step.
	Beat = time.Second
	// DefaultToneFrequency is the buzzer frequency of the start signals (Hz).
	DefaultToneFrequency = 3900
)

// Light is an LED output.
type Light interface {
	On() error
	Off() error
	Blink(period time.Duration) error
	Stop() error
}

// Buzzer is a tone output.
type Buzzer interface {
	Tone(frequency int, duration time.Duration) error
	NoTone() error
}

var (
	_ Light  = (*board.Led)(nil)
	_ Buzzer = (*board.Piezo)(nil)
)

// Flash switches led on now and off after FlashDuration.
func Flash(led Light) sequence.Sequence {
	return sequence.New().
		Delay(0, func() { do(led.On()) }).
		Delay(FlashDuration, func() { do(led.Off()) })
}

// ConnectAcknowledge blinks every LED for AckDuration and leaves them off.
func ConnectAcknowledge(leds ...Light) sequence.Sequence {
	return sequence.New().
		Delay(AckDelay, func() {
			for _, led := range leds {
				do(led.Blink(AckBlinkPeriod))
			}
		}).
		Delay(AckDuration, func() {
			for _, led := range leds {
				do(led.Stop())
				do(led.Off())
			}
		})
}

// RaceStart is the start countdown: all LEDs and a tone, silence, the LEDs
// one by one on each beat, then all off with a final tone. started runs
// together with the final silence. With three LEDs it takes 6200ms.
func RaceStart(leds []Light, piezo Buzzer, frequency int, started func()) sequence.Sequence {
	if frequency <= 0 {
		frequency = DefaultToneFrequency
	}

	intro := sequence.New().
		Delay(StartDelay, func() {
			allOn(leds)
			do(piezo.Tone(frequency, Beat))
		}).
		Delay(Beat, func() {
			allOff(leds)
			do(piezo.NoTone())
		})

	lights := sequence.New()
	for _, led := range leds {
		lights = lights.Delay(Beat, func() { do(led.On()) })
	}

	return intro.Then(lights).
		Delay(Beat, func() {
			allOff(leds)
			do(piezo.Tone(frequency, Beat))
		}).
		Delay(Beat, func() {
			do(piezo.NoTone())
			if started != nil {
				started()
			}
		})
}

func allOn(leds []Light) {
	for _, led := range leds {
		do(led.On())
	}
}

func allOff(leds []Light) {
	for _, led := range leds {
		do(led.Off())
	}
}

// do reports output errors. Outputs released by a disconnect are expected
// while a sequence is being torn down and are ignored.
func do(err error) {
	if err == nil || errors.Is(err, board.ErrStalePeripheral) {
		return
	}
	log.Printf("Output failed: %v", err)
}
