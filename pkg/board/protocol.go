package board

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	// MaxReading is the largest analog value reported by the firmware (10-bit).
	MaxReading = 1023

	helloCommand = "?\n"
	readyPrefix  = "READY,"
)

// Reading is a single analog sample reported by the board.
type Reading struct {
	Timestamp time.Time
	Channel   int    // Analog channel (A<n>)
	Value     uint16 // 10-bit ADC reading (0-1023)
}

func digitalCommand(pin int, high bool) string {
	if high {
		return fmt.Sprintf("D%d,1\n", pin)
	}
	return fmt.Sprintf("D%d,0\n", pin)
}

func blinkCommand(pin int, period time.Duration) string {
	return fmt.Sprintf("B%d,%d\n", pin, period.Milliseconds())
}

func toneCommand(pin int, frequency int, duration time.Duration) string {
	return fmt.Sprintf("T%d,%d,%d\n", pin, frequency, duration.Milliseconds())
}

func noToneCommand(pin int) string {
	return fmt.Sprintf("N%d\n", pin)
}

func reportCommand(channel int, interval time.Duration) string {
	return fmt.Sprintf("A%d,%d\n", channel, interval.Milliseconds())
}

// parseReady returns the firmware name from a handshake reply.
func parseReady(line string) (string, bool) {
	if !strings.HasPrefix(line, readyPrefix) {
		return "", false
	}
	return strings.TrimPrefix(line, readyPrefix), true
}

// parseLine parses a reading line from the MCU.
// Format: unix_micros,channel,value
// Example: 1234567890123,0,512
func parseLine(line string) (Reading, error) {
	parts := strings.Split(line, ",")
	if len(parts) != 3 {
		return Reading{}, fmt.Errorf("invalid line format: expected 3 comma-separated values, got %d", len(parts))
	}

	timestampMicros, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return Reading{}, fmt.Errorf("invalid timestamp: %w", err)
	}

	channel, err := strconv.ParseUint(parts[1], 10, 8)
	if err != nil {
		return Reading{}, fmt.Errorf("invalid channel: %w", err)
	}

	value, err := strconv.ParseUint(parts[2], 10, 16)
	if err != nil {
		return Reading{}, fmt.Errorf("invalid reading: %w", err)
	}
	if value > MaxReading {
		return Reading{}, fmt.Errorf("reading out of range: %d (max %d)", value, MaxReading)
	}

	return Reading{
		Timestamp: time.UnixMicro(timestampMicros),
		Channel:   int(channel),
		Value:     uint16(value),
	}, nil
}
