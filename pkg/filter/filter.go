// Package filter turns raw proximity sensor readings into lane trigger events.
package filter

import (
	"errors"
	"fmt"

	"github.com/chewxy/math32"
)

const (
	// ScaleMin and ScaleMax bound the scaled reading.
	ScaleMin = 0
	ScaleMax = 100
)

var (
	// ErrInvalidThreshold is returned for thresholds outside [ScaleMin, ScaleMax].
	ErrInvalidThreshold = errors.New("threshold out of range")
	// ErrInvalidRange is returned when the input range is empty.
	ErrInvalidRange = errors.New("empty input range")
)

// Trigger is emitted when a lane sensor detects an object.
type Trigger struct {
	Lane  int
	Value int // Scaled reading (0-100)
}

// Filter is a pass/fail test on a single lane's readings. A smaller scaled
// value means a closer object, so the lane triggers when the scaled reading
// is at or below Threshold. Filter holds no state between readings.
type Filter struct {
	lane      int
	threshold int
	inMin     int
	inMax     int
}

// New creates a filter for lane scaling readings from [inMin, inMax].
func New(lane, threshold, inMin, inMax int) (Filter, error) {
	if err := ValidateThreshold(threshold); err != nil {
		return Filter{}, err
	}
	if inMax <= inMin {
		return Filter{}, fmt.Errorf("%w: [%d, %d]", ErrInvalidRange, inMin, inMax)
	}
	return Filter{
		lane:      lane,
		threshold: threshold,
		inMin:     inMin,
		inMax:     inMax,
	}, nil
}

// ValidateThreshold checks that threshold lies in [ScaleMin, ScaleMax].
func ValidateThreshold(threshold int) error {
	if threshold < ScaleMin || threshold > ScaleMax {
		return fmt.Errorf("%w: %d not in [%d, %d]", ErrInvalidThreshold, threshold, ScaleMin, ScaleMax)
	}
	return nil
}

// Scale maps raw linearly onto [ScaleMin, ScaleMax], truncating to an
// integer and clamping out-of-range input.
func (f Filter) Scale(raw int) int {
	span := float32(f.inMax - f.inMin)
	scaled := float32(raw-f.inMin) * (ScaleMax - ScaleMin) / span
	scaled = math32.Trunc(scaled) + ScaleMin
	scaled = math32.Max(ScaleMin, math32.Min(ScaleMax, scaled))
	return int(scaled)
}

// Observe evaluates one reading and returns a trigger when the scaled
// value is at or below the threshold.
func (f Filter) Observe(raw int) (Trigger, bool) {
	scaled := f.Scale(raw)
	if scaled > f.threshold {
		return Trigger{}, false
	}
	return Trigger{Lane: f.lane, Value: scaled}, true
}
