package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// MaxLanes is the number of sensor/LED channels the rig supports.
const MaxLanes = 3

// Config represents the application configuration.
type Config struct {
	Serial SerialConfig `yaml:"serial"`
	Pins   PinsConfig   `yaml:"pins"`
	Sensor SensorConfig `yaml:"sensor"`
	Race   RaceConfig   `yaml:"race"`
	Mock   MockConfig   `yaml:"mock"`
}

// SerialConfig contains serial port configuration.
type SerialConfig struct {
	Port     string        `yaml:"port"`
	BaudRate int           `yaml:"baud_rate"`
	Timeout  time.Duration `yaml:"timeout"` // Handshake timeout
}

// PinsConfig contains pin assignments on the board.
// Leds[i] and Sensors[i] belong to lane i+1.
type PinsConfig struct {
	Leds    []int       `yaml:"leds"`
	Piezo   int         `yaml:"piezo"`
	Sensors []AnalogPin `yaml:"sensors"`
}

// SensorConfig contains sensor sampling and filtering parameters.
type SensorConfig struct {
	Threshold       int           `yaml:"threshold"`        // Trigger when scaled reading (0-100) <= threshold
	Frequency       time.Duration `yaml:"frequency"`        // Sampling interval requested from the board
	ChangeThreshold int           `yaml:"change_threshold"` // Raw units a reading must move to count as a change
	InputMax        int           `yaml:"input_max"`        // Top of the raw ADC range
	AverageSamples  int           `yaml:"average_samples"`  // Number of readings to average (0 = disabled, default)
}

// RaceConfig contains race start parameters.
type RaceConfig struct {
	ToneFrequency int  `yaml:"tone_frequency"` // Buzzer frequency (Hz)
	SkipCountdown bool `yaml:"skip_countdown"` // Signal race start immediately, even without a board
}

// MockConfig contains mock board configuration.
type MockConfig struct {
	SampleRate   time.Duration `yaml:"sample_rate"`   // Interval between simulated readings (0 = only injected readings)
	Baseline     int           `yaml:"baseline"`      // Idle raw reading
	Noise        int           `yaml:"noise"`         // Peak noise (raw units)
	PassPeriod   time.Duration `yaml:"pass_period"`   // Time between simulated passes on a lane
	PassDuration time.Duration `yaml:"pass_duration"` // How long a pass keeps the reading low
	PassValue    int           `yaml:"pass_value"`    // Raw reading while a car passes
}

// AnalogPin is an analog input channel. In YAML it may be written as "A2" or 2.
type AnalogPin int

// String returns the pin in "A<n>" notation.
func (p AnalogPin) String() string {
	return "A" + strconv.Itoa(int(p))
}

// ParseAnalogPin parses "A2", "a2" or "2".
func ParseAnalogPin(s string) (AnalogPin, error) {
	digits := strings.TrimPrefix(strings.ToUpper(strings.TrimSpace(s)), "A")
	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0, fmt.Errorf("invalid analog pin %q: %w", s, err)
	}
	if n < 0 {
		return 0, fmt.Errorf("invalid analog pin %q", s)
	}
	return AnalogPin(n), nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (p *AnalogPin) UnmarshalYAML(value *yaml.Node) error {
	pin, err := ParseAnalogPin(value.Value)
	if err != nil {
		return err
	}
	*p = pin
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (p AnalogPin) MarshalYAML() (interface{}, error) {
	return p.String(), nil
}

// Default returns a default configuration with sensible values.
func Default() *Config {
	return &Config{
		Serial: SerialConfig{
			Port:     "/dev/ttyACM0", // "COM3" on Windows
			BaudRate: 57600,
			Timeout:  600 * time.Millisecond,
		},
		Pins: PinsConfig{
			Leds:    []int{9, 10, 11},
			Piezo:   3,
			Sensors: []AnalogPin{0, 1, 2},
		},
		Sensor: SensorConfig{
			Threshold:       50,
			Frequency:       time.Millisecond,
			ChangeThreshold: 5,
			InputMax:        1023,
			AverageSamples:  0,
		},
		Race: RaceConfig{
			ToneFrequency: 3900,
		},
		Mock: MockConfig{
			SampleRate:   20 * time.Millisecond,
			Baseline:     900,
			Noise:        3,
			PassPeriod:   7 * time.Second,
			PassDuration: 150 * time.Millisecond,
			PassValue:    120,
		},
	}
}

// Load loads configuration from a YAML file. If the file doesn't exist or
// fields are missing, it uses default values.
func Load(filename string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.ensureDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file: %w", err)
	}

	return cfg, nil
}

// Save saves the configuration to a YAML file.
func (c *Config) Save(filename string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Lanes returns the number of configured lanes.
func (c *Config) Lanes() int {
	return len(c.Pins.Sensors)
}

// Validate checks values that cannot be defaulted.
func (c *Config) Validate() error {
	var errs []error

	if c.Sensor.Threshold < 0 || c.Sensor.Threshold > 100 {
		errs = append(errs, fmt.Errorf("sensor threshold %d out of range [0,100]", c.Sensor.Threshold))
	}
	if n := len(c.Pins.Sensors); n == 0 || n > MaxLanes {
		errs = append(errs, fmt.Errorf("expected 1 to %d sensor pins, got %d", MaxLanes, n))
	}
	if len(c.Pins.Leds) != len(c.Pins.Sensors) {
		errs = append(errs, fmt.Errorf("expected one led per sensor, got %d leds for %d sensors", len(c.Pins.Leds), len(c.Pins.Sensors)))
	}
	if c.Sensor.InputMax <= 0 {
		errs = append(errs, fmt.Errorf("sensor input_max must be positive, got %d", c.Sensor.InputMax))
	}
	if c.Sensor.AverageSamples < 0 {
		errs = append(errs, fmt.Errorf("sensor average_samples must not be negative, got %d", c.Sensor.AverageSamples))
	}

	return errors.Join(errs...)
}

// ensureDefaults ensures that all required fields have default values if missing.
func (c *Config) ensureDefaults() {
	def := Default()

	if c.Serial.Port == "" {
		c.Serial.Port = def.Serial.Port
	}
	if c.Serial.BaudRate == 0 {
		c.Serial.BaudRate = def.Serial.BaudRate
	}
	if c.Serial.Timeout == 0 {
		c.Serial.Timeout = def.Serial.Timeout
	}

	if len(c.Pins.Leds) == 0 {
		c.Pins.Leds = def.Pins.Leds
	}
	if c.Pins.Piezo == 0 {
		c.Pins.Piezo = def.Pins.Piezo
	}
	if len(c.Pins.Sensors) == 0 {
		c.Pins.Sensors = def.Pins.Sensors
	}

	if c.Sensor.Frequency == 0 {
		c.Sensor.Frequency = def.Sensor.Frequency
	}
	if c.Sensor.ChangeThreshold == 0 {
		c.Sensor.ChangeThreshold = def.Sensor.ChangeThreshold
	}
	if c.Sensor.InputMax == 0 {
		c.Sensor.InputMax = def.Sensor.InputMax
	}

	if c.Race.ToneFrequency == 0 {
		c.Race.ToneFrequency = def.Race.ToneFrequency
	}

	if c.Mock.Baseline == 0 {
		c.Mock.Baseline = def.Mock.Baseline
	}
	if c.Mock.PassPeriod == 0 {
		c.Mock.PassPeriod = def.Mock.PassPeriod
	}
	if c.Mock.PassDuration == 0 {
		c.Mock.PassDuration = def.Mock.PassDuration
	}
}
