package config

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.NotNil(t, cfg)
	assert.Equal(t, "/dev/ttyACM0", cfg.Serial.Port)
	assert.Equal(t, 57600, cfg.Serial.BaudRate)
	assert.Equal(t, 600*time.Millisecond, cfg.Serial.Timeout)
	assert.Equal(t, []int{9, 10, 11}, cfg.Pins.Leds)
	assert.Equal(t, 3, cfg.Pins.Piezo)
	assert.Equal(t, []AnalogPin{0, 1, 2}, cfg.Pins.Sensors)
	assert.Equal(t, 50, cfg.Sensor.Threshold)
	assert.Equal(t, time.Millisecond, cfg.Sensor.Frequency)
	assert.Equal(t, 5, cfg.Sensor.ChangeThreshold)
	assert.Equal(t, 1023, cfg.Sensor.InputMax)
	assert.Equal(t, 3900, cfg.Race.ToneFrequency)
	assert.Equal(t, 3, cfg.Lanes())
	assert.NoError(t, cfg.Validate())
}

func TestLoad_FileNotExists(t *testing.T) {
	cfg, err := Load("nonexistent.yaml")
	require.NoError(t, err)
	assert.NotNil(t, cfg)
	assert.Equal(t, "/dev/ttyACM0", cfg.Serial.Port)
}

func TestLoad_ValidYAML(t *testing.T) {
	tmpfile, err := os.CreateTemp("", "test_config_*.yaml")
	require.NoError(t, err)
	defer os.Remove(tmpfile.Name())

	yamlContent := `
serial:
  port: "COM4"
  baud_rate: 115200
  timeout: 2s

pins:
  leds: [5, 6]
  piezo: 8
  sensors: ["A3", 4]

sensor:
  threshold: 5
  frequency: 2ms
  change_threshold: 10
  average_samples: 4

race:
  tone_frequency: 2000
  skip_countdown: true
`

	_, err = tmpfile.WriteString(yamlContent)
	require.NoError(t, err)
	require.NoError(t, tmpfile.Close())

	cfg, err := Load(tmpfile.Name())
	require.NoError(t, err)

	assert.Equal(t, "COM4", cfg.Serial.Port)
	assert.Equal(t, 115200, cfg.Serial.BaudRate)
	assert.Equal(t, 2*time.Second, cfg.Serial.Timeout)
	assert.Equal(t, []int{5, 6}, cfg.Pins.Leds)
	assert.Equal(t, 8, cfg.Pins.Piezo)
	assert.Equal(t, []AnalogPin{3, 4}, cfg.Pins.Sensors)
	assert.Equal(t, 5, cfg.Sensor.Threshold)
	assert.Equal(t, 2*time.Millisecond, cfg.Sensor.Frequency)
	assert.Equal(t, 10, cfg.Sensor.ChangeThreshold)
	assert.Equal(t, 4, cfg.Sensor.AverageSamples)
	assert.Equal(t, 2000, cfg.Race.ToneFrequency)
	assert.True(t, cfg.Race.SkipCountdown)
	assert.Equal(t, 2, cfg.Lanes())
}

func TestLoad_InvalidYAML(t *testing.T) {
	tmpfile, err := os.CreateTemp("", "test_config_*.yaml")
	require.NoError(t, err)
	defer os.Remove(tmpfile.Name())

	_, err = tmpfile.WriteString("invalid: yaml: content: [")
	require.NoError(t, err)
	require.NoError(t, tmpfile.Close())

	cfg, err := Load(tmpfile.Name())
	assert.Error(t, err)
	assert.Nil(t, cfg)
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"threshold above range", "sensor:\n  threshold: 101\n"},
		{"threshold below range", "sensor:\n  threshold: -1\n"},
		{"too many sensors", "pins:\n  leds: [1, 2, 3, 4]\n  sensors: [A0, A1, A2, A3]\n"},
		{"led count mismatch", "pins:\n  leds: [1, 2]\n  sensors: [A0, A1, A2]\n"},
		{"bad analog pin", "pins:\n  sensors: [B1, A1, A2]\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			filename := filepath.Join(t.TempDir(), "config.yaml")
			require.NoError(t, os.WriteFile(filename, []byte(tt.yaml), 0644))

			cfg, err := Load(filename)
			assert.Error(t, err)
			assert.Nil(t, cfg)
		})
	}
}

func TestLoad_PartialYAML(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(filename, []byte("serial:\n  port: \"/dev/ttyUSB1\"\nsensor:\n  threshold: 0\n"), 0644))

	cfg, err := Load(filename)
	require.NoError(t, err)

	// Should use defaults for missing fields
	assert.Equal(t, "/dev/ttyUSB1", cfg.Serial.Port)
	assert.Equal(t, 57600, cfg.Serial.BaudRate)
	assert.Equal(t, []int{9, 10, 11}, cfg.Pins.Leds)
	assert.Equal(t, 0, cfg.Sensor.Threshold) // explicit zero is kept
	assert.Equal(t, 1023, cfg.Sensor.InputMax)
}

func TestSave(t *testing.T) {
	cfg := Default()
	cfg.Serial.Port = "/dev/ttyUSB0"
	cfg.Sensor.Threshold = 12
	cfg.Pins.Sensors = []AnalogPin{5, 6, 7}

	filename := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, cfg.Save(filename))

	data, err := os.ReadFile(filename)
	require.NoError(t, err)
	assert.Contains(t, string(data), "- A5")

	loaded, err := Load(filename)
	require.NoError(t, err)
	assert.Equal(t, "/dev/ttyUSB0", loaded.Serial.Port)
	assert.Equal(t, 12, loaded.Sensor.Threshold)
	assert.Equal(t, []AnalogPin{5, 6, 7}, loaded.Pins.Sensors)
}

func TestParseAnalogPin(t *testing.T) {
	tests := []struct {
		in      string
		want    AnalogPin
		wantErr bool
	}{
		{"A0", 0, false},
		{"a7", 7, false},
		{"3", 3, false},
		{" A2 ", 2, false},
		{"B2", 0, true},
		{"A-1", 0, true},
		{"Aa2", 0, true},
		{"AA2", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseAnalogPin(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), fmt.Sprintf("%q", tt.in), "error names the input as written")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)

			again, err := ParseAnalogPin(got.String())
			require.NoError(t, err)
			assert.Equal(t, got, again)
		})
	}
}
