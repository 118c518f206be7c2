package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"

	"github.com/itohio/goracer/pkg/board"
	"github.com/itohio/goracer/pkg/config"
	"github.com/itohio/goracer/pkg/filter"
)

// showSettingsDialog displays a settings dialog with tabs for all configuration options.
// Changes apply to the next connection.
func showSettingsDialog(state *appState) {
	tabs := container.NewAppTabs(
		createSerialTab(state),
		createPinsTab(state),
		createSensorTab(state),
		createRaceTab(state),
		createMockTab(state),
	)

	content := container.NewBorder(nil, nil, nil, nil, tabs)
	content.Resize(fyne.NewSize(500, 400))

	d := dialog.NewCustom("Settings", "Close", content, state.window)
	d.Resize(fyne.NewSize(500, 400))
	d.Show()
}

// applySettings validates an edited copy of the configuration, saves it and
// hands it to the manager. It reports whether the settings were applied.
func applySettings(state *appState, edit func(cfg *config.Config) error) bool {
	cfg := *state.cfg
	if err := edit(&cfg); err != nil {
		dialog.ShowError(err, state.window)
		return false
	}
	if err := cfg.Validate(); err != nil {
		dialog.ShowError(fmt.Errorf("invalid settings: %w", err), state.window)
		return false
	}
	if err := cfg.Save(state.configPath); err != nil {
		dialog.ShowError(fmt.Errorf("failed to save config: %w", err), state.window)
		return false
	}

	*state.cfg = cfg
	state.manager.SetConfig(state.cfg)
	updateControls(state)
	return true
}

// createSerialTab creates the Serial configuration tab.
func createSerialTab(state *appState) *container.TabItem {
	ports, err := board.Ports()
	portOptions := []string{}
	portMap := make(map[string]string) // Map display name to actual port name

	if err == nil {
		for _, port := range ports {
			displayName := port.Name
			if port.Description != "" && port.Description != port.Name {
				displayName = fmt.Sprintf("%s (%s)", port.Name, port.Description)
			}
			portOptions = append(portOptions, displayName)
			portMap[displayName] = port.Name
		}
	}

	// Add current port if not in list
	currentPort := state.cfg.Serial.Port
	currentDisplay := currentPort
	found := false
	for _, opt := range portOptions {
		if portMap[opt] == currentPort {
			currentDisplay = opt
			found = true
			break
		}
	}
	if !found && currentPort != "" {
		portOptions = append(portOptions, currentPort)
		portMap[currentPort] = currentPort
	}

	portSelect := widget.NewSelect(portOptions, nil)
	if currentDisplay != "" {
		portSelect.SetSelected(currentDisplay)
	}

	timeoutEntry := widget.NewEntry()
	timeoutEntry.SetText(state.cfg.Serial.Timeout.String())

	form := &widget.Form{
		Items: []*widget.FormItem{
			{Text: "Serial Port", Widget: portSelect},
			{Text: "Connect Timeout", Widget: timeoutEntry},
		},
		OnSubmit: func() {
			applySettings(state, func(cfg *config.Config) error {
				if portSelect.Selected != "" {
					selectedPort := portMap[portSelect.Selected]
					if selectedPort == "" {
						selectedPort = portSelect.Selected // Fallback to selected text
					}
					cfg.Serial.Port = selectedPort
				}
				if d, err := time.ParseDuration(timeoutEntry.Text); err == nil {
					cfg.Serial.Timeout = d
				}
				return nil
			})
		},
	}

	return container.NewTabItem("Serial", form)
}

// createPinsTab creates the Pins configuration tab.
func createPinsTab(state *appState) *container.TabItem {
	ledsEntry := widget.NewEntry()
	ledsEntry.SetText(joinInts(state.cfg.Pins.Leds))

	piezoEntry := widget.NewEntry()
	piezoEntry.SetText(strconv.Itoa(state.cfg.Pins.Piezo))

	sensorNames := make([]string, 0, len(state.cfg.Pins.Sensors))
	for _, pin := range state.cfg.Pins.Sensors {
		sensorNames = append(sensorNames, pin.String())
	}
	sensorsEntry := widget.NewEntry()
	sensorsEntry.SetText(strings.Join(sensorNames, ", "))

	form := &widget.Form{
		Items: []*widget.FormItem{
			{Text: "LED Pins", Widget: ledsEntry},
			{Text: "Piezo Pin", Widget: piezoEntry},
			{Text: "Sensor Pins", Widget: sensorsEntry},
		},
		OnSubmit: func() {
			applied := applySettings(state, func(cfg *config.Config) error {
				leds, err := splitInts(ledsEntry.Text)
				if err != nil {
					return fmt.Errorf("invalid LED pins: %w", err)
				}
				piezo, err := strconv.Atoi(strings.TrimSpace(piezoEntry.Text))
				if err != nil {
					return fmt.Errorf("invalid piezo pin: %w", err)
				}

				var sensors []config.AnalogPin
				for _, field := range strings.Split(sensorsEntry.Text, ",") {
					pin, err := config.ParseAnalogPin(field)
					if err != nil {
						return err
					}
					sensors = append(sensors, pin)
				}

				cfg.Pins = config.PinsConfig{Leds: leds, Piezo: piezo, Sensors: sensors}
				return nil
			})
			if applied && len(state.cfg.Pins.Sensors) != len(state.lanes) {
				dialog.ShowInformation("Pins", "Lane indicators follow the new pins after a restart.", state.window)
			}
		},
	}

	return container.NewTabItem("Pins", form)
}

// createSensorTab creates the Sensor configuration tab.
func createSensorTab(state *appState) *container.TabItem {
	thresholdEntry := widget.NewEntry()
	thresholdEntry.SetText(strconv.Itoa(state.cfg.Sensor.Threshold))

	frequencyEntry := widget.NewEntry()
	frequencyEntry.SetText(state.cfg.Sensor.Frequency.String())

	changeEntry := widget.NewEntry()
	changeEntry.SetText(strconv.Itoa(state.cfg.Sensor.ChangeThreshold))

	averageSamplesEntry := widget.NewEntry()
	averageSamplesEntry.SetText(strconv.Itoa(state.cfg.Sensor.AverageSamples))

	form := &widget.Form{
		Items: []*widget.FormItem{
			{Text: "Threshold (0-100)", Widget: thresholdEntry},
			{Text: "Sampling Interval", Widget: frequencyEntry},
			{Text: "Change Threshold", Widget: changeEntry},
			{Text: "Average Samples (0=disabled)", Widget: averageSamplesEntry},
		},
		OnSubmit: func() {
			applySettings(state, func(cfg *config.Config) error {
				threshold, err := strconv.Atoi(strings.TrimSpace(thresholdEntry.Text))
				if err != nil {
					return fmt.Errorf("invalid threshold: %w", err)
				}
				if err := filter.ValidateThreshold(threshold); err != nil {
					return err
				}
				cfg.Sensor.Threshold = threshold

				if d, err := time.ParseDuration(frequencyEntry.Text); err == nil {
					cfg.Sensor.Frequency = d
				}
				if ct, err := strconv.Atoi(changeEntry.Text); err == nil {
					cfg.Sensor.ChangeThreshold = ct
				}
				if avg, err := strconv.Atoi(averageSamplesEntry.Text); err == nil {
					cfg.Sensor.AverageSamples = avg
				}
				return nil
			})
		},
	}

	return container.NewTabItem("Sensor", form)
}

// createRaceTab creates the Race configuration tab.
func createRaceTab(state *appState) *container.TabItem {
	toneEntry := widget.NewEntry()
	toneEntry.SetText(strconv.Itoa(state.cfg.Race.ToneFrequency))

	skipCheck := widget.NewCheck("", nil)
	skipCheck.SetChecked(state.cfg.Race.SkipCountdown)

	form := &widget.Form{
		Items: []*widget.FormItem{
			{Text: "Tone Frequency (Hz)", Widget: toneEntry},
			{Text: "Skip Countdown", Widget: skipCheck},
		},
		OnSubmit: func() {
			applySettings(state, func(cfg *config.Config) error {
				if hz, err := strconv.Atoi(toneEntry.Text); err == nil && hz > 0 {
					cfg.Race.ToneFrequency = hz
				}
				cfg.Race.SkipCountdown = skipCheck.Checked
				return nil
			})
		},
	}

	return container.NewTabItem("Race", form)
}

// createMockTab creates the Mock board configuration tab.
func createMockTab(state *appState) *container.TabItem {
	sampleRateEntry := widget.NewEntry()
	sampleRateEntry.SetText(state.cfg.Mock.SampleRate.String())

	baselineEntry := widget.NewEntry()
	baselineEntry.SetText(strconv.Itoa(state.cfg.Mock.Baseline))

	noiseEntry := widget.NewEntry()
	noiseEntry.SetText(strconv.Itoa(state.cfg.Mock.Noise))

	passPeriodEntry := widget.NewEntry()
	passPeriodEntry.SetText(state.cfg.Mock.PassPeriod.String())

	passDurationEntry := widget.NewEntry()
	passDurationEntry.SetText(state.cfg.Mock.PassDuration.String())

	passValueEntry := widget.NewEntry()
	passValueEntry.SetText(strconv.Itoa(state.cfg.Mock.PassValue))

	form := &widget.Form{
		Items: []*widget.FormItem{
			{Text: "Sample Rate", Widget: sampleRateEntry},
			{Text: "Baseline", Widget: baselineEntry},
			{Text: "Noise", Widget: noiseEntry},
			{Text: "Pass Period", Widget: passPeriodEntry},
			{Text: "Pass Duration", Widget: passDurationEntry},
			{Text: "Pass Value", Widget: passValueEntry},
		},
		OnSubmit: func() {
			applySettings(state, func(cfg *config.Config) error {
				if sr, err := time.ParseDuration(sampleRateEntry.Text); err == nil {
					cfg.Mock.SampleRate = sr
				}
				if v, err := strconv.Atoi(baselineEntry.Text); err == nil {
					cfg.Mock.Baseline = v
				}
				if v, err := strconv.Atoi(noiseEntry.Text); err == nil {
					cfg.Mock.Noise = v
				}
				if d, err := time.ParseDuration(passPeriodEntry.Text); err == nil {
					cfg.Mock.PassPeriod = d
				}
				if d, err := time.ParseDuration(passDurationEntry.Text); err == nil {
					cfg.Mock.PassDuration = d
				}
				if v, err := strconv.Atoi(passValueEntry.Text); err == nil {
					cfg.Mock.PassValue = v
				}
				return nil
			})
		},
	}

	return container.NewTabItem("Mock", form)
}

func joinInts(values []int) string {
	parts := make([]string, 0, len(values))
	for _, v := range values {
		parts = append(parts, strconv.Itoa(v))
	}
	return strings.Join(parts, ", ")
}

func splitInts(s string) ([]int, error) {
	var values []int
	for _, field := range strings.Split(s, ",") {
		v, err := strconv.Atoi(strings.TrimSpace(field))
		if err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	return values, nil
}
