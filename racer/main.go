package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"github.com/itohio/goracer/pkg/board"
	"github.com/itohio/goracer/pkg/config"
	"github.com/itohio/goracer/pkg/filter"
	"github.com/itohio/goracer/pkg/rig"
	"github.com/itohio/goracer/pkg/sequence"
)

func main() {
	var (
		portFlag      = flag.String("p", "", "Serial port override (e.g., COM3 or /dev/ttyACM0)")
		configFlag    = flag.String("config", "config.yaml", "Configuration file path")
		mockFlag      = flag.Bool("mock", false, "Use mocked board instead of serial port")
		thresholdFlag = flag.Int("threshold", -1, "Sensor threshold 0-100 (overrides config)")
	)
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configFlag)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Override serial port if provided via command line
	if *portFlag != "" {
		cfg.Serial.Port = *portFlag
	}

	// Override threshold if provided via command line
	if *thresholdFlag >= 0 {
		if err := filter.ValidateThreshold(*thresholdFlag); err != nil {
			log.Fatalf("Invalid threshold: %v", err)
		}
		cfg.Sensor.Threshold = *thresholdFlag
	}

	application := app.NewWithID("com.itohio.goracer")

	window := application.NewWindow("Race Rig")
	window.Resize(fyne.NewSize(480, 240))
	window.CenterOnScreen()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sched := sequence.NewScheduler(nil)
	go func() {
		if err := sched.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("Scheduler stopped: %v", err)
		}
	}()

	state := &appState{
		cfg:        cfg,
		configPath: *configFlag,
		window:     window,
		useMock:    *mockFlag,
		ctx:        ctx,
	}

	factory := rig.SerialFactory
	if *mockFlag {
		log.Printf("Using mocked board")
		factory = func(cfg *config.Config) board.Board {
			return board.NewMock(&cfg.Mock)
		}
	}
	state.manager = rig.New(cfg, factory, sched, &raceClient{state: state})

	state.manager.OnReady(func() {
		fyne.Do(func() { updateControls(state) })
	})
	state.manager.OnDisconnected(func() {
		fyne.Do(func() { updateControls(state) })
	})
	state.manager.OnError(func(err error) {
		fyne.Do(func() {
			updateControls(state)
			dialog.ShowError(fmt.Errorf("failed to connect: %w", err), state.window)
		})
	})

	toolbar := createToolbar(state)
	lanes := createLanes(state)

	window.SetContent(container.NewBorder(toolbar, nil, nil, nil, lanes))
	window.SetOnClosed(func() {
		// Switch every output off before leaving.
		state.manager.Disconnect()
		cancel()
	})

	updateControls(state)
	window.ShowAndRun()
}

// appState holds the application state. It is only touched from the UI thread.
type appState struct {
	cfg        *config.Config
	configPath string
	manager    *rig.Manager
	window     fyne.Window
	useMock    bool
	ctx        context.Context

	status     *widget.Label
	connectBtn *widget.Button
	startBtn   *widget.Button
	lanes      []*laneIndicator
	racing     bool // countdown requested and not finished yet
}

// createToolbar creates the application toolbar with Connect, Start and Settings buttons.
func createToolbar(state *appState) fyne.CanvasObject {
	connectBtn := widget.NewButtonWithIcon("Connect", theme.LoginIcon(), func() {
		handleConnect(state)
	})
	state.connectBtn = connectBtn

	startBtn := widget.NewButtonWithIcon("Start", theme.MediaPlayIcon(), func() {
		handleStart(state)
	})
	startBtn.Importance = widget.HighImportance
	state.startBtn = startBtn

	settingsBtn := widget.NewButtonWithIcon("", theme.SettingsIcon(), func() {
		showSettingsDialog(state)
	})

	state.status = widget.NewLabel(rig.Disconnected.String())
	state.status.TextStyle = fyne.TextStyle{Bold: true}

	return container.NewBorder(
		nil, // top
		nil, // bottom
		container.NewHBox(connectBtn, startBtn, settingsBtn), // left
		state.status, // right
		nil,          // center (spacer)
	)
}

// handleConnect handles the connect/disconnect button click.
func handleConnect(state *appState) {
	switch state.manager.State() {
	case rig.Ready, rig.Connecting:
		go state.manager.Disconnect()
	default:
		state.status.SetText(rig.Connecting.String())
		state.connectBtn.Disable()
		// Connect blocks until the handshake completes; errors are reported through OnError.
		go func() {
			state.manager.Connect(state.ctx)
			fyne.Do(func() { updateControls(state) })
		}()
	}
}

// handleStart starts the countdown. The button stays disabled until the
// countdown signals the race start or the board goes away.
func handleStart(state *appState) {
	if err := state.manager.StartRace(); err != nil {
		dialog.ShowError(fmt.Errorf("failed to start race: %w", err), state.window)
		return
	}
	if !state.cfg.Race.SkipCountdown {
		state.racing = true
	}
	for _, lane := range state.lanes {
		lane.reset()
	}
	updateControls(state)
}

// updateControls reflects the connection state in the toolbar.
func updateControls(state *appState) {
	s := state.manager.State()
	state.status.SetText(s.String())

	switch s {
	case rig.Ready:
		state.connectBtn.SetText("Disconnect")
		state.connectBtn.SetIcon(theme.LogoutIcon())
		state.connectBtn.Enable()
	case rig.Connecting:
		state.connectBtn.Disable()
	default:
		state.racing = false
		state.connectBtn.SetText("Connect")
		state.connectBtn.SetIcon(theme.LoginIcon())
		state.connectBtn.Enable()
	}

	canStart := (s == rig.Ready || state.cfg.Race.SkipCountdown) && !state.racing
	if canStart {
		state.startBtn.Enable()
	} else {
		state.startBtn.Disable()
	}
}
