package main

import (
	"flag"
	"fmt"
	"log"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"github.com/itohio/goturbidity/pkg/chart"
	"github.com/itohio/goturbidity/pkg/config"
	"github.com/itohio/goturbidity/pkg/link"
	"github.com/itohio/goturbidity/pkg/monitor"
)

func main() {
	var (
		portFlag   = flag.String("p", "", "Serial port override (e.g., COM3 or /dev/ttyACM0)")
		configFlag = flag.String("config", "config.yaml", "Configuration file path")
		envFlag    = flag.String("env", ".env", "Environment file with TURBIDITY_PORT/TURBIDITY_BAUD")
		mockFlag   = flag.Bool("mock", false, "Use simulated probe instead of serial port")
	)
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configFlag)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := cfg.ApplyEnv(*envFlag); err != nil {
		log.Fatalf("Failed to apply environment: %v", err)
	}

	// Override serial port if provided via command line
	if *portFlag != "" {
		cfg.Serial.Port = *portFlag
	}

	application := app.NewWithID("com.itohio.goturbidity")

	window := application.NewWindow("Turbidity Monitor")
	window.Resize(fyne.NewSize(1100, 700))
	window.CenterOnScreen()

	state := &appState{
		cfg:        cfg,
		configPath: *configFlag,
		window:     window,
		useMock:    *mockFlag,
	}

	toolbar := createToolbar(state)

	state.chart = chart.New(cfg)
	state.panel = newStatusPanel(cfg, *mockFlag)

	content := container.NewBorder(
		toolbar,
		nil,
		state.panel.container(),
		nil,
		state.chart,
	)

	window.SetContent(content)
	window.SetOnClosed(func() {
		closeMeasurementChain(state.chain)
	})
	window.ShowAndRun()
}

// measurementChain tracks the components of the measurement chain for graceful shutdown.
type measurementChain struct {
	device         link.Device
	monitorRoutine chan struct{} // Closed when the monitor goroutine exits
}

// appState holds the application state.
type appState struct {
	cfg        *config.Config
	configPath string
	device     link.Device
	chart      *chart.Chart
	panel      *statusPanel
	window     fyne.Window
	connectBtn *widget.Button
	alertBtn   *widget.Button
	useMock    bool
	connecting bool
	chain      *measurementChain // Current measurement chain (nil if not connected)
}

// createToolbar creates the application toolbar with Connect, Settings and
// Alert buttons.
func createToolbar(state *appState) fyne.CanvasObject {
	connectBtn := widget.NewButtonWithIcon("Connect", theme.LoginIcon(), func() {
		handleConnect(state)
	})
	state.connectBtn = connectBtn

	settingsBtn := widget.NewButtonWithIcon("", theme.SettingsIcon(), func() {
		showSettingsDialog(state)
	})

	alertBtn := widget.NewButtonWithIcon("Alert", theme.WarningIcon(), func() {
		handleAlertToggle(state)
	})
	alertBtn.Disable()
	state.alertBtn = alertBtn

	return container.NewBorder(
		nil,
		nil,
		container.NewHBox(connectBtn, settingsBtn),
		container.NewHBox(alertBtn),
		nil,
	)
}

// closeMeasurementChain gracefully closes the measurement chain.
// Waits for the monitor goroutine to drain the readings.
func closeMeasurementChain(chain *measurementChain) {
	if chain == nil {
		return
	}

	// Closing the device closes its readings channel
	if chain.device != nil {
		chain.device.Close()
	}

	if chain.monitorRoutine != nil {
		<-chain.monitorRoutine
	}
}

// handleConnect handles the connect/disconnect button click.
func handleConnect(state *appState) {
	if state.connecting {
		return
	}

	if state.device != nil && state.device.IsConnected() {
		closeMeasurementChain(state.chain)
		state.chain = nil
		state.device = nil
		state.alertBtn.Disable()
		updateAlertButton(state.alertBtn, false)
		state.connectBtn.SetText("Connect")
		if state.useMock {
			fmt.Println("Disconnected from simulated probe")
		} else {
			fmt.Println("Disconnected from serial port")
		}
		return
	}

	var device link.Device
	if state.useMock {
		mockCfg := state.cfg.Mock
		device = link.NewMock(&mockCfg)
		fmt.Println("Using simulated probe")
	} else {
		device = link.New(state.cfg.Serial.Port, state.cfg.Serial.BaudRate, link.DefaultBufferSize)
	}

	// Opening a serial port waits for the board to reboot; keep the UI live.
	state.connecting = true
	state.connectBtn.Disable()
	go func() {
		err := device.Connect()
		fyne.Do(func() {
			state.connecting = false
			state.connectBtn.Enable()
			if err != nil {
				if state.useMock {
					dialog.ShowError(fmt.Errorf("failed to start simulated probe: %w", err), state.window)
				} else {
					dialog.ShowError(fmt.Errorf("failed to connect to %s: %w", state.cfg.Serial.Port, err), state.window)
				}
				return
			}
			startMeasurementChain(state, device)
		})
	}()
}

// startMeasurementChain wires a connected device to a fresh monitor and the
// widgets.
func startMeasurementChain(state *appState, device link.Device) {
	state.device = device
	if state.useMock {
		fmt.Println("Connected to simulated probe")
	} else {
		fmt.Printf("Connected to serial port: %s\n", state.cfg.Serial.Port)
	}

	state.alertBtn.Enable()
	state.connectBtn.SetText("Disconnect")

	// The monitor works on a snapshot; settings edits apply on the next connection.
	cfg := *state.cfg
	m := monitor.New(&cfg, device)
	m.OnUpdate(func(readings []link.Reading, st monitor.State, events []monitor.Event) {
		for _, e := range events {
			log.Printf("[%s] %s", e.Kind, e.Message)
		}

		acked := device.Alert()
		var lcd []string
		if mock, ok := device.(*link.Mock); ok {
			lcd = mock.Display()
		}

		fyne.Do(func() {
			state.chart.UpdateData(readings)
			state.panel.update(st, events, lcd)
			updateAlertButton(state.alertBtn, acked)
		})
	})

	monitorDone := make(chan struct{})
	go func() {
		defer close(monitorDone)
		m.ProcessReadings(device.Readings())
	}()

	state.chain = &measurementChain{
		device:         device,
		monitorRoutine: monitorDone,
	}
}
