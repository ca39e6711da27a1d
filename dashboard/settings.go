package main

import (
	"fmt"
	"strconv"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"

	"github.com/itohio/goturbidity/pkg/link"
)

// showSettingsDialog displays a settings dialog with tabs for all configuration options.
func showSettingsDialog(state *appState) {
	tabs := container.NewAppTabs(
		createSerialTab(state),
		createAlertTab(state),
		createTrendTab(state),
		createHistoryTab(state),
		createMockTab(state),
	)

	content := container.NewBorder(nil, nil, nil, nil, tabs)
	content.Resize(fyne.NewSize(600, 450))

	d := dialog.NewCustom("Settings", "Close", content, state.window)
	d.Resize(fyne.NewSize(600, 450))
	d.Show()
}

func saveConfig(state *appState) {
	if err := state.cfg.Save(state.configPath); err != nil {
		dialog.ShowError(fmt.Errorf("failed to save config: %w", err), state.window)
	}
}

// createSerialTab creates the Serial configuration tab.
func createSerialTab(state *appState) *container.TabItem {
	ports, err := link.Ports()
	portOptions := []string{}
	portMap := make(map[string]string) // Display name to port name

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

	baudEntry := widget.NewEntry()
	baudEntry.SetText(strconv.Itoa(state.cfg.Serial.BaudRate))

	form := &widget.Form{
		Items: []*widget.FormItem{
			{Text: "Serial Port", Widget: portSelect},
			{Text: "Baud Rate", Widget: baudEntry},
		},
		OnSubmit: func() {
			selectedPort := state.cfg.Serial.Port
			if portSelect.Selected != "" {
				selectedPort = portMap[portSelect.Selected]
				if selectedPort == "" {
					selectedPort = portSelect.Selected
				}
			}
			baud := state.cfg.Serial.BaudRate
			if b, err := strconv.Atoi(baudEntry.Text); err == nil && b > 0 {
				baud = b
			}

			changed := state.cfg.Serial.Port != selectedPort || state.cfg.Serial.BaudRate != baud
			wasConnected := state.device != nil && state.device.IsConnected()

			state.cfg.Serial.Port = selectedPort
			state.cfg.Serial.BaudRate = baud
			saveConfig(state)

			// Reconnect to the new port
			if changed && wasConnected && !state.useMock {
				handleConnect(state)
				handleConnect(state)
			}
		},
	}

	return container.NewTabItem("Serial", form)
}

// createAlertTab creates the alert thresholds tab.
func createAlertTab(state *appState) *container.TabItem {
	level1Entry := widget.NewEntry()
	level1Entry.SetText(fmt.Sprintf("%.1f", state.cfg.Alert.Level1))

	level2Entry := widget.NewEntry()
	level2Entry.SetText(fmt.Sprintf("%.1f", state.cfg.Alert.Level2))

	level3Entry := widget.NewEntry()
	level3Entry.SetText(fmt.Sprintf("%.1f", state.cfg.Alert.Level3))

	resendEntry := widget.NewEntry()
	resendEntry.SetText(state.cfg.Alert.ResendPeriod.String())

	form := &widget.Form{
		Items: []*widget.FormItem{
			{Text: "Level 1 (NTU)", Widget: level1Entry},
			{Text: "Level 2 (NTU)", Widget: level2Entry},
			{Text: "Level 3, probe alert (NTU)", Widget: level3Entry},
			{Text: "Command Resend Period", Widget: resendEntry},
		},
		OnSubmit: func() {
			if v, err := strconv.ParseFloat(level1Entry.Text, 64); err == nil {
				state.cfg.Alert.Level1 = v
			}
			if v, err := strconv.ParseFloat(level2Entry.Text, 64); err == nil {
				state.cfg.Alert.Level2 = v
			}
			if v, err := strconv.ParseFloat(level3Entry.Text, 64); err == nil {
				state.cfg.Alert.Level3 = v
			}
			if d, err := time.ParseDuration(resendEntry.Text); err == nil {
				state.cfg.Alert.ResendPeriod = d
			}
			saveConfig(state)
		},
	}

	return container.NewTabItem("Alert", form)
}

// createTrendTab creates the fast-rise detection tab.
func createTrendTab(state *appState) *container.TabItem {
	windowEntry := widget.NewEntry()
	windowEntry.SetText(state.cfg.Trend.Window.String())

	slopeEntry := widget.NewEntry()
	slopeEntry.SetText(fmt.Sprintf("%.1f", state.cfg.Trend.Slope))

	minDeltaEntry := widget.NewEntry()
	minDeltaEntry.SetText(fmt.Sprintf("%.1f", state.cfg.Trend.MinDelta))

	minPointsEntry := widget.NewEntry()
	minPointsEntry.SetText(strconv.Itoa(state.cfg.Trend.MinPoints))

	cooldownEntry := widget.NewEntry()
	cooldownEntry.SetText(state.cfg.Trend.Cooldown.String())

	alertSlopeEntry := widget.NewEntry()
	alertSlopeEntry.SetText(fmt.Sprintf("%.1f", state.cfg.Trend.AlertSlope))

	form := &widget.Form{
		Items: []*widget.FormItem{
			{Text: "Window", Widget: windowEntry},
			{Text: "Alarm Slope (NTU/min)", Widget: slopeEntry},
			{Text: "Min Rise (NTU)", Widget: minDeltaEntry},
			{Text: "Min Points", Widget: minPointsEntry},
			{Text: "Cooldown", Widget: cooldownEntry},
			{Text: "Probe Alert Slope (NTU/min, <0 off)", Widget: alertSlopeEntry},
		},
		OnSubmit: func() {
			if d, err := time.ParseDuration(windowEntry.Text); err == nil {
				state.cfg.Trend.Window = d
			}
			if v, err := strconv.ParseFloat(slopeEntry.Text, 64); err == nil {
				state.cfg.Trend.Slope = v
			}
			if v, err := strconv.ParseFloat(minDeltaEntry.Text, 64); err == nil {
				state.cfg.Trend.MinDelta = v
			}
			if v, err := strconv.Atoi(minPointsEntry.Text); err == nil {
				state.cfg.Trend.MinPoints = v
			}
			if d, err := time.ParseDuration(cooldownEntry.Text); err == nil {
				state.cfg.Trend.Cooldown = d
			}
			if v, err := strconv.ParseFloat(alertSlopeEntry.Text, 64); err == nil && v != 0 {
				state.cfg.Trend.AlertSlope = v
			}
			saveConfig(state)
		},
	}

	return container.NewTabItem("Trend", form)
}

// createHistoryTab creates the history and chart tab.
func createHistoryTab(state *appState) *container.TabItem {
	windowEntry := widget.NewEntry()
	windowEntry.SetText(state.cfg.History.Window.String())

	pointsEntry := widget.NewEntry()
	pointsEntry.SetText(strconv.Itoa(state.cfg.History.ChartPoints))

	form := &widget.Form{
		Items: []*widget.FormItem{
			{Text: "History Window", Widget: windowEntry},
			{Text: "Chart Points", Widget: pointsEntry},
		},
		OnSubmit: func() {
			if d, err := time.ParseDuration(windowEntry.Text); err == nil {
				state.cfg.History.Window = d
			}
			if v, err := strconv.Atoi(pointsEntry.Text); err == nil && v > 1 {
				state.cfg.History.ChartPoints = v
			}
			saveConfig(state)
		},
	}

	return container.NewTabItem("History", form)
}

// createMockTab creates the simulated probe configuration tab.
func createMockTab(state *appState) *container.TabItem {
	baselineEntry := widget.NewEntry()
	baselineEntry.SetText(fmt.Sprintf("%.0f", state.cfg.Mock.BaselineMV))

	noiseEntry := widget.NewEntry()
	noiseEntry.SetText(fmt.Sprintf("%.1f", state.cfg.Mock.NoiseMV))

	episodeEntry := widget.NewEntry()
	episodeEntry.SetText(fmt.Sprintf("%.0f", state.cfg.Mock.EpisodeMV))

	periodEntry := widget.NewEntry()
	periodEntry.SetText(state.cfg.Mock.EpisodePeriod.String())

	durationEntry := widget.NewEntry()
	durationEntry.SetText(state.cfg.Mock.EpisodeDuration.String())

	form := &widget.Form{
		Items: []*widget.FormItem{
			{Text: "Clear Water Output (mV)", Widget: baselineEntry},
			{Text: "Noise (mV)", Widget: noiseEntry},
			{Text: "Turbid Episode Output (mV)", Widget: episodeEntry},
			{Text: "Episode Period", Widget: periodEntry},
			{Text: "Episode Duration", Widget: durationEntry},
		},
		OnSubmit: func() {
			if v, err := strconv.ParseFloat(baselineEntry.Text, 64); err == nil {
				state.cfg.Mock.BaselineMV = v
			}
			if v, err := strconv.ParseFloat(noiseEntry.Text, 64); err == nil {
				state.cfg.Mock.NoiseMV = v
			}
			if v, err := strconv.ParseFloat(episodeEntry.Text, 64); err == nil {
				state.cfg.Mock.EpisodeMV = v
			}
			if d, err := time.ParseDuration(periodEntry.Text); err == nil {
				state.cfg.Mock.EpisodePeriod = d
			}
			if d, err := time.ParseDuration(durationEntry.Text); err == nil {
				state.cfg.Mock.EpisodeDuration = d
			}
			saveConfig(state)
		},
	}

	return container.NewTabItem("Mock", form)
}
