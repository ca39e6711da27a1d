package main

import (
	"fmt"

	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"
)

// handleAlertToggle switches the probe's alert output by hand. The button
// reflects the probe's acknowledgment once it arrives.
func handleAlertToggle(state *appState) {
	if state.device == nil || !state.device.IsConnected() {
		return
	}

	on := !state.device.Alert()
	if err := state.device.SetAlert(on); err != nil {
		dialog.ShowError(fmt.Errorf("failed to set alert: %w", err), state.window)
		return
	}
}

// updateAlertButton updates the alert button's visual state.
func updateAlertButton(btn *widget.Button, isOn bool) {
	if isOn {
		btn.Importance = widget.DangerImportance
	} else {
		btn.Importance = widget.MediumImportance
	}
	btn.Refresh()
}
