// Package link connects the host to a turbidity probe: it parses the
// probe's report lines and sends alert commands.
package link

import "time"

// Reading is one measurement reported by the probe.
type Reading struct {
	Timestamp time.Time // Host receive time
	VoltageMV float64   // Sensor voltage (mV)
	Turbidity float64   // Turbidity (NTU)
}

// Device defines the interface for probe connections (real or mocked).
type Device interface {
	Connect() error
	Close() error
	Readings() <-chan Reading
	// SetAlert asks the probe to switch its alert output.
	SetAlert(on bool) error
	// Alert returns the alert state last acknowledged by the probe.
	Alert() bool
	IsConnected() bool
}

// Ensure Serial implements Device.
var _ Device = (*Serial)(nil)

// Ensure Mock implements Device.
var _ Device = (*Mock)(nil)
