// Package probe implements the turbidity probe's main loop: command polling,
// periodic measurement and reporting to the serial link and the LCD.
package probe

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/itohio/goturbidity/pkg/clock"
	"github.com/itohio/goturbidity/pkg/display"
	"github.com/itohio/goturbidity/pkg/sample"
	"github.com/itohio/goturbidity/pkg/turbidity"
)

const (
	// ReadingInterval is the measurement period.
	ReadingInterval = 1000 * time.Millisecond
	// IdleDelay ends every loop iteration and bounds command latency.
	IdleDelay = 100 * time.Millisecond
	// StartupDelay holds the splash screen while the sensor settles.
	StartupDelay = 100 * time.Millisecond

	// BaudRate of the serial link.
	BaudRate = 9600

	splashTitle  = "Cam bien do duc nuoc"
	splashStatus = "Khoi dong..."

	lineEnd = "\r\n"
)

// Port is the serial link: a byte source for commands and a sink for lines.
type Port interface {
	io.Writer
	Buffered() int
	ReadByte() (byte, error)
}

// Pin is a digital output.
type Pin interface {
	Set(high bool)
}

// Hardware bundles the peripherals the loop drives.
type Hardware struct {
	Sensor  sample.Analog
	Alert   Pin
	Serial  Port
	Display display.Display
	Clock   clock.Clock
	// Log receives non-fatal I/O errors. Nil discards them.
	Log *log.Logger
}

// Loop is the probe's device context. It owns the alert state and the time
// of the last completed measurement; nothing else writes either.
type Loop struct {
	hw      Hardware
	sampler *sample.Sampler

	alert       bool
	lastReading time.Time
}

// New creates a loop. The first measurement is due ReadingInterval after
// this call.
func New(hw Hardware) *Loop {
	if hw.Clock == nil {
		hw.Clock = clock.System{}
	}
	return &Loop{
		hw:          hw,
		sampler:     sample.NewSampler(hw.Sensor, hw.Clock),
		lastReading: hw.Clock.Now(),
	}
}

// Alert returns the current alert state.
func (l *Loop) Alert() bool {
	return l.alert
}

// Setup drives the alert output low and shows the splash screen for
// StartupDelay.
func (l *Loop) Setup() {
	l.alert = false
	l.hw.Alert.Set(false)

	l.hw.Display.SetCursor(0, 0)
	l.hw.Display.Print(splashTitle)
	l.hw.Display.SetCursor(0, 1)
	l.hw.Display.Print(splashStatus)
	l.hw.Clock.Sleep(StartupDelay)
	l.hw.Display.Clear()
}

// Run repeats Step until ctx is done. The context is only checked between
// iterations; an iteration in progress always completes.
func (l *Loop) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if err := l.Step(); err != nil && l.hw.Log != nil {
			l.hw.Log.Printf("probe: %v", err)
		}
	}
}

// Step runs one iteration: handle at most one pending command byte, run a
// measurement cycle if one is due, then idle for IdleDelay. Returned errors
// come from the serial sink and never stop the loop.
func (l *Loop) Step() error {
	var errs []error

	if err := l.pollCommand(); err != nil {
		errs = append(errs, err)
	}

	if l.hw.Clock.Now().Sub(l.lastReading) >= ReadingInterval {
		if err := l.measure(); err != nil {
			errs = append(errs, err)
		}
		l.lastReading = l.hw.Clock.Now()
	}

	l.hw.Clock.Sleep(IdleDelay)

	return errors.Join(errs...)
}

// pollCommand consumes exactly one byte if any is buffered.
func (l *Loop) pollCommand() error {
	if l.hw.Serial.Buffered() == 0 {
		return nil
	}

	b, err := l.hw.Serial.ReadByte()
	if err != nil {
		return fmt.Errorf("failed to read command: %w", err)
	}

	cmd, ok := ParseCommand(b)
	if !ok {
		return nil
	}

	l.alert = cmd.Alert()
	l.hw.Alert.Set(l.alert)

	if _, err := io.WriteString(l.hw.Serial, cmd.Ack()+lineEnd); err != nil {
		return fmt.Errorf("failed to acknowledge %s: %w", cmd, err)
	}
	return nil
}

// measure samples the sensor and publishes the result.
func (l *Loop) measure() error {
	voltage := l.sampler.MeasureVoltage(sample.DefaultCount, sample.DefaultDelay)
	ntu := turbidity.ToTurbidity(voltage)

	_, err := io.WriteString(l.hw.Serial, FormatReport(voltage, ntu)+lineEnd)

	rows := FormatDisplay(voltage, ntu)
	for i, row := range rows {
		l.hw.Display.SetCursor(0, uint8(i))
		l.hw.Display.Print(row)
	}

	if err != nil {
		return fmt.Errorf("failed to send report: %w", err)
	}
	return nil
}
