// Package monitor classifies the probe's readings, drives the probe's alert
// output and detects fast-rising turbidity.
package monitor

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/itohio/goturbidity/pkg/config"
	"github.com/itohio/goturbidity/pkg/link"
)

var _ WaterMonitor = (*Monitor)(nil)

// EventKind identifies what an Event reports.
type EventKind int

const (
	StatusChanged EventKind = iota
	HighTurbidity
	FastRise
	AlertCleared
	TrendAlert
)

func (k EventKind) String() string {
	switch k {
	case StatusChanged:
		return "status"
	case HighTurbidity:
		return "high"
	case FastRise:
		return "trend"
	case AlertCleared:
		return "cleared"
	case TrendAlert:
		return "trend-alert"
	}
	return "unknown"
}

// Event is a notable change detected while processing a reading.
type Event struct {
	Kind      EventKind
	Time      time.Time
	Status    Status
	Turbidity float64
	Trend     Fit // Set for FastRise and TrendAlert
	Message   string
}

// State summarizes the latest reading.
type State struct {
	Latest link.Reading
	Status Status
	Level  int
	Trend    Fit  // Fit over the trend window
	HasTrend bool // Trend has enough points to be meaningful
	Alert    bool // Last alert command sent was activate
}

// Alerter switches the probe's alert output.
type Alerter interface {
	SetAlert(on bool) error
}

// WaterMonitor processes readings, maintains history and raises events.
type WaterMonitor interface {
	ProcessReadings(input <-chan link.Reading)
	Readings() []link.Reading // History within the window, oldest first
	State() State
	OnUpdate(func(readings []link.Reading, state State, events []Event))
}

// Monitor implements WaterMonitor.
type Monitor struct {
	cfg     *config.Config
	alerter Alerter

	mu       sync.RWMutex
	readings []link.Reading
	state    State
	started  bool

	lastStatus    Status
	pending       *bool // Command the alert level still has to deliver
	lastCommand   *bool
	lastCommandAt time.Time
	lastRiseAt    time.Time

	callbacks []func(readings []link.Reading, state State, events []Event)
	cbMu      sync.RWMutex

	shutdown bool
}

// New creates a monitor. Alert commands are sent to alerter when it is not
// nil.
func New(cfg *config.Config, alerter Alerter) *Monitor {
	if cfg == nil {
		cfg = config.Default()
	}
	return &Monitor{
		cfg:      cfg,
		alerter:  alerter,
		readings: make([]link.Reading, 0),
	}
}

// ProcessReadings consumes readings until input is closed. After that no
// more callbacks are made.
func (m *Monitor) ProcessReadings(input <-chan link.Reading) {
	for r := range input {
		m.Process(r)
	}
	m.mu.Lock()
	m.shutdown = true
	m.mu.Unlock()
}

// Process handles a single reading.
func (m *Monitor) Process(r link.Reading) {
	m.mu.Lock()

	m.readings = append(m.readings, r)
	cutoff := r.Timestamp.Add(-m.cfg.History.Window)
	if tail := Since(m.readings, cutoff); len(tail) < len(m.readings) {
		m.readings = append(m.readings[:0:0], tail...)
	}

	var events []Event

	status := Classify(r.Turbidity)
	if !m.started || status != m.lastStatus {
		events = append(events, Event{
			Kind:      StatusChanged,
			Time:      r.Timestamp,
			Status:    status,
			Turbidity: r.Turbidity,
			Message:   fmt.Sprintf("Status changed: %s (%.2f NTU)", status, r.Turbidity),
		})
		m.lastStatus = status
	}
	m.started = true

	events = append(events, m.updateLevel(r, status)...)
	m.deliverPending(r.Timestamp)

	fit, ok := FitLine(Since(m.readings, r.Timestamp.Add(-m.cfg.Trend.Window)))
	hasTrend := ok && fit.Points >= max(2, m.cfg.Trend.MinPoints)
	if hasTrend && fit.Slope >= m.cfg.Trend.Slope && fit.Delta >= m.cfg.Trend.MinDelta {
		if m.lastRiseAt.IsZero() || r.Timestamp.Sub(m.lastRiseAt) >= m.cfg.Trend.Cooldown {
			m.lastRiseAt = r.Timestamp
			events = append(events, Event{
				Kind:      FastRise,
				Time:      r.Timestamp,
				Status:    status,
				Turbidity: r.Turbidity,
				Trend:     fit,
				Message: fmt.Sprintf("Turbidity rising fast: ~%.0f NTU/min (Δ%.1f NTU in %.1f min)",
					fit.Slope, fit.Delta, fit.Span.Minutes()),
			})
		}
	}

	if ok && m.cfg.Trend.AlertSlope > 0 && fit.EndpointSlope() >= m.cfg.Trend.AlertSlope {
		if sent, _ := m.sendCommand(true, r.Timestamp); sent {
			events = append(events, Event{
				Kind:      TrendAlert,
				Time:      r.Timestamp,
				Status:    status,
				Turbidity: r.Turbidity,
				Trend:     fit,
				Message:   fmt.Sprintf("Trend alert: turbidity rising faster than %.0f NTU/min", m.cfg.Trend.AlertSlope),
			})
		}
	}

	m.state.Latest = r
	m.state.Status = status
	m.state.Trend = fit
	m.state.HasTrend = hasTrend
	m.state.Alert = m.lastCommand != nil && *m.lastCommand

	shouldNotify := !m.shutdown
	readingsCopy := make([]link.Reading, len(m.readings))
	copy(readingsCopy, m.readings)
	state := m.state

	m.mu.Unlock()

	if shouldNotify {
		m.notifyCallbacks(readingsCopy, state, events)
	}
}

// updateLevel raises the alert level as turbidity climbs and resets it only
// once the water is back below the first threshold. Reaching level 3 or
// returning to 0 queues the matching alert command. Must hold m.mu.
func (m *Monitor) updateLevel(r link.Reading, status Status) []Event {
	level := LevelOf(r.Turbidity, m.cfg.Alert)

	switch {
	case level > m.state.Level:
		m.state.Level = level
		if level < 3 {
			return nil
		}
		m.queueCommand(true)
		return []Event{{
			Kind:      HighTurbidity,
			Time:      r.Timestamp,
			Status:    status,
			Turbidity: r.Turbidity,
			Message:   fmt.Sprintf("Turbidity very high: %.2f NTU", r.Turbidity),
		}}
	case level == 0 && m.state.Level > 0:
		m.state.Level = 0
		m.queueCommand(false)
		return []Event{{
			Kind:      AlertCleared,
			Time:      r.Timestamp,
			Status:    status,
			Turbidity: r.Turbidity,
			Message:   "Water clear again, alert reset",
		}}
	}
	return nil
}

func (m *Monitor) queueCommand(on bool) {
	m.pending = &on
}

// deliverPending sends the queued level command. A failed send stays queued
// and is retried with the next reading. Must hold m.mu.
func (m *Monitor) deliverPending(now time.Time) {
	if m.pending == nil {
		return
	}
	if _, err := m.sendCommand(*m.pending, now); err != nil {
		return
	}
	m.pending = nil
}

// sendCommand switches the probe alert unless the same command was sent
// within the resend period. It reports whether the command was written; a
// failed write is logged, returned and not recorded. Must hold m.mu.
func (m *Monitor) sendCommand(on bool, now time.Time) (bool, error) {
	if m.alerter == nil {
		return false, nil
	}
	if m.lastCommand != nil && *m.lastCommand == on && now.Sub(m.lastCommandAt) < m.cfg.Alert.ResendPeriod {
		return false, nil
	}
	if err := m.alerter.SetAlert(on); err != nil {
		log.Printf("Failed to send alert command: %v", err)
		return false, err
	}
	m.lastCommand = &on
	m.lastCommandAt = now
	return true, nil
}

// Readings returns a copy of the reading history.
func (m *Monitor) Readings() []link.Reading {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]link.Reading, len(m.readings))
	copy(result, m.readings)
	return result
}

// State returns the state after the latest reading.
func (m *Monitor) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// OnUpdate registers a callback invoked after every reading with the
// history, the new state and the events it raised.
// The callback should return quickly.
func (m *Monitor) OnUpdate(callback func(readings []link.Reading, state State, events []Event)) {
	m.cbMu.Lock()
	defer m.cbMu.Unlock()
	m.callbacks = append(m.callbacks, callback)
}

func (m *Monitor) notifyCallbacks(readings []link.Reading, state State, events []Event) {
	m.cbMu.RLock()
	callbacks := make([]func(readings []link.Reading, state State, events []Event), len(m.callbacks))
	copy(callbacks, m.callbacks)
	m.cbMu.RUnlock()

	for _, cb := range callbacks {
		if cb != nil {
			cb(readings, state, events)
		}
	}
}
