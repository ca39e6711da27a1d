package link

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"go.bug.st/serial"
	"go.bug.st/serial/enumerator"

	"github.com/itohio/goturbidity/pkg/probe"
)

const (
	// DefaultBaudRate is the probe's serial speed.
	DefaultBaudRate = probe.BaudRate
	// DefaultBufferSize is the default size for the readings channel buffer.
	DefaultBufferSize = 100
	// ResetDelay is how long the board takes to reboot after the port opens.
	ResetDelay = 2 * time.Second
)

// Port represents a serial port.
type Port struct {
	Name        string
	Description string
}

// Serial represents a connection to the probe over a serial port.
type Serial struct {
	port     string
	baudRate int
	bufSize  int

	// resetDelay is waited after opening the port before stale input is
	// discarded.
	resetDelay time.Duration

	conn      serial.Port
	stream    *stream
	mu        sync.RWMutex
	ctx       context.Context
	cancel    context.CancelFunc
	connected bool
}

// New creates a new Serial device with the specified port, baud rate, and buffer size.
func New(port string, baudRate int, bufSize int) *Serial {
	if baudRate == 0 {
		baudRate = DefaultBaudRate
	}
	if bufSize == 0 {
		bufSize = DefaultBufferSize
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Serial{
		port:       port,
		baudRate:   baudRate,
		bufSize:    bufSize,
		resetDelay: ResetDelay,
		stream:     newStream(bufSize),
		ctx:        ctx,
		cancel:     cancel,
		connected:  false,
	}
}

// Ports returns a list of available serial ports. USB ports are described
// by their product name when the OS reports one.
func Ports() ([]Port, error) {
	details, err := enumerator.GetDetailedPortsList()
	if err != nil {
		names, listErr := serial.GetPortsList()
		if listErr != nil {
			return nil, fmt.Errorf("failed to list serial ports: %w", listErr)
		}
		result := make([]Port, 0, len(names))
		for _, name := range names {
			result = append(result, Port{Name: name, Description: name})
		}
		return result, nil
	}

	result := make([]Port, 0, len(details))
	for _, d := range details {
		desc := d.Name
		if d.IsUSB {
			desc = fmt.Sprintf("USB %s:%s", d.VID, d.PID)
			if d.Product != "" {
				desc = d.Product
			}
		}
		result = append(result, Port{
			Name:        d.Name,
			Description: desc,
		})
	}

	return result, nil
}

// Connect opens the serial port and starts reading.
func (d *Serial) Connect() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.connected {
		return fmt.Errorf("already connected")
	}
	if d.ctx.Err() != nil {
		return fmt.Errorf("device closed")
	}

	mode := &serial.Mode{
		BaudRate: d.baudRate,
	}

	port, err := serial.Open(d.port, mode)
	if err != nil {
		return fmt.Errorf("failed to open serial port %s: %w", d.port, err)
	}

	// Opening the port resets the board; drop whatever arrived meanwhile.
	if d.resetDelay > 0 {
		time.Sleep(d.resetDelay)
	}
	if err := port.ResetInputBuffer(); err != nil {
		log.Printf("Failed to flush input on %s: %v", d.port, err)
	}

	d.conn = port
	d.connected = true

	go d.stream.run(d.ctx, port)

	return nil
}

// Close closes the connection and waits for the reader to finish. The
// readings channel is closed once the reader exits.
func (d *Serial) Close() error {
	d.mu.Lock()

	if !d.connected {
		d.mu.Unlock()
		return nil
	}

	d.cancel()

	if d.conn != nil {
		if err := d.conn.Close(); err != nil {
			log.Printf("Error closing serial port: %v", err)
		}
		d.conn = nil
	}

	d.connected = false
	d.mu.Unlock()

	<-d.stream.done

	return nil
}

// Readings returns the channel for reading measurements.
func (d *Serial) Readings() <-chan Reading {
	return d.stream.readings
}

// SetAlert sends the alert command to the probe.
func (d *Serial) SetAlert(on bool) error {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if !d.connected {
		return fmt.Errorf("not connected")
	}

	cmd := alertCommand(on)
	if _, err := d.conn.Write([]byte{byte(cmd)}); err != nil {
		return fmt.Errorf("failed to send %s command: %w", cmd, err)
	}

	return nil
}

// Alert returns the alert state last acknowledged by the probe.
func (d *Serial) Alert() bool {
	return d.stream.Alert()
}

// IsConnected returns whether the device is currently connected.
func (d *Serial) IsConnected() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.connected
}

func alertCommand(on bool) probe.Command {
	if on {
		return probe.ActivateAlert
	}
	return probe.DeactivateAlert
}
