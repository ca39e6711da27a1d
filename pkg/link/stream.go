package link

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/itohio/goturbidity/pkg/probe"
)

var (
	voltageRe   = regexp.MustCompile(`(?i)VOLT(?:AGE)?\s*[:=]\s*([-+]?\d*\.?\d+)\s*(mV|v)?`)
	turbidityRe = regexp.MustCompile(`(?i)TURBIDITY\s*[:=]\s*([-+]?\d*\.?\d+)`)

	labelReplacer = strings.NewReplacer(probe.VoltageLabel, "VOLTAGE", probe.TurbidityLabel, "TURBIDITY")
)

// stream turns the probe's output into readings and tracks the alert state
// the probe has acknowledged.
type stream struct {
	readings chan Reading
	done     chan struct{}
	now      func() time.Time

	mu    sync.RWMutex
	alert bool
}

func newStream(bufSize int) *stream {
	return &stream{
		readings: make(chan Reading, bufSize),
		done:     make(chan struct{}),
		now:      time.Now,
	}
}

// run reads lines from src until it fails or ends, then closes the readings
// channel.
func (s *stream) run(ctx context.Context, src io.Reader) {
	defer close(s.done)
	defer close(s.readings)
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Panic in stream reader: %v", r)
		}
	}()

	scanner := bufio.NewScanner(src)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if cmd, ok := probe.ParseAck(line); ok {
			s.setAlert(cmd.Alert())
			continue
		}

		reading, err := parseLine(line)
		if err != nil {
			log.Printf("Failed to parse line '%s': %v", line, err)
			continue
		}
		reading.Timestamp = s.now()

		select {
		case s.readings <- reading:
		case <-ctx.Done():
			return
		default:
			log.Printf("Readings channel full, dropping reading")
		}
	}

	if err := scanner.Err(); err != nil && ctx.Err() == nil {
		log.Printf("Error reading from probe: %v", err)
	}
}

func (s *stream) setAlert(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.alert = on
}

func (s *stream) Alert() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.alert
}

// parseLine parses a report line into a Reading.
// Format: Vôn:<mV>,Độ đục:<NTU>
// Example: Vôn:3412,Độ đục:52.00
//
// English labels are accepted too (VOLTAGE or VOLT, TURBIDITY, ':' or '=')
// with an optional mV or V unit after the voltage. A unitless English voltage
// below 100 is taken to be in volts.
func parseLine(line string) (Reading, error) {
	// The probe always reports whole millivolts, so a small unitless value on
	// its own line is a low reading, not volts.
	canonical := strings.Contains(line, probe.VoltageLabel)
	normalized := labelReplacer.Replace(line)

	turb := turbidityRe.FindStringSubmatch(normalized)
	if turb == nil {
		return Reading{}, fmt.Errorf("no turbidity field")
	}
	ntu, err := strconv.ParseFloat(turb[1], 64)
	if err != nil {
		return Reading{}, fmt.Errorf("invalid turbidity: %w", err)
	}

	volt := voltageRe.FindStringSubmatch(normalized)
	if volt == nil {
		return Reading{}, fmt.Errorf("no voltage field")
	}
	mv, err := strconv.ParseFloat(volt[1], 64)
	if err != nil {
		return Reading{}, fmt.Errorf("invalid voltage: %w", err)
	}

	switch unit := strings.ToLower(volt[2]); {
	case unit == "v":
		mv *= 1000
	case unit == "" && !canonical && mv > -100 && mv < 100:
		mv *= 1000
	}

	return Reading{
		VoltageMV: mv,
		Turbidity: ntu,
	}, nil
}
