package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/chzyer/readline"

	"github.com/itohio/goturbidity/pkg/link"
	"github.com/itohio/goturbidity/pkg/monitor"
)

// readlineWriter wraps log output to work with readline
type readlineWriter struct {
	rl  *readline.Instance
	out io.Writer
}

func (w *readlineWriter) Write(p []byte) (n int, err error) {
	if w.rl != nil {
		w.rl.Clean()
	}
	n, err = w.out.Write(p)
	if w.rl != nil {
		w.rl.Refresh()
	}
	return n, err
}

// update is one monitor callback forwarded to the console loop.
type update struct {
	readings []link.Reading
	state    monitor.State
	events   []monitor.Event
}

// consoleState holds what the console shows and controls.
type consoleState struct {
	device link.Device
	out    io.Writer
	rl     *readline.Instance

	watch  bool // Print every reading
	latest *update
}

func newConsoleState(device link.Device, out io.Writer) *consoleState {
	return &consoleState{
		device: device,
		out:    out,
		watch:  true,
	}
}

// print outputs a line, handling readline prompt properly
func (s *consoleState) print(format string, args ...any) {
	line := fmt.Sprintf(format, args...)
	if s.rl != nil {
		s.rl.Clean()
		fmt.Fprintln(s.out, line)
		s.rl.Refresh()
	} else {
		fmt.Fprintln(s.out, line)
	}
}

// forwardUpdates returns a monitor callback that hands updates to the console
// loop without blocking the monitor. When the loop falls behind the update is
// dropped, but its events are still logged.
func forwardUpdates(updates chan<- update) func([]link.Reading, monitor.State, []monitor.Event) {
	return func(readings []link.Reading, st monitor.State, events []monitor.Event) {
		select {
		case updates <- update{readings: readings, state: st, events: events}:
		default:
			log.Printf("Console busy, dropped reading at %s", st.Latest.Timestamp.Format("15:04:05"))
			for _, e := range events {
				log.Printf("%s [%s] %s", e.Time.Format("15:04:05"), e.Kind, e.Message)
			}
		}
	}
}

// handleUpdate prints events and, when watching, the new reading.
func (s *consoleState) handleUpdate(u update) {
	s.latest = &u

	for _, e := range u.events {
		s.print("%s [%s] %s", e.Time.Format("15:04:05"), e.Kind, e.Message)
	}
	if s.watch {
		s.print("%s", formatReading(u.state))
	}
}

// handleCommand processes a console command. It returns false when the
// console should exit.
func (s *consoleState) handleCommand(cmd string) bool {
	parts := strings.Fields(strings.ToLower(cmd))
	if len(parts) == 0 {
		return true
	}

	switch parts[0] {
	case "a", "s":
		s.setAlert(parts[0] == "a")

	case "alert":
		if len(parts) < 2 || (parts[1] != "on" && parts[1] != "off") {
			log.Println("Usage: alert on|off")
			return true
		}
		s.setAlert(parts[1] == "on")

	case "status":
		if s.latest == nil {
			log.Println("No readings received yet")
			return true
		}
		s.print("%s", formatReading(s.latest.state))
		s.print("Alert level %d, probe alert %s", s.latest.state.Level, onOff(s.device.Alert()))
		if s.latest.state.HasTrend {
			s.print("Trend %+.1f NTU/min over %d readings", s.latest.state.Trend.Slope, s.latest.state.Trend.Points)
		}

	case "history":
		n := 10
		if len(parts) > 1 {
			v, err := strconv.Atoi(parts[1])
			if err != nil || v <= 0 {
				log.Println("Usage: history [count]")
				return true
			}
			n = v
		}
		if s.latest == nil {
			log.Println("No readings received yet")
			return true
		}
		readings := s.latest.readings
		if len(readings) > n {
			readings = readings[len(readings)-n:]
		}
		for _, r := range readings {
			s.print("%s  %6.0f mV  %7.2f NTU", r.Timestamp.Format("15:04:05"), r.VoltageMV, r.Turbidity)
		}

	case "lcd":
		mock, ok := s.device.(*link.Mock)
		if !ok {
			log.Println("Display is only available for the simulated probe")
			return true
		}
		for _, line := range mock.Display() {
			s.print("|%s|", line)
		}

	case "watch":
		s.watch = !s.watch
		s.print("Watching readings: %s", onOff(s.watch))

	case "ports":
		ports, err := link.Ports()
		if err != nil {
			log.Printf("Error: %v", err)
			return true
		}
		for _, p := range ports {
			s.print("  %s  %s", p.Name, p.Description)
		}

	case "help":
		s.print("Commands:")
		s.print("  a | alert on      - Switch the probe alert on")
		s.print("  s | alert off     - Switch the probe alert off")
		s.print("  status            - Show the latest reading, level and trend")
		s.print("  history [count]   - Show recent readings")
		s.print("  lcd               - Show the simulated probe display")
		s.print("  watch             - Toggle printing every reading")
		s.print("  ports             - List serial ports")
		s.print("  quit              - Exit")

	case "quit", "exit":
		return false

	default:
		log.Printf("Unknown command: %s (try 'help')", parts[0])
	}

	return true
}

func (s *consoleState) setAlert(on bool) {
	if err := s.device.SetAlert(on); err != nil {
		log.Printf("Error: %v", err)
		return
	}
	s.print("Alert %s requested", onOff(on))
}

func formatReading(st monitor.State) string {
	return fmt.Sprintf("%s  %.0f mV  %.2f NTU  %s",
		st.Latest.Timestamp.Format("15:04:05"), st.Latest.VoltageMV, st.Latest.Turbidity, st.Status)
}

func onOff(on bool) string {
	if on {
		return "on"
	}
	return "off"
}

// readlineLoop runs the readline loop, sending commands to the channel
func readlineLoop(
	ctx context.Context,
	cancel context.CancelFunc,
	rl *readline.Instance,
	commandChan chan<- string,
) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			cancel()
			return
		}
		if err != nil {
			cancel()
			return
		}
		line = strings.TrimSpace(line)
		if line != "" {
			commandChan <- line
		}
	}
}

// historyFilePath returns the path for the console history file
func historyFilePath() string {
	cacheDir := os.Getenv("XDG_CACHE_HOME")
	if cacheDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		cacheDir = filepath.Join(home, ".cache")
	}
	dir := filepath.Join(cacheDir, "goturbidity")
	_ = os.MkdirAll(dir, 0750)
	return filepath.Join(dir, "console_history")
}
