package link

import (
	"context"
	"fmt"
	"io"
	"log"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/itohio/goturbidity/pkg/clock"
	"github.com/itohio/goturbidity/pkg/config"
	"github.com/itohio/goturbidity/pkg/display"
	"github.com/itohio/goturbidity/pkg/probe"
	"github.com/itohio/goturbidity/pkg/sample"
)

// Mock runs the probe firmware loop in-process against a simulated sensor.
// Its serial output is parsed exactly like a real port's.
type Mock struct {
	cfg *config.MockConfig

	stream *stream
	port   *mockPort
	lcd    *display.Buffer
	pin    atomic.Bool

	mu        sync.RWMutex
	ctx       context.Context
	cancel    context.CancelFunc
	connected bool
	loopDone  chan struct{}
}

// NewMock creates a new mocked device instance.
func NewMock(cfg *config.MockConfig) *Mock {
	if cfg == nil {
		cfg = &config.Default().Mock
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Mock{
		cfg:       cfg,
		stream:    newStream(DefaultBufferSize),
		lcd:       display.NewBuffer(),
		ctx:       ctx,
		cancel:    cancel,
		connected: false,
	}
}

// Connect boots the simulated probe.
func (m *Mock) Connect() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.connected {
		return fmt.Errorf("already connected")
	}
	if m.ctx.Err() != nil {
		return fmt.Errorf("device closed")
	}

	pr, pw := io.Pipe()
	m.port = &mockPort{r: pr, w: pw}
	m.loopDone = make(chan struct{})

	clk := clock.System{}
	loop := probe.New(probe.Hardware{
		Sensor:  newSimulatedSensor(m.cfg, clk),
		Alert:   pinFunc(m.pin.Store),
		Serial:  m.port,
		Display: m.lcd,
		Clock:   clk,
		Log:     log.New(log.Writer(), "mock: ", log.LstdFlags),
	})

	go m.stream.run(m.ctx, pr)
	go func() {
		defer close(m.loopDone)
		loop.Setup()
		loop.Run(m.ctx)
	}()

	m.connected = true

	return nil
}

// Close stops the simulated probe and waits for the reader to drain.
func (m *Mock) Close() error {
	m.mu.Lock()

	if !m.connected {
		m.mu.Unlock()
		return nil
	}

	m.cancel()
	m.connected = false
	m.mu.Unlock()

	// Unblock a loop iteration stuck writing to a reader that already quit.
	m.port.r.Close()
	<-m.loopDone
	m.port.w.Close()
	<-m.stream.done

	return nil
}

// Readings returns the channel for reading measurements.
func (m *Mock) Readings() <-chan Reading {
	return m.stream.readings
}

// SetAlert queues the alert command for the simulated probe.
func (m *Mock) SetAlert(on bool) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if !m.connected {
		return fmt.Errorf("not connected")
	}

	m.port.push(byte(alertCommand(on)))

	return nil
}

// Alert returns the alert state last acknowledged by the simulated probe.
func (m *Mock) Alert() bool {
	return m.stream.Alert()
}

// AlertPin returns the level of the simulated alert output.
func (m *Mock) AlertPin() bool {
	return m.pin.Load()
}

// Display returns the simulated LCD contents.
func (m *Mock) Display() []string {
	return m.lcd.Lines()
}

// IsConnected returns whether the device is currently connected.
func (m *Mock) IsConnected() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.connected
}

// mockPort is the simulated probe's UART: commands queue up in memory and
// output goes to the host side through a pipe.
type mockPort struct {
	mu sync.Mutex
	in []byte
	r  *io.PipeReader
	w  *io.PipeWriter
}

func (p *mockPort) push(b byte) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.in = append(p.in, b)
}

func (p *mockPort) Buffered() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.in)
}

func (p *mockPort) ReadByte() (byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.in) == 0 {
		return 0, io.EOF
	}
	b := p.in[0]
	p.in = p.in[1:]
	return b, nil
}

func (p *mockPort) Write(data []byte) (int, error) {
	return p.w.Write(data)
}

type pinFunc func(bool)

func (f pinFunc) Set(high bool) { f(high) }

// simulatedSensor produces raw ADC values for a clear-water baseline with
// periodic turbid episodes and a little deterministic noise.
type simulatedSensor struct {
	cfg   *config.MockConfig
	clk   clock.Clock
	start time.Time
}

func newSimulatedSensor(cfg *config.MockConfig, clk clock.Clock) *simulatedSensor {
	return &simulatedSensor{cfg: cfg, clk: clk, start: clk.Now()}
}

func (s *simulatedSensor) Read() uint16 {
	mv := s.millivolts(s.clk.Now().Sub(s.start))
	raw := math.Round(mv / float64(sample.SupplyMV) * sample.ADCMax)
	if raw < 0 {
		raw = 0
	} else if raw > sample.ADCMax {
		raw = sample.ADCMax
	}
	return uint16(raw)
}

// millivolts returns the simulated sensor output. Each episode occupies the
// end of its period and dips linearly toward EpisodeMV and back.
func (s *simulatedSensor) millivolts(elapsed time.Duration) float64 {
	mv := s.cfg.BaselineMV

	period, duration := s.cfg.EpisodePeriod, s.cfg.EpisodeDuration
	if period > 0 && duration > 0 && duration <= period {
		phase := elapsed % period
		if start := period - duration; phase >= start {
			x := float64(phase-start) / float64(duration)
			depth := 1 - math.Abs(2*x-1)
			mv += (s.cfg.EpisodeMV - s.cfg.BaselineMV) * depth
		}
	}

	ms := float64(elapsed.Milliseconds())
	mv += (math.Sin(ms*0.0037) + math.Cos(ms*0.0013)) * s.cfg.NoiseMV * 0.5

	return mv
}
