package link

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itohio/goturbidity/pkg/clock"
	"github.com/itohio/goturbidity/pkg/config"
	"github.com/itohio/goturbidity/pkg/sample"
	"github.com/itohio/goturbidity/pkg/turbidity"
)

func quietMockConfig() *config.MockConfig {
	return &config.MockConfig{
		BaselineMV:      3590,
		NoiseMV:         0,
		EpisodeMV:       1500,
		EpisodePeriod:   90 * time.Second,
		EpisodeDuration: 30 * time.Second,
	}
}

func TestNewMock(t *testing.T) {
	cfg := quietMockConfig()

	dev := NewMock(cfg)
	assert.NotNil(t, dev)
	assert.Equal(t, cfg, dev.cfg)
	assert.NotNil(t, dev.stream)
	assert.False(t, dev.IsConnected())
	assert.False(t, dev.AlertPin())
}

func TestNewMock_NilConfig(t *testing.T) {
	dev := NewMock(nil)
	assert.NotNil(t, dev)
	require.NotNil(t, dev.cfg)
	assert.Equal(t, float64(3590), dev.cfg.BaselineMV)
	assert.Equal(t, float64(15), dev.cfg.NoiseMV)
	assert.Equal(t, float64(1500), dev.cfg.EpisodeMV)
	assert.Equal(t, 90*time.Second, dev.cfg.EpisodePeriod)
	assert.Equal(t, 30*time.Second, dev.cfg.EpisodeDuration)
}

func TestSimulatedSensor_Millivolts(t *testing.T) {
	s := newSimulatedSensor(quietMockConfig(), clock.NewFake(time.Unix(0, 0)))

	tests := []struct {
		name    string
		elapsed time.Duration
		want    float64
	}{
		{"start", 0, 3590},
		{"before episode", 59 * time.Second, 3590},
		{"episode start", 60 * time.Second, 3590},
		{"episode quarter", 67500 * time.Millisecond, 3590 - 2090*0.5},
		{"episode peak", 75 * time.Second, 1500},
		{"next period", 95 * time.Second, 3590},
		{"second peak", 165 * time.Second, 1500},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, s.millivolts(tt.elapsed), 1e-6)
		})
	}
}

func TestSimulatedSensor_NoiseIsBounded(t *testing.T) {
	cfg := quietMockConfig()
	cfg.NoiseMV = 20
	s := newSimulatedSensor(cfg, clock.NewFake(time.Unix(0, 0)))

	for ms := 0; ms < 60000; ms += 37 {
		mv := s.millivolts(time.Duration(ms) * time.Millisecond)
		assert.InDelta(t, 3590, mv, 20)
	}
}

func TestSimulatedSensor_Read(t *testing.T) {
	clk := clock.NewFake(time.Unix(0, 0))
	s := newSimulatedSensor(quietMockConfig(), clk)

	raw := s.Read()
	assert.Equal(t, uint16(735), raw)

	// Clear water reads as zero turbidity.
	mv := float32(raw) / sample.ADCMax * sample.SupplyMV
	assert.Equal(t, float32(0), turbidity.ToTurbidity(mv))

	clk.Advance(75 * time.Second)
	raw = s.Read()
	assert.Equal(t, uint16(307), raw)
	assert.Greater(t, turbidity.ToTurbidity(float32(raw)/sample.ADCMax*sample.SupplyMV), float32(100))
}

func TestSimulatedSensor_ReadClamps(t *testing.T) {
	cfg := quietMockConfig()
	cfg.BaselineMV = 9000
	clk := clock.NewFake(time.Unix(0, 0))
	assert.Equal(t, uint16(sample.ADCMax), newSimulatedSensor(cfg, clk).Read())

	cfg.BaselineMV = -50
	assert.Equal(t, uint16(0), newSimulatedSensor(cfg, clk).Read())
}

func TestMock_SetAlert_NotConnected(t *testing.T) {
	dev := NewMock(nil)

	err := dev.SetAlert(true)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "not connected")
}

func TestMock_Connect_AlreadyConnected(t *testing.T) {
	dev := NewMock(nil)
	defer dev.Close()

	err := dev.Connect()
	assert.NoError(t, err)

	err = dev.Connect()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "already connected")
}

func TestMock_Close_NotConnected(t *testing.T) {
	dev := NewMock(nil)

	err := dev.Close()
	assert.NoError(t, err)
}

func TestMock_Reconnect_AfterClose(t *testing.T) {
	dev := NewMock(nil)

	require.NoError(t, dev.Connect())
	require.NoError(t, dev.Close())
	assert.False(t, dev.IsConnected())

	err := dev.Connect()
	assert.Error(t, err)
}

func TestMock_Readings(t *testing.T) {
	dev := NewMock(quietMockConfig())
	require.NoError(t, dev.Connect())
	defer dev.Close()

	select {
	case r, ok := <-dev.Readings():
		require.True(t, ok)
		assert.InDelta(t, 3592, r.VoltageMV, 1)
		assert.Equal(t, float64(0), r.Turbidity)
		assert.False(t, r.Timestamp.IsZero())
	case <-time.After(5 * time.Second):
		t.Fatal("no reading within timeout")
	}

	lines := dev.Display()
	require.Len(t, lines, 2)
	assert.Eventually(t, func() bool {
		lines := dev.Display()
		return lines[0] == "V: 3.59 V       " && lines[1] == "NTU: 0.0        "
	}, 2*time.Second, 20*time.Millisecond)
}

func TestMock_SetAlert(t *testing.T) {
	dev := NewMock(nil)
	require.NoError(t, dev.Connect())
	defer dev.Close()

	require.NoError(t, dev.SetAlert(true))
	assert.Eventually(t, func() bool {
		return dev.Alert() && dev.AlertPin()
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, dev.SetAlert(false))
	assert.Eventually(t, func() bool {
		return !dev.Alert() && !dev.AlertPin()
	}, 2*time.Second, 10*time.Millisecond)
}

// TestMock_GracefulShutdown tests that the readings channel is closed when
// Close() is called.
func TestMock_GracefulShutdown(t *testing.T) {
	mock := NewMock(nil)
	err := mock.Connect()
	assert.NoError(t, err)

	readings := mock.Readings()

	received := 0
	done := make(chan struct{})
	go func() {
		defer close(done)
		for range readings {
			received++
			if received >= 2 {
				mock.Close()
			}
		}
	}()

	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("Readings channel did not close within timeout")
	}

	assert.GreaterOrEqual(t, received, 2, "Should receive readings before channel closes")

	_, ok := <-readings
	assert.False(t, ok, "Channel should be closed")
	assert.False(t, mock.IsConnected())
}

// TestMock_CloseWithoutConsumer tests that Close() returns even when nobody
// drains the readings channel.
func TestMock_CloseWithoutConsumer(t *testing.T) {
	mock := NewMock(nil)
	require.NoError(t, mock.Connect())

	time.Sleep(200 * time.Millisecond)

	closed := make(chan struct{})
	go func() {
		mock.Close()
		close(closed)
	}()

	select {
	case <-closed:
	case <-time.After(5 * time.Second):
		t.Fatal("Close did not return")
	}
}
