package chart

import (
	"testing"
	"time"

	"fyne.io/fyne/v2/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itohio/goturbidity/pkg/config"
	"github.com/itohio/goturbidity/pkg/link"
)

var t0 = time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)

func readings(values ...float64) []link.Reading {
	result := make([]link.Reading, len(values))
	for i, v := range values {
		result[i] = link.Reading{Timestamp: t0.Add(time.Duration(i) * time.Second), Turbidity: v}
	}
	return result
}

func TestTail(t *testing.T) {
	s := []int{1, 2, 3, 4, 5}

	assert.Equal(t, []int{4, 5}, Tail(s, 2))
	assert.Equal(t, s, Tail(s, 5))
	assert.Equal(t, s, Tail(s, 10))
	assert.Equal(t, s, Tail(s, 0))
	assert.Empty(t, Tail([]int(nil), 3))
}

func TestYRange(t *testing.T) {
	tests := []struct {
		name     string
		readings []link.Reading
		trend    []float64
		wantMin  float64
		wantMax  float64
	}{
		{"empty", nil, nil, 0, 1},
		{"flat", readings(20, 20), nil, 19.9, 20.1},
		{"margin", readings(100, 200), nil, 90, 210},
		{"clamped at zero", readings(0, 50), nil, 0, 55},
		{"trend widens", readings(100, 200), []float64{100, 300}, 80, 320},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lo, hi := YRange(tt.readings, tt.trend)
			assert.InDelta(t, tt.wantMin, lo, 1e-9)
			assert.InDelta(t, tt.wantMax, hi, 1e-9)
		})
	}
}

func TestPlot(t *testing.T) {
	p := plot{x: 50, y: 20, w: 400, h: 200, yMin: 0, yMax: 100, n: 5}

	assert.Equal(t, float32(50), p.px(0))
	assert.Equal(t, float32(450), p.px(4))
	assert.Equal(t, float32(220), p.py(0))
	assert.Equal(t, float32(20), p.py(100))
	assert.Equal(t, float32(120), p.py(50))
	assert.True(t, p.contains(10))
	assert.False(t, p.contains(150))

	single := plot{x: 50, w: 400, n: 1}
	assert.Equal(t, float32(50), single.px(0))
}

func TestFormatNTU(t *testing.T) {
	assert.Equal(t, "12.35 NTU", formatNTU(12.346))
	assert.Equal(t, "0.00 NTU", formatNTU(0))
}

func TestChart_UpdateData(t *testing.T) {
	test.NewApp()

	cfg := config.Default()
	cfg.History.ChartPoints = 3
	c := New(cfg)

	c.UpdateData(readings(1, 2, 3, 4, 5))

	c.mu.RLock()
	defer c.mu.RUnlock()

	require.Len(t, c.readings, 3)
	assert.Equal(t, float64(3), c.readings[0].Turbidity)
	assert.Equal(t, float64(5), c.readings[2].Turbidity)
	require.Len(t, c.trend, 3)
	assert.InDelta(t, 5, c.trend[2], 1e-9)
	assert.Equal(t, []float64{10, 50, 100}, c.thresholds)
	assert.Less(t, c.yMin, float64(3))
	assert.Greater(t, c.yMax, float64(5))
}
