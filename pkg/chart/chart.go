// Package chart provides a Fyne widget plotting recent turbidity readings
// together with their rolling trend line.
package chart

import (
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/widget"

	"github.com/itohio/goturbidity/pkg/config"
	"github.com/itohio/goturbidity/pkg/link"
	"github.com/itohio/goturbidity/pkg/monitor"
)

// Chart is a custom Fyne widget that plots turbidity history.
type Chart struct {
	widget.BaseWidget

	cfg *config.Config

	// Data (protected by mu)
	mu         sync.RWMutex
	readings   []link.Reading
	trend      []float64
	thresholds []float64

	// Auto-scaling
	yMin, yMax float64
}

// New creates a new Chart instance.
func New(cfg *config.Config) *Chart {
	if cfg == nil {
		cfg = config.Default()
	}
	c := &Chart{
		cfg:        cfg,
		readings:   make([]link.Reading, 0, cfg.History.ChartPoints),
		trend:      make([]float64, 0, cfg.History.ChartPoints),
		thresholds: []float64{cfg.Alert.Level1, cfg.Alert.Level2, cfg.Alert.Level3},
		yMin:       0,
		yMax:       1,
	}
	c.ExtendBaseWidget(c)
	c.Refresh()
	return c
}

// UpdateData replaces the plotted readings with the tail of history.
// This should be called from the monitor callback using fyne.Do().
func (c *Chart) UpdateData(history []link.Reading) {
	c.mu.Lock()

	trend := monitor.RollingTrend(history, c.cfg.Trend.Window)
	n := c.cfg.History.ChartPoints
	c.readings = append(c.readings[:0], Tail(history, n)...)
	c.trend = append(c.trend[:0], Tail(trend, n)...)
	c.yMin, c.yMax = YRange(c.readings, c.trend)

	c.mu.Unlock()

	c.Refresh()
}

// CreateRenderer creates the widget renderer.
func (c *Chart) CreateRenderer() fyne.WidgetRenderer {
	bg := canvas.NewRectangle(backgroundColor)
	return &chartRenderer{
		chart:   c,
		bg:      bg,
		objects: []fyne.CanvasObject{bg},
	}
}

// Tail returns the last n elements of s, or all of s when n is not positive.
func Tail[T any](s []T, n int) []T {
	if n <= 0 || len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}

// YRange returns the turbidity axis range covering readings and trend with a
// 10% margin. The range never goes below zero.
func YRange(readings []link.Reading, trend []float64) (float64, float64) {
	if len(readings) == 0 {
		return 0, 1
	}

	lo, hi := readings[0].Turbidity, readings[0].Turbidity
	for _, r := range readings {
		lo = min(lo, r.Turbidity)
		hi = max(hi, r.Turbidity)
	}
	for _, v := range trend {
		lo = min(lo, v)
		hi = max(hi, v)
	}

	span := hi - lo
	if span == 0 {
		span = 1
	}
	margin := span * 0.1
	lo -= margin
	hi += margin
	if lo < 0 {
		lo = 0
	}
	return lo, hi
}
