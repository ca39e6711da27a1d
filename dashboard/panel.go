package main

import (
	"fmt"
	"image/color"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"

	"github.com/itohio/goturbidity/pkg/config"
	"github.com/itohio/goturbidity/pkg/monitor"
	"github.com/itohio/goturbidity/pkg/turbidity"
)

// maxEvents is how many recent events the panel lists.
const maxEvents = 6

// statusPanel shows the latest reading, water status, alert level, trend and
// recent events. For the simulated probe it also mirrors the LCD.
type statusPanel struct {
	cfg *config.Config

	voltage   *widget.Label
	ntu       *widget.Label
	status    *widget.Label
	indicator *canvas.Circle
	level     *widget.Label
	gauge     *widget.ProgressBar
	trend     *widget.Label
	events    *widget.Label
	lcd       [2]*widget.Label
	showLCD   bool

	recent []string
}

func newStatusPanel(cfg *config.Config, showLCD bool) *statusPanel {
	p := &statusPanel{
		cfg:       cfg,
		voltage:   widget.NewLabel("Voltage: --"),
		ntu:       widget.NewLabelWithStyle("-- NTU", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		status:    widget.NewLabelWithStyle("--", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		indicator: canvas.NewCircle(statusColor(-1)),
		level:     widget.NewLabel("Alert level: 0"),
		gauge:     widget.NewProgressBar(),
		trend:     widget.NewLabel("Trend: --"),
		events:    widget.NewLabel(""),
		showLCD:   showLCD,
	}
	p.gauge.Min = 0
	p.gauge.Max = float64(turbidity.MaxNTU)
	p.gauge.TextFormatter = func() string {
		return fmt.Sprintf("%.0f / %.0f NTU", p.gauge.Value, p.gauge.Max)
	}
	p.events.Wrapping = fyne.TextWrapWord
	for i := range p.lcd {
		p.lcd[i] = widget.NewLabelWithStyle(strings.Repeat(" ", 16), fyne.TextAlignLeading, fyne.TextStyle{Monospace: true})
	}
	return p
}

func (p *statusPanel) container() fyne.CanvasObject {
	indicator := container.NewGridWrap(fyne.NewSize(18, 18), p.indicator)

	items := []fyne.CanvasObject{
		widget.NewLabelWithStyle("Water status", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		container.NewHBox(indicator, p.status),
		p.ntu,
		p.gauge,
		p.voltage,
		p.level,
		p.trend,
	}
	if p.showLCD {
		items = append(items,
			widget.NewSeparator(),
			widget.NewLabel("Probe display"),
			p.lcd[0],
			p.lcd[1],
		)
	}
	items = append(items,
		widget.NewSeparator(),
		widget.NewLabel("Events"),
		p.events,
	)

	box := container.NewVBox(items...)
	return container.NewGridWrap(fyne.NewSize(280, 600), box)
}

// update refreshes the panel. Must run on the main thread.
func (p *statusPanel) update(st monitor.State, events []monitor.Event, lcd []string) {
	p.voltage.SetText(fmt.Sprintf("Voltage: %.0f mV", st.Latest.VoltageMV))
	p.ntu.SetText(fmt.Sprintf("%.2f NTU", st.Latest.Turbidity))
	p.status.SetText(st.Status.String())
	p.indicator.FillColor = statusColor(st.Status)
	p.indicator.Refresh()
	p.gauge.SetValue(min(st.Latest.Turbidity, p.gauge.Max))
	p.level.SetText(formatLevel(st.Level, p.cfg.Alert))
	p.trend.SetText(formatTrend(st))

	for i := range p.lcd {
		if i < len(lcd) {
			p.lcd[i].SetText(lcd[i])
		}
	}

	for _, e := range events {
		p.recent = append(p.recent, e.Time.Format("15:04:05")+" "+e.Message)
	}
	if len(p.recent) > maxEvents {
		p.recent = p.recent[len(p.recent)-maxEvents:]
	}
	p.events.SetText(strings.Join(p.recent, "\n"))
}

// statusColor returns the indicator color of a water status.
func statusColor(s monitor.Status) color.Color {
	switch s {
	case monitor.Distilled:
		return color.RGBA{R: 34, G: 197, B: 94, A: 255}
	case monitor.Clear:
		return color.RGBA{R: 59, G: 130, B: 246, A: 255}
	case monitor.SlightlyTurbid:
		return color.RGBA{R: 234, G: 179, B: 8, A: 255}
	case monitor.Turbid, monitor.VeryTurbid:
		return color.RGBA{R: 239, G: 68, B: 68, A: 255}
	}
	return color.RGBA{R: 107, G: 114, B: 128, A: 255}
}

func formatTrend(st monitor.State) string {
	if !st.HasTrend {
		return "Trend: --"
	}
	return fmt.Sprintf("Trend: %+.1f NTU/min", st.Trend.Slope)
}

func formatLevel(level int, cfg config.AlertConfig) string {
	thresholds := []float64{cfg.Level1, cfg.Level2, cfg.Level3}
	if level <= 0 {
		return "Alert level: 0"
	}
	return fmt.Sprintf("Alert level: %d (> %.0f NTU)", level, thresholds[min(level, len(thresholds))-1])
}
