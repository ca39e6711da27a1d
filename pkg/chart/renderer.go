package chart

import (
	"image/color"
	"strconv"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"

	"github.com/itohio/goturbidity/pkg/link"
)

var (
	backgroundColor = color.RGBA{R: 20, G: 20, B: 20, A: 255}
	gridColor       = color.RGBA{R: 40, G: 40, B: 40, A: 255}
	labelColor      = color.RGBA{R: 150, G: 150, B: 150, A: 255}
	readingColor    = color.RGBA{R: 255, G: 165, B: 0, A: 255}
	trendColor      = color.RGBA{R: 100, G: 200, B: 255, A: 255}

	// Threshold lines for alert levels 1..3.
	thresholdColors = []color.Color{
		color.RGBA{R: 220, G: 200, B: 60, A: 160},
		color.RGBA{R: 240, G: 130, B: 40, A: 160},
		color.RGBA{R: 230, G: 50, B: 50, A: 160},
	}
)

// chartRenderer renders the chart widget.
type chartRenderer struct {
	chart *Chart

	bg      *canvas.Rectangle
	objects []fyne.CanvasObject

	lastSize fyne.Size
}

// MinSize returns the minimum size of the widget.
func (r *chartRenderer) MinSize() fyne.Size {
	return fyne.NewSize(400, 250)
}

// Layout arranges the widget components.
func (r *chartRenderer) Layout(size fyne.Size) {
	r.bg.Resize(size)

	if r.lastSize != size {
		r.lastSize = size
		r.chart.BaseWidget.Refresh()
	}
}

// Refresh rebuilds the plot.
func (r *chartRenderer) Refresh() {
	r.chart.mu.RLock()
	readings := r.chart.readings
	trend := r.chart.trend
	thresholds := r.chart.thresholds
	yMin, yMax := r.chart.yMin, r.chart.yMax
	r.chart.mu.RUnlock()

	size := r.chart.Size()
	if size.Width == 0 || size.Height == 0 {
		return
	}

	r.objects = []fyne.CanvasObject{r.bg}

	marginLeft := float32(50.0)
	marginRight := float32(20.0)
	marginTop := float32(20.0)
	marginBottom := float32(40.0)

	p := plot{
		x:    marginLeft,
		y:    marginTop,
		w:    size.Width - marginLeft - marginRight,
		h:    size.Height - marginTop - marginBottom,
		yMin: yMin,
		yMax: yMax,
		n:    len(readings),
	}

	r.drawGrid(p, readings)
	r.drawThresholds(p, thresholds)

	if len(readings) > 1 {
		values := make([]float64, len(readings))
		for i, rd := range readings {
			values[i] = rd.Turbidity
		}
		r.drawSeries(p, values, readingColor, 1.5)
		r.drawSeries(p, trend, trendColor, 2.5)
	}

	if len(readings) > 0 {
		latest := readings[len(readings)-1]
		text := canvas.NewText(formatNTU(latest.Turbidity), color.RGBA{R: 200, G: 200, B: 200, A: 255})
		text.TextSize = 11
		text.Move(fyne.NewPos(p.x+10, p.y+5))
		r.objects = append(r.objects, text)
	}
}

// plot maps reading indices and turbidity to widget coordinates.
type plot struct {
	x, y, w, h float32
	yMin, yMax float64
	n          int
}

func (p plot) px(i int) float32 {
	if p.n < 2 {
		return p.x
	}
	return p.x + float32(i)*p.w/float32(p.n-1)
}

func (p plot) py(v float64) float32 {
	return p.y + p.h - float32((v-p.yMin)/(p.yMax-p.yMin))*p.h
}

func (p plot) contains(v float64) bool {
	return v >= p.yMin && v <= p.yMax
}

// drawGrid draws horizontal NTU lines and vertical lines labelled with
// reading times.
func (r *chartRenderer) drawGrid(p plot, readings []link.Reading) {
	numHLines := 5
	for i := range numHLines + 1 {
		y := p.y + float32(i)*p.h/float32(numHLines)
		r.addLine(gridColor, 1, fyne.NewPos(p.x, y), fyne.NewPos(p.x+p.w, y))

		value := p.yMax - float64(i)*(p.yMax-p.yMin)/float64(numHLines)
		text := canvas.NewText(strconv.FormatFloat(value, 'f', 0, 64), labelColor)
		text.TextSize = 10
		text.Alignment = fyne.TextAlignTrailing
		text.Move(fyne.NewPos(p.x-5, y-6))
		r.objects = append(r.objects, text)
	}

	if len(readings) < 2 {
		return
	}

	skip := max(1, len(readings)/5)
	for i := 0; i < len(readings); i += skip {
		x := p.px(i)
		r.addLine(gridColor, 1, fyne.NewPos(x, p.y), fyne.NewPos(x, p.y+p.h))

		text := canvas.NewText(readings[i].Timestamp.Format("15:04:05"), labelColor)
		text.TextSize = 10
		text.Alignment = fyne.TextAlignCenter
		text.Move(fyne.NewPos(x-20, p.y+p.h+5))
		r.objects = append(r.objects, text)
	}
}

func (r *chartRenderer) drawThresholds(p plot, thresholds []float64) {
	for i, v := range thresholds {
		if i >= len(thresholdColors) || !p.contains(v) {
			continue
		}
		y := p.py(v)
		r.addLine(thresholdColors[i], 1, fyne.NewPos(p.x, y), fyne.NewPos(p.x+p.w, y))
	}
}

func (r *chartRenderer) drawSeries(p plot, values []float64, c color.Color, width float32) {
	for i := range len(values) - 1 {
		r.addLine(c, width, fyne.NewPos(p.px(i), p.py(values[i])), fyne.NewPos(p.px(i+1), p.py(values[i+1])))
	}
}

func (r *chartRenderer) addLine(c color.Color, width float32, from, to fyne.Position) {
	line := canvas.NewLine(c)
	line.Position1 = from
	line.Position2 = to
	line.StrokeWidth = width
	r.objects = append(r.objects, line)
}

// Objects returns all canvas objects for rendering.
func (r *chartRenderer) Objects() []fyne.CanvasObject {
	return r.objects
}

// Destroy cleans up resources.
func (r *chartRenderer) Destroy() {}

func formatNTU(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64) + " NTU"
}
