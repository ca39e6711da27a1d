package monitor

import (
	"time"

	"github.com/itohio/goturbidity/pkg/link"
)

// Fit is a least-squares line through turbidity readings. Time is measured
// in minutes from the first reading of the fitted range.
type Fit struct {
	Slope     float64 // NTU per minute
	Intercept float64 // NTU at the first reading
	Delta     float64 // Last minus first turbidity
	Span      time.Duration
	Points    int
}

// FitLine fits a line through readings (ordered oldest first). It returns
// false when there are fewer than two readings.
func FitLine(readings []link.Reading) (Fit, bool) {
	n := len(readings)
	if n < 2 {
		return Fit{}, false
	}

	t0 := readings[0].Timestamp
	var sumT, sumY float64
	for _, r := range readings {
		sumT += r.Timestamp.Sub(t0).Minutes()
		sumY += r.Turbidity
	}
	meanT := sumT / float64(n)
	meanY := sumY / float64(n)

	var num, den float64
	for _, r := range readings {
		dt := r.Timestamp.Sub(t0).Minutes() - meanT
		num += dt * (r.Turbidity - meanY)
		den += dt * dt
	}
	if den == 0 {
		den = 1e-9
	}
	slope := num / den

	return Fit{
		Slope:     slope,
		Intercept: meanY - slope*meanT,
		Delta:     readings[n-1].Turbidity - readings[0].Turbidity,
		Span:      readings[n-1].Timestamp.Sub(t0),
		Points:    n,
	}, true
}

// EndpointSlope is the change from the first to the last reading in NTU per
// minute, ignoring the readings in between.
func (f Fit) EndpointSlope() float64 {
	return f.Delta / max(f.Span.Minutes(), 1e-6)
}

// Since returns the tail of readings taken at or after cutoff.
func Since(readings []link.Reading, cutoff time.Time) []link.Reading {
	for i, r := range readings {
		if !r.Timestamp.Before(cutoff) {
			return readings[i:]
		}
	}
	return nil
}

// RollingTrend returns, for every reading, the value at that reading of a
// line fitted through the readings of the preceding window. Where fewer than
// two readings fall in the window the previous value (or the reading itself)
// is repeated.
func RollingTrend(readings []link.Reading, window time.Duration) []float64 {
	result := make([]float64, len(readings))
	start := 0
	for i, r := range readings {
		cutoff := r.Timestamp.Add(-window)
		for start < i && readings[start].Timestamp.Before(cutoff) {
			start++
		}

		fit, ok := FitLine(readings[start : i+1])
		switch {
		case ok:
			result[i] = fit.Intercept + fit.Slope*r.Timestamp.Sub(readings[start].Timestamp).Minutes()
		case i > 0:
			result[i] = result[i-1]
		default:
			result[i] = r.Turbidity
		}
	}
	return result
}
