// Package sample reads the turbidity sensor and averages raw ADC values
// into millivolts.
package sample

import (
	"time"

	"github.com/itohio/goturbidity/pkg/clock"
)

const (
	// ADCMax is the largest raw value of the 10-bit converter.
	ADCMax = 1023
	// SupplyMV is the ADC reference (board supply) in millivolts.
	SupplyMV float32 = 5000.0

	// DefaultCount is the number of raw reads averaged per measurement.
	DefaultCount = 15
	// DefaultDelay separates successive reads. Back-to-back reads on this
	// sensor are noisy.
	DefaultDelay = 5 * time.Millisecond
)

// Analog is a single analog input channel returning values in [0, ADCMax].
type Analog interface {
	Read() uint16
}

// Sampler averages raw analog reads into a voltage.
type Sampler struct {
	in  Analog
	clk clock.Clock
}

// NewSampler creates a sampler reading from in and pausing on clk.
func NewSampler(in Analog, clk clock.Clock) *Sampler {
	return &Sampler{in: in, clk: clk}
}

// MeasureVoltage takes count reads separated by delay and returns the mean
// scaled to millivolts. It blocks for count*delay. A count below 1 is
// treated as 1.
func (s *Sampler) MeasureVoltage(count int, delay time.Duration) float32 {
	if count < 1 {
		count = 1
	}

	var sum uint64
	for range count {
		sum += uint64(s.in.Read())
		if delay > 0 {
			s.clk.Sleep(delay)
		}
	}

	avg := float32(sum) / float32(count)
	return adcToMillivolts(avg)
}

// adcToMillivolts converts an (averaged) raw reading to millivolts.
func adcToMillivolts(adc float32) float32 {
	return (adc / ADCMax) * SupplyMV
}
