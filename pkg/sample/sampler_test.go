package sample

import (
	"testing"
	"time"

	"github.com/itohio/goturbidity/pkg/clock"
	"github.com/stretchr/testify/assert"
)

// sequence replays raw values, repeating the last one when exhausted.
type sequence struct {
	values []uint16
	reads  int
}

func (s *sequence) Read() uint16 {
	i := s.reads
	if i >= len(s.values) {
		i = len(s.values) - 1
	}
	s.reads++
	return s.values[i]
}

func TestMeasureVoltage_SingleSample(t *testing.T) {
	for _, raw := range []uint16{0, 1, 512, 737, 1000, 1023} {
		in := &sequence{values: []uint16{raw}}
		s := NewSampler(in, clock.NewFake(time.Unix(0, 0)))

		got := s.MeasureVoltage(1, 0)
		assert.Equal(t, float32(raw)/1023*5000, got, "raw %d", raw)
	}
}

func TestMeasureVoltage_Averages(t *testing.T) {
	in := &sequence{values: []uint16{100, 200, 300, 400}}
	s := NewSampler(in, clock.NewFake(time.Unix(0, 0)))

	got := s.MeasureVoltage(4, 0)
	assert.InDelta(t, 250.0/1023*5000, got, 1e-3)
	assert.Equal(t, 4, in.reads)
}

func TestMeasureVoltage_Extremes(t *testing.T) {
	tests := []struct {
		name string
		raw  uint16
		want float32
	}{
		{"all zero", 0, 0},
		{"all max", ADCMax, SupplyMV},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSampler(&sequence{values: []uint16{tt.raw}}, clock.NewFake(time.Unix(0, 0)))
			assert.InDelta(t, tt.want, s.MeasureVoltage(DefaultCount, DefaultDelay), 1e-3)
		})
	}
}

func TestMeasureVoltage_BlocksForDelay(t *testing.T) {
	clk := clock.NewFake(time.Unix(0, 0))
	in := &sequence{values: []uint16{500}}
	s := NewSampler(in, clk)

	s.MeasureVoltage(DefaultCount, DefaultDelay)

	assert.Equal(t, DefaultCount, in.reads)
	assert.Equal(t, time.Duration(DefaultCount)*DefaultDelay, clk.Slept())
}

func TestMeasureVoltage_CountBelowOne(t *testing.T) {
	in := &sequence{values: []uint16{1023}}
	s := NewSampler(in, clock.NewFake(time.Unix(0, 0)))

	got := s.MeasureVoltage(0, 0)

	assert.Equal(t, 1, in.reads)
	assert.Equal(t, SupplyMV, got)
}

func TestMeasureVoltage_NoOverflow(t *testing.T) {
	in := &sequence{values: []uint16{ADCMax}}
	s := NewSampler(in, clock.NewFake(time.Unix(0, 0)))

	got := s.MeasureVoltage(65535, 0)
	assert.InDelta(t, SupplyMV, got, 1e-2)
}

func TestMeasureVoltage_NoOverflowBeyondUint32(t *testing.T) {
	// 5e6 reads of 1023 exceed the range of a 32 bit sum.
	in := &sequence{values: []uint16{ADCMax}}
	s := NewSampler(in, clock.NewFake(time.Unix(0, 0)))

	got := s.MeasureVoltage(5_000_000, 0)
	assert.InDelta(t, SupplyMV, got, 1e-2)
	assert.Equal(t, 5_000_000, in.reads)
}
