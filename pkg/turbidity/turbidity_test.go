package turbidity

import (
	"testing"

	"github.com/chewxy/math32"
	"github.com/stretchr/testify/assert"
)

func TestToTurbidity(t *testing.T) {
	tests := []struct {
		name    string
		voltage float32
		want    float32
	}{
		{"no light reaches detector", 0, 1000},
		{"reference voltage", ReferenceMV, 0},
		{"lower edge of clear band", 0.98 * ReferenceMV, 0},
		{"inside clear band", 0.99 * ReferenceMV, 0},
		{"half of reference", 1800, 500},
		{"just below clear band", 0.975 * ReferenceMV, 30},
		{"quarter of reference", 900, 750},
		{"supply rail", 5000, 0},
		{"slightly above reference", 3700, 0},
		{"negative voltage", -100, 1000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ToTurbidity(tt.voltage))
		})
	}
}

func TestToTurbidity_ClearBand(t *testing.T) {
	for v := 0.98 * ReferenceMV; v <= ReferenceMV; v += 1 {
		assert.Equal(t, float32(0), ToTurbidity(v), "voltage %v", v)
	}
	assert.Equal(t, float32(0), ToTurbidity(ReferenceMV))
}

func TestToTurbidity_Clamped(t *testing.T) {
	for v := float32(-10000); v <= 20000; v += 7.5 {
		ntu := ToTurbidity(v)
		assert.GreaterOrEqual(t, ntu, float32(0), "voltage %v", v)
		assert.LessOrEqual(t, ntu, MaxNTU, "voltage %v", v)
	}

	assert.Equal(t, float32(0), ToTurbidity(math32.Inf(1)))
	assert.Equal(t, MaxNTU, ToTurbidity(math32.Inf(-1)))
	assert.Equal(t, MaxNTU, ToTurbidity(math32.NaN()))
}

func TestToTurbidity_Monotonic(t *testing.T) {
	prev := ToTurbidity(0)
	for v := float32(1); v < 0.98*ReferenceMV; v += 3 {
		ntu := ToTurbidity(v)
		assert.LessOrEqual(t, ntu, prev, "voltage %v", v)
		prev = ntu
	}
}

func TestMapRange(t *testing.T) {
	tests := []struct {
		x, want int64
	}{
		{0, 1000},
		{100, 0},
		{50, 500},
		{138, -380},
		{-10, 1100},
		{97, 30},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, mapRange(tt.x, 0, 100, 1000, 0), "x=%d", tt.x)
	}
}
