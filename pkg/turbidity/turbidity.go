// Package turbidity converts sensor voltage into nephelometric turbidity
// units (NTU).
package turbidity

import "github.com/chewxy/math32"

const (
	// ReferenceMV is the sensor output in clear water (0 NTU), in millivolts.
	ReferenceMV float32 = 3600.0
	// MaxNTU is the upper end of the sensor range.
	MaxNTU float32 = 1000.0

	// Ratio band around the reference treated as clear water.
	clearBandLow  float32 = 0.98
	clearBandHigh float32 = 1.0

	// Bound for the percentage before integer conversion. Anything this far
	// outside [0, 100] is clamped to the range ends anyway.
	percentLimit float32 = 1e6
)

// ToTurbidity maps a sensor voltage in millivolts to NTU.
//
// Voltages between 98% and 100% of ReferenceMV read as exactly 0. Otherwise
// the voltage, as an integer percentage of ReferenceMV, is mapped linearly
// from [0, 100] onto [1000, 0]. The percentage is not limited to [0, 100]
// first, so values outside it extrapolate and only the final result is
// clamped to [0, MaxNTU].
func ToTurbidity(voltage float32) float32 {
	if math32.IsNaN(voltage) {
		return MaxNTU
	}

	f := voltage / ReferenceMV
	var ntu float32
	if f >= clearBandLow && f <= clearBandHigh {
		ntu = 0
	} else {
		percent := math32.Max(-percentLimit, math32.Min(percentLimit, math32.Trunc(f*100)))
		ntu = float32(mapRange(int64(percent), 0, 100, int64(MaxNTU), 0))
	}

	return math32.Max(0, math32.Min(MaxNTU, ntu))
}

// mapRange re-maps x from [inMin, inMax] to [outMin, outMax] using integer
// arithmetic. Division truncates toward zero and x is not constrained.
func mapRange(x, inMin, inMax, outMin, outMax int64) int64 {
	return (x-inMin)*(outMax-outMin)/(inMax-inMin) + outMin
}
