package probe

import (
	"strconv"

	"github.com/itohio/goturbidity/pkg/display"
)

// Field labels of the report line.
const (
	VoltageLabel   = "Vôn"
	TurbidityLabel = "Độ đục"
)

// FormatReport renders the measurement line sent to the host, without line
// terminator: voltage in whole millivolts, turbidity with two decimals.
//
//	Vôn:3412,Độ đục:52.00
func FormatReport(voltage, ntu float32) string {
	return VoltageLabel + ":" + formatFixed(voltage, 0) + "," + TurbidityLabel + ":" + formatFixed(ntu, 2)
}

// FormatDisplay renders both LCD rows, each padded to the display width.
func FormatDisplay(voltage, ntu float32) [display.Rows]string {
	return [display.Rows]string{
		display.Pad("V: " + formatFixed(voltage/1000, 2) + " V"),
		display.Pad("NTU: " + formatFixed(ntu, 1)),
	}
}

func formatFixed(v float32, decimals int) string {
	return strconv.FormatFloat(float64(v), 'f', decimals, 32)
}
