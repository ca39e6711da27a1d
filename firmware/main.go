//go:build tinygo

//go:generate tinygo flash -target=arduino

package main

import (
	"context"
	"machine"
	"time"

	"tinygo.org/x/drivers/hd44780i2c"

	"github.com/itohio/goturbidity/pkg/display"
	"github.com/itohio/goturbidity/pkg/probe"
)

// sensor reduces the 16 bit ADC reading to the 10 bit scale the sampler
// expects.
type sensor struct {
	adc machine.ADC
}

func (s sensor) Read() uint16 {
	return s.adc.Get() >> ADC_SHIFT
}

// lcd adapts the HD44780 I2C driver to display.Display.
type lcd struct {
	dev *hd44780i2c.Device
}

func (l lcd) Clear() {
	l.dev.ClearDisplay()
}

func (l lcd) SetCursor(col, row uint8) {
	l.dev.SetCursor(col, row)
}

func (l lcd) Print(text string) {
	l.dev.Print([]byte(text))
}

var _ display.Display = lcd{}

func main() {
	machine.InitADC()
	adc := machine.ADC{Pin: PIN_SENSOR}
	adc.Configure(machine.ADCConfig{Reference: ADC_REFERENCE_MV})

	PIN_ALERT.Configure(machine.PinConfig{Mode: machine.PinOutput})

	uart := machine.UART0
	uart.Configure(machine.UARTConfig{BaudRate: probe.BaudRate})

	err := machine.I2C0.Configure(machine.I2CConfig{
		SDA: PIN_SDA,
		SCL: PIN_SCL,
	})
	if err != nil {
		for {
			println("could not configure I2C", err.Error())
			time.Sleep(time.Second)
		}
	}

	dev := hd44780i2c.New(machine.I2C0, LCD_ADDR)
	dev.Configure(hd44780i2c.Config{
		Width:  display.Cols,
		Height: display.Rows,
	})
	dev.BacklightOn(true)

	loop := probe.New(probe.Hardware{
		Sensor:  sensor{adc: adc},
		Alert:   PIN_ALERT,
		Serial:  uart,
		Display: lcd{dev: &dev},
	})
	loop.Setup()
	loop.Run(context.Background())
}
