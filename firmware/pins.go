//go:build tinygo

package main

import "machine"

const (
	// Turbidity sensor analog output.
	PIN_SENSOR = machine.ADC0

	// Alert output, driven high while an alert is active.
	PIN_ALERT = machine.D8

	// I2C backpack of the 1602 LCD.
	PIN_SDA  = machine.SDA_PIN
	PIN_SCL  = machine.SCL_PIN
	LCD_ADDR = 0x27

	// ADC configuration. Reads are reduced to 10 bits to match the sensor
	// calibration.
	ADC_REFERENCE_MV = 5000
	ADC_SHIFT        = 6
)
