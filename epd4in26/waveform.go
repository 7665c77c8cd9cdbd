// Copyright 2024 The Epaper Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package epd4in26

// Waveform tables for the GDEQ0426T82 panel, one per temperature bracket
// plus a dedicated fast table. Each table holds 105 LUT bytes followed by
// the gate voltage, the three source voltages and the VCOM setting.
//
// The voltage timings vary with panel temperature; driving a cold panel
// with a warm waveform leaves ghosting, the reverse risks incomplete
// particle movement. Values come from the panel vendor and are not meant to
// be edited.

const (
	lutSize     = 105
	waveformLen = 112

	offsetGateVoltage   = 105
	offsetSourceVoltage = 106
	offsetVCOM          = 109
)

// 0..5 degrees C.
var lut0to5 = [waveformLen]byte{
	0xAA, 0x48, 0x55, 0x44, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x55, 0x48, 0xAA, 0x88, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	0xAA, 0x48, 0x55, 0x44, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x55, 0x48, 0xAA, 0x88, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x1E, 0x23, 0x21, 0x23, 0x00,
	0x28, 0x01, 0x28, 0x01, 0x03,
	0x1B, 0x19, 0x05, 0x03, 0x01,
	0x05, 0x00, 0x08, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00, 0x00,
	0x22, 0x22, 0x22, 0x22, 0x22,
	0x17, 0x41, 0xA8, 0x32, 0x48,
	0x00, 0x00,
}

// 5..10 degrees C.
var lut5to10 = [waveformLen]byte{
	0xAA, 0x48, 0x55, 0x44, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x55, 0x48, 0xAA, 0x88, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	0xAA, 0x48, 0x55, 0x44, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x55, 0x48, 0xAA, 0x88, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x1E, 0x23, 0x05, 0x02, 0x00,
	0x2B, 0x01, 0x2B, 0x01, 0x02,
	0x1B, 0x19, 0x05, 0x03, 0x00,
	0x05, 0x00, 0x07, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00, 0x00,
	0x22, 0x22, 0x22, 0x22, 0x22,
	0x17, 0x41, 0xA8, 0x32, 0x48,
	0x00, 0x00,
}

// 10..15 degrees C.
var lut10to15 = [waveformLen]byte{
	0xAA, 0x48, 0x55, 0x44, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x55, 0x48, 0xAA, 0x88, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	0xAA, 0x48, 0x55, 0x44, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x55, 0x48, 0xAA, 0x88, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x14, 0x1A, 0x0B, 0x06, 0x00,
	0x21, 0x01, 0x21, 0x01, 0x02,
	0x18, 0x16, 0x05, 0x03, 0x00,
	0x04, 0x00, 0x05, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00, 0x00,
	0x22, 0x22, 0x22, 0x22, 0x22,
	0x17, 0x41, 0xA8, 0x32, 0x48,
	0x00, 0x00,
}

// 15..20 degrees C.
var lut15to20 = [waveformLen]byte{
	0xA2, 0x48, 0x51, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x54, 0x48, 0xA8, 0x80, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	0xA2, 0x48, 0x51, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x54, 0x48, 0xA8, 0x80, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x0D, 0x0D, 0x08, 0x05, 0x00,
	0x0F, 0x01, 0x0F, 0x01, 0x04,
	0x0D, 0x0D, 0x05, 0x05, 0x00,
	0x03, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00, 0x01,
	0x22, 0x22, 0x22, 0x22, 0x22,
	0x17, 0x41, 0xA8, 0x32, 0x48,
	0x00, 0x00,
}

// 20..80 degrees C, also the catch-all for readings above the brackets.
var lut20to80 = [waveformLen]byte{
	0xA0, 0x48, 0x54, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x50, 0x48, 0xA8, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	0xA0, 0x48, 0x54, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x50, 0x48, 0xA8, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x1A, 0x14, 0x00, 0x00, 0x00,
	0x0D, 0x01, 0x0D, 0x01, 0x02,
	0x0A, 0x0A, 0x03, 0x00, 0x01,
	0x00, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00, 0x01,
	0x22, 0x22, 0x22, 0x22, 0x22,
	0x17, 0x41, 0xA8, 0x32, 0x48,
	0x00, 0x00,
}

// Fast refresh, independent of temperature.
var lutFast = [waveformLen]byte{
	0xA8, 0x00, 0x55, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x54, 0x00, 0xAA, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	0xA8, 0x00, 0x55, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x54, 0x00, 0xAA, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x0C, 0x0D, 0x0B, 0x01, 0x00,
	0x00, 0x00, 0x00, 0x00, 0x00,
	0x0A, 0x0A, 0x05, 0x0B, 0x00,
	0x00, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x01, 0x01,
	0x22, 0x22, 0x22, 0x22, 0x22,
	0x17, 0x41, 0xA8, 0x32, 0x30,
	0x00, 0x00,
}

// lutForTemperature picks the waveform bracket for a reading in degrees
// Celsius. Brackets are inclusive at their upper bound, the top bracket
// catches everything warmer.
func lutForTemperature(temp int) []byte {
	switch {
	case temp <= 5:
		return lut0to5[:]
	case temp <= 10:
		return lut5to10[:]
	case temp <= 15:
		return lut10to15[:]
	case temp <= 20:
		return lut15to20[:]
	default:
		return lut20to80[:]
	}
}

// readTemperature triggers the internal sensor and clocks out the reading:
// a 12-bit signed value in 1/16 degree units.
func readTemperature(ctrl controller) int {
	ctrl.sendCommand(tempSensorSelect)
	ctrl.sendByte(0x80)

	ctrl.sendCommand(displayUpdateControl2)
	ctrl.sendByte(0xB1) // load temperature, no display
	ctrl.sendCommand(masterActivation)
	ctrl.waitUntilIdle()

	ctrl.sendCommand(tempSensorRegRead)
	raw := make([]byte, 2)
	ctrl.readData(raw)

	v := int16(uint16(raw[0])<<8 | uint16(raw[1]))
	return int(v>>4) / 16
}

// writeLUT programs a waveform table: the LUT proper, then the gate, source
// and VCOM voltage registers from the trailing bytes.
func writeLUT(ctrl controller, waveform []byte) {
	ctrl.sendCommand(writeLutRegister)
	ctrl.sendData(waveform[:lutSize])
	ctrl.waitUntilIdle()

	ctrl.sendCommand(gateDrivingVoltageControl)
	ctrl.sendByte(waveform[offsetGateVoltage])

	ctrl.sendCommand(sourceDrivingVoltageControl)
	ctrl.sendData(waveform[offsetSourceVoltage : offsetSourceVoltage+3])

	ctrl.sendCommand(vcomRegisterWrite)
	ctrl.sendByte(waveform[offsetVCOM])
}
