// Copyright 2024 The Epaper Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package epd4in26

import "image"

// Payloads for the displayUpdateControl2 command. The full and fast
// sequences run a waveform written through writeLutRegister, so they must
// not set displayUpdateLoadLUTFromOTP; the partial sequence uses the OTP
// waveform with a fresh temperature load.
const (
	updateSequenceFull = displayUpdateEnableAnalog | displayUpdateEnableClock |
		displayUpdateDisplay | displayUpdateDisableAnalog | displayUpdateDisableClock

	updateSequenceFast = updateSequenceFull

	updateSequencePartial = updateSequenceFull | displayUpdateMode2 |
		displayUpdateLoadLUTFromOTP | displayUpdateLoadTemperature
)

// Partial writes beyond this size are streamed row by row instead of being
// copied into one contiguous block first.
const maxPartialChunk = 16384

type controller interface {
	sendCommand(byte)
	sendData([]byte)
	sendByte(byte)
	readData([]byte)
	waitUntilIdle()
}

func initDisplay(ctrl controller, opts *Opts) {
	ctrl.waitUntilIdle()
	ctrl.sendCommand(swReset)
	ctrl.waitUntilIdle()

	ctrl.sendCommand(tempSensorSelect)
	ctrl.sendByte(0x80) // internal sensor

	ctrl.sendCommand(boosterSoftStartControl)
	ctrl.sendData([]byte{0xAE, 0xC7, 0xC3, 0xC0, 0x80})

	ctrl.sendCommand(driverOutputControl)
	ctrl.sendData([]byte{byte((opts.Height - 1) % 256), byte((opts.Height - 1) / 256), 0x02})

	ctrl.sendCommand(borderWaveformControl)
	ctrl.sendByte(0x01)

	ctrl.sendCommand(dataEntryModeSetting)
	ctrl.sendByte(dataEntryXIncYDec)

	// The gate axis runs backwards relative to the frame layout, so the full
	// window is programmed top row last.
	setWindow(ctrl, 0, opts.Height-1, opts.Width-1, 0)
	setCursor(ctrl, 0, 0)

	ctrl.waitUntilIdle()
}

// initFastTiming overrides the temperature register so the controller uses
// the hot-bracket OTP timing for subsequent loads.
func initFastTiming(ctrl controller) {
	ctrl.sendCommand(tempSensorRegWrite)
	ctrl.sendByte(0x5A)

	ctrl.sendCommand(displayUpdateControl2)
	ctrl.sendByte(0x91)
	ctrl.sendCommand(masterActivation)

	ctrl.waitUntilIdle()
}

// activate triggers the display update sequence previously configured in
// RAM and waveform registers.
func activate(ctrl controller, sequence byte) {
	ctrl.sendCommand(displayUpdateControl2)
	ctrl.sendByte(sequence)
	ctrl.sendCommand(masterActivation)
	ctrl.waitUntilIdle()
}

// setWindow sets the RAM address window. Y may be given in descending order
// when the data entry mode decrements the gate counter.
func setWindow(ctrl controller, xStart, yStart, xEnd, yEnd int) {
	ctrl.sendCommand(setRAMXAddressStartEndPosition)
	ctrl.sendData([]byte{
		byte(xStart & 0xFF), byte((xStart >> 8) & 0x03),
		byte(xEnd & 0xFF), byte((xEnd >> 8) & 0x03),
	})

	ctrl.sendCommand(setRAMYAddressStartEndPosition)
	ctrl.sendData([]byte{
		byte(yStart & 0xFF), byte((yStart >> 8) & 0x03),
		byte(yEnd & 0xFF), byte((yEnd >> 8) & 0x03),
	})
}

// setCursor positions the RAM write cursor. x must be a multiple of 8 or
// the low three bits are ignored by the controller.
func setCursor(ctrl controller, x, y int) {
	ctrl.sendCommand(setRAMXAddressCounter)
	ctrl.sendData([]byte{byte(x & 0xFF), byte((x >> 8) & 0x03)})

	ctrl.sendCommand(setRAMYAddressCounter)
	ctrl.sendData([]byte{byte(y & 0xFF), byte((y >> 8) & 0x03)})
}

// writeBothPlanes uploads the frame to the current-image plane and the
// previous-image plane. Skipping the second write would leave the partial
// comparison baseline stale and corrupt later partial refreshes.
func writeBothPlanes(ctrl controller, pix []byte) {
	ctrl.sendCommand(writeRAMBW)
	ctrl.sendData(pix)

	ctrl.sendCommand(writeRAMRed)
	ctrl.sendData(pix)
}

// partialRepaint refreshes the window r of the frame. r is in frame
// coordinates (origin top-left); the gate axis of the partial window is
// addressed from the opposite edge, so the Y range is reversed and
// programmed in descending order.
func partialRepaint(ctrl controller, opts *Opts, pix []byte, stride int, r image.Rectangle) {
	r = alignX8(r)

	yRev := opts.Height - r.Max.Y // bottom edge, reversed axis

	ctrl.sendCommand(tempSensorSelect)
	ctrl.sendByte(0x80)

	ctrl.sendCommand(borderWaveformControl)
	ctrl.sendByte(0x80)

	ctrl.sendCommand(dataEntryModeSetting)
	ctrl.sendByte(dataEntryXIncYDec)

	setWindow(ctrl, r.Min.X, yRev+r.Dy()-1, r.Max.X-1, yRev)
	setCursor(ctrl, r.Min.X, yRev+r.Dy()-1)

	ctrl.sendCommand(writeRAMBW)
	streamRows(ctrl, pix, stride, r)

	activate(ctrl, updateSequencePartial)
}

// streamRows sends the bytes of the window r from the full frame. A window
// spanning whole rows is a single contiguous slice; narrow windows are
// gathered into one block unless the block would be large, in which case the
// rows go out one at a time.
func streamRows(ctrl controller, pix []byte, stride int, r image.Rectangle) {
	xBytes := r.Min.X / 8
	wBytes := r.Dx() / 8

	if wBytes == stride {
		ctrl.sendData(pix[r.Min.Y*stride : r.Max.Y*stride])
		return
	}

	if r.Dy()*wBytes <= maxPartialChunk {
		block := make([]byte, 0, r.Dy()*wBytes)
		for y := r.Min.Y; y < r.Max.Y; y++ {
			off := y*stride + xBytes
			block = append(block, pix[off:off+wBytes]...)
		}
		ctrl.sendData(block)
		return
	}

	for y := r.Min.Y; y < r.Max.Y; y++ {
		off := y*stride + xBytes
		ctrl.sendData(pix[off : off+wBytes])
	}
}

// alignX8 widens the X edges of r to byte boundaries, keeping the requested
// end column covered.
func alignX8(r image.Rectangle) image.Rectangle {
	r.Min.X &^= 7
	r.Max.X = (r.Max.X + 7) &^ 7
	return r
}
