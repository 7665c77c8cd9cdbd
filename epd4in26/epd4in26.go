// Copyright 2024 The Epaper Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package epd4in26

import (
	"errors"
	"fmt"
	"image"
	"time"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/host/v3/rpi"
)

// Commands
const (
	driverOutputControl            byte = 0x01
	gateDrivingVoltageControl      byte = 0x03
	sourceDrivingVoltageControl    byte = 0x04
	boosterSoftStartControl        byte = 0x0C
	deepSleepMode                  byte = 0x10
	dataEntryModeSetting           byte = 0x11
	swReset                        byte = 0x12
	tempSensorSelect               byte = 0x18
	tempSensorRegWrite             byte = 0x1A
	tempSensorRegRead              byte = 0x1B
	masterActivation               byte = 0x20
	displayUpdateControl1          byte = 0x21
	displayUpdateControl2          byte = 0x22
	writeRAMBW                     byte = 0x24
	writeRAMRed                    byte = 0x26
	vcomRegisterWrite              byte = 0x2C
	writeLutRegister               byte = 0x32
	borderWaveformControl          byte = 0x3C
	setRAMXAddressStartEndPosition byte = 0x44
	setRAMYAddressStartEndPosition byte = 0x45
	autoWriteRedRAMRegPattern      byte = 0x46
	autoWriteBWRAMRegPattern       byte = 0x47
	setRAMXAddressCounter          byte = 0x4E
	setRAMYAddressCounter          byte = 0x4F
)

// Flags for the displayUpdateControl2 command.
const (
	displayUpdateDisableClock byte = 1 << iota
	displayUpdateDisableAnalog
	displayUpdateDisplay
	displayUpdateMode2
	displayUpdateLoadLUTFromOTP
	displayUpdateLoadTemperature
	displayUpdateEnableClock
	displayUpdateEnableAnalog
)

// Data entry modes: the two address-counter directions the driver uses. X
// always increments; partial windows walk the Y axis backwards.
const (
	dataEntryXIncYInc byte = 0x03
	dataEntryXIncYDec byte = 0x01
)

// ErrBusyTimeout is reported when the busy line does not settle within the
// ceiling. The triggered operation has still been issued; the panel may
// simply be slow (cold panel, large window) and the caller may retry.
var ErrBusyTimeout = errors.New("epd4in26: busy-wait timed out")

const (
	busyPollInterval = 10 * time.Millisecond
	busyTimeout      = 5 * time.Second
)

// Opts holds the panel geometry in controller RAM orientation: Width is the
// source (X) axis, Height the gate (Y) axis.
type Opts struct {
	Width  int
	Height int
}

// EPD4in26 contains the display configuration for the 4.26 inch panel. The
// controller RAM is landscape: 100 bytes per row, 480 rows. A portrait UI
// draws through a rotated logical plane.
var EPD4in26 = Opts{
	Width:  800,
	Height: 480,
}

// Dev is a handler for the e-paper display.
type Dev struct {
	c conn.Conn

	dc   gpio.PinOut
	cs   gpio.PinOut
	rst  gpio.PinOut
	busy gpio.PinIn

	opts *Opts
}

// New opens the display on the given SPI port.
func New(p spi.Port, dc, cs, rst gpio.PinOut, busy gpio.PinIn, opts *Opts) (*Dev, error) {
	c, err := p.Connect(4*physic.MegaHertz, spi.Mode0, 8)
	if err != nil {
		return nil, err
	}

	if err := busy.In(gpio.Float, gpio.FallingEdge); err != nil {
		return nil, err
	}

	d := &Dev{
		c:    c,
		dc:   dc,
		cs:   cs,
		rst:  rst,
		busy: busy,
		opts: opts,
	}
	return d, nil
}

// NewHat opens the display using the default Raspberry Pi HAT wiring.
func NewHat(p spi.Port, opts *Opts) (*Dev, error) {
	dc := rpi.P1_22
	cs := rpi.P1_24
	rst := rpi.P1_11
	busy := rpi.P1_18
	return New(p, dc, cs, rst, busy, opts)
}

// Bounds returns the panel dimensions in controller RAM orientation.
func (d *Dev) Bounds() image.Rectangle {
	return image.Rect(0, 0, d.opts.Width, d.opts.Height)
}

// Stride returns the number of bytes per RAM row.
func (d *Dev) Stride() int {
	return (d.opts.Width + 7) / 8
}

// Reset pulses the hardware reset line. The controller needs at least 2ms
// low and settles within 10ms after release.
func (d *Dev) Reset() error {
	eh := errorHandler{d: *d}

	eh.rstOut(gpio.High)
	time.Sleep(10 * time.Millisecond)
	eh.rstOut(gpio.Low)
	time.Sleep(10 * time.Millisecond)
	eh.rstOut(gpio.High)
	time.Sleep(10 * time.Millisecond)

	return eh.err
}

// Init performs a hardware reset and configures the controller for full
// refreshes. It must be called before any repaint, and again after Sleep.
func (d *Dev) Init() error {
	if err := d.Reset(); err != nil {
		return err
	}

	eh := errorHandler{d: *d}
	initDisplay(&eh, d.opts)
	return eh.result()
}

// InitFast configures the controller like Init and additionally overrides
// the temperature register so the fast waveform timing applies.
func (d *Dev) InitFast() error {
	if err := d.Reset(); err != nil {
		return err
	}

	eh := errorHandler{d: *d}
	initDisplay(&eh, d.opts)
	initFastTiming(&eh)
	return eh.result()
}

// ReadTemperature triggers the controller's internal temperature sensor and
// returns the reading in degrees Celsius.
func (d *Dev) ReadTemperature() (int, error) {
	eh := errorHandler{d: *d}
	t := readTemperature(&eh)
	return t, eh.result()
}

// FullRepaint writes the frame to both controller RAM planes and triggers
// the slowest, cleanest update sequence with a temperature-selected
// waveform. pix must hold Stride()*Height packed bytes, bit set = white.
func (d *Dev) FullRepaint(pix []byte) error {
	if err := d.checkFrame(pix); err != nil {
		return err
	}

	eh := errorHandler{d: *d}
	writeBothPlanes(&eh, pix)
	writeLUT(&eh, lutForTemperature(readTemperature(&eh)))
	activate(&eh, updateSequenceFull)
	return eh.result()
}

// FastRepaint writes the frame to both controller RAM planes and triggers
// the coarser fast update sequence. The dual-plane write re-baselines the
// previous-image plane, so the next partial refresh diffs against current
// content.
func (d *Dev) FastRepaint(pix []byte) error {
	if err := d.checkFrame(pix); err != nil {
		return err
	}

	eh := errorHandler{d: *d}
	writeBothPlanes(&eh, pix)
	writeLUT(&eh, lutFast[:])
	activate(&eh, updateSequenceFast)
	return eh.result()
}

// PartialRepaint refreshes only the given window of the frame. The window's
// X edges are widened to byte boundaries; the Y coordinates are translated
// to the panel's reversed partial addressing. pix is the full frame, not a
// cropped copy.
func (d *Dev) PartialRepaint(pix []byte, r image.Rectangle) error {
	if err := d.checkFrame(pix); err != nil {
		return err
	}
	r = r.Intersect(d.Bounds())
	if r.Empty() {
		return nil
	}

	if err := d.Reset(); err != nil {
		return err
	}

	eh := errorHandler{d: *d}
	partialRepaint(&eh, d.opts, pix, d.Stride(), r)
	return eh.result()
}

// Clear paints the whole panel white (true) or black (false) with a full
// refresh.
func (d *Dev) Clear(white bool) error {
	v := byte(0x00)
	if white {
		v = 0xFF
	}
	pix := make([]byte, d.Stride()*d.opts.Height)
	for i := range pix {
		pix[i] = v
	}
	return d.FullRepaint(pix)
}

// Sleep puts the controller into deep sleep. RAM content is lost; call Init
// to wake it up.
func (d *Dev) Sleep() error {
	eh := errorHandler{d: *d}

	eh.sendCommand(deepSleepMode)
	eh.sendData([]byte{0x01})

	return eh.err
}

// String returns a string containing configuration information.
func (d *Dev) String() string {
	return fmt.Sprintf("epd4in26.Dev{%s, %s, Width: %d, Height: %d}", d.c, d.dc, d.opts.Width, d.opts.Height)
}

func (d *Dev) checkFrame(pix []byte) error {
	if want := d.Stride() * d.opts.Height; len(pix) != want {
		return fmt.Errorf("epd4in26: frame is %d bytes, want %d", len(pix), want)
	}
	return nil
}
