// Copyright 2024 The Epaper Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package termview implements a fake e-paper panel that renders to a
// terminal (stdout) using ANSI color codes.
//
// Useful while you are waiting for your e-paper panel to come by mail, or
// to watch refreshes of a headless device over SSH.
package termview

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"io"
	"sync"

	"github.com/maruel/ansi256"
	"github.com/mattn/go-colorable"
)

// Opts represents the options available for this display.
type Opts struct {
	// Width and height of the simulated panel in RAM orientation.
	Width, Height int

	// Scale renders one character cell per Scale x 2*Scale pixel block so a
	// large panel fits a terminal. Zero or one renders one cell per 1x2
	// block.
	Scale int

	// Palette converts sampled gray levels to terminal colors.
	Palette *ansi256.Palette

	_ struct{}
}

// Dev is an e-paper panel emulator that outputs to the console. It
// implements the same repaint operations as the hardware driver, so the
// refresh scheduler can drive it as a drop-in panel.
type Dev struct {
	w       io.Writer
	opts    Opts
	stride  int
	palette ansi256.Palette

	mu     sync.Mutex
	pixels []byte
	buf    bytes.Buffer
}

// New returns a Dev that displays at the console.
//
// Permits local testing of screens and refresh behavior.
func New(opts *Opts) *Dev {
	p := opts.Palette
	if p == nil {
		p = ansi256.Default
	}
	o := *opts
	if o.Scale < 1 {
		o.Scale = 1
	}

	stride := (o.Width + 7) / 8
	d := &Dev{
		w:       colorable.NewColorableStdout(),
		opts:    o,
		stride:  stride,
		palette: *p,
		pixels:  make([]byte, stride*o.Height),
	}
	for i := range d.pixels {
		d.pixels[i] = 0xFF
	}
	return d
}

func (d *Dev) String() string {
	return "TermView"
}

// Bounds returns the simulated panel dimensions.
func (d *Dev) Bounds() image.Rectangle {
	return image.Rect(0, 0, d.opts.Width, d.opts.Height)
}

// Init paints the panel white.
func (d *Dev) Init() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	for i := range d.pixels {
		d.pixels[i] = 0xFF
	}
	return d.render()
}

// FullRepaint replaces the whole panel content and redraws the terminal.
func (d *Dev) FullRepaint(pix []byte) error {
	return d.repaint(pix, d.Bounds())
}

// FastRepaint replaces the whole panel content and redraws the terminal.
func (d *Dev) FastRepaint(pix []byte) error {
	return d.repaint(pix, d.Bounds())
}

// PartialRepaint copies only the window r from pix, like the windowed RAM
// write on the real panel, then redraws the terminal.
func (d *Dev) PartialRepaint(pix []byte, r image.Rectangle) error {
	return d.repaint(pix, r)
}

// Sleep resets the terminal attributes.
func (d *Dev) Sleep() error {
	_, err := d.w.Write([]byte("\n\033[0m"))
	return err
}

func (d *Dev) repaint(pix []byte, r image.Rectangle) error {
	if want := d.stride * d.opts.Height; len(pix) != want {
		return fmt.Errorf("termview: frame is %d bytes, want %d", len(pix), want)
	}
	r = r.Intersect(d.Bounds())

	d.mu.Lock()
	defer d.mu.Unlock()

	for y := r.Min.Y; y < r.Max.Y; y++ {
		src := pix[y*d.stride : (y+1)*d.stride]
		dst := d.pixels[y*d.stride : (y+1)*d.stride]
		for x := r.Min.X; x < r.Max.X; x++ {
			mask := byte(0x80) >> uint(x&7)
			if src[x/8]&mask != 0 {
				dst[x/8] |= mask
			} else {
				dst[x/8] &^= mask
			}
		}
	}
	return d.render()
}

func (d *Dev) bit(x, y int) bool {
	return d.pixels[y*d.stride+x/8]&(0x80>>uint(x&7)) != 0
}

// level averages the w x h pixel block at (x, y) to an 8-bit gray value.
func (d *Dev) level(x, y, w, h int) uint8 {
	set, total := 0, 0
	for dy := 0; dy < h && y+dy < d.opts.Height; dy++ {
		for dx := 0; dx < w && x+dx < d.opts.Width; dx++ {
			if d.bit(x+dx, y+dy) {
				set++
			}
			total++
		}
	}
	if total == 0 {
		return 0xFF
	}
	return uint8(255 * set / total)
}

// render redraws the whole frame, one colored block per sampled cell. This
// code is designed to minimize the amount of memory allocated per call.
func (d *Dev) render() error {
	s := d.opts.Scale

	d.buf.Reset()
	_, _ = d.buf.WriteString("\033[H\033[0m")
	for y := 0; y < d.opts.Height; y += 2 * s {
		for x := 0; x < d.opts.Width; x += s {
			g := d.level(x, y, s, 2*s)
			_, _ = io.WriteString(&d.buf, d.palette.Block(color.NRGBA{g, g, g, 255}))
		}
		_, _ = d.buf.WriteString("\033[0m\n")
	}
	_, err := d.buf.WriteTo(d.w)
	return err
}

var _ fmt.Stringer = &Dev{}
