// Copyright 2024 The Epaper Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package liveview streams the frame buffer to a browser so screens can be
// developed without panel hardware.
//
// Display accepts the same repaint operations as the hardware driver and
// doubles as an http.Handler: a connecting client receives the current
// frame right away and a fresh image after every repaint, delivered over a
// single multipart/x-mixed-replace response (the MJPEG technique IP cameras
// use, https://en.wikipedia.org/wiki/Motion_JPEG). Frames default to PNG,
// which compresses the panel's two-tone content well; JPEG is available
// through Options.Format or the "format" URL parameter.
package liveview

import (
	"fmt"
	"image"
	"net/http"
	"sync"
)

// Options for liveview panels.
type Options struct {
	// Width and height of the simulated panel in RAM orientation.
	Width, Height int

	// Format specifies the image format to send to clients.
	Format ImageFormat
}

// Display is a fake panel. Repaints update an in-memory grayscale image and
// wake up all streaming clients.
type Display struct {
	defaultFormat ImageFormat
	stride        int

	mu       sync.Mutex
	img      *image.Gray
	clients  map[*client]struct{}
	snapshot map[imageConfig][]byte
}

var _ http.Handler = (*Display)(nil)

// New creates a new liveview panel instance.
func New(opt *Options) *Display {
	d := &Display{
		defaultFormat: opt.Format,
		stride:        (opt.Width + 7) / 8,
		img:           image.NewGray(image.Rect(0, 0, opt.Width, opt.Height)),
		clients:       map[*client]struct{}{},
		snapshot:      map[imageConfig][]byte{},
	}
	d.fill(0xFF)
	return d
}

// String returns the name of the device.
func (d *Display) String() string {
	return "LiveView"
}

// Bounds returns the simulated panel dimensions.
func (d *Display) Bounds() image.Rectangle {
	return d.img.Bounds()
}

// Init resets the simulated panel to all-white.
func (d *Display) Init() error {
	d.mu.Lock()
	d.fill(0xFF)
	d.bufferChangedLocked()
	d.mu.Unlock()
	return nil
}

// FullRepaint replaces the whole panel content.
func (d *Display) FullRepaint(pix []byte) error {
	return d.repaint(pix, d.img.Bounds())
}

// FastRepaint replaces the whole panel content. The simulation has no
// waveform timing, so it is identical to FullRepaint.
func (d *Display) FastRepaint(pix []byte) error {
	return d.repaint(pix, d.img.Bounds())
}

// PartialRepaint updates only the window r from the full frame pix,
// mirroring what the real panel shows after a windowed RAM write.
func (d *Display) PartialRepaint(pix []byte, r image.Rectangle) error {
	return d.repaint(pix, r)
}

// Sleep terminates all running client requests asynchronously.
func (d *Display) Sleep() error {
	d.mu.Lock()
	d.terminateClientsLocked()
	d.mu.Unlock()
	return nil
}

func (d *Display) repaint(pix []byte, r image.Rectangle) error {
	bounds := d.img.Bounds()
	if want := d.stride * bounds.Dy(); len(pix) != want {
		return fmt.Errorf("liveview: frame is %d bytes, want %d", len(pix), want)
	}
	r = r.Intersect(bounds)

	d.mu.Lock()
	for y := r.Min.Y; y < r.Max.Y; y++ {
		row := pix[y*d.stride : (y+1)*d.stride]
		out := d.img.Pix[y*d.img.Stride : (y+1)*d.img.Stride]
		for x := r.Min.X; x < r.Max.X; x++ {
			v := uint8(0x00)
			if row[x/8]&(0x80>>uint(x&7)) != 0 {
				v = 0xFF
			}
			out[x] = v
		}
	}
	d.bufferChangedLocked()
	d.mu.Unlock()

	return nil
}

func (d *Display) fill(v uint8) {
	for i := range d.img.Pix {
		d.img.Pix[i] = v
	}
}
