// Copyright 2024 The Epaper Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package framebuf implements the packed 1bpp frame buffer shared between the
// renderer and the panel refresh path, together with dirty-region tracking
// and the logical-to-physical coordinate transform.
package framebuf

import (
	"image"
	"image/color"

	"periph.io/x/devices/v3/ssd1306/image1bit"
)

// Buffer is a packed 1 bit per pixel image in the panel's native RAM layout:
// rows of ceil(width/8) bytes, most significant bit first, bit set meaning
// white. It implements image.Image and draw.Image so standard drawing and
// font rendering compose directly.
type Buffer struct {
	w, h   int
	stride int
	pix    []byte
}

// New allocates a buffer for the given physical dimensions, initialized to
// all-white.
func New(w, h int) *Buffer {
	b := &Buffer{
		w:      w,
		h:      h,
		stride: (w + 7) / 8,
	}
	b.pix = make([]byte, b.stride*h)
	b.Fill(true)
	return b
}

// Stride returns the number of bytes per row.
func (b *Buffer) Stride() int {
	return b.stride
}

// Bytes returns the underlying storage. The slice aliases the buffer; the
// caller must hold whatever lock protects the buffer while using it.
func (b *Buffer) Bytes() []byte {
	return b.pix
}

// Clone returns an independent copy of the buffer.
func (b *Buffer) Clone() *Buffer {
	c := &Buffer{
		w:      b.w,
		h:      b.h,
		stride: b.stride,
		pix:    make([]byte, len(b.pix)),
	}
	copy(c.pix, b.pix)
	return c
}

// Row returns the byte slice backing row y.
func (b *Buffer) Row(y int) []byte {
	return b.pix[y*b.stride : (y+1)*b.stride]
}

// Fill sets every pixel to white (true) or black (false).
func (b *Buffer) Fill(white bool) {
	v := byte(0x00)
	if white {
		v = 0xFF
	}
	for i := range b.pix {
		b.pix[i] = v
	}
}

// SetBit sets the pixel at (x, y) to white (true) or black (false).
// Out-of-bounds writes are ignored.
func (b *Buffer) SetBit(x, y int, white bool) {
	if x < 0 || x >= b.w || y < 0 || y >= b.h {
		return
	}
	mask := byte(0x80) >> uint(x&7)
	idx := y*b.stride + x/8
	if white {
		b.pix[idx] |= mask
	} else {
		b.pix[idx] &^= mask
	}
}

// BitAt reports whether the pixel at (x, y) is white.
func (b *Buffer) BitAt(x, y int) bool {
	if x < 0 || x >= b.w || y < 0 || y >= b.h {
		return false
	}
	return b.pix[y*b.stride+x/8]&(0x80>>uint(x&7)) != 0
}

// ColorModel implements image.Image.
func (b *Buffer) ColorModel() color.Model {
	return image1bit.BitModel
}

// Bounds implements image.Image.
func (b *Buffer) Bounds() image.Rectangle {
	return image.Rect(0, 0, b.w, b.h)
}

// At implements image.Image.
func (b *Buffer) At(x, y int) color.Color {
	return image1bit.Bit(b.BitAt(x, y))
}

// Set implements draw.Image.
func (b *Buffer) Set(x, y int, c color.Color) {
	b.SetBit(x, y, bool(image1bit.BitModel.Convert(c).(image1bit.Bit)))
}
