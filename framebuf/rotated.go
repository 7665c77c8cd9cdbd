// Copyright 2024 The Epaper Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package framebuf

import (
	"image"
	"image/color"
)

// Rotated presents a buffer in logical coordinates. Drawing code (text
// shaping, image composition) works in the rotated plane; pixels land in
// the buffer's physical layout.
type Rotated struct {
	buf *Buffer
	rot Rotation
}

// NewRotated wraps buf in the given rotation.
func NewRotated(buf *Buffer, rot Rotation) *Rotated {
	return &Rotated{buf: buf, rot: rot}
}

func (r *Rotated) phys(x, y int) (int, int) {
	if r.rot == Rotate270 {
		return y, r.buf.h - x - 1
	}
	return x, y
}

// Bounds implements image.Image in logical coordinates.
func (r *Rotated) Bounds() image.Rectangle {
	if r.rot == Rotate270 {
		return image.Rect(0, 0, r.buf.h, r.buf.w)
	}
	return r.buf.Bounds()
}

// ColorModel implements image.Image.
func (r *Rotated) ColorModel() color.Model {
	return r.buf.ColorModel()
}

// At implements image.Image.
func (r *Rotated) At(x, y int) color.Color {
	px, py := r.phys(x, y)
	return r.buf.At(px, py)
}

// Set implements draw.Image.
func (r *Rotated) Set(x, y int, c color.Color) {
	px, py := r.phys(x, y)
	r.buf.Set(px, py, c)
}
