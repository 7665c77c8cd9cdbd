// Copyright 2024 The Epaper Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package framebuf

import "image"

// Rotation describes how logical drawing coordinates map onto the panel's
// physical RAM layout.
type Rotation int

const (
	// Rotate0 maps logical coordinates directly onto physical ones.
	Rotate0 Rotation = iota
	// Rotate270 rotates the logical plane 270 degrees: a portrait UI on a
	// panel whose RAM rows run landscape.
	Rotate270
)

// LogicalToPhysical converts a rectangle in logical (rotated) coordinates to
// physical panel coordinates. physW and physH are the panel's native
// dimensions; for Rotate270 the logical plane is physH wide and physW tall.
func LogicalToPhysical(r image.Rectangle, rot Rotation, physW, physH int) image.Rectangle {
	switch rot {
	case Rotate270:
		// physX = logY, physY = physH - logX - 1. The X endpoints swap roles
		// so the result stays well-formed.
		return image.Rect(r.Min.Y, physH-r.Max.X, r.Max.Y, physH-r.Min.X)
	default:
		return r
	}
}

// AlignX8 widens r so that Min.X falls on a byte boundary and Max.X covers
// whole bytes. Panel RAM is addressed in 8-pixel columns, so partial windows
// must start and end on byte edges.
func AlignX8(r image.Rectangle) image.Rectangle {
	r.Min.X &^= 7
	r.Max.X = (r.Max.X + 7) &^ 7
	return r
}
