// Copyright 2024 The Epaper Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package framebuf

import (
	"image"
	"image/color"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestBufferNew(t *testing.T) {
	b := New(20, 4)

	if got, want := b.Stride(), 3; got != want {
		t.Errorf("Stride() = %d, want %d", got, want)
	}
	if got, want := len(b.Bytes()), 12; got != want {
		t.Errorf("len(Bytes()) = %d, want %d", got, want)
	}
	for i, v := range b.Bytes() {
		if v != 0xFF {
			t.Errorf("Bytes()[%d] = %#x, want 0xff", i, v)
		}
	}
	if diff := cmp.Diff(image.Rect(0, 0, 20, 4), b.Bounds()); diff != "" {
		t.Errorf("Bounds() difference (-want +got):\n%s", diff)
	}
}

func TestBufferSetBit(t *testing.T) {
	b := New(16, 2)
	b.Fill(false)

	b.SetBit(0, 0, true)
	b.SetBit(9, 1, true)
	b.SetBit(15, 1, true)

	// Out of bounds is a no-op.
	b.SetBit(-1, 0, true)
	b.SetBit(16, 0, true)
	b.SetBit(0, 2, true)

	want := []byte{0x80, 0x00, 0x00, 0x41}
	if diff := cmp.Diff(want, b.Bytes()); diff != "" {
		t.Errorf("Bytes() difference (-want +got):\n%s", diff)
	}

	if !b.BitAt(9, 1) {
		t.Errorf("BitAt(9, 1) = false, want true")
	}
	if b.BitAt(8, 1) {
		t.Errorf("BitAt(8, 1) = true, want false")
	}
	if b.BitAt(-1, 0) || b.BitAt(0, 5) {
		t.Errorf("out-of-bounds BitAt = true, want false")
	}
}

func TestBufferDrawImage(t *testing.T) {
	b := New(8, 1)
	b.Set(3, 0, color.Black)
	b.Set(4, 0, color.White)

	want := []byte{0xEF}
	if diff := cmp.Diff(want, b.Bytes()); diff != "" {
		t.Errorf("Bytes() difference (-want +got):\n%s", diff)
	}
}

func TestBufferRow(t *testing.T) {
	b := New(8, 3)
	b.Fill(false)
	b.SetBit(0, 1, true)

	if diff := cmp.Diff([]byte{0x80}, b.Row(1)); diff != "" {
		t.Errorf("Row(1) difference (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]byte{0x00}, b.Row(2)); diff != "" {
		t.Errorf("Row(2) difference (-want +got):\n%s", diff)
	}
}

func TestLogicalToPhysical(t *testing.T) {
	for _, tc := range []struct {
		name         string
		rect         image.Rectangle
		rot          Rotation
		physW, physH int
		want         image.Rectangle
	}{
		{
			name:  "identity",
			rect:  image.Rect(10, 20, 30, 40),
			rot:   Rotate0,
			physW: 800, physH: 480,
			want: image.Rect(10, 20, 30, 40),
		},
		{
			name:  "rotate270 origin",
			rect:  image.Rect(0, 0, 1, 1),
			rot:   Rotate270,
			physW: 800, physH: 480,
			want: image.Rect(0, 479, 1, 480),
		},
		{
			name:  "rotate270 full plane",
			rect:  image.Rect(0, 0, 480, 800),
			rot:   Rotate270,
			physW: 800, physH: 480,
			want: image.Rect(0, 0, 800, 480),
		},
		{
			name:  "rotate270 interior",
			rect:  image.Rect(100, 50, 200, 150),
			rot:   Rotate270,
			physW: 800, physH: 480,
			want: image.Rect(50, 280, 150, 380),
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			got := LogicalToPhysical(tc.rect, tc.rot, tc.physW, tc.physH)
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Errorf("LogicalToPhysical() difference (-want +got):\n%s", diff)
			}
			if got.Empty() != tc.rect.Empty() {
				t.Errorf("LogicalToPhysical() emptiness changed: %v -> %v", tc.rect, got)
			}
		})
	}
}

func TestAlignX8(t *testing.T) {
	for _, tc := range []struct {
		in, want image.Rectangle
	}{
		{image.Rect(0, 0, 8, 10), image.Rect(0, 0, 8, 10)},
		{image.Rect(3, 0, 13, 10), image.Rect(0, 0, 16, 10)},
		{image.Rect(8, 5, 9, 6), image.Rect(8, 5, 16, 6)},
	} {
		if got := AlignX8(tc.in); got != tc.want {
			t.Errorf("AlignX8(%v) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestRotated(t *testing.T) {
	buf := New(8, 4)
	rot := NewRotated(buf, Rotate270)

	if got, want := rot.Bounds(), image.Rect(0, 0, 4, 8); got != want {
		t.Errorf("Bounds() = %v, want %v", got, want)
	}

	rot.Set(0, 0, color.Black)
	rot.Set(3, 7, color.Black)

	if buf.BitAt(0, 3) {
		t.Errorf("logical (0,0) did not land on physical (0,3)")
	}
	if buf.BitAt(7, 0) {
		t.Errorf("logical (3,7) did not land on physical (7,0)")
	}
	if white := rot.At(0, 0) == rot.ColorModel().Convert(color.White); white {
		t.Errorf("At(0,0) reads white after painting black")
	}
}

func TestBufferClone(t *testing.T) {
	b := New(8, 2)
	b.SetBit(0, 0, false)

	c := b.Clone()
	c.SetBit(7, 1, false)

	if b.BitAt(7, 1) != true {
		t.Errorf("mutating the clone changed the original")
	}
	if c.BitAt(0, 0) != false {
		t.Errorf("clone did not copy pixel data")
	}
}

func TestTracker(t *testing.T) {
	tr := NewTracker(image.Rect(0, 0, 100, 100))

	if _, ok := tr.Dirty(); ok {
		t.Errorf("Dirty() reported ok on a fresh tracker")
	}

	tr.Mark(image.Rect(10, 10, 20, 20))
	tr.Mark(image.Rect(50, 60, 70, 80))
	// Clamped to bounds.
	tr.Mark(image.Rect(90, 90, 200, 200))
	// Ignored entirely.
	tr.Mark(image.Rect(300, 300, 400, 400))
	tr.Mark(image.Rectangle{})

	got, ok := tr.Take()
	if !ok {
		t.Fatalf("Take() reported nothing dirty")
	}
	if want := image.Rect(10, 10, 100, 100); got != want {
		t.Errorf("Take() = %v, want %v", got, want)
	}

	if _, ok := tr.Take(); ok {
		t.Errorf("second Take() reported ok, want cleared tracker")
	}
}

func TestTrackerMarkAll(t *testing.T) {
	tr := NewTracker(image.Rect(0, 0, 800, 480))
	tr.Mark(image.Rect(1, 1, 2, 2))
	tr.MarkAll()

	got, ok := tr.Take()
	if !ok || got != image.Rect(0, 0, 800, 480) {
		t.Errorf("Take() = %v, %v; want full bounds", got, ok)
	}
}
