// Copyright 2024 The Epaper Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package framebuf

import "image"

// Tracker accumulates the bounding rectangle of all regions marked dirty
// since the last refresh. It holds a single rect rather than a region list;
// two distant marks coalesce into one window covering both.
type Tracker struct {
	bounds image.Rectangle
	dirty  image.Rectangle
	has    bool
}

// NewTracker returns a tracker clamped to the given logical bounds.
func NewTracker(bounds image.Rectangle) *Tracker {
	return &Tracker{bounds: bounds}
}

// Mark expands the dirty rectangle to include r, clamped to the tracker's
// bounds. Empty or fully out-of-bounds rectangles are ignored.
func (t *Tracker) Mark(r image.Rectangle) {
	r = r.Intersect(t.bounds)
	if r.Empty() {
		return
	}
	if !t.has {
		t.dirty = r
		t.has = true
		return
	}
	t.dirty = t.dirty.Union(r)
}

// MarkAll marks the whole logical plane dirty.
func (t *Tracker) MarkAll() {
	t.dirty = t.bounds
	t.has = true
}

// Dirty reports the current dirty rectangle without clearing it.
func (t *Tracker) Dirty() (image.Rectangle, bool) {
	return t.dirty, t.has
}

// Take returns the accumulated dirty rectangle and resets the tracker. The
// second return is false if nothing was marked.
func (t *Tracker) Take() (image.Rectangle, bool) {
	r, ok := t.dirty, t.has
	t.dirty = image.Rectangle{}
	t.has = false
	return r, ok
}
