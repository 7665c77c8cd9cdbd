// Copyright 2024 The Epaper Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package engine

import (
	"image"
	"image/color"
	"image/draw"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"

	"github.com/epaper-go/epaper/framebuf"
)

// Mode selects the repaint strategy for a refresh request.
type Mode int

const (
	// Full runs the slowest waveform and clears all ghosting.
	Full Mode = iota
	// Fast trades some contrast for latency and re-baselines the panel's
	// previous-image plane.
	Fast
	// Partial updates only the dirty window without flashing the panel.
	Partial
)

func (m Mode) String() string {
	switch m {
	case Full:
		return "full"
	case Fast:
		return "fast"
	case Partial:
		return "partial"
	default:
		return "unknown"
	}
}

// Panel is the display driver the engine runs refreshes against.
type Panel interface {
	Bounds() image.Rectangle
	Init() error
	FullRepaint(pix []byte) error
	FastRepaint(pix []byte) error
	PartialRepaint(pix []byte, r image.Rectangle) error
	Sleep() error
}

// Opts configures an Engine.
type Opts struct {
	// Rotation maps logical drawing coordinates onto the panel RAM layout.
	Rotation framebuf.Rotation

	// PartialLimit is the number of consecutive partial refreshes allowed
	// before the next one is promoted to Fast. Zero selects the default of
	// 10.
	PartialLimit int

	// RenderWait bounds how long a dequeued refresh waits for the producer's
	// render-settled signal before reading the buffer anyway. Zero selects
	// the default of 200ms.
	RenderWait time.Duration
}

const (
	defaultPartialLimit = 10
	defaultRenderWait   = 200 * time.Millisecond
)

type request struct {
	mode Mode
	done []func(error)
}

// Engine is the refresh scheduler and drawing facade. All exported methods
// are safe for concurrent use; bus traffic happens only on the internal
// worker goroutine.
type Engine struct {
	panel        Panel
	rotation     framebuf.Rotation
	partialLimit int
	renderWait   time.Duration

	mu           sync.Mutex
	buf          *framebuf.Buffer
	view         *framebuf.Rotated
	tracker      *framebuf.Tracker
	pending      *request
	refreshing   bool
	partialCount int

	kick    chan struct{}
	settled chan struct{}
	quit    chan struct{}
	wg      sync.WaitGroup
}

// New initializes the panel, allocates the frame buffer and starts the
// refresh worker.
func New(panel Panel, opts *Opts) (*Engine, error) {
	if opts == nil {
		opts = &Opts{}
	}

	if err := panel.Init(); err != nil {
		return nil, err
	}

	pb := panel.Bounds()
	buf := framebuf.New(pb.Dx(), pb.Dy())
	view := framebuf.NewRotated(buf, opts.Rotation)

	e := &Engine{
		panel:        panel,
		rotation:     opts.Rotation,
		partialLimit: opts.PartialLimit,
		renderWait:   opts.RenderWait,
		buf:          buf,
		view:         view,
		tracker:      framebuf.NewTracker(view.Bounds()),
		kick:         make(chan struct{}, 1),
		settled:      make(chan struct{}, 1),
		quit:         make(chan struct{}),
	}
	if e.partialLimit <= 0 {
		e.partialLimit = defaultPartialLimit
	}
	if e.renderWait <= 0 {
		e.renderWait = defaultRenderWait
	}

	e.wg.Add(1)
	go e.worker()

	logrus.Infof("Display engine started: %dx%d logical, partial limit %d",
		view.Bounds().Dx(), view.Bounds().Dy(), e.partialLimit)

	return e, nil
}

// Bounds returns the logical drawing plane.
func (e *Engine) Bounds() image.Rectangle {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.view.Bounds()
}

// Clear paints the whole plane with c and marks everything dirty.
func (e *Engine) Clear(c color.Color) {
	e.mu.Lock()
	defer e.mu.Unlock()

	white := isWhite(c)
	e.buf.Fill(white)
	e.tracker.MarkAll()
}

// Set paints a single logical pixel.
func (e *Engine) Set(x, y int, c color.Color) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.view.Set(x, y, c)
	e.tracker.Mark(image.Rect(x, y, x+1, y+1))
}

// FillRect paints a filled rectangle in logical coordinates.
func (e *Engine) FillRect(r image.Rectangle, c color.Color) {
	e.mu.Lock()
	defer e.mu.Unlock()

	r = r.Intersect(e.view.Bounds())
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			e.view.Set(x, y, c)
		}
	}
	e.tracker.Mark(r)
}

// DrawImage composes src over the logical plane at dst and marks the
// destination dirty. Rendered text and full frames from an external
// rasterizer arrive through this path.
func (e *Engine) DrawImage(dst image.Rectangle, src image.Image, sp image.Point) {
	e.mu.Lock()
	defer e.mu.Unlock()

	draw.Draw(e.view, dst, src, sp, draw.Src)
	e.tracker.Mark(dst)
}

// DrawText renders s in color c with the baseline starting at dot, in
// logical coordinates, and marks the covered area dirty. It returns the
// bounding box of the rendered text.
func (e *Engine) DrawText(face font.Face, dot image.Point, c color.Color, s string) image.Rectangle {
	e.mu.Lock()
	defer e.mu.Unlock()

	d := font.Drawer{
		Dst:  e.view,
		Src:  image.NewUniform(c),
		Face: face,
		Dot:  fixed.P(dot.X, dot.Y),
	}
	b, _ := d.BoundString(s)
	d.DrawString(s)

	r := image.Rect(b.Min.X.Floor(), b.Min.Y.Floor(), b.Max.X.Ceil(), b.Max.Y.Ceil())
	e.tracker.Mark(r)
	return r
}

// Paint runs f with the logical drawing plane while holding the buffer
// lock, then marks everything f reports as touched dirty. The image must
// not be retained after f returns. This is the bulk-drawing path for a
// toolkit that rasterizes widgets directly into the frame buffer.
func (e *Engine) Paint(f func(draw.Image) image.Rectangle) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.tracker.Mark(f(e.view))
}

// MarkDirty widens the dirty window without painting. Callers that mutate
// the buffer through Snapshot-free direct access use this to keep partial
// refreshes correct.
func (e *Engine) MarkDirty(r image.Rectangle) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.tracker.Mark(r)
}

// Dirty reports the pending dirty window, if any.
func (e *Engine) Dirty() (image.Rectangle, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.tracker.Dirty()
}

// Snapshot returns an independent copy of the physical frame buffer.
func (e *Engine) Snapshot() *framebuf.Buffer {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.buf.Clone()
}

// RenderSettled tells the scheduler the most recent render pass has fully
// reached the buffer. A dequeued refresh waits briefly for this signal so
// it does not ship a half-drawn frame.
func (e *Engine) RenderSettled() {
	select {
	case e.settled <- struct{}{}:
	default:
	}
}

// IsRefreshing reports whether a refresh is executing right now.
func (e *Engine) IsRefreshing() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.refreshing
}

// Refresh queues a refresh request. Requests are coalesced: a newer request
// replaces a pending one, except that a pending Full is never downgraded.
// done, if not nil, runs on the worker goroutine after the refresh
// finishes; when requests coalesce every collected callback runs.
func (e *Engine) Refresh(mode Mode, done func(error)) {
	e.mu.Lock()
	if e.pending != nil && e.pending.mode == Full && mode != Full {
		if done != nil {
			e.pending.done = append(e.pending.done, done)
		}
	} else {
		var cbs []func(error)
		if e.pending != nil {
			cbs = e.pending.done
		}
		if done != nil {
			cbs = append(cbs, done)
		}
		e.pending = &request{mode: mode, done: cbs}
	}
	e.mu.Unlock()

	select {
	case e.kick <- struct{}{}:
	default:
	}
}

// Close stops the worker and puts the panel to sleep. Pending refresh
// requests that have not started are dropped.
func (e *Engine) Close() error {
	close(e.quit)
	e.wg.Wait()
	return e.panel.Sleep()
}

func isWhite(c color.Color) bool {
	r, g, b, _ := c.RGBA()
	return (r+g+b)/3 >= 0x8000
}
