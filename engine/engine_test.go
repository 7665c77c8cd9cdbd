// Copyright 2024 The Epaper Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package engine

import (
	"errors"
	"image"
	"image/color"
	"image/draw"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"golang.org/x/image/font/basicfont"

	"github.com/epaper-go/epaper/framebuf"
)

type panelCall struct {
	op   string
	rect image.Rectangle
}

// fakePanel records the repaint sequence instead of talking to hardware.
type fakePanel struct {
	mu      sync.Mutex
	calls   []panelCall
	lastPix []byte
	err     error
}

func (p *fakePanel) record(op string, rect image.Rectangle) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, panelCall{op: op, rect: rect})
}

func (p *fakePanel) recorded() []panelCall {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]panelCall(nil), p.calls...)
}

func (p *fakePanel) Bounds() image.Rectangle {
	return image.Rect(0, 0, 16, 8)
}

func (p *fakePanel) Init() error {
	p.record("init", image.Rectangle{})
	return nil
}

func (p *fakePanel) FullRepaint(pix []byte) error {
	p.record("full", image.Rectangle{})
	p.mu.Lock()
	p.lastPix = append([]byte(nil), pix...)
	p.mu.Unlock()
	return p.err
}

func (p *fakePanel) FastRepaint(pix []byte) error {
	p.record("fast", image.Rectangle{})
	return p.err
}

func (p *fakePanel) PartialRepaint(pix []byte, r image.Rectangle) error {
	p.record("partial", r)
	return p.err
}

func (p *fakePanel) Sleep() error {
	p.record("sleep", image.Rectangle{})
	return nil
}

func newTestEngine(t *testing.T, panel *fakePanel, opts *Opts) *Engine {
	t.Helper()

	e, err := New(panel, opts)
	if err != nil {
		t.Fatalf("New() = %v", err)
	}
	t.Cleanup(func() {
		if err := e.Close(); err != nil {
			t.Errorf("Close() = %v", err)
		}
	})
	return e
}

// refresh queues a request and blocks until it completed.
func refresh(t *testing.T, e *Engine, mode Mode) error {
	t.Helper()

	done := make(chan error, 1)
	e.Refresh(mode, func(err error) {
		done <- err
	})
	e.RenderSettled()

	select {
	case err := <-done:
		return err
	case <-time.After(5 * time.Second):
		t.Fatalf("refresh(%s) did not complete", mode)
		return nil
	}
}

func TestRefreshModes(t *testing.T) {
	panel := &fakePanel{}
	e := newTestEngine(t, panel, nil)

	if err := refresh(t, e, Full); err != nil {
		t.Errorf("full refresh = %v", err)
	}
	if err := refresh(t, e, Fast); err != nil {
		t.Errorf("fast refresh = %v", err)
	}

	want := []panelCall{
		{op: "init"},
		{op: "full"},
		{op: "fast"},
	}
	if diff := cmp.Diff(panel.recorded(), want, cmp.AllowUnexported(panelCall{})); diff != "" {
		t.Errorf("panel call difference (-got +want):\n%s", diff)
	}
}

func TestPartialPromotedToFast(t *testing.T) {
	panel := &fakePanel{}
	e := newTestEngine(t, panel, &Opts{Rotation: framebuf.Rotate270})

	// First partial after startup has no baseline in the previous-image
	// plane and must execute as fast.
	e.FillRect(image.Rect(1, 2, 3, 5), color.Black)
	if err := refresh(t, e, Partial); err != nil {
		t.Errorf("first partial refresh = %v", err)
	}

	// Second one is a true partial of the dirty window, converted to
	// physical coordinates.
	e.FillRect(image.Rect(1, 2, 3, 5), color.Black)
	if err := refresh(t, e, Partial); err != nil {
		t.Errorf("second partial refresh = %v", err)
	}

	want := []panelCall{
		{op: "init"},
		{op: "fast"},
		{op: "partial", rect: image.Rect(2, 5, 5, 7)},
	}
	if diff := cmp.Diff(panel.recorded(), want, cmp.AllowUnexported(panelCall{})); diff != "" {
		t.Errorf("panel call difference (-got +want):\n%s", diff)
	}
}

func TestPartialLimitForcesFast(t *testing.T) {
	panel := &fakePanel{}
	e := newTestEngine(t, panel, &Opts{PartialLimit: 3})

	var ops []string
	for i := 0; i < 5; i++ {
		e.Set(1, 1, color.Black)
		if err := refresh(t, e, Partial); err != nil {
			t.Fatalf("refresh %d = %v", i, err)
		}
	}
	for _, c := range panel.recorded()[1:] {
		ops = append(ops, c.op)
	}

	// Counter: 0 promotes, then two partials reach the limit of 3, then the
	// cycle repeats.
	want := []string{"fast", "partial", "partial", "fast", "partial"}
	if diff := cmp.Diff(ops, want); diff != "" {
		t.Errorf("op sequence difference (-got +want):\n%s", diff)
	}
}

func TestPartialWithoutDirtySkips(t *testing.T) {
	panel := &fakePanel{}
	e := newTestEngine(t, panel, nil)

	// Seed the baseline so the next partial is not promoted.
	e.Set(0, 0, color.Black)
	if err := refresh(t, e, Partial); err != nil {
		t.Fatalf("baseline refresh = %v", err)
	}

	// Nothing marked dirty: the request completes without bus traffic.
	if err := refresh(t, e, Partial); err != nil {
		t.Errorf("empty partial refresh = %v", err)
	}

	want := []panelCall{{op: "init"}, {op: "fast"}}
	if diff := cmp.Diff(panel.recorded(), want, cmp.AllowUnexported(panelCall{})); diff != "" {
		t.Errorf("panel call difference (-got +want):\n%s", diff)
	}
}

func TestFullRequestNotDowngraded(t *testing.T) {
	panel := &fakePanel{}
	e := newTestEngine(t, panel, nil)

	// Hold the worker in the settle wait so the pending slot coalesces.
	first := make(chan error, 1)
	e.Refresh(Fast, func(err error) { first <- err })

	deadline := time.Now().Add(5 * time.Second)
	for !e.IsRefreshing() {
		if time.Now().After(deadline) {
			t.Fatal("worker did not dequeue the first refresh")
		}
		time.Sleep(time.Millisecond)
	}

	done := make(chan error, 2)
	e.Refresh(Full, func(err error) { done <- err })
	e.Refresh(Partial, func(err error) { done <- err })

	e.RenderSettled()
	select {
	case <-first:
	case <-time.After(5 * time.Second):
		t.Fatal("first refresh did not complete")
	}

	e.RenderSettled()
	for i := 0; i < 2; i++ {
		select {
		case err := <-done:
			if err != nil {
				t.Errorf("coalesced refresh = %v", err)
			}
		case <-time.After(5 * time.Second):
			t.Fatal("coalesced refresh did not complete")
		}
	}

	// The Partial request must not have replaced the pending Full.
	want := []panelCall{{op: "init"}, {op: "fast"}, {op: "full"}}
	if diff := cmp.Diff(panel.recorded(), want, cmp.AllowUnexported(panelCall{})); diff != "" {
		t.Errorf("panel call difference (-got +want):\n%s", diff)
	}
}

func TestRenderSettleTimeout(t *testing.T) {
	panel := &fakePanel{}
	e := newTestEngine(t, panel, &Opts{RenderWait: 10 * time.Millisecond})

	done := make(chan error, 1)
	e.Refresh(Full, func(err error) { done <- err })

	// No RenderSettled call: the worker must proceed after the bounded
	// wait instead of blocking forever.
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("refresh = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("refresh did not complete")
	}
}

func TestRefreshReportsPanelError(t *testing.T) {
	wantErr := errors.New("spi glitch")
	panel := &fakePanel{err: wantErr}
	e := newTestEngine(t, panel, nil)

	if err := refresh(t, e, Full); !errors.Is(err, wantErr) {
		t.Errorf("refresh = %v, want %v", err, wantErr)
	}
}

func TestDirtyTracking(t *testing.T) {
	panel := &fakePanel{}
	e := newTestEngine(t, panel, &Opts{Rotation: framebuf.Rotate270})

	if _, ok := e.Dirty(); ok {
		t.Errorf("Dirty() reported a window on a fresh engine")
	}

	e.Set(4, 4, color.Black)
	e.FillRect(image.Rect(6, 10, 8, 12), color.Black)

	got, ok := e.Dirty()
	if !ok {
		t.Fatalf("Dirty() reported nothing after painting")
	}
	if want := image.Rect(4, 4, 8, 12); got != want {
		t.Errorf("Dirty() = %v, want %v", got, want)
	}
}

func TestDrawImage(t *testing.T) {
	panel := &fakePanel{}
	e := newTestEngine(t, panel, &Opts{Rotation: framebuf.Rotate270})

	src := image.NewGray(image.Rect(0, 0, 2, 2))
	dst := image.Rect(3, 3, 5, 5)
	e.DrawImage(dst, src, image.Point{})

	got, ok := e.Dirty()
	if !ok || got != dst {
		t.Errorf("Dirty() = %v, %v; want %v", got, ok, dst)
	}

	snap := e.Snapshot()
	// Logical (3,3) with rotation lands at physical (3, 8-3-1).
	if snap.BitAt(3, 4) {
		t.Errorf("drawn pixel still white in snapshot")
	}
}

func TestSnapshotIsIndependent(t *testing.T) {
	panel := &fakePanel{}
	e := newTestEngine(t, panel, nil)

	snap := e.Snapshot()
	e.Clear(color.Black)

	if !snap.BitAt(0, 0) {
		t.Errorf("snapshot changed after later paint")
	}
}

func TestClearShipsWhiteFrame(t *testing.T) {
	panel := &fakePanel{}
	e := newTestEngine(t, panel, nil)

	e.Clear(color.Black)
	if err := refresh(t, e, Full); err != nil {
		t.Fatalf("refresh(Full) = %v", err)
	}
	e.Clear(color.White)
	if err := refresh(t, e, Full); err != nil {
		t.Fatalf("refresh(Full) = %v", err)
	}

	panel.mu.Lock()
	pix := panel.lastPix
	panel.mu.Unlock()
	for i, b := range pix {
		if b != 0xFF {
			t.Fatalf("byte %d of the shipped frame = %#x, want 0xff", i, b)
		}
	}

	if got, ok := e.Dirty(); ok {
		t.Errorf("Dirty() = %v after a full refresh, want none", got)
	}
}

func TestPaint(t *testing.T) {
	panel := &fakePanel{}
	e := newTestEngine(t, panel, &Opts{Rotation: framebuf.Rotate270})

	r := image.Rect(2, 3, 4, 6)
	e.Paint(func(img draw.Image) image.Rectangle {
		for y := r.Min.Y; y < r.Max.Y; y++ {
			for x := r.Min.X; x < r.Max.X; x++ {
				img.Set(x, y, color.Black)
			}
		}
		return r
	})

	got, ok := e.Dirty()
	if !ok || got != r {
		t.Errorf("Dirty() = %v, %v; want %v", got, ok, r)
	}
	// Logical (2,3) with rotation lands at physical (3, 8-2-1).
	if e.Snapshot().BitAt(3, 5) {
		t.Errorf("painted pixel still white in snapshot")
	}
}

func TestDrawText(t *testing.T) {
	panel := &fakePanel{}
	e := newTestEngine(t, panel, &Opts{Rotation: framebuf.Rotate270})

	r := e.DrawText(basicfont.Face7x13, image.Pt(1, 12), color.Black, "Hi")
	if r.Empty() {
		t.Fatalf("DrawText returned an empty box")
	}

	got, ok := e.Dirty()
	if !ok {
		t.Fatalf("Dirty() reported nothing after drawing text")
	}
	// The tracker clamps to the logical plane.
	if want := r.Intersect(e.Bounds()); got != want {
		t.Errorf("Dirty() = %v, want the clamped text box %v", got, want)
	}

	// At least one pixel inside the box must have turned black.
	snap := e.Snapshot()
	black := false
	for y := 0; y < 8 && !black; y++ {
		for x := 0; x < 16; x++ {
			if !snap.BitAt(x, y) {
				black = true
				break
			}
		}
	}
	if !black {
		t.Errorf("no pixel changed after DrawText")
	}
}

func TestModeString(t *testing.T) {
	for mode, want := range map[Mode]string{Full: "full", Fast: "fast", Partial: "partial", Mode(42): "unknown"} {
		if got := mode.String(); got != want {
			t.Errorf("Mode(%d).String() = %q, want %q", int(mode), got, want)
		}
	}
}
