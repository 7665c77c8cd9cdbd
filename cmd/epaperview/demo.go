// Copyright 2024 The Epaper Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"fmt"
	"image"
	"time"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/epaper-go/epaper/engine"
)

// demoScreen draws a static status screen plus a live clock onto the
// engine's logical plane. The clock redraws into a small window so the
// refresh loop exercises the partial path.
type demoScreen struct {
	eng       *engine.Engine
	titleFace font.Face
	clockFace font.Face
	clockRect image.Rectangle
}

func newDemoScreen(eng *engine.Engine) (*demoScreen, error) {
	f, err := truetype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("parsing font: %w", err)
	}
	b := eng.Bounds()
	// Clock window in the lower half, byte-aligned horizontally.
	cw, ch := 320, 96
	min := image.Pt((b.Dx()-cw)/2&^7, b.Dy()*2/3)
	clockRect := image.Rectangle{Min: min, Max: min.Add(image.Pt(cw, ch))}

	return &demoScreen{
		eng:       eng,
		titleFace: truetype.NewFace(f, &truetype.Options{Size: 48}),
		clockFace: truetype.NewFace(f, &truetype.Options{Size: 72}),
		clockRect: clockRect,
	}, nil
}

// drawBase paints the full static screen and the current time.
func (s *demoScreen) drawBase() {
	b := s.eng.Bounds()
	dc := gg.NewContext(b.Dx(), b.Dy())
	dc.SetRGB(1, 1, 1)
	dc.Clear()

	dc.SetRGB(0, 0, 0)
	dc.SetFontFace(s.titleFace)
	dc.DrawStringAnchored("epaperview", float64(b.Dx())/2, 96, 0.5, 0.5)

	dc.SetLineWidth(3)
	dc.DrawRoundedRectangle(24, 160, float64(b.Dx()-48), 120, 12)
	dc.Stroke()
	dc.SetFontFace(s.clockFace)
	dc.DrawStringAnchored(time.Now().Format("Mon 02 Jan"), float64(b.Dx())/2, 220, 0.5, 0.5)

	for i := 0; i < 12; i++ {
		dc.DrawCircle(float64(60+30*i), float64(b.Dy()-60), 8)
		if i%2 == 0 {
			dc.Fill()
		} else {
			dc.Stroke()
		}
	}

	s.eng.DrawImage(b, dc.Image(), image.Point{})
	s.drawClock()
}

// drawClock repaints only the clock window.
func (s *demoScreen) drawClock() {
	r := s.clockRect
	dc := gg.NewContext(r.Dx(), r.Dy())
	dc.SetRGB(1, 1, 1)
	dc.Clear()
	dc.SetRGB(0, 0, 0)
	dc.SetFontFace(s.clockFace)
	dc.DrawStringAnchored(time.Now().Format("15:04"), float64(r.Dx())/2, float64(r.Dy())/2, 0.5, 0.5)

	s.eng.DrawImage(r, dc.Image(), image.Point{})
	s.eng.RenderSettled()
}

// run redraws the clock at the top of every minute until stop is closed.
func (s *demoScreen) run(stop <-chan struct{}) {
	for {
		now := time.Now()
		next := now.Truncate(time.Minute).Add(time.Minute)
		t := time.NewTimer(next.Sub(now))
		select {
		case <-stop:
			t.Stop()
			return
		case <-t.C:
		}
		s.drawClock()
		s.eng.Refresh(engine.Partial, nil)
	}
}
