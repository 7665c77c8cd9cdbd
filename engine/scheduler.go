// Copyright 2024 The Epaper Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package engine

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/epaper-go/epaper/framebuf"
)

// worker is the single refresh consumer. It dequeues the pending request,
// waits for the producer's render-settled signal, snapshots the buffer and
// dirty window under the lock, and runs the panel sequence outside it.
func (e *Engine) worker() {
	defer e.wg.Done()

	for {
		select {
		case <-e.quit:
			return
		case <-e.kick:
		}

		e.mu.Lock()
		req := e.pending
		e.pending = nil
		e.refreshing = req != nil
		e.mu.Unlock()

		if req == nil {
			continue
		}

		e.waitRenderSettled()

		err := e.execute(req.mode)
		if err != nil {
			logrus.Warnf("%s refresh failed: %v", req.mode, err)
		}

		e.mu.Lock()
		e.refreshing = false
		e.mu.Unlock()

		for _, cb := range req.done {
			cb(err)
		}
	}
}

func (e *Engine) waitRenderSettled() {
	t := time.NewTimer(e.renderWait)
	defer t.Stop()

	select {
	case <-e.settled:
	case <-e.quit:
	case <-t.C:
		logrus.Warnf("Render did not settle within %s; refreshing anyway", e.renderWait)
	}
}

// execute snapshots buffer state and dispatches one refresh. The dirty
// window is consumed at the start, not the end, so paints racing with the
// refresh dirty the next window instead of being lost.
func (e *Engine) execute(mode Mode) error {
	e.mu.Lock()

	pix := make([]byte, len(e.buf.Bytes()))
	copy(pix, e.buf.Bytes())

	dirty, hasDirty := e.tracker.Take()

	promoted := false
	switch mode {
	case Full, Fast:
		e.partialCount = 0
	case Partial:
		if e.partialCount == 0 {
			// First partial after a full or fast refresh: the panel's
			// comparison plane must be re-baselined first.
			promoted = true
		}
		e.partialCount++
		if e.partialCount >= e.partialLimit {
			logrus.Infof("Partial refresh limit (%d) reached, next request re-baselines", e.partialLimit)
			e.partialCount = 0
		}
	}

	physBounds := e.buf.Bounds()
	rotation := e.rotation
	e.mu.Unlock()

	switch {
	case mode == Full:
		logrus.Debugf("Full refresh")
		return e.panel.FullRepaint(pix)

	case mode == Fast:
		logrus.Debugf("Fast refresh")
		return e.panel.FastRepaint(pix)

	case promoted:
		logrus.Debugf("Partial refresh promoted to fast")
		return e.panel.FastRepaint(pix)

	default:
		if !hasDirty {
			logrus.Debugf("No dirty window, skipping partial refresh")
			return nil
		}
		phys := framebuf.LogicalToPhysical(dirty, rotation, physBounds.Dx(), physBounds.Dy())
		logrus.Debugf("Partial refresh: logical %v -> physical %v", dirty, phys)
		return e.panel.PartialRepaint(pix, phys)
	}
}
