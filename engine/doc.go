// Copyright 2024 The Epaper Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package engine owns the frame buffer shared between drawing code and the
// panel, tracks dirty regions, and schedules refreshes on a background
// worker.
//
// Drawing happens in logical (rotated) coordinates through the facade;
// refresh requests are coalesced into a single pending slot and executed
// one at a time. The engine picks the repaint strategy: full for the
// cleanest image, fast to trade quality for latency, partial to update only
// the dirty window. Repeated partial refreshes accumulate ghosting, so
// after a configurable number of them the next partial request is promoted
// to a fast refresh.
package engine
