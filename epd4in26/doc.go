// Copyright 2024 The Epaper Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package epd4in26 controls a 4.26 inch 800x480 black and white e-paper
// display built on an SSD1677-class controller (GDEQ0426T82 and compatible
// panels).
//
// The driver owns the SPI command framing, the reset and busy-wait
// handshakes, temperature-compensated waveform programming, and the full,
// fast and partial repaint sequences. Higher layers keep the frame buffer
// and decide when and how to refresh.
//
// # Datasheet
//
// https://www.good-display.com/product/457.html
package epd4in26
