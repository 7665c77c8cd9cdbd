// Copyright 2024 The Epaper Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package epaper is a container for the e-paper display engine: the panel
// protocol driver, the packed 1bpp frame buffer with dirty-region tracking,
// and the refresh scheduler that ties them together.
package epaper
