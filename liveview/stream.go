// Copyright 2024 The Epaper Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package liveview

import (
	"bytes"
	"crypto/rand"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"mime"
)

// ImageFormat selects the on-wire encoding of streamed frames.
type ImageFormat int

const (
	PNG ImageFormat = iota
	JPEG

	// DefaultFormat is the format used when not set explicitly in options or
	// as a URL parameter.
	DefaultFormat = PNG
)

var jpegOptions = jpeg.Options{Quality: 90}

func (f ImageFormat) String() string {
	switch f {
	case PNG:
		return "PNG"
	case JPEG:
		return "JPEG"
	default:
		return fmt.Sprint(int(f))
	}
}

func (f ImageFormat) mimeType() string {
	switch f {
	case PNG:
		return "image/png"
	case JPEG:
		return "image/jpeg"
	}
	return "application/octet-stream"
}

// encode writes m in this format. PNG trades compression for speed since
// frames are encoded on every refresh.
func (f ImageFormat) encode(w io.Writer, m image.Image) error {
	switch f {
	case PNG:
		enc := png.Encoder{CompressionLevel: png.BestSpeed}
		return enc.Encode(w, m)
	case JPEG:
		return jpeg.Encode(w, m, &jpegOptions)
	}
	return fmt.Errorf("unhandled image format %s", f)
}

// ParseFormat returns the ImageFormat for a URL parameter value.
func ParseFormat(value string) (ImageFormat, error) {
	switch value {
	case "png":
		return PNG, nil
	case "jpg", "jpeg":
		return JPEG, nil
	}
	return DefaultFormat, fmt.Errorf("unrecognized image format %q", value)
}

// frameWriter emits a neverending multipart/x-mixed-replace stream of
// identically-typed frames.
//
// "mime/multipart".Writer is not usable here: it writes a part's closing
// boundary line only when the next part begins or the writer is closed,
// so the last frame would sit in the client's buffer until the frame after
// it arrives. Each writeFrame call must leave the frame fully delivered.
type frameWriter struct {
	w        io.Writer
	boundary string
	mimeType string
	started  bool
}

func newFrameWriter(w io.Writer, mimeType string) *frameWriter {
	// RFC 2046 section 5.1.1 limits boundaries to 70 characters.
	var b [34]byte
	if _, err := io.ReadFull(rand.Reader, b[:]); err != nil {
		panic(err)
	}
	return &frameWriter{
		w:        w,
		boundary: fmt.Sprintf("%x", b[:]),
		mimeType: mimeType,
	}
}

// contentType returns the value for the response's Content-Type header.
func (fw *frameWriter) contentType() string {
	return mime.FormatMediaType("multipart/x-mixed-replace", map[string]string{
		"boundary": fw.boundary,
	})
}

// writeFrame delivers one frame, headers through trailing boundary, in a
// single Write to the underlying writer.
func (fw *frameWriter) writeFrame(body []byte) error {
	var buf bytes.Buffer
	if !fw.started {
		fmt.Fprintf(&buf, "--%s\r\n", fw.boundary)
		fw.started = true
	}
	fmt.Fprintf(&buf, "Content-Type: %s\r\n", fw.mimeType)
	fmt.Fprintf(&buf, "Content-Transfer-Encoding: binary\r\n")
	fmt.Fprintf(&buf, "Content-Length: %d\r\n\r\n", len(body))
	buf.Write(body)
	fmt.Fprintf(&buf, "\r\n--%s\r\n", fw.boundary)

	_, err := buf.WriteTo(fw.w)
	return err
}
