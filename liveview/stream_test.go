// Copyright 2024 The Epaper Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package liveview

import (
	"bytes"
	"io"
	"mime"
	"mime/multipart"
	"regexp"
	"strconv"
	"testing"
)

func TestParseFormat(t *testing.T) {
	for _, tc := range []struct {
		value   string
		want    ImageFormat
		wantErr bool
	}{
		{value: "png", want: PNG},
		{value: "jpg", want: JPEG},
		{value: "jpeg", want: JPEG},
		{value: "bmp", wantErr: true},
		{value: "", wantErr: true},
	} {
		got, err := ParseFormat(tc.value)
		if gotErr := err != nil; gotErr != tc.wantErr {
			t.Errorf("ParseFormat(%q) error = %v, want error %t", tc.value, err, tc.wantErr)
			continue
		}
		if !tc.wantErr && got != tc.want {
			t.Errorf("ParseFormat(%q) = %s, want %s", tc.value, got, tc.want)
		}
	}
}

func TestImageFormatMimeType(t *testing.T) {
	for _, tc := range []struct {
		format ImageFormat
		want   string
	}{
		{PNG, "image/png"},
		{JPEG, "image/jpeg"},
		{ImageFormat(-1), "application/octet-stream"},
	} {
		if got := tc.format.mimeType(); got != tc.want {
			t.Errorf("%s.mimeType() = %q, want %q", tc.format, got, tc.want)
		}
	}
}

func TestFrameWriterBoundary(t *testing.T) {
	re := regexp.MustCompile(`^[a-f0-9]{60,70}$`)
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		fw := newFrameWriter(io.Discard, "image/png")
		if !re.MatchString(fw.boundary) {
			t.Fatalf("boundary %q does not match %q", fw.boundary, re)
		}
		if seen[fw.boundary] {
			t.Fatalf("boundary %q repeated", fw.boundary)
		}
		seen[fw.boundary] = true
	}
}

func TestFrameWriterRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	fw := newFrameWriter(&buf, "image/png")

	frames := [][]byte{
		[]byte("first frame"),
		[]byte("second, longer frame payload"),
	}
	for _, f := range frames {
		if err := fw.writeFrame(f); err != nil {
			t.Fatal(err)
		}
	}

	mediaType, params, err := mime.ParseMediaType(fw.contentType())
	if err != nil {
		t.Fatal(err)
	}
	if mediaType != "multipart/x-mixed-replace" {
		t.Errorf("media type = %q, want multipart/x-mixed-replace", mediaType)
	}

	mr := multipart.NewReader(&buf, params["boundary"])
	for i, want := range frames {
		part, err := mr.NextPart()
		if err != nil {
			t.Fatalf("reading part %d: %v", i, err)
		}
		if got := part.Header.Get("Content-Type"); got != "image/png" {
			t.Errorf("part %d Content-Type = %q, want image/png", i, got)
		}
		if got := part.Header.Get("Content-Length"); got != strconv.Itoa(len(want)) {
			t.Errorf("part %d Content-Length = %q, want %d", i, got, len(want))
		}
		body, err := io.ReadAll(part)
		if err != nil {
			t.Fatal(err)
		}
		if !bytes.Equal(body, want) {
			t.Errorf("part %d body = %q, want %q", i, body, want)
		}
	}
}
