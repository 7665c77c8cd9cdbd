// Copyright 2024 The Epaper Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"image/png"
	"net/http"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/epaper-go/epaper/engine"
)

// newRouter serves the preview endpoints. stream is the MJPEG live view
// when running against the simulated panel, nil on real hardware.
func newRouter(eng *engine.Engine, stream http.Handler) http.Handler {
	r := mux.NewRouter().StrictSlash(false)

	r.HandleFunc("/healthz", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	}).Methods(http.MethodGet)

	// Current frame buffer, physical orientation.
	r.HandleFunc("/frame.png", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		enc := png.Encoder{CompressionLevel: png.BestSpeed}
		if err := enc.Encode(w, eng.Snapshot()); err != nil {
			logrus.Warnf("Encoding frame snapshot: %v", err)
		}
	}).Methods(http.MethodGet)

	if stream != nil {
		r.Handle("/live", stream).Methods(http.MethodGet)
	}

	return handlers.CombinedLoggingHandler(logrus.StandardLogger().Writer(), r)
}
