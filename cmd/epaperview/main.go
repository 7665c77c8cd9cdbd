// Copyright 2024 The Epaper Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// epaperview drives a 4.26" e-paper panel with a demo status screen and
// serves a live preview of the frame buffer over HTTP.
//
// Pass -sim live or -sim term to run without hardware.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"

	"github.com/epaper-go/epaper/engine"
	"github.com/epaper-go/epaper/epd4in26"
	"github.com/epaper-go/epaper/framebuf"
	"github.com/epaper-go/epaper/liveview"
	"github.com/epaper-go/epaper/termview"
)

func main() {
	logrus.SetFormatter(&logrus.TextFormatter{ForceColors: true})

	configPath := flag.String("config", "", "Path to the YAML config file")
	listen := flag.String("listen", "", "HTTP listen address (overrides config)")
	sim := flag.String("sim", "", `Simulated panel instead of hardware: "live" or "term"`)
	debugMode := flag.Bool("d", false, "Enable debug logging")
	flag.Parse()

	if err := mainImpl(*configPath, *listen, *sim, *debugMode); err != nil {
		logrus.Errorf("epaperview: %v", err)
		os.Exit(1)
	}
}

func mainImpl(configPath, listen, sim string, debugMode bool) error {
	cfg, err := LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if listen != "" {
		cfg.Listen = listen
	}
	if debugMode {
		cfg.LogLevel = "debug"
	}
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("bad log level %q: %w", cfg.LogLevel, err)
	}
	logrus.SetLevel(level)

	panel, stream, cleanup, err := openPanel(cfg, sim)
	if err != nil {
		return err
	}
	defer cleanup()

	eng, err := engine.New(panel, &engine.Opts{
		Rotation:     framebuf.Rotate270,
		PartialLimit: cfg.Engine.PartialLimit,
		RenderWait:   cfg.RenderWait(),
	})
	if err != nil {
		return fmt.Errorf("starting engine: %w", err)
	}

	screen, err := newDemoScreen(eng)
	if err != nil {
		return err
	}
	screen.drawBase()
	eng.Refresh(engine.Full, func(err error) {
		if err != nil {
			logrus.Errorf("Initial repaint: %v", err)
		}
	})

	stop := make(chan struct{})
	go screen.run(stop)

	server := &http.Server{Addr: cfg.Listen, Handler: newRouter(eng, stream)}
	go func() {
		logrus.Infof("Preview listening on http://%s", cfg.Listen)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Errorf("HTTP server: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logrus.Infof("Received %s, shutting down", sig)

	close(stop)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logrus.Warnf("HTTP shutdown: %v", err)
	}
	if err := eng.Close(); err != nil {
		logrus.Warnf("Engine shutdown: %v", err)
	}
	return nil
}

// openPanel returns the panel to drive, the MJPEG stream handler when the
// liveview simulator is selected, and a cleanup function.
func openPanel(cfg *Config, sim string) (engine.Panel, http.Handler, func(), error) {
	none := func() {}
	switch sim {
	case "live":
		d := liveview.New(&liveview.Options{
			Width:  epd4in26.EPD4in26.Width,
			Height: epd4in26.EPD4in26.Height,
		})
		return d, d, none, nil
	case "term":
		return termview.New(&termview.Opts{
			Width:  epd4in26.EPD4in26.Width,
			Height: epd4in26.EPD4in26.Height,
			Scale:  8,
		}), nil, none, nil
	case "":
	default:
		return nil, nil, none, fmt.Errorf("unknown -sim mode %q", sim)
	}

	if _, err := host.Init(); err != nil {
		return nil, nil, none, fmt.Errorf("initializing host: %w", err)
	}
	port, err := spireg.Open(cfg.SPIPort)
	if err != nil {
		return nil, nil, none, fmt.Errorf("opening SPI port %q: %w", cfg.SPIPort, err)
	}
	cleanup := func() {
		if err := port.Close(); err != nil {
			logrus.Warnf("Closing SPI port: %v", err)
		}
	}

	var dev *epd4in26.Dev
	if cfg.Pins.empty() {
		dev, err = epd4in26.NewHat(port, &epd4in26.EPD4in26)
	} else {
		var pins pinResolver
		dc := pins.resolve(cfg.Pins.DC)
		cs := pins.resolve(cfg.Pins.CS)
		rst := pins.resolve(cfg.Pins.Reset)
		busy := pins.resolve(cfg.Pins.Busy)
		if err = pins.err; err == nil {
			dev, err = epd4in26.New(port, dc, cs, rst, busy, &epd4in26.EPD4in26)
		}
	}
	if err != nil {
		cleanup()
		return nil, nil, none, fmt.Errorf("initializing display: %w", err)
	}
	return dev, nil, cleanup, nil
}

// pinResolver looks up pins by name, keeping the first failure.
type pinResolver struct {
	err error
}

func (r *pinResolver) resolve(name string) gpio.PinIO {
	p := gpioreg.ByName(name)
	if p == nil && r.err == nil {
		r.err = fmt.Errorf("no GPIO pin named %q", name)
	}
	return p
}
