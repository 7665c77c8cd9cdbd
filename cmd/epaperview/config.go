// Copyright 2024 The Epaper Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"errors"
	"io/fs"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// PinsConfig names the control lines of the panel. Names are resolved
// through gpioreg, so both "GPIO25" and "P1_22" style names work. Leave all
// four empty to use the standard Raspberry Pi HAT wiring.
type PinsConfig struct {
	DC    string `yaml:"dc"`
	CS    string `yaml:"cs"`
	Reset string `yaml:"reset"`
	Busy  string `yaml:"busy"`
}

func (p *PinsConfig) empty() bool {
	return p.DC == "" && p.CS == "" && p.Reset == "" && p.Busy == ""
}

// EngineConfig tunes the refresh scheduler.
type EngineConfig struct {
	// PartialLimit is the number of consecutive partial refreshes before
	// the next one is promoted to a fast full refresh.
	PartialLimit int `yaml:"partial_limit"`

	// RenderWaitMS bounds how long a refresh waits for drawing to settle.
	RenderWaitMS int `yaml:"render_wait_ms"`
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address for the live preview.
	Listen string `yaml:"listen"`

	// SPIPort is the spireg port name. Empty selects the first available
	// bus.
	SPIPort string `yaml:"spi_port"`

	// LogLevel is a logrus level name (debug, info, warning, error).
	LogLevel string `yaml:"log_level"`

	Pins   PinsConfig   `yaml:"pins"`
	Engine EngineConfig `yaml:"engine"`
}

// DefaultConfig returns the built-in defaults: HAT wiring, first SPI bus,
// preview on localhost.
func DefaultConfig() *Config {
	return &Config{
		Listen:   "127.0.0.1:8080",
		LogLevel: "info",
		Engine: EngineConfig{
			PartialLimit: 10,
			RenderWaitMS: 200,
		},
	}
}

// Normalize fills missing values so a partially-filled config file still
// behaves.
func (c *Config) Normalize() {
	if c.Listen == "" {
		c.Listen = "127.0.0.1:8080"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.Engine.PartialLimit <= 0 {
		c.Engine.PartialLimit = 10
	}
	if c.Engine.RenderWaitMS <= 0 {
		c.Engine.RenderWaitMS = 200
	}
}

// RenderWait returns the render settle bound as a duration.
func (c *Config) RenderWait() time.Duration {
	return time.Duration(c.Engine.RenderWaitMS) * time.Millisecond
}

// LoadConfig loads the YAML configuration at path. A missing file is not an
// error; the defaults apply.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return DefaultConfig(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return DefaultConfig(), nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()
	return &cfg, nil
}
