// go-fingerprint
// Copyright (c) 2025 The Zaparoo Project Contributors.
// SPDX-License-Identifier: LGPL-3.0-or-later
//
// This file is part of go-fingerprint.
//
// go-fingerprint is free software; you can redistribute it and/or
// modify it under the terms of the GNU Lesser General Public
// License as published by the Free Software Foundation; either
// version 3 of the License, or (at your option) any later version.
//
// go-fingerprint is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
// Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with go-fingerprint; if not, write to the Free Software Foundation,
// Inc., 51 Franklin Street, Fifth Floor, Boston, MA  02110-1301, USA.

// Package touch reads the finger-detect output line of capacitive sensors so
// the service only captures when a finger is on the window.
package touch

import (
	"errors"
	"fmt"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
)

// ErrPinNotFound is returned when the named GPIO does not exist on this host.
var ErrPinNotFound = errors.New("gpio pin not found")

type config struct {
	pull      gpio.Pull
	activeLow bool
}

// Option configures a touch line.
type Option func(*config)

// WithActiveHigh treats a high level as a finger present. The pull resistor
// switches to pull-down.
func WithActiveHigh() Option {
	return func(c *config) {
		c.activeLow = false
		c.pull = gpio.PullDown
	}
}

// WithPull overrides the internal pull resistor, e.g. gpio.Float when the
// board already has one.
func WithPull(pull gpio.Pull) Option {
	return func(c *config) { c.pull = pull }
}

// GPIO is a touch line on a host GPIO pin. It satisfies service.TouchSensor.
type GPIO struct {
	pin       gpio.PinIn
	activeLow bool
}

// Open initializes the periph host drivers and configures the named pin
// (e.g. "GPIO17") as an input.
func Open(name string, opts ...Option) (*GPIO, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize periph host: %w", err)
	}

	pin := gpioreg.ByName(name)
	if pin == nil {
		return nil, fmt.Errorf("%w: %s", ErrPinNotFound, name)
	}
	return New(pin, opts...)
}

// New configures an already resolved pin. Defaults to active-low with the
// internal pull-up enabled.
func New(pin gpio.PinIn, opts ...Option) (*GPIO, error) {
	cfg := &config{activeLow: true, pull: gpio.PullUp}
	for _, opt := range opts {
		opt(cfg)
	}

	if err := pin.In(cfg.pull, gpio.NoEdge); err != nil {
		return nil, fmt.Errorf("failed to configure %s as input: %w", pin.Name(), err)
	}
	return &GPIO{pin: pin, activeLow: cfg.activeLow}, nil
}

// Touched reports whether a finger is on the sensor.
func (g *GPIO) Touched() (bool, error) {
	level := g.pin.Read()
	if g.activeLow {
		return level == gpio.Low, nil
	}
	return level == gpio.High, nil
}

// Name returns the pin name.
func (g *GPIO) Name() string {
	return g.pin.Name()
}
