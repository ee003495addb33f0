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

package fingerprint

import (
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Option is a functional option for configuring a Device
type Option func(*Device) error

// WithAddress sets the 32-bit module address used in every frame
func WithAddress(address uint32) Option {
	return func(d *Device) error {
		d.config.Address = address
		return nil
	}
}

// WithPassword sets the password presented during Connect
func WithPassword(password uint32) Option {
	return func(d *Device) error {
		d.config.Password = password
		return nil
	}
}

// WithTimeout sets the receive window for each transaction
func WithTimeout(timeout time.Duration) Option {
	return func(d *Device) error {
		return d.SetTimeout(timeout)
	}
}

// WithLogger sets the logger used for frame and lifecycle logging
func WithLogger(logger *zap.Logger) Option {
	return func(d *Device) error {
		if logger == nil {
			return fmt.Errorf("%w: nil logger", ErrInvalidParameter)
		}
		d.logger = logger
		return nil
	}
}

// WithTracer adds a transaction tracer. It may be given more than once.
func WithTracer(tracer Tracer) Option {
	return func(d *Device) error {
		if tracer == nil {
			return fmt.Errorf("%w: nil tracer", ErrInvalidParameter)
		}
		d.tracers = append(d.tracers, tracer)
		return nil
	}
}

// WithListener registers a listener for session events such as Initialized
func WithListener(l Listener) Option {
	return func(d *Device) error {
		d.listeners.Add(l)
		return nil
	}
}
