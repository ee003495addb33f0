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

package service

import (
	"errors"
	"fmt"
	"time"

	fingerprint "github.com/ZaparooProject/go-fingerprint"
)

// ErrInvalidConfig is returned by Validate for unusable settings.
var ErrInvalidConfig = errors.New("invalid service config")

// Config holds the service timing and workflow settings.
type Config struct {
	// Period is the tick interval used by Run.
	Period time.Duration
	// EnrollTimeout bounds the wait for the finger to leave the window
	// between the two enrollment captures.
	EnrollTimeout time.Duration
	// RemovalPollInterval is the minimum gap between removal polls.
	RemovalPollInterval time.Duration
	// InitialState is the state the service starts in.
	InitialState fingerprint.State
	// PostEnrollState is entered after a template was stored.
	PostEnrollState fingerprint.State
}

// DefaultConfig returns the default service configuration.
func DefaultConfig() *Config {
	return &Config{
		Period:              500 * time.Millisecond,
		EnrollTimeout:       5 * time.Second,
		RemovalPollInterval: 50 * time.Millisecond,
		InitialState:        fingerprint.StateMatch,
		PostEnrollState:     fingerprint.StateEnrollStep1,
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.Period <= 0 {
		return fmt.Errorf("%w: period must be positive", ErrInvalidConfig)
	}
	if c.EnrollTimeout <= 0 {
		return fmt.Errorf("%w: enroll timeout must be positive", ErrInvalidConfig)
	}
	if c.RemovalPollInterval <= 0 || c.RemovalPollInterval > c.EnrollTimeout {
		return fmt.Errorf("%w: removal poll interval must be in (0, enroll timeout]", ErrInvalidConfig)
	}
	if c.InitialState == fingerprint.StateEnrollStep2 {
		return fmt.Errorf("%w: cannot start in %s", ErrInvalidConfig, c.InitialState)
	}
	switch c.InitialState {
	case fingerprint.StateMatch, fingerprint.StateEnrollStep1:
	default:
		return fmt.Errorf("%w: unknown initial state %d", ErrInvalidConfig, c.InitialState)
	}
	switch c.PostEnrollState {
	case fingerprint.StateMatch, fingerprint.StateEnrollStep1:
	default:
		return fmt.Errorf("%w: post-enroll state must be match or enroll-1", ErrInvalidConfig)
	}
	return nil
}
