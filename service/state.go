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
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	fingerprint "github.com/ZaparooProject/go-fingerprint"
)

// Mode is the externally selectable workflow: matching or enrolling.
type Mode int

const (
	ModeMatch Mode = iota
	ModeEnroll
)

// String returns "match" or "enroll".
func (m Mode) String() string {
	switch m {
	case ModeMatch:
		return "match"
	case ModeEnroll:
		return "enroll"
	default:
		return "unknown"
	}
}

// State returns the state a mode switch enters.
func (m Mode) State() fingerprint.State {
	if m == ModeEnroll {
		return fingerprint.StateEnrollStep1
	}
	return fingerprint.StateMatch
}

// ParseMode parses "match" or "enroll", case-insensitively.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "match":
		return ModeMatch, nil
	case "enroll":
		return ModeEnroll, nil
	default:
		return 0, fmt.Errorf("%w: unknown mode %q", ErrInvalidConfig, s)
	}
}

func modeOf(s fingerprint.State) Mode {
	if s.IsEnroll() {
		return ModeEnroll
	}
	return ModeMatch
}

// Stats tracks operational counters for a Service
type Stats struct {
	Ticks           int64         // Ticks that reached the sensor
	Captures        int64         // Successful image captures
	Matches         int64         // Library hits
	Enrollments     int64         // Templates stored
	Errors          int64         // Error events emitted
	LastTickLatency time.Duration // Duration of the last tick
}

type counters struct {
	ticks           atomic.Int64
	captures        atomic.Int64
	matches         atomic.Int64
	enrollments     atomic.Int64
	errors          atomic.Int64
	lastTickLatency atomic.Int64
}

func (c *counters) snapshot() Stats {
	return Stats{
		Ticks:           c.ticks.Load(),
		Captures:        c.captures.Load(),
		Matches:         c.matches.Load(),
		Enrollments:     c.enrollments.Load(),
		Errors:          c.errors.Load(),
		LastTickLatency: time.Duration(c.lastTickLatency.Load()),
	}
}

// machine holds the workflow state. It is written by the goroutine that
// owns the Device and read from anywhere.
type machine struct {
	state atomic.Int32
}

func (m *machine) load() fingerprint.State {
	return fingerprint.State(m.state.Load())
}

// store sets s and reports whether it differs from the previous state.
func (m *machine) store(s fingerprint.State) bool {
	return fingerprint.State(m.state.Swap(int32(s))) != s
}
