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

import "time"

// Trace describes one completed command exchange.
type Trace struct {
	Started  time.Time
	Err      error
	Sent     []byte
	Received []byte
	Duration time.Duration
	Command  byte
	Code     ConfirmationCode
}

// Tracer observes every transaction on a Device. TraceTransaction is called
// with the transaction lock held and must not call back into the Device.
type Tracer interface {
	TraceTransaction(t *Trace)
}

// TracerFunc adapts a function to the Tracer interface.
type TracerFunc func(t *Trace)

// TraceTransaction calls f(t).
func (f TracerFunc) TraceTransaction(t *Trace) {
	f(t)
}
