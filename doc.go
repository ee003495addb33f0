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

/*
Package fingerprint provides a pure Go library for optical fingerprint sensor
modules that speak the 0xEF01 packet protocol (R30x, R50x, ZFM and compatible
modules, AS608 and similar).

The sensor does all image processing and matching internally. The host only
sequences commands: capture an image, extract features into a buffer slot,
combine two feature sets into a template, store it in the on-board library,
and search the library.

Features:
  - Framing, checksum verification and timeout-bounded receive
  - Typed commands for capture, feature extraction, templates and the library
  - System parameter, product info and password handling
  - LED and aura ring control
  - Structured logging via zap and pluggable transaction tracing
  - An enroll/match state machine in the service package

Basic Usage:

	import (
	    "github.com/ZaparooProject/go-fingerprint"
	    "github.com/ZaparooProject/go-fingerprint/transport/uart"
	)

	transport, err := uart.New("/dev/ttyUSB0")
	if err != nil {
	    log.Fatal(err)
	}
	defer transport.Close()

	device, err := fingerprint.New(transport,
	    fingerprint.WithTimeout(2*time.Second),
	    fingerprint.WithLogger(logger),
	)
	if err != nil {
	    log.Fatal(err)
	}
	if err := device.Init(ctx); err != nil {
	    log.Fatal(err)
	}

	if err := device.CaptureImage(ctx); err != nil {
	    if fingerprint.IsConfirmation(err, fingerprint.CodeNoFinger) {
	        return // nothing on the sensor
	    }
	    log.Fatal(err)
	}
	if err := device.ExtractFeatures(ctx, fingerprint.Slot1); err != nil {
	    log.Fatal(err)
	}
	match, err := device.Search(ctx, fingerprint.Slot1)

Error Handling:

Link failures, timeouts and malformed frames are returned as wrapped
sentinel errors. A well-formed reply with a non-zero confirmation code is
returned as *SensorError:

	if errors.Is(err, fingerprint.ErrTimeout) {
	    // retry
	}
	if fingerprint.IsConfirmation(err, fingerprint.CodeNotFound) {
	    // no such finger
	}

Thread Safety:

Each transaction holds the device lock, so at most one exchange is on the
wire at a time. Multi-command sequences are not atomic.
*/
package fingerprint
