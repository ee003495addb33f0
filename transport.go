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

// Transport defines the byte-stream link to a fingerprint sensor.
// Implementations must not block in Read for long: returning (0, nil) or
// (0, io.EOF) when no data is pending is expected, the transaction engine
// polls until its deadline.
type Transport interface {
	// Read reads whatever bytes are pending into p
	Read(p []byte) (int, error)

	// Write writes a complete frame to the link
	Write(p []byte) (int, error)

	// Flush blocks until written bytes have left the host buffers
	Flush() error

	// Close closes the transport connection
	Close() error

	// Type returns the transport type
	Type() TransportType
}

// PortNamer is implemented by transports bound to a named port.
type PortNamer interface {
	PortName() string
}

// TransportType represents the type of transport
type TransportType string

const (
	// TransportUART represents UART/serial transport.
	TransportUART TransportType = "uart"
	// TransportMock represents a mock transport for testing
	TransportMock TransportType = "mock"
	// TransportVirtual represents a simulated sensor
	TransportVirtual TransportType = "virtual"
)

func portName(t Transport) string {
	if n, ok := t.(PortNamer); ok {
		return n.PortName()
	}
	return string(t.Type())
}
