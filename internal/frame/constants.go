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

// Package frame provides frame encoding, decoding and protocol constants for
// the fingerprint sensor packet protocol.
package frame

// StartCode marks the beginning of every packet on the wire.
const StartCode = 0xEF01

// BroadcastAddress is the factory default module address.
const BroadcastAddress = 0xFFFFFFFF

// PacketType identifies the kind of packet carried by a frame.
type PacketType byte

// Packet identifiers
const (
	PacketCommand PacketType = 0x01 // Command packet from host to sensor
	PacketData    PacketType = 0x02 // Data packet, more packets follow
	PacketAck     PacketType = 0x07 // Acknowledge packet from sensor to host
	PacketEndData PacketType = 0x08 // Last data packet
)

// Frame size limits
const (
	HeaderLength   = 9  // start(2) + address(4) + type(1) + length(2)
	ChecksumLength = 2  // trailing checksum, counted inside the length field
	MaxPayload     = 64 // payload capacity including the checksum
	MaxCommandData = MaxPayload - ChecksumLength
	MinLengthField = ChecksumLength

	// MaxFrameData is the receive buffer capacity behind the header.
	MaxFrameData   = MaxPayload + ChecksumLength
	MaxFrameLength = HeaderLength + MaxFrameData
)

// String returns a readable name for the packet type.
func (t PacketType) String() string {
	switch t {
	case PacketCommand:
		return "command"
	case PacketData:
		return "data"
	case PacketAck:
		return "ack"
	case PacketEndData:
		return "end-of-data"
	default:
		return "unknown"
	}
}
