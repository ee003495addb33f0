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

package testing

import (
	"encoding/binary"

	"github.com/ZaparooProject/go-fingerprint/internal/frame"
)

// Sensor opcodes as seen by the simulated firmware
const (
	CmdGetImage        = 0x01
	CmdImage2Tz        = 0x02
	CmdPairMatch       = 0x03
	CmdSearch          = 0x04
	CmdRegModel        = 0x05
	CmdStore           = 0x06
	CmdLoad            = 0x07
	CmdUpChar          = 0x08
	CmdDownChar        = 0x09
	CmdUpImage         = 0x0A
	CmdDelete          = 0x0C
	CmdEmpty           = 0x0D
	CmdSetSysParam     = 0x0E
	CmdReadSysParam    = 0x0F
	CmdSetPassword     = 0x12
	CmdVerifyPassword  = 0x13
	CmdGetRandom       = 0x14
	CmdHiSpeedSearch   = 0x1B
	CmdTemplateCount   = 0x1D
	CmdReadIndexTable  = 0x1F
	CmdStandby         = 0x33
	CmdAuraLEDConfig   = 0x35
	CmdReadProductInfo = 0x3C
	CmdHandshake       = 0x40
	CmdLEDOn           = 0x50
	CmdLEDOff          = 0x51
)

// Confirmation codes used by the simulated firmware
const (
	CodeOK               byte = 0x00
	CodeNoFinger         byte = 0x02
	CodeImageFail        byte = 0x03
	CodeImageMessy       byte = 0x06
	CodeFeatureFail      byte = 0x07
	CodeNoMatch          byte = 0x08
	CodeNotFound         byte = 0x09
	CodeEnrollMismatch   byte = 0x0A
	CodeBadLocation      byte = 0x0B
	CodeTemplateReadFail byte = 0x0C
	CodeDeleteFail       byte = 0x10
	CodePasswordFail     byte = 0x13
	CodeInvalidImage     byte = 0x15
	CodeFlashErr         byte = 0x18
	CodeHandshakeOK      byte = 0x55
)

// BuildAck creates an acknowledgement frame carrying code and body
func BuildAck(code byte, body ...byte) []byte {
	f := &frame.Frame{
		Address: frame.BroadcastAddress,
		Type:    frame.PacketAck,
		Payload: append([]byte{code}, body...),
	}
	return f.Bytes()
}

// BuildErrorResponse creates an acknowledgement with a failure code and no body
func BuildErrorResponse(code byte) []byte {
	return BuildAck(code)
}

// BuildTruncated creates a frame whose header claims length but which
// carries only have bytes after the header
func BuildTruncated(packetType frame.PacketType, length uint16, have int) []byte {
	raw := make([]byte, frame.HeaderLength, frame.HeaderLength+have)
	binary.BigEndian.PutUint16(raw[0:2], frame.StartCode)
	binary.BigEndian.PutUint32(raw[2:6], frame.BroadcastAddress)
	raw[6] = byte(packetType)
	binary.BigEndian.PutUint16(raw[7:9], length)
	return append(raw, make([]byte, have)...)
}

// SystemParamsBody creates the 16-byte read-system-parameters body with a
// 128-byte data packet size at 57600 baud
func SystemParamsBody(librarySize, securityLevel uint16) []byte {
	body := make([]byte, 16)
	binary.BigEndian.PutUint16(body[0:2], 0x0000) // status
	binary.BigEndian.PutUint16(body[2:4], 0x0000) // system id
	binary.BigEndian.PutUint16(body[4:6], librarySize)
	binary.BigEndian.PutUint16(body[6:8], securityLevel)
	binary.BigEndian.PutUint32(body[8:12], frame.BroadcastAddress)
	binary.BigEndian.PutUint16(body[12:14], 2) // 128 bytes
	binary.BigEndian.PutUint16(body[14:16], 6) // 57600
	return body
}

// BuildSystemParams creates a successful read-system-parameters response
func BuildSystemParams(librarySize uint16) []byte {
	return BuildAck(CodeOK, SystemParamsBody(librarySize, 3)...)
}

// ProductInfoBody creates the 46-byte read-product-info body
func ProductInfoBody(model, serial string, capacity uint16) []byte {
	body := make([]byte, 46)
	copy(body[0:16], model)
	copy(body[16:20], "B001")
	copy(body[20:28], serial)
	binary.BigEndian.PutUint16(body[28:30], 0x0102) // hardware version
	copy(body[30:38], "FPS0001")
	binary.BigEndian.PutUint16(body[38:40], 192) // width
	binary.BigEndian.PutUint16(body[40:42], 192) // height
	binary.BigEndian.PutUint16(body[42:44], 1536)
	binary.BigEndian.PutUint16(body[44:46], capacity)
	return body
}

// BuildProductInfo creates a successful read-product-info response
func BuildProductInfo(model, serial string, capacity uint16) []byte {
	return BuildAck(CodeOK, ProductInfoBody(model, serial, capacity)...)
}

// IndexPageBody creates a 32-byte occupancy bitmap with the given page
// relative ids marked as used
func IndexPageBody(used ...int) []byte {
	body := make([]byte, 32)
	for _, id := range used {
		if id < 0 || id >= 256 {
			continue
		}
		body[id/8] |= 1 << (id % 8)
	}
	return body
}

// BuildIndexPage creates a successful read-index-table response
func BuildIndexPage(used ...int) []byte {
	return BuildAck(CodeOK, IndexPageBody(used...)...)
}

// BuildFullIndexPage creates a read-index-table response with every id used
func BuildFullIndexPage() []byte {
	body := make([]byte, 32)
	for i := range body {
		body[i] = 0xFF
	}
	return BuildAck(CodeOK, body...)
}

// BuildCount creates a successful template-count response
func BuildCount(n uint16) []byte {
	return BuildAck(CodeOK, byte(n>>8), byte(n))
}

// BuildSearch creates a successful search response
func BuildSearch(id, score uint16) []byte {
	return BuildAck(CodeOK, byte(id>>8), byte(id), byte(score>>8), byte(score))
}

// BuildRandom creates a successful get-random response
func BuildRandom(v uint32) []byte {
	return BuildAck(CodeOK, byte(v>>24), byte(v>>16), byte(v>>8), byte(v))
}
