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

package frame

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"time"
)

// Frame errors
var (
	ErrPayloadTooLarge  = errors.New("payload exceeds frame capacity")
	ErrChecksumMismatch = errors.New("frame checksum mismatch")
	ErrInvalidStartCode = errors.New("invalid frame start code")
	ErrInvalidLength    = errors.New("invalid frame length")
	ErrFrameOverflow    = errors.New("frame length exceeds receive buffer")
	ErrRead             = errors.New("transport read failed")
	ErrTimeout          = errors.New("timeout waiting for frame")
)

// idlePoll is the pause between empty reads while assembling a frame.
const idlePoll = time.Millisecond

// Frame is one decoded packet. Payload excludes the trailing checksum.
type Frame struct {
	Payload  []byte
	Address  uint32
	Checksum uint16
	Type     PacketType
}

// Length returns the value of the length field as it appears on the wire.
func (f *Frame) Length() uint16 {
	return uint16(len(f.Payload) + ChecksumLength)
}

// Checksum computes the low 16 bits of length + packet type + payload bytes.
func Checksum(packetType PacketType, length uint16, payload []byte) uint16 {
	sum := length + uint16(packetType)
	for _, b := range payload {
		sum += uint16(b)
	}
	return sum
}

// Bytes serializes the frame as it appears on the wire.
func (f *Frame) Bytes() []byte {
	return marshal(f.Address, f.Type, f.Payload)
}

// Encode serializes a packet for the given module address.
func Encode(address uint32, packetType PacketType, payload []byte) ([]byte, error) {
	if len(payload) > MaxCommandData {
		return nil, fmt.Errorf("%w: %d bytes, max %d", ErrPayloadTooLarge, len(payload), MaxCommandData)
	}
	return marshal(address, packetType, payload), nil
}

func marshal(address uint32, packetType PacketType, payload []byte) []byte {
	length := uint16(len(payload) + ChecksumLength)
	buf := make([]byte, HeaderLength, HeaderLength+int(length))
	binary.BigEndian.PutUint16(buf[0:2], StartCode)
	binary.BigEndian.PutUint32(buf[2:6], address)
	buf[6] = byte(packetType)
	binary.BigEndian.PutUint16(buf[7:9], length)
	buf = append(buf, payload...)
	return binary.BigEndian.AppendUint16(buf, Checksum(packetType, length, payload))
}

// Decode parses a complete frame held in data.
func Decode(data []byte) (*Frame, error) {
	a := NewAssembler()
	for len(data) > 0 {
		n := copy(a.Remaining(), data)
		data = data[n:]
		complete, err := a.Advance(n)
		if err != nil {
			return nil, err
		}
		if complete {
			return a.Frame()
		}
		if n == 0 {
			break
		}
	}
	return nil, fmt.Errorf("%w: truncated frame", ErrInvalidLength)
}

// Assembler accumulates partial reads into a single frame. The header is
// collected first; the length field then decides how many bytes follow.
type Assembler struct {
	buf      [MaxFrameLength]byte
	have     int
	want     int
	declared int
}

// NewAssembler returns an assembler waiting for a frame header.
func NewAssembler() *Assembler {
	return &Assembler{want: HeaderLength}
}

// Remaining returns the buffer region the next read should fill.
func (a *Assembler) Remaining() []byte {
	return a.buf[a.have:a.want]
}

// Buffered returns the bytes collected so far.
func (a *Assembler) Buffered() []byte {
	return a.buf[:a.have]
}

// Advance records n freshly read bytes and reports whether the frame is complete.
func (a *Assembler) Advance(n int) (bool, error) {
	before := a.have
	a.have += n
	if a.have < HeaderLength {
		return false, nil
	}

	if before < HeaderLength {
		if start := binary.BigEndian.Uint16(a.buf[0:2]); start != StartCode {
			return false, fmt.Errorf("%w: 0x%04X", ErrInvalidStartCode, start)
		}
		a.declared = int(binary.BigEndian.Uint16(a.buf[7:9]))
		if a.declared < MinLengthField {
			return false, fmt.Errorf("%w: %d", ErrInvalidLength, a.declared)
		}
		// Oversized frames are read up to the buffer capacity and then rejected.
		a.want = HeaderLength + min(a.declared, MaxFrameData)
	}

	if a.have < a.want {
		return false, nil
	}
	if a.declared > MaxFrameData {
		return false, fmt.Errorf("%w: length %d, capacity %d", ErrFrameOverflow, a.declared, MaxFrameData)
	}
	return true, nil
}

// Frame validates the checksum of a completed frame and returns it.
func (a *Assembler) Frame() (*Frame, error) {
	if a.have < HeaderLength || a.have < a.want {
		return nil, fmt.Errorf("%w: incomplete frame", ErrInvalidLength)
	}

	length := uint16(a.declared)
	body := a.buf[HeaderLength : HeaderLength+a.declared]
	payload := make([]byte, len(body)-ChecksumLength)
	copy(payload, body)

	f := &Frame{
		Address:  binary.BigEndian.Uint32(a.buf[2:6]),
		Type:     PacketType(a.buf[6]),
		Payload:  payload,
		Checksum: binary.BigEndian.Uint16(body[len(body)-ChecksumLength:]),
	}
	if want := Checksum(f.Type, length, payload); want != f.Checksum {
		return nil, fmt.Errorf("%w: got 0x%04X, want 0x%04X", ErrChecksumMismatch, f.Checksum, want)
	}
	return f, nil
}

// Read assembles one frame from r, polling until deadline. Empty reads and
// io.EOF are treated as "no data yet"; any other read error aborts at once.
func Read(ctx context.Context, r io.Reader, deadline time.Time) (*Frame, error) {
	a := NewAssembler()
	for {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("frame read cancelled: %w", err)
		}
		if !time.Now().Before(deadline) {
			return nil, fmt.Errorf("%w: have %d of %d bytes", ErrTimeout, a.have, a.want)
		}

		n, err := r.Read(a.Remaining())
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: %w", ErrRead, err)
		}
		if n == 0 {
			time.Sleep(idlePoll)
			continue
		}

		complete, err := a.Advance(n)
		if err != nil {
			return nil, err
		}
		if complete {
			return a.Frame()
		}
	}
}
