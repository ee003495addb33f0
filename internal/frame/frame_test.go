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
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chunkReader returns its data in fixed-size chunks and then reports io.EOF.
type chunkReader struct {
	mu    sync.Mutex
	data  []byte
	chunk int
	err   error
}

func (r *chunkReader) Read(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return 0, r.err
	}
	if len(r.data) == 0 {
		return 0, io.EOF
	}
	n := min(len(p), r.chunk, len(r.data))
	copy(p, r.data[:n])
	r.data = r.data[n:]
	return n, nil
}

func TestEncode(t *testing.T) {
	t.Parallel()

	got, err := Encode(BroadcastAddress, PacketCommand, []byte{0x01})
	require.NoError(t, err)
	assert.Equal(t, []byte{
		0xEF, 0x01, // start
		0xFF, 0xFF, 0xFF, 0xFF, // address
		0x01,       // command
		0x00, 0x03, // length
		0x01,       // capture
		0x00, 0x05, // checksum
	}, got)
}

func TestEncodePayloadLimit(t *testing.T) {
	t.Parallel()

	_, err := Encode(BroadcastAddress, PacketCommand, make([]byte, MaxCommandData))
	require.NoError(t, err)

	_, err = Encode(BroadcastAddress, PacketCommand, make([]byte, MaxCommandData+1))
	require.ErrorIs(t, err, ErrPayloadTooLarge)
}

func TestRoundTrip(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name       string
		payload    []byte
		address    uint32
		packetType PacketType
	}{
		{name: "empty", address: BroadcastAddress, packetType: PacketCommand, payload: []byte{}},
		{name: "search", address: 0x12345678, packetType: PacketCommand, payload: []byte{0x04, 0x01, 0x00, 0x00, 0x00, 0xA3}},
		{name: "ack", address: BroadcastAddress, packetType: PacketAck, payload: []byte{0x00, 0x00, 0x05, 0x00, 0x40}},
		{name: "end data", address: 0, packetType: PacketEndData, payload: make([]byte, MaxCommandData)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			raw, err := Encode(tt.address, tt.packetType, tt.payload)
			require.NoError(t, err)

			f, err := Decode(raw)
			require.NoError(t, err)
			assert.Equal(t, tt.address, f.Address)
			assert.Equal(t, tt.packetType, f.Type)
			assert.Equal(t, tt.payload, f.Payload)
			assert.Equal(t, uint16(len(tt.payload)+ChecksumLength), f.Length())
		})
	}
}

func TestDecodeCorruption(t *testing.T) {
	t.Parallel()

	raw, err := Encode(BroadcastAddress, PacketAck, []byte{0x00, 0x00, 0x07, 0x00, 0x50})
	require.NoError(t, err)

	// Every byte after the length field is covered by the checksum.
	for i := HeaderLength; i < len(raw); i++ {
		corrupt := append([]byte(nil), raw...)
		corrupt[i] ^= 0x5A
		_, err := Decode(corrupt)
		assert.ErrorIs(t, err, ErrChecksumMismatch, "byte %d", i)
	}
}

func TestDecodeHeaderErrors(t *testing.T) {
	t.Parallel()
	tests := []struct {
		wantErr error
		name    string
		raw     []byte
	}{
		{
			name:    "bad start code",
			raw:     []byte{0xEE, 0x01, 0xFF, 0xFF, 0xFF, 0xFF, 0x07, 0x00, 0x03, 0x00, 0x00, 0x0A},
			wantErr: ErrInvalidStartCode,
		},
		{
			name:    "length below checksum size",
			raw:     []byte{0xEF, 0x01, 0xFF, 0xFF, 0xFF, 0xFF, 0x07, 0x00, 0x01, 0x00},
			wantErr: ErrInvalidLength,
		},
		{
			name:    "truncated",
			raw:     []byte{0xEF, 0x01, 0xFF, 0xFF},
			wantErr: ErrInvalidLength,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := Decode(tt.raw)
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestReadPartialChunks(t *testing.T) {
	t.Parallel()

	raw, err := Encode(BroadcastAddress, PacketAck, []byte{0x00, 0x00, 0x2A, 0x00, 0x63})
	require.NoError(t, err)

	r := &chunkReader{data: raw, chunk: 3}
	f, err := Read(context.Background(), r, time.Now().Add(time.Second))
	require.NoError(t, err)
	assert.Equal(t, []byte{0x00, 0x00, 0x2A, 0x00, 0x63}, f.Payload)
}

func TestReadOverflow(t *testing.T) {
	t.Parallel()

	raw := []byte{0xEF, 0x01, 0xFF, 0xFF, 0xFF, 0xFF, 0x02, 0x00, 0x80}
	raw = append(raw, make([]byte, 0x80)...)
	r := &chunkReader{data: raw, chunk: 16}

	_, err := Read(context.Background(), r, time.Now().Add(time.Second))
	require.ErrorIs(t, err, ErrFrameOverflow)
}

func TestReadTimeout(t *testing.T) {
	t.Parallel()

	// Header promises 60 bytes but only 20 ever arrive.
	raw := []byte{0xEF, 0x01, 0xFF, 0xFF, 0xFF, 0xFF, 0x07, 0x00, 0x3C}
	raw = append(raw, make([]byte, 11)...)
	r := &chunkReader{data: raw, chunk: 64}

	start := time.Now()
	_, err := Read(context.Background(), r, start.Add(50*time.Millisecond))
	require.ErrorIs(t, err, ErrTimeout)
	assert.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)
}

func TestReadTransportError(t *testing.T) {
	t.Parallel()

	boom := errors.New("device gone")
	r := &chunkReader{err: boom}
	_, err := Read(context.Background(), r, time.Now().Add(time.Second))
	require.ErrorIs(t, err, ErrRead)
	require.ErrorIs(t, err, boom)
}

func TestReadCancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Read(ctx, &chunkReader{}, time.Now().Add(time.Second))
	require.ErrorIs(t, err, context.Canceled)
}
