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
	"sync"

	"github.com/ZaparooProject/go-fingerprint/internal/frame"
)

// MockTransport is a scripted sensor for tests. Each command frame written
// to it is decoded and answered from a per-opcode response queue; data
// packets are recorded. Responses are raw frame bytes, so malformed and
// truncated replies can be scripted too.
type MockTransport struct {
	handler     func(cmd byte, args []byte) []byte
	responses   map[byte][][]byte
	callCount   map[byte]int
	lastArgs    map[byte][]byte
	readErr     error
	writeErr    error
	pending     []byte
	calls       []byte
	dataPackets [][]byte
	chunk       int
	mu          sync.Mutex
	closed      bool
}

// NewMockTransport creates a mock with no scripted responses. Unscripted
// commands get no reply, so the transaction times out.
func NewMockTransport() *MockTransport {
	return &MockTransport{
		responses: make(map[byte][][]byte),
		callCount: make(map[byte]int),
		lastArgs:  make(map[byte][]byte),
	}
}

// AckFrame builds a broadcast-address acknowledgement frame.
func AckFrame(code ConfirmationCode, body ...byte) []byte {
	f := &frame.Frame{
		Address: frame.BroadcastAddress,
		Type:    frame.PacketAck,
		Payload: append([]byte{byte(code)}, body...),
	}
	return f.Bytes()
}

// DataFrame builds a data packet, or the end-of-data packet when last is set.
func DataFrame(data []byte, last bool) []byte {
	packetType := frame.PacketData
	if last {
		packetType = frame.PacketEndData
	}
	f := &frame.Frame{Address: frame.BroadcastAddress, Type: packetType, Payload: data}
	return f.Bytes()
}

// SetResponse replies to every cmd with an ack carrying code and body.
func (m *MockTransport) SetResponse(cmd byte, code ConfirmationCode, body ...byte) {
	m.SetRawResponse(cmd, AckFrame(code, body...))
}

// SetRawResponse replies to every cmd with raw.
func (m *MockTransport) SetRawResponse(cmd byte, raw []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses[cmd] = [][]byte{raw}
}

// QueueResponse appends a reply for cmd. Queued replies are used in order;
// the last one repeats.
func (m *MockTransport) QueueResponse(cmd byte, code ConfirmationCode, body ...byte) {
	m.QueueRawResponse(cmd, AckFrame(code, body...))
}

// QueueRawResponse appends raw bytes as the next reply for cmd.
func (m *MockTransport) QueueRawResponse(cmd byte, raw []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses[cmd] = append(m.responses[cmd], raw)
}

// SetHandler answers every command through fn instead of the response
// queues. fn returns the raw reply bytes, nil for no reply.
func (m *MockTransport) SetHandler(fn func(cmd byte, args []byte) []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handler = fn
}

// SetReadError makes every Read fail with err.
func (m *MockTransport) SetReadError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.readErr = err
}

// SetWriteError makes every Write fail with err.
func (m *MockTransport) SetWriteError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writeErr = err
}

// SetChunkSize limits how many bytes a single Read returns.
func (m *MockTransport) SetChunkSize(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.chunk = n
}

// GetCallCount returns how many times cmd was sent.
func (m *MockTransport) GetCallCount(cmd byte) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount[cmd]
}

// Calls returns the opcodes in the order they were sent.
func (m *MockTransport) Calls() []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]byte(nil), m.calls...)
}

// LastArgs returns the arguments of the most recent cmd.
func (m *MockTransport) LastArgs(cmd byte) []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]byte(nil), m.lastArgs[cmd]...)
}

// DataPackets returns the payloads of data packets written by the host.
func (m *MockTransport) DataPackets() [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([][]byte(nil), m.dataPackets...)
}

// Write decodes a host frame and queues the scripted reply.
func (m *MockTransport) Write(p []byte) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return 0, NewDisconnectedError("write", "mock", nil)
	}
	if m.writeErr != nil {
		return 0, m.writeErr
	}

	f, err := frame.Decode(p)
	if err != nil {
		return len(p), nil //nolint:nilerr // malformed host frames are simply not answered
	}

	switch f.Type {
	case frame.PacketCommand:
		if len(f.Payload) == 0 {
			return len(p), nil
		}
		cmd := f.Payload[0]
		m.calls = append(m.calls, cmd)
		m.callCount[cmd]++
		m.lastArgs[cmd] = append([]byte(nil), f.Payload[1:]...)

		if m.handler != nil {
			m.pending = append(m.pending, m.handler(cmd, f.Payload[1:])...)
			return len(p), nil
		}
		queue := m.responses[cmd]
		if len(queue) == 0 {
			return len(p), nil
		}
		m.pending = append(m.pending, queue[0]...)
		if len(queue) > 1 {
			m.responses[cmd] = queue[1:]
		}
	case frame.PacketData, frame.PacketEndData:
		m.dataPackets = append(m.dataPackets, f.Payload)
	}
	return len(p), nil
}

// Read returns pending reply bytes, or (0, nil) when there are none.
func (m *MockTransport) Read(p []byte) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return 0, NewDisconnectedError("read", "mock", nil)
	}
	if m.readErr != nil {
		return 0, m.readErr
	}

	n := min(len(p), len(m.pending))
	if m.chunk > 0 {
		n = min(n, m.chunk)
	}
	copy(p, m.pending[:n])
	m.pending = m.pending[n:]
	return n, nil
}

// Flush is a no-op.
func (*MockTransport) Flush() error {
	return nil
}

// Close marks the transport closed; later reads and writes fail.
func (m *MockTransport) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Type returns TransportMock
func (*MockTransport) Type() TransportType {
	return TransportMock
}

// PortName returns "mock".
func (*MockTransport) PortName() string {
	return "mock"
}
