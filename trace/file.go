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

package trace

import (
	"os"
	"sync"

	"github.com/fxamacker/cbor/v2"
	"github.com/google/uuid"

	fingerprint "github.com/ZaparooProject/go-fingerprint"
)

// FileTracer appends a Record per transaction to a file.
// It is safe for concurrent use.
type FileTracer struct {
	file    *os.File
	encoder *cbor.Encoder
	session string
	port    string
	mu      sync.Mutex
	closed  bool
}

// NewFileTracer opens path for appending, creating it if needed. Every record
// written by this tracer carries a fresh session ID.
func NewFileTracer(path, port string) (*FileTracer, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	return &FileTracer{
		file:    f,
		encoder: newEncoder(f),
		session: uuid.New().String(),
		port:    port,
	}, nil
}

// SessionID returns the ID stamped on this tracer's records.
func (ft *FileTracer) SessionID() string {
	return ft.session
}

// TraceTransaction implements fingerprint.Tracer. Encoding errors are dropped.
func (ft *FileTracer) TraceTransaction(t *fingerprint.Trace) {
	rec := newRecord(ft.session, ft.port, t)

	ft.mu.Lock()
	defer ft.mu.Unlock()
	if ft.closed {
		return
	}
	_ = ft.encoder.Encode(rec)
}

// Close closes the file. Later traces are ignored.
func (ft *FileTracer) Close() error {
	ft.mu.Lock()
	defer ft.mu.Unlock()

	if ft.closed {
		return nil
	}
	ft.closed = true
	return ft.file.Close()
}

var _ fingerprint.Tracer = (*FileTracer)(nil)
