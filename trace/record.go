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

// Package trace records every sensor transaction to a CBOR file for offline
// inspection, and reads such files back.
package trace

import (
	"time"

	fingerprint "github.com/ZaparooProject/go-fingerprint"
)

// Record is one command/ack exchange. CBOR encoding uses integer keys.
type Record struct {
	// Timestamp is when the command frame was written.
	Timestamp time.Time `cbor:"1,keyasint"`

	// Session identifies the process that wrote the record (UUID).
	Session string `cbor:"2,keyasint"`

	// Port is the transport port name, if known.
	Port string `cbor:"3,keyasint,omitempty"`

	Sent     []byte `cbor:"4,keyasint,omitempty"`
	Received []byte `cbor:"5,keyasint,omitempty"`

	// Error is the transaction error text. Empty on success.
	Error string `cbor:"6,keyasint,omitempty"`

	Duration time.Duration `cbor:"7,keyasint"`
	Command  uint8         `cbor:"8,keyasint"`
	Code     uint8         `cbor:"9,keyasint"`
}

// Failed reports whether the transaction returned an error.
func (r *Record) Failed() bool {
	return r.Error != ""
}

// ConfirmationCode returns the ack code as the library type.
func (r *Record) ConfirmationCode() fingerprint.ConfirmationCode {
	return fingerprint.ConfirmationCode(r.Code)
}

func newRecord(session, port string, t *fingerprint.Trace) Record {
	r := Record{
		Timestamp: t.Started,
		Session:   session,
		Port:      port,
		Sent:      t.Sent,
		Received:  t.Received,
		Duration:  t.Duration,
		Command:   t.Command,
		Code:      uint8(t.Code),
	}
	if t.Err != nil {
		r.Error = t.Err.Error()
	}
	return r
}
