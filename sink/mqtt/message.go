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

package mqtt

import (
	"errors"
	"time"

	fingerprint "github.com/ZaparooProject/go-fingerprint"
)

// Message is the JSON body of an event publication.
type Message struct {
	Time   time.Time `json:"time"`
	ID     *uint16   `json:"id,omitempty"`
	Score  *uint16   `json:"score,omitempty"`
	Code   *uint8    `json:"code,omitempty"`
	Type   string    `json:"type"`
	State  string    `json:"state,omitempty"`
	Error  string    `json:"error,omitempty"`
	Model  string    `json:"model,omitempty"`
	Serial string    `json:"serial,omitempty"`

	Capacity      uint16 `json:"capacity,omitempty"`
	TemplateCount uint16 `json:"template_count,omitempty"`
}

// NewMessage flattens ev into its wire form.
func NewMessage(ev fingerprint.Event, at time.Time) Message {
	m := Message{Time: at.UTC(), Type: ev.Type().String()}

	switch e := ev.(type) {
	case fingerprint.Initialized:
		m.Model = e.Info.Model
		m.Serial = e.Info.Serial
		m.Capacity = e.Params.LibrarySize
		m.TemplateCount = e.TemplateCount
	case fingerprint.MatchFound:
		m.ID, m.Score = &e.ID, &e.Score
	case fingerprint.EnrollSucceeded:
		m.ID = &e.ID
	case fingerprint.StateChanged:
		m.State = e.State.String()
	case fingerprint.CaptureFailed:
		m.setError(e.Err)
	case fingerprint.MatchFailed:
		m.setError(e.Err)
	case fingerprint.EnrollFailed:
		m.setError(e.Err)
	}
	return m
}

// setError records the error text and, for sensor failures, the
// confirmation code.
func (m *Message) setError(err error) {
	m.Error = errString(err)
	var se *fingerprint.SensorError
	if errors.As(err, &se) {
		code := uint8(se.Code)
		m.Code = &code
	}
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
