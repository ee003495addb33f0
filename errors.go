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
	"errors"
	"fmt"

	"github.com/ZaparooProject/go-fingerprint/internal/frame"
)

// Frame and transaction errors
var (
	ErrTimeout          = frame.ErrTimeout
	ErrChecksumMismatch = frame.ErrChecksumMismatch
	ErrPayloadTooLarge  = frame.ErrPayloadTooLarge
	ErrReceive          = errors.New("packet receive error")
	ErrUnexpectedPacket = errors.New("unexpected packet type")
	ErrProtocolShape    = errors.New("unexpected response length")
)

// Transport errors
var (
	ErrTransportWrite     = errors.New("transport write failed")
	ErrTransportRead      = frame.ErrRead
	ErrDeviceNotConnected = errors.New("device not connected")
	ErrDeviceNotFound     = errors.New("device not found")
)

// Operation errors
var (
	ErrNoFreeIndex      = errors.New("no free template index")
	ErrHandshakeFailed  = errors.New("handshake failed")
	ErrInvalidParameter = errors.New("invalid parameter")
	ErrRemovalTimeout   = errors.New("timeout waiting for finger removal")
	ErrNotInitialized   = errors.New("session not initialized")
)

// ErrorType represents the category of error for retry logic
type ErrorType int

const (
	// ErrorTypePermanent indicates an error that won't be fixed by retrying
	ErrorTypePermanent ErrorType = iota
	// ErrorTypeTransient indicates an error that might be fixed by retrying
	ErrorTypeTransient
	// ErrorTypeTimeout indicates a timeout error
	ErrorTypeTimeout
	// ErrorTypeSensor indicates a non-zero confirmation code from the sensor
	ErrorTypeSensor
)

// String returns the error type name.
func (t ErrorType) String() string {
	switch t {
	case ErrorTypeTransient:
		return "transient"
	case ErrorTypeTimeout:
		return "timeout"
	case ErrorTypeSensor:
		return "sensor"
	default:
		return "permanent"
	}
}

// TransportError wraps an I/O failure on the serial link.
type TransportError struct {
	Err       error
	Op        string
	Port      string
	Type      ErrorType
	Retryable bool
}

func (e *TransportError) Error() string {
	if e.Port != "" {
		return fmt.Sprintf("%s on %s: %v", e.Op, e.Port, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// NewTransportError creates a transport error. Transient and timeout errors
// are retryable.
func NewTransportError(op, port string, err error, errType ErrorType) *TransportError {
	return &TransportError{
		Op:        op,
		Port:      port,
		Err:       err,
		Type:      errType,
		Retryable: errType == ErrorTypeTransient || errType == ErrorTypeTimeout,
	}
}

// NewTimeoutError creates a retryable timeout transport error.
func NewTimeoutError(op, port string) *TransportError {
	return NewTransportError(op, port, ErrTimeout, ErrorTypeTimeout)
}

// NewDisconnectedError creates a permanent error for a link that went away.
func NewDisconnectedError(op, port string, cause error) *TransportError {
	err := ErrDeviceNotConnected
	if cause != nil {
		err = fmt.Errorf("%w: %w", ErrDeviceNotConnected, cause)
	}
	return NewTransportError(op, port, err, ErrorTypePermanent)
}

// SensorError is a well-formed acknowledgement carrying a non-zero
// confirmation code.
type SensorError struct {
	Op   string
	Code ConfirmationCode
}

func (e *SensorError) Error() string {
	return fmt.Sprintf("%s: %s (0x%02X)", e.Op, e.Code, byte(e.Code))
}

// Is reports whether target is a SensorError with the same code.
func (e *SensorError) Is(target error) bool {
	var t *SensorError
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// IsConfirmation reports whether err carries the given confirmation code.
func IsConfirmation(err error, code ConfirmationCode) bool {
	var se *SensorError
	if !errors.As(err, &se) {
		return false
	}
	return se.Code == code
}

// IsDisconnected reports whether err means the link itself is gone.
func IsDisconnected(err error) bool {
	return errors.Is(err, ErrDeviceNotConnected)
}

// IsRetryable returns true if the error is retryable
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	var te *TransportError
	if errors.As(err, &te) {
		return te.Retryable
	}

	var se *SensorError
	if errors.As(err, &se) {
		return se.Code.Retryable()
	}

	switch {
	case errors.Is(err, ErrTimeout),
		errors.Is(err, ErrReceive),
		errors.Is(err, ErrChecksumMismatch),
		errors.Is(err, ErrUnexpectedPacket),
		errors.Is(err, ErrTransportRead),
		errors.Is(err, ErrTransportWrite):
		return true
	default:
		return false
	}
}

// GetErrorType returns the error type for the given error
func GetErrorType(err error) ErrorType {
	if err == nil {
		return ErrorTypePermanent
	}

	var te *TransportError
	if errors.As(err, &te) {
		return te.Type
	}

	var se *SensorError
	if errors.As(err, &se) {
		return ErrorTypeSensor
	}

	switch {
	case errors.Is(err, ErrTimeout):
		return ErrorTypeTimeout
	case errors.Is(err, ErrReceive),
		errors.Is(err, ErrChecksumMismatch),
		errors.Is(err, ErrUnexpectedPacket),
		errors.Is(err, ErrTransportRead),
		errors.Is(err, ErrTransportWrite):
		return ErrorTypeTransient
	default:
		return ErrorTypePermanent
	}
}
