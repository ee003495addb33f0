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

// Package uart provides the serial transport for fingerprint sensors.
package uart

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.bug.st/serial"

	fingerprint "github.com/ZaparooProject/go-fingerprint"
	"github.com/ZaparooProject/go-fingerprint/internal/transport"
)

const (
	// DefaultBaudRate is the factory UART speed of the sensor family.
	DefaultBaudRate = 57600
	// pollTimeout bounds a single Read so the transaction engine can poll.
	pollTimeout = 10 * time.Millisecond
)

// ErrPortLocked is returned when another process holds the port lock.
var ErrPortLocked = errors.New("serial port is locked by another process")

// opener is swapped out in tests.
type opener func(name string, mode *serial.Mode) (serial.Port, error)

type config struct {
	open        opener
	lockDir     string
	baud        int
	openRetries int
	retryDelay  time.Duration
	noLock      bool
}

// Option configures the transport.
type Option func(*config)

// WithBaudRate sets the UART speed.
func WithBaudRate(baud int) Option {
	return func(c *config) { c.baud = baud }
}

// WithLockDir sets where the advisory lock file is created.
func WithLockDir(dir string) Option {
	return func(c *config) { c.lockDir = dir }
}

// WithoutLock disables the advisory port lock.
func WithoutLock() Option {
	return func(c *config) { c.noLock = true }
}

// WithOpenRetries retries a busy or missing port n times, delay apart.
// Useful right after a USB bridge re-enumerates.
func WithOpenRetries(n int, delay time.Duration) Option {
	return func(c *config) {
		c.openRetries = n
		c.retryDelay = delay
	}
}

// Transport implements fingerprint.Transport over a serial port.
type Transport struct {
	port     serial.Port
	lock     *portLock
	portName string
	baud     int
	mu       sync.Mutex
}

// New opens portName at 8N1 and takes the port lock.
func New(portName string, opts ...Option) (*Transport, error) {
	cfg := &config{
		open: serial.Open,
		baud: DefaultBaudRate,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.baud <= 0 {
		return nil, fmt.Errorf("%w: baud rate %d", fingerprint.ErrInvalidParameter, cfg.baud)
	}

	var lock *portLock
	if !cfg.noLock {
		var err error
		lock, err = acquireLock(cfg.lockDir, portName)
		if err != nil {
			return nil, err
		}
	}

	port, err := openPort(portName, cfg)
	if err != nil {
		lock.release()
		return nil, err
	}

	return &Transport{
		port:     port,
		lock:     lock,
		portName: portName,
		baud:     cfg.baud,
	}, nil
}

func openPort(portName string, cfg *config) (serial.Port, error) {
	mode := &serial.Mode{
		BaudRate: cfg.baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}

	var lastErr error
	port, err := transport.WithRetry(context.Background(), transport.RetryConfig{
		Description: "open " + portName,
		MaxRetries:  cfg.openRetries,
		RetryDelay:  cfg.retryDelay,
	}, func() (serial.Port, bool, error) {
		p, err := cfg.open(portName, mode)
		if err == nil {
			return p, false, nil
		}
		if isRetryableOpen(err) {
			lastErr = err
			return nil, true, nil
		}
		return nil, false, err
	})
	if errors.Is(err, transport.ErrRetriesExhausted) && lastErr != nil {
		err = fmt.Errorf("%w: %w", err, lastErr)
	}
	if err != nil {
		return nil, mapError("open", portName, err)
	}

	if err := port.SetReadTimeout(pollTimeout); err != nil {
		_ = port.Close()
		return nil, mapError("set read timeout", portName, err)
	}
	return port, nil
}

func isRetryableOpen(err error) bool {
	code, ok := portErrorCode(err)
	if !ok {
		return false
	}
	switch code {
	case serial.PortBusy, serial.PortNotFound:
		return true
	default:
		return false
	}
}

// Read returns pending bytes, or (0, nil) once the short poll timeout passes.
func (t *Transport) Read(p []byte) (int, error) {
	port, err := t.current("read")
	if err != nil {
		return 0, err
	}
	n, err := port.Read(p)
	if err != nil {
		return n, mapError("read", t.portName, err)
	}
	return n, nil
}

// Write sends p.
func (t *Transport) Write(p []byte) (int, error) {
	port, err := t.current("write")
	if err != nil {
		return 0, err
	}
	n, err := port.Write(p)
	if err != nil {
		return n, mapError("write", t.portName, err)
	}
	return n, nil
}

// Flush waits until the output buffer has drained.
func (t *Transport) Flush() error {
	port, err := t.current("flush")
	if err != nil {
		return err
	}
	if err := port.Drain(); err != nil {
		return mapError("drain", t.portName, err)
	}
	return nil
}

// Close closes the port and releases the lock. Closing twice is a no-op.
func (t *Transport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.port == nil {
		return nil
	}
	err := t.port.Close()
	t.port = nil
	t.lock.release()
	t.lock = nil
	if err != nil {
		return mapError("close", t.portName, err)
	}
	return nil
}

// IsConnected reports whether the port is open.
func (t *Transport) IsConnected() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.port != nil
}

// Type returns the transport type
func (*Transport) Type() fingerprint.TransportType {
	return fingerprint.TransportUART
}

// PortName returns the serial device path.
func (t *Transport) PortName() string {
	return t.portName
}

// BaudRate returns the configured UART speed.
func (t *Transport) BaudRate() int {
	return t.baud
}

func (t *Transport) current(op string) (serial.Port, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.port == nil {
		return nil, fingerprint.NewDisconnectedError(op, t.portName, nil)
	}
	return t.port, nil
}

// mapError classifies serial errors. Unplugged or closed ports become
// disconnect errors so the service loop stops.
func mapError(op, port string, err error) error {
	if isDisconnection(err) {
		return fingerprint.NewDisconnectedError(op, port, err)
	}
	if code, ok := portErrorCode(err); ok {
		switch code {
		case serial.PortBusy:
			return fingerprint.NewTransportError(op, port, err, fingerprint.ErrorTypeTransient)
		case serial.InvalidSpeed, serial.InvalidDataBits, serial.InvalidParity, serial.InvalidStopBits,
			serial.InvalidTimeoutValue, serial.PermissionDenied:
			return fingerprint.NewTransportError(op, port, err, fingerprint.ErrorTypePermanent)
		}
	}
	return fingerprint.NewTransportError(op, port, err, fingerprint.ErrorTypeTransient)
}

func isDisconnection(err error) bool {
	if code, ok := portErrorCode(err); ok {
		switch code {
		case serial.PortNotFound, serial.PortClosed, serial.InvalidSerialPort:
			return true
		default:
			return false
		}
	}

	// OS errors surface unwrapped on some platforms.
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "device not configured") ||
		strings.Contains(msg, "input/output error") ||
		strings.Contains(msg, "no such device") ||
		strings.Contains(msg, "device not found") ||
		strings.Contains(msg, "broken pipe") ||
		strings.Contains(msg, "bad file descriptor")
}

// portErrorCode extracts the serial error code. The library returns
// *PortError but values show up when callers wrap copies.
func portErrorCode(err error) (serial.PortErrorCode, bool) {
	var ptr *serial.PortError
	if errors.As(err, &ptr) && ptr != nil {
		return ptr.Code(), true
	}
	var val serial.PortError
	if errors.As(err, &val) {
		return val.Code(), true
	}
	return 0, false
}
