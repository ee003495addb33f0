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
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ZaparooProject/go-fingerprint/internal/frame"
)

// Transact performs one command exchange and returns the confirmation code
// with the remaining response bytes. A non-zero code is not an error here.
// It never retries.
func (d *Device) Transact(ctx context.Context, cmd byte, args []byte) (ConfirmationCode, []byte, error) {
	d.txMu.Lock()
	defer d.txMu.Unlock()
	return d.exchange(ctx, cmd, args)
}

// command runs a transaction and converts a non-zero code into *SensorError.
func (d *Device) command(ctx context.Context, op string, cmd byte, args ...byte) ([]byte, error) {
	code, body, err := d.Transact(ctx, cmd, args)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if code != CodeOK {
		return body, &SensorError{Op: op, Code: code}
	}
	return body, nil
}

// commandShape is command plus an exact body length check.
func (d *Device) commandShape(ctx context.Context, op string, want int, cmd byte, args ...byte) ([]byte, error) {
	body, err := d.command(ctx, op, cmd, args...)
	if err != nil {
		return nil, err
	}
	if len(body) != want {
		return nil, fmt.Errorf("%s: %w: got %d body bytes, want %d", op, ErrProtocolShape, len(body), want)
	}
	return body, nil
}

// exchange must be called with txMu held.
func (d *Device) exchange(ctx context.Context, cmd byte, args []byte) (ConfirmationCode, []byte, error) {
	trace := &Trace{Started: time.Now(), Command: cmd}
	defer d.finishTrace(trace)

	payload := make([]byte, 0, len(args)+1)
	payload = append(payload, cmd)
	payload = append(payload, args...)

	raw, err := frame.Encode(d.config.Address, frame.PacketCommand, payload)
	if err != nil {
		trace.Err = err
		return 0, nil, err
	}
	trace.Sent = raw

	if err := d.send(raw); err != nil {
		trace.Err = err
		return 0, nil, err
	}

	f, err := d.receive(ctx, trace.Started.Add(d.config.Timeout))
	if err != nil {
		trace.Err = err
		return 0, nil, err
	}
	trace.Received = f.Bytes()

	if f.Type != frame.PacketAck {
		trace.Err = fmt.Errorf("%w: %s", ErrUnexpectedPacket, f.Type)
		return 0, nil, trace.Err
	}
	if len(f.Payload) == 0 {
		trace.Err = fmt.Errorf("%w: empty acknowledgement", ErrProtocolShape)
		return 0, nil, trace.Err
	}

	trace.Code = ConfirmationCode(f.Payload[0])
	return trace.Code, f.Payload[1:], nil
}

func (d *Device) send(raw []byte) error {
	d.logger.Debug("tx", zap.Binary("frame", raw))

	n, err := d.transport.Write(raw)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrTransportWrite, err)
	}
	if n != len(raw) {
		return fmt.Errorf("%w: short write %d of %d bytes", ErrTransportWrite, n, len(raw))
	}
	if err := d.transport.Flush(); err != nil {
		return fmt.Errorf("%w: flush: %w", ErrTransportWrite, err)
	}
	return nil
}

// receive reads one frame and maps codec failures onto the error taxonomy.
func (d *Device) receive(ctx context.Context, deadline time.Time) (*frame.Frame, error) {
	f, err := frame.Read(ctx, d.transport, deadline)
	switch {
	case err == nil:
		d.logger.Debug("rx", zap.Binary("frame", f.Bytes()))
		return f, nil
	case errors.Is(err, frame.ErrTimeout),
		errors.Is(err, frame.ErrChecksumMismatch),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return nil, err
	default:
		return nil, fmt.Errorf("%w: %w", ErrReceive, err)
	}
}

// receiveData collects data packets up to and including the end-of-data
// packet. Each packet gets a fresh receive window. Must hold txMu.
func (d *Device) receiveData(ctx context.Context) ([]byte, error) {
	var data []byte
	for {
		f, err := d.receive(ctx, time.Now().Add(d.config.Timeout))
		if err != nil {
			return nil, err
		}
		switch f.Type {
		case frame.PacketData:
			data = append(data, f.Payload...)
		case frame.PacketEndData:
			return append(data, f.Payload...), nil
		default:
			return nil, fmt.Errorf("%w: %s during data transfer", ErrUnexpectedPacket, f.Type)
		}
	}
}

// sendData writes data as a run of data packets of at most chunk bytes,
// the last one marked end-of-data. Must hold txMu.
func (d *Device) sendData(data []byte, chunk int) error {
	if chunk <= 0 || chunk > frame.MaxCommandData {
		return fmt.Errorf("%w: data packet size %d", ErrInvalidParameter, chunk)
	}
	for len(data) > 0 {
		n := min(chunk, len(data))
		packetType := frame.PacketData
		if n == len(data) {
			packetType = frame.PacketEndData
		}
		raw, err := frame.Encode(d.config.Address, packetType, data[:n])
		if err != nil {
			return err
		}
		if err := d.send(raw); err != nil {
			return err
		}
		data = data[n:]
	}
	return nil
}

func (d *Device) finishTrace(t *Trace) {
	t.Duration = time.Since(t.Started)
	if t.Err != nil {
		d.logger.Warn("transaction failed",
			zap.Uint8("command", t.Command),
			zap.Duration("elapsed", t.Duration),
			zap.Error(t.Err),
		)
	}
	for _, tr := range d.tracers {
		tr.TraceTransaction(t)
	}
}
