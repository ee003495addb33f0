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
	"encoding/binary"
	"fmt"
)

// VerifyPassword presents the session password to the sensor.
func (d *Device) VerifyPassword(ctx context.Context) error {
	pw := d.config.Password
	_, err := d.command(ctx, "verify password", cmdVerifyPassword,
		byte(pw>>24), byte(pw>>16), byte(pw>>8), byte(pw))
	return err
}

// SetPassword changes the sensor password. The session password is only
// updated once the sensor confirms.
func (d *Device) SetPassword(ctx context.Context, password uint32) error {
	_, err := d.command(ctx, "set password", cmdSetPassword,
		byte(password>>24), byte(password>>16), byte(password>>8), byte(password))
	if err != nil {
		return err
	}
	d.config.Password = password
	return nil
}

// Password returns the session password.
func (d *Device) Password() uint32 {
	return d.config.Password
}

// Handshake checks that the sensor is up. Success is the dedicated handshake
// code, not the generic OK code.
func (d *Device) Handshake(ctx context.Context) error {
	code, _, err := d.Transact(ctx, cmdHandshake, nil)
	if err != nil {
		return fmt.Errorf("handshake: %w", err)
	}
	if code != CodeHandshakeOK {
		return fmt.Errorf("%w: %w", ErrHandshakeFailed, &SensorError{Op: "handshake", Code: code})
	}
	return nil
}

// Random returns a 32-bit random number from the sensor.
func (d *Device) Random(ctx context.Context) (uint32, error) {
	body, err := d.commandShape(ctx, "random", randomBodyLength, cmdGetRandom)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(body), nil
}

// Standby puts the sensor into its low power state until the next touch.
func (d *Device) Standby(ctx context.Context) error {
	_, err := d.command(ctx, "standby", cmdStandby)
	return err
}
