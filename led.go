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
	"fmt"
)

// AuraControl selects the ring LED effect.
type AuraControl byte

// LED effects
const (
	AuraBreathing  AuraControl = 0x01
	AuraFlashing   AuraControl = 0x02
	AuraOn         AuraControl = 0x03
	AuraOff        AuraControl = 0x04
	AuraGradualOn  AuraControl = 0x05
	AuraGradualOff AuraControl = 0x06
)

// AuraColor selects the ring LED color.
type AuraColor byte

// LED colors
const (
	AuraRed    AuraColor = 0x01
	AuraBlue   AuraColor = 0x02
	AuraPurple AuraColor = 0x03
)

// LEDOn turns on the capture window backlight.
func (d *Device) LEDOn(ctx context.Context) error {
	_, err := d.command(ctx, "led on", cmdLEDOn)
	return err
}

// LEDOff turns off the capture window backlight.
func (d *Device) LEDOff(ctx context.Context) error {
	_, err := d.command(ctx, "led off", cmdLEDOff)
	return err
}

// LEDAura drives the ring LED. speed sets the effect period and times the
// number of cycles for breathing and flashing, 0 repeats forever.
func (d *Device) LEDAura(ctx context.Context, control AuraControl, speed byte, color AuraColor, times byte) error {
	if control < AuraBreathing || control > AuraGradualOff {
		return fmt.Errorf("%w: aura control 0x%02X", ErrInvalidParameter, byte(control))
	}
	_, err := d.command(ctx, "led aura", cmdAuraLEDConfig, byte(control), speed, byte(color), times)
	return err
}
