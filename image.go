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

// CaptureImage asks the sensor to take a finger image. With no finger on the
// window it returns a *SensorError with CodeNoFinger.
func (d *Device) CaptureImage(ctx context.Context) error {
	_, err := d.command(ctx, "capture image", cmdGetImage)
	return err
}

// ExtractFeatures converts the captured image into a feature set in slot.
func (d *Device) ExtractFeatures(ctx context.Context, slot Slot) error {
	if err := validateSlot(slot); err != nil {
		return err
	}
	_, err := d.command(ctx, "extract features", cmdImage2Tz, byte(slot))
	return err
}

// UploadImage transfers the last captured image from the sensor. Each byte
// holds two 4-bit pixels. The data packet length must be 32 or 64 bytes.
func (d *Device) UploadImage(ctx context.Context) ([]byte, error) {
	d.txMu.Lock()
	defer d.txMu.Unlock()

	code, _, err := d.exchange(ctx, cmdUpImage, nil)
	if err != nil {
		return nil, fmt.Errorf("upload image: %w", err)
	}
	if code != CodeOK {
		return nil, &SensorError{Op: "upload image", Code: code}
	}

	data, err := d.receiveData(ctx)
	if err != nil {
		return nil, fmt.Errorf("upload image: %w", err)
	}
	return data, nil
}

func validateSlot(slot Slot) error {
	if slot == 0 {
		return fmt.Errorf("%w: buffer slot must be non-zero", ErrInvalidParameter)
	}
	return nil
}
