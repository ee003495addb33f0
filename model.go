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

	"github.com/ZaparooProject/go-fingerprint/internal/frame"
)

// CombineModel merges the feature sets in slots 1 and 2 into a template held
// in both slots.
func (d *Device) CombineModel(ctx context.Context) error {
	_, err := d.command(ctx, "combine model", cmdRegModel)
	return err
}

// StoreModel writes the template in slot to flash at id.
func (d *Device) StoreModel(ctx context.Context, slot Slot, id uint16) error {
	if err := validateSlot(slot); err != nil {
		return err
	}
	_, err := d.command(ctx, "store model", cmdStore, byte(slot), byte(id>>8), byte(id))
	return err
}

// LoadModel reads the template at id from flash into slot.
func (d *Device) LoadModel(ctx context.Context, slot Slot, id uint16) error {
	if err := validateSlot(slot); err != nil {
		return err
	}
	_, err := d.command(ctx, "load model", cmdLoad, byte(slot), byte(id>>8), byte(id))
	return err
}

// DeleteModel removes count templates starting at id.
func (d *Device) DeleteModel(ctx context.Context, id, count uint16) error {
	if count == 0 {
		return fmt.Errorf("%w: delete count must be non-zero", ErrInvalidParameter)
	}
	_, err := d.command(ctx, "delete model", cmdDelete, byte(id>>8), byte(id), byte(count>>8), byte(count))
	return err
}

// MatchPair compares the feature sets in slots 1 and 2 and returns the score.
// A mismatch is a *SensorError with CodeNoMatch.
func (d *Device) MatchPair(ctx context.Context) (uint16, error) {
	body, err := d.commandShape(ctx, "match pair", scoreBodyLength, cmdPairMatch)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(body), nil
}

// UploadModel transfers the template in slot from the sensor to the host.
func (d *Device) UploadModel(ctx context.Context, slot Slot) ([]byte, error) {
	if err := validateSlot(slot); err != nil {
		return nil, err
	}

	d.txMu.Lock()
	defer d.txMu.Unlock()

	code, _, err := d.exchange(ctx, cmdUpChar, []byte{byte(slot)})
	if err != nil {
		return nil, fmt.Errorf("upload model: %w", err)
	}
	if code != CodeOK {
		return nil, &SensorError{Op: "upload model", Code: code}
	}

	data, err := d.receiveData(ctx)
	if err != nil {
		return nil, fmt.Errorf("upload model: %w", err)
	}
	return data, nil
}

// DownloadModel sends a template from the host into slot. The sensor's data
// packet length must be set to 32 bytes.
func (d *Device) DownloadModel(ctx context.Context, slot Slot, data []byte) error {
	if err := validateSlot(slot); err != nil {
		return err
	}
	if len(data) == 0 {
		return fmt.Errorf("%w: empty template", ErrInvalidParameter)
	}
	params, err := d.cachedParams(ctx)
	if err != nil {
		return fmt.Errorf("download model: %w", err)
	}
	chunk := params.PacketLength.Bytes()
	if chunk > frame.MaxCommandData {
		return fmt.Errorf("%w: data packet length %d, set it to 32", ErrInvalidParameter, chunk)
	}

	d.txMu.Lock()
	defer d.txMu.Unlock()

	code, _, err := d.exchange(ctx, cmdDownChar, []byte{byte(slot)})
	if err != nil {
		return fmt.Errorf("download model: %w", err)
	}
	if code != CodeOK {
		return &SensorError{Op: "download model", Code: code}
	}
	if err := d.sendData(data, chunk); err != nil {
		return fmt.Errorf("download model: %w", err)
	}
	return nil
}
