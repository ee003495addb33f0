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

// Match is a library search hit.
type Match struct {
	ID    uint16
	Score uint16
}

// Search looks the feature set in slot up across the whole library. A miss is
// a *SensorError with CodeNotFound.
func (d *Device) Search(ctx context.Context, slot Slot) (Match, error) {
	return d.search(ctx, "search", cmdSearch, slot)
}

// FastSearch is Search using the sensor's high speed search command.
func (d *Device) FastSearch(ctx context.Context, slot Slot) (Match, error) {
	return d.search(ctx, "fast search", cmdHiSpeedSearch, slot)
}

func (d *Device) search(ctx context.Context, op string, cmd byte, slot Slot) (Match, error) {
	if err := validateSlot(slot); err != nil {
		return Match{}, err
	}
	params, err := d.cachedParams(ctx)
	if err != nil {
		return Match{}, fmt.Errorf("%s: %w", op, err)
	}

	size := params.LibrarySize
	body, err := d.commandShape(ctx, op, searchBodyLength, cmd,
		byte(slot), 0x00, 0x00, byte(size>>8), byte(size))
	if err != nil {
		return Match{}, err
	}
	return Match{
		ID:    binary.BigEndian.Uint16(body[0:2]),
		Score: binary.BigEndian.Uint16(body[2:4]),
	}, nil
}

// TemplateCount returns the number of stored templates and caches it.
func (d *Device) TemplateCount(ctx context.Context) (uint16, error) {
	body, err := d.commandShape(ctx, "template count", countBodyLength, cmdTemplateCount)
	if err != nil {
		return 0, err
	}
	count := binary.BigEndian.Uint16(body)

	d.cacheMu.Lock()
	d.count = count
	d.cacheMu.Unlock()
	return count, nil
}

// ReadIndexPage returns the 32-byte occupancy bitmap for one page of 256 ids.
// Bit n of byte i is set when id page*256 + i*8 + n is in use.
func (d *Device) ReadIndexPage(ctx context.Context, page byte) ([]byte, error) {
	return d.commandShape(ctx, "read index page", indexPageBodyLength, cmdReadIndexTable, page)
}

// FreeIndex returns the lowest unused template id, or ErrNoFreeIndex when
// every id in the library is taken.
func (d *Device) FreeIndex(ctx context.Context) (uint16, error) {
	params, err := d.cachedParams(ctx)
	if err != nil {
		return 0, fmt.Errorf("free index: %w", err)
	}

	for page := range params.Pages() {
		bitmap, err := d.ReadIndexPage(ctx, byte(page))
		if err != nil {
			return 0, err
		}
		id, ok := firstClearBit(page, bitmap)
		if !ok {
			continue
		}
		if params.LibrarySize > 0 && id >= int(params.LibrarySize) {
			break
		}
		return uint16(id), nil
	}
	return 0, ErrNoFreeIndex
}

// firstClearBit scans bytes in order and bits from least significant up.
func firstClearBit(page int, bitmap []byte) (int, bool) {
	for i, b := range bitmap {
		if b == 0xFF {
			continue
		}
		for bit := range 8 {
			if b&(1<<bit) == 0 {
				return page*TemplatesPerPage + i*8 + bit, true
			}
		}
	}
	return 0, false
}

// EmptyLibrary deletes every stored template.
func (d *Device) EmptyLibrary(ctx context.Context) error {
	if _, err := d.command(ctx, "empty library", cmdEmpty); err != nil {
		return err
	}
	d.cacheMu.Lock()
	d.count = 0
	d.cacheMu.Unlock()
	return nil
}
