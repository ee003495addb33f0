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
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
)

// SystemParameters is the decoded response of the read-system-parameters command.
type SystemParameters struct {
	Status        uint16
	SystemID      uint16
	LibrarySize   uint16
	SecurityLevel uint16
	Address       uint32
	PacketLength  PacketLength
	BaudRate      uint16 // baud rate in units of 9600
}

// Baud returns the serial speed in bits per second.
func (p SystemParameters) Baud() int {
	return int(p.BaudRate) * 9600
}

// Pages returns how many template index pages cover the library.
func (p SystemParameters) Pages() int {
	return int(p.LibrarySize)/TemplatesPerPage + 1
}

// Busy reports whether the status register has the busy bit set.
func (p SystemParameters) Busy() bool {
	return p.Status&0x01 != 0
}

// ParseSystemParameters decodes the 16-byte response body.
func ParseSystemParameters(body []byte) (SystemParameters, error) {
	if len(body) != sysParamsBodyLength {
		return SystemParameters{}, fmt.Errorf("%w: system parameters need %d bytes, got %d",
			ErrProtocolShape, sysParamsBodyLength, len(body))
	}
	return SystemParameters{
		Status:        binary.BigEndian.Uint16(body[0:2]),
		SystemID:      binary.BigEndian.Uint16(body[2:4]),
		LibrarySize:   binary.BigEndian.Uint16(body[4:6]),
		SecurityLevel: binary.BigEndian.Uint16(body[6:8]),
		Address:       binary.BigEndian.Uint32(body[8:12]),
		PacketLength:  PacketLength(binary.BigEndian.Uint16(body[12:14])),
		BaudRate:      binary.BigEndian.Uint16(body[14:16]),
	}, nil
}

// ProductInfo is the decoded response of the read-product-info command.
type ProductInfo struct {
	Model           string
	Batch           string
	Serial          string
	SensorModel     string
	HardwareVersion uint16
	ImageWidth      uint16
	ImageHeight     uint16
	TemplateSize    uint16
	Capacity        uint16
}

// ParseProductInfo decodes the 46-byte response body.
func ParseProductInfo(body []byte) (ProductInfo, error) {
	if len(body) != productInfoBodyLength {
		return ProductInfo{}, fmt.Errorf("%w: product info needs %d bytes, got %d",
			ErrProtocolShape, productInfoBodyLength, len(body))
	}
	return ProductInfo{
		Model:           cString(body[0:16]),
		Batch:           cString(body[16:20]),
		Serial:          cString(body[20:28]),
		HardwareVersion: binary.BigEndian.Uint16(body[28:30]),
		SensorModel:     cString(body[30:38]),
		ImageWidth:      binary.BigEndian.Uint16(body[38:40]),
		ImageHeight:     binary.BigEndian.Uint16(body[40:42]),
		TemplateSize:    binary.BigEndian.Uint16(body[42:44]),
		Capacity:        binary.BigEndian.Uint16(body[44:46]),
	}, nil
}

// cString trims NUL padding and surrounding spaces from a fixed-width field.
func cString(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return string(bytes.TrimSpace(b))
}

// ReadSystemParameters reads and caches the system parameters. The cache is
// left untouched on any failure.
func (d *Device) ReadSystemParameters(ctx context.Context) (*SystemParameters, error) {
	body, err := d.commandShape(ctx, "read system parameters", sysParamsBodyLength, cmdReadSysParam)
	if err != nil {
		return nil, err
	}
	params, err := ParseSystemParameters(body)
	if err != nil {
		return nil, err
	}

	d.cacheMu.Lock()
	d.params = &params
	d.cacheMu.Unlock()
	return &params, nil
}

// ReadProductInfo reads and caches the product info.
func (d *Device) ReadProductInfo(ctx context.Context) (*ProductInfo, error) {
	body, err := d.commandShape(ctx, "read product info", productInfoBodyLength, cmdReadProductInfo)
	if err != nil {
		return nil, err
	}
	info, err := ParseProductInfo(body)
	if err != nil {
		return nil, err
	}

	d.cacheMu.Lock()
	d.info = &info
	d.cacheMu.Unlock()
	return &info, nil
}

// cachedParams returns cached parameters, reading them on first use.
func (d *Device) cachedParams(ctx context.Context) (SystemParameters, error) {
	if p, ok := d.Params(); ok {
		return p, nil
	}
	p, err := d.ReadSystemParameters(ctx)
	if err != nil {
		return SystemParameters{}, err
	}
	return *p, nil
}

// Param identifies a writable system parameter register.
type Param byte

// Writable parameter registers
const (
	ParamBaudRate      Param = 4
	ParamSecurityLevel Param = 5
	ParamPacketLength  Param = 6
)

// String returns the parameter name.
func (p Param) String() string {
	switch p {
	case ParamBaudRate:
		return "baud_rate"
	case ParamSecurityLevel:
		return "security_level"
	case ParamPacketLength:
		return "packet_length"
	default:
		return fmt.Sprintf("param_%d", byte(p))
	}
}

// Baud rate register values
const (
	Baud9600   byte = 1
	Baud19200  byte = 2
	Baud38400  byte = 4
	Baud57600  byte = 6
	Baud115200 byte = 12
)

// BaudCode converts a speed in bits per second to the register value.
func BaudCode(baud int) (byte, error) {
	switch baud {
	case 9600:
		return Baud9600, nil
	case 19200:
		return Baud19200, nil
	case 38400:
		return Baud38400, nil
	case 57600:
		return Baud57600, nil
	case 115200:
		return Baud115200, nil
	default:
		return 0, fmt.Errorf("%w: unsupported baud rate %d", ErrInvalidParameter, baud)
	}
}

// Security levels, 1 is the most permissive.
const (
	SecurityLevel1 byte = 1
	SecurityLevel2 byte = 2
	SecurityLevel3 byte = 3
	SecurityLevel4 byte = 4
	SecurityLevel5 byte = 5
)

// PacketLength is the data packet size register value.
type PacketLength uint16

// Data packet sizes
const (
	PacketLength32  PacketLength = 0
	PacketLength64  PacketLength = 1
	PacketLength128 PacketLength = 2
	PacketLength256 PacketLength = 3
)

// Bytes returns the data packet size in bytes.
func (l PacketLength) Bytes() int {
	if l > PacketLength256 {
		return 0
	}
	return 32 << l
}

func validateParam(param Param, value byte) error {
	switch param {
	case ParamBaudRate:
		switch value {
		case Baud9600, Baud19200, Baud38400, Baud57600, Baud115200:
			return nil
		}
	case ParamSecurityLevel:
		if value >= SecurityLevel1 && value <= SecurityLevel5 {
			return nil
		}
	case ParamPacketLength:
		if PacketLength(value) <= PacketLength256 {
			return nil
		}
	default:
		return fmt.Errorf("%w: unknown parameter %d", ErrInvalidParameter, byte(param))
	}
	return fmt.Errorf("%w: value %d out of range for %s", ErrInvalidParameter, value, param)
}

// GetParam reads the system parameters and returns the register value.
func (d *Device) GetParam(ctx context.Context, param Param) (uint16, error) {
	if err := validateParam(param, 1); err != nil {
		return 0, err
	}
	p, err := d.ReadSystemParameters(ctx)
	if err != nil {
		return 0, err
	}
	switch param {
	case ParamBaudRate:
		return p.BaudRate, nil
	case ParamSecurityLevel:
		return p.SecurityLevel, nil
	default:
		return uint16(p.PacketLength), nil
	}
}

// SetParam writes one parameter register. After a baud rate change the
// transport must be reopened at the new speed.
func (d *Device) SetParam(ctx context.Context, param Param, value byte) error {
	if err := validateParam(param, value); err != nil {
		return err
	}
	if _, err := d.command(ctx, "set "+param.String(), cmdSetSysParam, byte(param), value); err != nil {
		return err
	}

	d.cacheMu.Lock()
	defer d.cacheMu.Unlock()
	if d.params != nil {
		switch param {
		case ParamBaudRate:
			d.params.BaudRate = uint16(value)
		case ParamSecurityLevel:
			d.params.SecurityLevel = uint16(value)
		case ParamPacketLength:
			d.params.PacketLength = PacketLength(value)
		}
	}
	return nil
}
