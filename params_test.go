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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	testutil "github.com/ZaparooProject/go-fingerprint/internal/testing"
)

func TestParseSystemParameters(t *testing.T) {
	t.Parallel()

	body := []byte{
		0x00, 0x01, // status
		0x00, 0x00, // system id
		0x00, 0x64, // library size
		0x00, 0x03, // security level
		0xFF, 0xFF, 0xFF, 0xFF, // address
		0x00, 0x02, // packet length
		0x00, 0x06, // baud
	}
	p, err := ParseSystemParameters(body)
	require.NoError(t, err)
	assert.Equal(t, uint16(100), p.LibrarySize)
	assert.Equal(t, uint16(3), p.SecurityLevel)
	assert.Equal(t, uint32(0xFFFFFFFF), p.Address)
	assert.Equal(t, PacketLength128, p.PacketLength)
	assert.Equal(t, 128, p.PacketLength.Bytes())
	assert.Equal(t, 57600, p.Baud())
	assert.True(t, p.Busy())
	assert.Equal(t, 1, p.Pages())

	_, err = ParseSystemParameters(body[:15])
	require.ErrorIs(t, err, ErrProtocolShape)
}

func TestSystemParametersPages(t *testing.T) {
	t.Parallel()
	tests := []struct {
		size uint16
		want int
	}{
		{size: 0, want: 1},
		{size: 100, want: 1},
		{size: 255, want: 1},
		{size: 256, want: 2},
		{size: 1000, want: 4},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SystemParameters{LibrarySize: tt.size}.Pages(), "size %d", tt.size)
	}
}

func TestParseProductInfo(t *testing.T) {
	t.Parallel()

	info, err := ParseProductInfo(testutil.ProductInfoBody("R503", "SN123456", 200))
	require.NoError(t, err)
	assert.Equal(t, "R503", info.Model)
	assert.Equal(t, "B001", info.Batch)
	assert.Equal(t, "SN123456", info.Serial)
	assert.Equal(t, "FPS0001", info.SensorModel)
	assert.Equal(t, uint16(0x0102), info.HardwareVersion)
	assert.Equal(t, uint16(192), info.ImageWidth)
	assert.Equal(t, uint16(192), info.ImageHeight)
	assert.Equal(t, uint16(1536), info.TemplateSize)
	assert.Equal(t, uint16(200), info.Capacity)

	_, err = ParseProductInfo(make([]byte, 45))
	require.ErrorIs(t, err, ErrProtocolShape)
}

func TestReadSystemParameters_ShapeLeavesCache(t *testing.T) {
	t.Parallel()
	device, mock := newTestDevice(t)

	mock.QueueRawResponse(cmdReadSysParam, testutil.BuildSystemParams(150))
	mock.QueueResponse(cmdReadSysParam, CodeOK, make([]byte, 12)...)

	_, err := device.ReadSystemParameters(context.Background())
	require.NoError(t, err)

	_, err = device.ReadSystemParameters(context.Background())
	require.ErrorIs(t, err, ErrProtocolShape)

	p, ok := device.Params()
	require.True(t, ok)
	assert.Equal(t, uint16(150), p.LibrarySize)
}

func TestReadProductInfo_SensorError(t *testing.T) {
	t.Parallel()
	device, mock := newTestDevice(t)
	mock.SetResponse(cmdReadProductInfo, CodeCommsFail)

	_, err := device.ReadProductInfo(context.Background())
	require.True(t, IsConfirmation(err, CodeCommsFail))
	_, ok := device.Info()
	assert.False(t, ok)
}

func TestSetParam(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		param    Param
		value    byte
		wantArgs []byte
		wantErr  bool
	}{
		{name: "baud 115200", param: ParamBaudRate, value: Baud115200, wantArgs: []byte{4, 12}},
		{name: "security 5", param: ParamSecurityLevel, value: SecurityLevel5, wantArgs: []byte{5, 5}},
		{name: "packet 32", param: ParamPacketLength, value: byte(PacketLength32), wantArgs: []byte{6, 0}},
		{name: "bad baud", param: ParamBaudRate, value: 3, wantErr: true},
		{name: "security 0", param: ParamSecurityLevel, value: 0, wantErr: true},
		{name: "packet 512", param: ParamPacketLength, value: 4, wantErr: true},
		{name: "unknown param", param: Param(9), value: 1, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			device, mock := newTestDevice(t)
			mock.SetRawResponse(testutil.CmdReadSysParam, testutil.BuildSystemParams(100))
			mock.SetResponse(cmdSetSysParam, CodeOK)
			_, err := device.ReadSystemParameters(context.Background())
			require.NoError(t, err)

			err = device.SetParam(context.Background(), tt.param, tt.value)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidParameter)
				assert.Zero(t, mock.GetCallCount(cmdSetSysParam))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantArgs, mock.LastArgs(cmdSetSysParam))

			got, err := device.GetParam(context.Background(), tt.param)
			require.NoError(t, err)
			// GetParam re-reads the sensor, which still reports the old values.
			assert.NotZero(t, got)
		})
	}
}

func TestSetParam_UpdatesCache(t *testing.T) {
	t.Parallel()
	device, mock := newTestDevice(t)
	mock.SetRawResponse(testutil.CmdReadSysParam, testutil.BuildSystemParams(100))
	mock.SetResponse(cmdSetSysParam, CodeOK)

	_, err := device.ReadSystemParameters(context.Background())
	require.NoError(t, err)
	require.NoError(t, device.SetParam(context.Background(), ParamSecurityLevel, SecurityLevel1))

	p, _ := device.Params()
	assert.Equal(t, uint16(1), p.SecurityLevel)
}

func TestBaudCode(t *testing.T) {
	t.Parallel()

	code, err := BaudCode(57600)
	require.NoError(t, err)
	assert.Equal(t, Baud57600, code)

	_, err = BaudCode(4800)
	require.ErrorIs(t, err, ErrInvalidParameter)
}
