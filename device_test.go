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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	testutil "github.com/ZaparooProject/go-fingerprint/internal/testing"
)

func TestNew(t *testing.T) {
	t.Parallel()

	tests := []struct {
		transport Transport
		name      string
		opts      []Option
		wantErr   bool
	}{
		{
			name:      "Valid_MockTransport",
			transport: NewMockTransport(),
		},
		{
			name:      "Nil_Transport",
			transport: nil,
			wantErr:   true,
		},
		{
			name:      "Invalid_Timeout",
			transport: NewMockTransport(),
			opts:      []Option{WithTimeout(0)},
			wantErr:   true,
		},
		{
			name:      "Nil_Logger",
			transport: NewMockTransport(),
			opts:      []Option{WithLogger(nil)},
			wantErr:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			device, err := New(tt.transport, tt.opts...)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidParameter)
				assert.Nil(t, device)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.transport, device.Transport())
			assert.Equal(t, DefaultAddress, device.Address())
			assert.Equal(t, DefaultPassword, device.Password())
			assert.Equal(t, DefaultTimeout, device.Timeout())
			assert.False(t, device.Ready())
		})
	}
}

func TestNew_Options(t *testing.T) {
	t.Parallel()

	device, err := New(NewMockTransport(),
		WithAddress(0x12345678),
		WithPassword(0xCAFEBABE),
		WithTimeout(250*time.Millisecond),
	)
	require.NoError(t, err)
	assert.Equal(t, uint32(0x12345678), device.Address())
	assert.Equal(t, uint32(0xCAFEBABE), device.Password())
	assert.Equal(t, 250*time.Millisecond, device.Timeout())
}

func TestDevice_Init(t *testing.T) {
	t.Parallel()

	var events []Event
	device, mock := newTestDevice(t, WithListener(ListenerFunc(func(ev Event) {
		events = append(events, ev)
	})))

	sensor := testutil.NewVirtualSensor(300)
	sensor.Enroll(4, 1)
	sensor.Enroll(9, 2)
	mock.SetHandler(sensor.Handle)

	require.NoError(t, device.Init(context.Background()))
	assert.True(t, device.Ready())
	assert.Equal(t, []byte{
		testutil.CmdVerifyPassword,
		testutil.CmdReadSysParam,
		testutil.CmdReadProductInfo,
		testutil.CmdTemplateCount,
	}, mock.Calls())

	params, ok := device.Params()
	require.True(t, ok)
	assert.Equal(t, uint16(300), params.LibrarySize)

	info, ok := device.Info()
	require.True(t, ok)
	assert.Equal(t, "R503", info.Model)
	assert.Equal(t, uint16(2), device.CachedTemplateCount())

	require.Len(t, events, 1)
	initEv, ok := events[0].(Initialized)
	require.True(t, ok)
	assert.Equal(t, uint16(2), initEv.TemplateCount)
	assert.Equal(t, uint16(300), initEv.Params.LibrarySize)
	assert.Equal(t, "00112233", initEv.Info.Serial)
}

func TestDevice_InitFailures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		setup     func(*MockTransport)
		wantErr   error
		name      string
		wantCalls int
	}{
		{
			name: "wrong password",
			setup: func(m *MockTransport) {
				m.SetResponse(cmdVerifyPassword, CodePasswordFail)
			},
			wantErr:   &SensorError{Code: CodePasswordFail},
			wantCalls: 1,
		},
		{
			name: "short system parameters",
			setup: func(m *MockTransport) {
				m.SetResponse(cmdVerifyPassword, CodeOK)
				m.SetResponse(cmdReadSysParam, CodeOK, make([]byte, 10)...)
			},
			wantErr:   ErrProtocolShape,
			wantCalls: 2,
		},
		{
			name: "product info timeout",
			setup: func(m *MockTransport) {
				m.SetResponse(cmdVerifyPassword, CodeOK)
				m.SetRawResponse(cmdReadSysParam, testutil.BuildSystemParams(100))
			},
			wantErr:   ErrTimeout,
			wantCalls: 3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var events int
			device, mock := newTestDevice(t, WithListener(ListenerFunc(func(Event) { events++ })))
			tt.setup(mock)

			err := device.Init(context.Background())
			require.ErrorIs(t, err, tt.wantErr)
			assert.False(t, device.Ready())
			assert.Len(t, mock.Calls(), tt.wantCalls)
			assert.Zero(t, events)
		})
	}
}

func TestDevice_InitLogs(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zap.InfoLevel)
	device, mock := newTestDevice(t, WithLogger(zap.New(core)))
	mock.SetHandler(testutil.NewVirtualSensor(100).Handle)

	require.NoError(t, device.Init(context.Background()))
	entries := logs.FilterMessage("sensor initialized").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "R503", entries[0].ContextMap()["model"])
	assert.Equal(t, "mock", entries[0].ContextMap()["port"])
}

func TestConnectDevice(t *testing.T) {
	t.Parallel()

	mock := NewMockTransport()
	mock.SetHandler(testutil.NewVirtualSensor(100).Handle)

	var gotPath string
	device, err := ConnectDevice(context.Background(), "/dev/ttyUSB0",
		WithTransportFactory(func(path string) (Transport, error) {
			gotPath = path
			return mock, nil
		}),
		WithDeviceOptions(WithTimeout(testTimeout)),
	)
	require.NoError(t, err)
	assert.Equal(t, "/dev/ttyUSB0", gotPath)
	assert.True(t, device.Ready())
	require.NoError(t, device.Close())
}

func TestConnectDevice_Failures(t *testing.T) {
	t.Parallel()

	t.Run("factory error", func(t *testing.T) {
		t.Parallel()
		boom := errors.New("port busy")
		_, err := ConnectDevice(context.Background(), "/dev/ttyUSB0",
			WithTransportFactory(func(string) (Transport, error) { return nil, boom }))
		require.ErrorIs(t, err, boom)
	})

	t.Run("missing factory", func(t *testing.T) {
		t.Parallel()
		_, err := ConnectDevice(context.Background(), "/dev/ttyUSB0")
		require.Error(t, err)
	})

	t.Run("init failure closes transport", func(t *testing.T) {
		t.Parallel()
		mock := NewMockTransport()
		mock.SetResponse(cmdVerifyPassword, CodePasswordFail)

		_, err := ConnectDevice(context.Background(), "/dev/ttyUSB0",
			WithTransportFactory(func(string) (Transport, error) { return mock, nil }),
			WithDeviceOptions(WithTimeout(testTimeout)),
		)
		require.True(t, IsConfirmation(err, CodePasswordFail))

		_, err = mock.Write(AckFrame(CodeOK))
		require.ErrorIs(t, err, ErrDeviceNotConnected)
	})
}

func TestDevice_Close(t *testing.T) {
	t.Parallel()
	device, _ := newTestDevice(t)

	require.NoError(t, device.Close())
	_, _, err := device.Transact(context.Background(), cmdHandshake, nil)
	require.ErrorIs(t, err, ErrTransportWrite)
	assert.True(t, IsDisconnected(err))
}
