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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	testutil "github.com/ZaparooProject/go-fingerprint/internal/testing"
)

func TestFirstClearBit(t *testing.T) {
	t.Parallel()

	lastFree := bytes.Repeat([]byte{0xFF}, 32)
	lastFree[31] = 0xFE

	tests := []struct {
		name   string
		bitmap []byte
		page   int
		want   int
		wantOK bool
	}{
		{name: "empty page", bitmap: make([]byte, 32), want: 0, wantOK: true},
		{name: "last byte free on page 0", bitmap: lastFree, want: 8 * 31, wantOK: true},
		{name: "last byte free on page 2", bitmap: lastFree, page: 2, want: 512 + 8*31, wantOK: true},
		{name: "low bits used", bitmap: []byte{0x07}, want: 3, wantOK: true},
		{name: "skips full bytes", bitmap: []byte{0xFF, 0xFF, 0x7F}, want: 23, wantOK: true},
		{name: "three byte page", bitmap: []byte{0xFF, 0xFF, 0xFE}, want: 16, wantOK: true},
		{name: "full page", bitmap: bytes.Repeat([]byte{0xFF}, 32), wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, ok := firstClearBit(tt.page, tt.bitmap)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestFreeIndex(t *testing.T) {
	t.Parallel()

	lastFree := bytes.Repeat([]byte{0xFF}, 32)
	lastFree[31] = 0xFE

	tests := []struct {
		setup     func(*MockTransport)
		wantErr   error
		name      string
		library   uint16
		want      uint16
		wantPages int
	}{
		{
			name:    "first page empty",
			library: 200,
			setup: func(m *MockTransport) {
				m.SetRawResponse(testutil.CmdReadIndexTable, testutil.BuildIndexPage())
			},
			want:      0,
			wantPages: 1,
		},
		{
			name:    "gap in first page",
			library: 200,
			setup: func(m *MockTransport) {
				m.SetRawResponse(testutil.CmdReadIndexTable, testutil.BuildIndexPage(0, 1, 2, 4))
			},
			want:      3,
			wantPages: 1,
		},
		{
			name:    "only last id of page free",
			library: 256,
			setup: func(m *MockTransport) {
				m.SetResponse(cmdReadIndexTable, CodeOK, lastFree...)
			},
			want:      248,
			wantPages: 1,
		},
		{
			name:    "second page",
			library: 1000,
			setup: func(m *MockTransport) {
				m.QueueRawResponse(testutil.CmdReadIndexTable, testutil.BuildFullIndexPage())
				m.QueueRawResponse(testutil.CmdReadIndexTable, testutil.BuildIndexPage(0))
			},
			want:      257,
			wantPages: 2,
		},
		{
			name:    "all pages full",
			library: 1000,
			setup: func(m *MockTransport) {
				m.SetRawResponse(testutil.CmdReadIndexTable, testutil.BuildFullIndexPage())
			},
			wantErr:   ErrNoFreeIndex,
			wantPages: 4,
		},
		{
			name:    "free bit beyond capacity",
			library: 16,
			setup: func(m *MockTransport) {
				ids := make([]int, 16)
				for i := range ids {
					ids[i] = i
				}
				m.SetRawResponse(testutil.CmdReadIndexTable, testutil.BuildIndexPage(ids...))
			},
			wantErr:   ErrNoFreeIndex,
			wantPages: 1,
		},
		{
			name:    "sensor error is not no-free-index",
			library: 200,
			setup: func(m *MockTransport) {
				m.SetResponse(cmdReadIndexTable, CodeCommsFail)
			},
			wantErr:   &SensorError{Code: CodeCommsFail},
			wantPages: 1,
		},
		{
			name:      "timeout is not no-free-index",
			library:   200,
			setup:     func(*MockTransport) {},
			wantErr:   ErrTimeout,
			wantPages: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			device, mock := newTestDevice(t)
			mock.SetRawResponse(testutil.CmdReadSysParam, testutil.BuildSystemParams(tt.library))
			tt.setup(mock)

			id, err := device.FreeIndex(context.Background())
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				if tt.wantErr != ErrNoFreeIndex {
					assert.NotErrorIs(t, err, ErrNoFreeIndex)
				}
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.want, id)
			}
			assert.Equal(t, tt.wantPages, mock.GetCallCount(cmdReadIndexTable))
			assert.Equal(t, 1, mock.GetCallCount(cmdReadSysParam))
		})
	}
}

func TestFreeIndex_PageArgument(t *testing.T) {
	t.Parallel()
	device, mock := newTestDevice(t)
	mock.SetRawResponse(testutil.CmdReadSysParam, testutil.BuildSystemParams(600))
	mock.QueueRawResponse(testutil.CmdReadIndexTable, testutil.BuildFullIndexPage())
	mock.QueueRawResponse(testutil.CmdReadIndexTable, testutil.BuildFullIndexPage())
	mock.QueueRawResponse(testutil.CmdReadIndexTable, testutil.BuildIndexPage())

	id, err := device.FreeIndex(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint16(512), id)
	assert.Equal(t, []byte{2}, mock.LastArgs(cmdReadIndexTable))
}

func TestSearch(t *testing.T) {
	t.Parallel()

	t.Run("hit", func(t *testing.T) {
		t.Parallel()
		device, mock := newTestDevice(t)
		mock.SetRawResponse(testutil.CmdReadSysParam, testutil.BuildSystemParams(0x00C8))
		mock.SetRawResponse(testutil.CmdSearch, testutil.BuildSearch(17, 98))

		m, err := device.Search(context.Background(), Slot1)
		require.NoError(t, err)
		assert.Equal(t, Match{ID: 17, Score: 98}, m)
		assert.Equal(t, []byte{0x01, 0x00, 0x00, 0x00, 0xC8}, mock.LastArgs(cmdSearch))
	})

	t.Run("not found", func(t *testing.T) {
		t.Parallel()
		device, mock := newTestDevice(t)
		mock.SetRawResponse(testutil.CmdReadSysParam, testutil.BuildSystemParams(100))
		mock.SetResponse(cmdSearch, CodeNotFound)

		m, err := device.Search(context.Background(), Slot1)
		require.True(t, IsConfirmation(err, CodeNotFound))
		assert.Equal(t, Match{}, m)
	})

	t.Run("short body", func(t *testing.T) {
		t.Parallel()
		device, mock := newTestDevice(t)
		mock.SetRawResponse(testutil.CmdReadSysParam, testutil.BuildSystemParams(100))
		mock.SetResponse(cmdHiSpeedSearch, CodeOK, 0x00, 0x01)

		_, err := device.FastSearch(context.Background(), Slot2)
		require.ErrorIs(t, err, ErrProtocolShape)
	})

	t.Run("slot zero", func(t *testing.T) {
		t.Parallel()
		device, mock := newTestDevice(t)

		_, err := device.Search(context.Background(), 0)
		require.ErrorIs(t, err, ErrInvalidParameter)
		assert.Empty(t, mock.Calls())
	})
}

func TestTemplateCountAndEmpty(t *testing.T) {
	t.Parallel()
	device, mock := newTestDevice(t)
	mock.SetRawResponse(testutil.CmdTemplateCount, testutil.BuildCount(42))
	mock.SetResponse(cmdEmpty, CodeOK)

	n, err := device.TemplateCount(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint16(42), n)
	assert.Equal(t, uint16(42), device.CachedTemplateCount())

	require.NoError(t, device.EmptyLibrary(context.Background()))
	assert.Zero(t, device.CachedTemplateCount())
}
