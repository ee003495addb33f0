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

package touch

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"
)

func TestTouched(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		opts     []Option
		level    gpio.Level
		wantPull gpio.Pull
		want     bool
	}{
		{name: "active low touched", level: gpio.Low, wantPull: gpio.PullUp, want: true},
		{name: "active low idle", level: gpio.High, wantPull: gpio.PullUp, want: false},
		{name: "active high touched", opts: []Option{WithActiveHigh()}, level: gpio.High, wantPull: gpio.PullDown, want: true},
		{name: "active high idle", opts: []Option{WithActiveHigh()}, level: gpio.Low, wantPull: gpio.PullDown, want: false},
		{name: "floating", opts: []Option{WithPull(gpio.Float)}, level: gpio.Low, wantPull: gpio.Float, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			pin := &gpiotest.Pin{N: "GPIO17"}
			g, err := New(pin, tt.opts...)
			require.NoError(t, err)
			assert.Equal(t, tt.wantPull, pin.P)
			assert.Equal(t, "GPIO17", g.Name())

			pin.L = tt.level
			got, err := g.Touched()
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

type brokenPin struct {
	gpiotest.Pin
}

func (*brokenPin) In(gpio.Pull, gpio.Edge) error {
	return errors.New("pin busy")
}

func TestNew_ConfigureFails(t *testing.T) {
	t.Parallel()
	_, err := New(&brokenPin{Pin: gpiotest.Pin{N: "GPIO4"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GPIO4")
}
