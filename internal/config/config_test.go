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

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	fingerprint "github.com/ZaparooProject/go-fingerprint"
	"github.com/ZaparooProject/go-fingerprint/detection"
	"github.com/ZaparooProject/go-fingerprint/service"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fpd.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func flagsFor(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	fs := pflag.NewFlagSet("fpd", pflag.ContinueOnError)
	RegisterFlags(fs)
	require.NoError(t, fs.Parse(args))
	return fs
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(nil)
	require.NoError(t, err)

	assert.Empty(t, cfg.Serial.Port)
	assert.Equal(t, 57600, cfg.Serial.Baud)
	assert.Equal(t, uint32(0xFFFFFFFF), cfg.Serial.Address)
	assert.Equal(t, uint32(0), cfg.Serial.Password)
	assert.Equal(t, 2*time.Second, cfg.Serial.Timeout)
	assert.Equal(t, 500*time.Millisecond, cfg.Service.Period)
	assert.Equal(t, 5*time.Second, cfg.Service.EnrollTimeout)
	assert.Equal(t, "console", cfg.Logging.Format)
	assert.Equal(t, ":8089", cfg.HTTP.Addr)
	assert.True(t, cfg.Metrics.Enable)
	assert.False(t, cfg.MQTT.Enable)

	sc, err := cfg.ServiceConfig()
	require.NoError(t, err)
	assert.Equal(t, service.DefaultConfig(), sc)
}

func TestLoad_FileEnvAndFlags(t *testing.T) {
	path := writeConfig(t, `
serial:
  port: /dev/ttyAMA0
  baud: 115200
  address: 0x12345678
service:
  mode: enroll
  period: 250ms
logging:
  level: debug
mqtt:
  enable: true
  broker: mqtt://broker:1883/home
`)
	t.Setenv("FPD_SERIAL_BAUD", "9600")
	t.Setenv("FPD_MQTT_NODE", "door")

	cfg, err := Load(flagsFor(t, "--config", path, "--log-level", "warn"))
	require.NoError(t, err)

	assert.Equal(t, "/dev/ttyAMA0", cfg.Serial.Port)
	assert.Equal(t, 9600, cfg.Serial.Baud, "env beats file")
	assert.Equal(t, uint32(0x12345678), cfg.Serial.Address)
	assert.Equal(t, "warn", cfg.Logging.Level, "flag beats file")
	assert.Equal(t, 250*time.Millisecond, cfg.Service.Period)
	assert.Equal(t, "door", cfg.MQTT.Node)
	assert.True(t, cfg.MQTT.Enable)

	sc, err := cfg.ServiceConfig()
	require.NoError(t, err)
	assert.Equal(t, fingerprint.StateEnrollStep1, sc.InitialState)
}

func TestLoad_UnchangedFlagsDoNotOverride(t *testing.T) {
	path := writeConfig(t, "serial:\n  port: /dev/ttyS1\n")
	cfg, err := Load(flagsFor(t, "-c", path))
	require.NoError(t, err)
	assert.Equal(t, "/dev/ttyS1", cfg.Serial.Port)

	cfg, err = Load(flagsFor(t, "-c", path, "-p", "/dev/ttyUSB9"))
	require.NoError(t, err)
	assert.Equal(t, "/dev/ttyUSB9", cfg.Serial.Port)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(flagsFor(t, "--config", filepath.Join(t.TempDir(), "absent.yaml")))
	require.Error(t, err)
}

func TestServiceConfig_Invalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		mutate func(*Config)
		name   string
	}{
		{name: "unknown mode", mutate: func(c *Config) { c.Service.Mode = "verify" }},
		{name: "unknown post enroll", mutate: func(c *Config) { c.Service.PostEnroll = "idle" }},
		{name: "zero period", mutate: func(c *Config) { c.Service.Period = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := &Config{Service: ServiceConfig{
				Mode:                "match",
				PostEnroll:          "enroll",
				Period:              time.Second,
				EnrollTimeout:       5 * time.Second,
				RemovalPollInterval: 50 * time.Millisecond,
			}}
			tt.mutate(cfg)
			_, err := cfg.ServiceConfig()
			require.ErrorIs(t, err, service.ErrInvalidConfig)
		})
	}
}

func TestDetectionMode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    detection.Mode
		wantErr bool
	}{
		{in: "", want: detection.Safe},
		{in: "Passive", want: detection.Passive},
		{in: "full", want: detection.Full},
		{in: "aggressive", wantErr: true},
	}
	for _, tt := range tests {
		cfg := &Config{Serial: SerialConfig{DetectMode: tt.in}}
		got, err := cfg.DetectionMode()
		if tt.wantErr {
			require.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestDeviceOptions(t *testing.T) {
	t.Parallel()
	cfg := &Config{Serial: SerialConfig{Address: 0x01020304, Password: 7, Timeout: time.Second}}

	device, err := fingerprint.New(fingerprint.NewMockTransport(), cfg.DeviceOptions()...)
	require.NoError(t, err)
	assert.Equal(t, uint32(0x01020304), device.Address())
	assert.Equal(t, uint32(7), device.Password())
	assert.Equal(t, time.Second, device.Timeout())
}
