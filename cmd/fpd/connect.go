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

package main

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	fingerprint "github.com/ZaparooProject/go-fingerprint"
	"github.com/ZaparooProject/go-fingerprint/detection"
	_ "github.com/ZaparooProject/go-fingerprint/detection/uart"
	"github.com/ZaparooProject/go-fingerprint/internal/config"
	"github.com/ZaparooProject/go-fingerprint/transport/uart"
)

const probeTimeout = 300 * time.Millisecond

func uartOptions(sc config.SerialConfig) []uart.Option {
	opts := []uart.Option{
		uart.WithBaudRate(sc.Baud),
		uart.WithOpenRetries(sc.OpenRetries, sc.RetryDelay),
	}
	if sc.LockDir != "" {
		opts = append(opts, uart.WithLockDir(sc.LockDir))
	}
	if sc.NoLock {
		opts = append(opts, uart.WithoutLock())
	}
	return opts
}

// probe answers whether a sensor is behind the port by sending a handshake.
func probe(sc config.SerialConfig) detection.ProbeFunc {
	return func(ctx context.Context, info detection.DeviceInfo) error {
		t, err := uart.New(info.Path, uart.WithBaudRate(sc.Baud), uart.WithoutLock())
		if err != nil {
			return err
		}
		defer func() { _ = t.Close() }()

		dev, err := fingerprint.New(t,
			fingerprint.WithAddress(sc.Address),
			fingerprint.WithTimeout(probeTimeout),
		)
		if err != nil {
			return err
		}
		return dev.Handshake(ctx)
	}
}

func (d *daemon) connect(ctx context.Context) (*fingerprint.Device, error) {
	sc := d.cfg.Serial
	opts := uartOptions(sc)

	devOpts := append(d.cfg.DeviceOptions(), fingerprint.WithLogger(d.logger.Named("sensor")))
	for _, tr := range d.tracers {
		devOpts = append(devOpts, fingerprint.WithTracer(tr))
	}
	for _, l := range d.listeners {
		devOpts = append(devOpts, fingerprint.WithListener(l))
	}

	factory := d.newTransport
	if factory == nil {
		factory = func(path string) (fingerprint.Transport, error) {
			return uart.New(path, opts...)
		}
	}
	connectOpts := []fingerprint.ConnectOption{
		fingerprint.WithDeviceOptions(devOpts...),
		fingerprint.WithTransportFactory(factory),
	}

	if sc.Port == "" {
		mode, err := d.cfg.DetectionMode()
		if err != nil {
			return nil, err
		}
		detectOpts := detection.DefaultOptions()
		detectOpts.Mode = mode
		detectOpts.Probe = probe(sc)
		connectOpts = append(connectOpts,
			fingerprint.WithAutoDetection(&detectOpts),
			fingerprint.WithTransportFromDeviceFactory(func(info detection.DeviceInfo) (fingerprint.Transport, error) {
				d.logger.Info("using detected port",
					zap.String("path", info.Path),
					zap.String("vidpid", info.VIDPID),
					zap.Bool("probed", info.Probed),
				)
				return uart.New(info.Path, opts...)
			}),
		)
	}

	device, err := fingerprint.ConnectDevice(ctx, sc.Port, connectOpts...)
	if err != nil {
		return nil, fmt.Errorf("connect sensor: %w", err)
	}
	return device, nil
}
