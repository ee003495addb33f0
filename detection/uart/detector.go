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

// Package uart registers a serial-port detector. Import it for its side
// effect:
//
//	import _ "github.com/ZaparooProject/go-fingerprint/detection/uart"
package uart

import (
	"context"
	"fmt"
	"strings"

	"go.bug.st/serial/enumerator"

	"github.com/ZaparooProject/go-fingerprint/detection"
)

// portLister is swapped out in tests.
type portLister func() ([]*enumerator.PortDetails, error)

type detector struct {
	list portLister
}

// New creates a serial-port detector.
func New() detection.Detector {
	return &detector{list: enumerator.GetDetailedPortsList}
}

func init() {
	detection.RegisterDetector(New())
}

// Transport returns "uart".
func (*detector) Transport() string {
	return "uart"
}

// Detect lists serial ports and drops blocked and ignored ones. When a probe
// is supplied outside passive mode, only ports where it succeeds are kept.
func (d *detector) Detect(ctx context.Context, opts *detection.Options) ([]detection.DeviceInfo, error) {
	ports, err := d.list()
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate serial ports: %w", err)
	}

	candidates := make([]detection.DeviceInfo, 0, len(ports))
	for _, p := range ports {
		candidates = append(candidates, toDeviceInfo(p))
	}
	candidates = detection.Filter(candidates, opts)

	var devices []detection.DeviceInfo
	for _, dev := range candidates {
		select {
		case <-ctx.Done():
			if len(devices) > 0 {
				return devices, nil
			}
			return nil, detection.ErrDetectionTimeout
		default:
		}

		switch {
		case opts.Mode == detection.Passive || opts.Probe == nil:
			devices = append(devices, dev)
		case !shouldProbe(dev, opts.Mode):
		case opts.Probe(ctx, dev) == nil:
			dev.Probed = true
			devices = append(devices, dev)
		}
	}

	if len(devices) == 0 {
		return nil, detection.ErrNoDevicesFound
	}
	return devices, nil
}

// shouldProbe reports whether a port is probed in mode. Safe mode only
// opens USB-UART bridges.
func shouldProbe(dev detection.DeviceInfo, mode detection.Mode) bool {
	switch mode {
	case detection.Full:
		return true
	case detection.Safe:
		return detection.IsSerialBridge(dev.VIDPID)
	default:
		return false
	}
}

func toDeviceInfo(p *enumerator.PortDetails) detection.DeviceInfo {
	info := detection.DeviceInfo{
		Transport: "uart",
		Path:      p.Name,
		Name:      p.Name,
		Metadata:  map[string]string{},
	}
	if p.IsUSB {
		info.VIDPID = detection.ParseVIDPID(p.VID + ":" + p.PID)
		info.Serial = p.SerialNumber
		if p.Product != "" {
			info.Name = strings.TrimSpace(p.Product)
			info.Metadata["product"] = info.Name
		}
		info.Metadata["usb"] = "true"
	}
	return info
}
