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

// Package detection finds serial ports that may have a fingerprint sensor
// attached. Detectors register themselves on import; callers pick how
// intrusive the search may be with Mode.
package detection

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"
)

// Detection errors
var (
	ErrNoDevicesFound      = errors.New("no fingerprint sensors found")
	ErrDetectionTimeout    = errors.New("detection timed out")
	ErrUnsupportedPlatform = errors.New("detection not supported on this platform")
	ErrNoDetectors         = errors.New("no detectors registered")
)

// Mode controls whether candidate ports are opened during detection.
type Mode int

const (
	// Passive lists ports from OS metadata only.
	Passive Mode = iota
	// Safe probes ports whose USB ids look like serial bridges.
	Safe
	// Full probes every port that is not blocked or ignored.
	Full
)

// String returns the mode name.
func (m Mode) String() string {
	switch m {
	case Passive:
		return "passive"
	case Safe:
		return "safe"
	case Full:
		return "full"
	default:
		return "unknown"
	}
}

// DeviceInfo describes a detected port.
type DeviceInfo struct {
	Metadata  map[string]string
	Transport string
	Path      string
	Name      string
	VIDPID    string
	Serial    string
	Probed    bool
}

// ProbeFunc checks whether a sensor answers on a port. It is supplied by
// the caller because opening a port needs a concrete transport.
type ProbeFunc func(ctx context.Context, device DeviceInfo) error

// Options configures detection.
type Options struct {
	Probe       ProbeFunc
	Blocklist   []string
	IgnorePaths []string
	Timeout     time.Duration
	Mode        Mode
}

// DefaultOptions returns safe-mode detection with a 5 second budget.
func DefaultOptions() Options {
	return Options{
		Mode:      Safe,
		Blocklist: DefaultBlocklist(),
		Timeout:   5 * time.Second,
	}
}

// Detector finds devices for one transport.
type Detector interface {
	Detect(ctx context.Context, opts *Options) ([]DeviceInfo, error)
	Transport() string
}

var (
	registryMu sync.RWMutex
	registry   = map[string]Detector{}
)

// RegisterDetector makes d available to DetectAll. A detector registered
// twice for the same transport replaces the earlier one.
func RegisterDetector(d Detector) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[d.Transport()] = d
}

func detectors() []Detector {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	out := make([]Detector, 0, len(names))
	for _, name := range names {
		out = append(out, registry[name])
	}
	return out
}

// DetectAll runs every registered detector and returns the devices found,
// ordered by detector then port. Errors from individual detectors are only
// returned when nothing at all was found.
func DetectAll(opts *Options) ([]DeviceInfo, error) {
	if opts == nil {
		defaults := DefaultOptions()
		opts = &defaults
	}
	list := detectors()
	if len(list) == 0 {
		return nil, ErrNoDetectors
	}

	ctx := context.Background()
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	var devices []DeviceInfo
	var errs []error
	for _, d := range list {
		found, err := d.Detect(ctx, opts)
		if err != nil {
			if !errors.Is(err, ErrNoDevicesFound) {
				errs = append(errs, fmt.Errorf("%s: %w", d.Transport(), err))
			}
			continue
		}
		devices = append(devices, found...)
	}

	if len(devices) == 0 {
		if ctx.Err() != nil {
			return nil, ErrDetectionTimeout
		}
		if len(errs) > 0 {
			return nil, errors.Join(errs...)
		}
		return nil, ErrNoDevicesFound
	}
	return devices, nil
}

// Filter applies the blocklist and ignore paths of opts to devices.
func Filter(devices []DeviceInfo, opts *Options) []DeviceInfo {
	out := devices[:0:0]
	for _, d := range devices {
		if IsPathIgnored(d.Path, opts.IgnorePaths) {
			continue
		}
		if d.VIDPID != "" && IsBlocked(d.VIDPID, opts.Blocklist) {
			continue
		}
		out = append(out, d)
	}
	return out
}
