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

package detection

import (
	"path/filepath"
	"strings"
)

// DefaultBlocklist returns USB devices that must not be probed. Opening
// these ports resets the attached board or confuses its firmware.
// Format: VID:PID in hexadecimal (case-insensitive).
func DefaultBlocklist() []string {
	return []string{
		"2341:0043", // Arduino Uno, resets on open
		"2341:0001", // Arduino Uno (old bootloader)
		"1366:0105", // SEGGER J-Link CDC
		"0D28:0204", // ARM mbed DAPLink
	}
}

// serialBridges are the USB-UART chips sensor breakout boards ship with.
var serialBridges = []string{
	"1A86:7523", // WCH CH340
	"1A86:55D4", // WCH CH9102
	"10C4:EA60", // Silicon Labs CP210x
	"0403:6001", // FTDI FT232R
	"0403:6015", // FTDI FT231X
	"067B:2303", // Prolific PL2303
}

// IsBlocked checks if a USB device is in the blocklist.
func IsBlocked(vidpid string, blocklist []string) bool {
	return containsID(blocklist, vidpid)
}

// IsSerialBridge reports whether vidpid is a common USB-UART bridge chip.
func IsSerialBridge(vidpid string) bool {
	return containsID(serialBridges, vidpid)
}

func containsID(list []string, vidpid string) bool {
	vidpid = strings.ToUpper(strings.TrimSpace(vidpid))
	if vidpid == "" {
		return false
	}
	for _, id := range list {
		if strings.ToUpper(strings.TrimSpace(id)) == vidpid {
			return true
		}
	}
	return false
}

// ParseVIDPID extracts VID:PID from various USB descriptor formats:
// "VID:1234 PID:5678", "vendor=1234 product=5678" and "1234:5678".
func ParseVIDPID(descriptor string) string {
	descriptor = strings.ToUpper(strings.TrimSpace(descriptor))

	vid := hexAfter(descriptor, "VID:", "VENDOR=", "VID=")
	pid := hexAfter(descriptor, "PID:", "PRODUCT=", "PID=")
	if vid != "" && pid != "" {
		return vid + ":" + pid
	}

	if parts := strings.Split(descriptor, ":"); len(parts) == 2 && isHex(parts[0]) && isHex(parts[1]) {
		return descriptor
	}
	return ""
}

// hexAfter returns the hex digits following the first prefix found.
func hexAfter(s string, prefixes ...string) string {
	for _, p := range prefixes {
		if idx := strings.Index(s, p); idx >= 0 {
			return extractHex(s[idx+len(p):])
		}
	}
	return ""
}

// extractHex extracts the first sequence of hex digits from a string.
func extractHex(s string) string {
	s = strings.TrimLeft(s, " ")
	end := 0
	for end < len(s) && isHexDigit(rune(s[end])) {
		end++
	}
	return s[:end]
}

func isHexDigit(r rune) bool {
	return (r >= '0' && r <= '9') || (r >= 'A' && r <= 'F') || (r >= 'a' && r <= 'f')
}

func isHex(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !isHexDigit(r) {
			return false
		}
	}
	return true
}

// IsPathIgnored checks if a device path should be ignored, comparing both
// the raw and the cleaned, case-folded form.
func IsPathIgnored(devicePath string, ignorePaths []string) bool {
	if devicePath == "" || len(ignorePaths) == 0 {
		return false
	}

	normalizedDevice := normalizedPath(devicePath)
	for _, ignorePath := range ignorePaths {
		if ignorePath == "" {
			continue
		}
		if devicePath == ignorePath || normalizedDevice == normalizedPath(ignorePath) {
			return true
		}
	}
	return false
}

// normalizedPath normalizes a device path for comparison
func normalizedPath(path string) string {
	return strings.ToLower(filepath.Clean(path))
}
