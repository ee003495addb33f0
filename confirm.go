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

import "fmt"

// ConfirmationCode is the first payload byte of an acknowledgement packet.
type ConfirmationCode byte

// Confirmation codes reported by the sensor
const (
	CodeOK                ConfirmationCode = 0x00 // Command executed successfully
	CodePacketReceiveErr  ConfirmationCode = 0x01 // Error receiving data package
	CodeNoFinger          ConfirmationCode = 0x02 // No finger on the sensor
	CodeImageFail         ConfirmationCode = 0x03 // Failed to enroll the finger image
	CodeImageMessy        ConfirmationCode = 0x06 // Image too disorderly to generate features
	CodeFeatureFail       ConfirmationCode = 0x07 // Too few feature points
	CodeNoMatch           ConfirmationCode = 0x08 // Fingers do not match
	CodeNotFound          ConfirmationCode = 0x09 // No matching template in the library
	CodeEnrollMismatch    ConfirmationCode = 0x0A // Failed to combine character files
	CodeBadLocation       ConfirmationCode = 0x0B // Page id beyond the library
	CodeTemplateReadFail  ConfirmationCode = 0x0C // Error reading template, or invalid template
	CodeUploadFeatureFail ConfirmationCode = 0x0D // Error uploading template
	CodePacketResponseErr ConfirmationCode = 0x0E // Module can't receive the following data packages
	CodeUploadFail        ConfirmationCode = 0x0F // Error uploading image
	CodeDeleteFail        ConfirmationCode = 0x10 // Failed to delete the template
	CodeLibraryClearFail  ConfirmationCode = 0x11 // Failed to clear the library
	CodePasswordFail      ConfirmationCode = 0x13 // Wrong password
	CodeInvalidImage      ConfirmationCode = 0x15 // No valid primary image
	CodeFlashErr          ConfirmationCode = 0x18 // Error writing flash
	CodeInvalidRegister   ConfirmationCode = 0x1A // Invalid register number
	CodeRegisterConfig    ConfirmationCode = 0x1B // Incorrect register configuration
	CodeNotepadPage       ConfirmationCode = 0x1C // Wrong notepad page number
	CodeCommsFail         ConfirmationCode = 0x1D // Failed to operate the communication port
	CodeHandshakeOK       ConfirmationCode = 0x55 // Sensor ready, returned by handshake only
)

var confirmationNames = map[ConfirmationCode]string{
	CodeOK:                "ok",
	CodePacketReceiveErr:  "packet receive error",
	CodeNoFinger:          "no finger",
	CodeImageFail:         "image capture failed",
	CodeImageMessy:        "image too messy",
	CodeFeatureFail:       "feature extraction failed",
	CodeNoMatch:           "no match",
	CodeNotFound:          "not found",
	CodeEnrollMismatch:    "enroll mismatch",
	CodeBadLocation:       "bad location",
	CodeTemplateReadFail:  "template read failed",
	CodeUploadFeatureFail: "template upload failed",
	CodePacketResponseErr: "data packet response error",
	CodeUploadFail:        "image upload failed",
	CodeDeleteFail:        "delete failed",
	CodeLibraryClearFail:  "library clear failed",
	CodePasswordFail:      "wrong password",
	CodeInvalidImage:      "invalid image",
	CodeFlashErr:          "flash write error",
	CodeInvalidRegister:   "invalid register",
	CodeRegisterConfig:    "register configuration error",
	CodeNotepadPage:       "bad notepad page",
	CodeCommsFail:         "communication port failure",
	CodeHandshakeOK:       "handshake ok",
}

// String returns a readable description of the code.
func (c ConfirmationCode) String() string {
	if name, ok := confirmationNames[c]; ok {
		return name
	}
	return fmt.Sprintf("unknown code 0x%02X", byte(c))
}

// Retryable reports whether repeating the same command may succeed.
func (c ConfirmationCode) Retryable() bool {
	switch c {
	case CodePacketReceiveErr, CodeNoFinger, CodeImageFail, CodeImageMessy, CodeFeatureFail, CodeCommsFail:
		return true
	default:
		return false
	}
}
