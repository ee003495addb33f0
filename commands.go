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

// Sensor command codes
const (
	cmdGetImage        = 0x01
	cmdImage2Tz        = 0x02
	cmdPairMatch       = 0x03
	cmdSearch          = 0x04
	cmdRegModel        = 0x05
	cmdStore           = 0x06
	cmdLoad            = 0x07
	cmdUpChar          = 0x08
	cmdDownChar        = 0x09
	cmdUpImage         = 0x0A
	cmdDelete          = 0x0C
	cmdEmpty           = 0x0D
	cmdSetSysParam     = 0x0E
	cmdReadSysParam    = 0x0F
	cmdSetPassword     = 0x12
	cmdVerifyPassword  = 0x13
	cmdGetRandom       = 0x14
	cmdHiSpeedSearch   = 0x1B
	cmdTemplateCount   = 0x1D
	cmdReadIndexTable  = 0x1F
	cmdStandby         = 0x33
	cmdAuraLEDConfig   = 0x35
	cmdReadProductInfo = 0x3C
	cmdHandshake       = 0x40
	cmdLEDOn           = 0x50
	cmdLEDOff          = 0x51
)

var commandNames = map[byte]string{
	cmdGetImage:        "get_image",
	cmdImage2Tz:        "image2tz",
	cmdPairMatch:       "match",
	cmdSearch:          "search",
	cmdRegModel:        "reg_model",
	cmdStore:           "store",
	cmdLoad:            "load",
	cmdUpChar:          "up_char",
	cmdDownChar:        "down_char",
	cmdUpImage:         "up_image",
	cmdDelete:          "delete",
	cmdEmpty:           "empty",
	cmdSetSysParam:     "set_sys_param",
	cmdReadSysParam:    "read_sys_param",
	cmdSetPassword:     "set_password",
	cmdVerifyPassword:  "verify_password",
	cmdGetRandom:       "get_random",
	cmdHiSpeedSearch:   "hi_speed_search",
	cmdTemplateCount:   "template_count",
	cmdReadIndexTable:  "read_index_table",
	cmdStandby:         "standby",
	cmdAuraLEDConfig:   "aura_led_config",
	cmdReadProductInfo: "read_product_info",
	cmdHandshake:       "handshake",
	cmdLEDOn:           "led_on",
	cmdLEDOff:          "led_off",
}

// CommandName returns a stable snake_case name for a command code, or its
// hex form when unknown.
func CommandName(cmd byte) string {
	if name, ok := commandNames[cmd]; ok {
		return name
	}
	return fmt.Sprintf("0x%02x", cmd)
}

// Expected response body lengths, excluding the confirmation code
const (
	sysParamsBodyLength   = 16
	productInfoBodyLength = 46
	countBodyLength       = 2
	searchBodyLength      = 4
	scoreBodyLength       = 2
	randomBodyLength      = 4
	indexPageBodyLength   = 32
)

// TemplatesPerPage is the number of template ids covered by one index page.
const TemplatesPerPage = 256

// Slot identifies one of the sensor's character buffers.
type Slot byte

// Character buffers used by enrollment and matching
const (
	Slot1 Slot = 0x01
	Slot2 Slot = 0x02
)
