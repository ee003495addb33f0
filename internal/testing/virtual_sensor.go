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

package testing

import (
	"encoding/binary"
	"sync"
)

// NoFinger is the finger value meaning nothing is on the sensor window.
const NoFinger = 0

// VirtualSensor simulates sensor firmware for end-to-end tests. Fingers are
// identified by positive integers; a stored template matches any later
// capture of the same finger. Handle is safe for concurrent use.
type VirtualSensor struct {
	failures  map[byte][]byte
	slots     map[byte]int
	templates map[uint16]int
	model     string
	serial    string
	calls     []byte
	fingers   []int
	captured  int
	capacity  uint16
	password  uint32
	random    uint32
	mu        sync.Mutex
}

// NewVirtualSensor creates a sensor with an empty library of capacity templates.
func NewVirtualSensor(capacity uint16) *VirtualSensor {
	return &VirtualSensor{
		failures:  make(map[byte][]byte),
		slots:     make(map[byte]int),
		templates: make(map[uint16]int),
		model:     "R503",
		serial:    "00112233",
		capacity:  capacity,
		random:    0xDEADBEEF,
	}
}

// PlaceFinger puts finger on the window until further notice.
func (v *VirtualSensor) PlaceFinger(finger int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.fingers = []int{finger}
}

// RemoveFinger clears the window.
func (v *VirtualSensor) RemoveFinger() {
	v.PlaceFinger(NoFinger)
}

// ScriptFingers sets what successive captures see. The last entry repeats.
func (v *VirtualSensor) ScriptFingers(fingers ...int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.fingers = append([]int(nil), fingers...)
}

// FailNext makes the next cmd answer with code instead of its normal reply.
// Repeated calls queue further failures.
func (v *VirtualSensor) FailNext(cmd, code byte) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.failures[cmd] = append(v.failures[cmd], code)
}

// Enroll stores finger at id directly.
func (v *VirtualSensor) Enroll(id uint16, finger int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.templates[id] = finger
}

// Template returns the finger stored at id.
func (v *VirtualSensor) Template(id uint16) (int, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	finger, ok := v.templates[id]
	return finger, ok
}

// Count returns the number of stored templates.
func (v *VirtualSensor) Count() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.templates)
}

// Calls returns the opcodes received so far.
func (v *VirtualSensor) Calls() []byte {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]byte(nil), v.calls...)
}

// CallCount returns how often cmd was received.
func (v *VirtualSensor) CallCount(cmd byte) int {
	v.mu.Lock()
	defer v.mu.Unlock()
	n := 0
	for _, c := range v.calls {
		if c == cmd {
			n++
		}
	}
	return n
}

// Handle answers one command with a raw acknowledgement frame.
func (v *VirtualSensor) Handle(cmd byte, args []byte) []byte {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.calls = append(v.calls, cmd)
	if queue := v.failures[cmd]; len(queue) > 0 {
		v.failures[cmd] = queue[1:]
		if cmd == CmdGetImage {
			v.nextFinger()
		}
		return BuildErrorResponse(queue[0])
	}

	switch cmd {
	case CmdGetImage:
		return v.capture()
	case CmdImage2Tz:
		return v.extract(args)
	case CmdRegModel:
		return v.combine()
	case CmdStore:
		return v.store(args)
	case CmdLoad:
		return v.load(args)
	case CmdSearch, CmdHiSpeedSearch:
		return v.search(args)
	case CmdPairMatch:
		if v.slots[1] == NoFinger || v.slots[1] != v.slots[2] {
			return BuildErrorResponse(CodeNoMatch)
		}
		return BuildAck(CodeOK, 0x00, 0xC8)
	case CmdTemplateCount:
		return BuildCount(uint16(len(v.templates)))
	case CmdReadIndexTable:
		return v.indexPage(args)
	case CmdDelete:
		return v.remove(args)
	case CmdEmpty:
		clear(v.templates)
		return BuildAck(CodeOK)
	case CmdReadSysParam:
		return BuildSystemParams(v.capacity)
	case CmdReadProductInfo:
		return BuildProductInfo(v.model, v.serial, v.capacity)
	case CmdVerifyPassword:
		if len(args) != 4 || binary.BigEndian.Uint32(args) != v.password {
			return BuildErrorResponse(CodePasswordFail)
		}
		return BuildAck(CodeOK)
	case CmdSetPassword:
		if len(args) == 4 {
			v.password = binary.BigEndian.Uint32(args)
		}
		return BuildAck(CodeOK)
	case CmdGetRandom:
		return BuildRandom(v.random)
	case CmdHandshake:
		return BuildAck(CodeHandshakeOK)
	default:
		return BuildAck(CodeOK)
	}
}

// nextFinger pops the finger script; the last entry sticks.
func (v *VirtualSensor) nextFinger() int {
	if len(v.fingers) == 0 {
		return NoFinger
	}
	finger := v.fingers[0]
	if len(v.fingers) > 1 {
		v.fingers = v.fingers[1:]
	}
	return finger
}

func (v *VirtualSensor) capture() []byte {
	finger := v.nextFinger()
	if finger == NoFinger {
		return BuildErrorResponse(CodeNoFinger)
	}
	v.captured = finger
	return BuildAck(CodeOK)
}

func (v *VirtualSensor) extract(args []byte) []byte {
	if len(args) != 1 || v.captured == NoFinger {
		return BuildErrorResponse(CodeInvalidImage)
	}
	v.slots[args[0]] = v.captured
	return BuildAck(CodeOK)
}

func (v *VirtualSensor) combine() []byte {
	if v.slots[1] == NoFinger || v.slots[1] != v.slots[2] {
		return BuildErrorResponse(CodeEnrollMismatch)
	}
	return BuildAck(CodeOK)
}

func (v *VirtualSensor) store(args []byte) []byte {
	if len(args) != 3 {
		return BuildErrorResponse(CodeBadLocation)
	}
	id := binary.BigEndian.Uint16(args[1:3])
	if id >= v.capacity {
		return BuildErrorResponse(CodeBadLocation)
	}
	v.templates[id] = v.slots[args[0]]
	return BuildAck(CodeOK)
}

func (v *VirtualSensor) load(args []byte) []byte {
	if len(args) != 3 {
		return BuildErrorResponse(CodeBadLocation)
	}
	finger, ok := v.templates[binary.BigEndian.Uint16(args[1:3])]
	if !ok {
		return BuildErrorResponse(CodeTemplateReadFail)
	}
	v.slots[args[0]] = finger
	return BuildAck(CodeOK)
}

func (v *VirtualSensor) search(args []byte) []byte {
	if len(args) != 5 {
		return BuildErrorResponse(CodeNotFound)
	}
	finger := v.slots[args[0]]
	start := binary.BigEndian.Uint16(args[1:3])
	count := binary.BigEndian.Uint16(args[3:5])
	for id := start; id < start+count && id < v.capacity; id++ {
		if stored, ok := v.templates[id]; ok && stored == finger && finger != NoFinger {
			return BuildSearch(id, 150)
		}
	}
	return BuildErrorResponse(CodeNotFound)
}

func (v *VirtualSensor) indexPage(args []byte) []byte {
	if len(args) != 1 {
		return BuildErrorResponse(CodeBadLocation)
	}
	base := int(args[0]) * 256
	used := make([]int, 0, len(v.templates))
	for id := range v.templates {
		if rel := int(id) - base; rel >= 0 && rel < 256 {
			used = append(used, rel)
		}
	}
	return BuildIndexPage(used...)
}

func (v *VirtualSensor) remove(args []byte) []byte {
	if len(args) != 4 {
		return BuildErrorResponse(CodeDeleteFail)
	}
	id := binary.BigEndian.Uint16(args[0:2])
	count := binary.BigEndian.Uint16(args[2:4])
	for i := uint16(0); i < count; i++ {
		delete(v.templates, id+i)
	}
	return BuildAck(CodeOK)
}
