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
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	fingerprint "github.com/ZaparooProject/go-fingerprint"
)

var errUsage = errors.New("usage")

type command struct {
	run   func(s *shell, ctx context.Context, args []string) error
	name  string
	usage string
}

var commands = []command{
	{name: "info", usage: "info", run: (*shell).info},
	{name: "param", usage: "param <baud|security|packet> [value]", run: (*shell).param},
	{name: "count", usage: "count", run: (*shell).count},
	{name: "free", usage: "free", run: (*shell).free},
	{name: "search", usage: "search", run: (*shell).search},
	{name: "enroll", usage: "enroll [id]", run: (*shell).enroll},
	{name: "delete", usage: "delete <id> [count]", run: (*shell).remove},
	{name: "empty", usage: "empty", run: (*shell).empty},
	{name: "led", usage: "led <on|off>", run: (*shell).led},
	{name: "aura", usage: "aura <control> <speed> <color> <times>", run: (*shell).aura},
	{name: "random", usage: "random", run: (*shell).random},
	{name: "handshake", usage: "handshake", run: (*shell).handshake},
	{name: "standby", usage: "standby", run: (*shell).standby},
	{name: "setpwd", usage: "setpwd <password>", run: (*shell).setPassword},
}

type shell struct {
	device *fingerprint.Device
	out    io.Writer
	// fingerWait bounds how long enroll and search wait for a finger.
	fingerWait time.Duration
	poll       time.Duration
}

func newShell(device *fingerprint.Device, out io.Writer) *shell {
	return &shell{device: device, out: out, fingerWait: 10 * time.Second, poll: 100 * time.Millisecond}
}

// exec runs one line and reports whether the shell should exit.
func (s *shell) exec(ctx context.Context, line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}
	name, args := strings.ToLower(fields[0]), fields[1:]

	switch name {
	case "quit", "exit", "q":
		return true
	case "help", "?":
		s.help()
		return false
	}

	for _, c := range commands {
		if c.name != name {
			continue
		}
		if err := c.run(s, ctx, args); err != nil {
			if errors.Is(err, errUsage) {
				s.printf("usage: %s\n", c.usage)
			} else {
				s.printf("error: %v\n", err)
			}
		}
		return false
	}
	s.printf("unknown command: %s (type 'help' for commands)\n", name)
	return false
}

func (s *shell) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(s.out, format, args...)
}

func (s *shell) help() {
	s.printf("commands:\n")
	for _, c := range commands {
		s.printf("  %s\n", c.usage)
	}
	s.printf("  help\n  quit\n")
}

func (s *shell) dump(v any) error {
	enc := yaml.NewEncoder(s.out)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

type infoView struct {
	Model        string `yaml:"model"`
	Serial       string `yaml:"serial"`
	Sensor       string `yaml:"sensor"`
	Address      string `yaml:"address"`
	Baud         int    `yaml:"baud"`
	PacketBytes  int    `yaml:"packet_bytes"`
	Capacity     uint16 `yaml:"capacity"`
	Security     uint16 `yaml:"security_level"`
	Templates    uint16 `yaml:"templates"`
	ImageWidth   uint16 `yaml:"image_width"`
	ImageHeight  uint16 `yaml:"image_height"`
	TemplateSize uint16 `yaml:"template_size"`
}

func (s *shell) info(ctx context.Context, _ []string) error {
	params, err := s.device.ReadSystemParameters(ctx)
	if err != nil {
		return err
	}
	pi, err := s.device.ReadProductInfo(ctx)
	if err != nil {
		return err
	}
	count, err := s.device.TemplateCount(ctx)
	if err != nil {
		return err
	}
	return s.dump(infoView{
		Model:        pi.Model,
		Serial:       pi.Serial,
		Sensor:       pi.SensorModel,
		Address:      fmt.Sprintf("0x%08X", params.Address),
		Baud:         params.Baud(),
		PacketBytes:  params.PacketLength.Bytes(),
		Capacity:     params.LibrarySize,
		Security:     params.SecurityLevel,
		Templates:    count,
		ImageWidth:   pi.ImageWidth,
		ImageHeight:  pi.ImageHeight,
		TemplateSize: pi.TemplateSize,
	})
}

var paramNames = map[string]fingerprint.Param{
	"baud":     fingerprint.ParamBaudRate,
	"security": fingerprint.ParamSecurityLevel,
	"packet":   fingerprint.ParamPacketLength,
}

func (s *shell) param(ctx context.Context, args []string) error {
	if len(args) == 0 || len(args) > 2 {
		return errUsage
	}
	p, ok := paramNames[strings.ToLower(args[0])]
	if !ok {
		return errUsage
	}
	if len(args) == 1 {
		v, err := s.device.GetParam(ctx, p)
		if err != nil {
			return err
		}
		return s.dump(map[string]uint16{args[0]: v})
	}
	v, err := strconv.ParseUint(args[1], 0, 8)
	if err != nil {
		return errUsage
	}
	if err := s.device.SetParam(ctx, p, byte(v)); err != nil {
		return err
	}
	s.printf("ok\n")
	return nil
}

func (s *shell) count(ctx context.Context, _ []string) error {
	n, err := s.device.TemplateCount(ctx)
	if err != nil {
		return err
	}
	return s.dump(map[string]uint16{"templates": n})
}

func (s *shell) free(ctx context.Context, _ []string) error {
	id, err := s.device.FreeIndex(ctx)
	if err != nil {
		return err
	}
	return s.dump(map[string]uint16{"free": id})
}

// waitFinger polls until an image is captured.
func (s *shell) waitFinger(ctx context.Context) error {
	deadline := time.Now().Add(s.fingerWait)
	for {
		err := s.device.CaptureImage(ctx)
		if err == nil {
			return nil
		}
		if !fingerprint.IsConfirmation(err, fingerprint.CodeNoFinger) {
			return err
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("no finger within %s", s.fingerWait)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(s.poll):
		}
	}
}

func (s *shell) waitRemoval(ctx context.Context) error {
	deadline := time.Now().Add(s.fingerWait)
	for {
		err := s.device.CaptureImage(ctx)
		if fingerprint.IsConfirmation(err, fingerprint.CodeNoFinger) {
			return nil
		}
		if err != nil && fingerprint.IsDisconnected(err) {
			return err
		}
		if time.Now().After(deadline) {
			return fingerprint.ErrRemovalTimeout
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(s.poll):
		}
	}
}

func (s *shell) search(ctx context.Context, _ []string) error {
	s.printf("place finger...\n")
	if err := s.waitFinger(ctx); err != nil {
		return err
	}
	if err := s.device.ExtractFeatures(ctx, fingerprint.Slot1); err != nil {
		return err
	}
	m, err := s.device.Search(ctx, fingerprint.Slot1)
	if fingerprint.IsConfirmation(err, fingerprint.CodeNotFound) {
		s.printf("no match\n")
		return nil
	}
	if err != nil {
		return err
	}
	return s.dump(map[string]uint16{"id": m.ID, "score": m.Score})
}

func (s *shell) enroll(ctx context.Context, args []string) error {
	if len(args) > 1 {
		return errUsage
	}

	s.printf("place finger...\n")
	if err := s.waitFinger(ctx); err != nil {
		return err
	}
	if err := s.device.ExtractFeatures(ctx, fingerprint.Slot1); err != nil {
		return err
	}
	s.printf("remove finger...\n")
	if err := s.waitRemoval(ctx); err != nil {
		return err
	}
	s.printf("place the same finger again...\n")
	if err := s.waitFinger(ctx); err != nil {
		return err
	}
	if err := s.device.ExtractFeatures(ctx, fingerprint.Slot2); err != nil {
		return err
	}
	if err := s.device.CombineModel(ctx); err != nil {
		return err
	}

	var id uint16
	if len(args) == 1 {
		v, err := strconv.ParseUint(args[0], 0, 16)
		if err != nil {
			return errUsage
		}
		id = uint16(v)
	} else {
		free, err := s.device.FreeIndex(ctx)
		if err != nil {
			return err
		}
		id = free
	}
	if err := s.device.StoreModel(ctx, fingerprint.Slot1, id); err != nil {
		return err
	}
	return s.dump(map[string]uint16{"enrolled": id})
}

func (s *shell) remove(ctx context.Context, args []string) error {
	if len(args) == 0 || len(args) > 2 {
		return errUsage
	}
	id, err := strconv.ParseUint(args[0], 0, 16)
	if err != nil {
		return errUsage
	}
	n := uint64(1)
	if len(args) == 2 {
		if n, err = strconv.ParseUint(args[1], 0, 16); err != nil {
			return errUsage
		}
	}
	if err := s.device.DeleteModel(ctx, uint16(id), uint16(n)); err != nil {
		return err
	}
	s.printf("deleted %d\n", n)
	return nil
}

func (s *shell) empty(ctx context.Context, _ []string) error {
	if err := s.device.EmptyLibrary(ctx); err != nil {
		return err
	}
	s.printf("library cleared\n")
	return nil
}

func (s *shell) led(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	switch strings.ToLower(args[0]) {
	case "on":
		return s.device.LEDOn(ctx)
	case "off":
		return s.device.LEDOff(ctx)
	default:
		return errUsage
	}
}

func (s *shell) aura(ctx context.Context, args []string) error {
	if len(args) != 4 {
		return errUsage
	}
	var vals [4]byte
	for i, a := range args {
		v, err := strconv.ParseUint(a, 0, 8)
		if err != nil {
			return errUsage
		}
		vals[i] = byte(v)
	}
	return s.device.LEDAura(ctx, fingerprint.AuraControl(vals[0]), vals[1], fingerprint.AuraColor(vals[2]), vals[3])
}

func (s *shell) random(ctx context.Context, _ []string) error {
	v, err := s.device.Random(ctx)
	if err != nil {
		return err
	}
	s.printf("0x%08X\n", v)
	return nil
}

func (s *shell) handshake(ctx context.Context, _ []string) error {
	if err := s.device.Handshake(ctx); err != nil {
		return err
	}
	s.printf("sensor ready\n")
	return nil
}

func (s *shell) standby(ctx context.Context, _ []string) error {
	return s.device.Standby(ctx)
}

func (s *shell) setPassword(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	v, err := strconv.ParseUint(args[0], 0, 32)
	if err != nil {
		return errUsage
	}
	if err := s.device.SetPassword(ctx, uint32(v)); err != nil {
		return err
	}
	s.printf("password updated\n")
	return nil
}
