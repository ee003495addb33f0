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

// Command fpshell is an interactive console for poking at a sensor.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/chzyer/readline"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	fingerprint "github.com/ZaparooProject/go-fingerprint"
	"github.com/ZaparooProject/go-fingerprint/transport/uart"
)

func main() {
	fs := pflag.NewFlagSet("fpshell", pflag.ContinueOnError)
	port := fs.StringP("port", "p", "/dev/ttyUSB0", "serial port")
	baud := fs.Int("baud", uart.DefaultBaudRate, "serial baud rate")
	address := fs.Uint32("address", fingerprint.DefaultAddress, "module address")
	password := fs.Uint32("password", fingerprint.DefaultPassword, "module password")
	timeout := fs.Duration("timeout", fingerprint.DefaultTimeout, "transaction timeout")
	debug := fs.Bool("debug", false, "log every frame")
	if err := fs.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		os.Exit(2)
	}

	if err := run(*port, *baud, *address, *password, *timeout, *debug); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "fpshell: %v\n", err)
		os.Exit(1)
	}
}

func run(port string, baud int, address, password uint32, timeout time.Duration, debug bool) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "fp> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
		AutoComplete:    completer(),
	})
	if err != nil {
		return fmt.Errorf("failed to create readline: %w", err)
	}
	defer func() { _ = rl.Close() }()

	logger := zap.NewNop()
	if debug {
		cfg := zap.NewDevelopmentConfig()
		cfg.OutputPaths = []string{"stderr"}
		if logger, err = cfg.Build(); err != nil {
			return err
		}
	}

	t, err := uart.New(port, uart.WithBaudRate(baud))
	if err != nil {
		return err
	}
	device, err := fingerprint.New(t,
		fingerprint.WithAddress(address),
		fingerprint.WithPassword(password),
		fingerprint.WithTimeout(timeout),
		fingerprint.WithLogger(logger),
	)
	if err != nil {
		_ = t.Close()
		return err
	}
	defer func() { _ = device.Close() }()

	ctx := context.Background()
	if err := device.Init(ctx); err != nil {
		return err
	}

	sh := newShell(device, rl.Stdout())
	sh.help()
	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			continue
		}
		if errors.Is(err, io.EOF) || err != nil {
			return nil
		}
		if quit := sh.exec(ctx, strings.TrimSpace(line)); quit {
			return nil
		}
	}
}

func completer() *readline.PrefixCompleter {
	items := make([]readline.PrefixCompleterInterface, 0, len(commands))
	for _, c := range commands {
		items = append(items, readline.PcItem(c.name))
	}
	return readline.NewPrefixCompleter(items...)
}
