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

// Package service runs the enroll/match workflow on top of a fingerprint
// Device. Each tick captures an image and dispatches on the current state;
// results are delivered as events through the Device's listeners.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	fingerprint "github.com/ZaparooProject/go-fingerprint"
)

// Service errors
var (
	ErrAlreadyRunning = errors.New("service is already running")
	ErrNotRunning     = errors.New("service is not running")
)

// TouchSensor reports whether a finger is resting on the sensor. Sensors
// with a wake line let the service skip the capture transaction when idle.
type TouchSensor interface {
	Touched() (bool, error)
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger. A nil logger is ignored.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithListener registers l on the Device for all session events.
func WithListener(l fingerprint.Listener) Option {
	return func(s *Service) {
		s.device.AddListener(l)
	}
}

// WithTouchSensor gates captures on t.
func WithTouchSensor(t TouchSensor) Option {
	return func(s *Service) {
		s.touch = t
	}
}

// Service drives the Match / EnrollStep1 / EnrollStep2 state machine.
// Tick and SetMode must be called from the goroutine that owns the Device;
// other goroutines use RequestMode while Run is active.
type Service struct {
	device  *fingerprint.Device
	config  *Config
	logger  *zap.Logger
	touch   TouchSensor
	modeCh  chan Mode
	stats   counters
	machine machine
	running atomic.Bool
}

// New creates a service for device. A nil config uses DefaultConfig.
func New(device *fingerprint.Device, config *Config, opts ...Option) (*Service, error) {
	if device == nil {
		return nil, fmt.Errorf("%w: device cannot be nil", fingerprint.ErrInvalidParameter)
	}
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	s := &Service{
		device: device,
		config: config,
		logger: device.Logger(),
		modeCh: make(chan Mode, 1),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.machine.store(config.InitialState)
	return s, nil
}

// State returns the current workflow state.
func (s *Service) State() fingerprint.State {
	return s.machine.load()
}

// Mode returns ModeEnroll during either enrollment step, ModeMatch otherwise.
func (s *Service) Mode() Mode {
	return modeOf(s.machine.load())
}

// Stats returns a snapshot of the service counters.
func (s *Service) Stats() Stats {
	return s.stats.snapshot()
}

// Device returns the underlying session.
func (s *Service) Device() *fingerprint.Device {
	return s.device
}

// Running reports whether Run is active.
func (s *Service) Running() bool {
	return s.running.Load()
}

// SetMode enters EnrollStep1 or Match and emits StateChanged immediately,
// even when the state does not change.
func (s *Service) SetMode(mode Mode) {
	state := mode.State()
	s.machine.store(state)
	s.logger.Info("mode changed", zap.Stringer("mode", mode), zap.Stringer("state", state))
	s.device.Emit(fingerprint.StateChanged{State: state})
}

// RequestMode hands a mode switch to the running loop. The switch is applied
// before the next tick.
func (s *Service) RequestMode(ctx context.Context, mode Mode) error {
	if !s.running.Load() {
		return ErrNotRunning
	}
	select {
	case s.modeCh <- mode:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run ticks every Period until ctx is cancelled or the link is lost.
func (s *Service) Run(ctx context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer s.running.Store(false)

	s.logger.Info("service started",
		zap.Duration("period", s.config.Period),
		zap.Stringer("state", s.State()),
	)

	ticker := time.NewTicker(s.config.Period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case mode := <-s.modeCh:
			s.SetMode(mode)
		case <-ticker.C:
			if err := s.Tick(ctx); err != nil {
				return err
			}
		}
	}
}

// Tick runs one capture and the step for the current state. Only a lost
// link or a cancelled context is returned as an error; everything else is
// reported as an event.
func (s *Service) Tick(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !s.fingerPresent() {
		return nil
	}

	start := time.Now()
	defer func() {
		s.stats.lastTickLatency.Store(time.Since(start).Nanoseconds())
	}()
	s.stats.ticks.Add(1)

	if err := s.device.CaptureImage(ctx); err != nil {
		return s.captureFailed(err)
	}
	s.stats.captures.Add(1)
	s.device.Emit(fingerprint.ImageCaptured{})

	var err error
	switch state := s.State(); state {
	case fingerprint.StateMatch:
		err = s.match(ctx)
	case fingerprint.StateEnrollStep1:
		err = s.enrollFirst(ctx)
	case fingerprint.StateEnrollStep2:
		err = s.enrollSecond(ctx)
	default:
		s.logger.Error("unknown state", zap.Stringer("state", state))
	}
	return err
}

func (s *Service) fingerPresent() bool {
	if s.touch == nil {
		return true
	}
	touched, err := s.touch.Touched()
	if err != nil {
		s.logger.Warn("touch sensor read failed", zap.Error(err))
		return true
	}
	return touched
}

func (s *Service) captureFailed(err error) error {
	if fingerprint.IsConfirmation(err, fingerprint.CodeNoFinger) {
		return nil
	}
	if fatal := fatalError(err); fatal != nil {
		return fatal
	}
	s.stats.errors.Add(1)
	s.logger.Error("capture failed", zap.Error(err))
	s.device.Emit(fingerprint.CaptureFailed{Err: err})
	return nil
}

// transition enters state and emits StateChanged when it differs.
func (s *Service) transition(state fingerprint.State) {
	if s.machine.store(state) {
		s.logger.Debug("state changed", zap.Stringer("state", state))
		s.device.Emit(fingerprint.StateChanged{State: state})
	}
}

// fatalError returns err when the session cannot continue.
func fatalError(err error) error {
	switch {
	case fingerprint.IsDisconnected(err):
		return err
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	default:
		return nil
	}
}
