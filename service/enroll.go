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

package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	fingerprint "github.com/ZaparooProject/go-fingerprint"
	"github.com/ZaparooProject/go-fingerprint/internal/transport"
)

// enrollFirst extracts the first capture into slot 1, then waits for the
// finger to be lifted before moving on to the second capture.
func (s *Service) enrollFirst(ctx context.Context) error {
	if err := s.device.ExtractFeatures(ctx, fingerprint.Slot1); err != nil {
		return s.enrollFailed(err)
	}

	if err := s.waitRemoval(ctx); err != nil {
		return s.enrollFailed(err)
	}
	s.transition(fingerprint.StateEnrollStep2)
	return nil
}

// enrollSecond extracts slot 2, combines both slots and stores the model at
// the first free id. Any failure restarts enrollment.
func (s *Service) enrollSecond(ctx context.Context) error {
	if err := s.device.ExtractFeatures(ctx, fingerprint.Slot2); err != nil {
		return s.enrollFailed(err)
	}
	if err := s.device.CombineModel(ctx); err != nil {
		return s.enrollFailed(err)
	}
	id, err := s.device.FreeIndex(ctx)
	if err != nil {
		return s.enrollFailed(err)
	}
	if err := s.device.StoreModel(ctx, fingerprint.Slot1, id); err != nil {
		return s.enrollFailed(err)
	}

	s.stats.enrollments.Add(1)
	s.logger.Info("enrollment stored", zap.Uint16("id", id))
	s.refreshTemplateCount(ctx)
	s.device.Emit(fingerprint.EnrollSucceeded{ID: id})
	s.transition(s.config.PostEnrollState)
	return nil
}

// refreshTemplateCount re-reads the library count so the device cache
// matches flash after a store. A failed read leaves the old value.
func (s *Service) refreshTemplateCount(ctx context.Context) {
	count, err := s.device.TemplateCount(ctx)
	if err != nil {
		s.logger.Warn("template count refresh failed", zap.Error(err))
		return
	}
	s.logger.Debug("template count", zap.Uint16("count", count))
}

func (s *Service) enrollFailed(err error) error {
	if fatal := fatalError(err); fatal != nil {
		return fatal
	}
	s.stats.errors.Add(1)
	s.logger.Error("enrollment failed", zap.Stringer("state", s.State()), zap.Error(err))
	s.device.Emit(fingerprint.EnrollFailed{Err: err})
	s.transition(fingerprint.StateEnrollStep1)
	return nil
}

// waitRemoval polls image capture until the sensor reports no finger. The
// wait ignores cancellation of ctx and ends only on removal, a lost link or
// EnrollTimeout.
func (s *Service) waitRemoval(ctx context.Context) error {
	pollCtx := context.WithoutCancel(ctx)
	polls := 0

	_, err := transport.PollUntil(pollCtx, transport.PollConfig{
		Timeout:  s.config.EnrollTimeout,
		Interval: s.config.RemovalPollInterval,
	}, func() (struct{}, bool, error) {
		polls++
		err := s.device.CaptureImage(pollCtx)
		switch {
		case fingerprint.IsConfirmation(err, fingerprint.CodeNoFinger):
			return struct{}{}, false, nil
		case fingerprint.IsDisconnected(err):
			return struct{}{}, false, err
		case err != nil:
			s.logger.Debug("removal poll failed", zap.Int("poll", polls), zap.Error(err))
		}
		return struct{}{}, true, nil
	})

	if errors.Is(err, transport.ErrDeadline) {
		return fmt.Errorf("%w after %s", fingerprint.ErrRemovalTimeout, s.config.EnrollTimeout)
	}
	if err != nil {
		return err
	}
	s.logger.Debug("finger removed", zap.Int("polls", polls))
	return nil
}
