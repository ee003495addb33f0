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

	"go.uber.org/zap"

	fingerprint "github.com/ZaparooProject/go-fingerprint"
)

// match extracts slot 1 and searches the library. The state never changes.
func (s *Service) match(ctx context.Context) error {
	if err := s.device.ExtractFeatures(ctx, fingerprint.Slot1); err != nil {
		return s.matchFailed(err)
	}

	m, err := s.device.Search(ctx, fingerprint.Slot1)
	switch {
	case err == nil:
		s.stats.matches.Add(1)
		s.logger.Info("match found", zap.Uint16("id", m.ID), zap.Uint16("score", m.Score))
		s.device.Emit(fingerprint.MatchFound{ID: m.ID, Score: m.Score})
	case fingerprint.IsConfirmation(err, fingerprint.CodeNotFound):
		s.logger.Info("no match")
		s.device.Emit(fingerprint.MatchNotFound{})
	default:
		return s.matchFailed(err)
	}
	return nil
}

func (s *Service) matchFailed(err error) error {
	if fatal := fatalError(err); fatal != nil {
		return fatal
	}
	s.stats.errors.Add(1)
	s.logger.Error("match failed", zap.Error(err))
	s.device.Emit(fingerprint.MatchFailed{Err: err})
	return nil
}
