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

// Package transport provides internal retry and polling helpers shared by the
// serial backend and the service loop.
package transport

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/time/rate"
)

var (
	// ErrRetriesExhausted is returned by WithRetry when every attempt asked
	// for another try.
	ErrRetriesExhausted = errors.New("retries exhausted")
	// ErrDeadline is returned by PollUntil when the poll window closes first.
	ErrDeadline = errors.New("poll deadline reached")
)

// RetryOperation represents a function that can be retried
// Returns: data, shouldRetry, error
// - data: the result if successful
// - shouldRetry: true if the operation should be retried
// - error: any permanent error that should stop retries
type RetryOperation[T any] func() (T, bool, error)

// RetryConfig configures retry behavior
type RetryConfig struct {
	OnRetry     func(attempt int) error
	Description string
	MaxRetries  int
	RetryDelay  time.Duration
}

// WithRetry runs operation up to MaxRetries+1 times, sleeping RetryDelay
// between attempts.
func WithRetry[T any](ctx context.Context, config RetryConfig, operation RetryOperation[T]) (T, error) {
	var zero T

	for attempt := 0; attempt <= config.MaxRetries; attempt++ {
		result, shouldRetry, err := operation()
		if err != nil {
			return zero, err
		}
		if !shouldRetry {
			return result, nil
		}
		if attempt >= config.MaxRetries {
			break
		}

		if config.OnRetry != nil {
			if err := config.OnRetry(attempt + 1); err != nil {
				return zero, err
			}
		}
		if config.RetryDelay > 0 {
			select {
			case <-ctx.Done():
				return zero, ctx.Err()
			case <-time.After(config.RetryDelay):
			}
		}
	}

	return zero, fmt.Errorf("%s: %w after %d attempts", config.Description, ErrRetriesExhausted, config.MaxRetries+1)
}

// PollConfig bounds a PollUntil loop.
type PollConfig struct {
	Timeout  time.Duration
	Interval time.Duration
}

// PollUntil calls operation at most once per Interval until it stops asking
// for a retry, fails permanently, or Timeout elapses. An expired window is
// ErrDeadline; a cancelled parent context is returned as is.
func PollUntil[T any](ctx context.Context, config PollConfig, operation RetryOperation[T]) (T, error) {
	var zero T

	pollCtx, cancel := context.WithTimeout(ctx, config.Timeout)
	defer cancel()

	interval := config.Interval
	if interval <= 0 {
		interval = time.Millisecond
	}
	limiter := rate.NewLimiter(rate.Every(interval), 1)

	for {
		// Wait fails early when the next token would land past the deadline.
		if err := limiter.Wait(pollCtx); err != nil {
			if ctx.Err() != nil {
				return zero, ctx.Err()
			}
			return zero, ErrDeadline
		}

		result, shouldRetry, err := operation()
		if err != nil {
			return zero, err
		}
		if !shouldRetry {
			return result, nil
		}
	}
}
