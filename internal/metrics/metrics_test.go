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

package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	fingerprint "github.com/ZaparooProject/go-fingerprint"
)

func TestTraceTransaction(t *testing.T) {
	t.Parallel()
	m := New(prometheus.NewRegistry())

	m.TraceTransaction(&fingerprint.Trace{Command: 0x01, Duration: 20 * time.Millisecond})
	m.TraceTransaction(&fingerprint.Trace{Command: 0x01, Code: fingerprint.CodeNoFinger})
	m.TraceTransaction(&fingerprint.Trace{Command: 0x04, Err: fingerprint.ErrTimeout})
	m.TraceTransaction(&fingerprint.Trace{Command: 0x04, Err: errors.New("boom")})

	assert.InDelta(t, 1, testutil.ToFloat64(m.Transactions.WithLabelValues("get_image", "ok")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.Transactions.WithLabelValues("get_image", "sensor")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.Transactions.WithLabelValues("search", "timeout")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.Transactions.WithLabelValues("search", "permanent")), 0)
	assert.Equal(t, 1, testutil.CollectAndCount(m.Latency), "failed transactions are not timed")
}

func TestHandleEvent(t *testing.T) {
	t.Parallel()
	m := New(prometheus.NewRegistry())

	m.HandleEvent(fingerprint.Initialized{TemplateCount: 5})
	m.HandleEvent(fingerprint.MatchFound{ID: 12, Score: 80})
	m.HandleEvent(fingerprint.EnrollSucceeded{ID: 6})
	m.HandleEvent(fingerprint.StateChanged{State: fingerprint.StateEnrollStep2})
	m.HandleEvent(fingerprint.MatchNotFound{})
	m.HandleEvent(fingerprint.MatchNotFound{})

	assert.InDelta(t, 6, testutil.ToFloat64(m.Templates), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.Connected), 0)
	assert.InDelta(t, 12, testutil.ToFloat64(m.LastMatchID), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(m.Events.WithLabelValues("match_not_found")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.State.WithLabelValues("enroll-2")), 0)
	assert.InDelta(t, 0, testutil.ToFloat64(m.State.WithLabelValues("match")), 0)
}

func TestHandler(t *testing.T) {
	t.Parallel()
	reg := NewRegistry()
	m := New(reg)
	m.SetState(fingerprint.StateMatch)

	rr := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `fingerprint_service_state{state="match"} 1`)
	assert.Contains(t, rr.Body.String(), "go_goroutines")
}
