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

// Package metrics exports sensor transactions and service events to
// Prometheus.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	fingerprint "github.com/ZaparooProject/go-fingerprint"
)

// NewRegistry creates a registry with the Go and process collectors.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// Handler serves reg in the Prometheus text format.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
}

// Metrics is both a fingerprint.Tracer and a fingerprint.Listener.
type Metrics struct {
	Transactions *prometheus.CounterVec   // labels: command, result
	Latency      *prometheus.HistogramVec // labels: command
	Events       *prometheus.CounterVec   // labels: type
	State        *prometheus.GaugeVec     // labels: state; 1 for the current state
	LastMatchID  prometheus.Gauge
	Templates    prometheus.Gauge
	Connected    prometheus.Gauge
}

// New registers and returns the sensor metrics.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Transactions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fingerprint_transactions_total",
			Help: "Sensor transactions by command and result.",
		}, []string{"command", "result"}),
		Latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "fingerprint_transaction_duration_seconds",
			Help:    "Command to acknowledgement latency.",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2},
		}, []string{"command"}),
		Events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fingerprint_events_total",
			Help: "Service events by type.",
		}, []string{"type"}),
		State: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "fingerprint_service_state",
			Help: "Current service state (1 for the active state).",
		}, []string{"state"}),
		LastMatchID: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "fingerprint_last_match_id",
			Help: "Template id of the most recent match.",
		}),
		Templates: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "fingerprint_templates",
			Help: "Templates stored in the sensor library.",
		}),
		Connected: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "fingerprint_sensor_connected",
			Help: "1 while a sensor session is open.",
		}),
	}
	reg.MustRegister(m.Transactions, m.Latency, m.Events, m.State, m.LastMatchID, m.Templates, m.Connected)
	return m
}

// TraceTransaction implements fingerprint.Tracer.
func (m *Metrics) TraceTransaction(t *fingerprint.Trace) {
	cmd := fingerprint.CommandName(t.Command)
	m.Transactions.WithLabelValues(cmd, result(t)).Inc()
	if t.Err == nil {
		m.Latency.WithLabelValues(cmd).Observe(t.Duration.Seconds())
	}
}

func result(t *fingerprint.Trace) string {
	switch {
	case t.Err != nil:
		return fingerprint.GetErrorType(t.Err).String()
	case t.Code != fingerprint.CodeOK:
		return "sensor"
	default:
		return "ok"
	}
}

// HandleEvent implements fingerprint.Listener.
func (m *Metrics) HandleEvent(ev fingerprint.Event) {
	m.Events.WithLabelValues(ev.Type().String()).Inc()

	switch e := ev.(type) {
	case fingerprint.Initialized:
		m.Templates.Set(float64(e.TemplateCount))
		m.Connected.Set(1)
	case fingerprint.MatchFound:
		m.LastMatchID.Set(float64(e.ID))
	case fingerprint.EnrollSucceeded:
		m.Templates.Inc()
	case fingerprint.StateChanged:
		m.SetState(e.State)
	}
}

// SetState marks s as the active state.
func (m *Metrics) SetState(s fingerprint.State) {
	for _, st := range []fingerprint.State{
		fingerprint.StateMatch, fingerprint.StateEnrollStep1, fingerprint.StateEnrollStep2,
	} {
		v := 0.0
		if st == s {
			v = 1
		}
		m.State.WithLabelValues(st.String()).Set(v)
	}
}

var (
	_ fingerprint.Tracer   = (*Metrics)(nil)
	_ fingerprint.Listener = (*Metrics)(nil)
)
