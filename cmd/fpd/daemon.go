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
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	fingerprint "github.com/ZaparooProject/go-fingerprint"
	"github.com/ZaparooProject/go-fingerprint/internal/config"
	"github.com/ZaparooProject/go-fingerprint/internal/discovery"
	"github.com/ZaparooProject/go-fingerprint/internal/httpserver"
	"github.com/ZaparooProject/go-fingerprint/internal/metrics"
	"github.com/ZaparooProject/go-fingerprint/service"
	"github.com/ZaparooProject/go-fingerprint/sink/mqtt"
	"github.com/ZaparooProject/go-fingerprint/touch"
	"github.com/ZaparooProject/go-fingerprint/trace"
)

const (
	shutdownTimeout = 5 * time.Second
	mqttConnectWait = 10 * time.Second
)

type daemon struct {
	cfg       *config.Config
	svcCfg    *service.Config
	logger    *zap.Logger
	reg       *prometheus.Registry
	metrics   *metrics.Metrics
	ctrl      *httpserver.ServiceController
	http      *httpserver.Server
	mqtt      *mqtt.Publisher
	mdns      *discovery.Advertiser
	tracer    *trace.FileTracer
	touch     service.TouchSensor
	listeners []fingerprint.Listener
	tracers   []fingerprint.Tracer

	// newTransport replaces the serial factory when set.
	newTransport fingerprint.TransportFactory
}

func newDaemon(cfg *config.Config, logger *zap.Logger) (*daemon, error) {
	svcCfg, err := cfg.ServiceConfig()
	if err != nil {
		return nil, err
	}
	d := &daemon{
		cfg:    cfg,
		svcCfg: svcCfg,
		logger: logger,
		ctrl:   &httpserver.ServiceController{},
	}

	if cfg.Metrics.Enable {
		d.reg = metrics.NewRegistry()
		d.metrics = metrics.New(d.reg)
		d.listeners = append(d.listeners, d.metrics)
		d.tracers = append(d.tracers, d.metrics)
	}

	if cfg.Trace.Enable {
		d.tracer, err = trace.NewFileTracer(cfg.Trace.File, cfg.Serial.Port)
		if err != nil {
			return nil, fmt.Errorf("open trace file: %w", err)
		}
		d.tracers = append(d.tracers, d.tracer)
		logger.Info("tracing transactions",
			zap.String("file", cfg.Trace.File),
			zap.String("session", d.tracer.SessionID()),
		)
	}

	if cfg.Touch.Enable {
		var opts []touch.Option
		if cfg.Touch.ActiveHigh {
			opts = append(opts, touch.WithActiveHigh())
		}
		g, err := touch.Open(cfg.Touch.Pin, opts...)
		if err != nil {
			return nil, fmt.Errorf("open touch line: %w", err)
		}
		d.touch = g
	}

	if cfg.MQTT.Enable {
		opts := []mqtt.Option{mqtt.WithLogger(logger.Named("mqtt")), mqtt.WithQoS(cfg.MQTT.QoS)}
		if cfg.MQTT.Node != "" {
			opts = append(opts, mqtt.WithNode(cfg.MQTT.Node))
		}
		d.mqtt, err = mqtt.New(cfg.MQTT.Broker, opts...)
		if err != nil {
			return nil, fmt.Errorf("mqtt: %w", err)
		}
		d.listeners = append(d.listeners, d.mqtt)
	}

	if cfg.HTTP.Enable {
		var handler http.Handler
		if d.reg != nil {
			handler = metrics.Handler(d.reg)
		}
		d.http = httpserver.New(cfg.HTTP, cfg.Metrics.Path, handler, d.ctrl)

		if cfg.MDNS.Enable {
			d.mdns = discovery.NewAdvertiser(cfg.MDNS.Instance)
			d.listeners = append(d.listeners, d.mdns)
		}
	}
	return d, nil
}

func (d *daemon) run(ctx context.Context) error {
	defer d.close()

	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	if d.mqtt != nil {
		connectCtx, stop := context.WithTimeout(ctx, mqttConnectWait)
		err := d.mqtt.Connect(connectCtx)
		stop()
		if err != nil {
			// paho retries the first connect in the background and queues events.
			d.logger.Warn("mqtt not connected yet", zap.Error(err))
		}
	}

	if d.http != nil {
		if err := d.http.Listen(); err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		go func() {
			if err := d.http.Start(); err != nil {
				cancel(fmt.Errorf("http server: %w", err))
			}
		}()
		d.logger.Info("http listening", zap.String("addr", d.http.Addr()))
	}

	if d.mdns != nil {
		if err := d.advertise(); err != nil {
			d.logger.Warn("mdns unavailable", zap.Error(err))
		}
	}

	for {
		err := d.session(ctx)
		if ctx.Err() != nil {
			return stopCause(ctx)
		}
		d.logger.Warn("sensor session ended", zap.Error(err))

		select {
		case <-ctx.Done():
			return stopCause(ctx)
		case <-time.After(d.cfg.Service.ReconnectDelay):
		}
	}
}

// stopCause is nil for a plain shutdown and the failure that stopped the
// daemon otherwise.
func stopCause(ctx context.Context) error {
	if err := context.Cause(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// session connects, runs the service until the link drops, then tears down.
func (d *daemon) session(ctx context.Context) error {
	device, err := d.connect(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = device.Close() }()

	opts := []service.Option{service.WithLogger(d.logger.Named("service"))}
	if d.touch != nil {
		opts = append(opts, service.WithTouchSensor(d.touch))
	}
	svc, err := service.New(device, d.svcCfg, opts...)
	if err != nil {
		return err
	}
	if d.metrics != nil {
		d.metrics.SetState(svc.State())
		defer d.metrics.Connected.Set(0)
	}

	d.ctrl.Attach(svc)
	defer d.ctrl.Detach()

	err = svc.Run(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (d *daemon) advertise() error {
	_, portStr, err := net.SplitHostPort(d.cfg.HTTP.Addr)
	if err != nil {
		return err
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return err
	}
	node := d.cfg.MQTT.Node
	if node == "" {
		node = mqtt.DefaultNodeID()
	}
	return d.mdns.Advertise(discovery.Info{Node: node, Port: port, State: d.svcCfg.InitialState.String()})
}

func (d *daemon) close() {
	if d.mdns != nil {
		d.mdns.Stop()
	}
	if d.http != nil {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := d.http.Shutdown(ctx); err != nil {
			d.logger.Warn("http shutdown", zap.Error(err))
		}
	}
	if d.mqtt != nil {
		_ = d.mqtt.Close()
	}
	if d.tracer != nil {
		_ = d.tracer.Close()
	}
}
