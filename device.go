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

package fingerprint

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ZaparooProject/go-fingerprint/detection"
	"github.com/ZaparooProject/go-fingerprint/internal/frame"
)

// Session defaults
const (
	DefaultAddress  uint32 = frame.BroadcastAddress
	DefaultPassword uint32 = 0x00000000
	DefaultTimeout         = 2 * time.Second
)

// DeviceConfig contains configuration options for the Device
type DeviceConfig struct {
	// Address is the module address placed in every frame
	Address uint32
	// Password is verified during Init
	Password uint32
	// Timeout is the receive window for one transaction
	Timeout time.Duration
}

// DefaultDeviceConfig returns default device configuration
func DefaultDeviceConfig() *DeviceConfig {
	return &DeviceConfig{
		Address:  DefaultAddress,
		Password: DefaultPassword,
		Timeout:  DefaultTimeout,
	}
}

// Device is a session with one fingerprint sensor.
//
// Thread Safety: transactions are serialized by an internal lock so at most
// one exchange is ever in flight on the link. Higher level sequences such as
// an enrollment are not atomic; run them from a single goroutine.
type Device struct {
	transport Transport
	config    *DeviceConfig
	logger    *zap.Logger
	params    *SystemParameters
	info      *ProductInfo
	listeners Listeners
	tracers   []Tracer
	txMu      sync.Mutex
	cacheMu   sync.RWMutex
	count     uint16
	ready     bool
}

// New creates a new device session with the given transport. No I/O is
// performed until Init.
func New(transport Transport, opts ...Option) (*Device, error) {
	if transport == nil {
		return nil, fmt.Errorf("%w: nil transport", ErrInvalidParameter)
	}

	device := &Device{
		transport: transport,
		config:    DefaultDeviceConfig(),
		logger:    zap.NewNop(),
	}

	for _, opt := range opts {
		if err := opt(device); err != nil {
			return nil, err
		}
	}

	device.logger = device.logger.With(
		zap.String("transport", string(transport.Type())),
		zap.String("port", portName(transport)),
	)
	return device, nil
}

// Init runs the startup sequence: verify password, read system parameters,
// read product info and read the template count. Any failure aborts it.
func (d *Device) Init(ctx context.Context) error {
	if err := d.VerifyPassword(ctx); err != nil {
		return fmt.Errorf("verify password: %w", err)
	}

	params, err := d.ReadSystemParameters(ctx)
	if err != nil {
		return fmt.Errorf("read system parameters: %w", err)
	}

	info, err := d.ReadProductInfo(ctx)
	if err != nil {
		return fmt.Errorf("read product info: %w", err)
	}

	count, err := d.TemplateCount(ctx)
	if err != nil {
		return fmt.Errorf("read template count: %w", err)
	}

	d.cacheMu.Lock()
	d.ready = true
	d.cacheMu.Unlock()

	d.logger.Info("sensor initialized",
		zap.String("model", info.Model),
		zap.String("serial", info.Serial),
		zap.Uint16("capacity", params.LibrarySize),
		zap.Uint16("templates", count),
		zap.Uint16("security_level", params.SecurityLevel),
	)
	d.Emit(Initialized{Params: *params, Info: *info, TemplateCount: count})
	return nil
}

// TransportFactory is a function type for creating transports
type TransportFactory func(path string) (Transport, error)

// TransportFromDeviceFactory is a function type for creating transports from detected devices
type TransportFromDeviceFactory func(device detection.DeviceInfo) (Transport, error)

// ConnectOption represents a functional option for ConnectDevice
type ConnectOption func(*connectConfig) error

type connectConfig struct {
	transportFactory       TransportFactory
	transportDeviceFactory TransportFromDeviceFactory
	detectOptions          *detection.Options
	deviceOptions          []Option
	autoDetect             bool
}

// WithAutoDetection enables automatic port detection instead of using a specific path
func WithAutoDetection(opts *detection.Options) ConnectOption {
	return func(c *connectConfig) error {
		c.autoDetect = true
		c.detectOptions = opts
		return nil
	}
}

// WithDeviceOptions adds device-level options
func WithDeviceOptions(opts ...Option) ConnectOption {
	return func(c *connectConfig) error {
		c.deviceOptions = append(c.deviceOptions, opts...)
		return nil
	}
}

// WithTransportFactory sets the transport factory function
func WithTransportFactory(factory TransportFactory) ConnectOption {
	return func(c *connectConfig) error {
		c.transportFactory = factory
		return nil
	}
}

// WithTransportFromDeviceFactory sets the transport from device factory function
func WithTransportFromDeviceFactory(factory TransportFromDeviceFactory) ConnectOption {
	return func(c *connectConfig) error {
		c.transportDeviceFactory = factory
		return nil
	}
}

// ConnectDevice opens a transport for path (or the first detected port),
// creates a session on it and runs Init. The transport is closed again if
// any step fails.
//
// Example usage:
//
//	device, err := fingerprint.ConnectDevice(ctx, "/dev/ttyUSB0",
//	    fingerprint.WithTransportFactory(func(path string) (fingerprint.Transport, error) {
//	        return uart.New(path)
//	    }))
func ConnectDevice(ctx context.Context, path string, opts ...ConnectOption) (*Device, error) {
	config := &connectConfig{}
	for _, opt := range opts {
		if err := opt(config); err != nil {
			return nil, fmt.Errorf("failed to apply connect option: %w", err)
		}
	}

	transport, err := createTransport(path, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create transport: %w", err)
	}

	device, err := New(transport, config.deviceOptions...)
	if err != nil {
		_ = transport.Close()
		return nil, fmt.Errorf("failed to create device: %w", err)
	}

	if err := device.Init(ctx); err != nil {
		_ = transport.Close()
		return nil, fmt.Errorf("failed to initialize device: %w", err)
	}
	return device, nil
}

func createTransport(path string, config *connectConfig) (Transport, error) {
	if config.autoDetect || path == "" {
		return createAutoDetectedTransport(config.detectOptions, config.transportDeviceFactory)
	}

	if config.transportFactory == nil {
		return nil, errors.New("transport factory not provided")
	}
	transport, err := config.transportFactory(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create transport for path %s: %w", path, err)
	}
	return transport, nil
}

func createAutoDetectedTransport(opts *detection.Options, factory TransportFromDeviceFactory) (Transport, error) {
	if factory == nil {
		return nil, errors.New("transport device factory not provided")
	}
	if opts == nil {
		defaults := detection.DefaultOptions()
		opts = &defaults
	}

	devices, err := detection.DetectAll(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to detect devices: %w", err)
	}
	if len(devices) == 0 {
		return nil, ErrDeviceNotFound
	}
	return factory(devices[0])
}

// Transport returns the underlying transport
func (d *Device) Transport() Transport {
	return d.transport
}

// Logger returns the session logger.
func (d *Device) Logger() *zap.Logger {
	return d.logger
}

// Address returns the module address used in frames.
func (d *Device) Address() uint32 {
	return d.config.Address
}

// SetTimeout sets the receive window for each transaction
func (d *Device) SetTimeout(timeout time.Duration) error {
	if timeout <= 0 {
		return fmt.Errorf("%w: timeout must be positive, got %v", ErrInvalidParameter, timeout)
	}
	d.config.Timeout = timeout
	return nil
}

// Timeout returns the receive window for each transaction.
func (d *Device) Timeout() time.Duration {
	return d.config.Timeout
}

// AddListener registers l for session events.
func (d *Device) AddListener(l Listener) {
	d.listeners.Add(l)
}

// Ready reports whether Init completed.
func (d *Device) Ready() bool {
	d.cacheMu.RLock()
	defer d.cacheMu.RUnlock()
	return d.ready
}

// Params returns the cached system parameters, if read.
func (d *Device) Params() (SystemParameters, bool) {
	d.cacheMu.RLock()
	defer d.cacheMu.RUnlock()
	if d.params == nil {
		return SystemParameters{}, false
	}
	return *d.params, true
}

// Info returns the cached product info, if read.
func (d *Device) Info() (ProductInfo, bool) {
	d.cacheMu.RLock()
	defer d.cacheMu.RUnlock()
	if d.info == nil {
		return ProductInfo{}, false
	}
	return *d.info, true
}

// CachedTemplateCount returns the template count from the last TemplateCount
// or EmptyLibrary. StoreModel and DeleteModel do not update it; call
// TemplateCount afterwards.
func (d *Device) CachedTemplateCount() uint16 {
	d.cacheMu.RLock()
	defer d.cacheMu.RUnlock()
	return d.count
}

// Close closes the device connection
func (d *Device) Close() error {
	if d.transport != nil {
		if err := d.transport.Close(); err != nil {
			return fmt.Errorf("failed to close transport: %w", err)
		}
	}
	return nil
}

// Emit delivers ev to the session's listeners. The service package uses it
// so every event reaches the same sinks as Initialized.
func (d *Device) Emit(ev Event) {
	d.listeners.HandleEvent(ev)
}
