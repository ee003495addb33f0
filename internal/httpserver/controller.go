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

package httpserver

import (
	"context"
	"errors"
	"sync"

	fingerprint "github.com/ZaparooProject/go-fingerprint"
	"github.com/ZaparooProject/go-fingerprint/service"
)

// ErrNoSession is returned while no sensor is attached.
var ErrNoSession = errors.New("no sensor session")

// Status is the body of GET /v1/status.
type Status struct {
	State     string        `json:"state"`
	Mode      string        `json:"mode"`
	Stats     service.Stats `json:"stats"`
	Running   bool          `json:"running"`
	Connected bool          `json:"connected"`
}

// Info is the body of GET /v1/info.
type Info struct {
	Port          string `json:"port,omitempty"`
	Model         string `json:"model"`
	Serial        string `json:"serial"`
	SensorModel   string `json:"sensor_model"`
	Address       uint32 `json:"address"`
	Baud          int    `json:"baud"`
	PacketBytes   int    `json:"packet_bytes"`
	Capacity      uint16 `json:"capacity"`
	TemplateCount uint16 `json:"template_count"`
	SecurityLevel uint16 `json:"security_level"`
}

// Controller is what the HTTP API drives.
type Controller interface {
	Ready() bool
	Status() Status
	Info() (Info, error)
	RequestMode(ctx context.Context, mode service.Mode) error
}

// ServiceController tracks the current service across reconnects.
type ServiceController struct {
	svc *service.Service
	mu  sync.RWMutex
}

// Attach makes svc the active service.
func (c *ServiceController) Attach(svc *service.Service) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.svc = svc
}

// Detach clears the active service.
func (c *ServiceController) Detach() {
	c.Attach(nil)
}

func (c *ServiceController) current() *service.Service {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.svc
}

// Ready reports whether a service loop is running.
func (c *ServiceController) Ready() bool {
	svc := c.current()
	return svc != nil && svc.Running()
}

// Status implements Controller.
func (c *ServiceController) Status() Status {
	svc := c.current()
	if svc == nil {
		return Status{State: "disconnected", Mode: "none"}
	}
	return Status{
		State:     svc.State().String(),
		Mode:      svc.Mode().String(),
		Stats:     svc.Stats(),
		Running:   svc.Running(),
		Connected: true,
	}
}

// Info implements Controller from the session's cached identity.
func (c *ServiceController) Info() (Info, error) {
	svc := c.current()
	if svc == nil {
		return Info{}, ErrNoSession
	}
	dev := svc.Device()
	params, ok := dev.Params()
	if !ok {
		return Info{}, fingerprint.ErrNotInitialized
	}
	info := Info{
		Address:       dev.Address(),
		Baud:          params.Baud(),
		PacketBytes:   params.PacketLength.Bytes(),
		Capacity:      params.LibrarySize,
		SecurityLevel: params.SecurityLevel,
		TemplateCount: dev.CachedTemplateCount(),
	}
	if pi, ok := dev.Info(); ok {
		info.Model = pi.Model
		info.Serial = pi.Serial
		info.SensorModel = pi.SensorModel
	}
	if pn, ok := dev.Transport().(fingerprint.PortNamer); ok {
		info.Port = pn.PortName()
	}
	return info, nil
}

// RequestMode implements Controller.
func (c *ServiceController) RequestMode(ctx context.Context, mode service.Mode) error {
	svc := c.current()
	if svc == nil {
		return ErrNoSession
	}
	return svc.RequestMode(ctx, mode)
}

var _ Controller = (*ServiceController)(nil)
