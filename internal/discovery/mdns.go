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

// Package discovery announces the fpd control API over mDNS.
package discovery

import (
	"errors"
	"fmt"
	"net"
	"sort"
	"sync"

	"github.com/enbility/zeroconf/v3"

	fingerprint "github.com/ZaparooProject/go-fingerprint"
)

const (
	// ServiceType is the DNS-SD type of the control API.
	ServiceType = "_fingerprint._tcp"
	// Domain is the mDNS domain.
	Domain = "local."

	maxInstanceNameLen = 63
)

// ErrNotAdvertising is returned by Update before Advertise.
var ErrNotAdvertising = errors.New("not advertising")

// server is the part of *zeroconf.Server the advertiser drives.
type server interface {
	SetText(text []string)
	Shutdown()
}

type registerFunc func(instance, service, domain string, port int, text []string, ifaces []net.Interface) (server, error)

func zeroconfRegister(instance, service, domain string, port int, text []string, ifaces []net.Interface) (server, error) {
	s, err := zeroconf.Register(instance, service, domain, port, text, ifaces)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Info is what goes into the TXT record.
type Info struct {
	Node   string
	Model  string
	Serial string
	State  string
	Port   int
}

// TXT renders info as sorted key=value strings. Empty values are omitted.
func (i Info) TXT() []string {
	fields := map[string]string{
		"api":    "/v1",
		"node":   i.Node,
		"model":  i.Model,
		"serial": i.Serial,
		"state":  i.State,
	}
	out := make([]string, 0, len(fields))
	for k, v := range fields {
		if v != "" {
			out = append(out, k+"="+v)
		}
	}
	sort.Strings(out)
	return out
}

// Advertiser publishes one service instance and keeps its state TXT entry
// current. It is also a fingerprint.Listener.
type Advertiser struct {
	srv      server
	register registerFunc
	iface    string
	info     Info
	mu       sync.Mutex
}

// NewAdvertiser creates an advertiser bound to iface, or all interfaces when
// iface is empty.
func NewAdvertiser(iface string) *Advertiser {
	return &Advertiser{register: zeroconfRegister, iface: iface}
}

func (a *Advertiser) interfaces() []net.Interface {
	if a.iface == "" {
		return nil
	}
	ifc, err := net.InterfaceByName(a.iface)
	if err != nil {
		return nil
	}
	return []net.Interface{*ifc}
}

// Advertise (re)registers the service.
func (a *Advertiser) Advertise(info Info) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.srv != nil {
		a.srv.Shutdown()
		a.srv = nil
	}

	instance := "fingerprint-" + info.Node
	if len(instance) > maxInstanceNameLen {
		instance = instance[:maxInstanceNameLen]
	}

	srv, err := a.register(instance, ServiceType, Domain, info.Port, info.TXT(), a.interfaces())
	if err != nil {
		return fmt.Errorf("failed to register %s: %w", ServiceType, err)
	}
	a.srv = srv
	a.info = info
	return nil
}

// Update replaces the TXT record using fn.
func (a *Advertiser) Update(fn func(*Info)) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.srv == nil {
		return ErrNotAdvertising
	}
	fn(&a.info)
	a.srv.SetText(a.info.TXT())
	return nil
}

// HandleEvent refreshes identity on Initialized and state on StateChanged.
func (a *Advertiser) HandleEvent(ev fingerprint.Event) {
	switch e := ev.(type) {
	case fingerprint.Initialized:
		_ = a.Update(func(i *Info) {
			i.Model = e.Info.Model
			i.Serial = e.Info.Serial
		})
	case fingerprint.StateChanged:
		_ = a.Update(func(i *Info) { i.State = e.State.String() })
	}
}

// Stop withdraws the service.
func (a *Advertiser) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.srv != nil {
		a.srv.Shutdown()
		a.srv = nil
	}
}

var _ fingerprint.Listener = (*Advertiser)(nil)
