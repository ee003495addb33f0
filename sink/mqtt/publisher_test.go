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

package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	fingerprint "github.com/ZaparooProject/go-fingerprint"
)

type doneToken struct {
	err  error
	done chan struct{}
}

func newDoneToken(err error) *doneToken {
	t := &doneToken{err: err, done: make(chan struct{})}
	close(t.done)
	return t
}

func (*doneToken) Wait() bool                     { return true }
func (*doneToken) WaitTimeout(time.Duration) bool { return true }
func (t *doneToken) Done() <-chan struct{}        { return t.done }
func (t *doneToken) Error() error                 { return t.err }

type published struct {
	topic   string
	payload string
	qos     byte
	retain  bool
}

// fakeClient records publishes. Unused paho.Client methods panic via the
// nil embedded interface.
type fakeClient struct {
	paho.Client
	connectToken paho.Token
	publishErr   error
	msgs         []published
	mu           sync.Mutex
	connected    bool
	disconnected bool
}

func (c *fakeClient) Publish(topic string, qos byte, retain bool, payload interface{}) paho.Token {
	c.mu.Lock()
	defer c.mu.Unlock()
	var body string
	switch p := payload.(type) {
	case string:
		body = p
	case []byte:
		body = string(p)
	}
	c.msgs = append(c.msgs, published{topic: topic, payload: body, qos: qos, retain: retain})
	return newDoneToken(c.publishErr)
}

func (c *fakeClient) IsConnected() bool { return c.connected }

func (c *fakeClient) Disconnect(uint) { c.disconnected = true }

func (c *fakeClient) Connect() paho.Token {
	if c.connectToken != nil {
		return c.connectToken
	}
	return newDoneToken(nil)
}

// pendingToken never completes, like a connect token while the broker is down.
type pendingToken struct {
	done chan struct{}
}

func (*pendingToken) Wait() bool                     { return false }
func (*pendingToken) WaitTimeout(time.Duration) bool { return false }
func (t *pendingToken) Done() <-chan struct{}        { return t.done }
func (*pendingToken) Error() error                   { return nil }

func (c *fakeClient) messages() []published {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]published(nil), c.msgs...)
}

var fixedTime = time.Date(2025, 6, 1, 8, 30, 0, 0, time.UTC)

func newTestPublisher(client *fakeClient, opts ...Option) *Publisher {
	p := newPublisher("home/", append([]Option{WithNode("door")}, opts...)...)
	p.client = client
	p.now = func() time.Time { return fixedTime }
	return p
}

func TestClientOptionsFromURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		url        string
		wantBroker string
		wantPrefix string
		wantUser   string
		wantID     string
		wantErr    bool
	}{
		{name: "plain", url: "mqtt://broker:1883", wantBroker: "tcp://broker:1883"},
		{name: "tls with prefix", url: "mqtts://broker:8883/site/a", wantBroker: "ssl://broker:8883", wantPrefix: "site/a/"},
		{name: "credentials", url: "tcp://u:p@broker:1883/x/?client-id=reader", wantBroker: "tcp://broker:1883", wantPrefix: "x/", wantUser: "u", wantID: "reader"},
		{name: "no host", url: "mqtt:///x", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			opts, prefix, err := ClientOptionsFromURL(tt.url)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Len(t, opts.Servers, 1)
			assert.Equal(t, tt.wantBroker, opts.Servers[0].String())
			assert.Equal(t, tt.wantPrefix, prefix)
			assert.Equal(t, tt.wantUser, opts.Username)
			assert.Equal(t, tt.wantID, opts.ClientID)
			assert.True(t, opts.AutoReconnect)
			assert.True(t, opts.ConnectRetry, "first connect must be retried")
			assert.Equal(t, ConnectRetryInterval, opts.ConnectRetryInterval)
		})
	}
}

func TestConnect(t *testing.T) {
	t.Parallel()

	refused := errors.New("connection refused")
	tests := []struct {
		token   paho.Token
		wantErr error
		name    string
	}{
		{name: "connected", token: newDoneToken(nil)},
		{name: "rejected", token: newDoneToken(refused), wantErr: refused},
		{name: "broker down", token: &pendingToken{done: make(chan struct{})}, wantErr: ErrConnectTimeout},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			p := newTestPublisher(&fakeClient{connectToken: tt.token})

			ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
			defer cancel()
			err := p.Connect(ctx)
			if tt.wantErr == nil {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestHandleEvent(t *testing.T) {
	t.Parallel()
	client := &fakeClient{}
	p := newTestPublisher(client, WithQoS(1))

	p.HandleEvent(fingerprint.MatchFound{ID: 7, Score: 142})
	p.HandleEvent(fingerprint.StateChanged{State: fingerprint.StateEnrollStep1})
	p.HandleEvent(fingerprint.EnrollFailed{Err: errors.New("combine: enroll mismatch")})

	msgs := client.messages()
	require.Len(t, msgs, 4)

	assert.Equal(t, "home/door/events/match_found", msgs[0].topic)
	assert.Equal(t, byte(1), msgs[0].qos)
	assert.False(t, msgs[0].retain)
	assert.JSONEq(t, `{"time":"2025-06-01T08:30:00Z","type":"match_found","id":7,"score":142}`, msgs[0].payload)

	assert.Equal(t, "home/door/events/state_changed", msgs[1].topic)
	assert.Equal(t, published{topic: "home/door/state", payload: "enroll-1", qos: 1, retain: true}, msgs[2])

	var m Message
	require.NoError(t, json.Unmarshal([]byte(msgs[3].payload), &m))
	assert.Equal(t, "enroll_failed", m.Type)
	assert.Equal(t, "combine: enroll mismatch", m.Error)
	assert.Nil(t, m.ID)
}

func TestNewMessage_Initialized(t *testing.T) {
	t.Parallel()
	ev := fingerprint.Initialized{
		Params:        fingerprint.SystemParameters{LibrarySize: 200},
		Info:          fingerprint.ProductInfo{Model: "R503", Serial: "0001"},
		TemplateCount: 3,
	}
	m := NewMessage(ev, fixedTime)
	assert.Equal(t, Message{
		Time:          fixedTime,
		Type:          "initialized",
		Model:         "R503",
		Serial:        "0001",
		Capacity:      200,
		TemplateCount: 3,
	}, m)
}

func TestNewMessage_ErrorCode(t *testing.T) {
	t.Parallel()

	mismatch := &fingerprint.SensorError{Op: "combine model", Code: fingerprint.CodeEnrollMismatch}
	tests := []struct {
		ev       fingerprint.Event
		wantCode *uint8
		name     string
		wantJSON string
	}{
		{
			name:     "enroll sensor failure",
			ev:       fingerprint.EnrollFailed{Err: fmt.Errorf("enroll: %w", mismatch)},
			wantCode: ptr(uint8(fingerprint.CodeEnrollMismatch)),
			wantJSON: `"code":10`,
		},
		{
			name:     "match sensor failure",
			ev:       fingerprint.MatchFailed{Err: &fingerprint.SensorError{Op: "search", Code: fingerprint.CodeFlashErr}},
			wantCode: ptr(uint8(fingerprint.CodeFlashErr)),
		},
		{
			name: "non sensor failure has no code",
			ev:   fingerprint.EnrollFailed{Err: fingerprint.ErrRemovalTimeout},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			m := NewMessage(tt.ev, fixedTime)
			assert.Equal(t, tt.wantCode, m.Code)
			assert.NotEmpty(t, m.Error)

			raw, err := json.Marshal(m)
			require.NoError(t, err)
			if tt.wantJSON != "" {
				assert.Contains(t, string(raw), tt.wantJSON)
			}
			if tt.wantCode == nil {
				assert.NotContains(t, string(raw), `"code"`)
			}
		})
	}
}

func ptr[T any](v T) *T { return &v }

func TestClose(t *testing.T) {
	t.Parallel()

	t.Run("connected", func(t *testing.T) {
		t.Parallel()
		client := &fakeClient{connected: true}
		p := newTestPublisher(client)
		require.NoError(t, p.Close())
		assert.True(t, client.disconnected)
		assert.Equal(t, []published{{topic: "home/door/status", payload: "offline", qos: 1, retain: true}}, client.messages())
	})

	t.Run("never connected", func(t *testing.T) {
		t.Parallel()
		client := &fakeClient{}
		p := newTestPublisher(client)
		require.NoError(t, p.Close())
		assert.False(t, client.disconnected)
		assert.Empty(t, client.messages())
	})
}

func TestDefaultNodeID(t *testing.T) {
	t.Parallel()
	id := DefaultNodeID()
	assert.NotEmpty(t, id)
	assert.LessOrEqual(t, len(id), 12)
	assert.Equal(t, id, DefaultNodeID())
}
