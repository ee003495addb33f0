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

import "sync"

// State is the workflow state of the enroll/match service.
type State int

const (
	// StateMatch captures and searches the library on every tick
	StateMatch State = iota
	// StateEnrollStep1 waits for the first enrollment capture
	StateEnrollStep1
	// StateEnrollStep2 waits for the second capture, then stores the model
	StateEnrollStep2
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateMatch:
		return "match"
	case StateEnrollStep1:
		return "enroll-1"
	case StateEnrollStep2:
		return "enroll-2"
	default:
		return "unknown"
	}
}

// IsEnroll reports whether s is one of the enrollment steps.
func (s State) IsEnroll() bool {
	return s == StateEnrollStep1 || s == StateEnrollStep2
}

// EventType identifies an Event variant.
type EventType int

const (
	EventInitialized EventType = iota
	EventImageCaptured
	EventCaptureFailed
	EventMatchFound
	EventMatchNotFound
	EventMatchFailed
	EventStateChanged
	EventEnrollSucceeded
	EventEnrollFailed
)

var eventNames = [...]string{
	EventInitialized:     "initialized",
	EventImageCaptured:   "image_captured",
	EventCaptureFailed:   "capture_failed",
	EventMatchFound:      "match_found",
	EventMatchNotFound:   "match_not_found",
	EventMatchFailed:     "match_failed",
	EventStateChanged:    "state_changed",
	EventEnrollSucceeded: "enroll_succeeded",
	EventEnrollFailed:    "enroll_failed",
}

// String returns the snake_case event name used in logs, topics and metrics.
func (t EventType) String() string {
	if t < 0 || int(t) >= len(eventNames) {
		return "unknown"
	}
	return eventNames[t]
}

// Event is one of the lifecycle notifications below. The set is closed.
type Event interface {
	Type() EventType
	isEvent()
}

// Initialized is emitted once a session has completed its startup sequence.
type Initialized struct {
	Params        SystemParameters
	Info          ProductInfo
	TemplateCount uint16
}

// ImageCaptured is emitted when a finger image was taken.
type ImageCaptured struct{}

// CaptureFailed reports a capture error other than "no finger".
type CaptureFailed struct {
	Err error
}

// MatchFound reports a library hit.
type MatchFound struct {
	ID    uint16
	Score uint16
}

// MatchNotFound reports a well-formed search with no hit.
type MatchNotFound struct{}

// MatchFailed reports any other failure during matching.
type MatchFailed struct {
	Err error
}

// StateChanged reports a service state transition.
type StateChanged struct {
	State State
}

// EnrollSucceeded carries the id the new template was stored at.
type EnrollSucceeded struct {
	ID uint16
}

// EnrollFailed reports a failed enrollment step.
type EnrollFailed struct {
	Err error
}

func (Initialized) Type() EventType     { return EventInitialized }
func (ImageCaptured) Type() EventType   { return EventImageCaptured }
func (CaptureFailed) Type() EventType   { return EventCaptureFailed }
func (MatchFound) Type() EventType      { return EventMatchFound }
func (MatchNotFound) Type() EventType   { return EventMatchNotFound }
func (MatchFailed) Type() EventType     { return EventMatchFailed }
func (StateChanged) Type() EventType    { return EventStateChanged }
func (EnrollSucceeded) Type() EventType { return EventEnrollSucceeded }
func (EnrollFailed) Type() EventType    { return EventEnrollFailed }

func (Initialized) isEvent()     {}
func (ImageCaptured) isEvent()   {}
func (CaptureFailed) isEvent()   {}
func (MatchFound) isEvent()      {}
func (MatchNotFound) isEvent()   {}
func (MatchFailed) isEvent()     {}
func (StateChanged) isEvent()    {}
func (EnrollSucceeded) isEvent() {}
func (EnrollFailed) isEvent()    {}

// Listener receives events. HandleEvent runs on the goroutine that owns the
// session and should return quickly.
type Listener interface {
	HandleEvent(ev Event)
}

// ListenerFunc adapts a function to the Listener interface.
type ListenerFunc func(ev Event)

// HandleEvent calls f(ev).
func (f ListenerFunc) HandleEvent(ev Event) {
	f(ev)
}

// Listeners fans an event out to every registered listener in order.
type Listeners struct {
	list []Listener
	mu   sync.RWMutex
}

// Add registers l. Nil listeners are ignored.
func (ls *Listeners) Add(l Listener) {
	if l == nil {
		return
	}
	ls.mu.Lock()
	defer ls.mu.Unlock()
	ls.list = append(ls.list, l)
}

// Len returns the number of registered listeners.
func (ls *Listeners) Len() int {
	ls.mu.RLock()
	defer ls.mu.RUnlock()
	return len(ls.list)
}

// HandleEvent delivers ev to all listeners.
func (ls *Listeners) HandleEvent(ev Event) {
	ls.mu.RLock()
	list := ls.list
	ls.mu.RUnlock()
	for _, l := range list {
		l.HandleEvent(ev)
	}
}
