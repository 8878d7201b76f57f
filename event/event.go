// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package event records the events emitted while applying calls.
package event

import (
	"fmt"
	"reflect"
	"strings"
)

// Event is emitted by a module. Concrete events are plain structs.
type Event interface {
	Module() string
}

// Name returns the event name, which is its type name.
func Name(ev Event) string {
	t := reflect.TypeOf(ev)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t.Name()
}

// String renders ev as "module.Name{fields}".
func String(ev Event) string {
	s := fmt.Sprintf("%+v", ev)
	s = strings.TrimPrefix(s, "&")
	return ev.Module() + "." + Name(ev) + s
}

// Emitter accepts events.
type Emitter interface {
	Emit(ev Event)
}

// Recorder collects events in emission order and can revert to a mark.
type Recorder struct {
	events []Event
}

func (r *Recorder) Emit(ev Event) {
	r.events = append(r.events, ev)
}

// Mark returns the current position.
func (r *Recorder) Mark() int {
	return len(r.events)
}

// RevertTo drops all events emitted after mark.
func (r *Recorder) RevertTo(mark int) {
	if mark < len(r.events) {
		clear(r.events[mark:])
		r.events = r.events[:mark]
	}
}

// Since returns events emitted after mark.
func (r *Recorder) Since(mark int) []Event {
	if mark >= len(r.events) {
		return nil
	}
	return append([]Event(nil), r.events[mark:]...)
}

// Drain returns all recorded events and resets the recorder.
func (r *Recorder) Drain() []Event {
	out := r.events
	r.events = nil
	return out
}

// Len returns the number of recorded events.
func (r *Recorder) Len() int {
	return len(r.events)
}
