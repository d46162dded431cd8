// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package handle

import (
	"fmt"
	"io"
)

// Kind identifies which handle type acquired the value an Event refers to.
type Kind uint8

const (
	KindUnique Kind = iota
	KindShared
)

// String implements the [fmt.Stringer] interface.
func (k Kind) String() string {
	switch k {
	case KindUnique:
		return "unique"
	case KindShared:
		return "shared"
	default:
		return "unknown"
	}
}

// Event describes a value being acquired or released by a handle.
type Event struct {
	Kind  Kind
	Value any
}

// Observer receives diagnostic notifications. It is purely
// instrumentation and has no effect on ownership.
type Observer interface {
	Acquired(Event)
	Released(Event)
}

type nopObserver struct{}

func (nopObserver) Acquired(Event) {}
func (nopObserver) Released(Event) {}

type multiObserver []Observer

func (m multiObserver) Acquired(e Event) {
	for _, obs := range m {
		obs.Acquired(e)
	}
}

func (m multiObserver) Released(e Event) {
	for _, obs := range m {
		obs.Released(e)
	}
}

// Observers fans every notification out to each of obs in order.
func Observers(obs ...Observer) Observer {
	return multiObserver(obs)
}

// PrintObserver writes a line to w for every acquire and release:
//
//	New object on the heap: 4
//	Freed: 4
func PrintObserver(w io.Writer) Observer {
	return printObserver{w: w}
}

type printObserver struct {
	w io.Writer
}

func (p printObserver) Acquired(e Event) {
	fmt.Fprintf(p.w, "New object on the heap: %v\n", e.Value)
}

func (p printObserver) Released(e Event) {
	fmt.Fprintf(p.w, "Freed: %v\n", e.Value)
}
