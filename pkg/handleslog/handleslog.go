// Copyright (c) 2023 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package handleslog reports handle acquires and releases as slog records.
package handleslog

import (
	"context"
	"log/slog"

	"github.com/z5labs/handle"
)

// Kind
func Kind(k handle.Kind) slog.Attr {
	return slog.String("handle_kind", k.String())
}

// Value
func Value(v any) slog.Attr {
	return slog.Any("handle_value", v)
}

// Observer is a handle.Observer which logs every event.
type Observer struct {
	log   *slog.Logger
	level slog.Level
}

// Option configures an Observer.
type Option func(*Observer)

// Level sets the level events are logged at. Defaults to slog.LevelDebug.
func Level(lvl slog.Level) Option {
	return func(o *Observer) {
		o.level = lvl
	}
}

// NewObserver returns an Observer logging to log.
func NewObserver(log *slog.Logger, opts ...Option) *Observer {
	o := &Observer{
		log:   log,
		level: slog.LevelDebug,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Acquired implements the handle.Observer interface.
func (o *Observer) Acquired(e handle.Event) {
	o.log.LogAttrs(context.Background(), o.level, "New object on the heap", Kind(e.Kind), Value(e.Value))
}

// Released implements the handle.Observer interface.
func (o *Observer) Released(e handle.Event) {
	o.log.LogAttrs(context.Background(), o.level, "Freed", Kind(e.Kind), Value(e.Value))
}
