// Copyright (c) 2023 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package otelslog provides a OpenTelemetry aware slog.Handler implementation.
package otelslog

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/trace"
)

// Handler is an slog.Handler which correlates records with the span
// found in the context they are logged with by adding its trace and
// span ids under the "otel" group.
type Handler struct {
	next slog.Handler
}

// NewHandler wraps h.
func NewHandler(h slog.Handler) *Handler {
	return &Handler{next: h}
}

// New is shorthand for slog.New(NewHandler(h)).
func New(h slog.Handler) *slog.Logger {
	return slog.New(NewHandler(h))
}

// Enabled implements the slog.Handler interface.
func (h *Handler) Enabled(ctx context.Context, lvl slog.Level) bool {
	return h.next.Enabled(ctx, lvl)
}

// Handle implements the slog.Handler interface.
func (h *Handler) Handle(ctx context.Context, record slog.Record) error {
	spanCtx := trace.SpanContextFromContext(ctx)
	if !spanCtx.IsValid() {
		return h.next.Handle(ctx, record)
	}

	r := record.Clone()
	r.AddAttrs(slog.Group(
		"otel",
		slog.String("trace_id", spanCtx.TraceID().String()),
		slog.String("span_id", spanCtx.SpanID().String()),
	))
	return h.next.Handle(ctx, r)
}

// WithAttrs implements the slog.Handler interface.
func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return NewHandler(h.next.WithAttrs(attrs))
}

// WithGroup implements the slog.Handler interface.
func (h *Handler) WithGroup(name string) slog.Handler {
	return NewHandler(h.next.WithGroup(name))
}
