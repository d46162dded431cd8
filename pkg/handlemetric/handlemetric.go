// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package handlemetric records handle acquires and releases as OpenTelemetry metrics.
package handlemetric

import (
	"context"

	"github.com/z5labs/handle"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/z5labs/handle/pkg/handlemetric"

// KindKey is the attribute every measurement is recorded with.
const KindKey = attribute.Key("handle.kind")

// Observer is a handle.Observer which records:
//   - handle.acquired, the number of values acquired
//   - handle.released, the number of values released
//   - handle.live, the number of values acquired but not yet released
type Observer struct {
	acquired metric.Int64Counter
	released metric.Int64Counter
	live     metric.Int64UpDownCounter
}

type options struct {
	mp metric.MeterProvider
}

// Option configures an Observer.
type Option func(*options)

// MeterProvider sets the metric.MeterProvider instruments are created
// from. Defaults to the global provider.
func MeterProvider(mp metric.MeterProvider) Option {
	return func(o *options) {
		o.mp = mp
	}
}

// NewObserver creates the instruments used by an Observer.
func NewObserver(opts ...Option) (*Observer, error) {
	o := &options{
		mp: otel.GetMeterProvider(),
	}
	for _, opt := range opts {
		opt(o)
	}

	meter := o.mp.Meter(instrumentationName)
	acquired, err := meter.Int64Counter(
		"handle.acquired",
		metric.WithDescription("Number of values acquired by handles."),
		metric.WithUnit("{value}"),
	)
	if err != nil {
		return nil, err
	}
	released, err := meter.Int64Counter(
		"handle.released",
		metric.WithDescription("Number of values released by handles."),
		metric.WithUnit("{value}"),
	)
	if err != nil {
		return nil, err
	}
	live, err := meter.Int64UpDownCounter(
		"handle.live",
		metric.WithDescription("Number of values acquired but not yet released."),
		metric.WithUnit("{value}"),
	)
	if err != nil {
		return nil, err
	}

	obs := &Observer{
		acquired: acquired,
		released: released,
		live:     live,
	}
	return obs, nil
}

// Acquired implements the handle.Observer interface.
func (o *Observer) Acquired(e handle.Event) {
	attrs := metric.WithAttributes(KindKey.String(e.Kind.String()))
	o.acquired.Add(context.Background(), 1, attrs)
	o.live.Add(context.Background(), 1, attrs)
}

// Released implements the handle.Observer interface.
func (o *Observer) Released(e handle.Event) {
	attrs := metric.WithAttributes(KindKey.String(e.Kind.String()))
	o.released.Add(context.Background(), 1, attrs)
	o.live.Add(context.Background(), -1, attrs)
}
