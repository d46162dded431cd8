// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"

	"github.com/z5labs/handle"
	"github.com/z5labs/handle/internal/fixedpool"
	"github.com/z5labs/handle/pkg/alloc"
	"github.com/z5labs/handle/pkg/handlemetric"
	"github.com/z5labs/handle/pkg/handleslog"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// StressError is returned when the stressed value was not released
// exactly once.
type StressError struct {
	Released int32
	Live     int64
}

// Error implements the [builtin.error] interface.
func (e StressError) Error() string {
	return fmt.Sprintf("expected value to be released exactly once: released %d time(s) with %d live value(s)", e.Released, e.Live)
}

// InvalidStressConfigError is returned when a stress setting is negative.
type InvalidStressConfigError struct {
	Field string
	Value int
}

// Error implements the [builtin.error] interface.
func (e InvalidStressConfigError) Error() string {
	return fmt.Sprintf("stress %s must not be negative: %d", e.Field, e.Value)
}

func (cfg StressConfig) validate() error {
	if cfg.Workers < 0 {
		return InvalidStressConfigError{Field: "workers", Value: cfg.Workers}
	}
	if cfg.Iterations < 0 {
		return InvalidStressConfigError{Field: "iterations", Value: cfg.Iterations}
	}
	return nil
}

func stressCommand(rt *runtime) *cobra.Command {
	var workers, iterations int
	cmd := &cobra.Command{
		Use:   "stress",
		Short: "Clone and close one shared handle from many goroutines",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := rt.cfg.Stress
			if cmd.Flags().Changed("workers") {
				cfg.Workers = workers
			}
			if cmd.Flags().Changed("iterations") {
				cfg.Iterations = iterations
			}
			return runStress(cmd.Context(), rt, cfg, cmd.OutOrStdout())
		},
	}
	cmd.Flags().IntVar(&workers, "workers", 0, "number of goroutines cloning the handle")
	cmd.Flags().IntVar(&iterations, "iterations", 0, "clone and close cycles per goroutine")
	return cmd
}

type shutdownFunc func(context.Context) error

func (rt *runtime) tracerProvider(out io.Writer) (trace.TracerProvider, shutdownFunc, error) {
	if !rt.cfg.Telemetry.Traces {
		return noop.NewTracerProvider(), func(context.Context) error { return nil }, nil
	}
	exp, err := stdouttrace.New(stdouttrace.WithWriter(out))
	if err != nil {
		return nil, nil, err
	}
	tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exp))
	return tp, tp.Shutdown, nil
}

func (rt *runtime) metricObserver(out io.Writer) (handle.Observer, shutdownFunc, error) {
	if !rt.cfg.Telemetry.Metrics {
		return handle.Observers(), func(context.Context) error { return nil }, nil
	}
	exp, err := stdoutmetric.New(stdoutmetric.WithWriter(out))
	if err != nil {
		return nil, nil, err
	}
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exp)))
	obs, err := handlemetric.NewObserver(handlemetric.MeterProvider(mp))
	if err != nil {
		return nil, nil, errors.Join(err, mp.Shutdown(context.Background()))
	}
	return obs, mp.Shutdown, nil
}

func storeMax(v *atomic.Int64, n int64) {
	for {
		old := v.Load()
		if n <= old || v.CompareAndSwap(old, n) {
			return
		}
	}
}

func runStress(ctx context.Context, rt *runtime, cfg StressConfig, out io.Writer) (err error) {
	err = cfg.validate()
	if err != nil {
		return err
	}

	tp, shutdownTraces, err := rt.tracerProvider(out)
	if err != nil {
		return err
	}
	metricObs, shutdownMetrics, err := rt.metricObserver(out)
	if err != nil {
		return err
	}
	defer func() {
		// the run context may already be cancelled
		err = errors.Join(
			err,
			shutdownTraces(context.Background()),
			shutdownMetrics(context.Background()),
		)
	}()

	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	var released atomic.Int32
	a := alloc.NewLimited[Point](1)
	s, err := handle.NewShared(
		Point{},
		handle.WithAllocator[Point](a),
		handle.WithObserver[Point](handle.Observers(handleslog.NewObserver(rt.log), metricObs)),
		handle.WithDestructor(func(*Point) {
			released.Add(1)
		}),
	)
	if err != nil {
		return err
	}

	var peak atomic.Int64
	tracer := tp.Tracer("github.com/z5labs/handle/example/walkthrough")
	err = fixedpool.Run(ctx, cfg.Workers, func(ctx context.Context, worker int) error {
		ctx, span := tracer.Start(ctx, "stress.worker", trace.WithAttributes(attribute.Int("worker", worker)))
		defer span.End()

		for range cfg.Iterations {
			if err := ctx.Err(); err != nil {
				return err
			}

			c := s.Clone()
			storeMax(&peak, c.UseCount())
			err := c.Close()
			if err != nil {
				return err
			}
		}
		rt.log.DebugContext(ctx, "worker finished", slog.Int("worker", worker))
		return nil
	})
	if err != nil {
		return errors.Join(err, s.Close())
	}

	fmt.Fprintf(out, "workers: %d, iterations: %d\n", cfg.Workers, cfg.Iterations)
	fmt.Fprintf(out, "use count after workers returned: %d\n", s.UseCount())
	fmt.Fprintf(out, "peak use count: %d\n", peak.Load())

	err = s.Close()
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "released %d time(s), live values: %d\n", released.Load(), a.Live())
	if released.Load() != 1 || a.Live() != 0 {
		return StressError{Released: released.Load(), Live: a.Live()}
	}
	return nil
}
