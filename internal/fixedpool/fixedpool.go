// Copyright (c) 2023 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package fixedpool runs a fixed number of identical workers to completion.
package fixedpool

import (
	"context"
	"errors"

	"github.com/z5labs/handle/internal/try"

	"golang.org/x/sync/errgroup"
)

// Task is run once per worker. The worker index is in [0, n).
type Task func(ctx context.Context, worker int) error

// Run starts n workers running task and waits for all of them to return.
// The context passed to task is cancelled as soon as any worker fails.
// Panics are recovered as try.PanicError and every worker error is
// joined into the returned error.
func Run(ctx context.Context, n int, task Task) error {
	g, gctx := errgroup.WithContext(ctx)

	errs := make([]error, n)
	for i := range n {
		g.Go(func() error {
			err := runTask(gctx, i, task)
			errs[i] = err
			return err
		})
	}

	// every error is already captured in errs
	_ = g.Wait()
	return errors.Join(errs...)
}

func runTask(ctx context.Context, worker int, task Task) (err error) {
	defer try.Recover(&err)
	return task(ctx, worker)
}
