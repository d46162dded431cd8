// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package main

import (
	"bytes"
	"context"
	_ "embed"
	"os"
	"os/signal"

	"github.com/z5labs/handle/example/walkthrough/app"
)

//go:embed config.yaml
var cfgSrc []byte

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	cmd := app.NewCommand(bytes.NewReader(cfgSrc))
	err := cmd.ExecuteContext(ctx)
	if err != nil {
		cancel()
		os.Exit(1)
	}
}
