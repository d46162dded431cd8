// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package app implements the walkthrough command line tool which
// demonstrates unique and shared ownership using package handle.
package app

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/z5labs/handle"
	"github.com/z5labs/handle/config"
	"github.com/z5labs/handle/pkg/handleslog"
	"github.com/z5labs/handle/pkg/otelslog"

	"github.com/spf13/cobra"
)

// EnvPrefix is the prefix of environment variables which override config values.
const EnvPrefix = "HANDLE_"

// StressConfig configures the stress command.
type StressConfig struct {
	Workers    int           `config:"workers"`
	Iterations int           `config:"iterations"`
	Timeout    time.Duration `config:"timeout"`
}

// Config is the configuration shared by every command.
type Config struct {
	LogLevel  slog.Level   `config:"log_level"`
	Stress    StressConfig `config:"stress"`
	Telemetry struct {
		Metrics bool `config:"metrics"`
		Traces  bool `config:"traces"`
	} `config:"telemetry"`
}

// ConfigReadError
type ConfigReadError struct {
	Cause error
}

// Error implements the [builtin.error] interface.
func (e ConfigReadError) Error() string {
	return fmt.Sprintf("failed to read config source(s): %s", e.Cause)
}

// Unwrap implements the implicit interface used by [errors.Is] and [errors.As].
func (e ConfigReadError) Unwrap() error {
	return e.Cause
}

// ConfigUnmarshalError
type ConfigUnmarshalError struct {
	Cause error
}

// Error implements the [builtin.error] interface.
func (e ConfigUnmarshalError) Error() string {
	return fmt.Sprintf("failed to unmarshal read config source(s) into custom type: %s", e.Cause)
}

// Unwrap implements the implicit interface used by [errors.Is] and [errors.As].
func (e ConfigUnmarshalError) Unwrap() error {
	return e.Cause
}

type runtime struct {
	cfg Config
	log *slog.Logger
}

// observer prints the diagnostic lines to out and logs them at debug level.
func (rt *runtime) observer(out io.Writer) handle.Observer {
	return handle.Observers(
		handle.PrintObserver(out),
		handleslog.NewObserver(rt.log),
	)
}

// NewCommand returns the root command. Config values are read from
// defaults, the optional --config YAML file, HANDLE_ prefixed environment
// variables and finally flags, each overriding the previous.
func NewCommand(defaults io.Reader) *cobra.Command {
	rt := &runtime{}

	var cfgPath, logLevel string
	cmd := &cobra.Command{
		Use:          "walkthrough",
		Short:        "Walk through unique and shared ownership of heap values",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			srcs := []config.Source{config.FromYaml(defaults)}
			if cfgPath != "" {
				srcs = append(srcs, config.FromYamlFile(os.DirFS(filepath.Dir(cfgPath)), filepath.Base(cfgPath)))
			}
			srcs = append(srcs, config.FromEnv(EnvPrefix))
			if cmd.Flags().Changed("log-level") {
				srcs = append(srcs, config.Map{"log_level": logLevel})
			}
			return rt.init(cmd.ErrOrStderr(), srcs...)
		},
	}
	cmd.PersistentFlags().StringVar(&cfgPath, "config", "", "path to a YAML config file")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "minimum level of log records written to stderr")

	cmd.AddCommand(
		uniqueCommand(rt),
		sharedCommand(rt),
		stressCommand(rt),
	)
	return cmd
}

func (rt *runtime) init(logOut io.Writer, srcs ...config.Source) error {
	m, err := config.Read(srcs...)
	if err != nil {
		return ConfigReadError{Cause: err}
	}

	err = m.Unmarshal(&rt.cfg)
	if err != nil {
		return ConfigUnmarshalError{Cause: err}
	}

	rt.log = otelslog.New(slog.NewTextHandler(logOut, &slog.HandlerOptions{
		Level: rt.cfg.LogLevel,
	}))
	return nil
}
