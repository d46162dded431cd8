// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package config

import (
	"os"
	"strings"
)

// Env represents a Source where its underlying values
// are extracted from environment variables.
type Env struct {
	prefix  string
	environ func() []string
}

// FromEnv returns a Source which will apply its config from the
// environment variables available to the current process whose
// name starts with prefix.
//
// The prefix is stripped and the remaining name is lower cased.
// A double underscore nests keys, e.g. with the prefix "HANDLE_"
// the variable HANDLE_STRESS__WORKERS sets "stress.workers".
func FromEnv(prefix string) Env {
	return Env{
		prefix:  prefix,
		environ: os.Environ,
	}
}

// Apply implements the Source interface.
func (src Env) Apply(store Store) error {
	for _, pair := range src.environ() {
		k, v, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		name, ok := strings.CutPrefix(k, src.prefix)
		if !ok || name == "" {
			continue
		}

		key := strings.ReplaceAll(strings.ToLower(name), "__", ".")
		err := store.Set(key, v)
		if err != nil {
			return err
		}
	}
	return nil
}
