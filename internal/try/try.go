// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package try collects errors from deferred cleanup and recovered panics.
package try

import (
	"errors"
	"fmt"
	"io"
)

// PanicError wraps a value recovered from a panic.
type PanicError struct {
	Value any
}

// Error implements the [builtin.error] interface.
func (e PanicError) Error() string {
	return fmt.Sprintf("recovered from panic: %v", e.Value)
}

// Unwrap returns the recovered value if it is an error.
func (e PanicError) Unwrap() error {
	err, _ := e.Value.(error)
	return err
}

// Recover must be deferred directly. It converts a panic into a
// PanicError joined onto *err.
func Recover(err *error) {
	r := recover()
	if r == nil {
		return
	}
	*err = errors.Join(*err, PanicError{Value: r})
}

// CloseError wraps a failure returned by io.Closer.Close.
type CloseError struct {
	Cause error
}

// Error implements the [builtin.error] interface.
func (e CloseError) Error() string {
	return fmt.Sprintf("failed to close: %s", e.Cause)
}

// Unwrap implements the implicit interface used by [errors.Is] and [errors.As].
func (e CloseError) Unwrap() error {
	return e.Cause
}

// Close closes v if it is an io.Closer and joins any failure onto *err.
// A nil v is ignored.
func Close(err *error, v any) {
	c, ok := v.(io.Closer)
	if !ok || c == nil {
		return
	}

	cerr := c.Close()
	if cerr == nil {
		return
	}
	*err = errors.Join(*err, CloseError{Cause: cerr})
}
