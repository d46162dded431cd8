// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package alloc provides the allocators handles obtain their values from.
package alloc

import (
	"errors"
	"sync/atomic"
)

// Allocator hands out and takes back values of type T.
type Allocator[T any] interface {
	Create() (*T, error)
	Delete(*T) error
}

// Native uses Go's built-in memory management.
type Native[T any] struct{}

// Create implements the [Allocator] interface.
func (Native[T]) Create() (*T, error) {
	return new(T), nil
}

// Delete implements the [Allocator] interface.
func (Native[T]) Delete(*T) error {
	return nil
}

// ErrExhausted is returned by Limited once its budget is spent.
var ErrExhausted = errors.New("allocator budget exhausted")

// Limited caps the number of values which may be live at once.
// It is safe for concurrent use.
type Limited[T any] struct {
	max  int64
	live atomic.Int64
}

// NewLimited returns a Limited allowing at most max live values.
func NewLimited[T any](max int64) *Limited[T] {
	return &Limited[T]{max: max}
}

// Create implements the [Allocator] interface.
func (l *Limited[T]) Create() (*T, error) {
	for {
		n := l.live.Load()
		if n >= l.max {
			return nil, ErrExhausted
		}
		if l.live.CompareAndSwap(n, n+1) {
			return new(T), nil
		}
	}
}

// Delete implements the [Allocator] interface.
func (l *Limited[T]) Delete(*T) error {
	l.live.Add(-1)
	return nil
}

// Live returns the number of values created but not yet deleted.
func (l *Limited[T]) Live() int64 {
	return l.live.Load()
}

var (
	_ Allocator[int] = Native[int]{}
	_ Allocator[int] = (*Limited[int])(nil)
)
