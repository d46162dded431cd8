// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package handle

import "github.com/z5labs/handle/pkg/alloc"

// Option configures how a handle obtains and releases its value.
type Option[T any] func(*options[T])

type options[T any] struct {
	alloc      alloc.Allocator[T]
	destructor func(*T)
	observer   Observer
}

func newOptions[T any](opts []Option[T]) options[T] {
	o := options[T]{
		alloc:    alloc.Native[T]{},
		observer: nopObserver{},
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithAllocator sets the allocator the value is created by and,
// once released, returned to. Defaults to [alloc.Native].
func WithAllocator[T any](a alloc.Allocator[T]) Option[T] {
	return func(o *options[T]) {
		o.alloc = a
	}
}

// WithDestructor registers a func which is called exactly once
// with the value when it is released.
func WithDestructor[T any](f func(*T)) Option[T] {
	return func(o *options[T]) {
		o.destructor = f
	}
}

// WithObserver registers an Observer which is notified when
// the value is acquired and released.
func WithObserver[T any](obs Observer) Option[T] {
	return func(o *options[T]) {
		o.observer = obs
	}
}

// release runs the release sequence for p. It must only be
// called once per value.
func (o *options[T]) release(kind Kind, p *T) error {
	o.observer.Released(Event{Kind: kind, Value: *p})
	if o.destructor != nil {
		o.destructor(p)
	}
	err := o.alloc.Delete(p)
	if err != nil {
		return &ReleaseError{Cause: err}
	}
	return nil
}

// acquire allocates a value and initializes it to v.
func (o *options[T]) acquire(kind Kind, v T) (*T, error) {
	p, err := o.alloc.Create()
	if err != nil {
		return nil, &AllocationError{Cause: err}
	}
	*p = v
	o.observer.Acquired(Event{Kind: kind, Value: v})
	return p, nil
}
