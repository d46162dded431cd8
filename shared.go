// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package handle

import (
	"fmt"
	"strconv"
	"sync/atomic"

	"github.com/z5labs/handle/internal/try"
)

// block is the control block shared by every Shared handle
// referencing the same value. kind is the Kind the value was
// acquired as, which is also the Kind it is released as.
type block[T any] struct {
	raw  *T
	kind Kind
	refs atomic.Int64
	opts *options[T]
}

func (b *block[T]) acquire() {
	n := b.refs.Add(1)
	if n < 2 {
		panic("handle: Clone of a released Shared value, use count is " + strconv.FormatInt(n, 10))
	}
}

func (b *block[T]) release() error {
	n := b.refs.Add(-1)
	if n > 0 {
		return nil
	}
	if n < 0 {
		panic("handle: Shared use count is negative: " + strconv.FormatInt(n, 10))
	}
	return b.opts.release(b.kind, b.raw)
}

// Shared is one of possibly many owners of a single value. The value
// is released exactly once, when the last owner is closed. The zero
// value is an empty handle.
//
// New owners are created with [Shared.Clone] or [Shared.CopyFrom]. A
// Shared must never be copied by value since the copy would not be
// counted; go vet reports such copies.
//
// The use count is safe for concurrent Clone and Close from many
// goroutines as long as each goroutine closes only the handles it
// owns. Access to the value itself is not synchronized.
type Shared[T any] struct {
	_    noCopy
	addr *Shared[T]
	b    *block[T]
}

// NewShared allocates a value, initializes it to v and returns its
// first owner. The use count starts at 1.
func NewShared[T any](v T, opts ...Option[T]) (*Shared[T], error) {
	o := newOptions(opts)
	p, err := o.acquire(KindShared, v)
	if err != nil {
		return nil, err
	}
	b := &block[T]{
		raw:  p,
		kind: KindShared,
		opts: &o,
	}
	b.refs.Store(1)

	s := &Shared[T]{b: b}
	s.addr = s
	return s, nil
}

func newSharedFrom[T any](b *block[T]) *Shared[T] {
	s := &Shared[T]{b: b}
	s.addr = s
	return s
}

// copyCheck never writes to s so concurrent Clones of the same
// handle do not race.
func (s *Shared[T]) copyCheck(op string) {
	if s.addr != nil && s.addr != s {
		panic(CopyError{Op: op})
	}
}

// IsEmpty reports whether s references no value.
func (s *Shared[T]) IsEmpty() bool {
	return s.b == nil
}

// UseCount returns the number of owners of the value referenced by s,
// or 0 if s is empty. The result is a snapshot which concurrent
// Clones and Closes may invalidate immediately.
func (s *Shared[T]) UseCount() int64 {
	if s.b == nil {
		return 0
	}
	return s.b.refs.Load()
}

// Clone returns a new owner of the value referenced by s, incrementing
// the use count. Cloning an empty handle returns an empty handle.
func (s *Shared[T]) Clone() *Shared[T] {
	s.copyCheck("Clone")

	b := s.b
	if b != nil {
		b.acquire()
	}
	return newSharedFrom(b)
}

// CopyFrom makes s an additional owner of the value referenced by
// other. The value s referenced before, if different, loses an owner
// and is released if that was the last one.
func (s *Shared[T]) CopyFrom(other *Shared[T]) error {
	s.copyCheck("CopyFrom")
	other.copyCheck("CopyFrom")
	if s.b == other.b {
		return nil
	}
	if s.addr == nil {
		s.addr = s
	}

	if other.b != nil {
		other.b.acquire()
	}
	old := s.b
	s.b = other.b
	if old == nil {
		return nil
	}
	return old.release()
}

// Move transfers ownership to a new handle and leaves s empty. The use
// count does not change.
func (s *Shared[T]) Move() *Shared[T] {
	s.copyCheck("Move")

	b := s.b
	s.b = nil
	return newSharedFrom(b)
}

// MoveFrom takes over other's ownership, leaving other empty, without
// changing its use count. The value s referenced before loses an owner
// and is released if that was the last one. Moving a handle into itself
// is a no-op.
func (s *Shared[T]) MoveFrom(other *Shared[T]) error {
	if s == other {
		return nil
	}
	s.copyCheck("MoveFrom")
	other.copyCheck("MoveFrom")
	if s.addr == nil {
		s.addr = s
	}

	old := s.b
	s.b = other.b
	other.b = nil
	if old == nil {
		return nil
	}
	return old.release()
}

// Swap exchanges the values referenced by s and other. Use counts do
// not change.
func (s *Shared[T]) Swap(other *Shared[T]) {
	s.copyCheck("Swap")
	other.copyCheck("Swap")
	if s.addr == nil {
		s.addr = s
	}
	if other.addr == nil {
		other.addr = other
	}
	s.b, other.b = other.b, s.b
}

// Deref returns a pointer to the shared value. Writes through it are
// visible to every owner and are not synchronized.
func (s *Shared[T]) Deref() (*T, error) {
	if s.b == nil {
		return nil, &NullDereferenceError{Op: "Deref"}
	}
	s.copyCheck("Deref")
	return s.b.raw, nil
}

// Get returns a copy of the shared value.
func (s *Shared[T]) Get() (T, error) {
	if s.b == nil {
		var zero T
		return zero, &NullDereferenceError{Op: "Get"}
	}
	s.copyCheck("Get")
	return *s.b.raw, nil
}

// MustGet is like Get but panics if s is empty.
func (s *Shared[T]) MustGet() T {
	v, err := s.Get()
	if err != nil {
		panic(err)
	}
	return v
}

// Set overwrites the shared value. The change is visible to
// every owner.
func (s *Shared[T]) Set(v T) error {
	if s.b == nil {
		return &NullDereferenceError{Op: "Set"}
	}
	s.copyCheck("Set")
	*s.b.raw = v
	return nil
}

// Close gives up s's ownership and leaves s empty. The value is
// released if s was its last owner. Closing an empty handle is a no-op.
func (s *Shared[T]) Close() error {
	if s.b == nil {
		return nil
	}
	s.copyCheck("Close")

	b := s.b
	s.b = nil
	return b.release()
}

// String implements the [fmt.Stringer] interface.
func (s *Shared[T]) String() string {
	b := s.b
	if b == nil {
		return "<empty>"
	}
	return fmt.Sprintf("Shared(%v, refs=%d)", *b.raw, b.refs.Load())
}

// WithCopy calls f with a new owner of s's value which is closed once
// f returns, mirroring passing a shared handle by value. The use count
// is one higher for the duration of the call.
func WithCopy[T any](s *Shared[T], f func(*Shared[T]) error) (err error) {
	c := s.Clone()
	defer try.Close(&err, c)

	return f(c)
}
