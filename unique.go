// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package handle

import "fmt"

// noCopy may be embedded into structs which must not be copied
// after first use. It is recognized by the copylocks check of go vet.
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}

// Unique is the sole owner of a single value. The zero value is an
// empty handle.
//
// A Unique must never be copied by value, ownership is relocated with
// [Unique.Move] or [Unique.MoveFrom] instead, both of which leave the
// source empty. Using a by-value copy of a non-empty handle panics
// with a [CopyError].
//
// A Unique is not safe for concurrent use.
type Unique[T any] struct {
	_    noCopy
	addr *Unique[T]
	raw  *T
	opts *options[T]
}

// NewUnique allocates a value, initializes it to v and returns
// its sole owner.
func NewUnique[T any](v T, opts ...Option[T]) (*Unique[T], error) {
	o := newOptions(opts)
	p, err := o.acquire(KindUnique, v)
	if err != nil {
		return nil, err
	}
	u := &Unique[T]{
		raw:  p,
		opts: &o,
	}
	u.addr = u
	return u, nil
}

func (u *Unique[T]) copyCheck(op string) {
	if u.addr == nil {
		u.addr = u
		return
	}
	if u.addr != u {
		panic(CopyError{Op: op})
	}
}

// IsEmpty reports whether u owns no value.
func (u *Unique[T]) IsEmpty() bool {
	return u.raw == nil
}

// Move transfers ownership to a new handle and leaves u empty.
// Moving an empty handle returns an empty handle.
func (u *Unique[T]) Move() *Unique[T] {
	u.copyCheck("Move")

	m := &Unique[T]{
		raw:  u.raw,
		opts: u.opts,
	}
	m.addr = m
	u.raw = nil
	u.opts = nil
	return m
}

// MoveFrom releases the value currently owned by u, if any, and
// takes ownership of the value owned by other, leaving other empty.
// Moving a handle into itself is a no-op.
func (u *Unique[T]) MoveFrom(other *Unique[T]) error {
	if u == other || u.raw == other.raw {
		return nil
	}
	u.copyCheck("MoveFrom")
	other.copyCheck("MoveFrom")

	oldRaw, oldOpts := u.raw, u.opts
	u.raw, u.opts = other.raw, other.opts
	other.raw, other.opts = nil, nil

	if oldRaw == nil {
		return nil
	}
	return oldOpts.release(KindUnique, oldRaw)
}

// Swap exchanges the values owned by u and other.
func (u *Unique[T]) Swap(other *Unique[T]) {
	if u == other {
		return
	}
	u.copyCheck("Swap")
	other.copyCheck("Swap")

	u.raw, other.raw = other.raw, u.raw
	u.opts, other.opts = other.opts, u.opts
}

// Deref returns a pointer to the owned value. The pointer is a
// borrow and must not outlive u's ownership of the value.
func (u *Unique[T]) Deref() (*T, error) {
	if u.raw == nil {
		return nil, &NullDereferenceError{Op: "Deref"}
	}
	u.copyCheck("Deref")
	return u.raw, nil
}

// Get returns a copy of the owned value.
func (u *Unique[T]) Get() (T, error) {
	if u.raw == nil {
		var zero T
		return zero, &NullDereferenceError{Op: "Get"}
	}
	u.copyCheck("Get")
	return *u.raw, nil
}

// MustGet is like Get but panics if u is empty.
func (u *Unique[T]) MustGet() T {
	v, err := u.Get()
	if err != nil {
		panic(err)
	}
	return v
}

// Set overwrites the owned value.
func (u *Unique[T]) Set(v T) error {
	if u.raw == nil {
		return &NullDereferenceError{Op: "Set"}
	}
	u.copyCheck("Set")
	*u.raw = v
	return nil
}

// Detach gives up ownership without releasing the value. The caller
// becomes responsible for the returned pointer, which is nil if u
// was empty.
func (u *Unique[T]) Detach() *T {
	u.copyCheck("Detach")

	p := u.raw
	u.raw = nil
	u.opts = nil
	return p
}

// Share converts sole ownership into shared ownership. The returned
// handle has a use count of 1 and u is left empty. Observers are
// notified of the eventual release with [KindUnique] since that is
// the Kind the value was acquired as.
func (u *Unique[T]) Share() *Shared[T] {
	u.copyCheck("Share")

	if u.raw == nil {
		s := &Shared[T]{}
		s.addr = s
		return s
	}
	b := &block[T]{
		raw:  u.raw,
		kind: KindUnique,
		opts: u.opts,
	}
	b.refs.Store(1)
	u.raw = nil
	u.opts = nil

	s := &Shared[T]{b: b}
	s.addr = s
	return s
}

// Close releases the owned value, if any, and leaves u empty.
// Closing an empty or moved-from handle is a no-op.
func (u *Unique[T]) Close() error {
	if u.raw == nil {
		return nil
	}
	u.copyCheck("Close")

	p, o := u.raw, u.opts
	u.raw = nil
	u.opts = nil
	return o.release(KindUnique, p)
}

// String implements the [fmt.Stringer] interface.
func (u *Unique[T]) String() string {
	if u.raw == nil {
		return "<empty>"
	}
	return fmt.Sprintf("Unique(%v)", *u.raw)
}
