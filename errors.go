// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package handle

import (
	"errors"
	"fmt"
)

var (
	// ErrAllocation is matched by every *AllocationError.
	ErrAllocation = errors.New("allocation failure")

	// ErrNullDereference is matched by every *NullDereferenceError.
	ErrNullDereference = errors.New("null dereference")
)

// AllocationError is returned by NewUnique and NewShared when the
// underlying allocator could not provide a value. No handle is
// created when this error is returned.
type AllocationError struct {
	Cause error
}

// Error implements the [builtin.error] interface.
func (e *AllocationError) Error() string {
	return fmt.Sprintf("failed to allocate handle value: %s", e.Cause)
}

// Unwrap implements the implicit interface used by [errors.Is] and [errors.As].
func (e *AllocationError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is [ErrAllocation].
func (e *AllocationError) Is(target error) bool {
	return target == ErrAllocation
}

// NullDereferenceError is returned when the payload of an empty
// handle is accessed. It signals a programming error.
type NullDereferenceError struct {
	Op string
}

// Error implements the [builtin.error] interface.
func (e *NullDereferenceError) Error() string {
	return fmt.Sprintf("%s called on empty handle", e.Op)
}

// Is reports whether target is [ErrNullDereference].
func (e *NullDereferenceError) Is(target error) bool {
	return target == ErrNullDereference
}

// ReleaseError wraps a failure reported by the allocator while
// giving a value back. The value is considered released regardless.
type ReleaseError struct {
	Cause error
}

// Error implements the [builtin.error] interface.
func (e *ReleaseError) Error() string {
	return fmt.Sprintf("failed to release handle value: %s", e.Cause)
}

// Unwrap implements the implicit interface used by [errors.Is] and [errors.As].
func (e *ReleaseError) Unwrap() error {
	return e.Cause
}

// CopyError is the panic value raised when a Unique or Shared which
// was copied by value is used. Ownership must be transferred with Move,
// or for a Shared, duplicated with Clone.
type CopyError struct {
	Op string
}

// Error implements the [builtin.error] interface.
func (e CopyError) Error() string {
	return fmt.Sprintf("%s called on a by-value copy of a handle, use Move or Clone instead", e.Op)
}
