// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package handle provides ownership handles for values which must be
// released exactly once.
//
// The package is built around two handle types:
//
//   - Unique[T]: the sole owner of a value. Ownership is relocated with Move or
//     MoveFrom, both of which leave the source empty.
//   - Shared[T]: one of many owners of a value. Owners are added with Clone or
//     CopyFrom and the value is released when the last owner is closed.
//
// # Releasing
//
// Go has no destructors so every non-empty handle must be closed on every path,
// typically with defer:
//
//	u, err := handle.NewUnique(445)
//	if err != nil {
//	    return err
//	}
//	defer u.Close()
//
// Closing an empty or moved-from handle is a no-op, which makes the deferred
// Close safe even after ownership has been moved elsewhere.
//
// # Empty handles
//
// The zero value of both handle types is empty. Accessing the value of an empty
// handle returns a *NullDereferenceError, which matches ErrNullDereference.
//
// # Copies
//
// Handles must never be copied by value. Both types carry a marker recognized
// by go vet and additionally panic with a CopyError when a by-value copy of a
// handle owning a value is used. Shared handles are copied with Clone instead.
//
// # Concurrency
//
// A Unique is not safe for concurrent use. The use count of a Shared is updated
// atomically, so owners may be cloned and closed from many goroutines; the value
// itself is not synchronized.
package handle
