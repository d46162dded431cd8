// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package app

import "fmt"

// Point is the payload the walkthroughs share between handles.
type Point struct {
	X int
	Y int
}

// String implements the [fmt.Stringer] interface.
func (p Point) String() string {
	return fmt.Sprintf("(%d, %d)", p.X, p.Y)
}
