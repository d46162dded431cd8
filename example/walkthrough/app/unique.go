// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package app

import (
	"fmt"
	"io"

	"github.com/z5labs/handle"
	"github.com/z5labs/handle/internal/try"

	"github.com/spf13/cobra"
)

func uniqueCommand(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "unique",
		Short: "Sole ownership: moves, moved-from handles and releases",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUnique(rt, cmd.OutOrStdout())
		},
	}
}

func smartGenerator[T any](init T, opts ...handle.Option[T]) (*handle.Unique[T], error) {
	return handle.NewUnique(init, opts...)
}

// takeOwnership closes p, which the caller must have moved in.
func takeOwnership[T any](out io.Writer, p *handle.Unique[T]) error {
	fmt.Fprintln(out, "take ownership of", p)
	return p.Close()
}

func setXTo445(p *handle.Unique[Point]) error {
	pt, err := p.Deref()
	if err != nil {
		return err
	}
	pt.X = 445
	return nil
}

func emptiness(empty bool) string {
	if empty {
		return "empty"
	}
	return "not empty"
}

func runUnique(rt *runtime, out io.Writer) (err error) {
	obs := rt.observer(out)
	intObs := handle.WithObserver[int](obs)

	p1, err := handle.NewUnique(4, intObs)
	if err != nil {
		return err
	}
	defer try.Close(&err, p1)
	fmt.Fprintln(out, "Hi from p1", p1.MustGet())
	if err = p1.Set(10); err != nil {
		return err
	}
	fmt.Fprintln(out, "Hi again from p1", p1.MustGet())

	p3, err := smartGenerator(2, intObs)
	if err != nil {
		return err
	}
	defer try.Close(&err, p3)
	if err = p3.Set(10); err != nil {
		return err
	}
	p4 := p3.Move()
	defer try.Close(&err, p4)
	fmt.Fprintln(out, "Pointer p3 is", emptiness(p3.IsEmpty()))
	fmt.Fprintln(out, "Pointer p4 is", emptiness(p4.IsEmpty()))

	_, derr := p3.Get()
	fmt.Fprintln(out, "Reading p3 after the move:", derr)

	if err = takeOwnership(out, p4.Move()); err != nil {
		return err
	}
	fmt.Fprintln(out, "Pointer p4 is", emptiness(p4.IsEmpty()))

	c1, err := handle.NewUnique("a", handle.WithObserver[string](obs))
	if err != nil {
		return err
	}
	defer try.Close(&err, c1)
	c, err := c1.Deref()
	if err != nil {
		return err
	}
	*c = "b"
	fmt.Fprintln(out, "Hi from c1", c1.MustGet())

	a, err := handle.NewUnique(445, intObs)
	if err != nil {
		return err
	}
	defer try.Close(&err, a)
	fmt.Fprintln(out, "1. Value of a is", a.MustGet())
	if err = a.Set(645); err != nil {
		return err
	}
	fmt.Fprintln(out, "2. Value of a is", a.MustGet())
	b := a.Move()
	defer try.Close(&err, b)
	fmt.Fprintln(out, "Value of b is", b.MustGet())

	pointObs := handle.WithObserver[Point](obs)
	var u1 handle.Unique[Point]
	u2, err := handle.NewUnique(Point{}, pointObs)
	if err != nil {
		return err
	}
	defer try.Close(&err, u2)
	u3, err := handle.NewUnique(Point{X: 2, Y: 3}, pointObs)
	if err != nil {
		return err
	}
	defer try.Close(&err, u3)
	fmt.Fprintln(out, "Pointer u1 is", emptiness(u1.IsEmpty()))
	fmt.Fprintln(out, "Pointer u2 is", emptiness(u2.IsEmpty()))
	fmt.Fprintln(out, "Pointer u3 is", emptiness(u3.IsEmpty()))

	u4 := u3.Move()
	defer try.Close(&err, u4)
	fmt.Fprintln(out, "Pointer u3 is", emptiness(u3.IsEmpty()))
	fmt.Fprintln(out, "Pointer u4 is", emptiness(u4.IsEmpty()))
	if err = setXTo445(u4); err != nil {
		return err
	}
	fmt.Fprintln(out, "Pointer u4's x value is", u4.MustGet().X)
	return nil
}
