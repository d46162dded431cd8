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

func sharedCommand(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "shared",
		Short: "Shared ownership: copies, moves and use counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShared(rt, cmd.OutOrStdout())
		},
	}
}

func modifyX(point *handle.Shared[Point]) error {
	p, err := point.Deref()
	if err != nil {
		return err
	}
	p.X = 15
	return nil
}

func modifyY(point *handle.Shared[Point]) error {
	p, err := point.Deref()
	if err != nil {
		return err
	}
	p.Y = 645
	return nil
}

func runShared(rt *runtime, out io.Writer) (err error) {
	obs := handle.WithObserver[Point](rt.observer(out))

	var s1 handle.Shared[Point]
	s2, err := handle.NewShared(Point{}, obs)
	if err != nil {
		return err
	}
	defer try.Close(&err, s2)
	s3, err := handle.NewShared(Point{X: 2, Y: 3}, obs)
	if err != nil {
		return err
	}
	defer try.Close(&err, s3)

	fmt.Fprintln(out, "Pointer s1 is", emptiness(s1.IsEmpty()))
	fmt.Fprintln(out, "Pointer s2 is", emptiness(s2.IsEmpty()))
	fmt.Fprintln(out, "Pointer s3 is", emptiness(s3.IsEmpty()))
	fmt.Fprintln(out, "Number of shared pointer object instances using the data in s3:", s3.UseCount())

	s4 := s3.Clone()
	defer try.Close(&err, s4)
	fmt.Fprintln(out, "Number of shared pointer object instances using the data in s3 after one copy:", s3.UseCount())

	s5 := s4.Clone()
	defer try.Close(&err, s5)
	fmt.Fprintln(out, "Number of shared pointer object instances using the data in s3 after two copies:", s3.UseCount())

	p, err := s3.Deref()
	if err != nil {
		return err
	}
	p.X = 445
	fmt.Fprintln(out, "Printing x in s3:", s3.MustGet().X)
	fmt.Fprintln(out, "Printing x in s4:", s4.MustGet().X)
	fmt.Fprintln(out, "Printing x in s5:", s5.MustGet().X)

	s6 := s5.Move()
	defer try.Close(&err, s6)
	fmt.Fprintln(out, "Pointer s5 is", emptiness(s5.IsEmpty()))
	fmt.Fprintln(out, "Number of shared pointer object instances using the data in s3 after two copies and a move:", s3.UseCount())

	if err = modifyX(s2); err != nil {
		return err
	}
	if err = modifyY(s2); err != nil {
		return err
	}
	pt := s2.MustGet()
	fmt.Fprintf(out, "Pointer s2 has x=%d and y=%d\n", pt.X, pt.Y)
	fmt.Fprintln(out, "Number of shared pointer object instances using the data in s2:", s2.UseCount())

	err = handle.WithCopy(s2, func(point *handle.Shared[Point]) error {
		fmt.Fprintln(out, "Use count of shared pointer is", point.UseCount())
		return nil
	})
	if err != nil {
		return err
	}
	fmt.Fprintln(out, "Number of shared pointer object instances using the data in s2 after passing it by value:", s2.UseCount())
	return nil
}
