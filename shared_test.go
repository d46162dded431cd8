// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package handle

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/z5labs/handle/internal/fixedpool"
	"github.com/z5labs/handle/pkg/alloc"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewShared(t *testing.T) {
	t.Run("will start with a use count of 1", func(t *testing.T) {
		s, err := NewShared(1)
		require.Nil(t, err)
		defer s.Close()

		if !assert.Equal(t, int64(1), s.UseCount()) {
			return
		}
		if !assert.Equal(t, 1, s.MustGet()) {
			return
		}
	})

	t.Run("will return an AllocationError", func(t *testing.T) {
		t.Run("if the allocator fails", func(t *testing.T) {
			s, err := NewShared(1, WithAllocator[int](alloc.NewLimited[int](0)))
			if !assert.Nil(t, s) {
				return
			}
			if !assert.ErrorIs(t, err, ErrAllocation) {
				return
			}
		})
	})
}

func TestShared_ZeroValue(t *testing.T) {
	t.Run("will be empty with a use count of 0", func(t *testing.T) {
		var s Shared[int]

		if !assert.True(t, s.IsEmpty()) {
			return
		}
		if !assert.Equal(t, int64(0), s.UseCount()) {
			return
		}
		_, err := s.Get()
		if !assert.ErrorIs(t, err, ErrNullDereference) {
			return
		}
		if !assert.Nil(t, s.Close()) {
			return
		}
	})
}

func TestShared_Clone(t *testing.T) {
	t.Run("will track the use count across a copy going out of scope", func(t *testing.T) {
		s1, err := NewShared(1)
		require.Nil(t, err)
		defer s1.Close()

		func() {
			s2 := s1.Clone()
			defer s2.Close()

			if !assert.Equal(t, int64(2), s1.UseCount()) {
				return
			}
			if !assert.Equal(t, int64(2), s2.UseCount()) {
				return
			}
		}()

		if !assert.Equal(t, int64(1), s1.UseCount()) {
			return
		}
	})

	t.Run("will alias the value across owners", func(t *testing.T) {
		a, err := NewShared(0)
		require.Nil(t, err)
		defer a.Close()

		b := a.Clone()
		defer b.Close()

		if !assert.Nil(t, a.Set(5)) {
			return
		}
		if !assert.Equal(t, 5, b.MustGet()) {
			return
		}

		p, err := b.Deref()
		require.Nil(t, err)
		*p = 445
		if !assert.Equal(t, 445, a.MustGet()) {
			return
		}
	})

	t.Run("will return an empty handle", func(t *testing.T) {
		t.Run("if the source is empty", func(t *testing.T) {
			var s Shared[int]

			c := s.Clone()
			if !assert.True(t, c.IsEmpty()) {
				return
			}
			if !assert.Equal(t, int64(0), c.UseCount()) {
				return
			}
		})
	})
}

func TestShared_Close(t *testing.T) {
	t.Run("will release the value exactly once", func(t *testing.T) {
		t.Run("when the last owner is closed", func(t *testing.T) {
			var released atomic.Int32
			s, err := NewShared("payload", countReleases[string](&released))
			require.Nil(t, err)

			owners := []*Shared[string]{s.Clone(), s.Clone(), s}
			for i, o := range owners {
				if !assert.Equal(t, int32(0), released.Load(), "owner %d", i) {
					return
				}
				if !assert.Nil(t, o.Close()) {
					return
				}
			}
			if !assert.Equal(t, int32(1), released.Load()) {
				return
			}

			for _, o := range owners {
				if !assert.Nil(t, o.Close()) {
					return
				}
			}
			if !assert.Equal(t, int32(1), released.Load()) {
				return
			}
		})

		t.Run("when many goroutines clone and close concurrently", func(t *testing.T) {
			var released atomic.Int32
			a := alloc.NewLimited[int](1)
			s, err := NewShared(42, WithAllocator[int](a), countReleases[int](&released))
			require.Nil(t, err)

			err = fixedpool.Run(context.Background(), 16, func(ctx context.Context, worker int) error {
				for range 1000 {
					c := s.Clone()
					if c.UseCount() < 2 {
						return errors.New("clone observed a use count below 2")
					}
					err := c.Close()
					if err != nil {
						return err
					}
				}
				return nil
			})
			if !assert.Nil(t, err) {
				return
			}

			if !assert.Equal(t, int64(1), s.UseCount()) {
				return
			}
			if !assert.Equal(t, int32(0), released.Load()) {
				return
			}
			if !assert.Nil(t, s.Close()) {
				return
			}
			if !assert.Equal(t, int32(1), released.Load()) {
				return
			}
			if !assert.Equal(t, int64(0), a.Live()) {
				return
			}
		})

		t.Run("when the owners are closed by different goroutines", func(t *testing.T) {
			var released atomic.Int32
			s, err := NewShared(7, countReleases[int](&released))
			require.Nil(t, err)

			owners := make([]*Shared[int], 32)
			owners[0] = s
			for i := 1; i < len(owners); i++ {
				owners[i] = s.Clone()
			}

			err = fixedpool.Run(context.Background(), len(owners), func(ctx context.Context, worker int) error {
				return owners[worker].Close()
			})
			if !assert.Nil(t, err) {
				return
			}
			if !assert.Equal(t, int32(1), released.Load()) {
				return
			}
		})
	})

	t.Run("will return a ReleaseError", func(t *testing.T) {
		t.Run("if the allocator fails to delete the value", func(t *testing.T) {
			deleteErr := errors.New("delete failed")
			s, err := NewShared(1, WithAllocator[int](failingDelete[int]{err: deleteErr}))
			require.Nil(t, err)

			c := s.Clone()
			if !assert.Nil(t, c.Close()) {
				return
			}

			err = s.Close()
			if !assert.ErrorIs(t, err, deleteErr) {
				return
			}
		})
	})
}

func TestShared_Clone_AfterRelease(t *testing.T) {
	t.Run("will panic", func(t *testing.T) {
		t.Run("if the control block was already released", func(t *testing.T) {
			s, err := NewShared(1)
			require.Nil(t, err)

			stale := &Shared[int]{b: s.b}
			require.Nil(t, s.Close())

			assert.Panics(t, func() {
				stale.Clone()
			})
		})
	})
}

func TestWithCopy(t *testing.T) {
	t.Run("will raise the use count for the duration of the call only", func(t *testing.T) {
		s, err := NewShared(2)
		require.Nil(t, err)
		defer s.Close()

		before := s.UseCount()
		var during int64
		err = WithCopy(s, func(c *Shared[int]) error {
			during = c.UseCount()
			return c.Set(645)
		})
		if !assert.Nil(t, err) {
			return
		}

		if !assert.Equal(t, before+1, during) {
			return
		}
		if !assert.Equal(t, before, s.UseCount()) {
			return
		}
		if !assert.Equal(t, 645, s.MustGet()) {
			return
		}
	})

	t.Run("will return the error from the func", func(t *testing.T) {
		s, err := NewShared(2)
		require.Nil(t, err)
		defer s.Close()

		fErr := errors.New("failed")
		err = WithCopy(s, func(c *Shared[int]) error {
			return fErr
		})
		if !assert.ErrorIs(t, err, fErr) {
			return
		}
		if !assert.Equal(t, int64(1), s.UseCount()) {
			return
		}
	})
}

func TestShared_Move(t *testing.T) {
	t.Run("will keep the use count and empty the source", func(t *testing.T) {
		s3, err := NewShared(3)
		require.Nil(t, err)
		defer s3.Close()

		s5 := s3.Clone()
		before := s3.UseCount()

		s6 := s5.Move()
		defer s6.Close()

		if !assert.True(t, s5.IsEmpty()) {
			return
		}
		if !assert.Equal(t, int64(0), s5.UseCount()) {
			return
		}
		if !assert.Equal(t, before, s3.UseCount()) {
			return
		}
		if !assert.Equal(t, before, s6.UseCount()) {
			return
		}
	})
}

func TestShared_MoveFrom(t *testing.T) {
	t.Run("will be a no-op", func(t *testing.T) {
		t.Run("if a handle is moved into itself", func(t *testing.T) {
			s, err := NewShared(1)
			require.Nil(t, err)
			defer s.Close()

			if !assert.Nil(t, s.MoveFrom(s)) {
				return
			}
			if !assert.Equal(t, int64(1), s.UseCount()) {
				return
			}
		})
	})

	t.Run("will drop the source's ownership", func(t *testing.T) {
		t.Run("if both handles share the same value", func(t *testing.T) {
			s1, err := NewShared(1)
			require.Nil(t, err)
			defer s1.Close()

			s2 := s1.Clone()
			require.Equal(t, int64(2), s1.UseCount())

			if !assert.Nil(t, s1.MoveFrom(s2)) {
				return
			}
			if !assert.True(t, s2.IsEmpty()) {
				return
			}
			if !assert.Equal(t, int64(1), s1.UseCount()) {
				return
			}
		})
	})

	t.Run("will release the previous value", func(t *testing.T) {
		t.Run("if the destination was its last owner", func(t *testing.T) {
			var released atomic.Int32
			dst, err := NewShared(1, countReleases[int](&released))
			require.Nil(t, err)
			src, err := NewShared(2)
			require.Nil(t, err)

			if !assert.Nil(t, dst.MoveFrom(src)) {
				return
			}
			defer dst.Close()

			if !assert.Equal(t, int32(1), released.Load()) {
				return
			}
			if !assert.Equal(t, 2, dst.MustGet()) {
				return
			}
			if !assert.Equal(t, int64(1), dst.UseCount()) {
				return
			}
		})
	})
}

func TestShared_CopyFrom(t *testing.T) {
	t.Run("will share the source value", func(t *testing.T) {
		src, err := NewShared("src")
		require.Nil(t, err)
		defer src.Close()

		var dst Shared[string]
		if !assert.Nil(t, dst.CopyFrom(src)) {
			return
		}
		defer dst.Close()

		if !assert.Equal(t, int64(2), src.UseCount()) {
			return
		}
		if !assert.Equal(t, "src", dst.MustGet()) {
			return
		}
	})

	t.Run("will not change the use count", func(t *testing.T) {
		t.Run("if both handles already share the value", func(t *testing.T) {
			a, err := NewShared(1)
			require.Nil(t, err)
			defer a.Close()

			b := a.Clone()
			defer b.Close()

			if !assert.Nil(t, b.CopyFrom(a)) {
				return
			}
			if !assert.Nil(t, a.CopyFrom(a)) {
				return
			}
			if !assert.Equal(t, int64(2), a.UseCount()) {
				return
			}
		})
	})

	t.Run("will release the previous value", func(t *testing.T) {
		t.Run("if the destination was its last owner", func(t *testing.T) {
			var released atomic.Int32
			dst, err := NewShared(1, countReleases[int](&released))
			require.Nil(t, err)
			defer dst.Close()

			src, err := NewShared(2)
			require.Nil(t, err)
			defer src.Close()

			if !assert.Nil(t, dst.CopyFrom(src)) {
				return
			}
			if !assert.Equal(t, int32(1), released.Load()) {
				return
			}
			if !assert.Equal(t, int64(2), src.UseCount()) {
				return
			}
		})
	})

	t.Run("will empty the destination", func(t *testing.T) {
		t.Run("if the source is empty", func(t *testing.T) {
			dst, err := NewShared(1)
			require.Nil(t, err)

			var src Shared[int]
			if !assert.Nil(t, dst.CopyFrom(&src)) {
				return
			}
			if !assert.True(t, dst.IsEmpty()) {
				return
			}
		})
	})
}

func TestShared_Swap(t *testing.T) {
	t.Run("will exchange the referenced values", func(t *testing.T) {
		a, err := NewShared(1)
		require.Nil(t, err)
		defer a.Close()

		b, err := NewShared(2)
		require.Nil(t, err)
		defer b.Close()

		a.Swap(b)

		if !assert.Equal(t, 2, a.MustGet()) {
			return
		}
		if !assert.Equal(t, 1, b.MustGet()) {
			return
		}
	})
}

func TestShared_String(t *testing.T) {
	t.Run("will render the value and use count", func(t *testing.T) {
		s, err := NewShared(3)
		require.Nil(t, err)
		defer s.Close()

		c := s.Clone()
		defer c.Close()

		if !assert.Equal(t, "Shared(3, refs=2)", s.String()) {
			return
		}
	})
}

func TestShared_Copy(t *testing.T) {
	t.Run("will panic with a CopyError", func(t *testing.T) {
		t.Run("if a by-value copy is used", func(t *testing.T) {
			var released atomic.Int32
			s, err := NewShared(1, countReleases[int](&released))
			require.Nil(t, err)
			defer s.Close()

			c := *s

			assert.PanicsWithValue(t, CopyError{Op: "Close"}, func() {
				c.Close()
			})
			if !assert.Equal(t, int64(1), s.UseCount()) {
				return
			}
			if !assert.Equal(t, int32(0), released.Load()) {
				return
			}
		})

		t.Run("if a by-value copy of a swapped into zero value is used", func(t *testing.T) {
			var released atomic.Int32
			a, err := NewShared(1, countReleases[int](&released))
			require.Nil(t, err)
			defer a.Close()

			var b Shared[int]
			a.Swap(&b)
			defer b.Close()

			c := b

			assert.PanicsWithValue(t, CopyError{Op: "Close"}, func() {
				c.Close()
			})
			if !assert.Equal(t, int64(1), b.UseCount()) {
				return
			}
			if !assert.Equal(t, int32(0), released.Load()) {
				return
			}

			if !assert.Nil(t, b.Close()) {
				return
			}
			if !assert.Equal(t, int32(1), released.Load()) {
				return
			}
		})
	})
}
