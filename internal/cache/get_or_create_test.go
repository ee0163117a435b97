package cache

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGetOrCreate(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("computes on miss", func(t *testing.T) {
		t.Parallel()
		c := NewBasicCache[int]()

		value, created, err := GetOrCreate(ctx, c, "k", func() (int, error) { return 42, nil })
		require.NoError(t, err)
		require.True(t, created)
		require.Equal(t, 42, value)
	})

	t.Run("returns cached value without recomputing", func(t *testing.T) {
		t.Parallel()
		c := NewBasicCache[int]()

		calls := 0
		create := func() (int, error) {
			calls++
			return 7, nil
		}

		_, _, err := GetOrCreate(ctx, c, "k", create)
		require.NoError(t, err)

		value, created, err := GetOrCreate(ctx, c, "k", create)
		require.NoError(t, err)
		require.False(t, created)
		require.Equal(t, 7, value)
		require.Equal(t, 1, calls)
	})

	t.Run("failed create releases the claim", func(t *testing.T) {
		t.Parallel()
		c := NewBasicCache[int]()

		_, _, err := GetOrCreate(ctx, c, "k", func() (int, error) { return 0, errors.New("boom") })
		require.Error(t, err)

		value, created, err := GetOrCreate(ctx, c, "k", func() (int, error) { return 1, nil })
		require.NoError(t, err)
		require.True(t, created)
		require.Equal(t, 1, value)
	})

	t.Run("invalidate forces recompute", func(t *testing.T) {
		t.Parallel()
		c := NewBasicCache[int]()

		_, _, err := GetOrCreate(ctx, c, "k", func() (int, error) { return 1, nil })
		require.NoError(t, err)

		Invalidate(c, "k")

		value, created, err := GetOrCreate(ctx, c, "k", func() (int, error) { return 2, nil })
		require.NoError(t, err)
		require.True(t, created)
		require.Equal(t, 2, value)
	})

	t.Run("concurrent callers agree on the value", func(t *testing.T) {
		t.Parallel()
		c := NewBasicCache[int]()

		var wg sync.WaitGroup
		values := make([]int, 10)
		for i := range values {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				value, _, err := GetOrCreate(ctx, c, "k", func() (int, error) { return 99, nil })
				require.NoError(t, err)
				values[i] = value
			}(i)
		}
		wg.Wait()

		for _, value := range values {
			require.Equal(t, 99, value)
		}
	})
}
