package cache

import (
	"context"
	"fmt"

	"github.com/pathways-mc/pathways/internal/logging"
)

// GetOrCreate returns the cached value for key, or computes it with create.
// Only one concurrent caller per key runs create; the rest wait for the
// claimed entry to be filled. Returns data, created, error.
func GetOrCreate[T any](ctx context.Context, cache Cache[T], key string, create func() (T, error)) (T, bool, error) {
	// Clean up the cache if we claim an entry, but don't set it.
	// This allows other callers to try again.
	claimed := false
	set := false
	defer func() {
		if claimed && !set {
			cache.delete(key)
		}
	}()

	for {
		result := cache.getOrClaim(key)

		if result.claimed {
			claimed = true

			logging.FromContext(ctx).DebugContext(ctx, "Cache lookup", "cache", "miss", "key", key)

			data, err := create()
			if err != nil {
				var empty T
				return empty, false, fmt.Errorf("failed to create cache entry: %w", err)
			}

			cache.set(key, data)
			set = true

			return data, true, nil
		}

		if result.valid {
			logging.FromContext(ctx).DebugContext(ctx, "Cache lookup", "cache", "hit", "key", key)
			return result.data, false, nil
		}

		cache.wait()
	}
}

// Invalidate drops the cached value for key so the next lookup recomputes it.
func Invalidate[T any](cache Cache[T], key string) {
	cache.delete(key)
}
