// Package playtime tracks accrued online time per player across the daily,
// weekly, monthly and total buckets.
package playtime

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/pathways-mc/pathways/internal/cache"
	"github.com/pathways-mc/pathways/internal/domain"
	"github.com/pathways-mc/pathways/internal/reporting"
)

// Repository persists per-player playtime counters. Minutes are never
// negative; loading an unknown player returns zero.
type Repository interface {
	PlayTime(ctx context.Context, playerUUID string, bucket domain.TimeBucket) (int, error)
	AddPlayTime(ctx context.Context, playerUUID string, bucket domain.TimeBucket, minutes int) error
	SetPlayTime(ctx context.Context, playerUUID string, bucket domain.TimeBucket, minutes int) error
	ResetBucket(ctx context.Context, bucket domain.TimeBucket) error
	TopPlayTimes(ctx context.Context, bucket domain.TimeBucket, limit int) ([]domain.PlayTimeEntry, error)
}

const playTimeCacheTTL = 1 * time.Minute

// Manager fronts the repository with a short-lived cache so that evaluation
// passes over many paths don't hammer the database with identical lookups.
type Manager struct {
	repo  Repository
	cache cache.Cache[int]
}

func NewManager(repo Repository) *Manager {
	return &Manager{
		repo:  repo,
		cache: cache.NewTTLCache[int](playTimeCacheTTL),
	}
}

func cacheKey(playerUUID string, bucket domain.TimeBucket) string {
	return fmt.Sprintf("%s-%s", bucket, playerUUID)
}

// PlayTime returns the player's accrued minutes in the bucket.
func (m *Manager) PlayTime(ctx context.Context, playerUUID string, bucket domain.TimeBucket) (int, error) {
	minutes, _, err := cache.GetOrCreate(ctx, m.cache, cacheKey(playerUUID, bucket), func() (int, error) {
		return m.repo.PlayTime(ctx, playerUUID, bucket)
	})
	if err != nil {
		return 0, fmt.Errorf("failed to get playtime: %w", err)
	}
	return minutes, nil
}

// RecordOnlineMinutes credits the given minutes to every bucket for each
// online player. Failures for one player don't stop accrual for the rest.
func (m *Manager) RecordOnlineMinutes(ctx context.Context, playerUUIDs []string, minutes int) error {
	if minutes <= 0 {
		return fmt.Errorf("minutes must be positive, got %d", minutes)
	}

	var errs []error
	for _, playerUUID := range playerUUIDs {
		for _, bucket := range domain.AllTimeBuckets() {
			if err := m.repo.AddPlayTime(ctx, playerUUID, bucket, minutes); err != nil {
				errs = append(errs, fmt.Errorf("failed to add playtime for %s (%s): %w", playerUUID, bucket, err))
				continue
			}
			cache.Invalidate(m.cache, cacheKey(playerUUID, bucket))
		}
	}

	if len(errs) > 0 {
		err := errors.Join(errs...)
		reporting.Report(ctx, err)
		return err
	}
	return nil
}

// AddPlayTime credits minutes to one bucket for one player, for admin
// corrections.
func (m *Manager) AddPlayTime(ctx context.Context, playerUUID string, bucket domain.TimeBucket, minutes int) error {
	if minutes <= 0 {
		return fmt.Errorf("minutes must be positive, got %d", minutes)
	}

	if err := m.repo.AddPlayTime(ctx, playerUUID, bucket, minutes); err != nil {
		return fmt.Errorf("failed to add playtime: %w", err)
	}
	cache.Invalidate(m.cache, cacheKey(playerUUID, bucket))
	return nil
}

// SetPlayTime overwrites the player's counter in one bucket, for admin
// corrections and imports.
func (m *Manager) SetPlayTime(ctx context.Context, playerUUID string, bucket domain.TimeBucket, minutes int) error {
	if minutes < 0 {
		return fmt.Errorf("minutes must not be negative, got %d", minutes)
	}

	if err := m.repo.SetPlayTime(ctx, playerUUID, bucket, minutes); err != nil {
		return fmt.Errorf("failed to set playtime: %w", err)
	}
	cache.Invalidate(m.cache, cacheKey(playerUUID, bucket))
	return nil
}

// ResetBucket zeroes a rolling bucket for all players, for the daily, weekly
// and monthly rollovers. The total bucket can't be reset through here.
func (m *Manager) ResetBucket(ctx context.Context, bucket domain.TimeBucket) error {
	if bucket == domain.BucketTotal {
		return errors.New("total playtime can't be reset")
	}

	if err := m.repo.ResetBucket(ctx, bucket); err != nil {
		return fmt.Errorf("failed to reset bucket %s: %w", bucket, err)
	}
	// The cache may still hold stale entries for individual players, but they
	// expire within the TTL and the rollover doesn't need read-your-writes.
	return nil
}

// TopPlayTimes returns the highest counters in the bucket, most minutes
// first.
func (m *Manager) TopPlayTimes(ctx context.Context, bucket domain.TimeBucket, limit int) ([]domain.PlayTimeEntry, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be positive, got %d", limit)
	}

	entries, err := m.repo.TopPlayTimes(ctx, bucket, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get top playtimes: %w", err)
	}
	return entries, nil
}
