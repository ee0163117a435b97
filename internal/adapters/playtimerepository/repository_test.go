package playtimerepository

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/pathways-mc/pathways/internal/adapters/database"
	"github.com/pathways-mc/pathways/internal/domain"
	"github.com/pathways-mc/pathways/internal/domaintest"
	"github.com/pathways-mc/pathways/internal/playtime"
)

func runRepositoryTests(t *testing.T, newRepository func(t *testing.T) playtime.Repository) {
	t.Helper()
	ctx := context.Background()

	t.Run("unknown player has zero minutes", func(t *testing.T) {
		t.Parallel()
		repo := newRepository(t)
		minutes, err := repo.PlayTime(ctx, domaintest.NewUUID(t), domain.BucketTotal)
		require.NoError(t, err)
		require.Equal(t, 0, minutes)
	})

	t.Run("add accumulates", func(t *testing.T) {
		t.Parallel()
		repo := newRepository(t)
		player := domaintest.NewUUID(t)

		require.NoError(t, repo.AddPlayTime(ctx, player, domain.BucketDaily, 5))
		require.NoError(t, repo.AddPlayTime(ctx, player, domain.BucketDaily, 7))

		minutes, err := repo.PlayTime(ctx, player, domain.BucketDaily)
		require.NoError(t, err)
		require.Equal(t, 12, minutes)
	})

	t.Run("buckets are independent", func(t *testing.T) {
		t.Parallel()
		repo := newRepository(t)
		player := domaintest.NewUUID(t)

		require.NoError(t, repo.AddPlayTime(ctx, player, domain.BucketDaily, 5))

		minutes, err := repo.PlayTime(ctx, player, domain.BucketWeekly)
		require.NoError(t, err)
		require.Equal(t, 0, minutes)
	})

	t.Run("set overwrites", func(t *testing.T) {
		t.Parallel()
		repo := newRepository(t)
		player := domaintest.NewUUID(t)

		require.NoError(t, repo.AddPlayTime(ctx, player, domain.BucketTotal, 100))
		require.NoError(t, repo.SetPlayTime(ctx, player, domain.BucketTotal, 3))

		minutes, err := repo.PlayTime(ctx, player, domain.BucketTotal)
		require.NoError(t, err)
		require.Equal(t, 3, minutes)
	})

	t.Run("reset clears only the bucket", func(t *testing.T) {
		t.Parallel()
		repo := newRepository(t)
		player := domaintest.NewUUID(t)

		require.NoError(t, repo.AddPlayTime(ctx, player, domain.BucketMonthly, 5))
		require.NoError(t, repo.AddPlayTime(ctx, player, domain.BucketTotal, 5))
		require.NoError(t, repo.ResetBucket(ctx, domain.BucketMonthly))

		minutes, err := repo.PlayTime(ctx, player, domain.BucketMonthly)
		require.NoError(t, err)
		require.Equal(t, 0, minutes)

		minutes, err = repo.PlayTime(ctx, player, domain.BucketTotal)
		require.NoError(t, err)
		require.Equal(t, 5, minutes)
	})

	t.Run("top playtimes are ordered", func(t *testing.T) {
		t.Parallel()
		repo := newRepository(t)
		first := domaintest.NewUUID(t)
		second := domaintest.NewUUID(t)

		require.NoError(t, repo.SetPlayTime(ctx, first, domain.BucketWeekly, 50))
		require.NoError(t, repo.SetPlayTime(ctx, second, domain.BucketWeekly, 80))

		entries, err := repo.TopPlayTimes(ctx, domain.BucketWeekly, 10)
		require.NoError(t, err)
		require.GreaterOrEqual(t, len(entries), 2)
		for i := 1; i < len(entries); i++ {
			require.GreaterOrEqual(t, entries[i-1].Minutes, entries[i].Minutes)
		}
	})
}

func TestInMemoryRepository(t *testing.T) {
	t.Parallel()
	runRepositoryTests(t, func(t *testing.T) playtime.Repository {
		return NewInMemory()
	})
}

func TestPostgresRepository(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping database tests in short mode.")
	}
	t.Parallel()

	db, err := database.NewPostgresDatabase(database.LOCAL_CONNECTION_STRING)
	require.NoError(t, err)

	schema := database.GetSchemaName(true)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	require.NoError(t, database.NewDatabaseMigrator(db, logger).Migrate(context.Background(), schema))

	repo := NewPostgres(db, schema, time.Now)
	runRepositoryTests(t, func(t *testing.T) playtime.Repository {
		return repo
	})
}
