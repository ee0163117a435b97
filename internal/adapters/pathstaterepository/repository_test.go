package pathstaterepository

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
)

func newTestState(t *testing.T) *domain.PlayerPathState {
	t.Helper()

	completedAt := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)

	state := domain.NewPlayerPathState(domaintest.NewUUID(t))
	state.SetProgressFor("miner", domain.PathProgress{
		Status:                domain.StatusActive,
		CompletedRequirements: map[int]bool{0: true, 2: true},
		ActivatedAt:           time.Date(2026, time.February, 1, 0, 0, 0, 0, time.UTC),
	})
	state.SetProgressFor("newcomer", domain.PathProgress{
		Status:                domain.StatusCompleted,
		CompletedRequirements: map[int]bool{0: true},
		ActivatedAt:           time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC),
		TimesCompleted:        2,
		LastCompletedAt:       &completedAt,
	})
	return state
}

func TestProgressStorageConversion(t *testing.T) {
	t.Parallel()

	progress := domain.PathProgress{
		Status:                domain.StatusActive,
		CompletedRequirements: map[int]bool{3: true, 0: true, 1: false},
		ActivatedAt:           time.Date(2026, time.February, 1, 0, 0, 0, 0, time.UTC),
		TimesCompleted:        1,
	}

	storage := progressToStorage(progress)
	// Sorted, and indices recorded as false are dropped.
	require.Equal(t, []int{0, 3}, storage.CompletedRequirements)

	restored := progressFromStorage(storage)
	require.Equal(t, domain.StatusActive, restored.Status)
	require.Equal(t, map[int]bool{0: true, 3: true}, restored.CompletedRequirements)
	require.Equal(t, progress.ActivatedAt, restored.ActivatedAt)
	require.Equal(t, 1, restored.TimesCompleted)
	require.Nil(t, restored.LastCompletedAt)
}

func TestInMemoryRepository(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("miss returns nil", func(t *testing.T) {
		t.Parallel()
		repo := NewInMemory()
		state, err := repo.LoadPlayerPathState(ctx, domaintest.NewUUID(t))
		require.NoError(t, err)
		require.Nil(t, state)
	})

	t.Run("round trip", func(t *testing.T) {
		t.Parallel()
		repo := NewInMemory()
		state := newTestState(t)

		require.NoError(t, repo.SavePlayerPathState(ctx, state))

		loaded, err := repo.LoadPlayerPathState(ctx, state.PlayerUUID)
		require.NoError(t, err)
		require.Equal(t, state, loaded)
	})

	t.Run("stored state is isolated from the caller", func(t *testing.T) {
		t.Parallel()
		repo := NewInMemory()
		state := newTestState(t)

		require.NoError(t, repo.SavePlayerPathState(ctx, state))
		state.SetProgressFor("miner", domain.NewPathProgress())

		loaded, err := repo.LoadPlayerPathState(ctx, state.PlayerUUID)
		require.NoError(t, err)
		require.Equal(t, domain.StatusActive, loaded.ProgressFor("miner").Status)
	})
}

func TestPostgresRepository(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping database tests in short mode.")
	}
	t.Parallel()
	ctx := context.Background()

	db, err := database.NewPostgresDatabase(database.LOCAL_CONNECTION_STRING)
	require.NoError(t, err)

	schema := database.GetSchemaName(true)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	require.NoError(t, database.NewDatabaseMigrator(db, logger).Migrate(ctx, schema))

	repo := NewPostgres(db, schema, time.Now)

	t.Run("miss returns nil", func(t *testing.T) {
		t.Parallel()
		state, err := repo.LoadPlayerPathState(ctx, domaintest.NewUUID(t))
		require.NoError(t, err)
		require.Nil(t, state)
	})

	t.Run("round trip", func(t *testing.T) {
		t.Parallel()
		state := newTestState(t)

		require.NoError(t, repo.SavePlayerPathState(ctx, state))

		loaded, err := repo.LoadPlayerPathState(ctx, state.PlayerUUID)
		require.NoError(t, err)
		require.Equal(t, state, loaded)
	})

	t.Run("save replaces removed paths", func(t *testing.T) {
		t.Parallel()
		state := newTestState(t)

		require.NoError(t, repo.SavePlayerPathState(ctx, state))

		delete(state.Progress, "newcomer")
		require.NoError(t, repo.SavePlayerPathState(ctx, state))

		loaded, err := repo.LoadPlayerPathState(ctx, state.PlayerUUID)
		require.NoError(t, err)
		require.Equal(t, state, loaded)
	})
}
