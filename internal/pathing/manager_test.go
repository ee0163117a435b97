package pathing

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/pathways-mc/pathways/internal/domain"
)

type memoryStateRepository struct {
	mu     sync.Mutex
	states map[string]*domain.PlayerPathState
	saves  int
	err    error
}

func newMemoryStateRepository() *memoryStateRepository {
	return &memoryStateRepository{states: make(map[string]*domain.PlayerPathState)}
}

func (r *memoryStateRepository) LoadPlayerPathState(ctx context.Context, playerUUID string) (*domain.PlayerPathState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	return r.states[playerUUID], nil
}

func (r *memoryStateRepository) SavePlayerPathState(ctx context.Context, state *domain.PlayerPathState) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.saves++
	r.states[state.PlayerUUID] = state
	return nil
}

func mustComposite(t *testing.T, index int, met bool) *CompositeRequirement {
	t.Helper()
	composite, err := NewCompositeRequirement(index, []domain.Requirement{
		&stubRequirement{met: met},
	}, CompositeOptions{})
	require.NoError(t, err)
	return composite
}

func mustPath(t *testing.T, name string, flags PathFlags, prerequisites ...*CompositeRequirement) *Path {
	t.Helper()
	path, err := NewPath(name, prerequisites, []*CompositeRequirement{mustComposite(t, 0, true)}, nil, flags)
	require.NoError(t, err)
	return path
}

func newTestManager(t *testing.T, maxActive int) (*Manager, *memoryStateRepository) {
	t.Helper()
	repo := newMemoryStateRepository()
	return NewManager(repo, maxActive, time.Now), repo
}

func TestManagerPathLookup(t *testing.T) {
	t.Parallel()

	manager, _ := newTestManager(t, 1)
	require.NoError(t, manager.AddPath(mustPath(t, "Miner", PathFlags{})))
	require.NoError(t, manager.AddPath(mustPath(t, "Farmer", PathFlags{})))

	t.Run("duplicate names are refused case-insensitively", func(t *testing.T) {
		require.Error(t, manager.AddPath(mustPath(t, "miner", PathFlags{})))
	})

	t.Run("registration order is preserved", func(t *testing.T) {
		paths := manager.AllPaths()
		require.Len(t, paths, 2)
		require.Equal(t, "Miner", paths[0].DisplayName())
		require.Equal(t, "Farmer", paths[1].DisplayName())
	})

	t.Run("case-insensitive lookup", func(t *testing.T) {
		require.NotNil(t, manager.FindPathByDisplayName("MINER", false))
		require.Nil(t, manager.FindPathByDisplayName("MINER", true))
		require.NotNil(t, manager.FindPathByDisplayName("Miner", true))
		require.Nil(t, manager.FindPathByDisplayName("Builder", false))
	})
}

func TestManagerActivation(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	const player = "player-1"

	t.Run("activates and lists active paths", func(t *testing.T) {
		t.Parallel()
		manager, _ := newTestManager(t, 2)
		path := mustPath(t, "Miner", PathFlags{})
		require.NoError(t, manager.AddPath(path))

		require.NoError(t, manager.ActivatePath(ctx, player, path, ActivateOptions{}))

		active, err := manager.ActivePaths(ctx, player)
		require.NoError(t, err)
		require.Len(t, active, 1)
		require.Equal(t, "Miner", active[0].DisplayName())
	})

	t.Run("double activation is refused", func(t *testing.T) {
		t.Parallel()
		manager, _ := newTestManager(t, 2)
		path := mustPath(t, "Miner", PathFlags{})
		require.NoError(t, manager.AddPath(path))

		require.NoError(t, manager.ActivatePath(ctx, player, path, ActivateOptions{}))
		require.ErrorIs(t, manager.ActivatePath(ctx, player, path, ActivateOptions{}), domain.ErrPathAlreadyActive)
	})

	t.Run("active path limit", func(t *testing.T) {
		t.Parallel()
		manager, _ := newTestManager(t, 1)
		first := mustPath(t, "Miner", PathFlags{})
		second := mustPath(t, "Farmer", PathFlags{})
		require.NoError(t, manager.AddPath(first))
		require.NoError(t, manager.AddPath(second))

		require.NoError(t, manager.ActivatePath(ctx, player, first, ActivateOptions{}))
		require.ErrorIs(t, manager.ActivatePath(ctx, player, second, ActivateOptions{}), domain.ErrTooManyActivePaths)

		// Refused activation leaves the active set unchanged.
		active, err := manager.ActivePaths(ctx, player)
		require.NoError(t, err)
		require.Len(t, active, 1)

		// Force bypasses the limit.
		require.NoError(t, manager.ActivatePath(ctx, player, second, ActivateOptions{Force: true}))
		active, err = manager.ActivePaths(ctx, player)
		require.NoError(t, err)
		require.Len(t, active, 2)
	})

	t.Run("unmet prerequisites block activation unless forced", func(t *testing.T) {
		t.Parallel()
		manager, _ := newTestManager(t, 1)
		path := mustPath(t, "Miner", PathFlags{}, mustComposite(t, 0, false))
		require.NoError(t, manager.AddPath(path))

		require.ErrorIs(t, manager.ActivatePath(ctx, player, path, ActivateOptions{}), domain.ErrPrerequisitesNotMet)
		require.NoError(t, manager.ActivatePath(ctx, player, path, ActivateOptions{Force: true}))
	})

	t.Run("completed one-time path cannot be re-activated", func(t *testing.T) {
		t.Parallel()
		manager, _ := newTestManager(t, 1)
		path := mustPath(t, "Miner", PathFlags{})
		require.NoError(t, manager.AddPath(path))

		require.NoError(t, manager.ActivatePath(ctx, player, path, ActivateOptions{}))
		completed, err := manager.CompletePath(ctx, player, path)
		require.NoError(t, err)
		require.True(t, completed)

		require.ErrorIs(t, manager.ActivatePath(ctx, player, path, ActivateOptions{}), domain.ErrPathAlreadyCompleted)
		require.ErrorIs(t, manager.ActivatePath(ctx, player, path, ActivateOptions{Force: true}), domain.ErrPathAlreadyCompleted)
	})

	t.Run("repeatable path resets progress but keeps history", func(t *testing.T) {
		t.Parallel()
		manager, _ := newTestManager(t, 1)
		path := mustPath(t, "Miner", PathFlags{Repeatable: true})
		require.NoError(t, manager.AddPath(path))

		require.NoError(t, manager.ActivatePath(ctx, player, path, ActivateOptions{}))
		require.NoError(t, manager.CompleteRequirement(ctx, player, path, 0))

		completed, err := manager.CompletePath(ctx, player, path)
		require.NoError(t, err)
		require.True(t, completed)

		require.NoError(t, manager.ActivatePath(ctx, player, path, ActivateOptions{}))

		done, err := manager.HasCompletedRequirement(ctx, player, path, 0)
		require.NoError(t, err)
		require.False(t, done, "re-activation must reset per-requirement progress")

		progress, err := manager.ProgressFor(ctx, player, path)
		require.NoError(t, err)
		require.Equal(t, 1, progress.TimesCompleted, "completion history must survive re-activation")
	})
}

func TestManagerRequirementCompletion(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	const player = "player-1"

	t.Run("recorded completion is a stored fact, not a live check", func(t *testing.T) {
		t.Parallel()
		manager, _ := newTestManager(t, 1)
		path := mustPath(t, "Miner", PathFlags{})
		require.NoError(t, manager.AddPath(path))
		require.NoError(t, manager.ActivatePath(ctx, player, path, ActivateOptions{}))

		done, err := manager.HasCompletedRequirement(ctx, player, path, 0)
		require.NoError(t, err)
		require.False(t, done)

		require.NoError(t, manager.CompleteRequirement(ctx, player, path, 0))

		done, err = manager.HasCompletedRequirement(ctx, player, path, 0)
		require.NoError(t, err)
		require.True(t, done)
	})

	t.Run("completion requires an active path", func(t *testing.T) {
		t.Parallel()
		manager, _ := newTestManager(t, 1)
		path := mustPath(t, "Miner", PathFlags{})
		require.NoError(t, manager.AddPath(path))

		require.ErrorIs(t, manager.CompleteRequirement(ctx, player, path, 0), domain.ErrPathNotActive)
	})

	t.Run("re-recording is a no-op", func(t *testing.T) {
		t.Parallel()
		manager, repo := newTestManager(t, 1)
		path := mustPath(t, "Miner", PathFlags{})
		require.NoError(t, manager.AddPath(path))
		require.NoError(t, manager.ActivatePath(ctx, player, path, ActivateOptions{}))

		require.NoError(t, manager.CompleteRequirement(ctx, player, path, 0))
		savesAfterFirst := repo.saves
		require.NoError(t, manager.CompleteRequirement(ctx, player, path, 0))
		require.Equal(t, savesAfterFirst, repo.saves)
	})
}

func TestManagerCompletePath(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	const player = "player-1"

	manager, _ := newTestManager(t, 1)
	path := mustPath(t, "Miner", PathFlags{})
	require.NoError(t, manager.AddPath(path))
	require.NoError(t, manager.ActivatePath(ctx, player, path, ActivateOptions{}))

	completed, err := manager.CompletePath(ctx, player, path)
	require.NoError(t, err)
	require.True(t, completed)

	// Completing again does not transition: this is the at-most-once
	// firing guard.
	completed, err = manager.CompletePath(ctx, player, path)
	require.NoError(t, err)
	require.False(t, completed)
}

func TestManagerPersistence(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	const player = "player-1"

	t.Run("repository miss means all paths inactive", func(t *testing.T) {
		t.Parallel()
		manager, _ := newTestManager(t, 1)
		path := mustPath(t, "Miner", PathFlags{})
		require.NoError(t, manager.AddPath(path))

		active, err := manager.ActivePaths(ctx, player)
		require.NoError(t, err)
		require.Empty(t, active)
	})

	t.Run("state survives a manager restart", func(t *testing.T) {
		t.Parallel()
		repo := newMemoryStateRepository()
		path := mustPath(t, "Miner", PathFlags{})

		manager := NewManager(repo, 1, time.Now)
		require.NoError(t, manager.AddPath(path))
		require.NoError(t, manager.ActivatePath(ctx, player, path, ActivateOptions{}))
		require.NoError(t, manager.CompleteRequirement(ctx, player, path, 0))

		restarted := NewManager(repo, 1, time.Now)
		require.NoError(t, restarted.AddPath(path))

		done, err := restarted.HasCompletedRequirement(ctx, player, path, 0)
		require.NoError(t, err)
		require.True(t, done)
	})

	t.Run("reset discards all state", func(t *testing.T) {
		t.Parallel()
		manager, _ := newTestManager(t, 1)
		path := mustPath(t, "Miner", PathFlags{})
		require.NoError(t, manager.AddPath(path))
		require.NoError(t, manager.ActivatePath(ctx, player, path, ActivateOptions{}))

		require.NoError(t, manager.ResetPlayer(ctx, player))

		active, err := manager.ActivePaths(ctx, player)
		require.NoError(t, err)
		require.Empty(t, active)
	})
}

func TestManagerVisiblePaths(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	manager, _ := newTestManager(t, 1)
	visible := mustPath(t, "Open", PathFlags{})
	hidden := mustPath(t, "Hidden", PathFlags{OnlyShowIfPrerequisitesMet: true}, mustComposite(t, 0, false))
	shown := mustPath(t, "Shown", PathFlags{OnlyShowIfPrerequisitesMet: true}, mustComposite(t, 0, true))
	require.NoError(t, manager.AddPath(visible))
	require.NoError(t, manager.AddPath(hidden))
	require.NoError(t, manager.AddPath(shown))

	names := []string{}
	for _, path := range manager.VisiblePaths(ctx, "player-1") {
		names = append(names, path.DisplayName())
	}
	require.Equal(t, []string{"Open", "Shown"}, names)
}

func TestManagerAutoActivate(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	const player = "player-1"

	manager, _ := newTestManager(t, 2)
	auto := mustPath(t, "Auto", PathFlags{AutoActivate: true})
	manual := mustPath(t, "Manual", PathFlags{})
	blocked := mustPath(t, "Blocked", PathFlags{AutoActivate: true}, mustComposite(t, 0, false))
	require.NoError(t, manager.AddPath(auto))
	require.NoError(t, manager.AddPath(manual))
	require.NoError(t, manager.AddPath(blocked))

	activated := manager.AutoActivate(ctx, player)
	require.Len(t, activated, 1)
	require.Equal(t, "Auto", activated[0].DisplayName())

	// Idempotent: already-active paths are left alone.
	require.Empty(t, manager.AutoActivate(ctx, player))
}

func TestManagerSerializesPerPlayer(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	const player = "player-1"

	manager, _ := newTestManager(t, 100)
	paths := make([]*Path, 20)
	for i := range paths {
		paths[i] = mustPath(t, fmt.Sprintf("Path %d", i), PathFlags{})
		require.NoError(t, manager.AddPath(paths[i]))
	}

	var wg sync.WaitGroup
	for _, path := range paths {
		wg.Add(1)
		go func(path *Path) {
			defer wg.Done()
			require.NoError(t, manager.ActivatePath(ctx, player, path, ActivateOptions{}))
		}(path)
	}
	wg.Wait()

	active, err := manager.ActivePaths(ctx, player)
	require.NoError(t, err)
	require.Len(t, active, 20)
}
