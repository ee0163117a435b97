package pathing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pathways-mc/pathways/internal/domain"
)

func TestNewPath(t *testing.T) {
	t.Parallel()

	requirements := []*CompositeRequirement{mustComposite(t, 0, true)}

	t.Run("rejects empty display name", func(t *testing.T) {
		t.Parallel()
		_, err := NewPath("  ", nil, requirements, nil, PathFlags{})
		require.Error(t, err)
	})

	t.Run("rejects empty requirement list", func(t *testing.T) {
		t.Parallel()
		_, err := NewPath("Miner", nil, nil, nil, PathFlags{})
		require.Error(t, err)
	})

	t.Run("rejects out-of-order requirement indices", func(t *testing.T) {
		t.Parallel()
		_, err := NewPath("Miner", nil, []*CompositeRequirement{mustComposite(t, 1, true)}, nil, PathFlags{})
		require.Error(t, err)
	})
}

func TestPathMeetsPrerequisites(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("no prerequisites means eligible", func(t *testing.T) {
		t.Parallel()
		path := mustPath(t, "Miner", PathFlags{})
		require.True(t, path.MeetsPrerequisites(ctx, "player"))
	})

	t.Run("all prerequisites must hold", func(t *testing.T) {
		t.Parallel()
		path := mustPath(t, "Miner", PathFlags{}, mustComposite(t, 0, true), mustComposite(t, 1, false))
		require.False(t, path.MeetsPrerequisites(ctx, "player"))
	})

	t.Run("world-scoped prerequisite outside its world does not block", func(t *testing.T) {
		t.Parallel()
		scoped, err := NewCompositeRequirement(0, []domain.Requirement{
			&stubRequirement{met: false},
		}, CompositeOptions{World: "mining_world", WorldOf: &stubWorldResolver{world: "spawn"}})
		require.NoError(t, err)

		path := mustPath(t, "Miner", PathFlags{}, scoped)
		require.True(t, path.MeetsPrerequisites(ctx, "player"))
	})
}
