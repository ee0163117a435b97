package pathconfig_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pathways-mc/pathways/internal/domain"
	"github.com/pathways-mc/pathways/internal/pathconfig"
	"github.com/pathways-mc/pathways/internal/registry"
)

type staticRequirement struct {
	met bool
}

func (s *staticRequirement) Description() string { return "static requirement" }

func (s *staticRequirement) Progress(ctx context.Context, playerUUID string) string { return "-" }

func (s *staticRequirement) Met(ctx context.Context, playerUUID string) (bool, error) {
	return s.met, nil
}

type staticResult struct{}

func (s *staticResult) Description() string { return "static result" }

func (s *staticResult) Execute(ctx context.Context, playerUUID string) error { return nil }

func newTestRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	reg := registry.New()

	require.NoError(t, reg.RegisterRequirement("TIME", func(options []string) (domain.Requirement, error) {
		if len(options) == 0 {
			return nil, fmt.Errorf("%w: missing minutes", domain.ErrInvalidOptions)
		}
		return &staticRequirement{met: true}, nil
	}))
	require.NoError(t, reg.RegisterRequirement("ISLAND_LEVEL", func(options []string) (domain.Requirement, error) {
		return nil, fmt.Errorf("%w: skyblock hook missing", domain.ErrDependencyUnavailable)
	}))
	require.NoError(t, reg.RegisterResult("MESSAGE", func(options []string) (domain.Result, error) {
		return &staticResult{}, nil
	}))

	return reg
}

func TestLoadBuildsPaths(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	result, err := pathconfig.Load(ctx, []byte(`
paths:
  - name: Miner
    repeatable: true
    auto_activate: true
    requirements:
      - type: TIME
        options: ["60"]
      - world: mining_world
        alternatives:
          - type: TIME
            options: ["120"]
    results:
      - type: MESSAGE
        options: ["Welcome to Miner!"]
`), newTestRegistry(t), nil)
	require.NoError(t, err)
	require.Empty(t, result.Warnings)
	require.Len(t, result.Paths, 1)

	path := result.Paths[0]
	require.Equal(t, "Miner", path.DisplayName())
	require.True(t, path.Repeatable())
	require.True(t, path.AutoActivates())
	require.Len(t, path.Requirements(), 2)
	require.Equal(t, "mining_world", path.Requirements()[1].World())
	require.Len(t, path.Results(), 1)
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	t.Parallel()
	_, err := pathconfig.Load(context.Background(), []byte("paths: {{"), newTestRegistry(t), nil)
	require.Error(t, err)
}

func TestLoadSkipsPathWithUnknownResultType(t *testing.T) {
	t.Parallel()

	result, err := pathconfig.Load(context.Background(), []byte(`
paths:
  - name: Miner
    requirements:
      - type: TIME
        options: ["60"]
    results:
      - type: FIREWORKS
`), newTestRegistry(t), nil)
	require.NoError(t, err)
	require.Empty(t, result.Paths)
	require.Len(t, result.Warnings, 1)
	require.Contains(t, result.Warnings[0], "FIREWORKS")
}

func TestLoadDisablesAlternativeWithInvalidOptions(t *testing.T) {
	t.Parallel()

	t.Run("other alternatives keep the composite alive", func(t *testing.T) {
		t.Parallel()
		result, err := pathconfig.Load(context.Background(), []byte(`
paths:
  - name: Miner
    requirements:
      - alternatives:
          - type: TIME
          - type: TIME
            options: ["60"]
`), newTestRegistry(t), nil)
		require.NoError(t, err)
		require.Len(t, result.Paths, 1)
		require.Len(t, result.Warnings, 1)
	})

	t.Run("a composite with no usable alternatives skips the path", func(t *testing.T) {
		t.Parallel()
		result, err := pathconfig.Load(context.Background(), []byte(`
paths:
  - name: Miner
    requirements:
      - type: TIME
`), newTestRegistry(t), nil)
		require.NoError(t, err)
		require.Empty(t, result.Paths)
		require.Len(t, result.Warnings, 2)
	})
}

func TestLoadSubstitutesUnavailableRequirements(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	result, err := pathconfig.Load(ctx, []byte(`
paths:
  - name: Islander
    requirements:
      - type: ISLAND_LEVEL
        options: ["10"]
      - type: ISLAND_LEVEL
        options: ["20"]
`), newTestRegistry(t), nil)
	require.NoError(t, err)
	require.Len(t, result.Paths, 1)
	// Warned once per load despite two affected requirements.
	require.Len(t, result.Warnings, 1)
	require.Contains(t, result.Warnings[0], "ISLAND_LEVEL")

	// The placeholder keeps the path's shape but never satisfies.
	satisfied, err := result.Paths[0].Requirements()[0].Satisfied(ctx, "player")
	require.NoError(t, err)
	require.False(t, satisfied)
}

func TestLoadSkipsDuplicatePathNames(t *testing.T) {
	t.Parallel()

	result, err := pathconfig.Load(context.Background(), []byte(`
paths:
  - name: Miner
    requirements:
      - type: TIME
        options: ["60"]
  - name: miner
    requirements:
      - type: TIME
        options: ["120"]
`), newTestRegistry(t), nil)
	require.NoError(t, err)
	require.Len(t, result.Paths, 1)
	require.Len(t, result.Warnings, 1)
}

func TestLoadSkipsPathWithoutRequirements(t *testing.T) {
	t.Parallel()

	result, err := pathconfig.Load(context.Background(), []byte(`
paths:
  - name: Empty
`), newTestRegistry(t), nil)
	require.NoError(t, err)
	require.Empty(t, result.Paths)
	require.Len(t, result.Warnings, 1)
}
