package requirement

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pathways-mc/pathways/internal/adapters/hooks"
	"github.com/pathways-mc/pathways/internal/domain"
	"github.com/pathways-mc/pathways/internal/registry"
)

type stubPlayTime struct {
	minutes map[domain.TimeBucket]int
	err     error
}

func (s *stubPlayTime) PlayTime(ctx context.Context, playerUUID string, bucket domain.TimeBucket) (int, error) {
	if s.err != nil {
		return 0, s.err
	}
	return s.minutes[bucket], nil
}

func TestTimeRequirement(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("defaults to total bucket", func(t *testing.T) {
		t.Parallel()
		provider := &stubPlayTime{minutes: map[domain.TimeBucket]int{domain.BucketTotal: 61}}

		req, err := NewTime([]string{"60"}, provider)
		require.NoError(t, err)

		met, err := req.Met(ctx, "player")
		require.NoError(t, err)
		require.True(t, met)
		require.Equal(t, "61/60 minutes", req.Progress(ctx, "player"))
	})

	t.Run("bucketed playtime", func(t *testing.T) {
		t.Parallel()
		provider := &stubPlayTime{minutes: map[domain.TimeBucket]int{
			domain.BucketDaily: 10,
			domain.BucketTotal: 1000,
		}}

		req, err := NewTime([]string{"daily", "30"}, provider)
		require.NoError(t, err)

		met, err := req.Met(ctx, "player")
		require.NoError(t, err)
		require.False(t, met)
	})

	t.Run("invalid options", func(t *testing.T) {
		t.Parallel()
		provider := &stubPlayTime{}

		for _, options := range [][]string{
			{},
			{"abc"},
			{"-5"},
			{"0"},
			{"hourly", "10"},
			{"daily", "10", "extra"},
		} {
			_, err := NewTime(options, provider)
			require.ErrorIs(t, err, domain.ErrInvalidOptions, "options: %v", options)
		}
	})

	t.Run("progress defaults to zero on provider error", func(t *testing.T) {
		t.Parallel()
		provider := &stubPlayTime{err: errors.New("storage down")}

		req, err := NewTime([]string{"60"}, provider)
		require.NoError(t, err)
		require.Equal(t, "0/60 minutes", req.Progress(ctx, "player"))

		_, err = req.Met(ctx, "player")
		require.Error(t, err)
	})
}

func TestPermissionRequirement(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("met when granted", func(t *testing.T) {
		t.Parallel()
		bridge := hooks.NewMockBridge()
		bridge.Permissions["player"] = map[string]bool{"pathways.vip": true}

		req, err := NewPermission([]string{"pathways.vip"}, bridge)
		require.NoError(t, err)

		met, err := req.Met(ctx, "player")
		require.NoError(t, err)
		require.True(t, met)

		met, err = req.Met(ctx, "other")
		require.NoError(t, err)
		require.False(t, met)
	})

	t.Run("unavailable hook fails construction", func(t *testing.T) {
		t.Parallel()
		_, err := NewPermission([]string{"pathways.vip"}, nil)
		require.ErrorIs(t, err, domain.ErrDependencyUnavailable)
	})
}

func TestMoneyRequirement(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	bridge := hooks.NewMockBridge()
	bridge.Balances["player"] = 99.5

	req, err := NewMoney([]string{"100"}, bridge)
	require.NoError(t, err)

	met, err := req.Met(ctx, "player")
	require.NoError(t, err)
	require.False(t, met)
	require.Equal(t, "99.50/100.00", req.Progress(ctx, "player"))

	bridge.Balances["player"] = 100
	met, err = req.Met(ctx, "player")
	require.NoError(t, err)
	require.True(t, met)
}

func TestIslandLevelRequirement(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	bridge := hooks.NewMockBridge()
	bridge.Islands["player"] = 12

	req, err := NewIslandLevel([]string{"10"}, bridge)
	require.NoError(t, err)

	met, err := req.Met(ctx, "player")
	require.NoError(t, err)
	require.True(t, met)
	require.Equal(t, "12/10", req.Progress(ctx, "player"))

	_, err = NewIslandLevel([]string{"-1"}, bridge)
	require.ErrorIs(t, err, domain.ErrInvalidOptions)
}

func TestStatisticRequirement(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	bridge := hooks.NewMockBridge()
	bridge.Statistics["player"] = map[string]int64{"blocks_mined": 500}

	req, err := NewStatistic([]string{"blocks_mined", "1000"}, bridge)
	require.NoError(t, err)

	met, err := req.Met(ctx, "player")
	require.NoError(t, err)
	require.False(t, met)
	require.Equal(t, "500/1000", req.Progress(ctx, "player"))
}

func TestWorldRequirement(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	bridge := hooks.NewMockBridge()
	bridge.Worlds["player"] = "mining_world"

	req, err := NewWorld([]string{"mining_world"}, bridge)
	require.NoError(t, err)

	met, err := req.Met(ctx, "player")
	require.NoError(t, err)
	require.True(t, met)

	bridge.Worlds["player"] = "spawn"
	met, err = req.Met(ctx, "player")
	require.NoError(t, err)
	require.False(t, met)
}

func TestUnavailablePlaceholder(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	req := Unavailable("ISLAND_LEVEL")
	met, err := req.Met(ctx, "player")
	require.NoError(t, err)
	require.False(t, met)
	require.Equal(t, "unavailable", req.Progress(ctx, "player"))
	require.Contains(t, req.Description(), "ISLAND_LEVEL")
}

func TestRegisterBuiltins(t *testing.T) {
	t.Parallel()

	reg := registry.New()
	deps := Deps{
		PlayTime:   &stubPlayTime{},
		Permission: hooks.NewMockBridge(),
		Economy:    hooks.NewMockBridge(),
		Skyblock:   hooks.NewMockBridge(),
		Statistic:  hooks.NewMockBridge(),
		World:      hooks.NewMockBridge(),
	}
	require.NoError(t, RegisterBuiltins(reg, deps))

	for _, typeName := range []string{"TIME", "PERMISSION", "MONEY", "ISLAND_LEVEL", "STATISTIC", "WORLD"} {
		require.Contains(t, reg.RequirementTypes(), typeName)
	}

	// Registering twice must fail, not overwrite.
	require.ErrorIs(t, RegisterBuiltins(reg, deps), domain.ErrDuplicateType)
}
