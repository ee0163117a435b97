package requirement

import (
	"context"
	"fmt"
	"strconv"

	"github.com/pathways-mc/pathways/internal/domain"
)

type islandLevelRequirement struct {
	level int
	hook  SkyblockHook
}

// NewIslandLevel parses options ["<island level>"].
func NewIslandLevel(options []string, hook SkyblockHook) (domain.Requirement, error) {
	if len(options) != 1 {
		return nil, fmt.Errorf("%w: ISLAND_LEVEL takes exactly one option", domain.ErrInvalidOptions)
	}

	level, err := strconv.Atoi(options[0])
	if err != nil {
		return nil, fmt.Errorf("%w: invalid number %q", domain.ErrInvalidOptions, options[0])
	}
	if level < 0 {
		return nil, fmt.Errorf("%w: level must not be negative, got %d", domain.ErrInvalidOptions, level)
	}

	if hook == nil || !hook.SkyblockAvailable() {
		return nil, fmt.Errorf("%w: skyblock hook", domain.ErrDependencyUnavailable)
	}

	return &islandLevelRequirement{
		level: level,
		hook:  hook,
	}, nil
}

func (r *islandLevelRequirement) Description() string {
	return fmt.Sprintf("Reach island level %d", r.level)
}

func (r *islandLevelRequirement) Progress(ctx context.Context, playerUUID string) string {
	level, err := r.hook.IslandLevel(ctx, playerUUID)
	if err != nil {
		level = 0
	}
	return fmt.Sprintf("%d/%d", level, r.level)
}

func (r *islandLevelRequirement) Met(ctx context.Context, playerUUID string) (bool, error) {
	level, err := r.hook.IslandLevel(ctx, playerUUID)
	if err != nil {
		return false, fmt.Errorf("failed to fetch island level: %w", err)
	}
	return level >= r.level, nil
}
