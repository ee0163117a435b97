package requirement

import (
	"context"
	"fmt"

	"github.com/pathways-mc/pathways/internal/domain"
)

type worldRequirement struct {
	world string
	hook  WorldHook
}

// NewWorld parses options ["<world name>"]. Satisfied while the player is
// currently in that world.
func NewWorld(options []string, hook WorldHook) (domain.Requirement, error) {
	if len(options) != 1 || options[0] == "" {
		return nil, fmt.Errorf("%w: WORLD takes exactly one non-empty option", domain.ErrInvalidOptions)
	}
	if hook == nil || !hook.WorldsAvailable() {
		return nil, fmt.Errorf("%w: worlds hook", domain.ErrDependencyUnavailable)
	}

	return &worldRequirement{
		world: options[0],
		hook:  hook,
	}, nil
}

func (r *worldRequirement) Description() string {
	return fmt.Sprintf("Be in world '%s'", r.world)
}

func (r *worldRequirement) Progress(ctx context.Context, playerUUID string) string {
	current, err := r.hook.CurrentWorld(ctx, playerUUID)
	if err != nil || current == "" {
		return "unknown world"
	}
	return fmt.Sprintf("in '%s'", current)
}

func (r *worldRequirement) Met(ctx context.Context, playerUUID string) (bool, error) {
	current, err := r.hook.CurrentWorld(ctx, playerUUID)
	if err != nil {
		return false, fmt.Errorf("failed to fetch current world: %w", err)
	}
	return current == r.world, nil
}
