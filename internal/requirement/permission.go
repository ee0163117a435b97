package requirement

import (
	"context"
	"fmt"

	"github.com/pathways-mc/pathways/internal/domain"
)

type permissionRequirement struct {
	node string
	hook PermissionHook
}

// NewPermission parses options ["<permission node>"].
func NewPermission(options []string, hook PermissionHook) (domain.Requirement, error) {
	if len(options) != 1 || options[0] == "" {
		return nil, fmt.Errorf("%w: PERMISSION takes exactly one non-empty option", domain.ErrInvalidOptions)
	}
	if hook == nil || !hook.PermissionsAvailable() {
		return nil, fmt.Errorf("%w: permissions hook", domain.ErrDependencyUnavailable)
	}

	return &permissionRequirement{
		node: options[0],
		hook: hook,
	}, nil
}

func (r *permissionRequirement) Description() string {
	return fmt.Sprintf("Have the permission '%s'", r.node)
}

func (r *permissionRequirement) Progress(ctx context.Context, playerUUID string) string {
	granted, err := r.hook.HasPermission(ctx, playerUUID, r.node)
	if err != nil || !granted {
		return "not granted"
	}
	return "granted"
}

func (r *permissionRequirement) Met(ctx context.Context, playerUUID string) (bool, error) {
	granted, err := r.hook.HasPermission(ctx, playerUUID, r.node)
	if err != nil {
		return false, fmt.Errorf("failed to check permission: %w", err)
	}
	return granted, nil
}
