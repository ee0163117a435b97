// Package requirement holds the built-in requirement implementations.
// Each type is constructed from the ordered string options written in the
// path file; constructors validate eagerly so a malformed requirement is
// caught at load time, not during an evaluation pass.
package requirement

import (
	"context"
	"fmt"

	"github.com/pathways-mc/pathways/internal/domain"
	"github.com/pathways-mc/pathways/internal/registry"
)

// PlayTimeProvider answers how many minutes a player has played in a
// bucket. Implemented by the playtime manager.
type PlayTimeProvider interface {
	PlayTime(ctx context.Context, playerUUID string, bucket domain.TimeBucket) (int, error)
}

type PermissionHook interface {
	PermissionsAvailable() bool
	HasPermission(ctx context.Context, playerUUID, node string) (bool, error)
}

type EconomyHook interface {
	EconomyAvailable() bool
	Balance(ctx context.Context, playerUUID string) (float64, error)
}

type SkyblockHook interface {
	SkyblockAvailable() bool
	IslandLevel(ctx context.Context, playerUUID string) (int, error)
}

type StatisticHook interface {
	StatisticsAvailable() bool
	Statistic(ctx context.Context, playerUUID, statistic string) (int64, error)
}

type WorldHook interface {
	WorldsAvailable() bool
	CurrentWorld(ctx context.Context, playerUUID string) (string, error)
}

// Deps bundles the collaborators the built-in requirement factories close
// over when registered.
type Deps struct {
	PlayTime   PlayTimeProvider
	Permission PermissionHook
	Economy    EconomyHook
	Skyblock   SkyblockHook
	Statistic  StatisticHook
	World      WorldHook
}

// RegisterBuiltins registers every built-in requirement type. Must run at
// startup before any path is loaded.
func RegisterBuiltins(reg *registry.Registry, deps Deps) error {
	factories := map[string]registry.RequirementFactory{
		"TIME": func(options []string) (domain.Requirement, error) {
			return NewTime(options, deps.PlayTime)
		},
		"PERMISSION": func(options []string) (domain.Requirement, error) {
			return NewPermission(options, deps.Permission)
		},
		"MONEY": func(options []string) (domain.Requirement, error) {
			return NewMoney(options, deps.Economy)
		},
		"ISLAND_LEVEL": func(options []string) (domain.Requirement, error) {
			return NewIslandLevel(options, deps.Skyblock)
		},
		"STATISTIC": func(options []string) (domain.Requirement, error) {
			return NewStatistic(options, deps.Statistic)
		},
		"WORLD": func(options []string) (domain.Requirement, error) {
			return NewWorld(options, deps.World)
		},
	}

	for typeName, factory := range factories {
		if err := reg.RegisterRequirement(typeName, factory); err != nil {
			return fmt.Errorf("failed to register built-in requirement %s: %w", typeName, err)
		}
	}
	return nil
}

// Unavailable is the placeholder substituted for a requirement whose hook
// is missing: it keeps the slot in the path but never reports satisfied.
func Unavailable(typeName string) domain.Requirement {
	return &unavailableRequirement{typeName: typeName}
}

type unavailableRequirement struct {
	typeName string
}

func (r *unavailableRequirement) Description() string {
	return fmt.Sprintf("%s (dependency unavailable)", r.typeName)
}

func (r *unavailableRequirement) Progress(ctx context.Context, playerUUID string) string {
	return "unavailable"
}

func (r *unavailableRequirement) Met(ctx context.Context, playerUUID string) (bool, error) {
	return false, nil
}
