package pathing

import (
	"context"
	"errors"
	"fmt"

	"github.com/pathways-mc/pathways/internal/domain"
)

// WorldResolver answers which world a player is currently in. Used for
// world-scoped composites; nil disables world scoping checks.
type WorldResolver interface {
	CurrentWorld(ctx context.Context, playerUUID string) (string, error)
}

// CompositeRequirement is one position in a path: an ordered OR-group of
// alternative requirements. Any satisfied alternative satisfies the
// composite. The index within the owning path is fixed at construction and
// doubles as the external completion ID (1-based towards users).
type CompositeRequirement struct {
	index        int
	alternatives []domain.Requirement
	world        string
	autoComplete bool
	worldOf      WorldResolver
}

type CompositeOptions struct {
	// World restricts the composite to players currently in this world.
	// Empty means no restriction.
	World string
	// AutoComplete exempts the composite from the strict completion order:
	// it may complete before earlier requirements do. With no alternatives
	// it is satisfied outright; alternatives, when present, are still
	// evaluated.
	AutoComplete bool
	WorldOf      WorldResolver
}

func NewCompositeRequirement(index int, alternatives []domain.Requirement, opts CompositeOptions) (*CompositeRequirement, error) {
	if index < 0 {
		return nil, fmt.Errorf("requirement index must not be negative, got %d", index)
	}
	if len(alternatives) == 0 && !opts.AutoComplete {
		return nil, errors.New("composite requirement needs at least one alternative")
	}

	return &CompositeRequirement{
		index:        index,
		alternatives: alternatives,
		world:        opts.World,
		autoComplete: opts.AutoComplete,
		worldOf:      opts.WorldOf,
	}, nil
}

func (c *CompositeRequirement) Index() int { return c.index }

// CompletionID is the 1-based index shown to users.
func (c *CompositeRequirement) CompletionID() int { return c.index + 1 }

func (c *CompositeRequirement) World() string { return c.world }

func (c *CompositeRequirement) WorldScoped() bool { return c.world != "" }

func (c *CompositeRequirement) AutoCompletes() bool { return c.autoComplete }

// Applicable reports whether the composite should be evaluated for the
// player at all. A world-scoped composite is skipped while the player is in
// another world: not satisfied, not failed, just not applicable yet.
func (c *CompositeRequirement) Applicable(ctx context.Context, playerUUID string) (bool, error) {
	if !c.WorldScoped() || c.worldOf == nil {
		return true, nil
	}

	current, err := c.worldOf.CurrentWorld(ctx, playerUUID)
	if err != nil {
		return false, fmt.Errorf("failed to resolve player world: %w", err)
	}
	return current == c.world, nil
}

// Satisfied reports whether any alternative is met. Alternatives are tried
// in declaration order; a failing alternative does not mask a later
// satisfied one.
func (c *CompositeRequirement) Satisfied(ctx context.Context, playerUUID string) (bool, error) {
	if len(c.alternatives) == 0 {
		// Only reachable for auto-completing composites; nothing to check.
		return true, nil
	}

	var errs []error
	for _, alternative := range c.alternatives {
		met, err := alternative.Met(ctx, playerUUID)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if met {
			return true, nil
		}
	}
	if len(errs) == len(c.alternatives) && len(errs) > 0 {
		return false, fmt.Errorf("all alternatives failed to evaluate: %w", errors.Join(errs...))
	}
	return false, nil
}

// Description shows the first alternative only. With multiple alternatives
// the primary one represents the composite in listings; this is
// deterministic on declaration order.
func (c *CompositeRequirement) Description() string {
	if len(c.alternatives) == 0 {
		return "(automatic)"
	}

	description := c.alternatives[0].Description()
	if c.WorldScoped() {
		description = fmt.Sprintf("%s (in world '%s')", description, c.world)
	}
	return description
}

// Progress delegates to the first alternative, like Description.
func (c *CompositeRequirement) Progress(ctx context.Context, playerUUID string) string {
	if len(c.alternatives) == 0 {
		return "automatic"
	}
	return c.alternatives[0].Progress(ctx, playerUUID)
}
