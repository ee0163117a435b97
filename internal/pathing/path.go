// Package pathing holds the path data model and the per-player path state
// machine. A path is an ordered list of composite requirements leading to
// results; its structure is immutable after configuration load, while all
// per-player progress lives in the manager's state store.
package pathing

import (
	"context"
	"fmt"
	"strings"

	"github.com/pathways-mc/pathways/internal/domain"
	"github.com/pathways-mc/pathways/internal/logging"
)

type PathFlags struct {
	// OnlyShowIfPrerequisitesMet hides the path from listings for players
	// that do not meet its prerequisites.
	OnlyShowIfPrerequisitesMet bool
	// Repeatable allows COMPLETED -> ACTIVE re-activation. Progress is
	// reset on re-activation; completion history is kept.
	Repeatable bool
	// AutoActivate activates the path during an evaluation pass as soon as
	// the player meets its prerequisites.
	AutoActivate bool
}

type Path struct {
	displayName   string
	prerequisites []*CompositeRequirement
	requirements  []*CompositeRequirement
	results       []domain.Result
	flags         PathFlags
}

func NewPath(displayName string, prerequisites, requirements []*CompositeRequirement, results []domain.Result, flags PathFlags) (*Path, error) {
	if strings.TrimSpace(displayName) == "" {
		return nil, fmt.Errorf("path display name must not be empty")
	}
	if len(requirements) == 0 {
		return nil, fmt.Errorf("path %q has no requirements", displayName)
	}
	for i, requirement := range requirements {
		if requirement.Index() != i {
			return nil, fmt.Errorf("path %q: requirement at position %d has index %d", displayName, i, requirement.Index())
		}
	}

	return &Path{
		displayName:   displayName,
		prerequisites: prerequisites,
		requirements:  requirements,
		results:       results,
		flags:         flags,
	}, nil
}

func (p *Path) DisplayName() string { return p.displayName }

// InternalName is the case-insensitive identity used as a state store key.
func (p *Path) InternalName() string { return strings.ToLower(p.displayName) }

// Matches reports whether name refers to this path. Exact matching is
// case-sensitive; otherwise names are compared case-insensitively.
func (p *Path) Matches(name string, exact bool) bool {
	if exact {
		return p.displayName == name
	}
	return strings.EqualFold(p.displayName, name)
}

func (p *Path) Prerequisites() []*CompositeRequirement { return p.prerequisites }

func (p *Path) Requirements() []*CompositeRequirement { return p.requirements }

func (p *Path) Results() []domain.Result { return p.results }

func (p *Path) OnlyShowIfPrerequisitesMet() bool { return p.flags.OnlyShowIfPrerequisitesMet }

func (p *Path) Repeatable() bool { return p.flags.Repeatable }

func (p *Path) AutoActivates() bool { return p.flags.AutoActivate }

// MeetsPrerequisites reports whether every prerequisite composite is
// satisfied. World-scoped prerequisites the player is currently outside of
// do not block eligibility. A failing prerequisite counts as unmet and is
// logged, never propagated as a pass failure.
func (p *Path) MeetsPrerequisites(ctx context.Context, playerUUID string) bool {
	for _, prerequisite := range p.prerequisites {
		applicable, err := prerequisite.Applicable(ctx, playerUUID)
		if err != nil {
			logging.FromContext(ctx).Warn(
				"Failed to check prerequisite applicability",
				"path", p.displayName,
				"prerequisite", prerequisite.Index(),
				"error", err.Error(),
			)
			return false
		}
		if !applicable {
			continue
		}

		satisfied, err := prerequisite.Satisfied(ctx, playerUUID)
		if err != nil {
			logging.FromContext(ctx).Warn(
				"Failed to evaluate prerequisite",
				"path", p.displayName,
				"prerequisite", prerequisite.Index(),
				"error", err.Error(),
			)
			return false
		}
		if !satisfied {
			return false
		}
	}
	return true
}
