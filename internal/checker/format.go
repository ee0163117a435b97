package checker

import (
	"context"
	"fmt"

	"github.com/pathways-mc/pathways/internal/pathing"
	"github.com/pathways-mc/pathways/internal/reporting"
)

// RequirementView is a display-ready snapshot of one composite requirement
// for one player.
type RequirementView struct {
	CompletionID int
	Description  string
	Progress     string
	Completed    bool
	// Skipped marks a world-scoped composite the player is currently
	// outside of: neither satisfied nor failed, and no live progress.
	Skipped      bool
	AutoComplete bool
	World        string
}

// FormatRequirements renders every requirement of the path with the player's
// stored completion state. It does not evaluate requirements against live
// data; Progress strings come from the requirement's own reporting.
func FormatRequirements(ctx context.Context, manager *pathing.Manager, playerUUID string, path *pathing.Path) ([]RequirementView, error) {
	views := make([]RequirementView, 0, len(path.Requirements()))
	for _, composite := range path.Requirements() {
		done, err := manager.HasCompletedRequirement(ctx, playerUUID, path, composite.Index())
		if err != nil {
			return nil, fmt.Errorf("failed to look up requirement state: %w", err)
		}

		applicable := true
		if !done {
			applicable, err = composite.Applicable(ctx, playerUUID)
			if err != nil {
				reporting.Report(ctx, fmt.Errorf("failed to check requirement applicability: %w", err))
				applicable = false
			}
		}

		view := RequirementView{
			CompletionID: composite.CompletionID(),
			Description:  composite.Description(),
			Completed:    done,
			Skipped:      !done && !applicable,
			AutoComplete: composite.AutoCompletes(),
			World:        composite.World(),
		}
		if !view.Skipped {
			view.Progress = composite.Progress(ctx, playerUUID)
		}
		views = append(views, view)
	}
	return views, nil
}

// FormatResults renders the descriptions of a path's results in execution
// order.
func FormatResults(path *pathing.Path) []string {
	descriptions := make([]string, 0, len(path.Results()))
	for _, result := range path.Results() {
		descriptions = append(descriptions, result.Description())
	}
	return descriptions
}
