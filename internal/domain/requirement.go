package domain

import "context"

// Requirement is a single condition a player can satisfy, e.g. "played for
// 60 minutes" or "has permission node x". Implementations are registered by
// type name and constructed from an ordered list of string options.
type Requirement interface {
	// Description returns a human-readable description of the requirement,
	// independent of any player.
	Description() string

	// Progress returns a human-readable current-vs-target state for the
	// given player. It must not fail for a player with no recorded
	// progress; implementations fall back to a zero baseline.
	Progress(ctx context.Context, playerUUID string) string

	// Met reports whether the player currently satisfies the requirement.
	// It must be free of side effects and safe to call repeatedly.
	Met(ctx context.Context, playerUUID string) (bool, error)
}

// Result is an action fired when a path completes, e.g. a rank change.
// Execution is not assumed idempotent; the engine guarantees at-most-once
// firing per completion.
type Result interface {
	Description() string
	Execute(ctx context.Context, playerUUID string) error
}
