package requirement

import (
	"context"
	"fmt"
	"strconv"

	"github.com/pathways-mc/pathways/internal/domain"
)

type timeRequirement struct {
	bucket   domain.TimeBucket
	minutes  int
	playTime PlayTimeProvider
}

// NewTime parses options ["<minutes>"] or ["<bucket>", "<minutes>"].
// The bucket defaults to total playtime.
func NewTime(options []string, playTime PlayTimeProvider) (domain.Requirement, error) {
	if playTime == nil {
		return nil, fmt.Errorf("%w: no playtime provider", domain.ErrDependencyUnavailable)
	}

	bucket := domain.BucketTotal
	var rawMinutes string

	switch len(options) {
	case 1:
		rawMinutes = options[0]
	case 2:
		parsed, ok := domain.ParseTimeBucket(options[0])
		if !ok {
			return nil, fmt.Errorf("%w: unknown time bucket %q", domain.ErrInvalidOptions, options[0])
		}
		bucket = parsed
		rawMinutes = options[1]
	default:
		return nil, fmt.Errorf("%w: TIME takes 1 or 2 options, got %d", domain.ErrInvalidOptions, len(options))
	}

	minutes, err := strconv.Atoi(rawMinutes)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid number %q", domain.ErrInvalidOptions, rawMinutes)
	}
	if minutes <= 0 {
		return nil, fmt.Errorf("%w: minutes must be positive, got %d", domain.ErrInvalidOptions, minutes)
	}

	return &timeRequirement{
		bucket:   bucket,
		minutes:  minutes,
		playTime: playTime,
	}, nil
}

func (r *timeRequirement) Description() string {
	if r.bucket == domain.BucketTotal {
		return fmt.Sprintf("Play for at least %d minutes", r.minutes)
	}
	return fmt.Sprintf("Play for at least %d minutes (%s)", r.minutes, r.bucket)
}

func (r *timeRequirement) Progress(ctx context.Context, playerUUID string) string {
	played, err := r.playTime.PlayTime(ctx, playerUUID, r.bucket)
	if err != nil {
		played = 0
	}
	return fmt.Sprintf("%d/%d minutes", played, r.minutes)
}

func (r *timeRequirement) Met(ctx context.Context, playerUUID string) (bool, error) {
	played, err := r.playTime.PlayTime(ctx, playerUUID, r.bucket)
	if err != nil {
		return false, fmt.Errorf("failed to look up playtime: %w", err)
	}
	return played >= r.minutes, nil
}
