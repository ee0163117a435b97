package requirement

import (
	"context"
	"fmt"
	"strconv"

	"github.com/pathways-mc/pathways/internal/domain"
)

type statisticRequirement struct {
	statistic string
	target    int64
	hook      StatisticHook
}

// NewStatistic parses options ["<statistic name>", "<target>"], e.g.
// ["blocks_mined", "1000"].
func NewStatistic(options []string, hook StatisticHook) (domain.Requirement, error) {
	if len(options) != 2 || options[0] == "" {
		return nil, fmt.Errorf("%w: STATISTIC takes a statistic name and a target", domain.ErrInvalidOptions)
	}

	target, err := strconv.ParseInt(options[1], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid number %q", domain.ErrInvalidOptions, options[1])
	}
	if target <= 0 {
		return nil, fmt.Errorf("%w: target must be positive, got %d", domain.ErrInvalidOptions, target)
	}

	if hook == nil || !hook.StatisticsAvailable() {
		return nil, fmt.Errorf("%w: statistics hook", domain.ErrDependencyUnavailable)
	}

	return &statisticRequirement{
		statistic: options[0],
		target:    target,
		hook:      hook,
	}, nil
}

func (r *statisticRequirement) Description() string {
	return fmt.Sprintf("Reach %d %s", r.target, r.statistic)
}

func (r *statisticRequirement) Progress(ctx context.Context, playerUUID string) string {
	value, err := r.hook.Statistic(ctx, playerUUID, r.statistic)
	if err != nil {
		value = 0
	}
	return fmt.Sprintf("%d/%d", value, r.target)
}

func (r *statisticRequirement) Met(ctx context.Context, playerUUID string) (bool, error) {
	value, err := r.hook.Statistic(ctx, playerUUID, r.statistic)
	if err != nil {
		return false, fmt.Errorf("failed to fetch statistic: %w", err)
	}
	return value >= r.target, nil
}
