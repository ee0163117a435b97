package requirement

import (
	"context"
	"fmt"
	"strconv"

	"github.com/pathways-mc/pathways/internal/domain"
)

type moneyRequirement struct {
	amount float64
	hook   EconomyHook
}

// NewMoney parses options ["<amount>"].
func NewMoney(options []string, hook EconomyHook) (domain.Requirement, error) {
	if len(options) != 1 {
		return nil, fmt.Errorf("%w: MONEY takes exactly one option", domain.ErrInvalidOptions)
	}

	amount, err := strconv.ParseFloat(options[0], 64)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid number %q", domain.ErrInvalidOptions, options[0])
	}
	if amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive, got %v", domain.ErrInvalidOptions, amount)
	}

	if hook == nil || !hook.EconomyAvailable() {
		return nil, fmt.Errorf("%w: economy hook", domain.ErrDependencyUnavailable)
	}

	return &moneyRequirement{
		amount: amount,
		hook:   hook,
	}, nil
}

func (r *moneyRequirement) Description() string {
	return fmt.Sprintf("Have a balance of at least %.2f", r.amount)
}

func (r *moneyRequirement) Progress(ctx context.Context, playerUUID string) string {
	balance, err := r.hook.Balance(ctx, playerUUID)
	if err != nil {
		balance = 0
	}
	return fmt.Sprintf("%.2f/%.2f", balance, r.amount)
}

func (r *moneyRequirement) Met(ctx context.Context, playerUUID string) (bool, error) {
	balance, err := r.hook.Balance(ctx, playerUUID)
	if err != nil {
		return false, fmt.Errorf("failed to fetch balance: %w", err)
	}
	return balance >= r.amount, nil
}
