// Package result holds the built-in result implementations fired when a
// path completes. The engine guarantees at-most-once firing per completion;
// implementations are free to have side effects.
package result

import (
	"context"
	"fmt"
	"strings"

	"github.com/pathways-mc/pathways/internal/domain"
	"github.com/pathways-mc/pathways/internal/registry"
)

type GroupChanger interface {
	PermissionsAvailable() bool
	SetGroup(ctx context.Context, playerUUID, group string) error
}

type CommandSink interface {
	DispatchCommand(ctx context.Context, command string) error
}

type MessageSink interface {
	SendMessage(ctx context.Context, playerUUID, message string) error
}

type Deps struct {
	Groups   GroupChanger
	Commands CommandSink
	Messages MessageSink
}

// RegisterBuiltins registers every built-in result type. Must run at
// startup before any path is loaded.
func RegisterBuiltins(reg *registry.Registry, deps Deps) error {
	factories := map[string]registry.ResultFactory{
		"RANK_CHANGE": func(options []string) (domain.Result, error) {
			return NewRankChange(options, deps.Groups)
		},
		"COMMAND": func(options []string) (domain.Result, error) {
			return NewCommand(options, deps.Commands)
		},
		"MESSAGE": func(options []string) (domain.Result, error) {
			return NewMessage(options, deps.Messages)
		},
	}

	for typeName, factory := range factories {
		if err := reg.RegisterResult(typeName, factory); err != nil {
			return fmt.Errorf("failed to register built-in result %s: %w", typeName, err)
		}
	}
	return nil
}

type rankChangeResult struct {
	group string
	hook  GroupChanger
}

// NewRankChange parses options ["<group>"].
func NewRankChange(options []string, hook GroupChanger) (domain.Result, error) {
	if len(options) != 1 || options[0] == "" {
		return nil, fmt.Errorf("%w: RANK_CHANGE takes exactly one non-empty option", domain.ErrInvalidOptions)
	}
	if hook == nil || !hook.PermissionsAvailable() {
		return nil, fmt.Errorf("%w: permissions hook", domain.ErrDependencyUnavailable)
	}

	return &rankChangeResult{
		group: options[0],
		hook:  hook,
	}, nil
}

func (r *rankChangeResult) Description() string {
	return fmt.Sprintf("Rank change to '%s'", r.group)
}

func (r *rankChangeResult) Execute(ctx context.Context, playerUUID string) error {
	if err := r.hook.SetGroup(ctx, playerUUID, r.group); err != nil {
		return fmt.Errorf("failed to change rank to %q: %w", r.group, err)
	}
	return nil
}

type commandResult struct {
	template string
	sink     CommandSink
}

// NewCommand parses options ["<command template>"]. The placeholder
// %player% is replaced with the player's UUID at execution time.
func NewCommand(options []string, sink CommandSink) (domain.Result, error) {
	if len(options) != 1 || options[0] == "" {
		return nil, fmt.Errorf("%w: COMMAND takes exactly one non-empty option", domain.ErrInvalidOptions)
	}
	if sink == nil {
		return nil, fmt.Errorf("%w: command sink", domain.ErrDependencyUnavailable)
	}

	return &commandResult{
		template: options[0],
		sink:     sink,
	}, nil
}

func (r *commandResult) Description() string {
	return fmt.Sprintf("Run command '%s'", r.template)
}

func (r *commandResult) Execute(ctx context.Context, playerUUID string) error {
	command := strings.ReplaceAll(r.template, "%player%", playerUUID)
	if err := r.sink.DispatchCommand(ctx, command); err != nil {
		return fmt.Errorf("failed to dispatch command %q: %w", command, err)
	}
	return nil
}

type messageResult struct {
	message string
	sink    MessageSink
}

// NewMessage parses options ["<message>"].
func NewMessage(options []string, sink MessageSink) (domain.Result, error) {
	if len(options) != 1 || options[0] == "" {
		return nil, fmt.Errorf("%w: MESSAGE takes exactly one non-empty option", domain.ErrInvalidOptions)
	}
	if sink == nil {
		return nil, fmt.Errorf("%w: message sink", domain.ErrDependencyUnavailable)
	}

	return &messageResult{
		message: options[0],
		sink:    sink,
	}, nil
}

func (r *messageResult) Description() string {
	return fmt.Sprintf("Receive message '%s'", r.message)
}

func (r *messageResult) Execute(ctx context.Context, playerUUID string) error {
	if err := r.sink.SendMessage(ctx, playerUUID, r.message); err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	return nil
}
