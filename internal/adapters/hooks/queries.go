package hooks

import (
	"context"
	"fmt"
	"net/url"
)

// The query methods below back the hook interfaces the requirement and
// result packages declare on their side. Callers check the relevant
// Available method before wiring a requirement to the bridge.

func (b *HTTPBridge) PermissionsAvailable() bool { return b.Supports(CapabilityPermissions) }
func (b *HTTPBridge) EconomyAvailable() bool     { return b.Supports(CapabilityEconomy) }
func (b *HTTPBridge) SkyblockAvailable() bool    { return b.Supports(CapabilitySkyblock) }
func (b *HTTPBridge) StatisticsAvailable() bool  { return b.Supports(CapabilityStatistics) }
func (b *HTTPBridge) WorldsAvailable() bool      { return b.Supports(CapabilityWorlds) }

func (b *HTTPBridge) HasPermission(ctx context.Context, playerUUID, node string) (bool, error) {
	var response struct {
		Granted bool `json:"granted"`
	}
	path := fmt.Sprintf("/v1/players/%s/permissions/%s", url.PathEscape(playerUUID), url.PathEscape(node))
	if err := b.get(ctx, path, &response); err != nil {
		return false, fmt.Errorf("failed to check permission: %w", err)
	}
	return response.Granted, nil
}

func (b *HTTPBridge) SetGroup(ctx context.Context, playerUUID, group string) error {
	body := struct {
		Group string `json:"group"`
	}{Group: group}
	path := fmt.Sprintf("/v1/players/%s/group", url.PathEscape(playerUUID))
	if err := b.post(ctx, path, body, nil); err != nil {
		return fmt.Errorf("failed to set group: %w", err)
	}
	return nil
}

func (b *HTTPBridge) Balance(ctx context.Context, playerUUID string) (float64, error) {
	var response struct {
		Balance float64 `json:"balance"`
	}
	path := fmt.Sprintf("/v1/players/%s/balance", url.PathEscape(playerUUID))
	if err := b.get(ctx, path, &response); err != nil {
		return 0, fmt.Errorf("failed to fetch balance: %w", err)
	}
	return response.Balance, nil
}

func (b *HTTPBridge) IslandLevel(ctx context.Context, playerUUID string) (int, error) {
	var response struct {
		Level int `json:"level"`
	}
	path := fmt.Sprintf("/v1/players/%s/island-level", url.PathEscape(playerUUID))
	if err := b.get(ctx, path, &response); err != nil {
		return 0, fmt.Errorf("failed to fetch island level: %w", err)
	}
	return response.Level, nil
}

func (b *HTTPBridge) Statistic(ctx context.Context, playerUUID, statistic string) (int64, error) {
	var response struct {
		Value int64 `json:"value"`
	}
	path := fmt.Sprintf("/v1/players/%s/statistics/%s", url.PathEscape(playerUUID), url.PathEscape(statistic))
	if err := b.get(ctx, path, &response); err != nil {
		return 0, fmt.Errorf("failed to fetch statistic: %w", err)
	}
	return response.Value, nil
}

func (b *HTTPBridge) CurrentWorld(ctx context.Context, playerUUID string) (string, error) {
	var response struct {
		World string `json:"world"`
	}
	path := fmt.Sprintf("/v1/players/%s/world", url.PathEscape(playerUUID))
	if err := b.get(ctx, path, &response); err != nil {
		return "", fmt.Errorf("failed to fetch current world: %w", err)
	}
	return response.World, nil
}

func (b *HTTPBridge) OnlinePlayers(ctx context.Context) ([]string, error) {
	var response struct {
		Players []string `json:"players"`
	}
	if err := b.get(ctx, "/v1/players/online", &response); err != nil {
		return nil, fmt.Errorf("failed to fetch online players: %w", err)
	}
	return response.Players, nil
}

func (b *HTTPBridge) DispatchCommand(ctx context.Context, command string) error {
	body := struct {
		Command string `json:"command"`
	}{Command: command}
	if err := b.post(ctx, "/v1/commands", body, nil); err != nil {
		return fmt.Errorf("failed to dispatch command: %w", err)
	}
	return nil
}

func (b *HTTPBridge) SendMessage(ctx context.Context, playerUUID, message string) error {
	body := struct {
		Message string `json:"message"`
	}{Message: message}
	path := fmt.Sprintf("/v1/players/%s/messages", url.PathEscape(playerUUID))
	if err := b.post(ctx, path, body, nil); err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	return nil
}
