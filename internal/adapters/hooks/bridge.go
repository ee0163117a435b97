// Package hooks talks to the companion bridge plugin running inside the
// game server. The bridge exposes a small REST API over the server's
// permission, economy and skyblock plugins; each capability is advertised
// at startup and may be missing when the corresponding plugin is not
// installed. Requirements built on a missing capability degrade to
// always-unsatisfied rather than failing the load.
package hooks

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"

	"github.com/pathways-mc/pathways/internal/reporting"
)

const (
	CapabilityPermissions = "permissions"
	CapabilityEconomy     = "economy"
	CapabilitySkyblock    = "skyblock"
	CapabilityStatistics  = "statistics"
	CapabilityWorlds      = "worlds"
)

type HttpClient interface {
	Do(req *http.Request) (*http.Response, error)
}

type HTTPBridge struct {
	httpClient HttpClient
	baseURL    string
	token      string

	mu           sync.RWMutex
	capabilities map[string]bool
}

func NewHTTPBridge(httpClient HttpClient, baseURL, token string) *HTTPBridge {
	return &HTTPBridge{
		httpClient:   httpClient,
		baseURL:      baseURL,
		token:        token,
		capabilities: make(map[string]bool),
	}
}

// Refresh fetches the bridge's advertised capability set. Called once at
// startup; requirements resolve their hooks against the result.
func (b *HTTPBridge) Refresh(ctx context.Context) error {
	var response struct {
		Capabilities []string `json:"capabilities"`
	}
	if err := b.get(ctx, "/v1/capabilities", &response); err != nil {
		return fmt.Errorf("failed to fetch bridge capabilities: %w", err)
	}

	capabilities := make(map[string]bool, len(response.Capabilities))
	for _, capability := range response.Capabilities {
		capabilities[capability] = true
	}

	b.mu.Lock()
	b.capabilities = capabilities
	b.mu.Unlock()

	return nil
}

func (b *HTTPBridge) Supports(capability string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.capabilities[capability]
}

func (b *HTTPBridge) get(ctx context.Context, path string, out any) error {
	return b.do(ctx, http.MethodGet, path, nil, out)
}

func (b *HTTPBridge) post(ctx context.Context, path string, body any, out any) error {
	return b.do(ctx, http.MethodPost, path, body, out)
}

func (b *HTTPBridge) do(ctx context.Context, method, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, b.baseURL+path, reader)
	if err != nil {
		err := fmt.Errorf("failed to create request: %w", err)
		reporting.Report(ctx, err)
		return err
	}
	req.Header.Set("Authorization", "Bearer "+b.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := b.httpClient.Do(req)
	if err != nil {
		err := fmt.Errorf("failed to send request: %w", err)
		reporting.Report(ctx, err)
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		err := fmt.Errorf("failed to read response body: %w", err)
		reporting.Report(ctx, err)
		return err
	}

	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("bridge returned status %d for %s %s", resp.StatusCode, method, path)
		reporting.Report(ctx, err, map[string]string{
			"data": string(data),
		})
		return err
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		err := fmt.Errorf("failed to unmarshal bridge response: %w", err)
		reporting.Report(ctx, err, map[string]string{
			"data": string(data),
		})
		return err
	}
	return nil
}
