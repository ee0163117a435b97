package hooks

import (
	"context"
	"net/http"
	"sync"
)

// MockBridge is an in-memory bridge for development runs and tests. All
// capabilities it has data for are advertised; everything else reports
// unavailable.
type MockBridge struct {
	mu sync.RWMutex

	Permissions map[string]map[string]bool // playerUUID -> node -> granted
	Groups      map[string]string
	Balances    map[string]float64
	Islands     map[string]int
	Statistics  map[string]map[string]int64
	Worlds      map[string]string
	Online      []string

	DispatchedCommands []string
	SentMessages       map[string][]string
}

func NewMockBridge() *MockBridge {
	return &MockBridge{
		Permissions:  map[string]map[string]bool{},
		Groups:       map[string]string{},
		Balances:     map[string]float64{},
		Islands:      map[string]int{},
		Statistics:   map[string]map[string]int64{},
		Worlds:       map[string]string{},
		SentMessages: map[string][]string{},
	}
}

// Refresh is a no-op; the mock's capabilities are always advertised.
func (b *MockBridge) Refresh(ctx context.Context) error { return nil }

func (b *MockBridge) PermissionsAvailable() bool { return true }
func (b *MockBridge) EconomyAvailable() bool     { return true }
func (b *MockBridge) SkyblockAvailable() bool    { return true }
func (b *MockBridge) StatisticsAvailable() bool  { return true }
func (b *MockBridge) WorldsAvailable() bool      { return true }

func (b *MockBridge) HasPermission(ctx context.Context, playerUUID, node string) (bool, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.Permissions[playerUUID][node], nil
}

func (b *MockBridge) SetGroup(ctx context.Context, playerUUID, group string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Groups[playerUUID] = group
	return nil
}

func (b *MockBridge) Balance(ctx context.Context, playerUUID string) (float64, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.Balances[playerUUID], nil
}

func (b *MockBridge) IslandLevel(ctx context.Context, playerUUID string) (int, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.Islands[playerUUID], nil
}

func (b *MockBridge) Statistic(ctx context.Context, playerUUID, statistic string) (int64, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.Statistics[playerUUID][statistic], nil
}

func (b *MockBridge) CurrentWorld(ctx context.Context, playerUUID string) (string, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.Worlds[playerUUID], nil
}

func (b *MockBridge) OnlinePlayers(ctx context.Context) ([]string, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]string{}, b.Online...), nil
}

func (b *MockBridge) DispatchCommand(ctx context.Context, command string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.DispatchedCommands = append(b.DispatchedCommands, command)
	return nil
}

func (b *MockBridge) SendMessage(ctx context.Context, playerUUID, message string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.SentMessages[playerUUID] = append(b.SentMessages[playerUUID], message)
	return nil
}

// Bridge is the full surface main wires into the requirement/result deps.
// HTTPBridge and MockBridge both implement it.
type Bridge interface {
	// Refresh loads the advertised capability set. Must be called once at
	// startup, before requirement and result types resolve their hooks;
	// until then every capability reports unavailable.
	Refresh(ctx context.Context) error

	PermissionsAvailable() bool
	EconomyAvailable() bool
	SkyblockAvailable() bool
	StatisticsAvailable() bool
	WorldsAvailable() bool

	HasPermission(ctx context.Context, playerUUID, node string) (bool, error)
	SetGroup(ctx context.Context, playerUUID, group string) error
	Balance(ctx context.Context, playerUUID string) (float64, error)
	IslandLevel(ctx context.Context, playerUUID string) (int, error)
	Statistic(ctx context.Context, playerUUID, statistic string) (int64, error)
	CurrentWorld(ctx context.Context, playerUUID string) (string, error)
	OnlinePlayers(ctx context.Context) ([]string, error)
	DispatchCommand(ctx context.Context, command string) error
	SendMessage(ctx context.Context, playerUUID, message string) error
}

// NewBridgeOrMock returns the HTTP bridge when a URL is configured and the
// in-memory mock otherwise.
func NewBridgeOrMock(httpClient HttpClient, baseURL, token string) Bridge {
	if baseURL == "" {
		return NewMockBridge()
	}
	return NewHTTPBridge(httpClient, baseURL, token)
}

var _ Bridge = &HTTPBridge{}
var _ Bridge = &MockBridge{}
var _ HttpClient = &http.Client{}
