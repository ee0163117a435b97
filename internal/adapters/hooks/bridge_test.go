package hooks

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHTTPBridge(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	newBridge := func(t *testing.T, handler http.HandlerFunc) *HTTPBridge {
		t.Helper()
		server := httptest.NewServer(handler)
		t.Cleanup(server.Close)
		return NewHTTPBridge(server.Client(), server.URL, "test-token")
	}

	t.Run("capabilities are hidden until refreshed", func(t *testing.T) {
		t.Parallel()
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(map[string]any{
				"capabilities": []string{
					CapabilityPermissions,
					CapabilityEconomy,
					CapabilitySkyblock,
					CapabilityStatistics,
					CapabilityWorlds,
				},
			})
		}))
		t.Cleanup(server.Close)

		bridge := NewBridgeOrMock(server.Client(), server.URL, "test-token")

		require.False(t, bridge.PermissionsAvailable())
		require.False(t, bridge.EconomyAvailable())
		require.False(t, bridge.SkyblockAvailable())
		require.False(t, bridge.StatisticsAvailable())
		require.False(t, bridge.WorldsAvailable())

		require.NoError(t, bridge.Refresh(ctx))

		require.True(t, bridge.PermissionsAvailable())
		require.True(t, bridge.EconomyAvailable())
		require.True(t, bridge.SkyblockAvailable())
		require.True(t, bridge.StatisticsAvailable())
		require.True(t, bridge.WorldsAvailable())
	})

	t.Run("mock refresh is a no-op", func(t *testing.T) {
		t.Parallel()
		bridge := NewBridgeOrMock(nil, "", "")
		require.NoError(t, bridge.Refresh(ctx))
		require.True(t, bridge.PermissionsAvailable())
	})

	t.Run("refresh populates capabilities", func(t *testing.T) {
		t.Parallel()
		bridge := newBridge(t, func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, "/v1/capabilities", r.URL.Path)
			require.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
			json.NewEncoder(w).Encode(map[string]any{
				"capabilities": []string{CapabilityPermissions, CapabilityWorlds},
			})
		})

		require.NoError(t, bridge.Refresh(ctx))
		require.True(t, bridge.PermissionsAvailable())
		require.True(t, bridge.WorldsAvailable())
		require.False(t, bridge.EconomyAvailable())
		require.False(t, bridge.SkyblockAvailable())
	})

	t.Run("permission query", func(t *testing.T) {
		t.Parallel()
		bridge := newBridge(t, func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, "/v1/players/some-uuid/permissions/pathways.vip", r.URL.Path)
			json.NewEncoder(w).Encode(map[string]any{"granted": true})
		})

		granted, err := bridge.HasPermission(ctx, "some-uuid", "pathways.vip")
		require.NoError(t, err)
		require.True(t, granted)
	})

	t.Run("set group posts JSON body", func(t *testing.T) {
		t.Parallel()
		bridge := newBridge(t, func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, http.MethodPost, r.Method)
			require.Equal(t, "/v1/players/some-uuid/group", r.URL.Path)

			var body struct {
				Group string `json:"group"`
			}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			require.Equal(t, "vip", body.Group)
			w.WriteHeader(http.StatusOK)
		})

		require.NoError(t, bridge.SetGroup(ctx, "some-uuid", "vip"))
	})

	t.Run("non-200 is an error", func(t *testing.T) {
		t.Parallel()
		bridge := newBridge(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		})

		_, err := bridge.Balance(ctx, "some-uuid")
		require.Error(t, err)
	})

	t.Run("online players", func(t *testing.T) {
		t.Parallel()
		bridge := newBridge(t, func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, "/v1/players/online", r.URL.Path)
			json.NewEncoder(w).Encode(map[string]any{"players": []string{"a", "b"}})
		})

		players, err := bridge.OnlinePlayers(ctx)
		require.NoError(t, err)
		require.Equal(t, []string{"a", "b"}, players)
	})
}
