package bridge

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientTabs(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/tabs", r.URL.Path)
		assert.Equal(t, http.MethodGet, r.Method)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"tabs": []Tab{
				{ID: 1, URL: "https://github.com/golang/go", Title: "golang/go", Active: true},
				{ID: 2, URL: "chrome://extensions", Title: "Extensions"},
			},
		})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	tabs, err := client.Tabs(context.Background())
	require.NoError(t, err)
	require.Len(t, tabs, 2)
	assert.Equal(t, "https://github.com/golang/go", tabs[0].URL)
	assert.True(t, tabs[0].Active)
}

func TestClientOpenTab(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/tabs/open", r.URL.Path)
		require.Equal(t, http.MethodPost, r.Method)

		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "https://localhost:3000", body["url"])
		assert.Equal(t, true, body["active"])

		json.NewEncoder(w).Encode(Tab{ID: 7, URL: "https://localhost:3000", Active: true})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	tab, err := client.OpenTab(context.Background(), "https://localhost:3000", true)
	require.NoError(t, err)
	assert.Equal(t, 7, tab.ID)
}

func TestClientErrorEnvelope(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"error": "no such tab: 99"})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	err := client.ActivateTab(context.Background(), 99)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no such tab: 99")
}

func TestClientUnreachableBridge(t *testing.T) {
	client := NewClient("http://127.0.0.1:1") // nothing listens here
	_, err := client.Tabs(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bridge unreachable")
}

func TestClientNavigationSettings(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/settings/navigation", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"allowAllUrls":  false,
			"customDomains": "mysite.dev\n*.example.com",
		})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	settings, err := client.NavigationSettings(context.Background())
	require.NoError(t, err)
	assert.False(t, settings.AllowAllURLs)
	assert.Equal(t, "mysite.dev\n*.example.com", settings.CustomDomains)
}

func TestClientCookiesDomainFilter(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/cookies", r.URL.Path)
		assert.Equal(t, "example.com", r.URL.Query().Get("domain"))
		json.NewEncoder(w).Encode(map[string]interface{}{
			"cookies": []Cookie{{Name: "sid", Domain: ".example.com", Session: true}},
		})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	cookies, err := client.Cookies(context.Background(), "example.com")
	require.NoError(t, err)
	require.Len(t, cookies, 1)
	assert.Equal(t, "sid", cookies[0].Name)
}

func TestWebsocketURL(t *testing.T) {
	assert.Equal(t, "ws://127.0.0.1:8765/events", websocketURL("http://127.0.0.1:8765"))
	assert.Equal(t, "wss://bridge.local/events", websocketURL("https://bridge.local"))
}
