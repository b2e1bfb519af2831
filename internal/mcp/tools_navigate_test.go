package mcp

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tabpilot/tabpilot/internal/bridge"
	"github.com/tabpilot/tabpilot/internal/netlog"
)

func TestNavigateAllowedURL(t *testing.T) {
	s := newTestMCPServer(t)

	response := callTool(t, s, "navigate", `{"url": "https://github.com/golang/go"}`)
	text := resultText(t, response)

	assert.Contains(t, text, "https://github.com/golang/go")
	assert.Contains(t, text, "tab 7")
}

func TestNavigateBlockedURL(t *testing.T) {
	s := newTestMCPServer(t)

	response := callTool(t, s, "navigate", `{"url": "https://evil.example.net/login"}`)
	text := resultText(t, response)

	assert.Contains(t, text, "blocked")
	assert.Contains(t, text, "code hosting", "rejection lists the allowed categories")
}

func TestNavigateBlockedJSONFormat(t *testing.T) {
	s := newTestMCPServer(t)

	response := callTool(t, s, "navigate", `{"url": "https://evil.example.net", "response_format": "json"}`)
	text := resultText(t, response)

	var payload struct {
		Allowed           bool     `json:"allowed"`
		URL               string   `json:"url"`
		AllowedCategories []string `json:"allowedCategories"`
	}
	require.NoError(t, json.Unmarshal([]byte(text), &payload))
	assert.False(t, payload.Allowed)
	assert.NotEmpty(t, payload.AllowedCategories)
}

func TestNavigateSchemelessKnownDomain(t *testing.T) {
	s := newTestMCPServer(t)

	response := callTool(t, s, "navigate", `{"url": "github.com/golang/go", "response_format": "json"}`)
	text := resultText(t, response)

	var payload struct {
		Allowed bool `json:"allowed"`
		Result  struct {
			URL string `json:"url"`
		} `json:"result"`
	}
	require.NoError(t, json.Unmarshal([]byte(text), &payload))
	assert.True(t, payload.Allowed)
	assert.Equal(t, "https://github.com/golang/go", payload.Result.URL, "scheme-less input gains https://")
}

func TestNavigateLocalCustomDomainFromConfig(t *testing.T) {
	s := newTestMCPServer(t)
	s.deps.Config().Navigation.CustomDomains = []string{"myapp.example"}

	response := callTool(t, s, "navigate", `{"url": "https://myapp.example/dashboard"}`)
	text := resultText(t, response)
	assert.Contains(t, text, "custom")
}

func TestNavigateMissingURL(t *testing.T) {
	s := newTestMCPServer(t)

	response := callTool(t, s, "navigate", `{}`)
	require.NotNil(t, response.Error)
	assert.Equal(t, -32000, response.Error.Code)
}

func TestNetworkRequestsTool(t *testing.T) {
	s := newTestMCPServer(t)
	s.deps.Netlog.Add(bridge.NetworkEvent{Method: "GET", URL: "https://api.example.com/v1", StatusCode: 500})
	s.deps.Netlog.Add(bridge.NetworkEvent{Method: "GET", URL: "https://www.google-analytics.com/collect", StatusCode: 204})

	response := callTool(t, s, "network_requests", `{"class": "5xx"}`)
	text := resultText(t, response)
	assert.Contains(t, text, "api.example.com")
	assert.NotContains(t, text, "google-analytics")

	response = callTool(t, s, "network_requests", `{"trackers_only": true}`)
	text = resultText(t, response)
	assert.Contains(t, text, "google-analytics")
	assert.Contains(t, text, "tracker")
}

func TestNetworkClearTool(t *testing.T) {
	s := newTestMCPServer(t)
	s.deps.Netlog.Add(bridge.NetworkEvent{Method: "GET", URL: "https://a.example", StatusCode: 200})
	require.Equal(t, 1, s.deps.Netlog.Len())

	response := callTool(t, s, "network_clear", `{}`)
	resultText(t, response)
	assert.Equal(t, 0, s.deps.Netlog.Len())
}

func TestNetworkSummaryTool(t *testing.T) {
	s := newTestMCPServer(t)
	s.deps.Netlog.Add(bridge.NetworkEvent{URL: "https://a.example", StatusCode: 200})
	s.deps.Netlog.Add(bridge.NetworkEvent{URL: "https://b.example", StatusCode: 404})

	response := callTool(t, s, "network_requests", `{"summary": true, "response_format": "json"}`)
	text := resultText(t, response)

	var summary netlog.Summary
	require.NoError(t, json.Unmarshal([]byte(text), &summary))
	assert.Equal(t, 2, summary.Total)
	assert.Equal(t, 1, summary.ByClass[netlog.ClassSuccess])
	assert.Equal(t, 1, summary.ByClass[netlog.ClassClientError])
}
