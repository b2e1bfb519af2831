package tui

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/tabpilot/tabpilot/internal/bridge"
	"github.com/tabpilot/tabpilot/internal/netlog"
	"github.com/tabpilot/tabpilot/pkg/events"
)

func newTestModel(t *testing.T) (Model, *netlog.Store) {
	t.Helper()
	bus := events.NewEventBus()
	t.Cleanup(bus.Shutdown)
	store := netlog.NewStore(10)
	return NewModel(bus, store, 7797), store
}

func TestApplyBridgeEvents(t *testing.T) {
	m, _ := newTestModel(t)

	m.apply(events.Event{Type: events.BridgeConnected, Timestamp: time.Now()})
	assert.True(t, m.bridgeUp)

	m.apply(events.Event{Type: events.BridgeDisconnected, Timestamp: time.Now()})
	assert.False(t, m.bridgeUp)
}

func TestApplyClientCountNeverNegative(t *testing.T) {
	m, _ := newTestModel(t)

	m.apply(events.Event{Type: events.MCPDisconnected, Timestamp: time.Now()})
	assert.Equal(t, 0, m.mcpClients)

	m.apply(events.Event{Type: events.MCPConnected, Timestamp: time.Now()})
	assert.Equal(t, 1, m.mcpClients)
}

func TestActivityFeedIsBounded(t *testing.T) {
	m, _ := newTestModel(t)

	for i := 0; i < maxActivity+50; i++ {
		m.apply(events.Event{Type: events.TabClosed, TabID: i, Timestamp: time.Now()})
	}
	assert.Len(t, m.activity, maxActivity)
}

func TestViewShowsNetworkSummary(t *testing.T) {
	m, store := newTestModel(t)
	store.Add(bridge.NetworkEvent{URL: "https://api.example.com", StatusCode: 500})
	store.Add(bridge.NetworkEvent{URL: "https://www.google-analytics.com/collect", StatusCode: 204})

	view := m.View()
	assert.Contains(t, view, "2 captured")
	assert.Contains(t, view, "1 failing")
	assert.Contains(t, view, "1 trackers")
}

func TestViewShowsActivity(t *testing.T) {
	m, _ := newTestModel(t)
	m.apply(events.Event{
		Type:      events.NavigationDone,
		TabID:     3,
		Timestamp: time.Now(),
		Data:      map[string]interface{}{"url": "https://github.com/golang/go"},
	})

	view := m.View()
	assert.Contains(t, view, "github.com/golang/go")
	assert.Contains(t, view, "tab 3")
}
