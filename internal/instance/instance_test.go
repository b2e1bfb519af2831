package instance

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterAndList(t *testing.T) {
	reg, err := NewRegistry(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, reg.Register(Instance{
		ID:        "abc123",
		PID:       4242,
		MCPPort:   7797,
		BridgeURL: "http://127.0.0.1:8765",
		StartedAt: time.Now(),
	}))

	instances, err := reg.List()
	require.NoError(t, err)
	require.Len(t, instances, 1)
	assert.Equal(t, "abc123", instances[0].ID)
	assert.Equal(t, 7797, instances[0].MCPPort)
	assert.False(t, instances[0].LastPing.IsZero())
}

func TestRegisterRequiresID(t *testing.T) {
	reg, err := NewRegistry(t.TempDir())
	require.NoError(t, err)
	assert.Error(t, reg.Register(Instance{PID: 1}))
}

func TestUnregister(t *testing.T) {
	reg, err := NewRegistry(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, reg.Register(Instance{ID: "gone", PID: 1}))
	require.NoError(t, reg.Unregister("gone"))

	instances, err := reg.List()
	require.NoError(t, err)
	assert.Empty(t, instances)

	assert.NoError(t, reg.Unregister("gone"), "repeat unregister is not an error")
}

func TestPingRefreshesTimestamp(t *testing.T) {
	reg, err := NewRegistry(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, reg.Register(Instance{ID: "live", PID: 1}))
	before, err := reg.List()
	require.NoError(t, err)

	time.Sleep(10 * time.Millisecond)
	require.NoError(t, reg.Ping("live"))

	after, err := reg.List()
	require.NoError(t, err)
	assert.True(t, after[0].LastPing.After(before[0].LastPing))
}

func TestCleanupStale(t *testing.T) {
	reg, err := NewRegistry(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, reg.Register(Instance{ID: "fresh", PID: 1}))
	require.NoError(t, reg.Register(Instance{ID: "stale", PID: 2}))

	time.Sleep(20 * time.Millisecond)
	require.NoError(t, reg.Ping("fresh"))

	removed, err := reg.CleanupStale(15 * time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	instances, err := reg.List()
	require.NoError(t, err)
	require.Len(t, instances, 1)
	assert.Equal(t, "fresh", instances[0].ID)
}
