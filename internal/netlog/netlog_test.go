package netlog

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tabpilot/tabpilot/internal/bridge"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		status int
		failed bool
		want   StatusClass
	}{
		{200, false, ClassSuccess},
		{204, false, ClassSuccess},
		{301, false, ClassRedirect},
		{404, false, ClassClientError},
		{500, false, ClassServerError},
		{0, false, ClassFailed},
		{200, true, ClassFailed},
		{101, false, ClassOther},
	}

	for _, tt := range tests {
		got := Classify(bridge.NetworkEvent{StatusCode: tt.status, Failed: tt.failed})
		assert.Equal(t, tt.want, got, "status=%d failed=%v", tt.status, tt.failed)
	}
}

func TestIsTracker(t *testing.T) {
	assert.True(t, IsTracker("google-analytics.com"))
	assert.True(t, IsTracker("www.google-analytics.com"))
	assert.True(t, IsTracker("stats.doubleclick.net"))
	assert.False(t, IsTracker("github.com"))
	assert.False(t, IsTracker("notgoogle-analytics.com"))
}

func TestStoreAddAndFilter(t *testing.T) {
	store := NewStore(100)

	store.Add(bridge.NetworkEvent{TabID: 1, URL: "https://github.com/api", StatusCode: 200})
	store.Add(bridge.NetworkEvent{TabID: 1, URL: "https://www.google-analytics.com/collect", StatusCode: 204})
	store.Add(bridge.NetworkEvent{TabID: 2, URL: "https://example.com/missing", StatusCode: 404})
	store.Add(bridge.NetworkEvent{TabID: 2, URL: "https://example.com/broken", Failed: true, Error: "net::ERR_CONNECTION_REFUSED"})

	all := store.Entries(Filter{})
	require.Len(t, all, 4)

	tab1 := store.Entries(Filter{TabID: 1})
	assert.Len(t, tab1, 2)

	errors := store.Entries(Filter{Class: ClassClientError})
	require.Len(t, errors, 1)
	assert.Equal(t, "https://example.com/missing", errors[0].URL)

	trackers := store.Entries(Filter{TrackerOnly: true})
	require.Len(t, trackers, 1)
	assert.Equal(t, 204, trackers[0].StatusCode)
}

func TestStoreBoundedRing(t *testing.T) {
	store := NewStore(10)
	for i := 0; i < 25; i++ {
		store.Add(bridge.NetworkEvent{
			URL:        fmt.Sprintf("https://example.com/%d", i),
			StatusCode: 200,
		})
	}

	assert.Equal(t, 10, store.Len())
	entries := store.Entries(Filter{})
	assert.Equal(t, "https://example.com/15", entries[0].URL, "oldest surviving entry")
	assert.Equal(t, "https://example.com/24", entries[len(entries)-1].URL)
}

func TestStoreSummarize(t *testing.T) {
	store := NewStore(100)
	store.Add(bridge.NetworkEvent{TabID: 1, URL: "https://a.com", StatusCode: 200})
	store.Add(bridge.NetworkEvent{TabID: 1, URL: "https://b.com", StatusCode: 500})
	store.Add(bridge.NetworkEvent{TabID: 1, URL: "https://hotjar.com/t", StatusCode: 200})
	store.Add(bridge.NetworkEvent{TabID: 2, URL: "https://c.com", StatusCode: 200})

	summary := store.Summarize(1)
	assert.Equal(t, 3, summary.Total)
	assert.Equal(t, 2, summary.ByClass[ClassSuccess])
	assert.Equal(t, 1, summary.ByClass[ClassServerError])
	assert.Equal(t, 1, summary.Trackers)

	all := store.Summarize(0)
	assert.Equal(t, 4, all.Total)
}

func TestStoreFilterLimitKeepsNewest(t *testing.T) {
	store := NewStore(100)
	for i := 0; i < 5; i++ {
		store.Add(bridge.NetworkEvent{URL: fmt.Sprintf("https://example.com/%d", i), StatusCode: 200})
	}

	limited := store.Entries(Filter{Limit: 2})
	require.Len(t, limited, 2)
	assert.Equal(t, "https://example.com/3", limited[0].URL)
	assert.Equal(t, "https://example.com/4", limited[1].URL)
}

func TestStoreClear(t *testing.T) {
	store := NewStore(100)
	store.Add(bridge.NetworkEvent{URL: "https://a.com", StatusCode: 200})
	store.Clear()
	assert.Equal(t, 0, store.Len())
}

func TestAuditCookies(t *testing.T) {
	cookies := []bridge.Cookie{
		{Name: "_ga", Domain: ".example.com", Session: false, Secure: false, HTTPOnly: false},
		{Name: "sid", Domain: ".example.com", Session: true, Secure: true, HTTPOnly: true},
		{Name: "pref", Domain: ".mixpanel.com", Session: false, Secure: true, HTTPOnly: false},
	}

	audit := AuditCookies(cookies)
	assert.Equal(t, 3, audit.Total)
	assert.Equal(t, 2, audit.Trackers, "_ga by name, mixpanel by domain")
	assert.Equal(t, 2, audit.Persistent)
	assert.Equal(t, 1, audit.Insecure)
	assert.Equal(t, 2, audit.Scriptable)
	require.Len(t, audit.Findings, 3)

	assert.True(t, audit.Findings[0].Tracker)
	assert.False(t, audit.Findings[1].Tracker)
	assert.True(t, audit.Findings[2].Tracker)
}

func TestHostOf(t *testing.T) {
	assert.Equal(t, "github.com", hostOf("https://github.com/golang/go"))
	assert.Equal(t, "localhost", hostOf("http://localhost:3000/api?x=1"))
	assert.Equal(t, "example.com", hostOf("https://example.com"))
}
