package navigator

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tabpilot/tabpilot/internal/bridge"
	"github.com/tabpilot/tabpilot/internal/session"
)

// fakeBrowser records actions and serves a canned tab list.
type fakeBrowser struct {
	tabs        []bridge.Tab
	nextID      int
	opened      []string
	activated   []int
	navigated   map[int]string
	tabsErr     error
	openErr     error
	activateErr error
}

func newFakeBrowser(tabs ...bridge.Tab) *fakeBrowser {
	return &fakeBrowser{
		tabs:      tabs,
		nextID:    100,
		navigated: make(map[int]string),
	}
}

func (f *fakeBrowser) Tabs(ctx context.Context) ([]bridge.Tab, error) {
	if f.tabsErr != nil {
		return nil, f.tabsErr
	}
	return f.tabs, nil
}

func (f *fakeBrowser) OpenTab(ctx context.Context, url string, active bool) (bridge.Tab, error) {
	if f.openErr != nil {
		return bridge.Tab{}, f.openErr
	}
	f.opened = append(f.opened, url)
	f.nextID++
	tab := bridge.Tab{ID: f.nextID, URL: url, Active: active}
	f.tabs = append(f.tabs, tab)
	return tab, nil
}

func (f *fakeBrowser) NavigateTab(ctx context.Context, tabID int, url string) error {
	f.navigated[tabID] = url
	return nil
}

func (f *fakeBrowser) ActivateTab(ctx context.Context, tabID int) error {
	if f.activateErr != nil {
		return f.activateErr
	}
	f.activated = append(f.activated, tabID)
	return nil
}

func newSession() *session.Context {
	return session.NewManager().Create("test", nil)
}

func TestNavigateReusesExistingTab(t *testing.T) {
	browser := newFakeBrowser(
		bridge.Tab{ID: 1, URL: "chrome://extensions"},
		bridge.Tab{ID: 2, URL: "https://github.com/golang/go"},
	)
	sess := newSession()

	result := New(browser).Navigate(context.Background(), sess, Request{
		URL:           "https://github.com/golang/go",
		NewTab:        true,
		ReuseExisting: true,
	})

	require.True(t, result.Success)
	assert.True(t, result.Reused)
	assert.Equal(t, 2, result.TabID)
	assert.Empty(t, browser.opened, "no new tab should be created")
	assert.Equal(t, []int{2}, browser.activated)

	target, ok := sess.CurrentTarget()
	require.True(t, ok)
	assert.Equal(t, 2, target)
}

func TestNavigateTrailingSlashEquivalence(t *testing.T) {
	// Open page has a trailing slash, request does not.
	browser := newFakeBrowser(bridge.Tab{ID: 5, URL: "https://example.com/"})
	result := New(browser).Navigate(context.Background(), newSession(), Request{
		URL:           "https://example.com",
		NewTab:        true,
		ReuseExisting: true,
	})
	require.True(t, result.Success)
	assert.True(t, result.Reused)
	assert.Equal(t, 5, result.TabID)

	// And the other direction.
	browser = newFakeBrowser(bridge.Tab{ID: 6, URL: "https://example.com"})
	result = New(browser).Navigate(context.Background(), newSession(), Request{
		URL:           "https://example.com/",
		NewTab:        true,
		ReuseExisting: true,
	})
	require.True(t, result.Success)
	assert.True(t, result.Reused)

	// A deeper path difference is not equivalent.
	browser = newFakeBrowser(bridge.Tab{ID: 7, URL: "https://example.com/a/"})
	result = New(browser).Navigate(context.Background(), newSession(), Request{
		URL:           "https://example.com/a/b",
		NewTab:        true,
		ReuseExisting: true,
	})
	require.True(t, result.Success)
	assert.False(t, result.Reused)
}

func TestNavigateReuseDisabledAlwaysOpens(t *testing.T) {
	browser := newFakeBrowser(bridge.Tab{ID: 2, URL: "https://github.com/golang/go"})
	sess := newSession()

	result := New(browser).Navigate(context.Background(), sess, Request{
		URL:           "https://github.com/golang/go",
		NewTab:        true,
		ReuseExisting: false,
	})

	require.True(t, result.Success)
	assert.False(t, result.Reused)
	assert.Equal(t, []string{"https://github.com/golang/go"}, browser.opened)
	assert.NotEqual(t, 2, result.TabID)
}

func TestNavigateBackgroundDoesNotMoveTarget(t *testing.T) {
	browser := newFakeBrowser()
	sess := newSession()
	sess.SetCurrentTarget(42)

	result := New(browser).Navigate(context.Background(), sess, Request{
		URL:           "https://localhost:3000",
		NewTab:        true,
		Background:    true,
		ReuseExisting: true,
	})

	require.True(t, result.Success)
	target, _ := sess.CurrentTarget()
	assert.Equal(t, 42, target, "background navigation must not move the current target")
}

func TestNavigateInPlaceWhenNewTabFalse(t *testing.T) {
	browser := newFakeBrowser(
		bridge.Tab{ID: 1, URL: "chrome://settings"},
		bridge.Tab{ID: 3, URL: "https://old.example.com"},
	)
	sess := newSession()

	result := New(browser).Navigate(context.Background(), sess, Request{
		URL:           "https://github.com/golang/go",
		NewTab:        false,
		ReuseExisting: false,
	})

	require.True(t, result.Success)
	assert.Equal(t, 3, result.TabID, "the first non-internal tab is navigated in place")
	assert.Equal(t, "https://github.com/golang/go", browser.navigated[3])
	assert.Empty(t, browser.opened)
}

func TestNavigateInPlaceOpensWhenNoPagesExist(t *testing.T) {
	browser := newFakeBrowser(bridge.Tab{ID: 1, URL: "chrome://newtab"})

	result := New(browser).Navigate(context.Background(), newSession(), Request{
		URL:    "https://github.com/golang/go",
		NewTab: false,
	})

	require.True(t, result.Success)
	assert.Equal(t, []string{"https://github.com/golang/go"}, browser.opened)
}

func TestNavigateOrdinalIDWhenBridgeReportsNone(t *testing.T) {
	browser := newFakeBrowser(
		bridge.Tab{ID: 1, URL: "https://a.example.com"},
		bridge.Tab{ID: 2, URL: "chrome://extensions"},
	)
	browser.nextID = -1 // makes OpenTab return ID 0

	result := New(browser).Navigate(context.Background(), newSession(), Request{
		URL:    "https://b.example.com",
		NewTab: true,
	})

	require.True(t, result.Success)
	assert.Equal(t, 2, result.TabID, "one past the count of non-internal pages")
}

func TestNavigateCollaboratorFailureLeavesTargetUntouched(t *testing.T) {
	browser := newFakeBrowser()
	browser.openErr = errors.New("navigation timeout")
	sess := newSession()
	sess.SetCurrentTarget(7)

	result := New(browser).Navigate(context.Background(), sess, Request{
		URL:    "https://github.com/golang/go",
		NewTab: true,
	})

	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "navigation timeout")

	target, _ := sess.CurrentTarget()
	assert.Equal(t, 7, target)
}

func TestNavigateTabsListFailure(t *testing.T) {
	browser := newFakeBrowser()
	browser.tabsErr = errors.New("bridge unreachable")

	result := New(browser).Navigate(context.Background(), newSession(), Request{
		URL:    "https://github.com/golang/go",
		NewTab: true,
	})

	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "bridge unreachable")
}

func TestIsInternalURL(t *testing.T) {
	assert.True(t, isInternalURL("chrome://extensions"))
	assert.True(t, isInternalURL("about:blank"))
	assert.True(t, isInternalURL("devtools://devtools/bundled"))
	assert.False(t, isInternalURL("https://github.com"))
	assert.False(t, isInternalURL("http://localhost:3000"))
}
