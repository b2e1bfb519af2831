// Package navigator opens or reuses browser tabs for allow-listed URLs.
// It never mutates browser state itself: all tab operations go through
// the Browser collaborator, one call per invocation, no retries.
package navigator

import (
	"context"
	"strings"

	"github.com/tabpilot/tabpilot/internal/bridge"
	"github.com/tabpilot/tabpilot/internal/session"
)

// Browser is the subset of the bridge the executor needs.
type Browser interface {
	Tabs(ctx context.Context) ([]bridge.Tab, error)
	OpenTab(ctx context.Context, url string, active bool) (bridge.Tab, error)
	NavigateTab(ctx context.Context, tabID int, url string) error
	ActivateTab(ctx context.Context, tabID int) error
}

// Request is a validated navigation request. URL must already be
// normalized by the gatekeeper.
type Request struct {
	URL           string
	NewTab        bool
	Background    bool
	ReuseExisting bool
}

// Result reports the outcome of one navigation.
type Result struct {
	Success bool   `json:"success"`
	URL     string `json:"url,omitempty"`
	TabID   int    `json:"tabId,omitempty"`
	Reused  bool   `json:"reused,omitempty"`
	Error   string `json:"error,omitempty"`
}

// internalSchemes are pages the reuse scan and in-place navigation skip.
var internalSchemes = []string{
	"chrome://",
	"chrome-extension://",
	"devtools://",
	"edge://",
	"about:",
	"view-source:",
}

// Executor performs navigations against a Browser collaborator.
type Executor struct {
	browser Browser
}

// New creates an executor.
func New(browser Browser) *Executor {
	return &Executor{browser: browser}
}

// Navigate opens or reuses a tab for req.URL and, on success, updates
// the session's current target unless the request was for a background
// tab. A failed navigation never moves the target pointer.
func (e *Executor) Navigate(ctx context.Context, sess *session.Context, req Request) Result {
	tabs, err := e.browser.Tabs(ctx)
	if err != nil {
		return Result{Error: err.Error()}
	}

	pages := filterInternal(tabs)

	if req.ReuseExisting {
		for _, tab := range pages {
			if urlsEquivalent(tab.URL, req.URL) {
				// The tab already exists, so Background does not apply:
				// bring it to front and report reuse.
				if err := e.browser.ActivateTab(ctx, tab.ID); err != nil {
					return Result{Error: err.Error()}
				}
				if !req.Background {
					sess.SetCurrentTarget(tab.ID)
				}
				return Result{Success: true, URL: req.URL, TabID: tab.ID, Reused: true}
			}
		}
	}

	if req.NewTab || len(pages) == 0 {
		tab, err := e.browser.OpenTab(ctx, req.URL, !req.Background)
		if err != nil {
			return Result{Error: err.Error()}
		}
		tabID := tab.ID
		if tabID == 0 {
			// Collaborators that don't report an identifier get the
			// ordinal one: one past the count of non-internal pages.
			tabID = len(pages) + 1
		}
		if !req.Background {
			sess.SetCurrentTarget(tabID)
		}
		return Result{Success: true, URL: req.URL, TabID: tabID}
	}

	// Navigate the first non-internal page in place.
	target := pages[0]
	if err := e.browser.NavigateTab(ctx, target.ID, req.URL); err != nil {
		return Result{Error: err.Error()}
	}
	if !req.Background {
		if err := e.browser.ActivateTab(ctx, target.ID); err != nil {
			return Result{Error: err.Error()}
		}
		sess.SetCurrentTarget(target.ID)
	}
	return Result{Success: true, URL: req.URL, TabID: target.ID}
}

func filterInternal(tabs []bridge.Tab) []bridge.Tab {
	pages := make([]bridge.Tab, 0, len(tabs))
	for _, tab := range tabs {
		if !isInternalURL(tab.URL) {
			pages = append(pages, tab)
		}
	}
	return pages
}

func isInternalURL(rawURL string) bool {
	lower := strings.ToLower(rawURL)
	for _, scheme := range internalSchemes {
		if strings.HasPrefix(lower, scheme) {
			return true
		}
	}
	return false
}

// urlsEquivalent reports whether two URLs match exactly or differ by a
// single trailing slash in either direction. Deliberately no deeper
// path normalization.
func urlsEquivalent(a, b string) bool {
	if a == b {
		return true
	}
	return a == b+"/" || a+"/" == b
}
