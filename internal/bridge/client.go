// Package bridge talks to the local backend that drives the Chrome
// extension. Every operation is one HTTP call; the bridge owns all
// browser state and serializes its own mutations.
package bridge

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tabpilot/tabpilot/internal/gatekeeper"
)

// DefaultBaseURL is where the extension bridge listens by default.
const DefaultBaseURL = "http://127.0.0.1:8765"

// Client is a thin REST client for the extension bridge.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a bridge client. An empty baseURL selects the default.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		http: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// BaseURL returns the configured bridge address.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// apiError is the bridge's error envelope.
type apiError struct {
	Error string `json:"error"`
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("bridge unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr apiError
		if err := json.NewDecoder(resp.Body).Decode(&apiErr); err == nil && apiErr.Error != "" {
			return fmt.Errorf("bridge: %s", apiErr.Error)
		}
		return fmt.Errorf("bridge: unexpected status %d for %s %s", resp.StatusCode, method, path)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

// Ping checks that the bridge is reachable.
func (c *Client) Ping(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/health", nil, nil)
}

// Tabs lists all open tabs.
func (c *Client) Tabs(ctx context.Context) ([]Tab, error) {
	var result struct {
		Tabs []Tab `json:"tabs"`
	}
	if err := c.do(ctx, http.MethodGet, "/tabs", nil, &result); err != nil {
		return nil, err
	}
	return result.Tabs, nil
}

// OpenTab opens a new tab at the given URL. active controls whether the
// tab is brought to the front on creation.
func (c *Client) OpenTab(ctx context.Context, rawURL string, active bool) (Tab, error) {
	var tab Tab
	err := c.do(ctx, http.MethodPost, "/tabs/open", map[string]interface{}{
		"url":    rawURL,
		"active": active,
	}, &tab)
	return tab, err
}

// NavigateTab navigates an existing tab in place.
func (c *Client) NavigateTab(ctx context.Context, tabID int, rawURL string) error {
	return c.do(ctx, http.MethodPost, "/tabs/navigate", map[string]interface{}{
		"tabId": tabID,
		"url":   rawURL,
	}, nil)
}

// ActivateTab brings a tab (and its window) to the front.
func (c *Client) ActivateTab(ctx context.Context, tabID int) error {
	return c.do(ctx, http.MethodPost, "/tabs/activate", map[string]interface{}{
		"tabId": tabID,
	}, nil)
}

// CloseTab closes a tab.
func (c *Client) CloseTab(ctx context.Context, tabID int) error {
	return c.do(ctx, http.MethodPost, "/tabs/close", map[string]interface{}{
		"tabId": tabID,
	}, nil)
}

// CaptureScreenshot captures the visible area of a tab. tabID 0 targets
// the active tab.
func (c *Client) CaptureScreenshot(ctx context.Context, tabID int, format string, quality int, fullPage bool) (Screenshot, error) {
	var shot Screenshot
	err := c.do(ctx, http.MethodPost, "/screenshot", map[string]interface{}{
		"tabId":    tabID,
		"format":   format,
		"quality":  quality,
		"fullPage": fullPage,
	}, &shot)
	return shot, err
}

// Cookies lists cookies, optionally filtered by domain.
func (c *Client) Cookies(ctx context.Context, domain string) ([]Cookie, error) {
	path := "/cookies"
	if domain != "" {
		path += "?domain=" + url.QueryEscape(domain)
	}
	var result struct {
		Cookies []Cookie `json:"cookies"`
	}
	if err := c.do(ctx, http.MethodGet, path, nil, &result); err != nil {
		return nil, err
	}
	return result.Cookies, nil
}

// DeleteCookie removes a cookie by name for the given URL.
func (c *Client) DeleteCookie(ctx context.Context, name, rawURL string) error {
	return c.do(ctx, http.MethodPost, "/cookies/delete", map[string]interface{}{
		"name": name,
		"url":  rawURL,
	}, nil)
}

// Bookmarks returns the flattened bookmark tree.
func (c *Client) Bookmarks(ctx context.Context) ([]Bookmark, error) {
	var result struct {
		Bookmarks []Bookmark `json:"bookmarks"`
	}
	if err := c.do(ctx, http.MethodGet, "/bookmarks", nil, &result); err != nil {
		return nil, err
	}
	return result.Bookmarks, nil
}

// SearchBookmarks searches bookmarks by title and URL substring.
func (c *Client) SearchBookmarks(ctx context.Context, query string) ([]Bookmark, error) {
	var result struct {
		Bookmarks []Bookmark `json:"bookmarks"`
	}
	path := "/bookmarks/search?q=" + url.QueryEscape(query)
	if err := c.do(ctx, http.MethodGet, path, nil, &result); err != nil {
		return nil, err
	}
	return result.Bookmarks, nil
}

// AddBookmark creates a bookmark and returns it.
func (c *Client) AddBookmark(ctx context.Context, title, rawURL, parentID string) (Bookmark, error) {
	var bm Bookmark
	err := c.do(ctx, http.MethodPost, "/bookmarks", map[string]interface{}{
		"title":    title,
		"url":      rawURL,
		"parentId": parentID,
	}, &bm)
	return bm, err
}

// RemoveBookmark deletes a bookmark by ID.
func (c *Client) RemoveBookmark(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodPost, "/bookmarks/remove", map[string]interface{}{
		"id": id,
	}, nil)
}

// Downloads lists entries on the download shelf.
func (c *Client) Downloads(ctx context.Context) ([]Download, error) {
	var result struct {
		Downloads []Download `json:"downloads"`
	}
	if err := c.do(ctx, http.MethodGet, "/downloads", nil, &result); err != nil {
		return nil, err
	}
	return result.Downloads, nil
}

// CancelDownload cancels an in-progress download.
func (c *Client) CancelDownload(ctx context.Context, id int) error {
	return c.do(ctx, http.MethodPost, "/downloads/cancel", map[string]interface{}{
		"id": id,
	}, nil)
}

// Notify shows a desktop notification and returns its ID.
func (c *Client) Notify(ctx context.Context, title, message string) (string, error) {
	var result struct {
		ID string `json:"id"`
	}
	err := c.do(ctx, http.MethodPost, "/notifications", map[string]interface{}{
		"title":   title,
		"message": message,
	}, &result)
	return result.ID, err
}

// Windows lists browser windows.
func (c *Client) Windows(ctx context.Context) ([]Window, error) {
	var result struct {
		Windows []Window `json:"windows"`
	}
	if err := c.do(ctx, http.MethodGet, "/windows", nil, &result); err != nil {
		return nil, err
	}
	return result.Windows, nil
}

// Displays lists connected displays.
func (c *Client) Displays(ctx context.Context) ([]Display, error) {
	var result struct {
		Displays []Display `json:"displays"`
	}
	if err := c.do(ctx, http.MethodGet, "/displays", nil, &result); err != nil {
		return nil, err
	}
	return result.Displays, nil
}

// TerminalProfiles lists the configured terminal launch profiles.
func (c *Client) TerminalProfiles(ctx context.Context) ([]TerminalProfile, error) {
	var result struct {
		Profiles []TerminalProfile `json:"profiles"`
	}
	if err := c.do(ctx, http.MethodGet, "/terminal/profiles", nil, &result); err != nil {
		return nil, err
	}
	return result.Profiles, nil
}

// SpawnTerminal launches a terminal with the named profile and returns the PID.
func (c *Client) SpawnTerminal(ctx context.Context, profile, cwd string) (int, error) {
	var result struct {
		PID int `json:"pid"`
	}
	err := c.do(ctx, http.MethodPost, "/terminal/spawn", map[string]interface{}{
		"profile": profile,
		"cwd":     cwd,
	}, &result)
	return result.PID, err
}

// Speak plays text through the browser's TTS engine.
func (c *Client) Speak(ctx context.Context, text, voice string, rate float64) error {
	return c.do(ctx, http.MethodPost, "/tts/speak", map[string]interface{}{
		"text":  text,
		"voice": voice,
		"rate":  rate,
	}, nil)
}

// StopSpeaking interrupts any in-progress TTS playback.
func (c *Client) StopSpeaking(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/tts/stop", nil, nil)
}

// NavigationSettings fetches the user's navigation settings. This is the
// settings-provider collaborator for the gatekeeper; the caller treats
// failures as permissive defaults, so errors are returned unwrapped.
func (c *Client) NavigationSettings(ctx context.Context) (gatekeeper.Settings, error) {
	var settings gatekeeper.Settings
	err := c.do(ctx, http.MethodGet, "/settings/navigation", nil, &settings)
	return settings, err
}
