package bridge

import "time"

// Tab is an open extension-managed page. IDs are assigned by the
// extension and are only compared, never synthesized, on this side.
type Tab struct {
	ID       int    `json:"id"`
	WindowID int    `json:"windowId"`
	URL      string `json:"url"`
	Title    string `json:"title"`
	Active   bool   `json:"active"`
	Pinned   bool   `json:"pinned"`
}

// Cookie mirrors chrome.cookies.Cookie for the fields the audit cares about.
type Cookie struct {
	Name           string  `json:"name"`
	Value          string  `json:"value"`
	Domain         string  `json:"domain"`
	Path           string  `json:"path"`
	Secure         bool    `json:"secure"`
	HTTPOnly       bool    `json:"httpOnly"`
	Session        bool    `json:"session"`
	SameSite       string  `json:"sameSite"`
	ExpirationDate float64 `json:"expirationDate,omitempty"`
}

// Bookmark is a node in the browser bookmark tree.
type Bookmark struct {
	ID       string `json:"id"`
	ParentID string `json:"parentId,omitempty"`
	Title    string `json:"title"`
	URL      string `json:"url,omitempty"`
}

// Download is an entry from the browser download shelf.
type Download struct {
	ID            int       `json:"id"`
	URL           string    `json:"url"`
	Filename      string    `json:"filename"`
	State         string    `json:"state"` // in_progress, interrupted, complete
	BytesReceived int64     `json:"bytesReceived"`
	TotalBytes    int64     `json:"totalBytes"`
	StartTime     time.Time `json:"startTime"`
}

// Window is a browser window with its placement.
type Window struct {
	ID      int    `json:"id"`
	Focused bool   `json:"focused"`
	State   string `json:"state"` // normal, minimized, maximized, fullscreen
	Left    int    `json:"left"`
	Top     int    `json:"top"`
	Width   int    `json:"width"`
	Height  int    `json:"height"`
}

// Display is a physical display as reported by the system.
type Display struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Primary bool   `json:"isPrimary"`
	Width   int    `json:"width"`
	Height  int    `json:"height"`
}

// Screenshot is a captured tab image, base64-encoded.
type Screenshot struct {
	Data     string `json:"data"`
	MimeType string `json:"mimeType"`
	TabID    int    `json:"tabId"`
}

// TerminalProfile names a configured terminal launch profile.
type TerminalProfile struct {
	Name    string   `json:"name"`
	Command string   `json:"command"`
	Args    []string `json:"args,omitempty"`
}

// NetworkEvent is one captured request pushed over the event stream.
type NetworkEvent struct {
	RequestID  string  `json:"requestId"`
	TabID      int     `json:"tabId"`
	Method     string  `json:"method"`
	URL        string  `json:"url"`
	Type       string  `json:"type"` // document, script, xhr, image, ...
	StatusCode int     `json:"statusCode"`
	FromCache  bool    `json:"fromCache"`
	Failed     bool    `json:"failed"`
	Error      string  `json:"error,omitempty"`
	DurationMS float64 `json:"durationMs"`
	Size       int64   `json:"size"`
}
