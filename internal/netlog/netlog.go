// Package netlog stores captured network requests and classifies them
// for reporting: bucketing by status class and flagging requests to
// known tracker domains.
package netlog

import (
	"strings"
	"sync"

	"github.com/tabpilot/tabpilot/internal/bridge"
)

// StatusClass buckets a response by its status code.
type StatusClass string

const (
	ClassSuccess     StatusClass = "2xx"
	ClassRedirect    StatusClass = "3xx"
	ClassClientError StatusClass = "4xx"
	ClassServerError StatusClass = "5xx"
	ClassFailed      StatusClass = "failed"
	ClassOther       StatusClass = "other"
)

// Classify returns the status class for a captured request.
func Classify(ev bridge.NetworkEvent) StatusClass {
	if ev.Failed || ev.StatusCode == 0 {
		return ClassFailed
	}
	switch {
	case ev.StatusCode >= 200 && ev.StatusCode < 300:
		return ClassSuccess
	case ev.StatusCode >= 300 && ev.StatusCode < 400:
		return ClassRedirect
	case ev.StatusCode >= 400 && ev.StatusCode < 500:
		return ClassClientError
	case ev.StatusCode >= 500 && ev.StatusCode < 600:
		return ClassServerError
	default:
		return ClassOther
	}
}

// trackerDomains are well-known analytics and ad hosts. Matching is by
// domain suffix so subdomains are flagged too.
var trackerDomains = []string{
	"google-analytics.com",
	"googletagmanager.com",
	"doubleclick.net",
	"googlesyndication.com",
	"facebook.net",
	"connect.facebook.net",
	"analytics.tiktok.com",
	"scorecardresearch.com",
	"hotjar.com",
	"segment.io",
	"segment.com",
	"mixpanel.com",
	"amplitude.com",
	"sentry.io",
	"fullstory.com",
	"clarity.ms",
}

// IsTracker reports whether host belongs to a known tracker domain.
func IsTracker(host string) bool {
	host = strings.ToLower(strings.TrimSuffix(host, "."))
	for _, tracker := range trackerDomains {
		if host == tracker || strings.HasSuffix(host, "."+tracker) {
			return true
		}
	}
	return false
}

// hostOf extracts the host (without port) from a URL string without a
// full parse; capture events carry well-formed URLs from the browser.
func hostOf(rawURL string) string {
	rest := rawURL
	if idx := strings.Index(rest, "://"); idx >= 0 {
		rest = rest[idx+3:]
	}
	if idx := strings.IndexAny(rest, "/?#"); idx >= 0 {
		rest = rest[:idx]
	}
	if idx := strings.LastIndex(rest, ":"); idx >= 0 && !strings.Contains(rest, "]") {
		rest = rest[:idx]
	}
	return rest
}

// Entry is one stored request with its classification.
type Entry struct {
	bridge.NetworkEvent
	Class   StatusClass `json:"class"`
	Tracker bool        `json:"tracker"`
}

// Store keeps the most recent captured requests in a bounded ring.
type Store struct {
	mu      sync.RWMutex
	entries []Entry
	max     int
}

// NewStore creates a store bounded to max entries.
func NewStore(max int) *Store {
	if max <= 0 {
		max = 1000
	}
	return &Store{
		entries: make([]Entry, 0, max),
		max:     max,
	}
}

// Add records a captured request.
func (s *Store) Add(ev bridge.NetworkEvent) {
	entry := Entry{
		NetworkEvent: ev,
		Class:        Classify(ev),
		Tracker:      IsTracker(hostOf(ev.URL)),
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = append(s.entries, entry)
	if len(s.entries) > s.max {
		s.entries = s.entries[len(s.entries)-s.max:]
	}
}

// Filter selects stored entries for reporting.
type Filter struct {
	TabID       int         // 0 means any tab
	Class       StatusClass // empty means any class
	TrackerOnly bool
	Limit       int // 0 means no limit
}

// Entries returns matching entries, oldest first.
func (s *Store) Entries(f Filter) []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Entry
	for _, e := range s.entries {
		if f.TabID != 0 && e.TabID != f.TabID {
			continue
		}
		if f.Class != "" && e.Class != f.Class {
			continue
		}
		if f.TrackerOnly && !e.Tracker {
			continue
		}
		out = append(out, e)
	}

	if f.Limit > 0 && len(out) > f.Limit {
		out = out[len(out)-f.Limit:]
	}
	return out
}

// Summary counts stored entries per status class plus tracker hits.
type Summary struct {
	Total    int                 `json:"total"`
	ByClass  map[StatusClass]int `json:"byClass"`
	Trackers int                 `json:"trackers"`
}

// Summarize aggregates all stored entries for a tab (0 = all tabs).
func (s *Store) Summarize(tabID int) Summary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	summary := Summary{ByClass: make(map[StatusClass]int)}
	for _, e := range s.entries {
		if tabID != 0 && e.TabID != tabID {
			continue
		}
		summary.Total++
		summary.ByClass[e.Class]++
		if e.Tracker {
			summary.Trackers++
		}
	}
	return summary
}

// Clear drops all stored entries.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = s.entries[:0]
}

// Len returns the number of stored entries.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
