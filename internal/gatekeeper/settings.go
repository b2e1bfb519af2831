package gatekeeper

import (
	"context"
	"sync"
	"time"
)

// Settings controls how navigation targets are admitted. AllowAllURLs is
// the user's explicit "trust everything" opt-in; CustomDomains is a
// newline-delimited list of extra domains, optionally "*."-prefixed.
type Settings struct {
	AllowAllURLs  bool   `json:"allowAllUrls"`
	CustomDomains string `json:"customDomains"`
}

// FetchFunc retrieves the current navigation settings from the settings
// provider. A failed fetch is not an error for the caller: the cache
// falls back to permissive defaults.
type FetchFunc func(ctx context.Context) (Settings, error)

// DefaultSettingsTTL bounds how stale cached settings may get.
const DefaultSettingsTTL = 5 * time.Second

// SettingsCache holds the last fetched settings with a TTL. Expiry is the
// only invalidation: staleness, not corruption, is the failure mode, so a
// single mutex around the timestamped value is all the coordination needed.
type SettingsCache struct {
	mu        sync.Mutex
	fetch     FetchFunc
	ttl       time.Duration
	now       func() time.Time
	value     Settings
	fetchedAt time.Time
}

// NewSettingsCache creates a cache around fetch with the default TTL.
func NewSettingsCache(fetch FetchFunc) *SettingsCache {
	return NewSettingsCacheWithClock(fetch, DefaultSettingsTTL, time.Now)
}

// NewSettingsCacheWithClock allows tests to inject the TTL and clock.
func NewSettingsCacheWithClock(fetch FetchFunc, ttl time.Duration, now func() time.Time) *SettingsCache {
	return &SettingsCache{
		fetch: fetch,
		ttl:   ttl,
		now:   now,
	}
}

// Get returns the cached settings, refetching if the TTL has expired.
// Fetch failures silently yield the permissive defaults.
func (c *SettingsCache) Get(ctx context.Context) Settings {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.fetchedAt.IsZero() && c.now().Sub(c.fetchedAt) < c.ttl {
		return c.value
	}

	settings, err := c.fetch(ctx)
	if err != nil {
		settings = Settings{}
	}

	c.value = settings
	c.fetchedAt = c.now()
	return c.value
}
