package gatekeeper

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluateBuiltinCategories(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantURL  string
		category string
	}{
		{"github with path", "https://github.com/golang/go", "https://github.com/golang/go", "code hosting"},
		{"github scheme-less", "github.com/golang/go", "https://github.com/golang/go", "code hosting"},
		{"github www", "https://www.github.com/golang/go", "https://www.github.com/golang/go", "code hosting"},
		{"localhost with port", "http://localhost:3000", "http://localhost:3000", "local development"},
		{"localhost scheme-less", "localhost:3000", "https://localhost:3000", "local development"},
		{"loopback", "http://127.0.0.1:8080/api", "http://127.0.0.1:8080/api", "local development"},
		{"vercel preview", "https://my-app.vercel.app", "https://my-app.vercel.app", "deployment platforms"},
		{"netlify", "https://foo-bar.netlify.app/page", "https://foo-bar.netlify.app/page", "deployment platforms"},
		{"mdn", "https://developer.mozilla.org/en-US/docs/Web", "https://developer.mozilla.org/en-US/docs/Web", "documentation"},
		{"npm", "https://www.npmjs.com/package/react", "https://www.npmjs.com/package/react", "package registries"},
		{"codesandbox", "https://codesandbox.io/s/demo", "https://codesandbox.io/s/demo", "playgrounds"},
		{"claude", "https://claude.ai/chat", "https://claude.ai/chat", "AI tools"},
		{"figma", "https://www.figma.com/file/abc", "https://www.figma.com/file/abc", "design tools"},
		{"uppercase host", "HTTPS://GITHUB.COM/Golang/Go", "HTTPS://GITHUB.COM/Golang/Go", "code hosting"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Evaluate(tt.input, Settings{})
			require.True(t, d.Allowed, "expected %q to be allowed", tt.input)
			assert.Equal(t, tt.wantURL, d.NormalizedURL)
			assert.Equal(t, tt.category, d.Category)
		})
	}
}

func TestEvaluateFailsClosed(t *testing.T) {
	inputs := []string{
		"https://evil.example.net",
		"evil.example.net",
		"https://github.evil.net/golang",
		"ftp://github.com/golang/go",
		"",
		"   ",
	}

	for _, input := range inputs {
		d := Evaluate(input, Settings{})
		assert.False(t, d.Allowed, "expected %q to be rejected", input)
		assert.Empty(t, d.NormalizedURL)
	}
}

func TestEvaluateAllowAllBypass(t *testing.T) {
	settings := Settings{AllowAllURLs: true}

	d := Evaluate("https://anything.example.net/path", settings)
	require.True(t, d.Allowed)
	assert.Equal(t, "https://anything.example.net/path", d.NormalizedURL)
	assert.Equal(t, "all", d.Category)

	// Scheme-less input gets https:// prepended unconditionally.
	d = Evaluate("anything.example.net/path", settings)
	require.True(t, d.Allowed)
	assert.Equal(t, "https://anything.example.net/path", d.NormalizedURL)

	// Empty input is still rejected.
	d = Evaluate("  ", settings)
	assert.False(t, d.Allowed)
}

func TestEvaluateCustomDomains(t *testing.T) {
	settings := Settings{CustomDomains: "mysite.dev\ninternal.corp.example\n"}

	d := Evaluate("https://mysite.dev/dashboard", settings)
	require.True(t, d.Allowed)
	assert.Equal(t, "custom", d.Category)

	d = Evaluate("https://www.mysite.dev", settings)
	assert.True(t, d.Allowed)

	// Scheme-less custom domain is tested with a synthetic https:// prefix.
	d = Evaluate("mysite.dev/dashboard", settings)
	require.True(t, d.Allowed)
	assert.Equal(t, "https://mysite.dev/dashboard", d.NormalizedURL)

	d = Evaluate("https://othersite.dev", settings)
	assert.False(t, d.Allowed)
}

func TestEvaluateWildcardCustomDomain(t *testing.T) {
	settings := Settings{CustomDomains: "*.example.com"}

	d := Evaluate("https://sub.example.com/path", settings)
	require.True(t, d.Allowed, "subdomain must match the wildcard")

	d = Evaluate("https://deep.sub.example.com", settings)
	assert.True(t, d.Allowed, "nested subdomains must match the wildcard")

	// The bare apex is not a subdomain and must be rejected.
	d = Evaluate("https://example.com/path", settings)
	assert.False(t, d.Allowed)

	// Suffix tricks must not match.
	d = Evaluate("https://notexample.com", settings)
	assert.False(t, d.Allowed)
}

func TestEvaluateSkipsMalformedCustomEntries(t *testing.T) {
	settings := Settings{CustomDomains: "\n\n*.\n   \nmysite.dev"}

	d := Evaluate("https://mysite.dev", settings)
	assert.True(t, d.Allowed)

	d = Evaluate("https://unrelated.net", settings)
	assert.False(t, d.Allowed)
}

func TestCategoryNames(t *testing.T) {
	names := CategoryNames()
	require.NotEmpty(t, names)
	assert.Contains(t, names, "code hosting")
	assert.Contains(t, names, "local development")
	assert.Contains(t, names, "AI tools")
}

func TestSettingsCacheTTL(t *testing.T) {
	current := time.Unix(1000, 0)
	now := func() time.Time { return current }

	fetches := 0
	fetch := func(ctx context.Context) (Settings, error) {
		fetches++
		return Settings{AllowAllURLs: true}, nil
	}

	cache := NewSettingsCacheWithClock(fetch, 5*time.Second, now)
	ctx := context.Background()

	first := cache.Get(ctx)
	assert.True(t, first.AllowAllURLs)
	assert.Equal(t, 1, fetches)

	// Within the TTL no refetch happens.
	current = current.Add(4 * time.Second)
	cache.Get(ctx)
	assert.Equal(t, 1, fetches)

	// After expiry exactly one refetch happens.
	current = current.Add(2 * time.Second)
	cache.Get(ctx)
	assert.Equal(t, 2, fetches)

	cache.Get(ctx)
	assert.Equal(t, 2, fetches)
}

func TestSettingsCacheFetchFailureYieldsDefaults(t *testing.T) {
	fetch := func(ctx context.Context) (Settings, error) {
		return Settings{}, errors.New("connection refused")
	}

	cache := NewSettingsCacheWithClock(fetch, 5*time.Second, time.Now)
	got := cache.Get(context.Background())

	assert.False(t, got.AllowAllURLs)
	assert.Empty(t, got.CustomDomains)
}
