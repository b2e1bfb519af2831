package gatekeeper

import (
	"fmt"
	"regexp"
	"strings"
)

// Category groups built-in allow-list hosts under a user-facing name.
// Hosts are regex fragments matching the host (and optional port) only;
// full-URL and bare-input regexes are derived from them at init.
type Category struct {
	Name  string
	Hosts []string
}

// builtinCategories is the fixed allow-list. Order matters only for
// reporting; hosts are disjoint so first-match-wins has no ambiguity.
var builtinCategories = []Category{
	{
		Name: "code hosting",
		Hosts: []string{
			`github\.com`,
			`gist\.github\.com`,
			`gitlab\.com`,
			`bitbucket\.org`,
			`sourcegraph\.com`,
		},
	},
	{
		Name: "local development",
		Hosts: []string{
			`localhost(:\d+)?`,
			`127\.0\.0\.1(:\d+)?`,
			`0\.0\.0\.0(:\d+)?`,
			`\[::1\](:\d+)?`,
		},
	},
	{
		Name: "deployment platforms",
		Hosts: []string{
			`[\w-]+\.vercel\.app`,
			`[\w-]+\.netlify\.app`,
			`[\w-]+\.herokuapp\.com`,
			`[\w-]+\.fly\.dev`,
			`[\w-]+(\.[\w-]+)?\.pages\.dev`,
			`[\w-]+\.railway\.app`,
		},
	},
	{
		Name: "documentation",
		Hosts: []string{
			`developer\.mozilla\.org`,
			`devdocs\.io`,
			`[\w-]+\.readthedocs\.io`,
			`go\.dev`,
			`pkg\.go\.dev`,
			`docs\.python\.org`,
			`nodejs\.org`,
		},
	},
	{
		Name: "package registries",
		Hosts: []string{
			`(www\.)?npmjs\.com`,
			`pypi\.org`,
			`crates\.io`,
			`rubygems\.org`,
			`hub\.docker\.com`,
		},
	},
	{
		Name: "playgrounds",
		Hosts: []string{
			`codepen\.io`,
			`jsfiddle\.net`,
			`codesandbox\.io`,
			`stackblitz\.com`,
			`replit\.com`,
		},
	},
	{
		Name: "AI tools",
		Hosts: []string{
			`chat\.openai\.com`,
			`chatgpt\.com`,
			`claude\.ai`,
			`gemini\.google\.com`,
			`huggingface\.co`,
		},
	},
	{
		Name: "design tools",
		Hosts: []string{
			`(www\.)?figma\.com`,
			`(www\.)?canva\.com`,
			`excalidraw\.com`,
		},
	},
}

type builtinEntry struct {
	category string
	full     *regexp.Regexp // matches a scheme-qualified URL
	bare     *regexp.Regexp // matches scheme-less input at the start of the string
}

var builtinEntries = compileBuiltins(builtinCategories)

func compileBuiltins(categories []Category) []builtinEntry {
	entries := make([]builtinEntry, 0, 32)
	for _, cat := range categories {
		for _, host := range cat.Hosts {
			entries = append(entries, builtinEntry{
				category: cat.Name,
				full:     regexp.MustCompile(`(?i)^https?://(www\.)?` + host + `(/.*)?$`),
				bare:     regexp.MustCompile(`(?i)^(www\.)?` + host + `(/.*)?$`),
			})
		}
	}
	return entries
}

// CategoryNames returns the built-in category names in table order,
// used in policy-rejection messages so the caller can self-correct.
func CategoryNames() []string {
	names := make([]string, 0, len(builtinCategories))
	for _, cat := range builtinCategories {
		names = append(names, cat.Name)
	}
	return names
}

// compileCustomPatterns turns newline-delimited user domains into regexes.
// Literal domains require an optional www. prefix; "*."-prefixed domains
// require at least one subdomain of the base. Empty lines are skipped and
// malformed entries simply never match.
func compileCustomPatterns(customDomains string) []*regexp.Regexp {
	var patterns []*regexp.Regexp
	for _, line := range strings.Split(customDomains, "\n") {
		domain := strings.ToLower(strings.TrimSpace(line))
		if domain == "" {
			continue
		}

		var expr string
		if base, ok := strings.CutPrefix(domain, "*."); ok {
			if base == "" {
				continue
			}
			expr = fmt.Sprintf(`(?i)^https?://([\w-]+\.)+%s(/.*)?$`, regexp.QuoteMeta(base))
		} else {
			expr = fmt.Sprintf(`(?i)^https?://(www\.)?%s(/.*)?$`, regexp.QuoteMeta(domain))
		}

		re, err := regexp.Compile(expr)
		if err != nil {
			continue
		}
		patterns = append(patterns, re)
	}
	return patterns
}
