// Package gatekeeper decides whether a requested navigation target is
// permitted. Built-in destinations are grouped into categories of fixed
// regular expressions; users extend the list with plain or wildcarded
// domains. Anything that matches neither is rejected, never normalized.
package gatekeeper

import (
	"strings"
)

// Decision is the outcome of evaluating a raw URL against the allow-list.
// NormalizedURL is only set when Allowed is true.
type Decision struct {
	Allowed       bool
	NormalizedURL string
	Category      string // built-in category that matched, "custom" for user domains, "all" for the bypass
}

// Evaluate checks a raw URL string against the built-in allow-list and the
// user's custom domains. Scheme-less input is admitted only when some
// pattern claims it; with AllowAllURLs set every non-empty input passes
// with an https:// prefix.
func Evaluate(raw string, settings Settings) Decision {
	input := strings.TrimSpace(raw)
	if input == "" {
		return Decision{}
	}

	custom := compileCustomPatterns(settings.CustomDomains)

	normalized := input
	if !hasHTTPScheme(input) {
		if settings.AllowAllURLs {
			normalized = "https://" + input
		} else {
			matched := false
			for _, entry := range builtinEntries {
				if entry.bare.MatchString(input) {
					matched = true
					break
				}
			}
			if !matched {
				synthetic := "https://" + input
				for _, re := range custom {
					if re.MatchString(synthetic) {
						matched = true
						break
					}
				}
			}
			if !matched {
				return Decision{}
			}
			normalized = "https://" + input
		}
	}

	if settings.AllowAllURLs {
		return Decision{Allowed: true, NormalizedURL: normalized, Category: "all"}
	}

	for _, entry := range builtinEntries {
		if entry.full.MatchString(normalized) {
			return Decision{Allowed: true, NormalizedURL: normalized, Category: entry.category}
		}
	}

	for _, re := range custom {
		if re.MatchString(normalized) {
			return Decision{Allowed: true, NormalizedURL: normalized, Category: "custom"}
		}
	}

	return Decision{}
}

func hasHTTPScheme(s string) bool {
	lower := strings.ToLower(s)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}
