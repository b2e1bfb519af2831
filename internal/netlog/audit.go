package netlog

import (
	"strings"

	"github.com/tabpilot/tabpilot/internal/bridge"
)

// trackerCookiePrefixes are cookie names set by common analytics SDKs.
var trackerCookiePrefixes = []string{
	"_ga",
	"_gid",
	"_gat",
	"_gcl",
	"_fbp",
	"_fbc",
	"_hj",
	"_mkto",
	"ajs_",
	"mp_",
	"amplitude_",
}

// CookieFinding is one audited cookie with its flags.
type CookieFinding struct {
	bridge.Cookie
	Tracker    bool `json:"tracker"`
	Persistent bool `json:"persistent"`
	Insecure   bool `json:"insecure"`   // missing Secure flag
	Scriptable bool `json:"scriptable"` // missing HttpOnly flag
}

// CookieAudit aggregates findings over a cookie set.
type CookieAudit struct {
	Total      int             `json:"total"`
	Trackers   int             `json:"trackers"`
	Persistent int             `json:"persistent"`
	Insecure   int             `json:"insecure"`
	Scriptable int             `json:"scriptable"`
	Findings   []CookieFinding `json:"findings"`
}

// AuditCookies classifies each cookie and aggregates counts. A cookie is
// a tracker when its domain belongs to a known tracker or its name
// carries a known analytics prefix.
func AuditCookies(cookies []bridge.Cookie) CookieAudit {
	audit := CookieAudit{Findings: make([]CookieFinding, 0, len(cookies))}

	for _, c := range cookies {
		finding := CookieFinding{
			Cookie:     c,
			Tracker:    isTrackerCookie(c),
			Persistent: !c.Session,
			Insecure:   !c.Secure,
			Scriptable: !c.HTTPOnly,
		}

		audit.Total++
		if finding.Tracker {
			audit.Trackers++
		}
		if finding.Persistent {
			audit.Persistent++
		}
		if finding.Insecure {
			audit.Insecure++
		}
		if finding.Scriptable {
			audit.Scriptable++
		}
		audit.Findings = append(audit.Findings, finding)
	}

	return audit
}

func isTrackerCookie(c bridge.Cookie) bool {
	if IsTracker(strings.TrimPrefix(c.Domain, ".")) {
		return true
	}
	name := strings.ToLower(c.Name)
	for _, prefix := range trackerCookiePrefixes {
		if strings.HasPrefix(name, prefix) {
			return true
		}
	}
	return false
}
