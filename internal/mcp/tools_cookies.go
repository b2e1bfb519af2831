package mcp

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tabpilot/tabpilot/internal/netlog"
	"github.com/tabpilot/tabpilot/internal/session"
)

func (s *StreamableServer) registerCookieTools() {
	// cookies_list - List cookies
	s.tools["cookies_list"] = MCPTool{
		Name: "cookies_list",
		Description: `List browser cookies, optionally filtered by domain.

**When to use:**
- User asks "what cookies does site X set?"
- Debugging authentication or session issues
- Before cookies_delete to find the exact cookie name

**Few-shot examples:**
1. User: "Show me the cookies for github.com"
   → Use: cookies_list with {"domain": "github.com"}

2. User: "List all my cookies"
   → Use: cookies_list with {}

**Privacy note:** Cookie values can contain credentials. Summarize rather than echoing raw values unless the user asks for them.`,
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"domain": {
					"type": "string",
					"description": "Restrict to cookies for this domain"
				},
				"response_format": {
					"type": "string",
					"enum": ["markdown", "json"],
					"description": "Output format (default markdown)"
				}
			}
		}`),
		Handler: func(sess *session.Context, args json.RawMessage) (interface{}, error) {
			var params struct {
				Domain string `json:"domain"`
				responseFormat
			}
			if len(args) > 0 {
				if err := json.Unmarshal(args, &params); err != nil {
					return nil, err
				}
			}

			ctx, cancel := handlerContext()
			defer cancel()

			cookies, err := s.deps.Bridge.Cookies(ctx, params.Domain)
			if err != nil {
				return nil, err
			}

			if params.wantsJSON() {
				return jsonResult(map[string]interface{}{"cookies": cookies})
			}

			if len(cookies) == 0 {
				return textResult("No cookies found."), nil
			}

			var b strings.Builder
			fmt.Fprintf(&b, "## Cookies (%d)\n\n", len(cookies))
			for _, c := range cookies {
				flags := make([]string, 0, 3)
				if c.Secure {
					flags = append(flags, "Secure")
				}
				if c.HTTPOnly {
					flags = append(flags, "HttpOnly")
				}
				if c.Session {
					flags = append(flags, "Session")
				}
				fmt.Fprintf(&b, "- `%s` on %s%s", c.Name, c.Domain, c.Path)
				if len(flags) > 0 {
					fmt.Fprintf(&b, " [%s]", strings.Join(flags, ", "))
				}
				b.WriteString("\n")
			}
			return textResult(b.String()), nil
		},
	}

	// cookies_delete - Delete a cookie
	s.tools["cookies_delete"] = MCPTool{
		Name: "cookies_delete",
		Description: `Delete a cookie by name for a specific URL.

**When to use:**
- User asks to clear a specific cookie: "delete my session cookie for example.com"
- Resetting a stuck login state during debugging
- Removing tracker cookies surfaced by cookies_audit

**Few-shot examples:**
1. User: "Delete the _ga cookie on my site"
   → Use: cookies_delete with {"name": "_ga", "url": "https://mysite.dev"}

**Best practices:**
- Use cookies_list first to confirm the exact name and domain
- Deleting auth cookies logs the user out; confirm intent first`,
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"name": {
					"type": "string",
					"description": "The cookie name"
				},
				"url": {
					"type": "string",
					"description": "The URL the cookie is scoped to"
				}
			},
			"required": ["name", "url"]
		}`),
		Handler: func(sess *session.Context, args json.RawMessage) (interface{}, error) {
			var params struct {
				Name string `json:"name"`
				URL  string `json:"url"`
			}
			if err := json.Unmarshal(args, &params); err != nil {
				return nil, err
			}
			if params.Name == "" || params.URL == "" {
				return nil, fmt.Errorf("name and url are required")
			}

			ctx, cancel := handlerContext()
			defer cancel()

			if err := s.deps.Bridge.DeleteCookie(ctx, params.Name, params.URL); err != nil {
				return nil, err
			}
			return textResult(fmt.Sprintf("✅ Deleted cookie `%s` for %s", params.Name, params.URL)), nil
		},
	}

	// cookies_audit - Audit cookies for privacy issues
	s.tools["cookies_audit"] = MCPTool{
		Name: "cookies_audit",
		Description: `Audit cookies for privacy and security issues: known tracker cookies, persistent cookies, cookies missing the Secure flag, and cookies readable from page scripts.

**When to use:**
- User asks "is this site tracking me?" or "audit my cookies"
- Privacy review of a site under development
- After network_requests showed tracker traffic

**Few-shot examples:**
1. User: "Audit the cookies on my dev site"
   → Use: cookies_audit with {"domain": "localhost"}

2. User: "Which of my cookies are trackers?"
   → Use: cookies_audit with {}

**Detection:** Tracker detection matches known analytics domains (google-analytics.com, doubleclick.net, ...) and common SDK name prefixes (_ga, _fbp, ajs_, ...).`,
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"domain": {
					"type": "string",
					"description": "Restrict the audit to cookies for this domain"
				},
				"response_format": {
					"type": "string",
					"enum": ["markdown", "json"],
					"description": "Output format (default markdown)"
				}
			}
		}`),
		Handler: func(sess *session.Context, args json.RawMessage) (interface{}, error) {
			var params struct {
				Domain string `json:"domain"`
				responseFormat
			}
			if len(args) > 0 {
				if err := json.Unmarshal(args, &params); err != nil {
					return nil, err
				}
			}

			ctx, cancel := handlerContext()
			defer cancel()

			cookies, err := s.deps.Bridge.Cookies(ctx, params.Domain)
			if err != nil {
				return nil, err
			}

			audit := netlog.AuditCookies(cookies)

			if params.wantsJSON() {
				return jsonResult(audit)
			}

			var b strings.Builder
			b.WriteString("## Cookie audit\n\n")
			fmt.Fprintf(&b, "- Total: %d\n", audit.Total)
			fmt.Fprintf(&b, "- Trackers: %d\n", audit.Trackers)
			fmt.Fprintf(&b, "- Persistent: %d\n", audit.Persistent)
			fmt.Fprintf(&b, "- Missing Secure flag: %d\n", audit.Insecure)
			fmt.Fprintf(&b, "- Readable from scripts: %d\n", audit.Scriptable)

			if audit.Trackers > 0 {
				b.WriteString("\n### Tracker cookies\n\n")
				for _, f := range audit.Findings {
					if f.Tracker {
						fmt.Fprintf(&b, "- `%s` on %s\n", f.Name, f.Domain)
					}
				}
			}
			return textResult(b.String()), nil
		},
	}
}
