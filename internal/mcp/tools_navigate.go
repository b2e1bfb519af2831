package mcp

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tabpilot/tabpilot/internal/gatekeeper"
	"github.com/tabpilot/tabpilot/internal/navigator"
	"github.com/tabpilot/tabpilot/internal/session"
	"github.com/tabpilot/tabpilot/pkg/events"
)

func (s *StreamableServer) registerNavigateTool() {
	s.tools["navigate"] = MCPTool{
		Name: "navigate",
		Description: `Open a URL in the browser, subject to the user's allow-list. Reuses an existing tab showing the same URL instead of opening a duplicate.

**When to use:**
- User asks to open a website: "open github", "go to the docs"
- After finding a URL in search results or logs that the user should see
- To bring an already-open page back to the front (reuse finds it)
- NEVER construct chrome:// or extension URLs - those are rejected

**Allow-list behavior:**
URLs are checked against built-in categories (code hosting, local development, deployment platforms, documentation, package registries, playgrounds, AI tools, design tools) plus the user's custom domains. URLs outside the allow-list are rejected with the category list so you can tell the user what is permitted. The server never rewrites a rejected URL into an allowed one.

Scheme-less input like "github.com/golang/go" is accepted and gets an https:// prefix, but only when it matches the allow-list; otherwise it is rejected as-is.

**Few-shot examples:**
1. User: "Open the Go repo on GitHub"
   → Use: navigate with {"url": "https://github.com/golang/go"}

2. User: "Open my dev server"
   → Use: navigate with {"url": "http://localhost:3000"}

3. User: "Open that page again" (page is already open in a tab)
   → Use: navigate with {"url": "<same url>"} - the existing tab is activated, not duplicated

4. User: "Preload the docs but don't switch to them"
   → Use: navigate with {"url": "https://pkg.go.dev/net/http", "background": true}

**Parameters:**
- url: the target URL (required)
- new_tab: always open a fresh tab instead of navigating the current page
- background: do not focus the tab, and do not move the session's current target
- reuse_existing: activate a tab already showing this URL instead of opening another (default true)
- response_format: "markdown" (default) or "json"

**Best practices:**
- Leave reuse_existing on unless the user explicitly wants a duplicate tab
- Use background: true for prefetching so you don't steal the user's focus
- On rejection, show the user the allowed categories instead of retrying variants`,
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"url": {
					"type": "string",
					"description": "The URL to open"
				},
				"new_tab": {
					"type": "boolean",
					"description": "Always open a new tab instead of navigating the current one"
				},
				"background": {
					"type": "boolean",
					"description": "Open without focusing the tab"
				},
				"reuse_existing": {
					"type": "boolean",
					"description": "Activate an existing tab showing this URL instead of opening another (default true)"
				},
				"response_format": {
					"type": "string",
					"enum": ["markdown", "json"],
					"description": "Output format (default markdown)"
				}
			},
			"required": ["url"]
		}`),
		Handler: func(sess *session.Context, args json.RawMessage) (interface{}, error) {
			var params struct {
				URL           string `json:"url"`
				NewTab        bool   `json:"new_tab"`
				Background    bool   `json:"background"`
				ReuseExisting *bool  `json:"reuse_existing"`
				responseFormat
			}
			if err := json.Unmarshal(args, &params); err != nil {
				return nil, err
			}
			if strings.TrimSpace(params.URL) == "" {
				return nil, fmt.Errorf("url is required")
			}

			ctx, cancel := handlerContext()
			defer cancel()

			settings := s.effectiveSettings(ctx)
			decision := gatekeeper.Evaluate(params.URL, settings)
			if !decision.Allowed {
				s.deps.EventBus.Publish(events.Event{
					Type: events.NavigationBlocked,
					Data: map[string]interface{}{"url": params.URL},
				})
				return s.renderBlocked(params.URL, params.wantsJSON())
			}

			reuse := true
			if params.ReuseExisting != nil {
				reuse = *params.ReuseExisting
			}

			result := s.deps.Navigator.Navigate(ctx, sess, navigator.Request{
				URL:           decision.NormalizedURL,
				NewTab:        params.NewTab,
				Background:    params.Background,
				ReuseExisting: reuse,
			})

			if result.Success {
				s.deps.EventBus.Publish(events.Event{
					Type:  events.NavigationDone,
					TabID: result.TabID,
					Data: map[string]interface{}{
						"url":    result.URL,
						"reused": result.Reused,
					},
				})
			}

			if params.wantsJSON() {
				return jsonResult(map[string]interface{}{
					"allowed":  true,
					"category": decision.Category,
					"result":   result,
				})
			}
			return textResult(renderNavigationMarkdown(decision, result)), nil
		},
	}
}

// renderBlocked reports a rejected URL with the allowed categories so
// the client can explain the policy instead of guessing.
func (s *StreamableServer) renderBlocked(rawURL string, asJSON bool) (interface{}, error) {
	categories := gatekeeper.CategoryNames()

	if asJSON {
		return jsonResult(map[string]interface{}{
			"allowed":           false,
			"url":               rawURL,
			"allowedCategories": categories,
		})
	}

	var b strings.Builder
	fmt.Fprintf(&b, "❌ Navigation blocked: `%s` is not on the allow-list.\n\n", rawURL)
	b.WriteString("Allowed categories:\n")
	for _, name := range categories {
		fmt.Fprintf(&b, "- %s\n", name)
	}
	b.WriteString("\nThe user can extend the list with custom domains in their settings.")
	return textResult(b.String()), nil
}

func renderNavigationMarkdown(decision gatekeeper.Decision, result navigator.Result) string {
	if !result.Success {
		return fmt.Sprintf("⚠️ Navigation failed: %s", result.Error)
	}
	if result.Reused {
		return fmt.Sprintf("✅ Activated existing tab %d already showing %s", result.TabID, result.URL)
	}
	return fmt.Sprintf("✅ Opened %s in tab %d (category: %s)", result.URL, result.TabID, decision.Category)
}
