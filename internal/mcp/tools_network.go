package mcp

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tabpilot/tabpilot/internal/netlog"
	"github.com/tabpilot/tabpilot/internal/session"
)

func (s *StreamableServer) registerNetworkTools() {
	// network_requests - Query captured requests
	s.tools["network_requests"] = MCPTool{
		Name: "network_requests",
		Description: `Query captured network requests, classified by status class (2xx/3xx/4xx/5xx/failed) with known tracker domains flagged.

**When to use:**
- User asks "what requests is the page making?", "any failing requests?"
- Debugging API errors: filter by class "4xx" or "5xx"
- Privacy review: filter with trackers_only to see analytics traffic
- After navigation, to verify which backend calls the page issued

**Capture sources:** Requests arrive over the extension's event stream, plus the local capture proxy when it is enabled.

**Few-shot examples:**
1. User: "Show me failing requests"
   → Use: network_requests with {"class": "5xx"}

2. User: "What trackers is this page loading?"
   → Use: network_requests with {"trackers_only": true}

3. User: "Summarize the page's network traffic"
   → Use: network_requests with {"summary": true}

4. User: "Show requests from the dashboard tab"
   → First: tabs_list to find the tab ID
   → Then: network_requests with {"tab_id": 4}

**Parameters:**
- class: "2xx", "3xx", "4xx", "5xx", or "failed"
- tab_id: restrict to one tab
- trackers_only: only requests to known tracker domains
- limit: at most N entries, newest kept (default 50)
- summary: return per-class counts instead of entries`,
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"class": {
					"type": "string",
					"enum": ["2xx", "3xx", "4xx", "5xx", "failed"],
					"description": "Restrict to one status class"
				},
				"tab_id": {
					"type": "integer",
					"description": "Restrict to one tab"
				},
				"trackers_only": {
					"type": "boolean",
					"description": "Only requests to known tracker domains"
				},
				"limit": {
					"type": "integer",
					"description": "Maximum entries to return (default 50)"
				},
				"summary": {
					"type": "boolean",
					"description": "Return per-class counts instead of entries"
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
				Class        string `json:"class"`
				TabID        int    `json:"tab_id"`
				TrackersOnly bool   `json:"trackers_only"`
				Limit        int    `json:"limit"`
				Summary      bool   `json:"summary"`
				responseFormat
			}
			if len(args) > 0 {
				if err := json.Unmarshal(args, &params); err != nil {
					return nil, err
				}
			}

			if params.Summary {
				summary := s.deps.Netlog.Summarize(params.TabID)
				if params.wantsJSON() {
					return jsonResult(summary)
				}
				var b strings.Builder
				b.WriteString("## Network summary\n\n")
				fmt.Fprintf(&b, "- Total: %d\n", summary.Total)
				for _, class := range []netlog.StatusClass{
					netlog.ClassSuccess, netlog.ClassRedirect,
					netlog.ClassClientError, netlog.ClassServerError,
					netlog.ClassFailed, netlog.ClassOther,
				} {
					if n := summary.ByClass[class]; n > 0 {
						fmt.Fprintf(&b, "- %s: %d\n", class, n)
					}
				}
				fmt.Fprintf(&b, "- Tracker requests: %d\n", summary.Trackers)
				return textResult(b.String()), nil
			}

			limit := params.Limit
			if limit == 0 {
				limit = 50
			}

			entries := s.deps.Netlog.Entries(netlog.Filter{
				TabID:       params.TabID,
				Class:       netlog.StatusClass(params.Class),
				TrackerOnly: params.TrackersOnly,
				Limit:       limit,
			})

			if params.wantsJSON() {
				return jsonResult(map[string]interface{}{"requests": entries})
			}

			if len(entries) == 0 {
				return textResult("No captured requests match."), nil
			}

			var b strings.Builder
			fmt.Fprintf(&b, "## Network requests (%d)\n\n", len(entries))
			for _, e := range entries {
				status := fmt.Sprintf("%d", e.StatusCode)
				if e.Class == netlog.ClassFailed {
					status = "FAILED"
					if e.Error != "" {
						status += " (" + e.Error + ")"
					}
				}
				tracker := ""
				if e.Tracker {
					tracker = " ⚠️ tracker"
				}
				fmt.Fprintf(&b, "- %s %s → %s%s\n", e.Method, e.URL, status, tracker)
			}
			return textResult(b.String()), nil
		},
	}

	// network_clear - Drop captured requests
	s.tools["network_clear"] = MCPTool{
		Name: "network_clear",
		Description: `Clear all captured network requests.

**When to use:**
- Before reproducing an issue, so network_requests only shows the relevant traffic
- After a noisy page load buried the interesting requests

**Few-shot examples:**
1. User: "Clear the log, then reload and show me what fails"
   → Use: network_clear with {}
   → Then: navigate, then network_requests with {"class": "failed"}`,
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {}
		}`),
		Handler: func(sess *session.Context, args json.RawMessage) (interface{}, error) {
			cleared := s.deps.Netlog.Len()
			s.deps.Netlog.Clear()
			return textResult(fmt.Sprintf("✅ Cleared %d captured requests.", cleared)), nil
		},
	}
}
