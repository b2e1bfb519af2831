package mcp

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tabpilot/tabpilot/internal/session"
	"github.com/tabpilot/tabpilot/pkg/events"
)

func (s *StreamableServer) registerTabTools() {
	// tabs_list - List all open tabs
	s.tools["tabs_list"] = MCPTool{
		Name: "tabs_list",
		Description: `List all open browser tabs with their IDs, titles, and URLs.

**When to use:**
- User asks "what tabs are open?" or "find the tab with X"
- Before tabs_activate or tabs_close to discover the tab ID
- To check whether a page is already open before navigating

**Few-shot examples:**
1. User: "What do I have open?"
   → Use: tabs_list with {}

2. User: "Close the YouTube tab"
   → First: tabs_list to find the tab ID
   → Then: tabs_close with {"tab_id": <id>}

**Returns:** One line per tab with ID, active marker, title, and URL. The session's current target tab is marked with →.`,
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"response_format": {
					"type": "string",
					"enum": ["markdown", "json"],
					"description": "Output format (default markdown)"
				}
			}
		}`),
		Handler: func(sess *session.Context, args json.RawMessage) (interface{}, error) {
			var params responseFormat
			if len(args) > 0 {
				if err := json.Unmarshal(args, &params); err != nil {
					return nil, err
				}
			}

			ctx, cancel := handlerContext()
			defer cancel()

			tabs, err := s.deps.Bridge.Tabs(ctx)
			if err != nil {
				return nil, err
			}

			if params.wantsJSON() {
				return jsonResult(map[string]interface{}{"tabs": tabs})
			}

			if len(tabs) == 0 {
				return textResult("No tabs are open."), nil
			}

			target, hasTarget := sess.CurrentTarget()
			var b strings.Builder
			fmt.Fprintf(&b, "## Open tabs (%d)\n\n", len(tabs))
			for _, tab := range tabs {
				marker := " "
				if hasTarget && tab.ID == target {
					marker = "→"
				}
				active := ""
				if tab.Active {
					active = " (active)"
				}
				fmt.Fprintf(&b, "%s [%d]%s %s\n    %s\n", marker, tab.ID, active, tab.Title, tab.URL)
			}
			return textResult(b.String()), nil
		},
	}

	// tabs_activate - Bring a tab to the front
	s.tools["tabs_activate"] = MCPTool{
		Name: "tabs_activate",
		Description: `Bring a tab (and its window) to the front and make it the session's current target.

**When to use:**
- User says "switch to the docs tab", "show me that page again"
- After tabs_list identified the tab the user means
- Before screenshot when the wrong tab is focused

**Few-shot examples:**
1. User: "Switch back to the dashboard"
   → First: tabs_list to find it
   → Then: tabs_activate with {"tab_id": 4}`,
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"tab_id": {
					"type": "integer",
					"description": "The tab to activate"
				}
			},
			"required": ["tab_id"]
		}`),
		Handler: func(sess *session.Context, args json.RawMessage) (interface{}, error) {
			var params struct {
				TabID int `json:"tab_id"`
			}
			if err := json.Unmarshal(args, &params); err != nil {
				return nil, err
			}
			if params.TabID == 0 {
				return nil, fmt.Errorf("tab_id is required")
			}

			ctx, cancel := handlerContext()
			defer cancel()

			if err := s.deps.Bridge.ActivateTab(ctx, params.TabID); err != nil {
				return nil, err
			}
			sess.SetCurrentTarget(params.TabID)

			s.deps.EventBus.Publish(events.Event{
				Type:  events.TabActivated,
				TabID: params.TabID,
			})
			return textResult(fmt.Sprintf("✅ Activated tab %d", params.TabID)), nil
		},
	}

	// tabs_close - Close a tab
	s.tools["tabs_close"] = MCPTool{
		Name: "tabs_close",
		Description: `Close a browser tab by ID.

**When to use:**
- User asks to close a specific tab: "close the YouTube tab"
- Cleaning up tabs you opened during a task

**Few-shot examples:**
1. User: "Close that tab you opened"
   → Use: tabs_close with {"tab_id": <id returned by navigate>}

**Side effects:** If the closed tab was the session's current target, the target is cleared; the next navigation establishes a new one.`,
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"tab_id": {
					"type": "integer",
					"description": "The tab to close"
				}
			},
			"required": ["tab_id"]
		}`),
		Handler: func(sess *session.Context, args json.RawMessage) (interface{}, error) {
			var params struct {
				TabID int `json:"tab_id"`
			}
			if err := json.Unmarshal(args, &params); err != nil {
				return nil, err
			}
			if params.TabID == 0 {
				return nil, fmt.Errorf("tab_id is required")
			}

			ctx, cancel := handlerContext()
			defer cancel()

			if err := s.deps.Bridge.CloseTab(ctx, params.TabID); err != nil {
				return nil, err
			}
			sess.ClearTargetIf(params.TabID)

			s.deps.EventBus.Publish(events.Event{
				Type:  events.TabClosed,
				TabID: params.TabID,
			})
			return textResult(fmt.Sprintf("✅ Closed tab %d", params.TabID)), nil
		},
	}
}
