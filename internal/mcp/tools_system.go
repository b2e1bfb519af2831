package mcp

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tabpilot/tabpilot/internal/session"
)

func (s *StreamableServer) registerSystemTools() {
	// downloads_list - List downloads
	s.tools["downloads_list"] = MCPTool{
		Name: "downloads_list",
		Description: `List entries on the browser download shelf with their progress and state.

**When to use:**
- User asks "did that download finish?"
- Before downloads_cancel to find the download ID
- Monitoring a large download the user kicked off

**Few-shot examples:**
1. User: "Is the ISO done downloading?"
   → Use: downloads_list with {}

**States:** in_progress, interrupted, complete.`,
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

			downloads, err := s.deps.Bridge.Downloads(ctx)
			if err != nil {
				return nil, err
			}

			if params.wantsJSON() {
				return jsonResult(map[string]interface{}{"downloads": downloads})
			}

			if len(downloads) == 0 {
				return textResult("The download shelf is empty."), nil
			}

			var b strings.Builder
			fmt.Fprintf(&b, "## Downloads (%d)\n\n", len(downloads))
			for _, d := range downloads {
				progress := ""
				if d.State == "in_progress" && d.TotalBytes > 0 {
					progress = fmt.Sprintf(" (%.0f%%)", float64(d.BytesReceived)/float64(d.TotalBytes)*100)
				}
				fmt.Fprintf(&b, "- [%d] %s: %s%s\n", d.ID, d.Filename, d.State, progress)
			}
			return textResult(b.String()), nil
		},
	}

	// downloads_cancel - Cancel a download
	s.tools["downloads_cancel"] = MCPTool{
		Name: "downloads_cancel",
		Description: `Cancel an in-progress download.

**When to use:**
- User asks to stop a download: "cancel that", "I grabbed the wrong file"

**Few-shot examples:**
1. User: "Cancel the ISO download"
   → First: downloads_list to find the ID
   → Then: downloads_cancel with {"id": 12}`,
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"id": {
					"type": "integer",
					"description": "The download ID"
				}
			},
			"required": ["id"]
		}`),
		Handler: func(sess *session.Context, args json.RawMessage) (interface{}, error) {
			var params struct {
				ID int `json:"id"`
			}
			if err := json.Unmarshal(args, &params); err != nil {
				return nil, err
			}
			if params.ID == 0 {
				return nil, fmt.Errorf("id is required")
			}

			ctx, cancel := handlerContext()
			defer cancel()

			if err := s.deps.Bridge.CancelDownload(ctx, params.ID); err != nil {
				return nil, err
			}
			return textResult(fmt.Sprintf("✅ Cancelled download %d", params.ID)), nil
		},
	}

	// windows_list - List browser windows
	s.tools["windows_list"] = MCPTool{
		Name: "windows_list",
		Description: `List browser windows with their placement and state.

**When to use:**
- User asks "how many windows do I have open?"
- Diagnosing which window a tab lives in (tabs carry a windowId)

**Few-shot examples:**
1. User: "Which window is focused?"
   → Use: windows_list with {}`,
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

			windows, err := s.deps.Bridge.Windows(ctx)
			if err != nil {
				return nil, err
			}

			if params.wantsJSON() {
				return jsonResult(map[string]interface{}{"windows": windows})
			}

			var b strings.Builder
			fmt.Fprintf(&b, "## Windows (%d)\n\n", len(windows))
			for _, w := range windows {
				focused := ""
				if w.Focused {
					focused = " (focused)"
				}
				fmt.Fprintf(&b, "- [%d] %s%s, %dx%d at (%d, %d)\n", w.ID, w.State, focused, w.Width, w.Height, w.Left, w.Top)
			}
			return textResult(b.String()), nil
		},
	}

	// displays_list - List displays
	s.tools["displays_list"] = MCPTool{
		Name: "displays_list",
		Description: `List connected displays with their resolutions.

**When to use:**
- User asks about their monitor setup
- Before suggesting window placement across monitors

**Few-shot examples:**
1. User: "What monitors am I running?"
   → Use: displays_list with {}`,
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

			displays, err := s.deps.Bridge.Displays(ctx)
			if err != nil {
				return nil, err
			}

			if params.wantsJSON() {
				return jsonResult(map[string]interface{}{"displays": displays})
			}

			var b strings.Builder
			fmt.Fprintf(&b, "## Displays (%d)\n\n", len(displays))
			for _, d := range displays {
				primary := ""
				if d.Primary {
					primary = " (primary)"
				}
				fmt.Fprintf(&b, "- %s%s: %dx%d\n", d.Name, primary, d.Width, d.Height)
			}
			return textResult(b.String()), nil
		},
	}

	// terminal_spawn - Launch a terminal
	s.tools["terminal_spawn"] = MCPTool{
		Name: "terminal_spawn",
		Description: `Launch a terminal window using a configured launch profile.

**When to use:**
- User asks for a shell: "open a terminal here", "give me a terminal in the project dir"
- Handing off to interactive work the browser can't do

**Profiles:** Profiles are configured on the bridge side (command plus arguments). With no profile the user's configured default is used. Pass list_profiles to see what is available.

**Few-shot examples:**
1. User: "Open a terminal in my project"
   → Use: terminal_spawn with {"cwd": "/home/user/project"}

2. User: "What terminal profiles do I have?"
   → Use: terminal_spawn with {"list_profiles": true}`,
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"profile": {
					"type": "string",
					"description": "Launch profile name (default: configured default)"
				},
				"cwd": {
					"type": "string",
					"description": "Working directory for the new terminal"
				},
				"list_profiles": {
					"type": "boolean",
					"description": "List available profiles instead of spawning"
				}
			}
		}`),
		Handler: func(sess *session.Context, args json.RawMessage) (interface{}, error) {
			var params struct {
				Profile      string `json:"profile"`
				Cwd          string `json:"cwd"`
				ListProfiles bool   `json:"list_profiles"`
			}
			if len(args) > 0 {
				if err := json.Unmarshal(args, &params); err != nil {
					return nil, err
				}
			}

			ctx, cancel := handlerContext()
			defer cancel()

			if params.ListProfiles {
				profiles, err := s.deps.Bridge.TerminalProfiles(ctx)
				if err != nil {
					return nil, err
				}
				if len(profiles) == 0 {
					return textResult("No terminal profiles are configured."), nil
				}
				var b strings.Builder
				b.WriteString("## Terminal profiles\n\n")
				for _, p := range profiles {
					fmt.Fprintf(&b, "- %s: `%s %s`\n", p.Name, p.Command, strings.Join(p.Args, " "))
				}
				return textResult(b.String()), nil
			}

			profile := params.Profile
			if profile == "" {
				profile = s.deps.Config().Terminal.DefaultProfile
			}

			pid, err := s.deps.Bridge.SpawnTerminal(ctx, profile, params.Cwd)
			if err != nil {
				return nil, err
			}
			return textResult(fmt.Sprintf("✅ Terminal launched (pid %d)", pid)), nil
		},
	}
}
