package mcp

import (
	"encoding/json"
	"fmt"

	"github.com/tabpilot/tabpilot/internal/session"
	"github.com/tabpilot/tabpilot/pkg/events"
)

func (s *StreamableServer) registerMediaTools() {
	// screenshot - Capture a tab
	s.tools["screenshot"] = MCPTool{
		Name: "screenshot",
		Description: `Capture a screenshot of a browser tab and return it as an image.

**When to use:**
- User asks "what does the page look like?", "show me the current state"
- Verifying a UI change after navigation
- Capturing visual evidence of an error state

**Target selection:**
With no tab_id, the session's current target tab is captured (the tab the last navigation established). Pass tab_id to capture a specific tab; use tabs_list to find it.

**Few-shot examples:**
1. User: "Take a screenshot"
   → Use: screenshot with {}

2. User: "Screenshot the dashboard tab"
   → First: tabs_list to find the tab
   → Then: screenshot with {"tab_id": 4}

3. User: "Capture the whole page, not just the viewport"
   → Use: screenshot with {"full_page": true}

**Parameters:**
- format: "png" (default) or "jpeg"
- quality: 1-100, only applies to jpeg
- full_page: capture beyond the viewport`,
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"tab_id": {
					"type": "integer",
					"description": "Tab to capture (default: the session's current target)"
				},
				"format": {
					"type": "string",
					"enum": ["png", "jpeg"],
					"description": "Image format (default png)"
				},
				"quality": {
					"type": "integer",
					"description": "JPEG quality 1-100"
				},
				"full_page": {
					"type": "boolean",
					"description": "Capture the full page instead of the viewport"
				}
			}
		}`),
		Handler: func(sess *session.Context, args json.RawMessage) (interface{}, error) {
			var params struct {
				TabID    int    `json:"tab_id"`
				Format   string `json:"format"`
				Quality  int    `json:"quality"`
				FullPage bool   `json:"full_page"`
			}
			if len(args) > 0 {
				if err := json.Unmarshal(args, &params); err != nil {
					return nil, err
				}
			}

			tabID := params.TabID
			if tabID == 0 {
				if target, ok := sess.CurrentTarget(); ok {
					tabID = target
				}
			}

			format := params.Format
			if format == "" {
				format = "png"
			}
			quality := params.Quality
			if format == "jpeg" && quality == 0 {
				quality = 90
			}

			ctx, cancel := handlerContext()
			defer cancel()

			shot, err := s.deps.Bridge.CaptureScreenshot(ctx, tabID, format, quality, params.FullPage)
			if err != nil {
				return nil, err
			}

			mimeType := shot.MimeType
			if mimeType == "" {
				mimeType = "image/" + format
			}
			return imageResult(shot.Data, mimeType), nil
		},
	}

	// notify - Desktop notification
	s.tools["notify"] = MCPTool{
		Name: "notify",
		Description: `Show a desktop notification through the browser.

**When to use:**
- A long-running task finished and the user asked to be told
- Alerting the user to something that needs attention while they work elsewhere
- NEVER for routine progress updates - notifications interrupt the user

**Few-shot examples:**
1. User: "Let me know when the build page shows green"
   → After polling: notify with {"title": "Build finished", "message": "Pipeline #812 passed"}`,
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"title": {
					"type": "string",
					"description": "Notification title"
				},
				"message": {
					"type": "string",
					"description": "Notification body"
				}
			},
			"required": ["title", "message"]
		}`),
		Handler: func(sess *session.Context, args json.RawMessage) (interface{}, error) {
			var params struct {
				Title   string `json:"title"`
				Message string `json:"message"`
			}
			if err := json.Unmarshal(args, &params); err != nil {
				return nil, err
			}
			if params.Title == "" || params.Message == "" {
				return nil, fmt.Errorf("title and message are required")
			}

			ctx, cancel := handlerContext()
			defer cancel()

			id, err := s.deps.Bridge.Notify(ctx, params.Title, params.Message)
			if err != nil {
				return nil, err
			}

			s.deps.EventBus.Publish(events.Event{
				Type: events.NotificationSent,
				Data: map[string]interface{}{"id": id, "title": params.Title},
			})
			return textResult(fmt.Sprintf("✅ Notification shown (id %s)", id)), nil
		},
	}

	// tts_speak - Read text aloud
	s.tools["tts_speak"] = MCPTool{
		Name: "tts_speak",
		Description: `Read text aloud through the browser's speech synthesis.

**When to use:**
- User asks to have something read out: "read that to me"
- Accessibility workflows where the user prefers audio

**Few-shot examples:**
1. User: "Read me the summary"
   → Use: tts_speak with {"text": "<the summary text>"}

2. User: "Read it slower"
   → Use: tts_speak with {"text": "...", "rate": 0.8}

**Parameters:** voice and rate default to the user's configured values. rate 1.0 is normal speed.`,
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"text": {
					"type": "string",
					"description": "Text to speak"
				},
				"voice": {
					"type": "string",
					"description": "Voice name (default: configured voice)"
				},
				"rate": {
					"type": "number",
					"description": "Speech rate, 1.0 is normal"
				}
			},
			"required": ["text"]
		}`),
		Handler: func(sess *session.Context, args json.RawMessage) (interface{}, error) {
			var params struct {
				Text  string  `json:"text"`
				Voice string  `json:"voice"`
				Rate  float64 `json:"rate"`
			}
			if err := json.Unmarshal(args, &params); err != nil {
				return nil, err
			}
			if params.Text == "" {
				return nil, fmt.Errorf("text is required")
			}

			cfg := s.deps.Config()
			voice := params.Voice
			if voice == "" {
				voice = cfg.TTS.Voice
			}
			rate := params.Rate
			if rate == 0 {
				rate = cfg.TTS.Rate
			}

			ctx, cancel := handlerContext()
			defer cancel()

			if err := s.deps.Bridge.Speak(ctx, params.Text, voice, rate); err != nil {
				return nil, err
			}
			return textResult("🔊 Speaking."), nil
		},
	}

	// tts_stop - Stop speech
	s.tools["tts_stop"] = MCPTool{
		Name: "tts_stop",
		Description: `Stop any in-progress speech synthesis immediately.

**When to use:**
- User says "stop", "that's enough"
- Before starting a new tts_speak so outputs don't overlap`,
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {}
		}`),
		Handler: func(sess *session.Context, args json.RawMessage) (interface{}, error) {
			ctx, cancel := handlerContext()
			defer cancel()

			if err := s.deps.Bridge.StopSpeaking(ctx); err != nil {
				return nil, err
			}
			return textResult("🔇 Speech stopped."), nil
		},
	}
}
