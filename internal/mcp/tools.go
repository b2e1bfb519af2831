package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/tabpilot/tabpilot/internal/gatekeeper"
	"github.com/tabpilot/tabpilot/internal/session"
	"github.com/tabpilot/tabpilot/pkg/events"
)

// handleToolsList handles the tools/list request
func (s *StreamableServer) handleToolsList(msg *JSONRPCMessage) *JSONRPCMessage {
	tools := make([]map[string]interface{}, 0)
	for name, tool := range s.tools {
		toolInfo := map[string]interface{}{
			"name":        name,
			"description": tool.Description,
		}
		if tool.InputSchema != nil {
			var schema interface{}
			if err := json.Unmarshal(tool.InputSchema, &schema); err == nil {
				toolInfo["inputSchema"] = schema
			}
		}
		tools = append(tools, toolInfo)
	}

	return &JSONRPCMessage{
		Jsonrpc: "2.0",
		ID:      msg.ID,
		Result: map[string]interface{}{
			"tools": tools,
		},
	}
}

// handleToolCall handles the tools/call request
func (s *StreamableServer) handleToolCall(msg *JSONRPCMessage, sess *session.Context) *JSONRPCMessage {
	var params struct {
		Name      string          `json:"name"`
		Arguments json.RawMessage `json:"arguments"`
	}

	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return s.createErrorResponse(msg.ID, -32602, "Invalid params", err.Error())
	}

	tool, exists := s.tools[params.Name]
	if !exists {
		return s.createErrorResponse(msg.ID, -32602, "Tool not found", fmt.Sprintf("Tool '%s' not found", params.Name))
	}

	sess.RecordToolCall()
	s.deps.EventBus.Publish(events.Event{
		Type: events.MCPActivity,
		Data: map[string]interface{}{
			"sessionId": sess.ID,
			"tool":      params.Name,
		},
	})

	result, err := tool.Handler(sess, params.Arguments)
	if err != nil {
		sess.RecordError(err)
		return s.createErrorResponse(msg.ID, -32000, "Tool execution failed", err.Error())
	}

	return &JSONRPCMessage{
		Jsonrpc: "2.0",
		ID:      msg.ID,
		Result:  result,
	}
}

// registerTools registers all available MCP tools
func (s *StreamableServer) registerTools() {
	// Navigation with allow-list enforcement
	s.registerNavigateTool()

	// Tab management tools
	s.registerTabTools()

	// Cookie tools
	s.registerCookieTools()

	// Bookmark tools
	s.registerBookmarkTools()

	// Screenshot, notification, and TTS tools
	s.registerMediaTools()

	// Network capture tools
	s.registerNetworkTools()

	// Downloads, windows, displays, terminal
	s.registerSystemTools()
}

// handlerContext bounds one tool invocation against a stuck bridge.
func handlerContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 30*time.Second)
}

// textResult wraps plain text in the tool result content shape.
func textResult(text string) interface{} {
	return map[string]interface{}{
		"content": []map[string]interface{}{
			{"type": "text", "text": text},
		},
	}
}

// jsonResult renders v as indented JSON text content.
func jsonResult(v interface{}) (interface{}, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return textResult(string(data)), nil
}

// imageResult wraps base64 image data in the tool result content shape.
func imageResult(data, mimeType string) interface{} {
	return map[string]interface{}{
		"content": []map[string]interface{}{
			{"type": "image", "data": data, "mimeType": mimeType},
		},
	}
}

// responseFormat is the shared markdown/json switch. Markdown is the
// default because tool output is read by humans via the client.
type responseFormat struct {
	ResponseFormat string `json:"response_format"`
}

func (f responseFormat) wantsJSON() bool {
	return f.ResponseFormat == "json"
}

// effectiveSettings merges the provider-reported settings with the
// locally configured extensions. Local custom domains are appended so
// neither list can shadow the other.
func (s *StreamableServer) effectiveSettings(ctx context.Context) gatekeeper.Settings {
	settings := s.deps.Settings.Get(ctx)

	cfg := s.deps.Config()
	if cfg.Navigation.AllowAllURLs {
		settings.AllowAllURLs = true
	}
	if local := cfg.CustomDomainsBlock(); local != "" {
		if settings.CustomDomains != "" {
			settings.CustomDomains += "\n"
		}
		settings.CustomDomains += local
	}
	return settings
}
