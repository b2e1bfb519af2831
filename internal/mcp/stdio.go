package mcp

import (
	"context"
	"encoding/json"

	mcplib "github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// ServeStdio exposes the same tool registry over stdin/stdout for MCP
// clients that launch the daemon as a subprocess instead of connecting
// to the HTTP transport. All stdio calls share one session.
func (s *StreamableServer) ServeStdio() error {
	srv := server.NewMCPServer(s.serverInfo.Name, s.serverInfo.Version,
		server.WithToolCapabilities(true),
	)

	sess := s.deps.Sessions.GetOrCreate("stdio")

	for name, tool := range s.tools {
		handler := tool.Handler
		srv.AddTool(
			mcplib.NewToolWithRawSchema(name, tool.Description, tool.InputSchema),
			func(ctx context.Context, request mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
				args, err := json.Marshal(request.GetArguments())
				if err != nil {
					return mcplib.NewToolResultError(err.Error()), nil
				}

				sess.RecordToolCall()
				result, err := handler(sess, args)
				if err != nil {
					sess.RecordError(err)
					return mcplib.NewToolResultError(err.Error()), nil
				}
				return convertToolResult(result), nil
			},
		)
	}

	return server.ServeStdio(srv)
}

// convertToolResult maps the HTTP transport's result shape onto the
// mcp-go content types.
func convertToolResult(result interface{}) *mcplib.CallToolResult {
	data, err := json.Marshal(result)
	if err != nil {
		return mcplib.NewToolResultError(err.Error())
	}

	var envelope struct {
		Content []struct {
			Type     string `json:"type"`
			Text     string `json:"text"`
			Data     string `json:"data"`
			MimeType string `json:"mimeType"`
		} `json:"content"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil || len(envelope.Content) == 0 {
		// Not the content shape, return the raw JSON as text.
		return mcplib.NewToolResultText(string(data))
	}

	out := &mcplib.CallToolResult{}
	for _, c := range envelope.Content {
		switch c.Type {
		case "image":
			out.Content = append(out.Content, mcplib.ImageContent{
				Type:     "image",
				Data:     c.Data,
				MIMEType: c.MimeType,
			})
		default:
			out.Content = append(out.Content, mcplib.TextContent{
				Type: "text",
				Text: c.Text,
			})
		}
	}
	return out
}
