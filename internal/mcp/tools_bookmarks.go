package mcp

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tabpilot/tabpilot/internal/bridge"
	"github.com/tabpilot/tabpilot/internal/session"
)

func (s *StreamableServer) registerBookmarkTools() {
	// bookmarks_list - List all bookmarks
	s.tools["bookmarks_list"] = MCPTool{
		Name: "bookmarks_list",
		Description: `List all browser bookmarks as a flattened tree.

**When to use:**
- User asks "what have I bookmarked?"
- Before bookmarks_remove to find the bookmark ID
- To check whether a page is already bookmarked before adding it

**Few-shot examples:**
1. User: "Show my bookmarks"
   → Use: bookmarks_list with {}`,
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

			bookmarks, err := s.deps.Bridge.Bookmarks(ctx)
			if err != nil {
				return nil, err
			}

			if params.wantsJSON() {
				return jsonResult(map[string]interface{}{"bookmarks": bookmarks})
			}
			return textResult(renderBookmarksMarkdown(bookmarks)), nil
		},
	}

	// bookmarks_search - Search bookmarks
	s.tools["bookmarks_search"] = MCPTool{
		Name: "bookmarks_search",
		Description: `Search bookmarks by title and URL substring.

**When to use:**
- User asks "do I have that article bookmarked?"
- Finding a bookmark without listing everything

**Few-shot examples:**
1. User: "Find my Kubernetes bookmarks"
   → Use: bookmarks_search with {"query": "kubernetes"}`,
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"query": {
					"type": "string",
					"description": "Text to match against titles and URLs"
				},
				"response_format": {
					"type": "string",
					"enum": ["markdown", "json"],
					"description": "Output format (default markdown)"
				}
			},
			"required": ["query"]
		}`),
		Handler: func(sess *session.Context, args json.RawMessage) (interface{}, error) {
			var params struct {
				Query string `json:"query"`
				responseFormat
			}
			if err := json.Unmarshal(args, &params); err != nil {
				return nil, err
			}
			if params.Query == "" {
				return nil, fmt.Errorf("query is required")
			}

			ctx, cancel := handlerContext()
			defer cancel()

			bookmarks, err := s.deps.Bridge.SearchBookmarks(ctx, params.Query)
			if err != nil {
				return nil, err
			}

			if params.wantsJSON() {
				return jsonResult(map[string]interface{}{"bookmarks": bookmarks})
			}
			return textResult(renderBookmarksMarkdown(bookmarks)), nil
		},
	}

	// bookmarks_add - Create a bookmark
	s.tools["bookmarks_add"] = MCPTool{
		Name: "bookmarks_add",
		Description: `Create a bookmark.

**When to use:**
- User says "bookmark this", "save that page for later"
- After a navigation the user wants to keep

**Few-shot examples:**
1. User: "Bookmark the Go blog"
   → Use: bookmarks_add with {"title": "The Go Blog", "url": "https://go.dev/blog"}

**Parameters:** parent_id places the bookmark inside an existing folder; omit it for the default folder.`,
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"title": {
					"type": "string",
					"description": "Bookmark title"
				},
				"url": {
					"type": "string",
					"description": "Bookmark URL"
				},
				"parent_id": {
					"type": "string",
					"description": "Folder to place the bookmark in"
				}
			},
			"required": ["title", "url"]
		}`),
		Handler: func(sess *session.Context, args json.RawMessage) (interface{}, error) {
			var params struct {
				Title    string `json:"title"`
				URL      string `json:"url"`
				ParentID string `json:"parent_id"`
			}
			if err := json.Unmarshal(args, &params); err != nil {
				return nil, err
			}
			if params.Title == "" || params.URL == "" {
				return nil, fmt.Errorf("title and url are required")
			}

			ctx, cancel := handlerContext()
			defer cancel()

			bm, err := s.deps.Bridge.AddBookmark(ctx, params.Title, params.URL, params.ParentID)
			if err != nil {
				return nil, err
			}
			return textResult(fmt.Sprintf("✅ Bookmarked %s as \"%s\" (id %s)", bm.URL, bm.Title, bm.ID)), nil
		},
	}

	// bookmarks_remove - Delete a bookmark
	s.tools["bookmarks_remove"] = MCPTool{
		Name: "bookmarks_remove",
		Description: `Delete a bookmark by ID.

**When to use:**
- User asks to remove a bookmark
- Cleaning up after bookmarks_search identified duplicates

**Few-shot examples:**
1. User: "Remove that old bookmark"
   → First: bookmarks_search to find the ID
   → Then: bookmarks_remove with {"id": "42"}`,
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"id": {
					"type": "string",
					"description": "The bookmark ID"
				}
			},
			"required": ["id"]
		}`),
		Handler: func(sess *session.Context, args json.RawMessage) (interface{}, error) {
			var params struct {
				ID string `json:"id"`
			}
			if err := json.Unmarshal(args, &params); err != nil {
				return nil, err
			}
			if params.ID == "" {
				return nil, fmt.Errorf("id is required")
			}

			ctx, cancel := handlerContext()
			defer cancel()

			if err := s.deps.Bridge.RemoveBookmark(ctx, params.ID); err != nil {
				return nil, err
			}
			return textResult(fmt.Sprintf("✅ Removed bookmark %s", params.ID)), nil
		},
	}
}

func renderBookmarksMarkdown(bookmarks []bridge.Bookmark) string {
	if len(bookmarks) == 0 {
		return "No bookmarks found."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "## Bookmarks (%d)\n\n", len(bookmarks))
	for _, bm := range bookmarks {
		if bm.URL == "" {
			// Folder node
			fmt.Fprintf(&b, "- 📁 %s (id %s)\n", bm.Title, bm.ID)
			continue
		}
		fmt.Fprintf(&b, "- [%s](%s) (id %s)\n", bm.Title, bm.URL, bm.ID)
	}
	return b.String()
}
