package tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/reconstitutechrist-rgb/brainstorm/internal/review"
	"github.com/reconstitutechrist-rgb/brainstorm/internal/store"
)

// IdeasTool handles the brainstorm_ideas MCP tool. It lists a
// conversation's tracked ideas grouped by topic.
type IdeasTool struct {
	store *store.Store
}

// NewIdeasTool creates an IdeasTool.
func NewIdeasTool(s *store.Store) *IdeasTool {
	return &IdeasTool{store: s}
}

// Definition returns the MCP tool definition for registration.
func (t *IdeasTool) Definition() mcp.Tool {
	return mcp.NewTool("brainstorm_ideas",
		mcp.WithDescription(
			"List the ideas tracked for a conversation, grouped by topic. "+
				"Use this to show the user what has been captured so far.",
		),
		mcp.WithString("conversation_id",
			mcp.Required(),
			mcp.Description("Conversation whose ideas to list."),
		),
	)
}

// Handle processes the brainstorm_ideas tool call.
func (t *IdeasTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	conversationID, err := req.RequireString("conversation_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	ideas, err := t.store.ListIdeas(conversationID)
	if err != nil {
		return nil, fmt.Errorf("loading ideas: %w", err)
	}
	if len(ideas) == 0 {
		return mcp.NewToolResultText("No ideas tracked for this conversation yet."), nil
	}

	groups := review.GroupIdeas(ideas)
	response := fmt.Sprintf("# Tracked ideas (%d)\n\n%s", len(ideas), groupListing(groups))
	return mcp.NewToolResultText(response), nil
}
