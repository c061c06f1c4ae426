package tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/reconstitutechrist-rgb/brainstorm/internal/review"
	"github.com/reconstitutechrist-rgb/brainstorm/internal/store"
)

// ReviewCancelTool handles the review_cancel MCP tool. It abandons an
// in-flight review and restores the conversation's pre-review status.
type ReviewCancelTool struct {
	store       *store.Store
	coordinator *review.Coordinator
}

// NewReviewCancelTool creates a ReviewCancelTool.
func NewReviewCancelTool(s *store.Store, c *review.Coordinator) *ReviewCancelTool {
	return &ReviewCancelTool{store: s, coordinator: c}
}

// Definition returns the MCP tool definition for registration.
func (t *ReviewCancelTool) Definition() mcp.Tool {
	return mcp.NewTool("review_cancel",
		mcp.WithDescription(
			"Abandon the in-flight review without finalizing. Nothing is "+
				"committed and the conversation returns to its pre-review status. "+
				"Not available once a decision preview awaits confirmation — the "+
				"user either confirms or keeps clarifying.",
		),
		mcp.WithString("conversation_id",
			mcp.Required(),
			mcp.Description("Conversation whose review to cancel."),
		),
	)
}

// Handle processes the review_cancel tool call.
func (t *ReviewCancelTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	conversationID, err := req.RequireString("conversation_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	previousStatus, err := t.coordinator.Cancel(conversationID)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if err := t.store.UpdateConversationStatus(conversationID, previousStatus); err != nil {
		return nil, fmt.Errorf("restoring conversation status: %w", err)
	}

	return mcp.NewToolResultText(fmt.Sprintf(
		"Review cancelled. Nothing was committed; the conversation is back to %q.",
		previousStatus,
	)), nil
}
