package tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/reconstitutechrist-rgb/brainstorm/internal/review"
)

// ReviewClarifyTool handles the review_clarify MCP tool. It appends one
// clarification reply to the accumulated decision statement and
// re-parses. Rounds repeat until nothing remains ambiguous.
type ReviewClarifyTool struct {
	coordinator *review.Coordinator
}

// NewReviewClarifyTool creates a ReviewClarifyTool.
func NewReviewClarifyTool(c *review.Coordinator) *ReviewClarifyTool {
	return &ReviewClarifyTool{coordinator: c}
}

// Definition returns the MCP tool definition for registration.
func (t *ReviewClarifyTool) Definition() mcp.Tool {
	return mcp.NewTool("review_clarify",
		mcp.WithDescription(
			"Answer the pending clarification question with the user's reply. "+
				"The reply is combined with everything said so far, so the user "+
				"only needs to address what was asked.",
		),
		mcp.WithString("conversation_id",
			mcp.Required(),
			mcp.Description("Conversation under review."),
		),
		mcp.WithString("reply",
			mcp.Required(),
			mcp.Description("The user's clarification reply, verbatim."),
		),
	)
}

// Handle processes the review_clarify tool call.
func (t *ReviewClarifyTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	conversationID, err := req.RequireString("conversation_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	reply, err := req.RequireString("reply")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	r, err := t.coordinator.Clarify(ctx, conversationID, reply)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(reviewOutcome(r)), nil
}
