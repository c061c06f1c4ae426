package tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/reconstitutechrist-rgb/brainstorm/internal/review"
)

// ReviewDecideTool handles the review_decide MCP tool. It parses the
// user's free-text decision statement against the tracked ideas.
type ReviewDecideTool struct {
	coordinator *review.Coordinator
}

// NewReviewDecideTool creates a ReviewDecideTool.
func NewReviewDecideTool(c *review.Coordinator) *ReviewDecideTool {
	return &ReviewDecideTool{coordinator: c}
}

// Definition returns the MCP tool definition for registration.
func (t *ReviewDecideTool) Definition() mcp.Tool {
	return mcp.NewTool("review_decide",
		mcp.WithDescription(
			"Record the user's decisions for the review in one free-text "+
				"statement (e.g. \"accept the auth ideas, reject dark mode, park "+
				"the rest\"). Returns either a clarification question or a "+
				"confirmation preview.",
		),
		mcp.WithString("conversation_id",
			mcp.Required(),
			mcp.Description("Conversation under review."),
		),
		mcp.WithString("statement",
			mcp.Required(),
			mcp.Description("The user's decision statement, verbatim."),
		),
	)
}

// Handle processes the review_decide tool call.
func (t *ReviewDecideTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	conversationID, err := req.RequireString("conversation_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	statement, err := req.RequireString("statement")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	r, err := t.coordinator.Decide(ctx, conversationID, statement)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(reviewOutcome(r)), nil
}

// reviewOutcome renders the post-parse state: a clarification question
// or the confirmation preview.
func reviewOutcome(r *review.Review) string {
	d := r.Decisions
	if r.State == review.StateClarification {
		return fmt.Sprintf(
			"# Clarification needed\n\n%s\n\nRelay the question to the user and "+
				"call `review_clarify` with their reply.",
			d.ClarificationQuestion,
		)
	}
	return fmt.Sprintf(
		"# Ready to finalize\n\n%s"+
			"Present this to the user. Call `review_confirm` ONLY after they "+
			"explicitly confirm — never infer confirmation from tone.",
		decisionListing(d.Accepted, d.Rejected, d.Unmarked),
	)
}
