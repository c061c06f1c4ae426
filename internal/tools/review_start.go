package tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/reconstitutechrist-rgb/brainstorm/internal/review"
	"github.com/reconstitutechrist-rgb/brainstorm/internal/store"
)

// ReviewStartTool handles the review_start MCP tool. It opens the
// end-of-session review with a topic-grouped idea summary.
type ReviewStartTool struct {
	store       *store.Store
	coordinator *review.Coordinator
}

// NewReviewStartTool creates a ReviewStartTool.
func NewReviewStartTool(s *store.Store, c *review.Coordinator) *ReviewStartTool {
	return &ReviewStartTool{store: s, coordinator: c}
}

// Definition returns the MCP tool definition for registration.
func (t *ReviewStartTool) Definition() mcp.Tool {
	return mcp.NewTool("review_start",
		mcp.WithDescription(
			"Start the end-of-session review for a conversation. Returns the "+
				"tracked ideas grouped by topic; present the listing to the user "+
				"and collect their decisions, then call review_decide.",
		),
		mcp.WithString("conversation_id",
			mcp.Required(),
			mcp.Description("Conversation to review."),
		),
	)
}

// Handle processes the review_start tool call.
func (t *ReviewStartTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	conversationID, err := req.RequireString("conversation_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	conv, err := t.store.GetConversation(conversationID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Conversation %q not found: %v", conversationID, err)), nil
	}
	if conv.SessionStatus == store.ConversationCompleted {
		return mcp.NewToolResultError("This conversation was already finalized."), nil
	}

	ideas, err := t.store.ListIdeas(conversationID)
	if err != nil {
		return nil, fmt.Errorf("loading ideas: %w", err)
	}
	if len(ideas) == 0 {
		return mcp.NewToolResultError("No ideas tracked for this conversation — nothing to review."), nil
	}

	r, err := t.coordinator.Start(conversationID, conv.SessionStatus, ideas)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if err := t.store.UpdateConversationStatus(conversationID, store.ConversationInReview); err != nil {
		return nil, fmt.Errorf("marking conversation in review: %w", err)
	}

	// Returning the listing presents the summary, so the review moves
	// straight to collecting decisions.
	if _, err := t.coordinator.Acknowledge(conversationID); err != nil {
		return nil, fmt.Errorf("advancing review: %w", err)
	}

	response := fmt.Sprintf(
		"# Session review\n\n%d ideas captured this session:\n\n%s\n"+
			"Ask the user what to do with each idea (accept, reject, or set aside — "+
			"topic names apply to the whole group), then call `review_decide` with "+
			"their statement. `review_cancel` abandons the review without changing anything.",
		len(r.Ideas), groupListing(r.Groups),
	)
	return mcp.NewToolResultText(response), nil
}
