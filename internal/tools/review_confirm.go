package tools

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/reconstitutechrist-rgb/brainstorm/internal/finalize"
	"github.com/reconstitutechrist-rgb/brainstorm/internal/review"
)

// ReviewConfirmTool handles the review_confirm MCP tool. It runs the
// finalize commit for a review awaiting confirmation.
type ReviewConfirmTool struct {
	coordinator *review.Coordinator
	finalizer   *finalize.Finalizer
}

// NewReviewConfirmTool creates a ReviewConfirmTool.
func NewReviewConfirmTool(c *review.Coordinator, f *finalize.Finalizer) *ReviewConfirmTool {
	return &ReviewConfirmTool{coordinator: c, finalizer: f}
}

// Definition returns the MCP tool definition for registration.
func (t *ReviewConfirmTool) Definition() mcp.Tool {
	return mcp.NewTool("review_confirm",
		mcp.WithDescription(
			"Finalize the review after the user explicitly confirmed the "+
				"decision preview. Creates the session record, generates summary "+
				"documents, refreshes project documents, and appends accepted "+
				"ideas to the project. Call this only on an explicit user "+
				"confirmation.",
		),
		mcp.WithString("conversation_id",
			mcp.Required(),
			mcp.Description("Conversation under review."),
		),
	)
}

// Handle processes the review_confirm tool call.
func (t *ReviewConfirmTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	conversationID, err := req.RequireString("conversation_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	r, err := t.coordinator.Confirm(conversationID)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	summary, err := t.finalizer.Finalize(ctx, conversationID, r.Decisions)
	if errors.Is(err, finalize.ErrAlreadyFinalized) {
		// Another finalize won; retire the review so it cannot retry.
		_ = t.coordinator.MarkFinalized(conversationID)
		return mcp.NewToolResultError("This conversation was already finalized."), nil
	}
	if err != nil {
		// The review stays in Confirmation, so a retry is possible once
		// the underlying failure is resolved.
		return mcp.NewToolResultError(fmt.Sprintf("Finalize failed (review left retryable): %v", err)), nil
	}

	if err := t.coordinator.MarkFinalized(conversationID); err != nil {
		return nil, fmt.Errorf("retiring review: %w", err)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "# Session finalized\n\n**%s**\n\n", summary.SessionName)
	fmt.Fprintf(&sb, "- Accepted: %d → %d project items added\n", summary.AcceptedCount, summary.ProjectItemsAdded)
	fmt.Fprintf(&sb, "- Rejected: %d\n", summary.RejectedCount)
	fmt.Fprintf(&sb, "- Set aside: %d\n", summary.UnmarkedCount)
	fmt.Fprintf(&sb, "- Documents generated: %d, updated: %d\n", len(summary.GeneratedDocumentIDs), len(summary.UpdatedDocumentIDs))
	fmt.Fprintf(&sb, "\nSession record: `%s`\n", summary.SessionRecordID)
	return mcp.NewToolResultText(sb.String()), nil
}
