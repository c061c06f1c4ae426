// Package prompts implements MCP prompt handlers for the brainstorm
// engine.
//
// MCP prompts are user-triggered workflows (like slash commands) that
// instruct the AI to execute a specific sequence. Unlike tools (which
// the AI calls), prompts are initiated by the user.
package prompts

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

// ReviewPrompt handles the brainstorm-review MCP prompt. It guides the
// AI through the end-of-session review: present the tracked ideas,
// collect decisions, clarify until unambiguous, and finalize only on
// explicit confirmation.
type ReviewPrompt struct{}

// NewReviewPrompt creates a ReviewPrompt.
func NewReviewPrompt() *ReviewPrompt {
	return &ReviewPrompt{}
}

// Definition returns the MCP prompt definition for registration.
func (p *ReviewPrompt) Definition() mcp.Prompt {
	return mcp.NewPrompt("brainstorm-review",
		mcp.WithPromptDescription(
			"Wrap up the brainstorm session. Reviews every idea captured this "+
				"session with the user, records their accept/reject decisions, and "+
				"finalizes the session once they confirm.",
		),
		mcp.WithArgument("conversation_id",
			mcp.ArgumentDescription("Conversation to review"),
		),
	)
}

// Handle processes the brainstorm-review prompt request.
func (p *ReviewPrompt) Handle(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	conversationID := ""
	if args := req.Params.Arguments; args != nil {
		conversationID = args["conversation_id"]
	}

	idClause := "the current conversation"
	idArg := "the current conversation's ID"
	if conversationID != "" {
		idClause = fmt.Sprintf("conversation '%s'", conversationID)
		idArg = fmt.Sprintf("conversation_id='%s'", conversationID)
	}

	return &mcp.GetPromptResult{
		Description: fmt.Sprintf("Review and finalize %s", idClause),
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.NewTextContent(fmt.Sprintf(
					"I'm ready to wrap up this brainstorm session for %s.\n\n"+
						"Please:\n"+
						"1. Run `review_start` with %s and show me the grouped idea summary\n"+
						"2. Ask me what to do with each idea, then run `review_decide` with my answer\n"+
						"3. If anything comes back as a clarification question, relay it to me and run `review_clarify` with my reply\n"+
						"4. Show me the final accept/reject breakdown and ask me to confirm\n"+
						"5. Run `review_confirm` ONLY after I explicitly confirm — if I change my mind, run `review_cancel` instead",
					idClause, idArg,
				)),
			},
		},
	}, nil
}
