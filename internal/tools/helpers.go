// Package tools implements the MCP tool handlers for the brainstorm
// engine.
//
// Each tool is a struct that receives its dependencies at construction
// and exposes a Definition for registration plus a Handle compatible
// with mcp-go's CallToolRequest signature. One file per tool.
package tools

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/reconstitutechrist-rgb/brainstorm/internal/idea"
	"github.com/reconstitutechrist-rgb/brainstorm/internal/store"
)

// ensureConversation loads the conversation, creating a default
// project → sandbox → conversation chain on first contact so the
// brainstorm tools work without any prior setup call. Only a missing
// row counts as first contact; any other store failure surfaces so a
// transient error never spawns a duplicate chain.
func ensureConversation(s *store.Store, conversationID string) (*store.Conversation, error) {
	conv, err := s.GetConversation(conversationID)
	if err == nil {
		return conv, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("loading conversation: %w", err)
	}

	projectID := uuid.NewString()
	if err := s.CreateProject(store.Project{ID: projectID, Name: "Brainstorm"}); err != nil {
		return nil, fmt.Errorf("creating default project: %w", err)
	}
	sandboxID := uuid.NewString()
	if err := s.CreateSandbox(store.Sandbox{ID: sandboxID, ProjectID: projectID, Name: "Exploration"}); err != nil {
		return nil, fmt.Errorf("creating default sandbox: %w", err)
	}
	if err := s.CreateConversation(store.Conversation{
		ID:            conversationID,
		SandboxID:     sandboxID,
		Title:         "Brainstorm session",
		SessionStatus: store.ConversationBrainstorming,
	}); err != nil {
		return nil, fmt.Errorf("creating conversation: %w", err)
	}
	return s.GetConversation(conversationID)
}

// groupListing renders topic groups as a markdown listing with one
// line per idea.
func groupListing(groups []idea.TopicGroup) string {
	var sb strings.Builder
	n := 0
	for _, g := range groups {
		fmt.Fprintf(&sb, "## %s %s\n\n", g.Icon, g.Topic)
		for _, i := range g.Ideas {
			n++
			fmt.Fprintf(&sb, "%d. **%s** — %s _(status: %s)_\n", n, i.Idea.Title, i.Idea.Description, i.Status)
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// decisionListing renders the three partition lists for a confirmation
// preview.
func decisionListing(accepted, rejected, unmarked []*idea.ExtractedIdea) string {
	var sb strings.Builder
	writeSet := func(header string, ideas []*idea.ExtractedIdea) {
		fmt.Fprintf(&sb, "**%s (%d)**\n", header, len(ideas))
		if len(ideas) == 0 {
			sb.WriteString("- none\n")
		}
		for _, i := range ideas {
			fmt.Fprintf(&sb, "- %s\n", i.Idea.Title)
		}
		sb.WriteString("\n")
	}
	writeSet("Accepted", accepted)
	writeSet("Rejected", rejected)
	writeSet("Set aside", unmarked)
	return sb.String()
}
