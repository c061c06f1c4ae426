package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/reconstitutechrist-rgb/brainstorm/internal/classify"
	"github.com/reconstitutechrist-rgb/brainstorm/internal/idea"
	"github.com/reconstitutechrist-rgb/brainstorm/internal/store"
)

// ClassifyTool handles the brainstorm_classify MCP tool. It turns one
// user utterance into decision-state transitions on tracked ideas and
// persists the results.
type ClassifyTool struct {
	store      *store.Store
	classifier *classify.Classifier
}

// NewClassifyTool creates a ClassifyTool.
func NewClassifyTool(s *store.Store, c *classify.Classifier) *ClassifyTool {
	return &ClassifyTool{store: s, classifier: c}
}

// Definition returns the MCP tool definition for registration.
func (t *ClassifyTool) Definition() mcp.Tool {
	return mcp.NewTool("brainstorm_classify",
		mcp.WithDescription(
			"Classify a user message into idea decision states (decided, exploring, "+
				"parked, rejected) and update the tracked ideas for the conversation. "+
				"Pass the assistant's previous message so short replies like \"yes, "+
				"let's do it\" and bulk approvals (\"I like all of these\") resolve "+
				"against what was just presented.",
		),
		mcp.WithString("conversation_id",
			mcp.Required(),
			mcp.Description("Conversation the message belongs to."),
		),
		mcp.WithString("message",
			mcp.Required(),
			mcp.Description("The user's message to classify."),
		),
		mcp.WithString("previous_assistant_message",
			mcp.Description("The assistant turn immediately before the message, if any."),
		),
		mcp.WithString("intent",
			mcp.Description("Workflow intent: deciding, modifying, brainstorming, exploring, or general. Default: general."),
		),
		mcp.WithString("topic",
			mcp.Description("Current conversation topic, used to group new ideas."),
		),
	)
}

// Handle processes the brainstorm_classify tool call.
func (t *ClassifyTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	conversationID, err := req.RequireString("conversation_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	message, err := req.RequireString("message")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	prev := req.GetString("previous_assistant_message", "")
	intent := classify.Intent(req.GetString("intent", string(classify.IntentGeneral)))
	topic := req.GetString("topic", "")

	if err := classify.ValidateIntent(intent); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	conv, err := ensureConversation(t.store, conversationID)
	if err != nil {
		return nil, fmt.Errorf("resolving conversation: %w", err)
	}
	if conv.SessionStatus == store.ConversationCompleted {
		return mcp.NewToolResultError("This conversation was already finalized."), nil
	}

	tracked, err := t.store.ListIdeas(conversationID)
	if err != nil {
		return nil, fmt.Errorf("loading tracked ideas: %w", err)
	}

	in := classify.Input{
		Utterance: message,
		Items:     snapshotOf(tracked),
		Intent:    intent,
	}
	if prev != "" {
		in.Window = []classify.Message{{Role: "assistant", Content: prev}}
	}

	results, err := t.classifier.ClassifyMessage(ctx, in)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	type classified struct {
		classify.Result
		IdeaID string `json:"idea_id"`
		New    bool   `json:"new"`
	}
	out := make([]classified, 0, len(results))
	for _, r := range results {
		tracked, err = t.store.ListIdeas(conversationID)
		if err != nil {
			return nil, fmt.Errorf("loading tracked ideas: %w", err)
		}
		id, created, err := t.apply(conversationID, topic, r, tracked)
		if err != nil {
			return nil, fmt.Errorf("recording classification: %w", err)
		}
		out = append(out, classified{Result: r, IdeaID: id, New: created})
	}

	payload, err := json.MarshalIndent(map[string]any{"items": out}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling result: %w", err)
	}
	return mcp.NewToolResultText(string(payload)), nil
}

// apply records one classification: an existing idea with a matching
// title gains a version, anything else becomes a new tracked idea.
func (t *ClassifyTool) apply(conversationID, topic string, r classify.Result, tracked []*idea.ExtractedIdea) (string, bool, error) {
	if existing := matchByTitle(tracked, r.Text); existing != nil {
		content := existing.Idea
		content.Reasoning = r.Reasoning
		if _, err := idea.AppendVersion(existing, content, idea.ChangedByUser, "reclassified", r.Reasoning); err != nil {
			return "", false, err
		}
		existing.Status = statusFor(r.State, existing.Status)
		if err := t.store.PutIdea(conversationID, existing); err != nil {
			return "", false, err
		}
		return existing.ID, false, nil
	}

	fresh := &idea.ExtractedIdea{
		ID:     uuid.NewString(),
		Source: idea.SourceUserMention,
		Idea: idea.Content{
			Title:       r.Text,
			Description: r.Text,
			Reasoning:   r.Reasoning,
		},
		Status: statusFor(r.State, idea.StatusMentioned),
		Context: idea.ConversationContext{
			Timestamp:       timeNow().UTC().Format(time.RFC3339),
			Topic:           topic,
			TopicConfidence: topicConfidence(topic),
		},
	}
	if err := t.store.PutIdea(conversationID, fresh); err != nil {
		return "", false, err
	}
	return fresh.ID, true, nil
}

// statusFor maps a decision state onto the idea lifecycle status.
func statusFor(state idea.DecisionState, current idea.Status) idea.Status {
	switch state {
	case idea.StateDecided:
		return idea.StatusReadyToExtract
	case idea.StateExploring:
		return idea.StatusExploring
	case idea.StateParked, idea.StateRejected:
		if current == "" {
			return idea.StatusMentioned
		}
		return current
	}
	return idea.StatusMentioned
}

func topicConfidence(topic string) int {
	if topic == "" {
		return 0
	}
	// Caller-supplied topics are trusted enough to group on.
	return 75
}

func matchByTitle(tracked []*idea.ExtractedIdea, text string) *idea.ExtractedIdea {
	needle := strings.ToLower(strings.TrimSpace(text))
	if needle == "" {
		return nil
	}
	for _, i := range tracked {
		if strings.ToLower(i.Idea.Title) == needle {
			return i
		}
	}
	return nil
}

func snapshotOf(tracked []*idea.ExtractedIdea) classify.Snapshot {
	var snap classify.Snapshot
	for _, i := range tracked {
		switch i.Status {
		case idea.StatusReadyToExtract:
			snap.Decided = append(snap.Decided, i.Idea.Title)
		case idea.StatusExploring, idea.StatusRefined:
			snap.Exploring = append(snap.Exploring, i.Idea.Title)
		default:
			snap.Parked = append(snap.Parked, i.Idea.Title)
		}
	}
	return snap
}

// timeNow is a package-level var to allow test freezing.
var timeNow = time.Now
