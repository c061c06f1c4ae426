package review

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/reconstitutechrist-rgb/brainstorm/internal/idea"
)

// --- Review state machine ---
//
// Summary → Decisions → Clarification* → Confirmation → Finalized, with
// Cancelled reachable from Summary, Decisions, and Clarification. The
// machine's core safety property: no project mutation happens before
// Finalized, and cancelling restores the conversation's pre-review
// status exactly. The coordinator only tracks state — the actual commit
// belongs to the finalizer, invoked by the caller between Confirm and
// MarkFinalized.

// State is the review machine's current phase.
type State string

const (
	StateSummary       State = "summary"
	StateDecisions     State = "decisions"
	StateClarification State = "clarification"
	StateConfirmation  State = "confirmation"
	StateFinalized     State = "finalized"
	StateCancelled     State = "cancelled"
)

// Review is one in-flight end-of-session review for a conversation.
type Review struct {
	ConversationID string
	State          State
	PreviousStatus string // conversation status to restore on cancel

	// Statement accumulates the original decision statement plus every
	// clarification reply; each round appends, never replaces.
	Statement string
	Rounds    int

	Ideas     []*idea.ExtractedIdea
	Groups    []idea.TopicGroup
	Decisions *ParsedDecisions

	StartedAt string // RFC3339

	mu sync.Mutex
}

// Coordinator manages at most one active review per conversation.
// Reviews are strictly turn-based: transitions for one conversation are
// serialized, while unrelated conversations proceed independently.
type Coordinator struct {
	mu     sync.Mutex
	parser *Parser
	active map[string]*Review
}

// NewCoordinator creates a Coordinator. The parser may be nil-oracle;
// reviews then run on the deterministic matcher alone.
func NewCoordinator(parser *Parser) *Coordinator {
	return &Coordinator{parser: parser, active: map[string]*Review{}}
}

// Start begins a review in the Summary state. Fails if a review is
// already active for the conversation — no concurrent reviews of the
// same conversation.
func (c *Coordinator) Start(conversationID, previousStatus string, ideas []*idea.ExtractedIdea) (*Review, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.active[conversationID]; ok {
		return nil, fmt.Errorf("review: a review is already active for conversation %q", conversationID)
	}

	r := &Review{
		ConversationID: conversationID,
		State:          StateSummary,
		PreviousStatus: previousStatus,
		Ideas:          ideas,
		Groups:         GroupIdeas(ideas),
		StartedAt:      timeNow().UTC().Format(time.RFC3339),
	}
	c.active[conversationID] = r
	return r, nil
}

// Get returns the active review for the conversation.
func (c *Coordinator) Get(conversationID string) (*Review, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	r, ok := c.active[conversationID]
	if !ok {
		return nil, fmt.Errorf("review: no active review for conversation %q", conversationID)
	}
	return r, nil
}

// Acknowledge moves Summary → Decisions once the user has seen the
// topic-grouped idea listing.
func (c *Coordinator) Acknowledge(conversationID string) (*Review, error) {
	r, err := c.Get(conversationID)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.State != StateSummary {
		return nil, transitionError(r, "acknowledge", StateSummary)
	}
	r.State = StateDecisions
	return r, nil
}

// Decide parses the user's decision statement and moves to
// Clarification or Confirmation depending on the result.
func (c *Coordinator) Decide(ctx context.Context, conversationID, statement string) (*Review, error) {
	r, err := c.Get(conversationID)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.State != StateDecisions {
		return nil, transitionError(r, "decide", StateDecisions)
	}

	r.Statement = statement
	r.Decisions = c.parser.Parse(ctx, r.Statement, r.Ideas, r.Groups)
	if r.Decisions.NeedsClarification {
		r.State = StateClarification
	} else {
		r.State = StateConfirmation
	}
	return r, nil
}

// Clarify appends one clarification reply to the accumulated statement
// and re-parses. Rounds repeat without bound until nothing remains
// unmarked or ambiguous.
func (c *Coordinator) Clarify(ctx context.Context, conversationID, reply string) (*Review, error) {
	r, err := c.Get(conversationID)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.State != StateClarification {
		return nil, transitionError(r, "clarify", StateClarification)
	}

	r.Statement = r.Statement + "\n" + reply
	r.Rounds++
	r.Decisions = c.parser.Parse(ctx, r.Statement, r.Ideas, r.Groups)
	if !r.Decisions.NeedsClarification {
		r.State = StateConfirmation
	}
	return r, nil
}

// Confirm validates that the review is awaiting explicit confirmation
// and returns it for finalization. Confirmation is never inferred from
// tone — callers invoke this only on an explicit confirm action. The
// review stays in Confirmation until MarkFinalized, so a failed
// finalize leaves it retryable.
func (c *Coordinator) Confirm(conversationID string) (*Review, error) {
	r, err := c.Get(conversationID)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.State != StateConfirmation {
		return nil, transitionError(r, "confirm", StateConfirmation)
	}
	return r, nil
}

// MarkFinalized records a successful finalize and retires the review.
func (c *Coordinator) MarkFinalized(conversationID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	r, ok := c.active[conversationID]
	if !ok {
		return fmt.Errorf("review: no active review for conversation %q", conversationID)
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.State != StateConfirmation {
		return transitionError(r, "finalize", StateConfirmation)
	}
	r.State = StateFinalized
	delete(c.active, conversationID)
	return nil
}

// Cancel aborts a review from Summary, Decisions, or Clarification and
// returns the conversation status to restore. Review is non-destructive
// until Finalized, so cancelling loses nothing. A review awaiting
// confirmation cannot be cancelled — the user either confirms or keeps
// clarifying.
func (c *Coordinator) Cancel(conversationID string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	r, ok := c.active[conversationID]
	if !ok {
		return "", fmt.Errorf("review: no active review for conversation %q", conversationID)
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	switch r.State {
	case StateSummary, StateDecisions, StateClarification:
		r.State = StateCancelled
		delete(c.active, conversationID)
		return r.PreviousStatus, nil
	default:
		return "", transitionError(r, "cancel", StateSummary)
	}
}

func transitionError(r *Review, action string, want State) error {
	return fmt.Errorf("review: cannot %s conversation %q in state %q (want %q)", action, r.ConversationID, r.State, want)
}
