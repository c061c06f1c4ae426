// Package classify turns free-text utterances into decision-state
// transitions on tracked ideas.
//
// Classification is layered: deterministic fast paths run first (bulk
// approval, candidate-list resolution, short affirmations), and only
// utterances those paths cannot resolve reach the external oracle. The
// oracle's output is post-processed against the hedging and commitment
// lexicons, so its certainty claims never bypass the confidence bands.
// Oracle failures are absorbed locally — a conversation turn never
// fails because the interpretation service did.
package classify

import (
	"context"
	"fmt"
	"strings"

	"github.com/reconstitutechrist-rgb/brainstorm/internal/idea"
	"github.com/reconstitutechrist-rgb/brainstorm/internal/oracle"
)

// --- Workflow intent enum ---

// Intent tags the utterance with the workflow mode the user is in,
// which sets classification strictness.
type Intent string

const (
	IntentDeciding      Intent = "deciding"
	IntentModifying     Intent = "modifying"
	IntentBrainstorming Intent = "brainstorming"
	IntentExploring     Intent = "exploring"
	IntentGeneral       Intent = "general"
)

var validIntents = map[Intent]bool{
	IntentDeciding:      true,
	IntentModifying:     true,
	IntentBrainstorming: true,
	IntentExploring:     true,
	IntentGeneral:       true,
}

// ValidateIntent returns an error if the intent is not recognized.
func ValidateIntent(i Intent) error {
	if !validIntents[i] {
		return fmt.Errorf("invalid intent %q: must be one of: deciding, modifying, brainstorming, exploring, general", i)
	}
	return nil
}

// Strict reports whether the intent requires an explicit commitment
// signal before an utterance may reach the decided state.
func (i Intent) Strict() bool {
	return i == IntentDeciding || i == IntentModifying
}

// --- Input / output ---

// Message is one turn of the bounded recent-conversation window.
type Message struct {
	Role    string `json:"role"` // "user" or "assistant"
	Content string `json:"content"`
}

// Snapshot is the caller's view of current item dispositions, included
// in the oracle prompt so reclassification is context-aware.
type Snapshot struct {
	Decided   []string `json:"decided,omitempty"`
	Exploring []string `json:"exploring,omitempty"`
	Parked    []string `json:"parked,omitempty"`
}

// Input carries everything needed to classify one utterance.
type Input struct {
	Utterance string
	Window    []Message
	Items     Snapshot
	Intent    Intent
}

// Result is one classified state transition.
type Result struct {
	State      idea.DecisionState `json:"state"`
	Text       string             `json:"text"`
	Confidence int                `json:"confidence"` // 0-100
	Reasoning  string             `json:"reasoning,omitempty"`
}

// fallbackConfidence is used when the oracle fails or returns output
// that does not parse into the expected shape.
const fallbackConfidence = 50

// affirmationConfidence is used for short yes/no utterances resolved
// against the preceding assistant turn.
const affirmationConfidence = 90

// --- Classifier ---

// Classifier resolves utterances into classified items. Safe for
// concurrent use across unrelated conversations; the oracle is the only
// shared dependency and is required to be concurrency-safe.
type Classifier struct {
	oracle oracle.Oracle
}

// New creates a Classifier backed by the given oracle. A nil oracle is
// allowed: deterministic paths still work, and everything else falls
// back to a conservative exploring classification.
func New(o oracle.Oracle) *Classifier {
	return &Classifier{oracle: o}
}

// ClassifyMessage turns one utterance into one or more classified items.
// It never returns an error for oracle-level failures — those degrade to
// a conservative exploring result so the conversation turn proceeds.
func (c *Classifier) ClassifyMessage(ctx context.Context, in Input) ([]Result, error) {
	if err := ValidateIntent(in.Intent); err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.Utterance) == "" {
		return nil, fmt.Errorf("classify: empty utterance")
	}

	prev := lastAssistantTurn(in.Window)

	// Deterministic fast paths, in priority order.
	if results, ok := BulkApproval(in.Utterance, prev); ok {
		return results, nil
	}
	if candidates := ParseCandidates(prev); len(candidates) > 0 {
		if results, ok := resolveAgainstCandidates(in.Utterance, candidates); ok {
			return results, nil
		}
		if results, ok := resolveListAffirmation(in.Utterance, candidates); ok {
			return results, nil
		}
	}
	if results, ok := resolveAffirmation(in.Utterance, prev); ok {
		return results, nil
	}

	// Oracle path.
	if c.oracle == nil {
		return c.fallback(in, "no classification service configured"), nil
	}
	raw, err := c.oracle.Complete(ctx, buildPrompt(in))
	if err != nil {
		return c.fallback(in, "classification service unavailable"), nil
	}
	results, err := parsePayload(raw)
	if err != nil {
		return c.fallback(in, "classification service returned malformed output"), nil
	}
	return c.finish(in, results), nil
}

// fallback produces the conservative single-result classification used
// whenever the oracle cannot be trusted.
func (c *Classifier) fallback(in Input, reason string) []Result {
	return []Result{{
		State:      idea.StateExploring,
		Text:       strings.TrimSpace(in.Utterance),
		Confidence: fallbackConfidence,
		Reasoning:  reason + "; recorded conservatively as exploring",
	}}
}

// finish applies the confidence bands and strictness rules to raw
// oracle results. Hedged or conditional phrasing forces exploring at
// 50-69 regardless of verb strength; the decided state survives only
// with an explicit commitment signal.
func (c *Classifier) finish(in Input, results []Result) []Result {
	hedged := hasHedge(in.Utterance) || hasConditional(in.Utterance)
	committed := hasCommitment(in.Utterance)

	out := make([]Result, 0, len(results))
	for _, r := range results {
		if idea.ValidateState(r.State) != nil {
			r.State = idea.StateExploring
			r.Confidence = fallbackConfidence
		}
		r.Confidence = clamp(r.Confidence, 0, 100)
		if r.Text == "" {
			r.Text = strings.TrimSpace(in.Utterance)
		}

		switch {
		case hedged:
			r.State = idea.StateExploring
			r.Confidence = clamp(r.Confidence, 50, 69)
			if r.Reasoning == "" {
				r.Reasoning = "hedged or conditional phrasing keeps this exploratory"
			}
		case r.State == idea.StateDecided:
			switch {
			case !committed:
				// No explicit commitment signal: never decided.
				r.State = idea.StateExploring
				r.Confidence = clamp(r.Confidence, 0, 85)
			case r.Confidence >= 90:
				// High certainty, commitment present: stays decided.
			case r.Confidence >= 70:
				// Moderate certainty: decided only because the verb is strong.
			default:
				r.State = idea.StateExploring
			}
		case r.State == idea.StateRejected && !in.Intent.Strict() && r.Confidence < 70:
			// Permissive intents default ambiguous-but-substantive
			// utterances to exploring rather than rejecting them.
			r.State = idea.StateExploring
		}

		out = append(out, r)
	}

	if len(out) == 0 {
		return c.fallback(in, "classification service returned no items")
	}
	return out
}

// lastAssistantTurn returns the content of the most recent assistant
// message in the window, or "" if there is none.
func lastAssistantTurn(window []Message) string {
	for i := len(window) - 1; i >= 0; i-- {
		if window[i].Role == "assistant" {
			return window[i].Content
		}
	}
	return ""
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
