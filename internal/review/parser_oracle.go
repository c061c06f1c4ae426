package review

import (
	"context"
	"fmt"
	"strings"

	"github.com/reconstitutechrist-rgb/brainstorm/internal/idea"
	"github.com/reconstitutechrist-rgb/brainstorm/internal/oracle"
)

// Parser maps decision statements onto idea lists, consulting the
// oracle when one is configured and falling back to the deterministic
// matcher whenever the oracle fails, returns a malformed payload, or
// violates the partition invariant. A nil-oracle Parser is fully
// functional and deterministic.
type Parser struct {
	oracle oracle.Oracle
}

// NewParser creates a Parser. The oracle may be nil.
func NewParser(o oracle.Oracle) *Parser {
	return &Parser{oracle: o}
}

// decisionsPayload is the parsed-decisions shape the oracle is
// documented to return. Indices are 1-based positions in the numbered
// idea list.
type decisionsPayload struct {
	Accepted   []int `json:"accepted"`
	Rejected   []int `json:"rejected"`
	Deferred   []int `json:"deferred"`
	Confidence int   `json:"confidence"`
	Ambiguous  []struct {
		Phrase     string `json:"phrase"`
		Candidates []int  `json:"candidates"`
	} `json:"ambiguous"`
}

// Parse maps the statement onto the idea list, honoring the partition
// invariant in every outcome.
func (p *Parser) Parse(ctx context.Context, statement string, ideas []*idea.ExtractedIdea, groups []idea.TopicGroup) *ParsedDecisions {
	if p == nil || p.oracle == nil || len(ideas) == 0 {
		return Parse(statement, ideas, groups)
	}

	raw, err := p.oracle.Complete(ctx, decisionsPrompt(statement, ideas, groups))
	if err != nil {
		return Parse(statement, ideas, groups)
	}

	var payload decisionsPayload
	if err := oracle.ExtractJSON(raw, &payload); err != nil {
		return Parse(statement, ideas, groups)
	}

	d, err := fromPayload(payload, ideas)
	if err != nil {
		// Shape was parseable but the partition was invalid; the local
		// matcher never produces an invalid partition.
		return Parse(statement, ideas, groups)
	}
	d.finishClarification(groups)
	return d
}

// fromPayload validates oracle indices and builds the partition.
// Returns an error when any index is out of range or assigned twice.
func fromPayload(payload decisionsPayload, ideas []*idea.ExtractedIdea) (*ParsedDecisions, error) {
	d := &ParsedDecisions{
		Accepted: []*idea.ExtractedIdea{},
		Rejected: []*idea.ExtractedIdea{},
		Unmarked: []*idea.ExtractedIdea{},
		deferred: map[string]bool{},
	}

	assigned := map[int]polarity{}
	assign := func(indices []int, pol polarity) error {
		for _, n := range indices {
			if n < 1 || n > len(ideas) {
				return fmt.Errorf("review: oracle referenced idea %d of %d", n, len(ideas))
			}
			if _, dup := assigned[n]; dup {
				return fmt.Errorf("review: oracle assigned idea %d twice", n)
			}
			assigned[n] = pol
		}
		return nil
	}
	if err := assign(payload.Accepted, polAccept); err != nil {
		return nil, err
	}
	if err := assign(payload.Rejected, polReject); err != nil {
		return nil, err
	}
	if err := assign(payload.Deferred, polDefer); err != nil {
		return nil, err
	}

	for _, a := range payload.Ambiguous {
		amb := Ambiguity{Phrase: a.Phrase}
		for _, n := range a.Candidates {
			if n < 1 || n > len(ideas) {
				return nil, fmt.Errorf("review: oracle ambiguity referenced idea %d of %d", n, len(ideas))
			}
			amb.Candidates = append(amb.Candidates, ideas[n-1])
		}
		if len(amb.Candidates) > 1 {
			d.Ambiguities = append(d.Ambiguities, amb)
		}
	}

	for n, i := range ideas {
		switch assigned[n+1] {
		case polAccept:
			d.Accepted = append(d.Accepted, i)
		case polReject:
			d.Rejected = append(d.Rejected, i)
		case polDefer:
			d.deferred[i.ID] = true
			d.Unmarked = append(d.Unmarked, i)
		default:
			d.Unmarked = append(d.Unmarked, i)
		}
	}

	d.Confidence = clampConfidence(payload.Confidence)
	return d, nil
}

func clampConfidence(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// decisionsPrompt lists every idea with a stable number and the topic
// grouping, and documents the expected payload shape.
func decisionsPrompt(statement string, ideas []*idea.ExtractedIdea, groups []idea.TopicGroup) string {
	var sb strings.Builder
	sb.WriteString("Map the user's decision statement onto the numbered idea list.\n\n")

	sb.WriteString("Ideas:\n")
	for n, i := range ideas {
		fmt.Fprintf(&sb, "%d. %s — %s\n", n+1, i.Idea.Title, i.Idea.Description)
	}

	sb.WriteString("\nTopic groups:\n")
	for _, g := range groups {
		var titles []string
		for _, i := range g.Ideas {
			titles = append(titles, i.Idea.Title)
		}
		fmt.Fprintf(&sb, "- %s: %s\n", g.Topic, strings.Join(titles, ", "))
	}

	sb.WriteString("\nStatement:\n")
	sb.WriteString(statement)
	sb.WriteString("\n\nRules: a phrase naming a topic applies to every idea in that group. ")
	sb.WriteString("If a phrase could match more than one idea with comparable likelihood, list it under \"ambiguous\" instead of guessing. ")
	sb.WriteString("Ideas the statement does not settle stay out of every list.\n")
	sb.WriteString("Reply with JSON only:\n")
	sb.WriteString(`{"accepted":[1],"rejected":[2],"deferred":[],"confidence":0-100,"ambiguous":[{"phrase":"...","candidates":[3,4]}]}`)
	sb.WriteString("\n")
	return sb.String()
}
