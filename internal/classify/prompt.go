package classify

import (
	"fmt"
	"strings"

	"github.com/reconstitutechrist-rgb/brainstorm/internal/oracle"
)

// buildPrompt assembles the structured prompt for the oracle. The exact
// wording is an implementation detail; what matters is that the reply is
// expected to contain a JSON payload in one of the documented shapes.
func buildPrompt(in Input) string {
	var sb strings.Builder
	sb.WriteString("You are classifying one user utterance from a project brainstorm into decision states.\n\n")
	sb.WriteString(fmt.Sprintf("Workflow intent: %s\n\n", in.Intent))

	if len(in.Window) > 0 {
		sb.WriteString("Recent conversation:\n")
		for _, m := range in.Window {
			sb.WriteString(fmt.Sprintf("[%s] %s\n", m.Role, m.Content))
		}
		sb.WriteString("\n")
	}

	writeItems := func(label string, items []string) {
		if len(items) == 0 {
			return
		}
		sb.WriteString(label + ":\n")
		for _, it := range items {
			sb.WriteString("- " + it + "\n")
		}
	}
	writeItems("Currently decided", in.Items.Decided)
	writeItems("Currently exploring", in.Items.Exploring)
	writeItems("Currently parked", in.Items.Parked)

	sb.WriteString("\nUtterance:\n")
	sb.WriteString(in.Utterance)
	sb.WriteString("\n\nReply with JSON only. For a single decision:\n")
	sb.WriteString(`{"state":"decided|exploring|parked|rejected","text":"...","confidence":0-100,"reasoning":"..."}`)
	sb.WriteString("\nFor multiple independent decisions in one utterance:\n")
	sb.WriteString(`{"items":[{"state":"...","text":"...","confidence":0,"reasoning":"..."}]}`)
	sb.WriteString("\nSplit an utterance asserting two distinct decisions into independent items, each with its own confidence and reasoning.\n")
	return sb.String()
}

// parsePayload extracts classification results from free-form oracle
// text. Three shapes are tolerated: a batch object {"items":[...]}, a
// bare array, and a single item object. Anything else is malformed.
func parsePayload(raw string) ([]Result, error) {
	var batch struct {
		Items []Result `json:"items"`
	}
	if err := oracle.ExtractJSON(raw, &batch); err == nil && len(batch.Items) > 0 {
		return batch.Items, nil
	}

	var list []Result
	if err := oracle.ExtractJSON(raw, &list); err == nil && len(list) > 0 {
		return list, nil
	}

	var single Result
	if err := oracle.ExtractJSON(raw, &single); err == nil && single.State != "" {
		return []Result{single}, nil
	}

	return nil, fmt.Errorf("classify: %w: no classification shape in oracle reply", oracle.ErrMalformedOutput)
}
