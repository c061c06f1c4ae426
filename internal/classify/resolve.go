package classify

import (
	"strings"

	"github.com/reconstitutechrist-rgb/brainstorm/internal/idea"
)

// --- Context-aware resolution ---
//
// When the preceding assistant turn enumerated candidates and the
// utterance assigns dispositions to some of them, each referenced
// candidate gets its own result and unreferenced candidates default to
// exploring. Nothing is silently dropped.

// resolvedConfidence applies to candidates explicitly referenced in the
// utterance; defaultedConfidence applies to unreferenced candidates
// recorded as exploring.
const (
	resolvedConfidence  = 85
	defaultedConfidence = 60
)

// resolveAgainstCandidates maps utterance clauses onto the enumerated
// candidates of the previous assistant turn. Returns ok=false when the
// utterance references none of the candidates, in which case the caller
// continues with the regular classification path.
func resolveAgainstCandidates(utterance string, candidates []string) ([]Result, bool) {
	clauses := splitClauses(utterance)
	if len(clauses) == 0 {
		return nil, false
	}

	type match struct {
		clause string
		found  bool
	}
	matches := make([]match, len(candidates))
	referenced := 0

	for i, candidate := range candidates {
		for _, clause := range clauses {
			if mentions(clause, candidate) {
				matches[i] = match{clause: clause, found: true}
				referenced++
				break
			}
		}
	}
	if referenced == 0 {
		return nil, false
	}

	results := make([]Result, 0, len(candidates))
	for i, candidate := range candidates {
		if !matches[i].found {
			results = append(results, Result{
				State:      idea.StateExploring,
				Text:       candidate,
				Confidence: defaultedConfidence,
				Reasoning:  "not referenced in the utterance; kept as exploring",
			})
			continue
		}
		results = append(results, Result{
			State:      clauseState(matches[i].clause),
			Text:       candidate,
			Confidence: resolvedConfidence,
			Reasoning:  "resolved against the enumerated candidates of the previous turn",
		})
	}
	return results, true
}

// resolveListAffirmation maps a bare affirmation or negation onto every
// enumerated candidate of the previous turn, one result per entry. The
// list itself is never recorded as an idea.
func resolveListAffirmation(utterance string, candidates []string) ([]Result, bool) {
	var state idea.DecisionState
	norm := normalize(utterance)
	switch {
	case affirmations[norm]:
		state = idea.StateDecided
	case negations[norm]:
		state = idea.StateRejected
	default:
		return nil, false
	}

	results := make([]Result, 0, len(candidates))
	for _, candidate := range candidates {
		results = append(results, Result{
			State:      state,
			Text:       candidate,
			Confidence: affirmationConfidence,
			Reasoning:  "short reply applied to each enumerated candidate of the previous turn",
		})
	}
	return results, true
}

// resolveAffirmation handles short affirmations/negations with no
// independent content ("yes", "love it"). The recorded item is the
// referent's content — the preceding assistant turn — never the
// affirmation text itself.
func resolveAffirmation(utterance, prevAssistant string) ([]Result, bool) {
	referent := strings.TrimSpace(prevAssistant)
	if referent == "" {
		return nil, false
	}

	norm := normalize(utterance)
	switch {
	case affirmations[norm]:
		return []Result{{
			State:      idea.StateDecided,
			Text:       referent,
			Confidence: affirmationConfidence,
			Reasoning:  "short affirmation resolved against the previous assistant turn",
		}}, true
	case negations[norm]:
		return []Result{{
			State:      idea.StateRejected,
			Text:       referent,
			Confidence: affirmationConfidence,
			Reasoning:  "short negation resolved against the previous assistant turn",
		}}, true
	}
	return nil, false
}

// splitClauses breaks an utterance into decision-bearing fragments.
func splitClauses(utterance string) []string {
	fields := strings.FieldsFunc(utterance, func(r rune) bool {
		switch r {
		case '.', '!', '?', ';', '\n':
			return true
		}
		return false
	})
	var out []string
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, strings.ToLower(f))
		}
	}
	return out
}

// mentions reports whether the clause references the candidate by any
// of its significant words.
func mentions(clause, candidate string) bool {
	normalized := normalize(clause)
	for _, kw := range keywords(candidate) {
		if strings.Contains(normalized, kw) {
			return true
		}
	}
	return false
}

// clauseState derives the disposition a clause assigns to its referenced
// candidate. Hedges win over everything; parking beats rejection beats
// acceptance so "park sharing, don't need it yet" lands on parked.
func clauseState(clause string) idea.DecisionState {
	switch {
	case containsAny(clause, hedges), containsAny(clause, conditionals):
		return idea.StateExploring
	case containsAny(clause, parkedWords):
		return idea.StateParked
	case containsAny(clause, rejectedWords):
		return idea.StateRejected
	case containsAny(clause, decidedWords):
		return idea.StateDecided
	}
	return idea.StateExploring
}
