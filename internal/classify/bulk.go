package classify

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/reconstitutechrist-rgb/brainstorm/internal/idea"
)

// --- Bulk-approval preprocessor ---
//
// A closed set of "accept everything" phrasings is matched before the
// oracle is ever consulted. On a match, the immediately preceding
// assistant turn is parsed for an enumerable list; each entry becomes a
// decided item at a fixed high confidence. Deterministic, zero oracle
// round-trips. If no list is found, control falls through to the
// regular classifier unchanged.

// bulkConfidence is assigned to every item approved in bulk.
const bulkConfidence = 95

// bulkPhrases is the closed set of accept-everything utterances,
// matched after normalization.
var bulkPhrases = map[string]bool{
	"i love all of them":     true,
	"love all of them":       true,
	"i like all of them":     true,
	"all of them":            true,
	"love them all":          true,
	"i love them all":        true,
	"accept all":             true,
	"accept everything":      true,
	"accept all of them":     true,
	"yes to all":             true,
	"yes to everything":      true,
	"take all of them":       true,
	"i want all of them":     true,
	"lets do all of them":    true,
	"do all of them":         true,
	"add all of them":        true,
	"all of these":           true,
	"i love all of these":    true,
	"sounds good lets do it all": true,
}

var numberedEntry = regexp.MustCompile(`^\s*(?:[-*•]|\d+[.)])\s+(.+)$`)

// BulkApproval fast-paths an accept-everything utterance against the
// preceding assistant turn. Returns (results, true) only when both the
// phrase matches and the previous turn contains an enumerable list.
func BulkApproval(utterance, prevAssistant string) ([]Result, bool) {
	if !bulkPhrases[normalize(utterance)] {
		return nil, false
	}

	entries := ParseCandidates(prevAssistant)
	if len(entries) == 0 {
		return nil, false
	}

	results := make([]Result, 0, len(entries))
	for _, entry := range entries {
		results = append(results, Result{
			State:      idea.StateDecided,
			Text:       entry,
			Confidence: bulkConfidence,
			Reasoning:  fmt.Sprintf("bulk approval of %d listed ideas", len(entries)),
		})
	}
	return results, true
}

// ParseCandidates deterministically extracts an enumerable list from an
// assistant turn. It recognizes bulleted lines ("•", "-", "*"), numbered
// lines ("1.", "2)"), and a single slash-separated enumeration
// ("Dark mode / Export to PDF / Team sharing").
func ParseCandidates(text string) []string {
	var entries []string
	for _, line := range strings.Split(text, "\n") {
		if m := numberedEntry.FindStringSubmatch(line); m != nil {
			if entry := strings.TrimSpace(m[1]); entry != "" {
				entries = append(entries, entry)
			}
			continue
		}
		if len(entries) == 0 && strings.Count(line, " / ") >= 1 {
			for _, part := range strings.Split(line, " / ") {
				if entry := strings.TrimSpace(strings.Trim(part, ".!?")); entry != "" {
					entries = append(entries, entry)
				}
			}
		}
	}
	return entries
}
