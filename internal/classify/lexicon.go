package classify

import "strings"

// --- Closed lexicons ---
//
// Classification post-processing never trusts the oracle's certainty
// blindly: hedged or conditional phrasing caps confidence and forces the
// exploring state, and the decided state requires an explicit commitment
// signal. These sets are closed and enumerable so the behavior stays
// deterministic and testable.

// hedges are phrases that signal uncertainty.
var hedges = []string{
	"i think",
	"maybe",
	"perhaps",
	"might",
	"possibly",
	"probably",
	"not sure",
	"i guess",
	"kind of",
	"sort of",
	"we could",
	"could be",
	"leaning towards",
	"tempted to",
}

// conditionals signal that a decision hinges on something unresolved.
var conditionals = []string{
	"if ",
	"unless",
	"depends",
	"assuming",
	"provided that",
	"would need",
	"only when",
}

// commitments are explicit decision signals. Without one of these an
// utterance never reaches the decided state.
var commitments = []string{
	"let's",
	"lets ",
	"we will",
	"we'll",
	"i want",
	"we want",
	"definitely",
	"go with",
	"going with",
	"use ",
	"choose",
	"decided",
	"decide on",
	"commit",
	"ship ",
	"add ",
	"yes",
	"love",
	"keep ",
	"approve",
	"accept",
	"take ",
	"do it",
}

// affirmations are short yes-like utterances with no content of their
// own; they must be resolved against the preceding assistant turn.
var affirmations = map[string]bool{
	"yes":           true,
	"yeah":          true,
	"yep":           true,
	"yup":           true,
	"sure":          true,
	"ok":            true,
	"okay":          true,
	"sounds good":   true,
	"sounds great":  true,
	"love it":       true,
	"i love it":     true,
	"i like it":     true,
	"like it":       true,
	"perfect":       true,
	"great":         true,
	"do it":         true,
	"lets do it":    true,
	"go for it":     true,
	"absolutely":    true,
	"definitely":    true,
}

// negations are short no-like utterances resolved the same way.
var negations = map[string]bool{
	"no":               true,
	"nope":             true,
	"nah":              true,
	"no thanks":        true,
	"skip it":          true,
	"pass":             true,
	"not that":         true,
	"drop it":          true,
	"i dont like it":   true,
	"dont like it":     true,
	"i dont think so":  true,
}

// decidedWords mark a clause as accepting its referenced candidate.
var decidedWords = []string{"love", "want", "yes", "keep", "go with", "take", "accept", "approve", "definitely", "add", "do ", "like", "use"}

// rejectedWords mark a clause as declining its referenced candidate.
var rejectedWords = []string{"don't", "dont", "not ", "no ", "drop", "skip", "remove", "reject", "scrap", "forget", "kill", "without"}

// parkedWords mark a clause as deferring its referenced candidate.
var parkedWords = []string{"park", "later", "defer", "hold", "shelve", "postpone", "someday", "backlog", "not now", "for now", "revisit"}

// stopwords are ignored when matching candidate titles against utterances.
var stopwords = map[string]bool{
	"the": true, "a": true, "an": true, "to": true, "of": true,
	"for": true, "and": true, "or": true, "with": true, "in": true,
	"on": true, "via": true, "by": true,
}

func containsAny(s string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(s, p) {
			return true
		}
	}
	return false
}

func hasHedge(utterance string) bool {
	return containsAny(strings.ToLower(utterance), hedges)
}

func hasConditional(utterance string) bool {
	return containsAny(strings.ToLower(utterance), conditionals)
}

func hasCommitment(utterance string) bool {
	return containsAny(strings.ToLower(utterance), commitments)
}

// normalize lowercases, strips punctuation, and collapses whitespace so
// short utterances can be matched against the closed sets above.
func normalize(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == ' ':
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// keywords extracts the significant words of a candidate title.
func keywords(title string) []string {
	var out []string
	for _, w := range strings.Fields(normalize(title)) {
		if len(w) < 2 || stopwords[w] {
			continue
		}
		out = append(out, w)
	}
	return out
}
