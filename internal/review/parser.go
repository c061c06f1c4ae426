package review

import (
	"fmt"
	"sort"
	"strings"

	"github.com/reconstitutechrist-rgb/brainstorm/internal/idea"
)

// ParsedDecisions is the result of mapping one free-text decision
// statement against the full idea list. Accepted, Rejected, and
// Unmarked always partition the input set: every idea appears in
// exactly one of the three lists.
type ParsedDecisions struct {
	Accepted []*idea.ExtractedIdea `json:"accepted"`
	Rejected []*idea.ExtractedIdea `json:"rejected"`
	Unmarked []*idea.ExtractedIdea `json:"unmarked"`

	Confidence            int         `json:"confidence"` // 0-100
	NeedsClarification    bool        `json:"needs_clarification"`
	ClarificationQuestion string      `json:"clarification_question,omitempty"`
	Ambiguities           []Ambiguity `json:"ambiguities,omitempty"`

	// deferred holds ideas the user explicitly set aside. They stay in
	// Unmarked (the partition is exhaustive) but no longer demand
	// clarification.
	deferred map[string]bool
}

// Ambiguity records a phrase that plausibly matched more than one
// disjoint idea with comparable likelihood. The candidates are
// enumerated instead of guessed.
type Ambiguity struct {
	Phrase     string                `json:"phrase"`
	Candidates []*idea.ExtractedIdea `json:"candidates"`
}

// clarificationThreshold is the confidence below which the parser asks
// for clarification even when every idea is marked.
const clarificationThreshold = 70

// clause polarity values.
type polarity int

const (
	polNone polarity = iota
	polAccept
	polReject
	polDefer
)

var acceptWords = []string{"accept", "want", "love", "yes", "keep", "take", "approve", "go with", "add", "include", "definitely", "lets do", "let's do", "like", "ship"}
var rejectWords = []string{"reject", "dont want", "don't want", "drop", "remove", "skip", "no to", "pass on", "cut", "scrap", "kill", "not interested", "dont need", "don't need"}
var deferWords = []string{"park", "later", "defer", "hold", "shelve", "postpone", "set aside", "leave", "revisit", "backlog", "undecided", "unmarked"}

var restPhrases = []string{"the rest", "everything else", "all others", "all the others", "rest of them", "the others", "remaining"}
var allPhrases = []string{"everything", "all of them", "all ideas", "all of these"}

// Parse maps one decision statement onto the idea list. The matcher is
// deterministic, so re-parsing the accumulated statement after each
// clarification round is reproducible. The partition invariant holds
// for any input, including the empty set.
func Parse(statement string, ideas []*idea.ExtractedIdea, groups []idea.TopicGroup) *ParsedDecisions {
	d := &ParsedDecisions{
		Accepted: []*idea.ExtractedIdea{},
		Rejected: []*idea.ExtractedIdea{},
		Unmarked: []*idea.ExtractedIdea{},
		deferred: map[string]bool{},
	}
	if len(ideas) == 0 {
		d.Confidence = 100
		return d
	}

	marks := map[string]polarity{} // idea ID → latest polarity
	var restPolarity polarity
	matchedAnything := false

	// Numbers reference the listing the user saw: group traversal order.
	display := displayOrder(ideas, groups)
	var pendingNumbers []int

	for _, clause := range splitStatement(statement) {
		pol := clausePolarity(clause)
		if pol == polNone {
			// "1, 3 accepted" splits the indices away from their verb;
			// carry bare-number clauses forward to the next polarity.
			if nums := clauseNumbers(clause); len(nums) > 0 && onlyNumbers(clause) {
				pendingNumbers = append(pendingNumbers, nums...)
			}
			continue
		}

		if nums := append(pendingNumbers, clauseNumbers(clause)...); len(nums) > 0 {
			pendingNumbers = nil
			for _, n := range nums {
				if n >= 1 && n <= len(display) {
					marks[display[n-1].ID] = pol
					matchedAnything = true
				}
			}
			if containsAnyPhrase(clause, restPhrases) {
				restPolarity = pol
			}
			continue
		}

		switch {
		case containsAnyPhrase(clause, restPhrases):
			restPolarity = pol
			matchedAnything = true
			continue
		case containsAnyPhrase(clause, allPhrases):
			for _, i := range ideas {
				marks[i.ID] = pol
			}
			matchedAnything = true
			continue
		}

		// Topic groups resolve before individual ideas: naming a topic
		// marks every idea in that group.
		if g := matchGroup(clause, groups); g != nil {
			for _, i := range g.Ideas {
				marks[i.ID] = pol
			}
			matchedAnything = true
			continue
		}

		resolved, ambiguous := matchIdeas(clause, ideas)
		for _, i := range resolved {
			marks[i.ID] = pol
			matchedAnything = true
		}
		for _, cluster := range ambiguous {
			d.Ambiguities = append(d.Ambiguities, Ambiguity{Phrase: clause, Candidates: cluster})
			matchedAnything = true
		}
	}

	if restPolarity != polNone {
		for _, i := range ideas {
			if _, ok := marks[i.ID]; !ok {
				marks[i.ID] = restPolarity
			}
		}
	}

	// Ideas named in an unresolved ambiguity are never guessed.
	ambiguousIDs := map[string]bool{}
	for _, a := range d.Ambiguities {
		for _, c := range a.Candidates {
			ambiguousIDs[c.ID] = true
		}
	}

	for _, i := range ideas {
		pol := marks[i.ID]
		if ambiguousIDs[i.ID] && pol == polNone {
			d.Unmarked = append(d.Unmarked, i)
			continue
		}
		switch pol {
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

	d.Confidence = deriveConfidence(len(ideas), len(d.Unmarked), len(d.Ambiguities), matchedAnything)
	d.finishClarification(groups)
	return d
}

// finishClarification computes NeedsClarification and generates one
// question per topic (not per idea) for whatever is still undecided.
func (d *ParsedDecisions) finishClarification(groups []idea.TopicGroup) {
	unresolved := d.unresolvedUnmarked()
	d.NeedsClarification = len(unresolved) > 0 || len(d.Ambiguities) > 0 || d.Confidence < clarificationThreshold
	if !d.NeedsClarification {
		return
	}
	d.ClarificationQuestion = clarificationQuestion(unresolved, d.Ambiguities, groups)
	if d.ClarificationQuestion == "" {
		// Low confidence with a full partition: ask for an explicit restatement.
		d.ClarificationQuestion = "I want to make sure I read that right — could you restate your decisions more explicitly?"
	}
}

// unresolvedUnmarked returns unmarked ideas the user did not explicitly
// set aside.
func (d *ParsedDecisions) unresolvedUnmarked() []*idea.ExtractedIdea {
	var out []*idea.ExtractedIdea
	for _, i := range d.Unmarked {
		if !d.deferred[i.ID] {
			out = append(out, i)
		}
	}
	return out
}

// Deferred reports whether the idea was explicitly set aside.
func (d *ParsedDecisions) Deferred(id string) bool {
	return d.deferred[id]
}

// All returns every idea in the partition, in accepted, rejected,
// unmarked order.
func (d *ParsedDecisions) All() []*idea.ExtractedIdea {
	out := make([]*idea.ExtractedIdea, 0, len(d.Accepted)+len(d.Rejected)+len(d.Unmarked))
	out = append(out, d.Accepted...)
	out = append(out, d.Rejected...)
	out = append(out, d.Unmarked...)
	return out
}

// clarificationQuestion groups undecided ideas by topic so one reply
// can settle several of them at once.
func clarificationQuestion(unresolved []*idea.ExtractedIdea, ambiguities []Ambiguity, groups []idea.TopicGroup) string {
	var sb strings.Builder

	if len(ambiguities) > 0 {
		for _, a := range ambiguities {
			titles := make([]string, 0, len(a.Candidates))
			for _, c := range a.Candidates {
				titles = append(titles, c.Idea.Title)
			}
			fmt.Fprintf(&sb, "%q could refer to %s — which did you mean? ", a.Phrase, strings.Join(titles, " or "))
		}
	}

	if len(unresolved) > 0 {
		unresolvedIDs := map[string]bool{}
		for _, i := range unresolved {
			unresolvedIDs[i.ID] = true
		}

		var parts []string
		seen := map[string]bool{}
		for _, g := range groups {
			var titles []string
			for _, i := range g.Ideas {
				if unresolvedIDs[i.ID] {
					titles = append(titles, i.Idea.Title)
					seen[i.ID] = true
				}
			}
			if len(titles) > 0 {
				parts = append(parts, fmt.Sprintf("%s (%s)", g.Topic, strings.Join(titles, ", ")))
			}
		}
		// Ideas outside every group still get asked about.
		var stray []string
		for _, i := range unresolved {
			if !seen[i.ID] {
				stray = append(stray, i.Idea.Title)
			}
		}
		if len(stray) > 0 {
			parts = append(parts, strings.Join(stray, ", "))
		}

		fmt.Fprintf(&sb, "Still undecided: %s. For each, should we accept, reject, or set it aside?", strings.Join(parts, "; "))
	}

	return strings.TrimSpace(sb.String())
}

// --- Matching ---

func splitStatement(statement string) []string {
	fields := strings.FieldsFunc(statement, func(r rune) bool {
		switch r {
		case '.', ',', '!', '?', ';', '\n':
			return true
		}
		return false
	})
	var out []string
	for _, f := range fields {
		if f = strings.TrimSpace(strings.ToLower(f)); f != "" {
			out = append(out, f)
		}
	}
	return out
}

func containsAnyPhrase(s string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(s, p) {
			return true
		}
	}
	return false
}

// clausePolarity derives the disposition a clause assigns. Defer beats
// reject beats accept, so "park it, don't need it yet" lands on defer.
func clausePolarity(clause string) polarity {
	switch {
	case containsAnyPhrase(clause, deferWords):
		return polDefer
	case containsAnyPhrase(clause, rejectWords):
		return polReject
	case containsAnyPhrase(clause, acceptWords):
		return polAccept
	}
	return polNone
}

// displayOrder flattens the grouped listing into the numbering the user
// saw. Ideas missing from every group (never the case for GroupIdeas
// output) keep their input position at the end.
func displayOrder(ideas []*idea.ExtractedIdea, groups []idea.TopicGroup) []*idea.ExtractedIdea {
	if len(groups) == 0 {
		return ideas
	}
	seen := map[string]bool{}
	out := make([]*idea.ExtractedIdea, 0, len(ideas))
	for _, g := range groups {
		for _, i := range g.Ideas {
			out = append(out, i)
			seen[i.ID] = true
		}
	}
	for _, i := range ideas {
		if !seen[i.ID] {
			out = append(out, i)
		}
	}
	return out
}

// clauseNumbers extracts standalone index tokens ("1", "#3", "2.") from
// a clause. Digits embedded in words ("oauth2") are never indices.
func clauseNumbers(clause string) []int {
	var nums []int
	for _, f := range strings.Fields(clause) {
		f = strings.Trim(f, "#.)(")
		if f == "" {
			continue
		}
		n := 0
		ok := true
		for _, r := range f {
			if r < '0' || r > '9' {
				ok = false
				break
			}
			n = n*10 + int(r-'0')
		}
		if ok {
			nums = append(nums, n)
		}
	}
	return nums
}

// onlyNumbers reports whether the clause carries nothing but index
// tokens and connective filler.
func onlyNumbers(clause string) bool {
	for _, f := range strings.Fields(clause) {
		f = strings.Trim(f, "#.)(")
		if f == "" || f == "and" || f == "&" || f == "also" || f == "plus" {
			continue
		}
		for _, r := range f {
			if r < '0' || r > '9' {
				return false
			}
		}
	}
	return true
}

// matchGroup returns the topic group the clause names, if any. The
// catch-all group is never matched by name.
func matchGroup(clause string, groups []idea.TopicGroup) *idea.TopicGroup {
	for gi := range groups {
		g := &groups[gi]
		if g.Topic == otherTopic {
			continue
		}
		if strings.Contains(clause, strings.ToLower(g.Topic)) {
			return g
		}
	}
	return nil
}

// matchIdeas resolves a clause against individual ideas. Ideas whose
// matched title words overlap are in competition for the same phrase:
// such clusters are reported as ambiguous rather than guessed. Ideas
// matched on disjoint word sets are independent references and all
// resolve.
func matchIdeas(clause string, ideas []*idea.ExtractedIdea) (resolved []*idea.ExtractedIdea, ambiguous [][]*idea.ExtractedIdea) {
	type hit struct {
		idea  *idea.ExtractedIdea
		words map[string]bool
	}
	var hits []hit
	for _, i := range ideas {
		matched := map[string]bool{}
		for w := range titleWords(i.Idea.Title) {
			if strings.Contains(clause, w) {
				matched[w] = true
			}
		}
		if len(matched) > 0 {
			hits = append(hits, hit{idea: i, words: matched})
		}
	}
	if len(hits) == 0 {
		return nil, nil
	}

	// Union-find over shared matched words.
	parent := make([]int, len(hits))
	for i := range parent {
		parent[i] = i
	}
	var find func(int) int
	find = func(x int) int {
		if parent[x] != x {
			parent[x] = find(parent[x])
		}
		return parent[x]
	}
	for a := 0; a < len(hits); a++ {
		for b := a + 1; b < len(hits); b++ {
			if sharesWord(hits[a].words, hits[b].words) {
				parent[find(a)] = find(b)
			}
		}
	}

	clusters := map[int][]*idea.ExtractedIdea{}
	var roots []int
	for i := range hits {
		r := find(i)
		if _, ok := clusters[r]; !ok {
			roots = append(roots, r)
		}
		clusters[r] = append(clusters[r], hits[i].idea)
	}
	sort.Ints(roots)

	for _, r := range roots {
		if len(clusters[r]) == 1 {
			resolved = append(resolved, clusters[r][0])
		} else {
			ambiguous = append(ambiguous, clusters[r])
		}
	}
	return resolved, ambiguous
}

func deriveConfidence(total, unmarked, ambiguities int, matchedAnything bool) int {
	switch {
	case !matchedAnything:
		return 40
	case unmarked == 0 && ambiguities == 0:
		return 90
	case ambiguities > 0:
		return 65
	default:
		return 75
	}
}
