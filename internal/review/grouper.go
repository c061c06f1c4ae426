// Package review drives the end-of-session review: grouping extracted
// ideas by topic, parsing one free-text decision statement against the
// full idea list, looping through clarification rounds, and gating the
// finalize step behind an explicit confirmation.
package review

import (
	"strings"

	"github.com/reconstitutechrist-rgb/brainstorm/internal/idea"
)

// topicConfidenceFloor is the minimum stored topic confidence at which
// an idea's own topic label is trusted over content clustering.
const topicConfidenceFloor = 60

// otherTopic is the catch-all group for ideas that fit nowhere else.
const otherTopic = "Other"

// topicIcons maps topic keywords to display icons, checked in order so
// the result is deterministic. Unknown topics get the default idea
// icon; the catch-all gets its own.
var topicIcons = []struct {
	word string
	icon string
}{
	{"auth", "🔐"},
	{"security", "🔐"},
	{"ui", "🎨"},
	{"design", "🎨"},
	{"export", "📤"},
	{"mobile", "📱"},
	{"performance", "⚡"},
	{"data", "🗄️"},
	{"storage", "🗄️"},
	{"sharing", "👥"},
	{"team", "👥"},
}

// GroupIdeas clusters ideas into ordered topic groups for human review.
// Deterministic for a fixed input: ideas are visited in input order,
// groups appear in first-seen order, and the catch-all group comes last.
// Every idea lands in exactly one group.
//
// An idea's stored topic is preferred when its confidence clears the
// floor; otherwise the idea joins the first existing group whose member
// titles share a significant word, and failing that, the catch-all.
func GroupIdeas(ideas []*idea.ExtractedIdea) []idea.TopicGroup {
	var order []string
	byTopic := map[string]*idea.TopicGroup{}

	place := func(topic string, i *idea.ExtractedIdea) {
		g, ok := byTopic[topic]
		if !ok {
			g = &idea.TopicGroup{Topic: topic, Icon: iconFor(topic)}
			byTopic[topic] = g
			order = append(order, topic)
		}
		g.Ideas = append(g.Ideas, i)
	}

	for _, i := range ideas {
		if i.Context.Topic != "" && i.Context.TopicConfidence >= topicConfidenceFloor {
			place(i.Context.Topic, i)
			continue
		}
		if topic := similarTopic(i, order, byTopic); topic != "" {
			place(topic, i)
			continue
		}
		place(otherTopic, i)
	}

	groups := make([]idea.TopicGroup, 0, len(order))
	for _, topic := range order {
		if topic == otherTopic {
			continue
		}
		groups = append(groups, *byTopic[topic])
	}
	if g, ok := byTopic[otherTopic]; ok {
		groups = append(groups, *g)
	}
	return groups
}

// similarTopic returns the first existing group whose members share a
// significant title word with the idea, or "" if none does.
func similarTopic(i *idea.ExtractedIdea, order []string, byTopic map[string]*idea.TopicGroup) string {
	words := titleWords(i.Idea.Title)
	for _, topic := range order {
		if topic == otherTopic {
			continue
		}
		for _, member := range byTopic[topic].Ideas {
			if sharesWord(words, titleWords(member.Idea.Title)) {
				return topic
			}
		}
	}
	return ""
}

func titleWords(title string) map[string]bool {
	words := map[string]bool{}
	for _, w := range strings.Fields(strings.ToLower(title)) {
		w = strings.Trim(w, ".,!?:;()\"'")
		if len(w) >= 3 {
			words[w] = true
		}
	}
	return words
}

func sharesWord(a, b map[string]bool) bool {
	for w := range a {
		if b[w] {
			return true
		}
	}
	return false
}

func iconFor(topic string) string {
	if topic == otherTopic {
		return "📦"
	}
	lower := strings.ToLower(topic)
	for _, entry := range topicIcons {
		if strings.Contains(lower, entry.word) {
			return entry.icon
		}
	}
	return "💡"
}
