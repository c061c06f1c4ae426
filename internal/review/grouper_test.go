package review

import (
	"reflect"
	"testing"

	"github.com/reconstitutechrist-rgb/brainstorm/internal/idea"
)

func TestGroupIdeas_StoredTopicPreferred(t *testing.T) {
	ideas := []*idea.ExtractedIdea{
		ideaWithTopic("a", "OAuth login", "Authentication"),
		ideaWithTopic("b", "Password reset", "Authentication"),
		ideaWithTopic("c", "Dark Mode", "Appearance"),
	}

	groups := GroupIdeas(ideas)
	if len(groups) != 2 {
		t.Fatalf("len(groups) = %d, want 2", len(groups))
	}
	if groups[0].Topic != "Authentication" || len(groups[0].Ideas) != 2 {
		t.Errorf("groups[0] = %s (%d ideas), want Authentication with 2", groups[0].Topic, len(groups[0].Ideas))
	}
	if groups[1].Topic != "Appearance" || len(groups[1].Ideas) != 1 {
		t.Errorf("groups[1] = %s (%d ideas), want Appearance with 1", groups[1].Topic, len(groups[1].Ideas))
	}
}

func TestGroupIdeas_LowConfidenceTopicIgnored(t *testing.T) {
	low := simpleIdea("a", "Webhook retries")
	low.Context.Topic = "Reliability"
	low.Context.TopicConfidence = 20

	groups := GroupIdeas([]*idea.ExtractedIdea{low})
	if len(groups) != 1 || groups[0].Topic != otherTopic {
		t.Errorf("groups = %+v, want single %s group", groups, otherTopic)
	}
}

func TestGroupIdeas_SimilarTitlesCluster(t *testing.T) {
	ideas := []*idea.ExtractedIdea{
		ideaWithTopic("a", "Export to PDF", "Export"),
		simpleIdea("b", "Export to CSV"),
		simpleIdea("c", "Team sharing"),
	}

	groups := GroupIdeas(ideas)
	if len(groups) != 2 {
		t.Fatalf("len(groups) = %d, want 2 (Export + Other)", len(groups))
	}
	if len(groups[0].Ideas) != 2 {
		t.Errorf("Export group has %d ideas, want 2 (CSV clustered by title)", len(groups[0].Ideas))
	}
	if groups[1].Topic != otherTopic {
		t.Errorf("last group = %s, want %s", groups[1].Topic, otherTopic)
	}
}

func TestGroupIdeas_Deterministic(t *testing.T) {
	ideas := []*idea.ExtractedIdea{
		ideaWithTopic("a", "OAuth login", "Authentication"),
		simpleIdea("b", "Dark Mode"),
		ideaWithTopic("c", "Rate limiting", "Performance"),
		simpleIdea("d", "Dark Mode scheduling"),
	}

	first := GroupIdeas(ideas)
	for range 10 {
		if got := GroupIdeas(ideas); !reflect.DeepEqual(got, first) {
			t.Fatal("GroupIdeas is not deterministic for a fixed input")
		}
	}
}

func TestGroupIdeas_EveryIdeaExactlyOnce(t *testing.T) {
	ideas := []*idea.ExtractedIdea{
		ideaWithTopic("a", "OAuth login", "Authentication"),
		simpleIdea("b", "Dark Mode"),
		simpleIdea("c", "OAuth admin console"),
	}

	groups := GroupIdeas(ideas)
	seen := map[string]int{}
	for _, g := range groups {
		for _, i := range g.Ideas {
			seen[i.ID]++
		}
	}
	for _, i := range ideas {
		if seen[i.ID] != 1 {
			t.Errorf("idea %q appears %d times across groups, want exactly 1", i.ID, seen[i.ID])
		}
	}
}

func TestGroupIdeas_CatchAllLast(t *testing.T) {
	ideas := []*idea.ExtractedIdea{
		simpleIdea("a", "Something odd"),
		ideaWithTopic("b", "OAuth login", "Authentication"),
	}

	groups := GroupIdeas(ideas)
	if groups[len(groups)-1].Topic != otherTopic {
		t.Errorf("last group = %s, want %s", groups[len(groups)-1].Topic, otherTopic)
	}
}
