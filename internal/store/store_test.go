package store

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/reconstitutechrist-rgb/brainstorm/internal/idea"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := New(Config{DataDir: t.TempDir()})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

// seedChain creates a project → sandbox → conversation chain and
// returns the conversation ID.
func seedChain(t *testing.T, s *Store) string {
	t.Helper()

	if err := s.CreateProject(Project{ID: "proj-1", Name: "Acme"}); err != nil {
		t.Fatalf("CreateProject: %v", err)
	}
	if err := s.CreateSandbox(Sandbox{ID: "sb-1", ProjectID: "proj-1", Name: "Exploration"}); err != nil {
		t.Fatalf("CreateSandbox: %v", err)
	}
	if err := s.CreateConversation(Conversation{ID: "conv-1", SandboxID: "sb-1", Title: "Feature brainstorm"}); err != nil {
		t.Fatalf("CreateConversation: %v", err)
	}
	return "conv-1"
}

func freezeTime(t *testing.T, at time.Time) {
	t.Helper()

	old := timeNow
	timeNow = func() time.Time { return at }
	t.Cleanup(func() { timeNow = old })
}

func TestCompleteConversation_IdempotencyGate(t *testing.T) {
	s := newTestStore(t)
	id := seedChain(t, s)
	freezeTime(t, time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC))

	decisions := []byte(`{"accepted":["a"],"rejected":[]}`)
	done, err := s.CompleteConversation(id, decisions)
	if err != nil {
		t.Fatalf("first CompleteConversation: %v", err)
	}
	if !done {
		t.Fatal("first completion should report rows affected")
	}

	first, err := s.GetConversation(id)
	if err != nil {
		t.Fatalf("GetConversation: %v", err)
	}
	if first.SessionStatus != ConversationCompleted {
		t.Errorf("status = %q, want %q", first.SessionStatus, ConversationCompleted)
	}
	if first.CompletedAt == nil || *first.CompletedAt != "2026-03-01T10:00:00Z" {
		t.Errorf("completed_at = %v, want frozen timestamp", first.CompletedAt)
	}

	// A later attempt must not touch the record.
	freezeTime(t, time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC))
	done, err = s.CompleteConversation(id, []byte(`{"accepted":[]}`))
	if err != nil {
		t.Fatalf("second CompleteConversation: %v", err)
	}
	if done {
		t.Error("second completion must report zero rows affected")
	}

	second, err := s.GetConversation(id)
	if err != nil {
		t.Fatalf("GetConversation: %v", err)
	}
	if *second.CompletedAt != *first.CompletedAt {
		t.Errorf("completed_at changed: %q → %q", *first.CompletedAt, *second.CompletedAt)
	}
	if string(second.FinalDecisions) != string(decisions) {
		t.Errorf("final_decisions changed: %s", second.FinalDecisions)
	}
}

func TestUpdateConversationStatus_SkipsCompleted(t *testing.T) {
	s := newTestStore(t)
	id := seedChain(t, s)

	if err := s.UpdateConversationStatus(id, ConversationBrainstorming); err != nil {
		t.Fatalf("UpdateConversationStatus: %v", err)
	}
	if _, err := s.CompleteConversation(id, []byte(`{}`)); err != nil {
		t.Fatalf("CompleteConversation: %v", err)
	}
	if err := s.UpdateConversationStatus(id, ConversationActive); err == nil {
		t.Error("status update on a completed conversation must fail")
	}
}

func TestAppendVersionRecord_NoReuse(t *testing.T) {
	s := newTestStore(t)

	rec := idea.VersionRecord{
		ItemID:        "idea-1",
		VersionNumber: 1,
		Content:       idea.Content{Title: "OAuth"},
		ChangeType:    "initial_capture",
		TriggeredBy:   idea.ChangedByUser,
	}
	if err := s.AppendVersionRecord(rec); err != nil {
		t.Fatalf("append v1: %v", err)
	}

	rec.VersionNumber = 2
	rec.PreviousVersion = 1
	rec.ChangeType = "refinement"
	if err := s.AppendVersionRecord(rec); err != nil {
		t.Fatalf("append v2: %v", err)
	}

	// Version numbers are never reused for the same item.
	rec.VersionNumber = 1
	if err := s.AppendVersionRecord(rec); err == nil {
		t.Error("reusing a version number must fail")
	}

	records, err := s.ListVersionRecords("idea-1")
	if err != nil {
		t.Fatalf("ListVersionRecords: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("len(records) = %d, want 2", len(records))
	}
	for n, r := range records {
		if r.VersionNumber != n+1 {
			t.Errorf("records[%d].VersionNumber = %d, want %d", n, r.VersionNumber, n+1)
		}
	}
	if records[1].ChangeType != "refinement" || records[1].PreviousVersion != 1 {
		t.Errorf("v2 = %+v, want refinement of v1", records[1])
	}
}

func TestProjectItems_AppendOnlyRoundTrip(t *testing.T) {
	s := newTestStore(t)
	seedChain(t, s)

	snapshot := idea.ExtractedIdea{
		ID:     "idea-1",
		Source: idea.SourceUserMention,
		Idea:   idea.Content{Title: "OAuth", Description: "OAuth login"},
		Status: idea.StatusReadyToExtract,
	}
	item := idea.ProjectItem{
		ID:        "item-1",
		ProjectID: "proj-1",
		Text:      "OAuth login",
		State:     idea.StateDecided,
		Meta: idea.ProjectItemMeta{
			FromBrainstorm: true,
			SessionID:      "sess-1",
			OriginalIdea:   snapshot,
		},
	}
	if err := s.AppendProjectItem(item); err != nil {
		t.Fatalf("AppendProjectItem: %v", err)
	}
	if err := s.AppendProjectItem(idea.ProjectItem{
		ID: "item-2", ProjectID: "proj-1", Text: "Dark mode", State: idea.StateDecided,
	}); err != nil {
		t.Fatalf("AppendProjectItem: %v", err)
	}

	items, err := s.ListProjectItems("proj-1")
	if err != nil {
		t.Fatalf("ListProjectItems: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("len(items) = %d, want 2", len(items))
	}
	got := items[0]
	if got.State != idea.StateDecided {
		t.Errorf("state = %q, want %q", got.State, idea.StateDecided)
	}
	if !got.Meta.FromBrainstorm || got.Meta.SessionID != "sess-1" {
		t.Errorf("metadata = %+v, want brainstorm provenance", got.Meta)
	}
	if got.Meta.OriginalIdea.Idea.Title != "OAuth" {
		t.Errorf("snapshot title = %q, want OAuth", got.Meta.OriginalIdea.Idea.Title)
	}
}

func TestIdeas_PutIsUpsert(t *testing.T) {
	s := newTestStore(t)
	id := seedChain(t, s)

	i := &idea.ExtractedIdea{
		ID:     "idea-1",
		Source: idea.SourceUserMention,
		Idea:   idea.Content{Title: "OAuth"},
		Status: idea.StatusMentioned,
	}
	if err := s.PutIdea(id, i); err != nil {
		t.Fatalf("PutIdea: %v", err)
	}

	i.Status = idea.StatusRefined
	i.Evolution = append(i.Evolution, idea.Version{Version: 1, Content: i.Idea, ChangedBy: idea.ChangedByUser})
	if err := s.PutIdea(id, i); err != nil {
		t.Fatalf("PutIdea update: %v", err)
	}

	got, err := s.GetIdea("idea-1")
	if err != nil {
		t.Fatalf("GetIdea: %v", err)
	}
	if got.Status != idea.StatusRefined {
		t.Errorf("status = %q, want %q", got.Status, idea.StatusRefined)
	}
	if len(got.Evolution) != 1 {
		t.Errorf("evolution = %d entries, want 1", len(got.Evolution))
	}

	ideas, err := s.ListIdeas(id)
	if err != nil {
		t.Fatalf("ListIdeas: %v", err)
	}
	if len(ideas) != 1 {
		t.Errorf("len(ideas) = %d, want 1 (upsert, not duplicate)", len(ideas))
	}
}

func TestDocuments_UpdateBumpsVersion(t *testing.T) {
	s := newTestStore(t)
	seedChain(t, s)

	doc := Document{ID: "doc-1", ProjectID: "proj-1", DocType: "session_summary", Title: "Accepted", Content: "v1"}
	if err := s.CreateDocument(doc); err != nil {
		t.Fatalf("CreateDocument: %v", err)
	}

	v, err := s.UpdateDocument("doc-1", "Accepted", "v2")
	if err != nil {
		t.Fatalf("UpdateDocument: %v", err)
	}
	if v != 2 {
		t.Errorf("version = %d, want 2", v)
	}
	if v, err = s.UpdateDocument("doc-1", "Accepted", "v3"); err != nil || v != 3 {
		t.Errorf("version = %d (err %v), want 3", v, err)
	}

	got, err := s.GetDocument("doc-1")
	if err != nil {
		t.Fatalf("GetDocument: %v", err)
	}
	if got.Content != "v3" || got.Version != 3 {
		t.Errorf("doc = v%d %q, want v3 \"v3\"", got.Version, got.Content)
	}
}

func TestSessionRecord_RoundTrip(t *testing.T) {
	s := newTestStore(t)
	id := seedChain(t, s)

	rec := idea.SessionRecord{
		ID:             "sess-1",
		ConversationID: id,
		Name:           "Session 2026-03-01 — Authentication",
		AcceptedIdeas: []idea.ExtractedIdea{
			{ID: "idea-1", Source: idea.SourceUserMention, Idea: idea.Content{Title: "OAuth"}},
		},
		RejectedIdeas:        []idea.ExtractedIdea{},
		UnmarkedIdeas:        []idea.ExtractedIdea{},
		GeneratedDocumentIDs: []string{"doc-1", "doc-2"},
		UpdatedDocumentIDs:   []string{},
		CreatedAt:            "2026-03-01T10:00:00Z",
		CompletedAt:          "2026-03-01T10:00:05Z",
	}
	if err := s.CreateSessionRecord(rec); err != nil {
		t.Fatalf("CreateSessionRecord: %v", err)
	}

	got, err := s.GetSessionRecord("sess-1")
	if err != nil {
		t.Fatalf("GetSessionRecord: %v", err)
	}
	if got.Name != rec.Name || got.CompletedAt != rec.CompletedAt {
		t.Errorf("record = %+v, want %+v", got, rec)
	}
	if len(got.AcceptedIdeas) != 1 || got.AcceptedIdeas[0].Idea.Title != "OAuth" {
		t.Errorf("accepted = %+v, want one OAuth snapshot", got.AcceptedIdeas)
	}
	if len(got.GeneratedDocumentIDs) != 2 {
		t.Errorf("generated docs = %v, want 2 ids", got.GeneratedDocumentIDs)
	}

	records, err := s.ListSessionRecords(id)
	if err != nil {
		t.Fatalf("ListSessionRecords: %v", err)
	}
	if len(records) != 1 {
		t.Errorf("len(records) = %d, want 1", len(records))
	}
}

func TestGetMissingReturnsNotFound(t *testing.T) {
	s := newTestStore(t)

	checks := []struct {
		name string
		err  error
	}{
		{"project", errFrom(s.GetProject("missing"))},
		{"sandbox", errFrom(s.GetSandbox("missing"))},
		{"conversation", errFrom(s.GetConversation("missing"))},
		{"document", errFrom(s.GetDocument("missing"))},
		{"idea", errFrom(s.GetIdea("missing"))},
		{"session record", errFrom(s.GetSessionRecord("missing"))},
	}
	for _, c := range checks {
		if !errors.Is(c.err, ErrNotFound) {
			t.Errorf("%s: err = %v, want ErrNotFound", c.name, c.err)
		}
	}
}

func errFrom[T any](_ T, err error) error { return err }

func TestConversation_FinalDecisionsNullUntilCompleted(t *testing.T) {
	s := newTestStore(t)
	id := seedChain(t, s)

	c, err := s.GetConversation(id)
	if err != nil {
		t.Fatalf("GetConversation: %v", err)
	}
	if c.FinalDecisions != nil {
		t.Errorf("final_decisions = %s, want nil before completion", c.FinalDecisions)
	}

	if _, err := s.CompleteConversation(id, mustJSON(t, map[string]any{"accepted": []string{"a"}})); err != nil {
		t.Fatalf("CompleteConversation: %v", err)
	}
	c, err = s.GetConversation(id)
	if err != nil {
		t.Fatalf("GetConversation: %v", err)
	}
	var parsed map[string]any
	if err := json.Unmarshal(c.FinalDecisions, &parsed); err != nil {
		t.Fatalf("final_decisions is not valid JSON: %v", err)
	}
}

func mustJSON(t *testing.T, v any) []byte {
	t.Helper()

	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return b
}
