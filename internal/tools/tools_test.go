package tools

import (
	"context"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/reconstitutechrist-rgb/brainstorm/internal/classify"
	"github.com/reconstitutechrist-rgb/brainstorm/internal/docgen"
	"github.com/reconstitutechrist-rgb/brainstorm/internal/finalize"
	"github.com/reconstitutechrist-rgb/brainstorm/internal/review"
	"github.com/reconstitutechrist-rgb/brainstorm/internal/store"
)

// --- Test helpers ---

// env bundles the wired tool set backed by a real temp-dir store and
// the deterministic (oracle-less) classifier and parser.
type env struct {
	store       *store.Store
	coordinator *review.Coordinator

	classifyTool *ClassifyTool
	ideasTool    *IdeasTool
	startTool    *ReviewStartTool
	decideTool   *ReviewDecideTool
	clarifyTool  *ReviewClarifyTool
	confirmTool  *ReviewConfirmTool
	cancelTool   *ReviewCancelTool
}

func newEnv(t *testing.T) *env {
	t.Helper()

	s, err := store.New(store.Config{DataDir: t.TempDir()})
	if err != nil {
		t.Fatalf("store.New: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })

	coordinator := review.NewCoordinator(review.NewParser(nil))
	finalizer := finalize.New(s, docgen.New(nil))

	return &env{
		store:        s,
		coordinator:  coordinator,
		classifyTool: NewClassifyTool(s, classify.New(nil)),
		ideasTool:    NewIdeasTool(s),
		startTool:    NewReviewStartTool(s, coordinator),
		decideTool:   NewReviewDecideTool(coordinator),
		clarifyTool:  NewReviewClarifyTool(coordinator),
		confirmTool:  NewReviewConfirmTool(coordinator, finalizer),
		cancelTool:   NewReviewCancelTool(s, coordinator),
	}
}

func callReq(args map[string]interface{}) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	return req
}

func isErrorResult(result *mcp.CallToolResult) bool {
	return result != nil && result.IsError
}

func getResultText(result *mcp.CallToolResult) string {
	if result == nil || len(result.Content) == 0 {
		return ""
	}
	for _, c := range result.Content {
		if tc, ok := c.(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

// classifyBulk seeds a conversation with three decided ideas via the
// bulk-approval path (no oracle involved).
func classifyBulk(t *testing.T, e *env, conversationID string) {
	t.Helper()

	req := callReq(map[string]interface{}{
		"conversation_id": conversationID,
		"message":         "I love all of them!",
		"previous_assistant_message": "Here are some ideas:\n" +
			"1. OAuth login\n2. Dark Mode\n3. Export to PDF\n",
		"intent": "deciding",
	})
	result, err := e.classifyTool.Handle(context.Background(), req)
	if err != nil {
		t.Fatalf("classify Handle: %v", err)
	}
	if isErrorResult(result) {
		t.Fatalf("classify returned error: %s", getResultText(result))
	}
}

// --- ClassifyTool ---

func TestClassifyTool_BulkApprovalTracksIdeas(t *testing.T) {
	e := newEnv(t)
	classifyBulk(t, e, "conv-1")

	ideas, err := e.store.ListIdeas("conv-1")
	if err != nil {
		t.Fatalf("ListIdeas: %v", err)
	}
	if len(ideas) != 3 {
		t.Fatalf("tracked ideas = %d, want 3 from the bulk approval", len(ideas))
	}
	titles := map[string]bool{}
	for _, i := range ideas {
		titles[i.Idea.Title] = true
	}
	for _, want := range []string{"OAuth login", "Dark Mode", "Export to PDF"} {
		if !titles[want] {
			t.Errorf("missing tracked idea %q", want)
		}
	}
}

func TestClassifyTool_ReclassifyAppendsVersion(t *testing.T) {
	e := newEnv(t)
	classifyBulk(t, e, "conv-1")

	// A short affirmation resolves against the previous assistant turn;
	// when that referent is a tracked title, the existing idea evolves
	// instead of duplicating.
	req := callReq(map[string]interface{}{
		"conversation_id":            "conv-1",
		"message":                    "yes",
		"previous_assistant_message": "Dark Mode",
	})
	result, err := e.classifyTool.Handle(context.Background(), req)
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if isErrorResult(result) {
		t.Fatalf("classify returned error: %s", getResultText(result))
	}

	ideas, err := e.store.ListIdeas("conv-1")
	if err != nil {
		t.Fatalf("ListIdeas: %v", err)
	}
	if len(ideas) != 3 {
		t.Fatalf("tracked ideas = %d, want 3 (no duplicate)", len(ideas))
	}
	for _, i := range ideas {
		if i.Idea.Title == "Dark Mode" {
			if len(i.Evolution) == 0 {
				t.Error("reclassified idea has no evolution entry")
			}
			return
		}
	}
	t.Fatal("Dark Mode idea not found")
}

func TestClassifyTool_InvalidIntentRejected(t *testing.T) {
	e := newEnv(t)

	req := callReq(map[string]interface{}{
		"conversation_id": "conv-1",
		"message":         "let's do OAuth",
		"intent":          "vibing",
	})
	result, err := e.classifyTool.Handle(context.Background(), req)
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if !isErrorResult(result) {
		t.Error("invalid intent must produce a tool error")
	}
}

func TestClassifyTool_CompletedConversationRejected(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	classifyBulk(t, e, "conv-1")

	if _, err := e.startTool.Handle(ctx, callReq(map[string]interface{}{"conversation_id": "conv-1"})); err != nil {
		t.Fatalf("review_start: %v", err)
	}
	if _, err := e.decideTool.Handle(ctx, callReq(map[string]interface{}{
		"conversation_id": "conv-1",
		"statement":       "accept oauth and dark mode, reject export",
	})); err != nil {
		t.Fatalf("review_decide: %v", err)
	}
	if _, err := e.confirmTool.Handle(ctx, callReq(map[string]interface{}{"conversation_id": "conv-1"})); err != nil {
		t.Fatalf("review_confirm: %v", err)
	}

	result, err := e.classifyTool.Handle(ctx, callReq(map[string]interface{}{
		"conversation_id": "conv-1",
		"message":         "actually, let's add SSO too",
		"intent":          "deciding",
	}))
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if !isErrorResult(result) {
		t.Error("classifying into a finalized conversation must produce a tool error")
	}

	ideas, err := e.store.ListIdeas("conv-1")
	if err != nil {
		t.Fatalf("ListIdeas: %v", err)
	}
	if len(ideas) != 3 {
		t.Errorf("tracked ideas = %d after rejected classify, want 3 unchanged", len(ideas))
	}
}

func TestEnsureConversation_StoreFailureIsNotFirstContact(t *testing.T) {
	e := newEnv(t)
	_ = e.store.Close()

	_, err := ensureConversation(e.store, "conv-x")
	if err == nil {
		t.Fatal("a failing store must surface an error, not create a default chain")
	}
	if !strings.Contains(err.Error(), "loading conversation") {
		t.Errorf("err = %v, want the load failure surfaced rather than a creation attempt", err)
	}
}

// --- IdeasTool ---

func TestIdeasTool_ListsGrouped(t *testing.T) {
	e := newEnv(t)
	classifyBulk(t, e, "conv-1")

	result, err := e.ideasTool.Handle(context.Background(), callReq(map[string]interface{}{
		"conversation_id": "conv-1",
	}))
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	text := getResultText(result)
	if !strings.Contains(text, "OAuth login") || !strings.Contains(text, "Tracked ideas (3)") {
		t.Errorf("listing = %q", text)
	}
}

func TestIdeasTool_EmptyConversation(t *testing.T) {
	e := newEnv(t)

	result, err := e.ideasTool.Handle(context.Background(), callReq(map[string]interface{}{
		"conversation_id": "conv-none",
	}))
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if !strings.Contains(getResultText(result), "No ideas tracked") {
		t.Errorf("result = %q", getResultText(result))
	}
}

// --- Review flow ---

func TestReviewFlow_DecideConfirmFinalize(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	classifyBulk(t, e, "conv-1")

	result, err := e.startTool.Handle(ctx, callReq(map[string]interface{}{"conversation_id": "conv-1"}))
	if err != nil {
		t.Fatalf("review_start: %v", err)
	}
	if isErrorResult(result) {
		t.Fatalf("review_start error: %s", getResultText(result))
	}
	if !strings.Contains(getResultText(result), "3 ideas captured") {
		t.Errorf("summary = %q", getResultText(result))
	}

	conv, err := e.store.GetConversation("conv-1")
	if err != nil {
		t.Fatalf("GetConversation: %v", err)
	}
	if conv.SessionStatus != store.ConversationInReview {
		t.Errorf("status = %q, want in_review", conv.SessionStatus)
	}

	result, err = e.decideTool.Handle(ctx, callReq(map[string]interface{}{
		"conversation_id": "conv-1",
		"statement":       "accept oauth and dark mode, reject export",
	}))
	if err != nil {
		t.Fatalf("review_decide: %v", err)
	}
	if isErrorResult(result) {
		t.Fatalf("review_decide error: %s", getResultText(result))
	}
	if !strings.Contains(getResultText(result), "Ready to finalize") {
		t.Fatalf("decide outcome = %q", getResultText(result))
	}

	result, err = e.confirmTool.Handle(ctx, callReq(map[string]interface{}{"conversation_id": "conv-1"}))
	if err != nil {
		t.Fatalf("review_confirm: %v", err)
	}
	if isErrorResult(result) {
		t.Fatalf("review_confirm error: %s", getResultText(result))
	}
	if !strings.Contains(getResultText(result), "Session finalized") {
		t.Errorf("confirm outcome = %q", getResultText(result))
	}

	conv, err = e.store.GetConversation("conv-1")
	if err != nil {
		t.Fatalf("GetConversation: %v", err)
	}
	if conv.SessionStatus != store.ConversationCompleted {
		t.Errorf("status = %q, want completed", conv.SessionStatus)
	}

	// A second confirm has no active review to act on.
	result, err = e.confirmTool.Handle(ctx, callReq(map[string]interface{}{"conversation_id": "conv-1"}))
	if err != nil {
		t.Fatalf("second review_confirm: %v", err)
	}
	if !isErrorResult(result) {
		t.Error("confirming a finished review must produce a tool error")
	}
}

func TestReviewFlow_ClarificationRound(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	classifyBulk(t, e, "conv-1")

	if _, err := e.startTool.Handle(ctx, callReq(map[string]interface{}{"conversation_id": "conv-1"})); err != nil {
		t.Fatalf("review_start: %v", err)
	}

	result, err := e.decideTool.Handle(ctx, callReq(map[string]interface{}{
		"conversation_id": "conv-1",
		"statement":       "I want oauth",
	}))
	if err != nil {
		t.Fatalf("review_decide: %v", err)
	}
	if !strings.Contains(getResultText(result), "Clarification needed") {
		t.Fatalf("decide outcome = %q, want clarification", getResultText(result))
	}

	result, err = e.clarifyTool.Handle(ctx, callReq(map[string]interface{}{
		"conversation_id": "conv-1",
		"reply":           "accept dark mode too, reject export",
	}))
	if err != nil {
		t.Fatalf("review_clarify: %v", err)
	}
	if !strings.Contains(getResultText(result), "Ready to finalize") {
		t.Errorf("clarify outcome = %q", getResultText(result))
	}
}

func TestReviewCancel_RestoresStatus(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	classifyBulk(t, e, "conv-1")

	if _, err := e.startTool.Handle(ctx, callReq(map[string]interface{}{"conversation_id": "conv-1"})); err != nil {
		t.Fatalf("review_start: %v", err)
	}

	result, err := e.cancelTool.Handle(ctx, callReq(map[string]interface{}{"conversation_id": "conv-1"}))
	if err != nil {
		t.Fatalf("review_cancel: %v", err)
	}
	if isErrorResult(result) {
		t.Fatalf("review_cancel error: %s", getResultText(result))
	}

	conv, err := e.store.GetConversation("conv-1")
	if err != nil {
		t.Fatalf("GetConversation: %v", err)
	}
	if conv.SessionStatus != store.ConversationBrainstorming {
		t.Errorf("status = %q, want pre-review brainstorming", conv.SessionStatus)
	}

	// Nothing was committed.
	records, err := e.store.ListSessionRecords("conv-1")
	if err != nil {
		t.Fatalf("ListSessionRecords: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("session records = %d after cancel, want 0", len(records))
	}
}

func TestReviewStart_NoIdeas(t *testing.T) {
	e := newEnv(t)

	// Conversation exists but has no tracked ideas.
	if _, err := ensureConversation(e.store, "conv-empty"); err != nil {
		t.Fatalf("ensureConversation: %v", err)
	}
	result, err := e.startTool.Handle(context.Background(), callReq(map[string]interface{}{
		"conversation_id": "conv-empty",
	}))
	if err != nil {
		t.Fatalf("review_start: %v", err)
	}
	if !isErrorResult(result) {
		t.Error("starting a review with no ideas must produce a tool error")
	}
}
