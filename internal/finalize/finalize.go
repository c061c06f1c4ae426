// Package finalize commits a confirmed review: it snapshots the
// session, generates summary documents, refreshes live project
// documents, appends accepted ideas to the project's permanent item
// list, and closes the conversation. The conversation's session status
// is the idempotency gate — a conversation finalizes exactly once.
package finalize

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/reconstitutechrist-rgb/brainstorm/internal/docgen"
	"github.com/reconstitutechrist-rgb/brainstorm/internal/idea"
	"github.com/reconstitutechrist-rgb/brainstorm/internal/review"
	"github.com/reconstitutechrist-rgb/brainstorm/internal/store"
)

// ErrAlreadyFinalized is returned when the conversation was already
// completed by an earlier finalize.
var ErrAlreadyFinalized = errors.New("finalize: conversation already finalized")

// Summary reports what one finalize committed.
type Summary struct {
	SessionRecordID      string   `json:"session_record_id"`
	SessionName          string   `json:"session_name"`
	GeneratedDocumentIDs []string `json:"generated_document_ids"`
	UpdatedDocumentIDs   []string `json:"updated_document_ids"`
	ProjectItemsAdded    int      `json:"project_items_added"`
	AcceptedCount        int      `json:"accepted_count"`
	RejectedCount        int      `json:"rejected_count"`
	UnmarkedCount        int      `json:"unmarked_count"`
}

// Finalizer runs the multi-store finalize commit.
type Finalizer struct {
	store *store.Store
	docs  docgen.Generator

	// Refresh, when set, is invoked in the background after a
	// successful finalize to rebuild cached suggestion summaries.
	// Failures are logged and never surface to the caller.
	Refresh func(projectID string) error

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// New creates a Finalizer.
func New(s *store.Store, docs docgen.Generator) *Finalizer {
	return &Finalizer{store: s, docs: docs, locks: map[string]*sync.Mutex{}}
}

// lockFor returns the per-conversation mutex, creating it on first use.
// Finalize attempts for the same conversation are serialized; unrelated
// conversations proceed independently.
func (f *Finalizer) lockFor(conversationID string) *sync.Mutex {
	f.mu.Lock()
	defer f.mu.Unlock()

	mu, ok := f.locks[conversationID]
	if !ok {
		mu = &sync.Mutex{}
		f.locks[conversationID] = mu
	}
	return mu
}

// Finalize commits the confirmed decisions for a conversation.
//
// Document work happens before any project mutation: a failure while
// generating or refreshing documents aborts the finalize with nothing
// appended to the project. The final conditional status update enforces
// idempotency even if a concurrent finalize raced past the initial
// check.
func (f *Finalizer) Finalize(ctx context.Context, conversationID string, decisions *review.ParsedDecisions) (*Summary, error) {
	mu := f.lockFor(conversationID)
	mu.Lock()
	defer mu.Unlock()

	// Resolve the conversation → sandbox → project chain, naming the
	// missing link.
	conv, err := f.store.GetConversation(conversationID)
	if err != nil {
		return nil, fmt.Errorf("finalize: resolve conversation: %w", err)
	}
	if conv.SessionStatus == store.ConversationCompleted {
		return nil, ErrAlreadyFinalized
	}
	sandbox, err := f.store.GetSandbox(conv.SandboxID)
	if err != nil {
		return nil, fmt.Errorf("finalize: resolve sandbox for conversation %q: %w", conversationID, err)
	}
	project, err := f.store.GetProject(sandbox.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("finalize: resolve project for sandbox %q: %w", sandbox.ID, err)
	}

	accepted := snapshot(decisions.Accepted)
	rejected := snapshot(decisions.Rejected)
	unmarked := snapshot(decisions.Unmarked)

	now := timeNow().UTC()
	sessionName := deriveSessionName(now, decisions.Accepted)

	// Summary documents are generated for every finalize, empty sets
	// included. Any document failure aborts before project mutation.
	acceptedDoc, err := f.docs.Summary(ctx, project.ID, docgen.DocTypeAcceptedSummary, sessionName+" — accepted", accepted)
	if err != nil {
		return nil, fmt.Errorf("finalize: generate accepted summary (nothing committed): %w", err)
	}
	rejectedDoc, err := f.docs.Summary(ctx, project.ID, docgen.DocTypeRejectedSummary, sessionName+" — rejected", rejected)
	if err != nil {
		return nil, fmt.Errorf("finalize: generate rejected summary (nothing committed): %w", err)
	}

	// Refresh live project documents so they reflect the accepted
	// ideas. Session summaries themselves are never regenerated.
	var updatedIDs []string
	if len(accepted) > 0 {
		liveDocs, err := f.store.ListDocuments(project.ID, "")
		if err != nil {
			return nil, fmt.Errorf("finalize: list project documents (nothing committed): %w", err)
		}
		for _, doc := range liveDocs {
			if doc.DocType == docgen.DocTypeAcceptedSummary || doc.DocType == docgen.DocTypeRejectedSummary {
				continue
			}
			content, err := f.docs.Regenerate(ctx, doc, accepted)
			if err != nil {
				return nil, fmt.Errorf("finalize: regenerate document %q (nothing committed): %w", doc.ID, err)
			}
			if _, err := f.store.UpdateDocument(doc.ID, doc.Title, content); err != nil {
				return nil, fmt.Errorf("finalize: store document %q: %w", doc.ID, err)
			}
			updatedIDs = append(updatedIDs, doc.ID)
		}
	}

	if err := f.store.CreateDocument(acceptedDoc); err != nil {
		return nil, fmt.Errorf("finalize: store accepted summary: %w", err)
	}
	if err := f.store.CreateDocument(rejectedDoc); err != nil {
		return nil, fmt.Errorf("finalize: store rejected summary: %w", err)
	}
	generatedIDs := []string{acceptedDoc.ID, rejectedDoc.ID}

	// Immutable session record with full snapshots.
	record := idea.SessionRecord{
		ID:                   uuid.NewString(),
		ConversationID:       conversationID,
		Name:                 sessionName,
		AcceptedIdeas:        accepted,
		RejectedIdeas:        rejected,
		UnmarkedIdeas:        unmarked,
		GeneratedDocumentIDs: generatedIDs,
		UpdatedDocumentIDs:   append([]string{}, updatedIDs...),
		CreatedAt:            conv.CreatedAt,
		CompletedAt:          now.Format(time.RFC3339),
	}
	if err := f.store.CreateSessionRecord(record); err != nil {
		return nil, fmt.Errorf("finalize: store session record: %w", err)
	}

	// One permanent project item per accepted idea, plus a version
	// record marking the transition into the project.
	for _, src := range decisions.Accepted {
		item := idea.ProjectItem{
			ID:        uuid.NewString(),
			ProjectID: project.ID,
			Text:      src.Idea.Title,
			State:     idea.StateDecided,
			CreatedAt: now.Format(time.RFC3339),
			Meta: idea.ProjectItemMeta{
				FromBrainstorm: true,
				SessionID:      record.ID,
				OriginalIdea:   *src,
			},
		}
		if err := f.store.AppendProjectItem(item); err != nil {
			return nil, fmt.Errorf("finalize: append project item for idea %q: %w", src.ID, err)
		}

		rec, err := idea.AppendVersion(src, src.Idea, idea.ChangedByUser, "accepted_into_project", "accepted during session review")
		if err != nil {
			return nil, fmt.Errorf("finalize: version idea %q: %w", src.ID, err)
		}
		if err := f.store.AppendVersionRecord(rec); err != nil {
			return nil, fmt.Errorf("finalize: record version for idea %q: %w", src.ID, err)
		}
		// The stored payload must carry the new evolution entry, or a
		// later version on the re-read idea would reuse this number.
		if err := f.store.PutIdea(conversationID, src); err != nil {
			return nil, fmt.Errorf("finalize: persist versioned idea %q: %w", src.ID, err)
		}
	}

	// The conditional update is the authoritative idempotency gate:
	// zero rows affected means another finalize won the race.
	finalDecisions, err := json.Marshal(map[string]any{
		"accepted":   ids(decisions.Accepted),
		"rejected":   ids(decisions.Rejected),
		"unmarked":   ids(decisions.Unmarked),
		"confidence": decisions.Confidence,
	})
	if err != nil {
		return nil, fmt.Errorf("finalize: marshal final decisions: %w", err)
	}
	done, err := f.store.CompleteConversation(conversationID, finalDecisions)
	if err != nil {
		return nil, fmt.Errorf("finalize: complete conversation: %w", err)
	}
	if !done {
		return nil, ErrAlreadyFinalized
	}

	if err := f.store.UpdateSandboxStatus(sandbox.ID, store.SandboxSavedAsAlternative, sessionName); err != nil {
		return nil, fmt.Errorf("finalize: mark sandbox saved: %w", err)
	}

	if f.Refresh != nil {
		go func(projectID string) {
			if err := f.Refresh(projectID); err != nil {
				log.Printf("finalize: background suggestion refresh for project %q: %v", projectID, err)
			}
		}(project.ID)
	}

	return &Summary{
		SessionRecordID:      record.ID,
		SessionName:          sessionName,
		GeneratedDocumentIDs: generatedIDs,
		UpdatedDocumentIDs:   updatedIDs,
		ProjectItemsAdded:    len(accepted),
		AcceptedCount:        len(accepted),
		RejectedCount:        len(rejected),
		UnmarkedCount:        len(unmarked),
	}, nil
}

// deriveSessionName builds the record name from the completion date and
// the dominant accepted topic.
func deriveSessionName(now time.Time, accepted []*idea.ExtractedIdea) string {
	topic := "Review"
	if len(accepted) > 0 {
		groups := review.GroupIdeas(accepted)
		best := groups[0]
		for _, g := range groups[1:] {
			if len(g.Ideas) > len(best.Ideas) {
				best = g
			}
		}
		topic = best.Topic
	}
	return fmt.Sprintf("Session %s — %s", now.Format("2006-01-02"), topic)
}

func snapshot(ideas []*idea.ExtractedIdea) []idea.ExtractedIdea {
	out := make([]idea.ExtractedIdea, 0, len(ideas))
	for _, i := range ideas {
		out = append(out, *i)
	}
	return out
}

func ids(ideas []*idea.ExtractedIdea) []string {
	out := make([]string, 0, len(ideas))
	for _, i := range ideas {
		out = append(out, i.ID)
	}
	return out
}

// timeNow is a package-level var to allow test freezing.
var timeNow = time.Now
