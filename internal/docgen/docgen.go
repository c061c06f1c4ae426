// Package docgen produces project documents from idea sets: the
// per-session accepted/rejected summaries and regenerated live
// documents. The finalizer treats documents as opaque content — all
// rendering decisions live here.
package docgen

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/reconstitutechrist-rgb/brainstorm/internal/idea"
	"github.com/reconstitutechrist-rgb/brainstorm/internal/oracle"
	"github.com/reconstitutechrist-rgb/brainstorm/internal/store"
)

// Document types produced during finalize.
const (
	DocTypeAcceptedSummary = "session_summary_accepted"
	DocTypeRejectedSummary = "session_summary_rejected"
)

// emptySetPlaceholder is the body line used when a summary covers an
// empty idea set. Summaries are generated for every finalize, even one
// with nothing in a list.
const emptySetPlaceholder = "none recorded"

// Generator produces and refreshes project documents.
type Generator interface {
	// Summary renders a new summary document for one idea set.
	Summary(ctx context.Context, projectID, docType, title string, ideas []idea.ExtractedIdea) (store.Document, error)

	// Regenerate re-renders an existing live document so it reflects
	// the accepted ideas. Returns the new content.
	Regenerate(ctx context.Context, doc store.Document, accepted []idea.ExtractedIdea) (string, error)
}

// OracleGenerator renders documents with the oracle when one is
// configured, falling back to a deterministic rendering when the
// oracle is absent or fails. Document generation never blocks a
// finalize on oracle availability.
type OracleGenerator struct {
	oracle oracle.Oracle
}

// New creates an OracleGenerator. The oracle may be nil.
func New(o oracle.Oracle) *OracleGenerator {
	return &OracleGenerator{oracle: o}
}

// Summary renders a new summary document for one idea set.
func (g *OracleGenerator) Summary(ctx context.Context, projectID, docType, title string, ideas []idea.ExtractedIdea) (store.Document, error) {
	content := renderSummary(title, ideas)
	if g.oracle != nil && len(ideas) > 0 {
		if polished, err := g.oracle.Complete(ctx, summaryPrompt(title, ideas)); err == nil && strings.TrimSpace(polished) != "" {
			content = polished
		} else if err != nil {
			log.Printf("docgen: oracle summary failed, using deterministic rendering: %v", err)
		}
	}

	now := timeNow().UTC().Format(time.RFC3339)
	return store.Document{
		ID:        uuid.NewString(),
		ProjectID: projectID,
		DocType:   docType,
		Title:     title,
		Content:   content,
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// Regenerate re-renders an existing live document around the accepted
// ideas. The stored version bump belongs to the store, not here.
func (g *OracleGenerator) Regenerate(ctx context.Context, doc store.Document, accepted []idea.ExtractedIdea) (string, error) {
	if g.oracle != nil {
		content, err := g.oracle.Complete(ctx, regeneratePrompt(doc, accepted))
		if err == nil && strings.TrimSpace(content) != "" {
			return content, nil
		}
		if err != nil {
			log.Printf("docgen: oracle regenerate failed for %q, using deterministic rendering: %v", doc.ID, err)
		}
	}
	return appendDecisions(doc.Content, accepted), nil
}

// ─── Deterministic rendering ─────────────────────────────────────────────────

func renderSummary(title string, ideas []idea.ExtractedIdea) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s\n\n", title)
	if len(ideas) == 0 {
		sb.WriteString(emptySetPlaceholder)
		sb.WriteString("\n")
		return sb.String()
	}
	for _, i := range ideas {
		fmt.Fprintf(&sb, "- **%s** — %s\n", i.Idea.Title, i.Idea.Description)
	}
	return sb.String()
}

func appendDecisions(existing string, accepted []idea.ExtractedIdea) string {
	var sb strings.Builder
	sb.WriteString(strings.TrimRight(existing, "\n"))
	sb.WriteString("\n\n## Decisions from brainstorm\n\n")
	if len(accepted) == 0 {
		sb.WriteString(emptySetPlaceholder)
		sb.WriteString("\n")
		return sb.String()
	}
	for _, i := range accepted {
		fmt.Fprintf(&sb, "- %s\n", i.Idea.Title)
	}
	return sb.String()
}

// ─── Prompts ─────────────────────────────────────────────────────────────────

func summaryPrompt(title string, ideas []idea.ExtractedIdea) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Write a concise markdown summary document titled %q covering these ideas.\n", title)
	sb.WriteString("One section per idea: title, description, and the user's reasoning when present.\n\nIdeas:\n")
	for _, i := range ideas {
		fmt.Fprintf(&sb, "- %s: %s", i.Idea.Title, i.Idea.Description)
		if i.Idea.Reasoning != "" {
			fmt.Fprintf(&sb, " (reasoning: %s)", i.Idea.Reasoning)
		}
		sb.WriteString("\n")
	}
	sb.WriteString("\nReply with the markdown document only.\n")
	return sb.String()
}

func regeneratePrompt(doc store.Document, accepted []idea.ExtractedIdea) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Update the following %s document so it incorporates the newly accepted ideas. Preserve existing content and structure.\n\n", doc.DocType)
	sb.WriteString("Current document:\n")
	sb.WriteString(doc.Content)
	sb.WriteString("\n\nNewly accepted ideas:\n")
	for _, i := range accepted {
		fmt.Fprintf(&sb, "- %s: %s\n", i.Idea.Title, i.Idea.Description)
	}
	sb.WriteString("\nReply with the full updated markdown document only.\n")
	return sb.String()
}

// timeNow is a package-level var to allow test freezing.
var timeNow = time.Now
