// Package server wires all MCP components and creates the server instance.
//
// This is the composition root (DIP): it creates concrete implementations
// and injects them into the tools/prompts/resources that depend on
// abstractions. No business logic lives here — only wiring.
package server

import (
	"fmt"
	"log"

	"github.com/mark3labs/mcp-go/server"

	"github.com/reconstitutechrist-rgb/brainstorm/internal/classify"
	"github.com/reconstitutechrist-rgb/brainstorm/internal/config"
	"github.com/reconstitutechrist-rgb/brainstorm/internal/docgen"
	"github.com/reconstitutechrist-rgb/brainstorm/internal/finalize"
	"github.com/reconstitutechrist-rgb/brainstorm/internal/oracle"
	"github.com/reconstitutechrist-rgb/brainstorm/internal/prompts"
	"github.com/reconstitutechrist-rgb/brainstorm/internal/resources"
	"github.com/reconstitutechrist-rgb/brainstorm/internal/review"
	"github.com/reconstitutechrist-rgb/brainstorm/internal/store"
	"github.com/reconstitutechrist-rgb/brainstorm/internal/tools"
)

// Version is set at build time via ldflags.
var Version = "dev"

// New creates and configures the MCP server with all tools, prompts,
// and resources registered. This is the single place where all
// dependencies are resolved.
//
// The returned cleanup function closes the store's database connection
// and must be called on shutdown (typically via defer). It is always
// non-nil.
func New() (*server.MCPServer, func(), error) {
	cfg := config.Load()

	// --- Create shared dependencies ---

	st, err := store.New(store.Config{DataDir: cfg.DataDir})
	if err != nil {
		return nil, noop, fmt.Errorf("opening store: %w", err)
	}
	cleanup := func() {
		if err := st.Close(); err != nil {
			log.Printf("WARNING: store close: %v", err)
		}
	}

	// The oracle is optional: without an API key every deterministic
	// path still works, and oracle-dependent paths degrade to their
	// conservative fallbacks.
	var o oracle.Oracle
	if cfg.AnthropicAPIKey == "" {
		log.Printf("WARNING: ANTHROPIC_API_KEY not set: classification and decision parsing run on deterministic paths only")
	} else {
		client, err := oracle.NewClient(oracle.Config{
			APIKey:  cfg.AnthropicAPIKey,
			Model:   cfg.OracleModel,
			BaseURL: cfg.OracleBaseURL,
			Timeout: cfg.OracleTimeout,
		})
		if err != nil {
			return nil, cleanup, fmt.Errorf("creating oracle client: %w", err)
		}
		o = client
	}

	classifier := classify.New(o)
	coordinator := review.NewCoordinator(review.NewParser(o))
	finalizer := finalize.New(st, docgen.New(o))

	// --- Create the MCP server ---

	s := server.NewMCPServer(
		"brainstorm",
		Version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithPromptCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(serverInstructions()),
	)

	// --- Register brainstorm tools ---

	classifyTool := tools.NewClassifyTool(st, classifier)
	s.AddTool(classifyTool.Definition(), classifyTool.Handle)

	ideasTool := tools.NewIdeasTool(st)
	s.AddTool(ideasTool.Definition(), ideasTool.Handle)

	// --- Register review tools ---

	reviewStartTool := tools.NewReviewStartTool(st, coordinator)
	s.AddTool(reviewStartTool.Definition(), reviewStartTool.Handle)

	reviewDecideTool := tools.NewReviewDecideTool(coordinator)
	s.AddTool(reviewDecideTool.Definition(), reviewDecideTool.Handle)

	reviewClarifyTool := tools.NewReviewClarifyTool(coordinator)
	s.AddTool(reviewClarifyTool.Definition(), reviewClarifyTool.Handle)

	reviewConfirmTool := tools.NewReviewConfirmTool(coordinator, finalizer)
	s.AddTool(reviewConfirmTool.Definition(), reviewConfirmTool.Handle)

	reviewCancelTool := tools.NewReviewCancelTool(st, coordinator)
	s.AddTool(reviewCancelTool.Definition(), reviewCancelTool.Handle)

	// --- Register prompts ---

	reviewPrompt := prompts.NewReviewPrompt()
	s.AddPrompt(reviewPrompt.Definition(), reviewPrompt.Handle)

	// --- Register resources ---

	resourceHandler := resources.NewHandler(st)
	s.AddResource(resourceHandler.SessionsResource(), resourceHandler.HandleSessions)
	s.AddResource(resourceHandler.ItemsResource(), resourceHandler.HandleItems)

	return s, cleanup, nil
}

// noop is a no-op cleanup function used before the store is opened.
func noop() {}

// serverInstructions returns the system instructions that tell the AI
// how to use the brainstorm engine effectively.
func serverInstructions() string {
	return `You have access to Brainstorm, an idea lifecycle MCP server.

## WHAT IT DOES

Brainstorm tracks the ideas that surface while you and the user explore a
topic, classifies each one into a decision state (decided, exploring,
parked, rejected), and runs a structured end-of-session review that turns
the user's decisions into a permanent project record.

## DURING THE CONVERSATION

Call brainstorm_classify after every substantive user message:
- Pass the user's message verbatim, plus your own previous message as
  previous_assistant_message. Short replies like "yes" or "love it" and
  bulk approvals like "I love all of them" only resolve correctly with
  that context.
- Pass intent when you know the workflow mode: deciding, modifying,
  brainstorming, exploring, or general. Deciding and modifying are
  strict — ideas only reach the decided state on an explicit commitment.
- Pass topic when the conversation has a clear current theme; it groups
  new ideas for the later review.

Hedged phrasing ("maybe", "I think", "if we have time") never produces a
decision — that is deliberate. Do not try to force it.

Call brainstorm_ideas whenever the user asks what has been captured, or
before suggesting a review.

## ENDING THE SESSION

When the user wants to wrap up (or the conversation is winding down,
suggest it yourself):

1. Call review_start — it returns every tracked idea grouped by topic.
   Present the listing and ask the user what to do with each idea.
2. Call review_decide with the user's decision statement VERBATIM. Topic
   names apply to a whole group; "the rest" and "everything" work.
3. If it returns a clarification question, relay the question, then call
   review_clarify with the user's reply. Repeat as needed — each reply
   only has to address what was asked.
4. When it returns a decision preview, show it to the user and ask for
   confirmation.
5. Call review_confirm ONLY after the user explicitly confirms. Never
   infer confirmation from tone or enthusiasm.
6. If the user changes their mind before confirming, call review_cancel.
   Nothing is committed and the conversation returns to normal.

Finalization is atomic from the user's point of view: it writes the
session record, generates accepted/rejected summary documents, refreshes
live project documents, and appends accepted ideas to the project. A
conversation can only ever be finalized once.

## RESOURCES

- brainstorm://sessions — every finalized session record
- brainstorm://project-items — the append-only accepted-idea record

## IMPORTANT RULES

- Always pass user statements verbatim — never paraphrase them into
  tool arguments; the parser depends on the user's own words.
- Never call review_confirm without an explicit user confirmation.
- An idea the user explicitly sets aside ("park it", "later") is fine to
  leave undecided; an idea they never addressed is not — the review will
  ask about it.`
}
