// Package resources implements MCP resource handlers for the
// brainstorm engine.
//
// Resources provide read-only data that the host can consume for
// context. They use URI-based addressing (brainstorm://...) following
// MCP conventions.
package resources

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/reconstitutechrist-rgb/brainstorm/internal/store"
)

// Handler manages the brainstorm resource endpoints.
type Handler struct {
	store *store.Store
}

// NewHandler creates a resource Handler with its dependencies.
func NewHandler(s *store.Store) *Handler {
	return &Handler{store: s}
}

// SessionsResource returns the MCP resource definition for finalized
// session records.
func (h *Handler) SessionsResource() mcp.Resource {
	return mcp.NewResource(
		"brainstorm://sessions",
		"Finalized Sessions",
		mcp.WithResourceDescription("Immutable records of every finalized brainstorm session, newest first"),
		mcp.WithMIMEType("application/json"),
	)
}

// HandleSessions returns all session records as JSON.
func (h *Handler) HandleSessions(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	records, err := h.store.ListAllSessionRecords()
	if err != nil {
		return errorResource(req.Params.URI, err.Error()), nil
	}
	return jsonResource(req.Params.URI, map[string]any{"sessions": records})
}

// ItemsResource returns the MCP resource definition for the project
// item record.
func (h *Handler) ItemsResource() mcp.Resource {
	return mcp.NewResource(
		"brainstorm://project-items",
		"Project Items",
		mcp.WithResourceDescription("The append-only list of ideas accepted into projects, with brainstorm traceability"),
		mcp.WithMIMEType("application/json"),
	)
}

// HandleItems returns all project items as JSON.
func (h *Handler) HandleItems(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	items, err := h.store.ListAllProjectItems()
	if err != nil {
		return errorResource(req.Params.URI, err.Error()), nil
	}
	return jsonResource(req.Params.URI, map[string]any{"items": items})
}

// jsonResource marshals a payload into a single JSON resource.
func jsonResource(uri string, payload any) ([]mcp.ResourceContents, error) {
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling resource: %w", err)
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

// errorResource returns a resource with an error message.
func errorResource(uri, message string) []mcp.ResourceContents {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "text/plain",
			Text:     fmt.Sprintf("Error: %s", message),
		},
	}
}
