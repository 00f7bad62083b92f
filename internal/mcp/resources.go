package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

const stateResourceURI = "panel://state"

func (s *Server) registerResources() {
	// ── panel://state ──────────────────────────────────
	s.mcp.AddResource(mcp.NewResource(
		stateResourceURI,
		"Panel State",
		mcp.WithResourceDescription("Current tabs, zones and components with the active tab id"),
		mcp.WithMIMEType("application/json"),
	), s.handleStateResource)
}

func (s *Server) handleStateResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	data, err := json.MarshalIndent(s.store.Snapshot(), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal state: %w", err)
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      stateResourceURI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
