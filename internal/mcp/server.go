package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"panels/internal/service"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

const (
	defaultName    = "panels-mcp"
	defaultVersion = "1.0.0"
)

// Server is the MCP server for the panel document.
// It exposes tools, resources, and prompts so AI agents can lay out panels.
type Server struct {
	mcp      *server.MCPServer
	emitter  EventEmitter
	approval *ApprovalQueue
	store    *service.PanelStore

	// Batches containing destructive actions wait for Approve/Reject.
	confirmDestructive bool
}

// Deps holds all dependencies passed from the App layer to the MCP server.
type Deps struct {
	Emitter            EventEmitter
	Store              *service.PanelStore
	Name               string
	Version            string
	ConfirmDestructive bool
	ApprovalTimeout    time.Duration
}

// New creates and configures a new MCP server with all tools and resources.
func New(ctx context.Context, deps Deps) *Server {
	name, version := deps.Name, deps.Version
	if name == "" {
		name = defaultName
	}
	if version == "" {
		version = defaultVersion
	}

	s := &Server{
		emitter:            deps.Emitter,
		approval:           NewApprovalQueue(ctx, deps.Emitter, deps.ApprovalTimeout),
		store:              deps.Store,
		confirmDestructive: deps.ConfirmDestructive,
	}

	s.mcp = server.NewMCPServer(
		name,
		version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(true, false),
		server.WithPromptCapabilities(true),
	)

	s.registerPanelTools()
	s.registerResources()
	s.registerPrompts()

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	log.Println("[MCP] Starting stdio server...")
	return server.ServeStdio(s.mcp)
}

// Approve forwards a user approval to the approval queue.
func (s *Server) Approve(actionID string) {
	s.approval.Approve(actionID)
}

// Reject forwards a user rejection to the approval queue.
func (s *Server) Reject(actionID string) {
	s.approval.Reject(actionID)
}

// Pending lists the batches currently waiting for a decision.
func (s *Server) Pending() []PendingAction {
	return s.approval.Pending()
}

// ── Helpers ────────────────────────────────────────────────

// textResult creates a simple text tool result.
func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

// jsonResult serializes v to JSON and wraps it in a text tool result.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal result: %w", err)
	}
	return textResult(string(data)), nil
}

func boolPtr(v bool) *bool { return &v }
