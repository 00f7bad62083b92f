package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"panels/internal/action"
	"panels/internal/domain"
	"panels/internal/engine"

	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerPanelTools() {
	// ── panelAction ────────────────────────────────────
	tool := mcp.NewToolWithRawSchema(action.ToolName,
		"Change the panel layout. payload is one action object or a list of them, applied in order. "+
			"Each action has an \"action\" field naming its kind: addTab, removeTab, renameTab, reorderTabs, "+
			"switchTab, addZone, removeZone, reorderZones, addComponent, removeComponent, updateComponent, "+
			"reorderComponents, setPanelState, undo, redo. Invalid actions are skipped and reported.",
		panelActionSchema(),
	)
	tool.Annotations.DestructiveHint = boolPtr(true)
	s.mcp.AddTool(tool, s.handlePanelAction)

	// ── get_panel_state ────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("get_panel_state",
		mcp.WithDescription("Get the current tabs, zones and components, plus whether undo/redo are available"),
		mcp.WithToolAnnotation(mcp.ToolAnnotation{ReadOnlyHint: boolPtr(true)}),
	), s.handleGetPanelState)
}

// panelActionSchema is the tool input schema: payload accepts any action
// document, a list of them, or the same as JSON text.
func panelActionSchema() json.RawMessage {
	variants := make([]any, 0, len(action.Kinds))
	for _, kind := range action.Kinds {
		variants = append(variants, action.Document(kind))
	}
	one := map[string]any{"anyOf": variants}
	schema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"payload": map[string]any{
				"description": "One action, a list of actions, or either encoded as JSON text",
				"anyOf": []any{
					one,
					map[string]any{"type": "array", "items": one},
					map[string]any{"type": "string"},
				},
			},
		},
		"required": []string{"payload"},
	}
	data, _ := json.Marshal(schema)
	return data
}

type rejectionView struct {
	Index int    `json:"index"`
	Kind  string `json:"kind,omitempty"`
	Error string `json:"error"`
}

type panelActionResult struct {
	Applied     int             `json:"applied"`
	Accepted    int             `json:"accepted"`
	Rejected    []rejectionView `json:"rejected"`
	ActiveTabID *string         `json:"activeTabId"`
	CanUndo     bool            `json:"canUndo"`
	CanRedo     bool            `json:"canRedo"`
}

type panelStateResult struct {
	State   domain.Snapshot `json:"state"`
	CanUndo bool            `json:"canUndo"`
	CanRedo bool            `json:"canRedo"`
}

func (s *Server) handlePanelAction(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	payload, ok := req.GetArguments()["payload"]
	if !ok || payload == nil {
		return mcp.NewToolResultError("payload is required"), nil
	}

	actions, rejected := action.ParseDetailed(map[string]any{
		"tool":    action.ToolName,
		"payload": payload,
	})
	views := make([]rejectionView, len(rejected))
	for i, r := range rejected {
		views[i] = rejectionView{Index: r.Index, Kind: r.Kind, Error: r.Err.Error()}
	}
	if len(actions) == 0 {
		msg := "no valid panel action in payload"
		if len(rejected) > 0 {
			reasons := make([]string, len(rejected))
			for i, r := range rejected {
				reasons[i] = r.Error()
			}
			msg += ": " + strings.Join(reasons, "; ")
		}
		return mcp.NewToolResultError(msg), nil
	}

	if s.confirmDestructive {
		if kinds := destructiveKinds(actions); len(kinds) > 0 {
			meta, _ := json.Marshal(map[string]any{"actions": kinds})
			approved, err := s.approval.Request(action.ToolName,
				fmt.Sprintf("Apply %d action(s) including %s", len(actions), strings.Join(kinds, ", ")),
				string(meta))
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			if !approved {
				return mcp.NewToolResultError("action rejected by user: " + action.ToolName), nil
			}
		}
	}

	applied := s.store.Dispatch(actions...)
	state := s.store.State()
	return jsonResult(panelActionResult{
		Applied:     applied,
		Accepted:    len(actions),
		Rejected:    views,
		ActiveTabID: nullableID(state.ActiveTabID),
		CanUndo:     engine.CanUndo(state),
		CanRedo:     engine.CanRedo(state),
	})
}

func (s *Server) handleGetPanelState(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	state := s.store.State()
	return jsonResult(panelStateResult{
		State:   state.Snapshot(),
		CanUndo: engine.CanUndo(state),
		CanRedo: engine.CanRedo(state),
	})
}

// destructiveKinds lists, once each, the destructive kinds present in actions.
func destructiveKinds(actions []action.Action) []string {
	var kinds []string
	seen := map[action.Kind]bool{}
	for _, a := range actions {
		if action.Destructive(a) && !seen[a.Kind()] {
			seen[a.Kind()] = true
			kinds = append(kinds, string(a.Kind()))
		}
	}
	return kinds
}

func nullableID(id string) *string {
	if id == "" {
		return nil
	}
	return &id
}
