package mcpserver

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerPrompts() {
	s.mcp.AddPrompt(mcp.NewPrompt("build_panel",
		mcp.WithPromptDescription("Guide through laying out a tabbed panel of components for a topic"),
		mcp.WithArgument("topic",
			mcp.ArgumentDescription("Topic the panel should present"),
			mcp.RequiredArgument(),
		),
	), s.handleBuildPanelPrompt)
}

func (s *Server) handleBuildPanelPrompt(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	topic := req.Params.Arguments["topic"]
	if topic == "" {
		return nil, fmt.Errorf("topic is required")
	}
	return &mcp.GetPromptResult{
		Description: fmt.Sprintf("Build a panel for: %s", topic),
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.TextContent{
					Type: "text",
					Text: fmt.Sprintf(`Build a panel about "%s" using the panelAction tool. Follow these steps:

1. Call get_panel_state to see what is already there
2. Add one tab per major aspect of the topic with addTab (every tab needs an id and a title)
3. Inside each tab, add zones with addZone to group related content
4. Fill the zones with addComponent; every component needs an id and a type, and props carries its data
5. Use updateComponent to refine props, and the reorder actions to fix ordering
6. Finish with switchTab to the tab the user should see first

Send related actions together as one list in payload; they are applied in order. Use undo if a step goes wrong.`, topic),
				},
			},
		},
	}, nil
}
